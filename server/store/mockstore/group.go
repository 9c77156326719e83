package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
)

// GroupPollStore is a mock type for the GroupPollStore type
type GroupPollStore struct {
	mock.Mock
}

// Insert provides a mock function with given fields: ctx, groupID, p
func (_m *GroupPollStore) Insert(ctx context.Context, groupID string, p *poll.Poll) (string, error) {
	ret := _m.Called(ctx, groupID, p)
	return ret.String(0), ret.Error(1)
}

// Get provides a mock function with given fields: ctx, groupID, pollID
func (_m *GroupPollStore) Get(ctx context.Context, groupID, pollID string) (*poll.Poll, error) {
	ret := _m.Called(ctx, groupID, pollID)

	var r0 *poll.Poll
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*poll.Poll)
	}
	return r0, ret.Error(1)
}

// Update provides a mock function with given fields: ctx, groupID, pollID, fn
func (_m *GroupPollStore) Update(ctx context.Context, groupID, pollID string, fn store.UpdateFunc) (*poll.Poll, error) {
	ret := _m.Called(ctx, groupID, pollID, fn)

	var r0 *poll.Poll
	if rf, ok := ret.Get(0).(func(context.Context, string, string, store.UpdateFunc) *poll.Poll); ok {
		r0 = rf(ctx, groupID, pollID, fn)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*poll.Poll)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, store.UpdateFunc) error); ok {
		r1 = rf(ctx, groupID, pollID, fn)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Delete provides a mock function with given fields: ctx, groupID, pollID
func (_m *GroupPollStore) Delete(ctx context.Context, groupID, pollID string) error {
	ret := _m.Called(ctx, groupID, pollID)
	return ret.Error(0)
}

// List provides a mock function with given fields: ctx, groupID
func (_m *GroupPollStore) List(ctx context.Context, groupID string) ([]*poll.Poll, error) {
	ret := _m.Called(ctx, groupID)

	var r0 []*poll.Poll
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*poll.Poll)
	}
	return r0, ret.Error(1)
}

// Subscribe provides a mock function with given fields: groupID, cb
func (_m *GroupPollStore) Subscribe(groupID string, cb func([]*poll.Poll)) (func(), error) {
	ret := _m.Called(groupID, cb)

	var r0 func()
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(func())
	}

	return r0, ret.Error(1)
}
