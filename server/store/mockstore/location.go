package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
)

// LocationPollStore is a mock type for the LocationPollStore type
type LocationPollStore struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, location
func (_m *LocationPollStore) Get(ctx context.Context, location string) (*poll.Poll, error) {
	ret := _m.Called(ctx, location)

	var r0 *poll.Poll
	if rf, ok := ret.Get(0).(func(context.Context, string) *poll.Poll); ok {
		r0 = rf(ctx, location)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*poll.Poll)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, location)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Update provides a mock function with given fields: ctx, location, fn
func (_m *LocationPollStore) Update(ctx context.Context, location string, fn store.UpdateFunc) (*poll.Poll, error) {
	ret := _m.Called(ctx, location, fn)

	var r0 *poll.Poll
	if rf, ok := ret.Get(0).(func(context.Context, string, store.UpdateFunc) *poll.Poll); ok {
		r0 = rf(ctx, location, fn)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*poll.Poll)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, store.UpdateFunc) error); ok {
		r1 = rf(ctx, location, fn)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Subscribe provides a mock function with given fields: location, cb
func (_m *LocationPollStore) Subscribe(location string, cb func(*poll.Poll)) (func(), error) {
	ret := _m.Called(location, cb)

	var r0 func()
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(func())
	}

	return r0, ret.Error(1)
}
