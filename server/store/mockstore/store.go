package mockstore

import (
	"github.com/stretchr/testify/mock"

	"github.com/tonightapp/tonight/server/store"
)

// Store is a mock store
type Store struct {
	LocationPollStore LocationPollStore
	GroupPollStore    GroupPollStore
	ChatStore         ChatStore
}

// LocationPoll returns the Location Poll Store
func (s *Store) LocationPoll() store.LocationPollStore { return &s.LocationPollStore }

// GroupPoll returns the Group Poll Store
func (s *Store) GroupPoll() store.GroupPollStore { return &s.GroupPollStore }

// Chat returns the Chat Store
func (s *Store) Chat() store.ChatStore { return &s.ChatStore }

// Close does nothing
func (s *Store) Close() error { return nil }

// AssertExpectations makes sure the expectations of all stores are meet
func (s *Store) AssertExpectations(t mock.TestingT) {
	s.LocationPollStore.AssertExpectations(t)
	s.GroupPollStore.AssertExpectations(t)
	s.ChatStore.AssertExpectations(t)
}
