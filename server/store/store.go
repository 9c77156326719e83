package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/chat"
	"github.com/tonightapp/tonight/server/poll"
)

var (
	// ErrNotFound is returned when a poll does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a read-modify-write could not be applied because of concurrent writers.
	ErrConflict = errors.New("too many concurrent updates")
)

// UpdateFunc computes the next state of a poll from the current one.
// current is nil if the poll does not exist yet. fn must return a poll unless it fails.
// A store may call an UpdateFunc more than once, so it must not have side effects.
type UpdateFunc func(current *poll.Poll) (*poll.Poll, error)

// Store is the document store the services are built on.
type Store interface {
	LocationPoll() LocationPollStore
	GroupPoll() GroupPollStore
	Chat() ChatStore
	Close() error
}

// LocationPollStore stores one poll per location.
type LocationPollStore interface {
	// Get returns the poll of a location or ErrNotFound.
	Get(ctx context.Context, location string) (*poll.Poll, error)
	// Update runs fn as an atomic read-modify-write on the poll of a location and returns the stored poll.
	// The poll ID is the location. Timestamps the backend assigns on commit are left 0 in the returned poll.
	Update(ctx context.Context, location string, fn UpdateFunc) (*poll.Poll, error)
	// Subscribe calls cb with the current poll and again after every change until the returned function is called.
	// cb receives nil while the location has no poll.
	Subscribe(location string, cb func(*poll.Poll)) (func(), error)
}

// GroupPollStore stores the polls of groups.
type GroupPollStore interface {
	// Insert stores a new poll under a generated ID and returns that ID.
	Insert(ctx context.Context, groupID string, p *poll.Poll) (string, error)
	// Get returns a poll or ErrNotFound.
	Get(ctx context.Context, groupID, pollID string) (*poll.Poll, error)
	// Update runs fn as an atomic read-modify-write on an existing poll. fn is never called with nil.
	Update(ctx context.Context, groupID, pollID string, fn UpdateFunc) (*poll.Poll, error)
	// Delete removes a poll. Deleting a missing poll returns ErrNotFound.
	Delete(ctx context.Context, groupID, pollID string) error
	// List returns all polls of a group, newest first.
	List(ctx context.Context, groupID string) ([]*poll.Poll, error)
	// Subscribe calls cb with the polls of a group, newest first, and again after every change.
	Subscribe(groupID string, cb func([]*poll.Poll)) (func(), error)
}

// ChatStore appends messages to the chat of a group.
type ChatStore interface {
	Append(ctx context.Context, groupID string, m *chat.Message) (string, error)
}
