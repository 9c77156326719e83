package fsstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
)

// GroupPollStore allows to access the polls of groups in Firestore.
type GroupPollStore struct {
	s *Store
}

func (gs *GroupPollStore) polls(groupID string) *firestore.CollectionRef {
	return gs.s.group(groupID).Collection(pollsCollection)
}

func (gs *GroupPollStore) newestFirst(groupID string) firestore.Query {
	return gs.polls(groupID).OrderBy("createdAt", firestore.Desc)
}

// Insert adds a poll under a generated ID.
func (gs *GroupPollStore) Insert(ctx context.Context, groupID string, p *poll.Poll) (string, error) {
	p = p.Copy()
	p.GroupID = groupID
	p.CreatedAt = 0
	p.UpdatedAt = 0

	ref, _, err := gs.polls(groupID).Add(ctx, toPollDocument(p))
	if err != nil {
		return "", errors.Wrap(err, "failed to add group poll")
	}
	return ref.ID, nil
}

// Get returns a poll of a group.
func (gs *GroupPollStore) Get(ctx context.Context, groupID, pollID string) (*poll.Poll, error) {
	snap, err := gs.polls(groupID).Doc(pollID).Get(ctx)
	if isNotFound(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get group poll")
	}
	return decodePoll(snap)
}

// Update applies fn to an existing poll inside a transaction.
// The server sets updatedAt, so the returned poll has UpdatedAt 0.
func (gs *GroupPollStore) Update(ctx context.Context, groupID, pollID string, fn store.UpdateFunc) (*poll.Poll, error) {
	ref := gs.polls(groupID).Doc(pollID)

	var updated *poll.Poll
	err := gs.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := decodePoll(snap)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return errors.New("update returned no poll")
		}

		next.ID = current.ID
		next.GroupID = current.GroupID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = 0
		updated = next
		return tx.Set(ref, toPollDocument(next))
	}, firestore.MaxAttempts(MaxUpdateAttempts))
	if err != nil {
		return nil, transactionError(err)
	}
	return updated, nil
}

// Delete removes a poll. It fails with store.ErrNotFound if the poll does not exist.
func (gs *GroupPollStore) Delete(ctx context.Context, groupID, pollID string) error {
	_, err := gs.polls(groupID).Doc(pollID).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete group poll")
	}
	return nil
}

// List returns all polls of a group, newest first.
func (gs *GroupPollStore) List(ctx context.Context, groupID string) ([]*poll.Poll, error) {
	it := gs.newestFirst(groupID).Documents(ctx)
	defer it.Stop()

	polls := []*poll.Poll{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return polls, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to list group polls")
		}
		p, err := decodePoll(snap)
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
}

// Subscribe listens to the polls of a group.
func (gs *GroupPollStore) Subscribe(groupID string, cb func([]*poll.Poll)) (func(), error) {
	q := gs.newestFirst(groupID)

	return gs.s.listen(func(ctx context.Context) error {
		it := q.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				return err
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				return err
			}
			polls, err := decodePolls(snaps)
			if err != nil {
				gs.s.log.LogWarn("Skipping undecodable group polls", "group_id", groupID, "error", err.Error())
				continue
			}
			cb(polls)
		}
	}), nil
}

func decodePolls(snaps []*firestore.DocumentSnapshot) ([]*poll.Poll, error) {
	polls := make([]*poll.Poll, 0, len(snaps))
	for _, snap := range snaps {
		p, err := decodePoll(snap)
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, nil
}
