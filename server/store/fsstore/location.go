package fsstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
)

// LocationPollStore allows to access location polls in Firestore.
type LocationPollStore struct {
	s *Store
}

func (ls *LocationPollStore) doc(location string) *firestore.DocumentRef {
	return ls.s.client.Collection(locationsCollection).Doc(locationDocID(location))
}

// Get returns the poll of a location.
func (ls *LocationPollStore) Get(ctx context.Context, location string) (*poll.Poll, error) {
	snap, err := ls.doc(location).Get(ctx)
	if isNotFound(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get location poll")
	}
	return decodePoll(snap)
}

// Update applies fn to the poll of a location inside a transaction.
// The server sets the timestamps, so the returned poll has UpdatedAt 0, and CreatedAt 0 if the poll was created.
func (ls *LocationPollStore) Update(ctx context.Context, location string, fn store.UpdateFunc) (*poll.Poll, error) {
	ref := ls.doc(location)

	var updated *poll.Poll
	err := ls.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current *poll.Poll
		snap, err := tx.Get(ref)
		switch {
		case isNotFound(err):
		case err != nil:
			return err
		default:
			if current, err = decodePoll(snap); err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return errors.New("update returned no poll")
		}

		// The server sets updatedAt, and createdAt on creation.
		next.UpdatedAt = 0
		if current == nil {
			next.CreatedAt = 0
		}
		updated = next
		return tx.Set(ref, toPollDocument(next))
	}, firestore.MaxAttempts(MaxUpdateAttempts))
	if err != nil {
		return nil, transactionError(err)
	}

	updated.ID = location
	return updated, nil
}

// Subscribe listens to the poll of a location. cb receives nil while the poll does not exist.
func (ls *LocationPollStore) Subscribe(location string, cb func(*poll.Poll)) (func(), error) {
	ref := ls.doc(location)

	return ls.s.listen(func(ctx context.Context) error {
		it := ref.Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				return err
			}
			if !snap.Exists() {
				cb(nil)
				continue
			}
			p, err := decodePoll(snap)
			if err != nil {
				ls.s.log.LogWarn("Skipping undecodable location poll", "location", location, "error", err.Error())
				continue
			}
			cb(p)
		}
	}), nil
}
