package kvstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
)

const locationPrefix = "location_"

// LocationPollStore allows to access location polls in the KV Store.
type LocationPollStore struct {
	s *Store
}

// locationKey hashes the location, because locations are free text and KV keys are limited in length.
func locationKey(location string) string {
	sum := sha256.Sum256([]byte(location))
	return locationPrefix + hex.EncodeToString(sum[:])
}

// Get returns the poll of a location.
func (ls *LocationPollStore) Get(ctx context.Context, location string) (*poll.Poll, error) {
	b, appErr := ls.s.api.KVGet(locationKey(location))
	if appErr != nil {
		return nil, errors.Wrap(appErr, "failed to get location poll")
	}
	if len(b) == 0 {
		return nil, store.ErrNotFound
	}

	p := poll.DecodePollFromByte(b)
	if p == nil {
		return nil, errors.New("failed to decode location poll")
	}
	return p, nil
}

// Update atomically applies fn to the poll of a location.
func (ls *LocationPollStore) Update(ctx context.Context, location string, fn store.UpdateFunc) (*poll.Poll, error) {
	key := locationKey(location)

	var updated *poll.Poll
	_, err := ls.s.compareAndSet(ctx, key, func(old []byte) ([]byte, error) {
		var current *poll.Poll
		if old != nil {
			if current = poll.DecodePollFromByte(old); current == nil {
				return nil, errors.New("failed to decode location poll")
			}
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, errors.New("update returned no poll")
		}

		now := ls.s.now()
		if current == nil || next.CreatedAt == 0 {
			next.CreatedAt = now
		}
		next.UpdatedAt = now
		updated = next
		return next.EncodeToByte(), nil
	})
	if err != nil {
		return nil, err
	}

	ls.s.hub.Notify(key)
	return updated, nil
}

// Subscribe delivers the poll of a location now and after every change.
func (ls *LocationPollStore) Subscribe(location string, cb func(*poll.Poll)) (func(), error) {
	return ls.s.hub.Subscribe(locationKey(location), func() {
		p, err := ls.Get(context.Background(), location)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			ls.s.api.LogWarn("Failed to read location poll for subscriber", "location", location, "error", err.Error())
			return
		}
		cb(p)
	})
}
