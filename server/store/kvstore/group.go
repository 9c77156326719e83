package kvstore

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
)

const (
	groupPollPrefix  = "gpoll_"
	groupIndexPrefix = "gpolls_"
)

// GroupPollStore allows to access group polls in the KV Store.
// Every group has an index of its poll IDs in insertion order.
type GroupPollStore struct {
	s *Store
}

func groupPollKey(pollID string) string   { return groupPollPrefix + pollID }
func groupIndexKey(groupID string) string { return groupIndexPrefix + groupID }

// Insert stores a new poll and adds it to the index of its group.
func (gs *GroupPollStore) Insert(ctx context.Context, groupID string, p *poll.Poll) (string, error) {
	p = p.Copy()
	p.ID = model.NewId()
	p.GroupID = groupID
	now := gs.s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	ok, appErr := gs.s.api.KVSetWithOptions(groupPollKey(p.ID), p.EncodeToByte(), model.PluginKVSetOptions{
		Atomic:   true,
		OldValue: nil,
	})
	if appErr != nil {
		return "", errors.Wrap(appErr, "failed to save group poll")
	}
	if !ok {
		return "", errors.Errorf("group poll %s already exists", p.ID)
	}

	if err := gs.updateIndex(ctx, groupID, func(ids []string) []string {
		return append(ids, p.ID)
	}); err != nil {
		if appErr := gs.s.api.KVDelete(groupPollKey(p.ID)); appErr != nil {
			gs.s.api.LogWarn("Failed to remove unindexed group poll", "poll_id", p.ID, "error", appErr.Error())
		}
		return "", err
	}

	gs.s.hub.Notify(groupIndexKey(groupID))
	return p.ID, nil
}

// Get returns a poll of a group.
func (gs *GroupPollStore) Get(ctx context.Context, groupID, pollID string) (*poll.Poll, error) {
	b, appErr := gs.s.api.KVGet(groupPollKey(pollID))
	if appErr != nil {
		return nil, errors.Wrap(appErr, "failed to get group poll")
	}
	p, err := decodeGroupPoll(b, groupID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update atomically applies fn to an existing poll.
func (gs *GroupPollStore) Update(ctx context.Context, groupID, pollID string, fn store.UpdateFunc) (*poll.Poll, error) {
	var updated *poll.Poll
	_, err := gs.s.compareAndSet(ctx, groupPollKey(pollID), func(old []byte) ([]byte, error) {
		current, err := decodeGroupPoll(old, groupID)
		if err != nil {
			return nil, err
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, errors.New("update returned no poll")
		}

		next.ID = current.ID
		next.GroupID = current.GroupID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = gs.s.now()
		updated = next
		return next.EncodeToByte(), nil
	})
	if err != nil {
		return nil, err
	}

	gs.s.hub.Notify(groupIndexKey(groupID))
	return updated, nil
}

// Delete removes a poll and its index entry.
func (gs *GroupPollStore) Delete(ctx context.Context, groupID, pollID string) error {
	if _, err := gs.Get(ctx, groupID, pollID); err != nil {
		return err
	}

	if appErr := gs.s.api.KVDelete(groupPollKey(pollID)); appErr != nil {
		return errors.Wrap(appErr, "failed to delete group poll")
	}

	if err := gs.updateIndex(ctx, groupID, func(ids []string) []string {
		kept := ids[:0]
		for _, id := range ids {
			if id != pollID {
				kept = append(kept, id)
			}
		}
		return kept
	}); err != nil {
		// List skips missing polls, so a stale index entry is harmless.
		gs.s.api.LogWarn("Failed to remove group poll from index", "poll_id", pollID, "error", err.Error())
	}

	gs.s.hub.Notify(groupIndexKey(groupID))
	return nil
}

// List returns all polls of a group, newest first.
func (gs *GroupPollStore) List(ctx context.Context, groupID string) ([]*poll.Poll, error) {
	ids, err := gs.index(groupID)
	if err != nil {
		return nil, err
	}

	polls := []*poll.Poll{}
	for i := len(ids) - 1; i >= 0; i-- {
		p, err := gs.Get(ctx, groupID, ids[i])
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}

	sort.SliceStable(polls, func(i, j int) bool {
		return polls[i].CreatedAt > polls[j].CreatedAt
	})
	return polls, nil
}

// Subscribe delivers the polls of a group now and after every change.
func (gs *GroupPollStore) Subscribe(groupID string, cb func([]*poll.Poll)) (func(), error) {
	return gs.s.hub.Subscribe(groupIndexKey(groupID), func() {
		polls, err := gs.List(context.Background(), groupID)
		if err != nil {
			gs.s.api.LogWarn("Failed to list group polls for subscriber", "group_id", groupID, "error", err.Error())
			return
		}
		cb(polls)
	})
}

func (gs *GroupPollStore) index(groupID string) ([]string, error) {
	b, appErr := gs.s.api.KVGet(groupIndexKey(groupID))
	if appErr != nil {
		return nil, errors.Wrap(appErr, "failed to get group poll index")
	}
	return decodeIndex(b)
}

func (gs *GroupPollStore) updateIndex(ctx context.Context, groupID string, fn func([]string) []string) error {
	_, err := gs.s.compareAndSet(ctx, groupIndexKey(groupID), func(old []byte) ([]byte, error) {
		ids, err := decodeIndex(old)
		if err != nil {
			return nil, err
		}
		ids = fn(ids)
		if len(ids) == 0 {
			return nil, nil
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode group poll index")
		}
		return b, nil
	})
	return err
}

func decodeIndex(b []byte) ([]string, error) {
	ids := []string{}
	if len(b) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, errors.Wrap(err, "failed to decode group poll index")
	}
	return ids, nil
}

func decodeGroupPoll(b []byte, groupID string) (*poll.Poll, error) {
	if len(b) == 0 {
		return nil, store.ErrNotFound
	}
	p := poll.DecodePollFromByte(b)
	if p == nil {
		return nil, errors.New("failed to decode group poll")
	}
	if p.GroupID != groupID {
		return nil, store.ErrNotFound
	}
	return p, nil
}
