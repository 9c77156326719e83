package kvstore

import (
	"context"
	"math/rand"
	"time"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/store/watch"
)

// MaxUpdateAttempts is how often a read-modify-write is tried before it fails with store.ErrConflict.
const MaxUpdateAttempts = 10

const retryBackoff = 5 * time.Millisecond

// API is the part of the plugin API the KV store needs.
type API interface {
	KVGet(key string) ([]byte, *model.AppError)
	KVSet(key string, value []byte) *model.AppError
	KVSetWithOptions(key string, value []byte, options model.PluginKVSetOptions) (bool, *model.AppError)
	KVDelete(key string) *model.AppError
	CreatePost(post *model.Post) (*model.Post, *model.AppError)
	LogDebug(msg string, keyValuePairs ...interface{})
	LogWarn(msg string, keyValuePairs ...interface{})
	LogError(msg string, keyValuePairs ...interface{})
}

// ChatConfig controls how poll messages are posted.
type ChatConfig struct {
	BotUserID string
	PluginID  string
	SiteURL   string
}

// Store is a document store on top of the plugin KV store.
// Change notifications only reach subscribers of the same plugin instance.
type Store struct {
	api         API
	hub         *watch.Hub
	now         func() int64
	maxAttempts int

	locationStore LocationPollStore
	groupStore    GroupPollStore
	chatStore     ChatStore
	systemStore   SystemStore
}

// NewStore creates a KV store and upgrades the stored schema to pluginVersion.
func NewStore(api API, pluginVersion string, chatConfig ChatConfig) (*Store, error) {
	s := newStore(api, chatConfig)
	if err := s.UpdateDatabase(pluginVersion); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(api API, chatConfig ChatConfig) *Store {
	s := &Store{
		api:         api,
		hub:         watch.NewHub(),
		now:         model.GetMillis,
		maxAttempts: MaxUpdateAttempts,
	}
	s.locationStore = LocationPollStore{s: s}
	s.groupStore = GroupPollStore{s: s}
	s.chatStore = ChatStore{s: s, config: chatConfig}
	s.systemStore = SystemStore{api: api}
	return s
}

func (s *Store) LocationPoll() store.LocationPollStore { return &s.locationStore }
func (s *Store) GroupPoll() store.GroupPollStore       { return &s.groupStore }
func (s *Store) Chat() store.ChatStore                 { return &s.chatStore }
func (s *Store) System() *SystemStore                  { return &s.systemStore }

// Close stops all subscriptions.
func (s *Store) Close() error {
	s.hub.Close()
	return nil
}

// compareAndSet applies fn to the value of key and writes the result only if the value did not
// change in the meantime. A lost race is retried with the fresh value.
// fn receives nil if the key does not exist. If fn returns nil the key is deleted.
func (s *Store) compareAndSet(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) ([]byte, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		old, appErr := s.api.KVGet(key)
		if appErr != nil {
			return nil, errors.Wrapf(appErr, "failed to get %s", key)
		}
		if len(old) == 0 {
			old = nil
		}

		next, err := fn(old)
		if err != nil {
			return nil, err
		}
		if old == nil && next == nil {
			return nil, nil
		}

		ok, appErr := s.api.KVSetWithOptions(key, next, model.PluginKVSetOptions{
			Atomic:   true,
			OldValue: old,
		})
		if appErr != nil {
			return nil, errors.Wrapf(appErr, "failed to set %s", key)
		}
		if ok {
			return next, nil
		}

		s.api.LogDebug("Concurrent update, retrying", "key", key, "attempt", attempt)
		if err := sleep(ctx, time.Duration(rand.Int63n(int64(retryBackoff)*int64(attempt)))); err != nil {
			return nil, err
		}
	}

	s.api.LogWarn("Giving up after concurrent updates", "key", key, "attempts", s.maxAttempts)
	return nil, store.ErrConflict
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
