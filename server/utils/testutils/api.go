package testutils

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/mattermost/mattermost-server/v6/model"
)

// MemoryAPI is an in-memory stand-in for the parts of the plugin API that back the KV store.
// Unlike plugintest.API it keeps state and implements the atomic compare-and-set of KVSetWithOptions,
// which makes it suitable for tests with concurrent writers.
type MemoryAPI struct {
	mu    sync.Mutex
	kv    map[string][]byte
	posts []*model.Post
	logs  []string

	// CreatePostError makes CreatePost fail when set.
	CreatePostError *model.AppError
	// BeforeSet is called before every KVSetWithOptions, outside of the lock.
	BeforeSet func(key string)
}

// NewMemoryAPI returns an empty MemoryAPI.
func NewMemoryAPI() *MemoryAPI {
	return &MemoryAPI{
		kv: map[string][]byte{},
	}
}

func (m *MemoryAPI) KVGet(key string) ([]byte, *model.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.kv[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryAPI) KVSet(key string, value []byte) *model.AppError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value == nil {
		delete(m.kv, key)
		return nil
	}
	m.kv[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryAPI) KVSetWithOptions(key string, value []byte, options model.PluginKVSetOptions) (bool, *model.AppError) {
	if m.BeforeSet != nil {
		m.BeforeSet(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if options.Atomic {
		current, exists := m.kv[key]
		if options.OldValue == nil && exists {
			return false, nil
		}
		if options.OldValue != nil && (!exists || !bytes.Equal(current, options.OldValue)) {
			return false, nil
		}
	}

	if value == nil {
		delete(m.kv, key)
		return true, nil
	}
	m.kv[key] = append([]byte(nil), value...)
	return true, nil
}

func (m *MemoryAPI) KVDelete(key string) *model.AppError {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.kv, key)
	return nil
}

func (m *MemoryAPI) CreatePost(post *model.Post) (*model.Post, *model.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreatePostError != nil {
		return nil, m.CreatePostError
	}
	created := post.Clone()
	created.Id = model.NewId()
	created.CreateAt = model.GetMillis()
	m.posts = append(m.posts, created)
	return created, nil
}

func (m *MemoryAPI) LogDebug(msg string, keyValuePairs ...interface{}) { m.log("debug", msg, keyValuePairs) }
func (m *MemoryAPI) LogInfo(msg string, keyValuePairs ...interface{})  { m.log("info", msg, keyValuePairs) }
func (m *MemoryAPI) LogWarn(msg string, keyValuePairs ...interface{})  { m.log("warn", msg, keyValuePairs) }
func (m *MemoryAPI) LogError(msg string, keyValuePairs ...interface{}) { m.log("error", msg, keyValuePairs) }

func (m *MemoryAPI) log(level, msg string, keyValuePairs []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs = append(m.logs, fmt.Sprintf("%s: %s %v", level, msg, keyValuePairs))
}

// Keys returns all stored keys in sorted order.
func (m *MemoryAPI) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.kv))
	for k := range m.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Posts returns the posts created so far.
func (m *MemoryAPI) Posts() []*model.Post {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*model.Post(nil), m.posts...)
}

// Logs returns all log lines written so far.
func (m *MemoryAPI) Logs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.logs...)
}
