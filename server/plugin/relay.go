package plugin

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/patrickmn/go-cache"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/service"
)

const (
	eventLocationTally = "location_tally"
	eventGroupPolls    = "group_polls"

	relayIdleTimeout      = time.Hour
	maxRelaySubscriptions = 500
)

type publisher interface {
	PublishWebSocketEvent(event string, payload map[string]interface{}, broadcast *model.WebsocketBroadcast)
	LogWarn(msg string, keyValuePairs ...interface{})
}

// relay forwards store subscriptions to websocket clients.
// A location or group is watched from the last time it was used until it has been idle for idleTimeout.
// At most maxSubscriptions are kept, the least recently used one is dropped first.
type relay struct {
	api              publisher
	locations        *service.LocationPollService
	groups           *service.GroupPollService
	maxSubscriptions int

	mu            sync.Mutex
	subscriptions *cache.Cache
	closed        bool
}

func newRelay(api publisher, locations *service.LocationPollService, groups *service.GroupPollService, idleTimeout time.Duration, maxSubscriptions int) *relay {
	// No janitor, expired subscriptions are removed while holding mu.
	subscriptions := cache.New(idleTimeout, 0)
	subscriptions.OnEvicted(func(_ string, unsubscribe interface{}) {
		unsubscribe.(func())()
	})

	return &relay{
		api:              api,
		locations:        locations,
		groups:           groups,
		maxSubscriptions: maxSubscriptions,
		subscriptions:    subscriptions,
	}
}

// watchLocation broadcasts the tally of location to all users whenever it changes.
func (r *relay) watchLocation(location string) {
	r.watch("location:"+location, func() (func(), bool) {
		unsubscribe, errMsg := r.locations.SubscribeToVotesForLocation(location, func(t *poll.Tally) {
			b, err := json.Marshal(t)
			if err != nil {
				r.api.LogWarn("Failed to encode tally", "location", location, "error", err.Error())
				return
			}
			r.api.PublishWebSocketEvent(eventLocationTally, map[string]interface{}{
				"location": location,
				"tally":    string(b),
			}, &model.WebsocketBroadcast{})
		})
		if errMsg != nil {
			r.api.LogWarn("Failed to watch location", "location", location, "error", errMsg.Message.ID)
			return nil, false
		}
		return unsubscribe, true
	})
}

// watchGroup sends the polls of a group to the members of its channel whenever they change.
func (r *relay) watchGroup(groupID string) {
	r.watch("group:"+groupID, func() (func(), bool) {
		unsubscribe, errMsg := r.groups.SubscribeToGroupPolls(groupID, func(polls []*poll.Poll) {
			b, err := json.Marshal(polls)
			if err != nil {
				r.api.LogWarn("Failed to encode group polls", "group_id", groupID, "error", err.Error())
				return
			}
			r.api.PublishWebSocketEvent(eventGroupPolls, map[string]interface{}{
				"group_id": groupID,
				"polls":    string(b),
			}, &model.WebsocketBroadcast{ChannelId: groupID})
		})
		if errMsg != nil {
			r.api.LogWarn("Failed to watch group", "group_id", groupID, "error", errMsg.Message.ID)
			return nil, false
		}
		return unsubscribe, true
	})
}

func (r *relay) watch(key string, subscribe func() (func(), bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if unsubscribe, ok := r.subscriptions.Get(key); ok {
		r.subscriptions.Set(key, unsubscribe, cache.DefaultExpiration)
		return
	}

	r.subscriptions.DeleteExpired()
	for r.maxSubscriptions > 0 && r.subscriptions.ItemCount() >= r.maxSubscriptions {
		r.evictLeastRecentlyUsed()
	}

	unsubscribe, ok := subscribe()
	if !ok {
		return
	}
	r.subscriptions.Set(key, unsubscribe, cache.DefaultExpiration)
}

// evictLeastRecentlyUsed ends the subscription that expires first. r.mu must be held.
func (r *relay) evictLeastRecentlyUsed() {
	var oldest string
	var expiration int64
	for key, item := range r.subscriptions.Items() {
		if oldest == "" || item.Expiration < expiration {
			oldest, expiration = key, item.Expiration
		}
	}
	r.subscriptions.Delete(oldest)
}

// watching reports whether key has an active subscription.
func (r *relay) watching(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.subscriptions.Get(key)
	return ok
}

// Close ends all subscriptions.
func (r *relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscriptions.DeleteExpired()
	for key := range r.subscriptions.Items() {
		r.subscriptions.Delete(key)
	}
	r.closed = true
}
