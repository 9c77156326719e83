package kvstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/mattermost/mattermost-server/v6/plugin/plugintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/utils/testutils"
)

// voteFor is the update a location vote performs.
func voteFor(userID, label string) store.UpdateFunc {
	return func(current *poll.Poll) (*poll.Poll, error) {
		if current == nil {
			current = poll.NewLocationPoll(testutils.GetLocation())
		}
		if current.OptionByLabel(label) == nil {
			if _, errMsg := current.AddOption(label); errMsg != nil {
				return nil, fmt.Errorf("add option: %s", errMsg.Message.ID)
			}
		}
		next, _, err := current.ApplyVote(userID, current.OptionByLabel(label).ID)
		return next, err
	}
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, locationKey("Bloomington"), locationKey("Bloomington"))
	assert.NotEqual(t, locationKey("Bloomington"), locationKey("bloomington"))
	assert.Len(t, locationKey(string(make([]byte, 1000))), len(locationPrefix)+64)
}

func TestLocationPollStoreGet(t *testing.T) {
	t.Run("all fine", func(t *testing.T) {
		api := &plugintest.API{}
		api.On("KVGet", locationKey(testutils.GetLocation())).Return(testutils.GetLocationPollWithVotes().EncodeToByte(), nil)
		defer api.AssertExpectations(t)
		s := setupTestStore(api)

		p, err := s.LocationPoll().Get(context.Background(), testutils.GetLocation())
		require.NoError(t, err)
		assert.Equal(t, testutils.GetLocationPollWithVotes(), p)
	})
	t.Run("not found", func(t *testing.T) {
		api := &plugintest.API{}
		api.On("KVGet", locationKey(testutils.GetLocation())).Return([]byte(nil), nil)
		defer api.AssertExpectations(t)
		s := setupTestStore(api)

		p, err := s.LocationPoll().Get(context.Background(), testutils.GetLocation())
		assert.Equal(t, store.ErrNotFound, err)
		assert.Nil(t, p)
	})
	t.Run("KVGet() fails", func(t *testing.T) {
		api := &plugintest.API{}
		api.On("KVGet", locationKey(testutils.GetLocation())).Return([]byte{}, &model.AppError{})
		defer api.AssertExpectations(t)
		s := setupTestStore(api)

		p, err := s.LocationPoll().Get(context.Background(), testutils.GetLocation())
		assert.Error(t, err)
		assert.Nil(t, p)
	})
	t.Run("Decode fails", func(t *testing.T) {
		api := &plugintest.API{}
		api.On("KVGet", locationKey(testutils.GetLocation())).Return([]byte("{"), nil)
		defer api.AssertExpectations(t)
		s := setupTestStore(api)

		p, err := s.LocationPoll().Get(context.Background(), testutils.GetLocation())
		assert.Error(t, err)
		assert.NotEqual(t, store.ErrNotFound, err)
		assert.Nil(t, p)
	})
}

func TestLocationPollStoreUpdate(t *testing.T) {
	t.Run("create and vote", func(t *testing.T) {
		api := testutils.NewMemoryAPI()
		s := setupTestStore(api)
		location := testutils.GetLocation()

		p, err := s.LocationPoll().Update(context.Background(), location, voteFor("u1", "Bluebird"))
		require.NoError(t, err)
		assert.Equal(t, []*poll.Option{{ID: "Bluebird", Label: "Bluebird", Votes: 1, Voters: []string{"u1"}}}, p.Options)
		assert.Equal(t, 1, p.TotalVotes)
		assert.Equal(t, int64(1234567891), p.CreatedAt)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)

		p, err = s.LocationPoll().Update(context.Background(), location, voteFor("u1", "Bluebird"))
		require.NoError(t, err)
		assert.Equal(t, []*poll.Option{{ID: "Bluebird", Label: "Bluebird", Votes: 0, Voters: []string{}}}, p.Options)
		assert.Equal(t, int64(1234567891), p.CreatedAt)
		assert.Equal(t, int64(1234567892), p.UpdatedAt)

		stored, err := s.LocationPoll().Get(context.Background(), location)
		require.NoError(t, err)
		assert.Equal(t, p, stored)
		assert.Equal(t, []string{locationKey(location)}, api.Keys())
	})
	t.Run("update fails", func(t *testing.T) {
		api := testutils.NewMemoryAPI()
		s := setupTestStore(api)

		p, err := s.LocationPoll().Update(context.Background(), testutils.GetLocation(), voteFor("", "Bluebird"))
		assert.Equal(t, poll.ErrInvalidUserID, err)
		assert.Nil(t, p)
		assert.Empty(t, api.Keys())
	})
	t.Run("update returns no poll", func(t *testing.T) {
		api := testutils.NewMemoryAPI()
		s := setupTestStore(api)

		p, err := s.LocationPoll().Update(context.Background(), testutils.GetLocation(), func(*poll.Poll) (*poll.Poll, error) {
			return nil, nil
		})
		assert.Error(t, err)
		assert.Nil(t, p)
	})
	t.Run("concurrent votes are not lost", func(t *testing.T) {
		api := testutils.NewMemoryAPI()
		s := setupTestStore(api)
		s.maxAttempts = 1000
		location := testutils.GetLocation()
		labels := []string{"Bluebird", "Nick's", "Kilroy's"}

		const voters = 30
		var wg sync.WaitGroup
		for i := 0; i < voters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.LocationPoll().Update(context.Background(), location, voteFor(fmt.Sprintf("u%d", i), labels[i%len(labels)]))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		p, err := s.LocationPoll().Get(context.Background(), location)
		require.NoError(t, err)
		assert.Equal(t, voters, p.TotalVotes)
		require.Len(t, p.Options, len(labels))
		for _, o := range p.Options {
			assert.Equal(t, voters/len(labels), o.Votes, o.Label)
		}
	})
}

func TestLocationPollStoreSubscribe(t *testing.T) {
	api := testutils.NewMemoryAPI()
	s := setupTestStore(api)
	defer s.Close()
	location := testutils.GetLocation()

	updates := make(chan *poll.Poll, 10)
	unsubscribe, err := s.LocationPoll().Subscribe(location, func(p *poll.Poll) { updates <- p })
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case p := <-updates:
		assert.Nil(t, p)
	case <-time.After(time.Second):
		t.Fatal("no initial delivery")
	}

	_, err = s.LocationPoll().Update(context.Background(), location, voteFor("u1", "Bluebird"))
	require.NoError(t, err)

	select {
	case p := <-updates:
		require.NotNil(t, p)
		assert.Equal(t, 1, p.TotalVotes)
	case <-time.After(time.Second):
		t.Fatal("no delivery after update")
	}

	unsubscribe()
	unsubscribe()
	_, err = s.LocationPoll().Update(context.Background(), location, voteFor("u2", "Bluebird"))
	require.NoError(t, err)

	select {
	case <-updates:
		t.Fatal("delivery after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}
