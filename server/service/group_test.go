package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tonightapp/tonight/server/chat"
	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/service"
	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/store/mockstore"
	"github.com/tonightapp/tonight/server/utils"
	"github.com/tonightapp/tonight/server/utils/testutils"
)

func TestCreateGroupPoll(t *testing.T) {
	t.Run("all fine", func(t *testing.T) {
		s, api := setupKVStore(t)
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())
		ctx := context.Background()
		groupID := testutils.GetGroupID()

		result, errMsg := svc.CreateGroupPoll(ctx, groupID, "u1", "Where tonight?", []string{"A", "B"}, testutils.GetVoterMeta("u1"))
		require.Nil(t, errMsg)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.PollID)
		assert.NoError(t, result.ChatMessageErr)

		p, errMsg := svc.GetGroupPoll(ctx, groupID, result.PollID)
		require.Nil(t, errMsg)
		assert.Equal(t, "Where tonight?", p.Question)
		assert.Equal(t, "u1", p.CreatorID)
		assert.Equal(t, []*poll.Option{
			{ID: "option_0", Label: "A", Voters: []string{}},
			{ID: "option_1", Label: "B", Voters: []string{}},
		}, p.Options)

		posts := api.Posts()
		require.Len(t, posts, 1)
		assert.Equal(t, result.ChatMessageID, posts[0].Id)
		assert.Equal(t, result.PollID, posts[0].GetProp("poll_id"))
		assert.Equal(t, groupID, posts[0].ChannelId)
	})
	t.Run("only one option", func(t *testing.T) {
		ms := &mockstore.Store{}
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		result, errMsg := svc.CreateGroupPoll(context.Background(), testutils.GetGroupID(), "u1", "Where tonight?", []string{"only one"}, poll.VoterMeta{})
		assert.Nil(t, result)
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindInvalidArgument))
	})
	t.Run("only one option is not persisted", func(t *testing.T) {
		s, api := setupKVStore(t)
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())

		_, errMsg := svc.CreateGroupPoll(context.Background(), testutils.GetGroupID(), "u1", "Where tonight?", []string{"only one"}, poll.VoterMeta{})
		require.NotNil(t, errMsg)

		polls, errMsg := svc.ListGroupPolls(context.Background(), testutils.GetGroupID())
		require.Nil(t, errMsg)
		assert.Empty(t, polls)
		assert.Empty(t, api.Posts())
	})
	t.Run("empty question", func(t *testing.T) {
		ms := &mockstore.Store{}
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		_, errMsg := svc.CreateGroupPoll(context.Background(), testutils.GetGroupID(), "u1", "  ", []string{"A", "B"}, poll.VoterMeta{})
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindInvalidArgument))
	})
	t.Run("chat message fails", func(t *testing.T) {
		s, api := setupKVStore(t)
		api.CreatePostError = &model.AppError{Message: "channel is archived"}
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())
		ctx := context.Background()

		result, errMsg := svc.CreateGroupPoll(ctx, testutils.GetGroupID(), "u1", "Where tonight?", []string{"A", "B"}, poll.VoterMeta{})
		require.Nil(t, errMsg)
		require.NotNil(t, result)
		assert.Error(t, result.ChatMessageErr)
		assert.Empty(t, result.ChatMessageID)

		polls, errMsg := svc.ListGroupPolls(ctx, testutils.GetGroupID())
		require.Nil(t, errMsg)
		require.Len(t, polls, 1)
		assert.Equal(t, result.PollID, polls[0].ID)
	})
	t.Run("chat message refers to the new poll", func(t *testing.T) {
		ms := &mockstore.Store{}
		ms.GroupPollStore.On("Insert", mock.Anything, testutils.GetGroupID(), mock.AnythingOfType("*poll.Poll")).Return(testutils.GetPollID(), nil)
		ms.ChatStore.On("Append", mock.Anything, testutils.GetGroupID(), mock.MatchedBy(func(m *chat.Message) bool {
			return m.PollID == testutils.GetPollID() && m.SenderID == "u1" && m.Type == chat.MessageTypePoll
		})).Return("messageID", nil)
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		result, errMsg := svc.CreateGroupPoll(context.Background(), testutils.GetGroupID(), "u1", "Where tonight?", []string{"A", "B"}, poll.VoterMeta{DisplayName: "U"})
		require.Nil(t, errMsg)
		assert.Equal(t, &service.CreateResult{PollID: testutils.GetPollID(), ChatMessageID: "messageID"}, result)
	})
	t.Run("Insert fails", func(t *testing.T) {
		ms := &mockstore.Store{}
		ms.GroupPollStore.On("Insert", mock.Anything, testutils.GetGroupID(), mock.Anything).Return("", errors.New("offline"))
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		result, errMsg := svc.CreateGroupPoll(context.Background(), testutils.GetGroupID(), "u1", "Q", []string{"A", "B"}, poll.VoterMeta{})
		assert.Nil(t, result)
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindUnavailable))
	})
}

func TestVoteOnGroupPoll(t *testing.T) {
	t.Run("votes of two users", func(t *testing.T) {
		s, api := setupKVStore(t)
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())
		ctx := context.Background()
		groupID := testutils.GetGroupID()

		result, errMsg := svc.CreateGroupPoll(ctx, groupID, "u1", "Where tonight?", []string{"A", "B"}, poll.VoterMeta{})
		require.Nil(t, errMsg)

		var p *poll.Poll
		for _, v := range []struct {
			user, option string
			action       poll.Action
		}{
			{"u1", "option_0", poll.ActionAdded},
			{"u2", "option_0", poll.ActionAdded},
			{"u1", "option_1", poll.ActionSwitched},
		} {
			var action poll.Action
			p, action, errMsg = svc.VoteOnGroupPoll(ctx, groupID, result.PollID, v.option, v.user)
			require.Nil(t, errMsg)
			assert.Equal(t, v.action, action)
		}

		assert.Equal(t, []*poll.Option{
			{ID: "option_0", Label: "A", Votes: 1, Voters: []string{"u2"}},
			{ID: "option_1", Label: "B", Votes: 1, Voters: []string{"u1"}},
		}, p.Options)
		assert.Equal(t, 2, p.TotalVotes)

		stored, errMsg := svc.GetGroupPoll(ctx, groupID, result.PollID)
		require.Nil(t, errMsg)
		assert.Equal(t, p.Options, stored.Options)
	})

	for name, test := range map[string]struct {
		Err          error
		ExpectedKind utils.ErrorKind
		ExpectedID   string
	}{
		"poll not found": {
			Err:          store.ErrNotFound,
			ExpectedKind: utils.KindNotFound,
			ExpectedID:   "service.error.pollNotFound",
		},
		"option not found": {
			Err:          errors.Wrap(poll.ErrOptionNotFound, "option \"option_9\""),
			ExpectedKind: utils.KindNotFound,
			ExpectedID:   "service.error.optionNotFound",
		},
		"conflict": {
			Err:          store.ErrConflict,
			ExpectedKind: utils.KindConflict,
			ExpectedID:   "service.error.conflict",
		},
		"unexpected": {
			Err:          errors.New("boom"),
			ExpectedKind: utils.KindUnavailable,
			ExpectedID:   "service.error.unavailable",
		},
	} {
		t.Run(name, func(t *testing.T) {
			ms := &mockstore.Store{}
			ms.GroupPollStore.On("Update", mock.Anything, testutils.GetGroupID(), testutils.GetPollID(), mock.Anything).Return(nil, test.Err)
			defer ms.AssertExpectations(t)
			svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

			p, action, errMsg := svc.VoteOnGroupPoll(context.Background(), testutils.GetGroupID(), testutils.GetPollID(), "option_9", "u1")
			assert.Nil(t, p)
			assert.Empty(t, action)
			require.NotNil(t, errMsg)
			assert.True(t, errMsg.Is(test.ExpectedKind))
			assert.Equal(t, test.ExpectedID, errMsg.Message.ID)
		})
	}

	t.Run("unknown option leaves the poll unchanged", func(t *testing.T) {
		s, api := setupKVStore(t)
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())
		ctx := context.Background()

		result, errMsg := svc.CreateGroupPoll(ctx, testutils.GetGroupID(), "u1", "Q", []string{"A", "B"}, poll.VoterMeta{})
		require.Nil(t, errMsg)
		_, _, errMsg = svc.VoteOnGroupPoll(ctx, testutils.GetGroupID(), result.PollID, "option_0", "u1")
		require.Nil(t, errMsg)
		before, errMsg := svc.GetGroupPoll(ctx, testutils.GetGroupID(), result.PollID)
		require.Nil(t, errMsg)

		_, _, errMsg = svc.VoteOnGroupPoll(ctx, testutils.GetGroupID(), result.PollID, "option_5", "u1")
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindNotFound))

		after, errMsg := svc.GetGroupPoll(ctx, testutils.GetGroupID(), result.PollID)
		require.Nil(t, errMsg)
		assert.Equal(t, before, after)
	})
	t.Run("empty user", func(t *testing.T) {
		ms := &mockstore.Store{}
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		_, _, errMsg := svc.VoteOnGroupPoll(context.Background(), testutils.GetGroupID(), testutils.GetPollID(), "option_0", "")
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindInvalidArgument))
	})
}

func TestDeleteGroupPoll(t *testing.T) {
	t.Run("creator deletes", func(t *testing.T) {
		s, api := setupKVStore(t)
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())
		ctx := context.Background()

		result, errMsg := svc.CreateGroupPoll(ctx, testutils.GetGroupID(), "u1", "Q", []string{"A", "B"}, poll.VoterMeta{})
		require.Nil(t, errMsg)

		errMsg = svc.DeleteGroupPoll(ctx, testutils.GetGroupID(), result.PollID, "u1")
		require.Nil(t, errMsg)

		_, errMsg = svc.GetGroupPoll(ctx, testutils.GetGroupID(), result.PollID)
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindNotFound))
	})
	t.Run("other user is denied", func(t *testing.T) {
		s, api := setupKVStore(t)
		svc := service.NewGroupPollService(s, api, testutils.GetBundle())
		ctx := context.Background()

		result, errMsg := svc.CreateGroupPoll(ctx, testutils.GetGroupID(), "u1", "Q", []string{"A", "B"}, poll.VoterMeta{})
		require.Nil(t, errMsg)
		_, _, errMsg = svc.VoteOnGroupPoll(ctx, testutils.GetGroupID(), result.PollID, "option_1", "u2")
		require.Nil(t, errMsg)
		before, errMsg := svc.GetGroupPoll(ctx, testutils.GetGroupID(), result.PollID)
		require.Nil(t, errMsg)

		errMsg = svc.DeleteGroupPoll(ctx, testutils.GetGroupID(), result.PollID, "u2")
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindPermissionDenied))

		after, errMsg := svc.GetGroupPoll(ctx, testutils.GetGroupID(), result.PollID)
		require.Nil(t, errMsg)
		assert.Equal(t, before, after)
	})
	t.Run("poll not found", func(t *testing.T) {
		ms := &mockstore.Store{}
		ms.GroupPollStore.On("Get", mock.Anything, testutils.GetGroupID(), testutils.GetPollID()).Return(nil, store.ErrNotFound)
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		errMsg := svc.DeleteGroupPoll(context.Background(), testutils.GetGroupID(), testutils.GetPollID(), "userID1")
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindNotFound))
	})
	t.Run("Delete fails", func(t *testing.T) {
		ms := &mockstore.Store{}
		ms.GroupPollStore.On("Get", mock.Anything, testutils.GetGroupID(), testutils.GetPollID()).Return(testutils.GetGroupPoll(), nil)
		ms.GroupPollStore.On("Delete", mock.Anything, testutils.GetGroupID(), testutils.GetPollID()).Return(errors.New("offline"))
		defer ms.AssertExpectations(t)
		svc := service.NewGroupPollService(ms, testutils.NewMemoryAPI(), testutils.GetBundle())

		errMsg := svc.DeleteGroupPoll(context.Background(), testutils.GetGroupID(), testutils.GetPollID(), "userID1")
		require.NotNil(t, errMsg)
		assert.True(t, errMsg.Is(utils.KindUnavailable))
	})
}

func TestSubscribeToGroupPolls(t *testing.T) {
	s, api := setupKVStore(t)
	svc := service.NewGroupPollService(s, api, testutils.GetBundle())
	ctx := context.Background()
	groupID := testutils.GetGroupID()

	updates := make(chan []*poll.Poll, 10)
	unsubscribe, errMsg := svc.SubscribeToGroupPolls(groupID, func(polls []*poll.Poll) { updates <- polls })
	require.Nil(t, errMsg)
	defer unsubscribe()

	next := func() []*poll.Poll {
		select {
		case polls := <-updates:
			return polls
		case <-time.After(time.Second):
			t.Fatal("no polls delivered")
			return nil
		}
	}
	assert.Empty(t, next())

	first, errMsg := svc.CreateGroupPoll(ctx, groupID, "u1", "First", []string{"A", "B"}, poll.VoterMeta{})
	require.Nil(t, errMsg)
	assert.Len(t, next(), 1)

	second, errMsg := svc.CreateGroupPoll(ctx, groupID, "u1", "Second", []string{"A", "B"}, poll.VoterMeta{})
	require.Nil(t, errMsg)
	polls := next()
	require.Len(t, polls, 2)
	assert.Equal(t, second.PollID, polls[0].ID)
	assert.Equal(t, first.PollID, polls[1].ID)

	_, _, errMsg = svc.VoteOnGroupPoll(ctx, groupID, first.PollID, "option_1", "u3")
	require.Nil(t, errMsg)
	polls = next()
	require.Len(t, polls, 2)
	assert.Equal(t, 1, polls[1].Options[1].Votes)
}

func TestGroupPollServiceWithoutStore(t *testing.T) {
	svc := service.NewGroupPollService(nil, testutils.NewMemoryAPI(), testutils.GetBundle())
	ctx := context.Background()

	_, errMsg := svc.CreateGroupPoll(ctx, "g", "u1", "Q", []string{"A", "B"}, poll.VoterMeta{})
	assert.True(t, errMsg.Is(utils.KindUnavailable))

	_, _, errMsg = svc.VoteOnGroupPoll(ctx, "g", "p", "option_0", "u1")
	assert.True(t, errMsg.Is(utils.KindUnavailable))

	_, errMsg = svc.ListGroupPolls(ctx, "g")
	assert.True(t, errMsg.Is(utils.KindUnavailable))

	_, errMsg = svc.SubscribeToGroupPolls("g", func([]*poll.Poll) {})
	assert.True(t, errMsg.Is(utils.KindUnavailable))

	errMsg = svc.DeleteGroupPoll(ctx, "g", "p", "u1")
	assert.True(t, errMsg.Is(utils.KindUnavailable))
}
