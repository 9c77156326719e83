package service

import (
	"context"

	"github.com/tonightapp/tonight/server/chat"
	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/utils"
)

// GroupPollService runs the polls of groups. Group polls have a question and a fixed set of options.
type GroupPollService struct {
	store  store.Store
	log    Logger
	bundle *utils.Bundle
}

// CreateResult describes a created group poll.
// The chat message is a side effect. If it fails, ChatMessageErr is set and the poll still exists.
type CreateResult struct {
	PollID         string
	ChatMessageID  string
	ChatMessageErr error
}

// NewGroupPollService creates the service. A nil store makes every call fail as unavailable.
// bundle localizes the chat message that announces a new poll.
func NewGroupPollService(s store.Store, log Logger, bundle *utils.Bundle) *GroupPollService {
	return &GroupPollService{store: s, log: log, bundle: bundle}
}

// CreateGroupPoll stores a new poll and announces it in the chat of the group.
func (s *GroupPollService) CreateGroupPoll(ctx context.Context, groupID, creatorID, question string, optionLabels []string, creatorMeta poll.VoterMeta) (*CreateResult, *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}

	p, errMsg := poll.NewGroupPoll(groupID, creatorID, question, optionLabels)
	if errMsg != nil {
		return nil, errMsg
	}

	id, err := s.store.GroupPoll().Insert(ctx, groupID, p)
	if err != nil {
		return nil, toErrorMessage(s.log, err, "Failed to create group poll", "group_id", groupID)
	}
	p.ID = id
	result := &CreateResult{PollID: id}

	creatorMeta.UserID = creatorID
	msgID, err := s.store.Chat().Append(ctx, groupID, chat.NewPollMessage(s.bundle, p, creatorMeta))
	if err != nil {
		s.log.LogWarn("Failed to post poll message", "group_id", groupID, "poll_id", id, "error", err.Error())
		result.ChatMessageErr = err
		return result, nil
	}
	result.ChatMessageID = msgID

	return result, nil
}

// VoteOnGroupPoll casts the vote of userID for optionID and returns the updated poll.
func (s *GroupPollService) VoteOnGroupPoll(ctx context.Context, groupID, pollID, optionID, userID string) (*poll.Poll, poll.Action, *utils.ErrorMessage) {
	if s.store == nil {
		return nil, "", unavailable()
	}
	if userID == "" {
		return nil, "", utils.NewErrorMessage(utils.KindInvalidArgument, errMsgInvalidUser, nil)
	}

	var action poll.Action
	p, err := s.store.GroupPoll().Update(ctx, groupID, pollID, func(current *poll.Poll) (*poll.Poll, error) {
		next, a, err := current.ApplyVote(userID, optionID)
		if err != nil {
			return nil, err
		}
		action = a
		return next, nil
	})
	if err != nil {
		return nil, "", toErrorMessage(s.log, err, "Failed to vote on group poll", "group_id", groupID, "poll_id", pollID, "user_id", userID)
	}

	s.log.LogDebug("Group poll vote", "poll_id", pollID, "user_id", userID, "action", string(action))
	return p, action, nil
}

// GetGroupPoll returns a single poll.
func (s *GroupPollService) GetGroupPoll(ctx context.Context, groupID, pollID string) (*poll.Poll, *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}

	p, err := s.store.GroupPoll().Get(ctx, groupID, pollID)
	if err != nil {
		return nil, toErrorMessage(s.log, err, "Failed to get group poll", "group_id", groupID, "poll_id", pollID)
	}
	return p, nil
}

// ListGroupPolls returns the polls of a group, newest first.
func (s *GroupPollService) ListGroupPolls(ctx context.Context, groupID string) ([]*poll.Poll, *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}

	polls, err := s.store.GroupPoll().List(ctx, groupID)
	if err != nil {
		return nil, toErrorMessage(s.log, err, "Failed to list group polls", "group_id", groupID)
	}
	return polls, nil
}

// SubscribeToGroupPolls calls cb with the polls of a group, newest first, now and after every change.
// The returned function ends the subscription and may be called more than once.
func (s *GroupPollService) SubscribeToGroupPolls(groupID string, cb func([]*poll.Poll)) (func(), *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}

	unsubscribe, err := s.store.GroupPoll().Subscribe(groupID, cb)
	if err != nil {
		return nil, toErrorMessage(s.log, err, "Failed to subscribe to group polls", "group_id", groupID)
	}
	return unsubscribe, nil
}

// DeleteGroupPoll deletes a poll. Only the creator of the poll may delete it.
func (s *GroupPollService) DeleteGroupPoll(ctx context.Context, groupID, pollID, userID string) *utils.ErrorMessage {
	if s.store == nil {
		return unavailable()
	}

	p, err := s.store.GroupPoll().Get(ctx, groupID, pollID)
	if err != nil {
		return toErrorMessage(s.log, err, "Failed to get group poll", "group_id", groupID, "poll_id", pollID)
	}
	if userID == "" || p.CreatorID != userID {
		return utils.NewErrorMessage(utils.KindPermissionDenied, errMsgPermissionDenied, nil)
	}

	if err := s.store.GroupPoll().Delete(ctx, groupID, pollID); err != nil {
		return toErrorMessage(s.log, err, "Failed to delete group poll", "group_id", groupID, "poll_id", pollID)
	}
	return nil
}
