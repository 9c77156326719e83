package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/utils"
)

// LocationPollService runs the ad-hoc polls of locations.
// Options are created the first time someone votes for a new place.
type LocationPollService struct {
	store store.Store
	log   Logger
}

// NewLocationPollService creates the service. A nil store makes every call fail as unavailable.
func NewLocationPollService(s store.Store, log Logger) *LocationPollService {
	return &LocationPollService{store: s, log: log}
}

// VoteForOption casts the vote of userID for the place optionLabel at location.
// Voting for the place the user already votes for removes the vote.
func (s *LocationPollService) VoteForOption(ctx context.Context, userID, location, optionLabel string, meta poll.VoterMeta) (poll.Action, *utils.ErrorMessage) {
	if s.store == nil {
		return "", unavailable()
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return "", utils.NewErrorMessage(utils.KindInvalidArgument, errMsgEmptyLocation, nil)
	}
	optionLabel = strings.TrimSpace(optionLabel)
	if optionLabel == "" {
		return "", utils.NewErrorMessage(utils.KindInvalidArgument, errMsgEmptyOption, nil)
	}
	if userID == "" {
		return "", utils.NewErrorMessage(utils.KindInvalidArgument, errMsgInvalidUser, nil)
	}
	meta.UserID = userID

	var action poll.Action
	_, err := s.store.LocationPoll().Update(ctx, location, func(current *poll.Poll) (*poll.Poll, error) {
		p := current.Copy()
		if p == nil {
			p = poll.NewLocationPoll(location)
		}

		o := p.OptionByLabel(optionLabel)
		if o == nil {
			var errMsg *utils.ErrorMessage
			if o, errMsg = p.AddOption(optionLabel); errMsg != nil {
				return nil, errors.Errorf("failed to add option %q: %s", optionLabel, errMsg.Message.ID)
			}
		}

		if p.Profiles == nil {
			p.Profiles = map[string]poll.VoterMeta{}
		}
		p.Profiles[userID] = meta

		next, a, err := p.ApplyVote(userID, o.ID)
		if err != nil {
			return nil, err
		}
		action = a
		return next, nil
	})
	if err != nil {
		return "", toErrorMessage(s.log, err, "Failed to vote for location option", "location", location, "user_id", userID)
	}

	s.log.LogDebug("Location vote", "location", location, "user_id", userID, "action", string(action))
	return action, nil
}

// GetUserVoteForLocation returns the option userID currently votes for, or nil.
func (s *LocationPollService) GetUserVoteForLocation(ctx context.Context, userID, location string) (*poll.Option, *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}

	p, err := s.store.LocationPoll().Get(ctx, strings.TrimSpace(location))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, toErrorMessage(s.log, err, "Failed to get location poll", "location", location)
	}

	o := p.UserVote(userID)
	if o == nil {
		return nil, nil
	}
	voted := *o
	voted.Voters = append([]string(nil), o.Voters...)
	return &voted, nil
}

// Leaderboard returns the current tally of a location. A location without votes has an empty tally.
func (s *LocationPollService) Leaderboard(ctx context.Context, location string) (*poll.Tally, *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}
	location = strings.TrimSpace(location)

	p, err := s.store.LocationPoll().Get(ctx, location)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, toErrorMessage(s.log, err, "Failed to get location poll", "location", location)
	}
	return poll.NewTally(location, p), nil
}

// SubscribeToVotesForLocation calls cb with the tally of a location now and after every change.
// The returned function ends the subscription and may be called more than once.
func (s *LocationPollService) SubscribeToVotesForLocation(location string, cb func(*poll.Tally)) (func(), *utils.ErrorMessage) {
	if s.store == nil {
		return nil, unavailable()
	}
	location = strings.TrimSpace(location)

	unsubscribe, err := s.store.LocationPoll().Subscribe(location, func(p *poll.Poll) {
		cb(poll.NewTally(location, p))
	})
	if err != nil {
		return nil, toErrorMessage(s.log, err, "Failed to subscribe to location", "location", location)
	}
	return unsubscribe, nil
}
