package poll

import (
	"sort"

	"github.com/pkg/errors"
)

// Action describes what a vote did to the voter's state.
type Action string

const (
	ActionAdded    Action = "added"
	ActionSwitched Action = "switched"
	ActionRemoved  Action = "removed"
)

var (
	ErrInvalidUserID  = errors.New("invalid userID")
	ErrOptionNotFound = errors.New("option not found")
)

// ApplyVote casts a vote of userID for targetOptionID and returns the resulting options.
//
// A user has at most one active vote. Voting for the option the user already votes for
// removes the vote, voting for another option moves it there. The given options are not
// modified. Every returned option has a duplicate-free voter list and Votes == len(Voters).
func ApplyVote(options []*Option, userID, targetOptionID string) ([]*Option, Action, error) {
	if userID == "" {
		return nil, "", ErrInvalidUserID
	}

	target := -1
	for i, o := range options {
		if o.ID == targetOptionID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, "", errors.Wrapf(ErrOptionNotFound, "option %q", targetOptionID)
	}

	next := make([]*Option, len(options))
	for i, o := range options {
		next[i] = o.normalized()
	}

	alreadyVoted := next[target].hasVoter(userID)

	// There is at most one previous option. Sweeping all of them repairs a roster
	// that was corrupted by an earlier writer.
	switched := false
	for i, o := range next {
		if i != target && o.removeVoter(userID) {
			switched = true
		}
	}

	if alreadyVoted {
		next[target].removeVoter(userID)
		return next, ActionRemoved, nil
	}

	next[target].addVoter(userID)
	if switched {
		return next, ActionSwitched, nil
	}
	return next, ActionAdded, nil
}

// ApplyVote returns a copy of the poll with the vote of userID applied and the total recomputed.
// Profiles of users without an active vote are dropped.
func (p *Poll) ApplyVote(userID, optionID string) (*Poll, Action, error) {
	options, action, err := ApplyVote(p.Options, userID, optionID)
	if err != nil {
		return nil, "", err
	}

	next := p.Copy()
	next.Options = options
	next.TotalVotes = TotalVotes(options)
	next.pruneProfiles()
	return next, action, nil
}

// TotalVotes sums the vote counts of all options.
func TotalVotes(options []*Option) int {
	total := 0
	for _, o := range options {
		total += o.Votes
	}
	return total
}

// Percentage returns the share of votes in percent. It is 0 if there are no votes at all.
func Percentage(votes, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(votes) * 100 / float64(total)
}

// SortByVotesDescending returns the options ordered by votes, highest first.
// Options with the same number of votes keep their original order.
func SortByVotesDescending(options []*Option) []*Option {
	sorted := make([]*Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Votes > sorted[j].Votes
	})
	return sorted
}

func (p *Poll) pruneProfiles() {
	for userID := range p.Profiles {
		if !p.HasVoted(userID) {
			delete(p.Profiles, userID)
		}
	}
}

func (o *Option) hasVoter(userID string) bool {
	for _, v := range o.Voters {
		if v == userID {
			return true
		}
	}
	return false
}

// removeVoter removes every occurrence of userID and reports whether there was one.
func (o *Option) removeVoter(userID string) bool {
	removed := false
	voters := o.Voters[:0]
	for _, v := range o.Voters {
		if v == userID {
			removed = true
			continue
		}
		voters = append(voters, v)
	}
	o.Voters = voters
	o.Votes = len(o.Voters)
	return removed
}

func (o *Option) addVoter(userID string) {
	o.Voters = append(o.Voters, userID)
	o.Votes = len(o.Voters)
}

// normalized returns a copy with duplicate voters removed and the count derived from the roster.
func (o *Option) normalized() *Option {
	seen := make(map[string]struct{}, len(o.Voters))
	voters := make([]string, 0, len(o.Voters))
	for _, v := range o.Voters {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		voters = append(voters, v)
	}
	return &Option{
		ID:     o.ID,
		Label:  o.Label,
		Votes:  len(voters),
		Voters: voters,
	}
}
