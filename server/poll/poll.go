package poll

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/tonightapp/tonight/server/utils"
)

// Kind tells which container owns a poll.
type Kind string

const (
	KindLocation Kind = "location"
	KindGroup    Kind = "group"
)

// MinGroupOptions is the smallest number of options a group poll can be created with.
const MinGroupOptions = 2

// Poll stores all needed information for a poll
type Poll struct {
	ID         string               `json:"id"`
	Kind       Kind                 `json:"kind"`
	Location   string               `json:"location,omitempty"`
	GroupID    string               `json:"group_id,omitempty"`
	CreatorID  string               `json:"creator_id,omitempty"`
	Question   string               `json:"question,omitempty"`
	Options    []*Option            `json:"options"`
	TotalVotes int                  `json:"total_votes"`
	Profiles   map[string]VoterMeta `json:"profiles,omitempty"` // Profiles holds display data of users with an active vote, keyed by user ID.
	CreatedAt  int64                `json:"created_at"`
	UpdatedAt  int64                `json:"updated_at"`
}

// Option is one selectable choice of a poll and the users who currently vote for it.
type Option struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Votes  int      `json:"votes"`
	Voters []string `json:"voters"`
}

// VoterMeta is display data of a voter. It is denormalized into the poll and never used to decide a vote.
type VoterMeta struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Username    string `json:"username,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// NewLocationPoll creates an empty poll for a location. Options are added when users vote for them.
func NewLocationPoll(location string) *Poll {
	return &Poll{
		ID:       location,
		Kind:     KindLocation,
		Location: location,
		Options:  []*Option{},
	}
}

// NewGroupPoll creates a new group poll with the given parameter.
// Empty labels are dropped, the remaining options get the IDs option_0, option_1, ... in input order.
func NewGroupPoll(groupID, creatorID, question string, labels []string) (*Poll, *utils.ErrorMessage) {
	if groupID == "" || creatorID == "" {
		return nil, utils.NewErrorMessage(utils.KindInvalidArgument, &i18n.Message{
			ID:    "poll.newGroupPoll.missingID",
			Other: "A poll needs a group and a creator.",
		}, nil)
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, utils.NewErrorMessage(utils.KindInvalidArgument, &i18n.Message{
			ID:    "poll.newGroupPoll.emptyQuestion",
			Other: "The question of a poll must not be empty.",
		}, nil)
	}

	p := &Poll{
		Kind:      KindGroup,
		GroupID:   groupID,
		CreatorID: creatorID,
		Question:  question,
		Options:   []*Option{},
	}
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		if _, errMsg := p.AddOption(label); errMsg != nil {
			return nil, errMsg
		}
	}

	if len(p.Options) < MinGroupOptions {
		return nil, utils.NewErrorMessage(utils.KindInvalidArgument, &i18n.Message{
			ID:    "poll.newGroupPoll.tooFewOptions",
			Other: "A poll needs at least {{.Min}} options, but {{.Count}} were given.",
		}, map[string]interface{}{
			"Min":   MinGroupOptions,
			"Count": len(p.Options),
		})
	}

	return p, nil
}

// AddOption appends a new option without votes.
// Location options are keyed by their label, so a label can only be added once to a location poll.
func (p *Poll) AddOption(label string) (*Option, *utils.ErrorMessage) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, utils.NewErrorMessage(utils.KindInvalidArgument, &i18n.Message{
			ID:    "poll.addOption.empty",
			Other: "Empty option not allowed",
		}, nil)
	}

	id := label
	if p.Kind == KindGroup {
		id = fmt.Sprintf("option_%d", len(p.Options))
	} else if p.OptionByLabel(label) != nil {
		return nil, utils.NewErrorMessage(utils.KindInvalidArgument, &i18n.Message{
			ID:    "poll.addOption.duplicate",
			Other: "Duplicate option: {{.Option}}",
		}, map[string]interface{}{
			"Option": label,
		})
	}

	o := &Option{
		ID:     id,
		Label:  label,
		Voters: []string{},
	}
	p.Options = append(p.Options, o)
	return o, nil
}

// OptionByID returns the option with the given ID or nil.
func (p *Poll) OptionByID(id string) *Option {
	for _, o := range p.Options {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// OptionByLabel returns the option whose label matches exactly, or nil.
func (p *Poll) OptionByLabel(label string) *Option {
	for _, o := range p.Options {
		if o.Label == label {
			return o
		}
	}
	return nil
}

// UserVote returns the option the user currently votes for, or nil if the user has no active vote.
func (p *Poll) UserVote(userID string) *Option {
	if p == nil {
		return nil
	}
	for _, o := range p.Options {
		if o.hasVoter(userID) {
			return o
		}
	}
	return nil
}

// HasVoted return true if a given user has voted in this poll
func (p *Poll) HasVoted(userID string) bool {
	return p.UserVote(userID) != nil
}

// EncodeToByte returns a poll as a byte array
func (p *Poll) EncodeToByte() []byte {
	b, _ := json.Marshal(p)
	return b
}

// DecodePollFromByte tries to create a poll from a byte array
func DecodePollFromByte(b []byte) *Poll {
	p := Poll{}
	err := json.Unmarshal(b, &p)
	if err != nil {
		return nil
	}
	return &p
}

// Copy deep copies a poll
func (p *Poll) Copy() *Poll {
	if p == nil {
		return nil
	}
	p2 := new(Poll)
	*p2 = *p
	p2.Options = make([]*Option, len(p.Options))
	for i, o := range p.Options {
		p2.Options[i] = o.copy()
	}
	if p.Profiles != nil {
		p2.Profiles = make(map[string]VoterMeta, len(p.Profiles))
		for k, v := range p.Profiles {
			p2.Profiles[k] = v
		}
	}
	return p2
}

func (o *Option) copy() *Option {
	o2 := new(Option)
	*o2 = *o
	// Only copy Voters if they are not nil to ensure the new option is an exact copy.
	if o.Voters != nil {
		o2.Voters = make([]string, len(o.Voters))
		copy(o2.Voters, o.Voters)
	}
	return o2
}
