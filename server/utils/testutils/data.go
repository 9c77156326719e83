package testutils

import (
	"github.com/mattermost/mattermost-server/v6/model"

	"github.com/tonightapp/tonight/server/poll"
)

// GetPollID returns a static Poll ID.
func GetPollID() string {
	return "1234567890abcdefghijklmnop"
}

// GetGroupID returns a static group (channel) ID.
func GetGroupID() string {
	return "channelid1234567890abcdefg"
}

// GetLocation returns a static location.
func GetLocation() string {
	return "Bloomington"
}

// GetSiteURL returns a static Site URL.
func GetSiteURL() string {
	return "https://example.org"
}

// GetBotUserID returns a static bot user ID.
func GetBotUserID() string {
	return "aegooso5na9desa0QuieV1ohfa"
}

// GetServerConfig return a static server config.
func GetServerConfig() *model.Config {
	siteURL := GetSiteURL()
	defaultClientLocale := "en"
	return &model.Config{
		ServiceSettings: model.ServiceSettings{
			SiteURL: &siteURL,
		},
		LocalizationSettings: model.LocalizationSettings{
			DefaultClientLocale: &defaultClientLocale,
		},
	}
}

// GetVoterMeta returns display data for a user ID.
func GetVoterMeta(userID string) poll.VoterMeta {
	return poll.VoterMeta{
		UserID:      userID,
		DisplayName: "Display " + userID,
		Username:    "user_" + userID,
	}
}

// GetGroupPoll returns a group poll with three Options and no votes.
func GetGroupPoll() *poll.Poll {
	return &poll.Poll{
		ID:        GetPollID(),
		Kind:      poll.KindGroup,
		GroupID:   GetGroupID(),
		CreatorID: "userID1",
		Question:  "Where tonight?",
		Options: []*poll.Option{
			{ID: "option_0", Label: "Answer 1", Voters: []string{}},
			{ID: "option_1", Label: "Answer 2", Voters: []string{}},
			{ID: "option_2", Label: "Answer 3", Voters: []string{}},
		},
		CreatedAt: 1234567890,
		UpdatedAt: 1234567890,
	}
}

// GetGroupPollWithVotes returns a group poll with three Options and some votes.
func GetGroupPollWithVotes() *poll.Poll {
	return &poll.Poll{
		ID:        GetPollID(),
		Kind:      poll.KindGroup,
		GroupID:   GetGroupID(),
		CreatorID: "userID1",
		Question:  "Where tonight?",
		Options: []*poll.Option{
			{ID: "option_0", Label: "Answer 1", Votes: 3, Voters: []string{"userID1", "userID2", "userID3"}},
			{ID: "option_1", Label: "Answer 2", Votes: 1, Voters: []string{"userID4"}},
			{ID: "option_2", Label: "Answer 3", Votes: 0, Voters: []string{}},
		},
		TotalVotes: 4,
		CreatedAt:  1234567890,
		UpdatedAt:  1234567890,
	}
}

// GetLocationPollWithVotes returns a location poll with three places, one of them without votes.
func GetLocationPollWithVotes() *poll.Poll {
	return &poll.Poll{
		ID:       GetLocation(),
		Kind:     poll.KindLocation,
		Location: GetLocation(),
		Options: []*poll.Option{
			{ID: "Bluebird", Label: "Bluebird", Votes: 1, Voters: []string{"userID1"}},
			{ID: "Nick's", Label: "Nick's", Votes: 0, Voters: []string{}},
			{ID: "Kilroy's", Label: "Kilroy's", Votes: 2, Voters: []string{"userID2", "userID3"}},
		},
		TotalVotes: 3,
		Profiles: map[string]poll.VoterMeta{
			"userID1": GetVoterMeta("userID1"),
			"userID2": GetVoterMeta("userID2"),
			"userID3": GetVoterMeta("userID3"),
		},
		CreatedAt: 1234567890,
		UpdatedAt: 1234567890,
	}
}
