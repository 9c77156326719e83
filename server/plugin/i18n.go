package plugin

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/tonightapp/tonight/server/poll"
)

var (
	botDescription = &i18n.Message{
		ID:    "bot.description",
		Other: "Posts the polls of the Tonight plugin.",
	}

	responseLocationVoteAdded = &i18n.Message{
		ID:    "response.locationVote.added",
		Other: "You are going to **{{.Place}}** in {{.Location}} tonight.",
	}
	responseLocationVoteSwitched = &i18n.Message{
		ID:    "response.locationVote.switched",
		Other: "You switched to **{{.Place}}** in {{.Location}}.",
	}
	responseLocationVoteRemoved = &i18n.Message{
		ID:    "response.locationVote.removed",
		Other: "You are no longer going to **{{.Place}}** in {{.Location}}.",
	}

	responseVoteCounted = &i18n.Message{
		ID:    "response.vote.counted",
		Other: "Your vote has been counted.",
	}
	responseVoteUpdated = &i18n.Message{
		ID:    "response.vote.updated",
		Other: "Your vote has been updated.",
	}
	responseVoteRemoved = &i18n.Message{
		ID:    "response.vote.removed",
		Other: "Your vote has been removed.",
	}

	responseCreatePollSuccess = &i18n.Message{
		ID:    "response.createPoll.success",
		Other: "Your poll **{{.Question}}** has been created.",
	}
	responseCreatePollChatFailed = &i18n.Message{
		ID:    "response.createPoll.chatFailed",
		Other: "Your poll **{{.Question}}** has been created, but it could not be posted to the channel.",
	}
)

// groupVoteMessage returns the confirmation for a vote on a group poll.
func groupVoteMessage(action poll.Action) *i18n.Message {
	switch action {
	case poll.ActionSwitched:
		return responseVoteUpdated
	case poll.ActionRemoved:
		return responseVoteRemoved
	default:
		return responseVoteCounted
	}
}

// locationVoteMessage returns the confirmation for a vote on a location poll.
func locationVoteMessage(action poll.Action) *i18n.Message {
	switch action {
	case poll.ActionSwitched:
		return responseLocationVoteSwitched
	case poll.ActionRemoved:
		return responseLocationVoteRemoved
	default:
		return responseLocationVoteAdded
	}
}
