package service

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/utils"
)

// Logger is the logging the services need. The plugin API satisfies it.
type Logger interface {
	LogDebug(msg string, keyValuePairs ...interface{})
	LogWarn(msg string, keyValuePairs ...interface{})
	LogError(msg string, keyValuePairs ...interface{})
}

var (
	errMsgUnavailable = &i18n.Message{
		ID:    "service.error.unavailable",
		Other: "Voting is not available right now. Please try again later.",
	}
	errMsgConflict = &i18n.Message{
		ID:    "service.error.conflict",
		Other: "Too many people are voting at the same time. Please try again.",
	}
	errMsgPollNotFound = &i18n.Message{
		ID:    "service.error.pollNotFound",
		Other: "The poll does not exist.",
	}
	errMsgOptionNotFound = &i18n.Message{
		ID:    "service.error.optionNotFound",
		Other: "The option does not exist.",
	}
	errMsgInvalidUser = &i18n.Message{
		ID:    "service.error.invalidUser",
		Other: "Only signed in users can vote.",
	}
	errMsgEmptyLocation = &i18n.Message{
		ID:    "service.error.emptyLocation",
		Other: "Please name a location.",
	}
	errMsgEmptyOption = &i18n.Message{
		ID:    "service.error.emptyOption",
		Other: "Please name a place.",
	}
	errMsgPermissionDenied = &i18n.Message{
		ID:    "service.deleteGroupPoll.permissionDenied",
		Other: "Only the creator of a poll can delete it.",
	}
)

func unavailable() *utils.ErrorMessage {
	return utils.NewErrorMessage(utils.KindUnavailable, errMsgUnavailable, nil)
}

// toErrorMessage converts a store or vote error into an error message.
// Unexpected errors are logged and reported as unavailable.
func toErrorMessage(log Logger, err error, msg string, keyValuePairs ...interface{}) *utils.ErrorMessage {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return utils.NewErrorMessage(utils.KindNotFound, errMsgPollNotFound, nil)
	case errors.Is(err, poll.ErrOptionNotFound):
		return utils.NewErrorMessage(utils.KindNotFound, errMsgOptionNotFound, nil)
	case errors.Is(err, poll.ErrInvalidUserID):
		return utils.NewErrorMessage(utils.KindInvalidArgument, errMsgInvalidUser, nil)
	case errors.Is(err, store.ErrConflict):
		log.LogWarn(msg, append(keyValuePairs, "error", err.Error())...)
		return utils.NewErrorMessage(utils.KindConflict, errMsgConflict, nil)
	default:
		log.LogError(msg, append(keyValuePairs, "error", err.Error())...)
		return unavailable()
	}
}
