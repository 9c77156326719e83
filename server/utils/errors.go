package utils

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// ErrorKind classifies an ErrorMessage so callers can react without parsing text.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidArgument  ErrorKind = "invalid_argument"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindUnavailable      ErrorKind = "unavailable"
	KindConflict         ErrorKind = "conflict"
)

// kindMessages are used for errors that carry no message of their own.
var kindMessages = map[ErrorKind]*i18n.Message{
	KindNotFound: {
		ID:    "error.notFound",
		Other: "The requested item does not exist.",
	},
	KindInvalidArgument: {
		ID:    "error.invalidArgument",
		Other: "The request is invalid.",
	},
	KindPermissionDenied: {
		ID:    "error.permissionDenied",
		Other: "You are not allowed to do this.",
	},
	KindUnavailable: {
		ID:    "error.unavailable",
		Other: "Tonight is not available right now. Please try again later.",
	},
	KindConflict: {
		ID:    "error.conflict",
		Other: "Too many people are voting at once. Please try again.",
	},
}

// ErrorMessage contains error messsage for a user that can be localized.
// It should not be wrapped and instead always returned.
type ErrorMessage struct {
	Kind    ErrorKind
	Message *i18n.Message
	Data    map[string]interface{}
}

// NewErrorMessage returns an ErrorMessage of the given kind.
func NewErrorMessage(kind ErrorKind, message *i18n.Message, data map[string]interface{}) *ErrorMessage {
	return &ErrorMessage{
		Kind:    kind,
		Message: message,
		Data:    data,
	}
}

// Is reports whether e is of the given kind. A nil ErrorMessage is of no kind.
func (e *ErrorMessage) Is(kind ErrorKind) bool {
	return e != nil && e.Kind == kind
}
