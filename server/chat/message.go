package chat

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/utils"
)

var pollCreatedText = &i18n.Message{
	ID:    "chat.pollCreated",
	Other: "{{.Name}} created a poll: {{.Question}}",
}

// MessageType tells clients how to render a chat message.
type MessageType string

// MessageTypePoll marks a message that announces a new group poll.
const MessageTypePoll MessageType = "poll"

// Message is a chat message posted into a group.
type Message struct {
	ID         string      `json:"id"`
	GroupID    string      `json:"group_id"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Type       MessageType `json:"type"`
	Text       string      `json:"text"`
	PollID     string      `json:"poll_id,omitempty"`
	Poll       *poll.Poll  `json:"-"` // Poll is the snapshot at creation time, used by stores that render the poll inline.
	CreatedAt  int64       `json:"created_at"`
}

// NewPollMessage returns the message that announces a newly created group poll.
// The text is in the server language.
func NewPollMessage(bundle *utils.Bundle, p *poll.Poll, sender poll.VoterMeta) *Message {
	name := sender.DisplayName
	if name == "" {
		name = sender.UserID
	}

	text := bundle.LocalizeWithConfig(bundle.GetServerLocalizer(), &i18n.LocalizeConfig{
		DefaultMessage: pollCreatedText,
		TemplateData: map[string]interface{}{
			"Name":     name,
			"Question": p.Question,
		},
	})

	return &Message{
		GroupID:    p.GroupID,
		SenderID:   p.CreatorID,
		SenderName: name,
		Type:       MessageTypePoll,
		Text:       text,
		PollID:     p.ID,
		Poll:       p,
	}
}
