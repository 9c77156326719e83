package kvstore

import (
	"context"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/chat"
)

// ChatStore posts chat messages into the channel of a group as the plugin bot.
type ChatStore struct {
	s      *Store
	config ChatConfig
}

// Append creates a post for m and returns its ID. Poll messages carry vote buttons.
func (cs *ChatStore) Append(ctx context.Context, groupID string, m *chat.Message) (string, error) {
	post := &model.Post{
		UserId:    cs.config.BotUserID,
		ChannelId: groupID,
		Message:   m.Text,
	}
	post.AddProp("sender_id", m.SenderID)
	if m.PollID != "" {
		post.AddProp("poll_id", m.PollID)
	}
	if m.Poll != nil {
		model.ParseSlackAttachment(post, m.Poll.ToPostActions(cs.config.SiteURL, cs.config.PluginID, m.SenderName))
	}

	created, appErr := cs.s.api.CreatePost(post)
	if appErr != nil {
		return "", errors.Wrap(appErr, "failed to create post")
	}
	return created.Id, nil
}
