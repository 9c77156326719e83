package fsstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/chat"
)

// ChatStore appends chat messages to the message collection of a group.
type ChatStore struct {
	s *Store
}

// Append adds m and returns the generated message ID.
func (cs *ChatStore) Append(ctx context.Context, groupID string, m *chat.Message) (string, error) {
	ref, _, err := cs.s.group(groupID).Collection(messagesCollection).Add(ctx, toMessageDocument(m))
	if err != nil {
		return "", errors.Wrap(err, "failed to add chat message")
	}
	return ref.ID, nil
}
