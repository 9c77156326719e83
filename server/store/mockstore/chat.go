package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tonightapp/tonight/server/chat"
)

// ChatStore is a mock type for the ChatStore type
type ChatStore struct {
	mock.Mock
}

// Append provides a mock function with given fields: ctx, groupID, m
func (_m *ChatStore) Append(ctx context.Context, groupID string, m *chat.Message) (string, error) {
	ret := _m.Called(ctx, groupID, m)
	return ret.String(0), ret.Error(1)
}
