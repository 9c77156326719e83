package chat_test

import (
	"testing"

	"github.com/mattermost/mattermost-server/v6/plugin/plugintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonightapp/tonight/server/chat"
	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/utils"
	"github.com/tonightapp/tonight/server/utils/testutils"
)

func TestNewPollMessage(t *testing.T) {
	t.Run("with display name", func(t *testing.T) {
		p := testutils.GetGroupPoll()

		m := chat.NewPollMessage(testutils.GetBundle(), p, testutils.GetVoterMeta("userID1"))

		assert.Equal(t, &chat.Message{
			GroupID:    testutils.GetGroupID(),
			SenderID:   "userID1",
			SenderName: "Display userID1",
			Type:       chat.MessageTypePoll,
			Text:       "Display userID1 created a poll: Where tonight?",
			PollID:     testutils.GetPollID(),
			Poll:       p,
		}, m)
	})
	t.Run("without display name", func(t *testing.T) {
		m := chat.NewPollMessage(testutils.GetBundle(), testutils.GetGroupPoll(), poll.VoterMeta{UserID: "userID1"})

		assert.Equal(t, "userID1 created a poll: Where tonight?", m.Text)
	})
	t.Run("server language", func(t *testing.T) {
		config := testutils.GetServerConfig()
		locale := "de"
		config.LocalizationSettings.DefaultClientLocale = &locale

		api := &plugintest.API{}
		api.On("GetBundlePath").Return("../..", nil)
		api.On("GetConfig").Return(config)
		defer api.AssertExpectations(t)
		bundle, err := utils.InitBundle(api, "assets/i18n")
		require.NoError(t, err)

		m := chat.NewPollMessage(bundle, testutils.GetGroupPoll(), testutils.GetVoterMeta("userID1"))

		assert.Equal(t, "Display userID1 hat eine Umfrage erstellt: Where tonight?", m.Text)
	})
}
