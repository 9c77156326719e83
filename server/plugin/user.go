package plugin

import (
	"fmt"

	"github.com/mattermost/mattermost-server/v6/model"

	"github.com/tonightapp/tonight/server/poll"
)

// voterMeta returns the display data of a user. If the user can't be loaded only the ID is set.
func (p *TonightPlugin) voterMeta(userID string) poll.VoterMeta {
	meta := poll.VoterMeta{UserID: userID}

	user, appErr := p.API.GetUser(userID)
	if appErr != nil {
		p.API.LogWarn("Failed to get user", "user_id", userID, "error", appErr.Error())
		return meta
	}

	meta.Username = user.Username
	meta.DisplayName = user.GetDisplayName(model.ShowNicknameFullName)
	if siteURL := p.siteURL(); siteURL != "" {
		meta.AvatarURL = fmt.Sprintf("%s/api/v4/users/%s/image", siteURL, userID)
	}
	return meta
}
