package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/blang/semver/v4"
	"github.com/gorilla/mux"
	pluginapi "github.com/mattermost/mattermost-plugin-api"
	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/mattermost/mattermost-server/v6/plugin"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/service"
	"github.com/tonightapp/tonight/server/store"
	"github.com/tonightapp/tonight/server/store/fsstore"
	"github.com/tonightapp/tonight/server/store/kvstore"
	"github.com/tonightapp/tonight/server/utils"
)

const (
	minimumServerVersion = "6.0.0"

	botUsername    = "tonight"
	botDisplayName = "Tonight"
)

// botService ensures that the bot account of the plugin exists.
type botService interface {
	EnsureBot(bot *model.Bot, options ...pluginapi.EnsureBotOption) (string, error)
}

// TonightPlugin is the object to run the plugin
type TonightPlugin struct {
	plugin.MattermostPlugin
	router *mux.Router
	Store  store.Store

	locations *service.LocationPollService
	groups    *service.GroupPollService
	relay     *relay

	bundle    *utils.Bundle
	bots      botService
	botUserID string

	// configurationLock synchronizes access to the configuration.
	configurationLock sync.RWMutex

	// configuration is the active plugin configuration. Consult getConfiguration and
	// setConfiguration for usage.
	configuration *configuration
	ServerConfig  *model.Config
}

// OnActivate ensures a configuration is set and initializes the API
func (p *TonightPlugin) OnActivate() error {
	if err := p.checkServerVersion(); err != nil {
		return err
	}

	bundle, err := utils.InitBundle(p.API, "assets/i18n")
	if err != nil {
		return err
	}
	p.bundle = bundle

	botUserID, err := p.botService().EnsureBot(&model.Bot{
		Username:    botUsername,
		DisplayName: botDisplayName,
		Description: p.bundle.LocalizeDefaultMessage(p.bundle.GetServerLocalizer(), botDescription),
	}, pluginapi.ProfileImagePath(filepath.Join("assets", iconFilename)))
	if err != nil {
		return errors.Wrap(err, "failed to ensure bot user")
	}
	p.botUserID = botUserID

	// Without a store every request fails as unavailable, but the plugin stays up.
	s, err := p.openStore(p.getConfiguration())
	if err != nil {
		p.API.LogError("Failed to open store", "backend", p.getConfiguration().StoreBackend, "error", err.Error())
	} else {
		p.Store = s
	}
	p.initServices()

	p.router = p.InitAPI()

	if err := p.API.RegisterCommand(p.getCommand(p.getConfiguration().Trigger)); err != nil {
		return errors.Wrap(err, "failed to register command")
	}
	return nil
}

// OnDeactivate unregisters the command and closes the store
func (p *TonightPlugin) OnDeactivate() error {
	if p.relay != nil {
		p.relay.Close()
	}
	if p.Store != nil {
		if err := p.Store.Close(); err != nil {
			p.API.LogWarn("Failed to close store", "error", err.Error())
		}
	}

	err := p.API.UnregisterCommand("", p.getConfiguration().Trigger)
	if err != nil {
		return errors.Wrap(err, "failed to dectivate command")
	}
	return nil
}

func (p *TonightPlugin) initServices() {
	p.locations = service.NewLocationPollService(p.Store, p.API)
	p.groups = service.NewGroupPollService(p.Store, p.API, p.bundle)
	p.relay = newRelay(p.API, p.locations, p.groups, relayIdleTimeout, maxRelaySubscriptions)
}

// botService returns the bot service of the plugin API client unless one was set.
func (p *TonightPlugin) botService() botService {
	if p.bots == nil {
		client := pluginapi.NewClient(p.API, p.Driver)
		p.bots = &client.Bot
	}
	return p.bots
}

// openStore connects to the store backend selected in the configuration.
func (p *TonightPlugin) openStore(c *configuration) (store.Store, error) {
	switch c.StoreBackend {
	case storeBackendFirestore:
		s, err := fsstore.NewStore(context.Background(), fsstore.Config{
			ProjectID:       c.FirebaseProjectID,
			CredentialsJSON: c.FirebaseCredentials,
		}, p.API)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := kvstore.NewStore(p.API, manifest.Version, kvstore.ChatConfig{
			BotUserID: p.botUserID,
			PluginID:  manifest.Id,
			SiteURL:   p.siteURL(),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// checkServerVersion checks Mattermost Server has at least the required version
func (p *TonightPlugin) checkServerVersion() error {
	serverVersion, err := semver.Parse(p.API.GetServerVersion())
	if err != nil {
		return errors.Wrap(err, "failed to parse server version")
	}

	r := semver.MustParseRange(">=" + minimumServerVersion)
	if !r(serverVersion) {
		return fmt.Errorf("this plugin requires Mattermost v%s or later", minimumServerVersion)
	}

	return nil
}

// isActivated reports whether OnActivate has loaded the i18n bundle.
func (p *TonightPlugin) isActivated() bool {
	return p.bundle != nil
}

func (p *TonightPlugin) siteURL() string {
	if p.ServerConfig == nil || p.ServerConfig.ServiceSettings.SiteURL == nil {
		return ""
	}
	return *p.ServerConfig.ServiceSettings.SiteURL
}

// SendEphemeralPost sends a message only userID can see.
func (p *TonightPlugin) SendEphemeralPost(channelID, userID, message string) {
	// This is mostly taken from https://github.com/mattermost/mattermost-server/blob/master/app/command.go#L304
	ephemeralPost := &model.Post{}
	ephemeralPost.ChannelId = channelID
	ephemeralPost.UserId = p.botUserID
	ephemeralPost.Message = message
	_ = p.API.SendEphemeralPost(userID, ephemeralPost)
}
