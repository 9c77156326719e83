package main

import (
	mmplugin "github.com/mattermost/mattermost-server/v6/plugin"

	"github.com/tonightapp/tonight/server/plugin"
)

func main() {
	mmplugin.ClientMain(&plugin.TonightPlugin{})
}
