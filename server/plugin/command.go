package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/mattermost/mattermost-server/v6/plugin"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/tonightapp/tonight/server/utils"
)

const (
	// Parameter: SiteURL, PluginId
	responseIconURL  = "%s/plugins/%s/logo_dark.png"
	responseUsername = "Tonight"
)

var (
	commandAutoCompleteDesc = &i18n.Message{
		ID:    "command.autoComplete.desc",
		Other: "Vote where you are going tonight or create a poll",
	}
	commandAutoCompleteHint = &i18n.Message{
		ID:    "command.autoComplete.hint",
		Other: "[vote|where|poll|help]",
	}
	commandHelpText = &i18n.Message{
		ID: "command.help.text",
		Other: "- `/{{.Trigger}} vote \"Location\" \"Place\"`: Vote where you are going tonight. Voting for the same place again removes your vote.\n" +
			"- `/{{.Trigger}} where \"Location\"`: Show where everyone is going tonight.\n" +
			"- `/{{.Trigger}} poll \"Question\" \"Answer 1\" \"Answer 2\"...`: Create a poll in this channel.\n" +
			"- `/{{.Trigger}} help`: Show this help text.",
	}
	commandInputErrorFormat = &i18n.Message{
		ID:    "command.error.input",
		Other: "Invalid input. Try `/{{.Trigger}} help`.",
	}
)

// ExecuteCommand runs a vote, where or poll subcommand
func (p *TonightPlugin) ExecuteCommand(c *plugin.Context, args *model.CommandArgs) (*model.CommandResponse, *model.AppError) {
	trigger := p.getConfiguration().Trigger
	userLocalizer := p.bundle.GetUserLocalizer(args.UserId)
	ctx := context.Background()

	fields := utils.ParseInput(args.Command, trigger)
	if len(fields) == 0 || fields[0] == "help" {
		return p.getCommandResponse(model.CommandResponseTypeEphemeral, p.bundle.LocalizeWithConfig(userLocalizer, &i18n.LocalizeConfig{
			DefaultMessage: commandHelpText,
			TemplateData:   map[string]interface{}{"Trigger": trigger},
		})), nil
	}

	var (
		text   string
		errMsg *utils.ErrorMessage
	)
	switch subcommand, params := fields[0], fields[1:]; {
	case subcommand == "vote" && len(params) == 2:
		text, errMsg = p.executeVote(ctx, args, params[0], params[1])
	case subcommand == "where" && len(params) == 1:
		text, errMsg = p.executeWhere(ctx, params[0])
	case subcommand == "poll" && len(params) >= 1:
		text, errMsg = p.executePoll(ctx, args, params[0], params[1:])
	default:
		text = p.bundle.LocalizeWithConfig(userLocalizer, &i18n.LocalizeConfig{
			DefaultMessage: commandInputErrorFormat,
			TemplateData:   map[string]interface{}{"Trigger": trigger},
		})
	}
	if errMsg != nil {
		text = p.bundle.LocalizeErrorMessage(userLocalizer, errMsg)
	}

	return p.getCommandResponse(model.CommandResponseTypeEphemeral, text), nil
}

func (p *TonightPlugin) executeVote(ctx context.Context, args *model.CommandArgs, location, place string) (string, *utils.ErrorMessage) {
	location = strings.TrimSpace(location)
	action, errMsg := p.locations.VoteForOption(ctx, args.UserId, location, place, p.voterMeta(args.UserId))
	if errMsg != nil {
		return "", errMsg
	}
	p.relay.watchLocation(location)

	return p.bundle.LocalizeWithConfig(p.bundle.GetUserLocalizer(args.UserId), &i18n.LocalizeConfig{
		DefaultMessage: locationVoteMessage(action),
		TemplateData: map[string]interface{}{
			"Location": location,
			"Place":    place,
		},
	}), nil
}

func (p *TonightPlugin) executeWhere(ctx context.Context, location string) (string, *utils.ErrorMessage) {
	location = strings.TrimSpace(location)
	tally, errMsg := p.locations.Leaderboard(ctx, location)
	if errMsg != nil {
		return "", errMsg
	}
	p.relay.watchLocation(location)

	return tally.ToMarkdown(), nil
}

func (p *TonightPlugin) executePoll(ctx context.Context, args *model.CommandArgs, question string, options []string) (string, *utils.ErrorMessage) {
	result, errMsg := p.groups.CreateGroupPoll(ctx, args.ChannelId, args.UserId, question, options, p.voterMeta(args.UserId))
	if errMsg != nil {
		return "", errMsg
	}
	p.relay.watchGroup(args.ChannelId)

	m := responseCreatePollSuccess
	if result.ChatMessageErr != nil {
		m = responseCreatePollChatFailed
	}
	return p.bundle.LocalizeWithConfig(p.bundle.GetUserLocalizer(args.UserId), &i18n.LocalizeConfig{
		DefaultMessage: m,
		TemplateData:   map[string]interface{}{"Question": question},
	}), nil
}

func (p *TonightPlugin) getCommandResponse(responseType, text string) *model.CommandResponse {
	return &model.CommandResponse{
		ResponseType: responseType,
		Text:         text,
		Username:     responseUsername,
		IconURL:      fmt.Sprintf(responseIconURL, p.siteURL(), manifest.Id),
	}
}

func (p *TonightPlugin) getCommand(trigger string) *model.Command {
	l := p.bundle.GetServerLocalizer()
	return &model.Command{
		Trigger:          trigger,
		DisplayName:      "Tonight",
		Description:      "Where is everyone going tonight?",
		AutoComplete:     true,
		AutoCompleteDesc: p.bundle.LocalizeDefaultMessage(l, commandAutoCompleteDesc),
		AutoCompleteHint: p.bundle.LocalizeDefaultMessage(l, commandAutoCompleteHint),
	}
}
