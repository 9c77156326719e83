package poll

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mattermost/mattermost-server/v6/model"
)

// ToPostActions renders a group poll as a post attachment with one vote button per option.
func (p *Poll) ToPostActions(siteURL, pluginID, authorName string) []*model.SlackAttachment {
	actions := []*model.PostAction{}

	for _, o := range p.Options {
		actions = append(actions, &model.PostAction{
			Id:   strings.ReplaceAll(o.ID, "_", ""),
			Name: fmt.Sprintf("%s (%d)", o.Label, o.Votes),
			Type: model.PostActionTypeButton,
			Integration: &model.PostActionIntegration{
				URL: fmt.Sprintf("%s/plugins/%s/api/v1/groups/%s/polls/%s/votes/%s/post",
					siteURL, pluginID, url.PathEscape(p.GroupID), url.PathEscape(p.ID), url.PathEscape(o.ID)),
			},
		})
	}

	return []*model.SlackAttachment{{
		AuthorName: authorName,
		Title:      p.Question,
		Text:       fmt.Sprintf("**Total votes**: %d", p.TotalVotes),
		Actions:    actions,
	}}
}

// ToMarkdown renders the leaderboard of a tally.
func (t *Tally) ToMarkdown() string {
	if len(t.Leaderboard) == 0 {
		return fmt.Sprintf("Nobody has picked a place in **%s** yet.", t.Location)
	}

	lines := []string{fmt.Sprintf("#### Tonight in %s", t.Location)}
	for i, o := range t.Leaderboard {
		var voteText string
		if o.Votes == 1 {
			voteText = "vote"
		} else {
			voteText = "votes"
		}

		var names []string
		for _, v := range t.Voters[o.Label] {
			names = append(names, v.displayName())
		}
		lines = append(lines, fmt.Sprintf("%d. **%s**: %d %s (%.0f%%) %s",
			i+1, o.Label, o.Votes, voteText, t.Percentage(o.Label), strings.Join(names, ", ")))
	}
	lines = append(lines, fmt.Sprintf("**Total votes**: %d", t.TotalVotes))
	return strings.Join(lines, "\n")
}

func (m VoterMeta) displayName() string {
	switch {
	case m.Username != "":
		return "@" + m.Username
	case m.DisplayName != "":
		return m.DisplayName
	default:
		return m.UserID
	}
}
