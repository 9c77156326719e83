package plugin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/mattermost/mattermost-server/v6/plugin"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/utils"
)

const (
	iconFilename = "logo_dark.png"

	userIDHeader = "Mattermost-User-ID"
)

type postActionHandler func(context.Context, map[string]string, *model.PostActionIntegrationRequest) (*i18n.Message, *model.Post, *utils.ErrorMessage)

var infoMessage = "Thanks for using Tonight v" + manifest.Version + "\n"

// response is part of every JSON response. Error is the localized error message or null.
type response struct {
	Error *string `json:"error"`
}

type locationVoteResponse struct {
	response
	Action poll.Action `json:"action"`
}

type userVoteResponse struct {
	response
	Option *poll.Option `json:"option"`
}

type tallyResponse struct {
	response
	Tally *poll.Tally `json:"tally"`
}

type createGroupPollResponse struct {
	response
	PollID            string `json:"poll_id"`
	ChatMessageFailed bool   `json:"chat_message_failed"`
}

type listGroupPollsResponse struct {
	response
	Polls []*poll.Poll `json:"polls"`
}

type groupVoteResponse struct {
	response
	Action poll.Action `json:"action"`
	Poll   *poll.Poll  `json:"poll"`
}

// InitAPI initializes the REST API
func (p *TonightPlugin) InitAPI() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", p.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/"+iconFilename, p.handleLogo).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/api/" + CurrentAPIVersion).Subrouter()
	apiV1.Use(checkAuthenticity)
	apiV1.HandleFunc("/configuration", p.handlePluginConfiguration).Methods(http.MethodGet)

	locationRouter := apiV1.PathPrefix("/locations/{location}").Subrouter()
	locationRouter.HandleFunc("/votes", p.handleLocationVote).Methods(http.MethodPost)
	locationRouter.HandleFunc("/votes/me", p.handleLocationUserVote).Methods(http.MethodGet)
	locationRouter.HandleFunc("/tally", p.handleLocationTally).Methods(http.MethodGet)

	groupRouter := apiV1.PathPrefix("/groups/{groupID:[a-z0-9]+}").Subrouter()
	groupRouter.Use(p.checkGroupMembership)
	groupRouter.HandleFunc("/polls", p.handleCreateGroupPoll).Methods(http.MethodPost)
	groupRouter.HandleFunc("/polls", p.handleListGroupPolls).Methods(http.MethodGet)
	groupRouter.HandleFunc("/polls/{pollID:[A-Za-z0-9]+}", p.handleDeleteGroupPoll).Methods(http.MethodDelete)
	groupRouter.HandleFunc("/polls/{pollID:[A-Za-z0-9]+}/votes/{optionID:[a-z0-9_]+}", p.handleGroupVote).Methods(http.MethodPost)
	groupRouter.HandleFunc("/polls/{pollID:[A-Za-z0-9]+}/votes/{optionID:[a-z0-9_]+}/post", p.handlePostActionIntegrationRequest(p.handlePostVote)).Methods(http.MethodPost)
	return r
}

func (p *TonightPlugin) ServeHTTP(c *plugin.Context, w http.ResponseWriter, r *http.Request) {
	p.API.LogDebug("New request:", "Host", r.Host, "RequestURI", r.RequestURI, "Method", r.Method)
	p.router.ServeHTTP(w, r)
}

func (p *TonightPlugin) handleInfo(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, infoMessage)
}

func (p *TonightPlugin) handleLogo(w http.ResponseWriter, r *http.Request) {
	bundlePath, err := p.API.GetBundlePath()
	if err != nil {
		p.API.LogWarn("failed to get bundle path", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=604800")
	http.ServeFile(w, r, filepath.Join(bundlePath, "assets", iconFilename))
}

func (p *TonightPlugin) handlePluginConfiguration(w http.ResponseWriter, r *http.Request) {
	p.writeJSON(w, http.StatusOK, p.getConfiguration().public())
}

func checkAuthenticity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userIDHeader) == "" {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkGroupMembership only lets members of a channel access the polls of its group.
func (p *TonightPlugin) checkGroupMembership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		groupID := mux.Vars(r)["groupID"]
		userID := r.Header.Get(userIDHeader)

		if _, appErr := p.API.GetChannelMember(groupID, userID); appErr != nil {
			p.API.LogDebug("Denied group access", "group_id", groupID, "user_id", userID, "error", appErr.Error())
			http.Error(w, "not a member of the group", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (p *TonightPlugin) handleLocationVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	location := mux.Vars(r)["location"]

	var request struct {
		Option string `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		p.API.LogWarn("failed to decode vote request", "error", err.Error())
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	action, errMsg := p.locations.VoteForOption(r.Context(), userID, location, request.Option, p.voterMeta(userID))
	if errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}
	p.relay.watchLocation(strings.TrimSpace(location))

	p.writeJSON(w, http.StatusOK, &locationVoteResponse{Action: action})
}

func (p *TonightPlugin) handleLocationUserVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	location := mux.Vars(r)["location"]

	option, errMsg := p.locations.GetUserVoteForLocation(r.Context(), userID, location)
	if errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}

	p.writeJSON(w, http.StatusOK, &userVoteResponse{Option: option})
}

func (p *TonightPlugin) handleLocationTally(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	location := mux.Vars(r)["location"]

	tally, errMsg := p.locations.Leaderboard(r.Context(), location)
	if errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}
	p.relay.watchLocation(strings.TrimSpace(location))

	p.writeJSON(w, http.StatusOK, &tallyResponse{Tally: tally})
}

func (p *TonightPlugin) handleCreateGroupPoll(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	groupID := mux.Vars(r)["groupID"]

	var request struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		p.API.LogWarn("failed to decode create poll request", "error", err.Error())
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, errMsg := p.groups.CreateGroupPoll(r.Context(), groupID, userID, request.Question, request.Options, p.voterMeta(userID))
	if errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}
	p.relay.watchGroup(groupID)

	p.writeJSON(w, http.StatusCreated, &createGroupPollResponse{
		PollID:            result.PollID,
		ChatMessageFailed: result.ChatMessageErr != nil,
	})
}

func (p *TonightPlugin) handleListGroupPolls(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	groupID := mux.Vars(r)["groupID"]

	polls, errMsg := p.groups.ListGroupPolls(r.Context(), groupID)
	if errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}
	p.relay.watchGroup(groupID)

	p.writeJSON(w, http.StatusOK, &listGroupPollsResponse{Polls: polls})
}

func (p *TonightPlugin) handleGroupVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	vars := mux.Vars(r)

	updated, action, errMsg := p.groups.VoteOnGroupPoll(r.Context(), vars["groupID"], vars["pollID"], vars["optionID"], userID)
	if errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}
	p.publishPollMetadata(updated, userID)
	p.relay.watchGroup(vars["groupID"])

	p.writeJSON(w, http.StatusOK, &groupVoteResponse{Action: action, Poll: updated})
}

func (p *TonightPlugin) handleDeleteGroupPoll(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	vars := mux.Vars(r)

	if errMsg := p.groups.DeleteGroupPoll(r.Context(), vars["groupID"], vars["pollID"], userID); errMsg != nil {
		p.writeError(w, userID, errMsg)
		return
	}

	p.writeJSON(w, http.StatusOK, &response{})
}

func (p *TonightPlugin) handlePostActionIntegrationRequest(handler postActionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request := &model.PostActionIntegrationRequest{}
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			p.API.LogWarn("failed to decode PostActionIntegrationRequest", "error", err.Error())
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		// The header is set by the server, the body is not trusted.
		request.UserId = r.Header.Get(userIDHeader)
		userLocalizer := p.bundle.GetUserLocalizer(request.UserId)

		msg, update, errMsg := handler(r.Context(), mux.Vars(r), request)
		if errMsg != nil {
			p.SendEphemeralPost(request.ChannelId, request.UserId, p.bundle.LocalizeErrorMessage(userLocalizer, errMsg))
		} else if msg != nil {
			p.SendEphemeralPost(request.ChannelId, request.UserId, p.bundle.LocalizeDefaultMessage(userLocalizer, msg))
		}

		response := &model.PostActionIntegrationResponse{}
		if update != nil {
			response.Update = update
		}
		p.writeJSON(w, http.StatusOK, response)
	}
}

func (p *TonightPlugin) handlePostVote(ctx context.Context, vars map[string]string, request *model.PostActionIntegrationRequest) (*i18n.Message, *model.Post, *utils.ErrorMessage) {
	groupID := vars["groupID"]

	updated, action, errMsg := p.groups.VoteOnGroupPoll(ctx, groupID, vars["pollID"], vars["optionID"], request.UserId)
	if errMsg != nil {
		return nil, nil, errMsg
	}
	p.publishPollMetadata(updated, request.UserId)
	p.relay.watchGroup(groupID)

	creator := p.voterMeta(updated.CreatorID)
	authorName := creator.DisplayName
	if authorName == "" {
		authorName = creator.UserID
	}

	post := &model.Post{}
	model.ParseSlackAttachment(post, updated.ToPostActions(p.siteURL(), manifest.Id, authorName))
	post.AddProp("sender_id", updated.CreatorID)
	post.AddProp("poll_id", updated.ID)

	return groupVoteMessage(action), post, nil
}

// publishPollMetadata tells the clients of userID which option they vote for.
func (p *TonightPlugin) publishPollMetadata(pl *poll.Poll, userID string) {
	p.API.PublishWebSocketEvent("has_voted", pl.GetMetadata(userID).ToMap(), &model.WebsocketBroadcast{UserId: userID})
}

func (p *TonightPlugin) writeError(w http.ResponseWriter, userID string, errMsg *utils.ErrorMessage) {
	text := p.bundle.LocalizeErrorMessage(p.bundle.GetUserLocalizer(userID), errMsg)
	p.writeJSON(w, statusCode(errMsg.Kind), &response{Error: &text})
}

func (p *TonightPlugin) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		p.API.LogWarn("failed to encode response", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		p.API.LogWarn("failed to write response", "error", err.Error())
	}
}

func statusCode(kind utils.ErrorKind) int {
	switch kind {
	case utils.KindNotFound:
		return http.StatusNotFound
	case utils.KindInvalidArgument:
		return http.StatusBadRequest
	case utils.KindPermissionDenied:
		return http.StatusForbidden
	case utils.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}
