package fsstore

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/tonightapp/tonight/server/chat"
	"github.com/tonightapp/tonight/server/poll"
)

// pollDocument is the stored form of a poll. The poll ID is the document ID.
type pollDocument struct {
	Kind       string                   `firestore:"kind"`
	Location   string                   `firestore:"location,omitempty"`
	GroupID    string                   `firestore:"groupId,omitempty"`
	CreatorID  string                   `firestore:"creatorId,omitempty"`
	Question   string                   `firestore:"question,omitempty"`
	Options    []optionDocument         `firestore:"options"`
	TotalVotes int                      `firestore:"totalVotes"`
	Profiles   map[string]voterDocument `firestore:"profiles,omitempty"`
	CreatedAt  time.Time                `firestore:"createdAt,serverTimestamp"`
	UpdatedAt  time.Time                `firestore:"updatedAt,serverTimestamp"`
}

type optionDocument struct {
	ID     string   `firestore:"id"`
	Label  string   `firestore:"label"`
	Votes  int      `firestore:"votes"`
	Voters []string `firestore:"voters"`
}

type voterDocument struct {
	DisplayName string `firestore:"displayName,omitempty"`
	Username    string `firestore:"username,omitempty"`
	AvatarURL   string `firestore:"avatarUrl,omitempty"`
}

// messageDocument is the stored form of a chat message.
type messageDocument struct {
	SenderID   string    `firestore:"senderId"`
	SenderName string    `firestore:"senderName"`
	Type       string    `firestore:"type"`
	Text       string    `firestore:"text"`
	PollID     string    `firestore:"pollId,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt,serverTimestamp"`
}

// locationDocID maps a free text location to a valid document ID.
func locationDocID(location string) string {
	sum := sha256.Sum256([]byte(location))
	return hex.EncodeToString(sum[:])
}

func toPollDocument(p *poll.Poll) pollDocument {
	doc := pollDocument{
		Kind:       string(p.Kind),
		Location:   p.Location,
		GroupID:    p.GroupID,
		CreatorID:  p.CreatorID,
		Question:   p.Question,
		Options:    make([]optionDocument, 0, len(p.Options)),
		TotalVotes: p.TotalVotes,
		CreatedAt:  fromMillis(p.CreatedAt),
		UpdatedAt:  fromMillis(p.UpdatedAt),
	}
	for _, o := range p.Options {
		voters := o.Voters
		if voters == nil {
			voters = []string{}
		}
		doc.Options = append(doc.Options, optionDocument{
			ID:     o.ID,
			Label:  o.Label,
			Votes:  o.Votes,
			Voters: voters,
		})
	}
	if len(p.Profiles) > 0 {
		doc.Profiles = make(map[string]voterDocument, len(p.Profiles))
		for userID, meta := range p.Profiles {
			doc.Profiles[userID] = voterDocument{
				DisplayName: meta.DisplayName,
				Username:    meta.Username,
				AvatarURL:   meta.AvatarURL,
			}
		}
	}
	return doc
}

// fromPollDocument converts a stored poll. Location polls are identified by their location, not by the document ID.
func fromPollDocument(id string, doc pollDocument) *poll.Poll {
	if poll.Kind(doc.Kind) == poll.KindLocation {
		id = doc.Location
	}
	p := &poll.Poll{
		ID:         id,
		Kind:       poll.Kind(doc.Kind),
		Location:   doc.Location,
		GroupID:    doc.GroupID,
		CreatorID:  doc.CreatorID,
		Question:   doc.Question,
		Options:    make([]*poll.Option, 0, len(doc.Options)),
		TotalVotes: doc.TotalVotes,
		CreatedAt:  toMillis(doc.CreatedAt),
		UpdatedAt:  toMillis(doc.UpdatedAt),
	}
	for _, o := range doc.Options {
		voters := o.Voters
		if voters == nil {
			voters = []string{}
		}
		p.Options = append(p.Options, &poll.Option{
			ID:     o.ID,
			Label:  o.Label,
			Votes:  o.Votes,
			Voters: voters,
		})
	}
	if len(doc.Profiles) > 0 {
		p.Profiles = make(map[string]poll.VoterMeta, len(doc.Profiles))
		for userID, v := range doc.Profiles {
			p.Profiles[userID] = poll.VoterMeta{
				UserID:      userID,
				DisplayName: v.DisplayName,
				Username:    v.Username,
				AvatarURL:   v.AvatarURL,
			}
		}
	}
	return p
}

func decodePoll(snap *firestore.DocumentSnapshot) (*poll.Poll, error) {
	var doc pollDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode poll %s", snap.Ref.ID)
	}
	return fromPollDocument(snap.Ref.ID, doc), nil
}

func toMessageDocument(m *chat.Message) messageDocument {
	return messageDocument{
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Type:       string(m.Type),
		Text:       m.Text,
		PollID:     m.PollID,
		CreatedAt:  fromMillis(m.CreatedAt),
	}
}

// fromMillis keeps zero as the zero time, so that the server fills in the timestamp.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
