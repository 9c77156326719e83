package fsstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tonightapp/tonight/server/chat"
	"github.com/tonightapp/tonight/server/poll"
	"github.com/tonightapp/tonight/server/utils/testutils"
)

func TestPollDocument(t *testing.T) {
	for name, p := range map[string]*poll.Poll{
		"location poll": testutils.GetLocationPollWithVotes(),
		"group poll":    testutils.GetGroupPollWithVotes(),
		"empty poll":    poll.NewLocationPoll("Bloomington"),
	} {
		t.Run(name, func(t *testing.T) {
			doc := toPollDocument(p)
			assert.Equal(t, p, fromPollDocument(p.ID, doc))
		})
	}

	t.Run("location polls are identified by their location", func(t *testing.T) {
		p := testutils.GetLocationPollWithVotes()

		decoded := fromPollDocument(locationDocID(p.Location), toPollDocument(p))
		assert.Equal(t, p.Location, decoded.ID)
		assert.Equal(t, p, decoded)
	})
	t.Run("group polls keep the document ID", func(t *testing.T) {
		decoded := fromPollDocument("docID", toPollDocument(testutils.GetGroupPoll()))
		assert.Equal(t, "docID", decoded.ID)
	})
	t.Run("nil voters are stored as empty lists", func(t *testing.T) {
		p := testutils.GetGroupPoll()
		p.Options[0].Voters = nil

		doc := toPollDocument(p)
		assert.Equal(t, []string{}, doc.Options[0].Voters)
	})
	t.Run("zero timestamps are left to the server", func(t *testing.T) {
		p := testutils.GetGroupPoll()
		p.CreatedAt = 0
		p.UpdatedAt = 0

		doc := toPollDocument(p)
		assert.True(t, doc.CreatedAt.IsZero())
		assert.True(t, doc.UpdatedAt.IsZero())
	})
	t.Run("profiles are keyed by user", func(t *testing.T) {
		doc := toPollDocument(testutils.GetLocationPollWithVotes())

		assert.Equal(t, voterDocument{DisplayName: "Display userID1", Username: "user_userID1"}, doc.Profiles["userID1"])
	})
}

func TestMessageDocument(t *testing.T) {
	m := chat.NewPollMessage(testutils.GetBundle(), testutils.GetGroupPoll(), testutils.GetVoterMeta("userID1"))

	doc := toMessageDocument(m)

	assert.Equal(t, messageDocument{
		SenderID:   "userID1",
		SenderName: "Display userID1",
		Type:       "poll",
		Text:       "Display userID1 created a poll: Where tonight?",
		PollID:     testutils.GetPollID(),
	}, doc)
}

func TestLocationDocID(t *testing.T) {
	assert.Equal(t, locationDocID("Bloomington"), locationDocID("Bloomington"))
	assert.NotEqual(t, locationDocID("Bloomington"), locationDocID("Bloomington "))
	assert.NotContains(t, locationDocID("a/b"), "/")
	assert.Len(t, locationDocID("."), 64)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, time.Time{}, fromMillis(0))
	assert.Equal(t, int64(0), toMillis(time.Time{}))
	assert.Equal(t, int64(1234567890), toMillis(fromMillis(1234567890)))
}
