package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- OwnedGuilds tests ---

func TestOwnedGuilds(t *testing.T) {
	guilds := []Guild{
		{ID: "1", Name: "mine", Owner: true},
		{ID: "2", Name: "member", Owner: false},
		{ID: "3", Name: "also mine", Owner: true},
	}

	owned := OwnedGuilds(guilds)
	require.Len(t, owned, 2)
	assert.Equal(t, "1", owned[0].ID)
	assert.Equal(t, "3", owned[1].ID)
	for _, g := range owned {
		assert.True(t, g.Owner)
	}
}

func TestOwnedGuilds_Empty(t *testing.T) {
	assert.Empty(t, OwnedGuilds(nil))
	assert.NotNil(t, OwnedGuilds(nil), "marshals as [] rather than null")
}

// --- AccessWindow tests ---

func TestAccessWindowActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, AccessWindow{DueDate: &due}.Active(now))
	assert.True(t, AccessWindow{DueDate: &now}.Active(now))
	assert.False(t, AccessWindow{DueDate: &past}.Active(now))
	assert.False(t, AccessWindow{}.Active(now))
}

// --- Message tests ---

func TestMessageHasReaction(t *testing.T) {
	msg := Message{Reactions: []ReactionSummary{
		{ID: "👍", Name: "👍", Count: 2},
		{ID: "42", Name: "pog", Count: 1},
	}}

	assert.True(t, msg.HasReaction("pog"))
	assert.True(t, msg.HasReaction("👍"))
	assert.False(t, msg.HasReaction("Pog"), "names match exactly")
	assert.False(t, Message{}.HasReaction("pog"))
}

// --- JSON shape tests ---

func TestUserJSONOmitsEmptyOptionals(t *testing.T) {
	u := User{ID: "1", Username: "streamer", Guilds: []Guild{}}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "email")
	assert.NotContains(t, raw, "avatar")
	assert.NotContains(t, raw, "credentials")
	assert.Equal(t, []any{}, raw["guilds"])
}

func TestMessageQueryDecode(t *testing.T) {
	body := `{
		"guildId": "g1",
		"shuffle": true,
		"channels": [
			{"id": "c1", "limit": 2, "before": "99", "filters": {"emojiName": "pog", "hasAttachments": true}},
			{"id": "c2"}
		]
	}`

	var q MessageQuery
	require.NoError(t, json.Unmarshal([]byte(body), &q))

	assert.Equal(t, "g1", q.GuildID)
	assert.True(t, q.Shuffle)
	require.Len(t, q.Channels, 2)
	assert.Equal(t, 2, q.Channels[0].Limit)
	assert.Equal(t, "99", q.Channels[0].Before)
	require.NotNil(t, q.Channels[0].Filters)
	assert.Equal(t, "pog", q.Channels[0].Filters.EmojiName)
	require.NotNil(t, q.Channels[0].Filters.HasAttachments)
	assert.True(t, *q.Channels[0].Filters.HasAttachments)
	assert.Nil(t, q.Channels[1].Filters)
}
