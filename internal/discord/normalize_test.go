package discord

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawMessage = `{
	"id": "500",
	"channel_id": "c1",
	"content": "gg",
	"timestamp": "2026-05-01T20:15:00.000000+00:00",
	"author": {
		"id": "u7",
		"username": "viewer",
		"global_name": "Viewer",
		"discriminator": "0",
		"avatar": "a_animated",
		"accent_color": 16711680
	},
	"attachments": [
		{"id": "at1", "url": "https://cdn.discordapp.com/attachments/1/2/clip.png", "size": 2048,
		 "width": 640, "height": 480, "content_type": "image/png"}
	],
	"reactions": [
		{"count": 3, "emoji": {"id": null, "name": "🔥"}},
		{"count": 2, "emoji": {"id": "42", "name": "pog"}},
		{"count": 1, "emoji": {"id": null, "name": "🔥"}},
		{"count": 4, "emoji": {"id": "43", "name": "dance", "animated": true}},
		{"count": 5, "emoji": {"id": "42", "name": "pog"}}
	]
}`

func TestNormalize(t *testing.T) {
	var raw wireMessage
	require.NoError(t, json.Unmarshal([]byte(rawMessage), &raw))

	m := normalize(raw)

	assert.Equal(t, "500", m.ID)
	assert.Equal(t, "c1", m.ChannelID)
	assert.Equal(t, "gg", m.Content)
	assert.True(t, time.Date(2026, 5, 1, 20, 15, 0, 0, time.UTC).Equal(m.Timestamp))

	assert.Equal(t, "u7", m.Author.ID)
	assert.Equal(t, "viewer", m.Author.Username)
	require.NotNil(t, m.Author.GlobalName)
	assert.Equal(t, "Viewer", *m.Author.GlobalName)
	assert.Equal(t, "0", m.Author.Discriminator)
	require.NotNil(t, m.Author.AccentColor)
	assert.Equal(t, 16711680, *m.Author.AccentColor)
	require.NotNil(t, m.Author.AvatarURL)
	assert.Equal(t, discordgo.EndpointUserAvatarAnimated("u7", "a_animated"), *m.Author.AvatarURL)

	require.Len(t, m.Attachments, 1)
	a := m.Attachments[0]
	assert.Equal(t, "at1", a.ID)
	assert.Equal(t, int64(2048), a.Size)
	require.NotNil(t, a.Width)
	assert.Equal(t, 640, *a.Width)
	require.NotNil(t, a.ContentType)
	assert.Equal(t, "image/png", *a.ContentType)
	assert.Nil(t, a.Description)
}

func TestNormalize_CollapsesReactions(t *testing.T) {
	var raw wireMessage
	require.NoError(t, json.Unmarshal([]byte(rawMessage), &raw))

	reactions := normalize(raw).Reactions
	require.Len(t, reactions, 3)

	assert.Equal(t, "🔥", reactions[0].ID)
	assert.Equal(t, "🔥", reactions[0].Name)
	assert.Equal(t, 4, reactions[0].Count)
	assert.Nil(t, reactions[0].ImageURL)

	assert.Equal(t, "42", reactions[1].ID)
	assert.Equal(t, "pog", reactions[1].Name)
	assert.Equal(t, 7, reactions[1].Count)
	require.NotNil(t, reactions[1].ImageURL)
	assert.Equal(t, discordgo.EndpointEmoji("42"), *reactions[1].ImageURL)

	require.NotNil(t, reactions[2].ImageURL)
	assert.Equal(t, discordgo.EndpointEmojiAnimated("43"), *reactions[2].ImageURL)
}

func TestNormalize_EmptyCollections(t *testing.T) {
	m := normalize(wireMessage{ID: "1", Author: wireUser{ID: "u"}})
	assert.NotNil(t, m.Attachments)
	assert.NotNil(t, m.Reactions)
	assert.Empty(t, m.Attachments)
	assert.Empty(t, m.Reactions)
	assert.Nil(t, m.Author.AvatarURL)
}

func TestCollapseReactions_NamelessCustomEmoji(t *testing.T) {
	out := collapseReactions([]wireReaction{
		{Count: 1, Emoji: wireEmoji{ID: strPtr("77")}},
		{Count: 1, Emoji: wireEmoji{}},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "77", out[0].Name)
}
