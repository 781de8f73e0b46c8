// Package discord talks to the Discord API: the OAuth code exchange, user
// resolution, the shared bot session and the guild resource fetchers.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/soyeahso/guildboard/internal/metrics"
)

// Requester issues authenticated Discord REST calls. *discordgo.Session
// satisfies it.
type Requester interface {
	Request(method, urlStr string, data interface{}, options ...discordgo.RequestOption) ([]byte, error)
}

// getJSON performs a GET against urlStr and decodes the body into out.
// endpoint is a low-cardinality label used for metrics.
func getJSON(ctx context.Context, r Requester, endpoint, urlStr string, out any) error {
	metrics.IncDiscordRequest(endpoint)
	body, err := r.Request(http.MethodGet, urlStr, nil, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

type wireUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	GlobalName    *string `json:"global_name"`
	Discriminator string  `json:"discriminator"`
	Email         *string `json:"email"`
	Avatar        *string `json:"avatar"`
	AccentColor   *int    `json:"accent_color"`
}

type wireGuild struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Icon     *string  `json:"icon"`
	Owner    bool     `json:"owner"`
	Features []string `json:"features"`
}

type wireEmoji struct {
	ID       *string `json:"id"`
	Name     *string `json:"name"`
	Animated bool    `json:"animated"`
}

type wireChannel struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id"`
	Name    string `json:"name"`
	Type    int    `json:"type"`
}

type wireAttachment struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Size        int64   `json:"size"`
	Width       *int    `json:"width"`
	Height      *int    `json:"height"`
	Description *string `json:"description"`
	ContentType *string `json:"content_type"`
}

type wireReaction struct {
	Count int       `json:"count"`
	Emoji wireEmoji `json:"emoji"`
}

type wireMessage struct {
	ID          string           `json:"id"`
	ChannelID   string           `json:"channel_id"`
	Content     string           `json:"content"`
	Timestamp   time.Time        `json:"timestamp"`
	Author      wireUser         `json:"author"`
	Attachments []wireAttachment `json:"attachments"`
	Reactions   []wireReaction   `json:"reactions"`
}

// emojiURL returns the CDN image for a custom emoji.
func emojiURL(id string, animated bool) string {
	if animated {
		return discordgo.EndpointEmojiAnimated(id)
	}
	return discordgo.EndpointEmoji(id)
}

// avatarURL returns the CDN image for a user avatar hash, or nil.
func avatarURL(userID string, hash *string) *string {
	if hash == nil || *hash == "" {
		return nil
	}
	var u string
	if len(*hash) > 2 && (*hash)[:2] == "a_" {
		u = discordgo.EndpointUserAvatarAnimated(userID, *hash)
	} else {
		u = discordgo.EndpointUserAvatar(userID, *hash)
	}
	return &u
}

// guildIconURL returns the CDN image for a guild icon hash, or nil.
func guildIconURL(guildID string, hash *string) *string {
	if hash == nil || *hash == "" {
		return nil
	}
	u := discordgo.EndpointGuildIcon(guildID, *hash)
	return &u
}
