package discord

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/config"
	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/logging"
)

const (
	// DefaultMessageLimit applies when a channel query sets no limit.
	DefaultMessageLimit = 50
	// MaxMessageLimit bounds a single channel query.
	MaxMessageLimit = 1000
	// pageSize is Discord's maximum messages per request.
	pageSize = 100
)

// ErrChannelNotInGuild means a requested channel belongs to another guild.
var ErrChannelNotInGuild = errors.New("discord: channel is not in guild")

// GuildResolver finds a guild visible to the bot.
type GuildResolver interface {
	ResolveGuild(ctx context.Context, guildID string) (*GuildHandle, error)
}

// Fetcher reads emojis, channels and messages of guilds the bot is in.
type Fetcher struct {
	guilds  GuildResolver
	limiter *rate.Limiter
	seed    uint64
	log     *logging.Logger
}

// NewFetcher creates a fetcher. Message page requests are paced at
// cfg.RequestsPerSecond; zero disables pacing.
func NewFetcher(guilds GuildResolver, cfg config.DiscordConfig, seed uint64, log *logging.Logger) *Fetcher {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Fetcher{
		guilds:  guilds,
		limiter: rate.NewLimiter(limit, burst),
		seed:    seed,
		log:     log.Sub("discord.fetch"),
	}
}

// ListEmojis returns the guild's custom emojis.
func (f *Fetcher) ListEmojis(ctx context.Context, guildID string) ([]domain.Emoji, error) {
	g, err := f.guilds.ResolveGuild(ctx, guildID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeGetEmojis, err)
	}

	var raw []wireEmoji
	if err := getJSON(ctx, g.Session, "guilds.emojis", discordgo.EndpointGuildEmojis(g.ID), &raw); err != nil {
		f.log.Warn().Err(err).Str("guild", guildID).Msg("listing emojis failed")
		return nil, apperr.Wrap(apperr.CodeGetEmojis, err)
	}

	emojis := make([]domain.Emoji, 0, len(raw))
	for _, e := range raw {
		if e.ID == nil || *e.ID == "" {
			continue
		}
		name := *e.ID
		if e.Name != nil && *e.Name != "" {
			name = *e.Name
		}
		emojis = append(emojis, domain.Emoji{
			ID:       *e.ID,
			Name:     name,
			ImageURL: emojiURL(*e.ID, e.Animated),
		})
	}
	return emojis, nil
}

// ListChannels returns the guild's channels of exactly channelType.
func (f *Fetcher) ListChannels(ctx context.Context, guildID string, channelType int) ([]domain.Channel, error) {
	g, err := f.guilds.ResolveGuild(ctx, guildID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeGetChannels, err)
	}

	var raw []wireChannel
	if err := getJSON(ctx, g.Session, "guilds.channels", discordgo.EndpointGuildChannels(g.ID), &raw); err != nil {
		f.log.Warn().Err(err).Str("guild", guildID).Msg("listing channels failed")
		return nil, apperr.Wrap(apperr.CodeGetChannels, err)
	}

	channels := make([]domain.Channel, 0, len(raw))
	for _, c := range raw {
		if c.Type != channelType {
			continue
		}
		channels = append(channels, domain.Channel{
			ID:   c.ID,
			Name: c.Name,
			Type: c.Type,
			URL:  ChannelURL(g.ID, c.ID),
		})
	}
	return channels, nil
}

// ChannelURL is the browser link to a guild channel.
func ChannelURL(guildID, channelID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID
}

// ListMessages fetches every channel in q in order, normalizing and
// filtering each batch, then shuffles the combined result if asked. Any
// failure discards everything fetched so far.
func (f *Fetcher) ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	g, err := f.guilds.ResolveGuild(ctx, q.GuildID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeGetMessages, err)
	}

	out := []domain.Message{}
	for _, cq := range q.Channels {
		msgs, err := f.channelMessages(ctx, g, cq)
		if err != nil {
			f.log.Warn().Err(err).Str("guild", g.ID).Str("channel", cq.ID).Msg("fetching messages failed")
			return nil, apperr.Wrap(apperr.CodeGetMessages, err)
		}
		out = append(out, msgs...)
	}

	if q.Shuffle {
		Shuffle(out, f.seed)
	}
	f.log.Debug().Str("guild", g.ID).Int("channels", len(q.Channels)).Int("messages", len(out)).Msg("messages fetched")
	return out, nil
}

// cursor is the positional anchor of a channel window.
type cursor struct {
	key, id string
}

// pickCursor applies the precedence before > after > around.
func pickCursor(cq domain.ChannelQuery) cursor {
	switch {
	case cq.Before != "":
		return cursor{"before", cq.Before}
	case cq.After != "":
		return cursor{"after", cq.After}
	case cq.Around != "":
		return cursor{"around", cq.Around}
	}
	return cursor{}
}

func (f *Fetcher) channelMessages(ctx context.Context, g *GuildHandle, cq domain.ChannelQuery) ([]domain.Message, error) {
	var ch wireChannel
	if err := getJSON(ctx, g.Session, "channels", discordgo.EndpointChannel(cq.ID), &ch); err != nil {
		return nil, err
	}
	if ch.GuildID != g.ID {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotInGuild, cq.ID)
	}

	limit := cq.Limit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	limit = min(limit, MaxMessageLimit)

	cur := pickCursor(cq)
	if cur.key == "after" || cur.key == "around" {
		page, err := f.page(ctx, g.Session, cq.ID, cur, min(limit, pageSize))
		if err != nil {
			return nil, err
		}
		return ApplyFilter(normalizeAll(page), cq.Filters), nil
	}

	// Pages walk backwards through history from the cursor, or from the
	// newest message when there is none.
	out := []domain.Message{}
	fetched := 0
	for fetched < limit {
		want := min(pageSize, limit-fetched)
		page, err := f.page(ctx, g.Session, cq.ID, cur, want)
		if err != nil {
			return nil, err
		}
		out = append(out, ApplyFilter(normalizeAll(page), cq.Filters)...)
		fetched += len(page)
		if len(page) < want {
			break
		}
		cur = cursor{"before", page[len(page)-1].ID}
	}
	return out, nil
}

func (f *Fetcher) page(ctx context.Context, r Requester, channelID string, cur cursor, limit int) ([]wireMessage, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cur.key != "" {
		params.Set(cur.key, cur.id)
	}

	var page []wireMessage
	urlStr := discordgo.EndpointChannelMessages(channelID) + "?" + params.Encode()
	if err := getJSON(ctx, r, "channels.messages", urlStr, &page); err != nil {
		return nil, err
	}
	return page, nil
}

func normalizeAll(raw []wireMessage) []domain.Message {
	msgs := make([]domain.Message, 0, len(raw))
	for _, m := range raw {
		msgs = append(msgs, normalize(m))
	}
	return msgs
}
