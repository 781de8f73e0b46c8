package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// fakeRequester routes requests by path (query stripped) to canned
// responses or handlers.
type fakeRequester struct {
	mu       sync.Mutex
	routes   map[string]func(q url.Values) ([]byte, error)
	calls    []string
	lastAuth string
}

func newFakeRequester() *fakeRequester {
	return &fakeRequester{routes: make(map[string]func(url.Values) ([]byte, error))}
}

func (f *fakeRequester) Request(method, urlStr string, data interface{}, options ...discordgo.RequestOption) ([]byte, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	path := u.Scheme + "://" + u.Host + u.Path

	f.mu.Lock()
	f.calls = append(f.calls, urlStr)
	h, ok := f.routes[path]
	f.mu.Unlock()

	if !ok {
		return nil, errors.New("404: " + path)
	}
	return h(u.Query())
}

func (f *fakeRequester) respond(t *testing.T, urlStr string, v any) {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	f.routes[urlStr] = func(url.Values) ([]byte, error) { return body, nil }
}

func (f *fakeRequester) fail(urlStr string, err error) {
	f.routes[urlStr] = func(url.Values) ([]byte, error) { return nil, err }
}

func (f *fakeRequester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRequester) callsTo(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

// fakeBot is a BotSession over a fakeRequester with a fixed guild cache.
type fakeBot struct {
	*fakeRequester
	guilds map[string]*discordgo.Guild
	closed bool
}

func newFakeBot(guildIDs ...string) *fakeBot {
	b := &fakeBot{fakeRequester: newFakeRequester(), guilds: make(map[string]*discordgo.Guild)}
	for _, id := range guildIDs {
		b.guilds[id] = &discordgo.Guild{ID: id, Name: "guild " + id}
	}
	return b
}

func (b *fakeBot) CachedGuild(id string) (*discordgo.Guild, bool) {
	g, ok := b.guilds[id]
	return g, ok
}

func (b *fakeBot) Close() error {
	b.closed = true
	return nil
}

// staticResolver resolves guilds straight from a fakeBot.
type staticResolver struct {
	bot *fakeBot
	err error
}

func (s staticResolver) ResolveGuild(_ context.Context, guildID string) (*GuildHandle, error) {
	if s.err != nil {
		return nil, s.err
	}
	g, ok := s.bot.CachedGuild(guildID)
	if !ok {
		return nil, ErrGuildNotFound
	}
	return &GuildHandle{ID: g.ID, Name: g.Name, Session: s.bot}, nil
}

// fakeAccess is an in-memory AccessLookup.
type fakeAccess struct {
	windows map[string]domain.AccessWindow
	err     error
	asked   []string
}

func (f *fakeAccess) Lookup(_ context.Context, username string) (domain.AccessWindow, error) {
	f.asked = append(f.asked, username)
	if f.err != nil {
		return domain.AccessWindow{}, f.err
	}
	return f.windows[username], nil
}

// history builds n messages in channelID, newest first, with ids
// base+n-1 down to base.
func history(channelID string, base, n int) []wireMessage {
	msgs := make([]wireMessage, 0, n)
	for i := n - 1; i >= 0; i-- {
		id := strconv.Itoa(base + i)
		msgs = append(msgs, wireMessage{
			ID:        id,
			ChannelID: channelID,
			Content:   "message " + id,
			Timestamp: time.Date(2026, 1, 1, 0, 0, base+i, 0, time.UTC),
			Author:    wireUser{ID: "author-" + strconv.Itoa(i%3), Username: "user"},
		})
	}
	return msgs
}

// serveHistory answers channel message pages the way Discord does for
// limit/before/after/around, over a newest-first history.
func serveHistory(t *testing.T, f *fakeRequester, guildID, channelID string, msgs []wireMessage) {
	t.Helper()
	f.respond(t, discordgo.EndpointChannel(channelID), wireChannel{ID: channelID, GuildID: guildID, Name: channelID})
	f.routes[discordgo.EndpointChannelMessages(channelID)] = func(q url.Values) ([]byte, error) {
		limit, _ := strconv.Atoi(q.Get("limit"))
		start := 0
		if before := q.Get("before"); before != "" {
			b, _ := strconv.Atoi(before)
			start = len(msgs)
			for i, m := range msgs {
				id, _ := strconv.Atoi(m.ID)
				if id < b {
					start = i
					break
				}
			}
		}
		end := min(start+limit, len(msgs))
		return json.Marshal(msgs[start:end])
	}
}

func strPtr(s string) *string { return &s }
