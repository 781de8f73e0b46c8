package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/soyeahso/guildboard/internal/config"
	"github.com/soyeahso/guildboard/internal/logging"
	"github.com/soyeahso/guildboard/internal/version"
)

var (
	// ErrNoBotToken is returned by every resolution when no bot token is configured.
	ErrNoBotToken = errors.New("discord: no bot token configured")
	// ErrGuildNotFound means the bot's state cache has no such guild.
	ErrGuildNotFound = errors.New("discord: guild not found")
	// ErrReadyTimeout means the gateway never delivered READY.
	ErrReadyTimeout = errors.New("discord: timed out waiting for READY")
)

const defaultReadyTimeout = 30 * time.Second

// botIntents covers guild metadata, emojis, messages and their reactions.
const botIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildEmojis |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// BotSession is a connected bot: REST access plus the gateway state cache.
type BotSession interface {
	Requester
	CachedGuild(id string) (*discordgo.Guild, bool)
	Close() error
}

// Connector opens a bot session and returns once it is ready.
type Connector func(ctx context.Context, token string, readyTimeout time.Duration) (BotSession, error)

// GuildHandle is a guild the bot can see, with the session to query it through.
type GuildHandle struct {
	ID      string
	Name    string
	Session BotSession
}

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateConnecting
	stateReady
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// connectAttempt is shared by every caller that arrives while connecting.
type connectAttempt struct {
	done    chan struct{}
	session BotSession
	err     error
}

// SessionProvider owns the process-wide bot session. It connects lazily on
// first use; once ready the same session is returned until Close.
type SessionProvider struct {
	token        string
	readyTimeout time.Duration
	connect      Connector
	log          *logging.Logger

	mu      sync.Mutex
	state   sessionState
	session BotSession
	attempt *connectAttempt
}

// ProviderOption configures a SessionProvider.
type ProviderOption func(*SessionProvider)

// WithConnector replaces the gateway connector.
func WithConnector(c Connector) ProviderOption {
	return func(p *SessionProvider) { p.connect = c }
}

// NewSessionProvider creates a provider. It never dials and never fails.
func NewSessionProvider(cfg config.DiscordConfig, log *logging.Logger, opts ...ProviderOption) *SessionProvider {
	timeout := time.Duration(cfg.ReadyTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	p := &SessionProvider{
		token:        cfg.BotToken,
		readyTimeout: timeout,
		connect:      connectGateway,
		log:          log.Sub("discord.session"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the provider's lifecycle state.
func (p *SessionProvider) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.String()
}

// GetOrInit returns the ready session, connecting first if needed. Callers
// arriving during a connect wait for the same attempt. A failed attempt
// leaves the provider uninitialized so a later call can retry.
func (p *SessionProvider) GetOrInit(ctx context.Context) (BotSession, error) {
	if p.token == "" {
		return nil, ErrNoBotToken
	}

	p.mu.Lock()
	switch p.state {
	case stateReady:
		s := p.session
		p.mu.Unlock()
		return s, nil
	case stateConnecting:
		a := p.attempt
		p.mu.Unlock()
		select {
		case <-a.done:
			return a.session, a.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a := &connectAttempt{done: make(chan struct{})}
	p.state = stateConnecting
	p.attempt = a
	p.mu.Unlock()

	p.log.Info().Msg("connecting bot session")
	start := time.Now()
	s, err := p.connect(ctx, p.token, p.readyTimeout)

	p.mu.Lock()
	if err != nil {
		p.state = stateUninitialized
		p.log.Error().Err(err).Msg("bot session connect failed")
	} else {
		p.state = stateReady
		p.session = s
		p.log.Info().Dur("took", time.Since(start)).Msg("bot session ready")
	}
	p.attempt = nil
	a.session, a.err = s, err
	close(a.done)
	p.mu.Unlock()

	return s, err
}

// ResolveGuild looks a guild up in the bot's state cache.
func (p *SessionProvider) ResolveGuild(ctx context.Context, guildID string) (*GuildHandle, error) {
	s, err := p.GetOrInit(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := s.CachedGuild(guildID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}
	return &GuildHandle{ID: g.ID, Name: g.Name, Session: s}, nil
}

// Close shuts the gateway connection if one was opened.
func (p *SessionProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	p.state = stateUninitialized
	p.log.Info().Msg("bot session closed")
	return err
}

// gatewaySession adapts *discordgo.Session to BotSession.
type gatewaySession struct {
	*discordgo.Session
}

func (g gatewaySession) CachedGuild(id string) (*discordgo.Guild, bool) {
	if g.State == nil {
		return nil, false
	}
	guild, err := g.State.Guild(id)
	if err != nil {
		return nil, false
	}
	return guild, true
}

func connectGateway(ctx context.Context, token string, readyTimeout time.Duration) (BotSession, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.UserAgent = version.UserAgent()
	s.Identify.Intents = botIntents

	ready := make(chan struct{})
	s.AddHandlerOnce(func(_ *discordgo.Session, _ *discordgo.Ready) {
		close(ready)
	})

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening gateway: %w", err)
	}

	timer := time.NewTimer(readyTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		return gatewaySession{s}, nil
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	case <-timer.C:
		s.Close()
		return nil, ErrReadyTimeout
	}
}
