// Package service exposes the boundary operations the front end calls. It
// validates parameters, delegates to the Discord layer and records each call.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/discord"
	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/logging"
	"github.com/soyeahso/guildboard/internal/metrics"
)

// Operation names, used for metrics labels and fallback messages.
const (
	OpLogin       = "login"
	OpGetUser     = "getUser"
	OpGetEmojis   = "getEmojis"
	OpGetChannels = "getChannels"
	OpGetMessages = "getMessages"
)

var fallbackMessages = map[string]string{
	OpLogin:       "Unexpected error logging in",
	OpGetUser:     "Unexpected error getting user",
	OpGetEmojis:   "Unexpected error getting emojis",
	OpGetChannels: "Unexpected error getting channels",
	OpGetMessages: "Unexpected error getting messages",
}

// FallbackMessage is reported for failures outside the domain error table.
func FallbackMessage(op string) string {
	if m, ok := fallbackMessages[op]; ok {
		return m
	}
	return "Unexpected error"
}

// Accounts resolves logged-in users.
type Accounts interface {
	LoginWithCode(ctx context.Context, code string, isDev bool) (domain.User, error)
	GetUser(ctx context.Context, creds domain.Credentials) (domain.User, error)
}

// Resources reads guild data through the bot session.
type Resources interface {
	ListEmojis(ctx context.Context, guildID string) ([]domain.Emoji, error)
	ListChannels(ctx context.Context, guildID string, channelType int) ([]domain.Channel, error)
	ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error)
}

// LoginParams carries an OAuth authorization code.
type LoginParams struct {
	Code  string `json:"code"`
	IsDev bool   `json:"isDev,omitempty"`
}

// GuildParams identifies a guild.
type GuildParams struct {
	GuildID string `json:"guildId"`
}

// ChannelsParams selects a guild's channels of one type.
type ChannelsParams struct {
	GuildID     string `json:"guildId"`
	ChannelType int    `json:"channelType"`
}

// Service implements the boundary operations.
type Service struct {
	accounts  Accounts
	resources Resources
	log       *logging.Logger
}

// New creates a Service.
func New(accounts Accounts, resources Resources, log *logging.Logger) *Service {
	return &Service{accounts: accounts, resources: resources, log: log.Sub("service")}
}

// Login exchanges an authorization code and returns the user with credentials.
func (s *Service) Login(ctx context.Context, p LoginParams) (u domain.User, err error) {
	defer s.observe(OpLogin, time.Now(), &err)
	if p.Code == "" {
		return domain.User{}, apperr.Invalid("code", "is required")
	}
	return s.accounts.LoginWithCode(ctx, p.Code, p.IsDev)
}

// GetUser resolves the user behind existing credentials.
func (s *Service) GetUser(ctx context.Context, creds domain.Credentials) (u domain.User, err error) {
	defer s.observe(OpGetUser, time.Now(), &err)
	return s.accounts.GetUser(ctx, creds)
}

// GetEmojis lists a guild's custom emojis.
func (s *Service) GetEmojis(ctx context.Context, p GuildParams) (emojis []domain.Emoji, err error) {
	defer s.observe(OpGetEmojis, time.Now(), &err)
	if p.GuildID == "" {
		return nil, apperr.Invalid("guildId", "is required")
	}
	return s.resources.ListEmojis(ctx, p.GuildID)
}

// GetChannels lists a guild's channels of the requested type.
func (s *Service) GetChannels(ctx context.Context, p ChannelsParams) (channels []domain.Channel, err error) {
	defer s.observe(OpGetChannels, time.Now(), &err)
	if p.GuildID == "" {
		return nil, apperr.Invalid("guildId", "is required")
	}
	if p.ChannelType < 0 || p.ChannelType > domain.MaxChannelType {
		return nil, apperr.Invalid("channelType", fmt.Sprintf("must be between 0 and %d", domain.MaxChannelType))
	}
	return s.resources.ListChannels(ctx, p.GuildID, p.ChannelType)
}

// GetMessages fetches, filters and optionally shuffles messages across channels.
func (s *Service) GetMessages(ctx context.Context, q domain.MessageQuery) (msgs []domain.Message, err error) {
	defer s.observe(OpGetMessages, time.Now(), &err)
	if err := validateMessageQuery(q); err != nil {
		return nil, err
	}
	return s.resources.ListMessages(ctx, q)
}

func validateMessageQuery(q domain.MessageQuery) error {
	if q.GuildID == "" {
		return apperr.Invalid("guildId", "is required")
	}
	if len(q.Channels) == 0 {
		return apperr.Invalid("channels", "at least one channel is required")
	}
	for i, c := range q.Channels {
		if c.ID == "" {
			return apperr.Invalid(fmt.Sprintf("channels[%d].id", i), "is required")
		}
		if c.Limit != 0 && (c.Limit < 1 || c.Limit > discord.MaxMessageLimit) {
			return apperr.Invalid(fmt.Sprintf("channels[%d].limit", i),
				fmt.Sprintf("must be between 1 and %d", discord.MaxMessageLimit))
		}
	}
	return nil
}

// Outcome classifies an operation error for metrics.
func Outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var invalid *apperr.InvalidParams
	if errors.As(err, &invalid) {
		return metrics.OutcomeInvalid
	}
	if _, ok := apperr.As(err); ok {
		return metrics.OutcomeDomain
	}
	return metrics.OutcomeInternal
}

func (s *Service) observe(op string, start time.Time, errp *error) {
	err := *errp
	outcome := Outcome(err)
	metrics.ObserveOperation(op, outcome, start)

	ev := s.log.Debug()
	if outcome == metrics.OutcomeInternal {
		ev = s.log.Error()
	} else if outcome != metrics.OutcomeOK {
		ev = s.log.Warn()
	}
	if e, ok := apperr.As(err); ok {
		ev = ev.Str("code", string(e.Code)).AnErr("cause", e.Cause())
	} else if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("op", op).Dur("took", time.Since(start)).Str("outcome", outcome).Msg("operation finished")
}
