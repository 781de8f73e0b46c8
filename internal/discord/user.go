package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/config"
	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/logging"
	"github.com/soyeahso/guildboard/internal/version"
)

// AccessLookup resolves the entitlement window for a username.
type AccessLookup interface {
	Lookup(ctx context.Context, username string) (domain.AccessWindow, error)
}

// RequesterFactory builds a REST requester authorized with the given
// "<type> <token>" header value.
type RequesterFactory func(authorization string) (Requester, error)

// Accounts resolves logged-in users: the OAuth code exchange and the user,
// guild and access lookups that follow it.
type Accounts struct {
	oauth        config.OAuthConfig
	access       AccessLookup
	newRequester RequesterFactory
	log          *logging.Logger
}

// AccountsOption configures Accounts.
type AccountsOption func(*Accounts)

// WithRequesterFactory overrides how per-user REST sessions are created.
func WithRequesterFactory(f RequesterFactory) AccountsOption {
	return func(a *Accounts) { a.newRequester = f }
}

// NewAccounts creates an account resolver.
func NewAccounts(oauth config.OAuthConfig, access AccessLookup, log *logging.Logger, opts ...AccountsOption) *Accounts {
	a := &Accounts{
		oauth:        oauth,
		access:       access,
		newRequester: newUserSession,
		log:          log.Sub("discord.accounts"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func newUserSession(authorization string) (Requester, error) {
	s, err := discordgo.New(authorization)
	if err != nil {
		return nil, err
	}
	s.UserAgent = version.UserAgent()
	return s, nil
}

// GetUser resolves the user behind creds along with their owned guilds and
// access window. The returned user carries no credentials.
func (a *Accounts) GetUser(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	if creds.AccessToken == "" || creds.TokenType == "" {
		return domain.User{}, apperr.Wrap(apperr.CodeTokenValidation, errors.New("missing access token or token type"))
	}

	r, err := a.newRequester(creds.TokenType + " " + creds.AccessToken)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.CodeTokenValidation, err)
	}

	var me wireUser
	if err := getJSON(ctx, r, "users.me", discordgo.EndpointUser("@me"), &me); err != nil {
		a.log.Warn().Err(err).Msg("fetching current user failed")
		return domain.User{}, apperr.Wrap(apperr.CodeGetUser, err)
	}

	var guilds []wireGuild
	if err := getJSON(ctx, r, "users.me.guilds", discordgo.EndpointUserGuilds("@me"), &guilds); err != nil {
		a.log.Warn().Err(err).Str("user", me.ID).Msg("fetching user guilds failed")
		return domain.User{}, apperr.Wrap(apperr.CodeGetGuilds, err)
	}

	user, err := mapUser(me, guilds)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.CodeMapUserData, err)
	}

	window, err := a.access.Lookup(ctx, user.Username)
	if err != nil {
		a.log.Error().Err(err).Str("username", user.Username).Msg("access lookup failed")
		return domain.User{}, apperr.Wrap(apperr.CodeGetAccess, err)
	}
	user.Access = window

	a.log.Debug().Str("user", user.ID).Int("ownedGuilds", len(user.Guilds)).Msg("user resolved")
	return user, nil
}

func mapUser(me wireUser, guilds []wireGuild) (domain.User, error) {
	if me.ID == "" {
		return domain.User{}, errors.New("user payload has no id")
	}
	username := me.Username
	if me.GlobalName != nil && *me.GlobalName != "" {
		username = *me.GlobalName
	}
	if username == "" {
		return domain.User{}, fmt.Errorf("user %s has no username", me.ID)
	}

	all := make([]domain.Guild, 0, len(guilds))
	for _, g := range guilds {
		if g.ID == "" {
			return domain.User{}, errors.New("guild payload has no id")
		}
		features := g.Features
		if features == nil {
			features = []string{}
		}
		all = append(all, domain.Guild{
			ID:       g.ID,
			Name:     g.Name,
			Icon:     guildIconURL(g.ID, g.Icon),
			Owner:    g.Owner,
			Features: features,
		})
	}

	return domain.User{
		ID:       me.ID,
		Username: username,
		Email:    me.Email,
		Avatar:   avatarURL(me.ID, me.Avatar),
		Guilds:   domain.OwnedGuilds(all),
	}, nil
}
