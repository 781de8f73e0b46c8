package discord

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/domain"
)

// LoginWithCode exchanges an OAuth authorization code for credentials and
// resolves the user they belong to. isDev selects the development redirect
// URI, which must match the one used to obtain the code.
func (a *Accounts) LoginWithCode(ctx context.Context, code string, isDev bool) (domain.User, error) {
	creds, err := a.exchange(ctx, code, isDev)
	if err != nil {
		a.log.Warn().Err(err).Bool("dev", isDev).Msg("code exchange failed")
		return domain.User{}, apperr.Wrap(apperr.CodeGetCreds, err)
	}

	user, err := a.GetUser(ctx, creds)
	if err != nil {
		return domain.User{}, err
	}
	user.Credentials = &creds

	a.log.Info().Str("user", user.ID).Msg("login completed")
	return user, nil
}

func (a *Accounts) oauthConfig(isDev bool) *oauth2.Config {
	redirect := a.oauth.RedirectURI
	if isDev {
		redirect = a.oauth.DevRedirectURI
	}
	return &oauth2.Config{
		ClientID:     a.oauth.ClientID,
		ClientSecret: a.oauth.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       a.oauth.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.oauth.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (a *Accounts) exchange(ctx context.Context, code string, isDev bool) (domain.Credentials, error) {
	tok, err := a.oauthConfig(isDev).Exchange(ctx, code)
	if err != nil {
		return domain.Credentials{}, err
	}

	creds := domain.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ExpiresIn:    tok.ExpiresIn,
	}
	if creds.ExpiresIn == 0 {
		if v, ok := tok.Extra("expires_in").(float64); ok {
			creds.ExpiresIn = int64(v)
		}
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		creds.Scope = scope
	}
	return creds, nil
}
