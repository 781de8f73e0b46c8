package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/config"
)

func tokenServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *url.Values) {
	t.Helper()
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &form
}

func oauthCfg(tokenURL string) config.OAuthConfig {
	return config.OAuthConfig{
		ClientID:       "client-1",
		ClientSecret:   "shh",
		RedirectURI:    "https://board.example.com/callback",
		DevRedirectURI: "http://localhost:5173/callback",
		TokenURL:       tokenURL,
		Scopes:         []string{"identify", "guilds"},
	}
}

func grantJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"token_type":    "Bearer",
		"expires_in":    604800,
		"scope":         "identify guilds",
	})
}

func TestLoginWithCode(t *testing.T) {
	srv, form := tokenServer(t, grantJSON)

	r := newFakeRequester()
	userRoutes(t, r)
	a := NewAccounts(oauthCfg(srv.URL), &fakeAccess{}, testLogger(),
		WithRequesterFactory(func(authorization string) (Requester, error) {
			r.lastAuth = authorization
			return r, nil
		}))

	u, err := a.LoginWithCode(context.Background(), "the-code", false)
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "https://board.example.com/callback", form.Get("redirect_uri"))
	assert.Equal(t, "client-1", form.Get("client_id"))
	assert.Equal(t, "shh", form.Get("client_secret"))

	assert.Equal(t, "Bearer access-1", r.lastAuth)
	assert.Equal(t, "u1", u.ID)
	require.NotNil(t, u.Credentials)
	assert.Equal(t, "access-1", u.Credentials.AccessToken)
	assert.Equal(t, "refresh-1", u.Credentials.RefreshToken)
	assert.Equal(t, "Bearer", u.Credentials.TokenType)
	assert.Equal(t, int64(604800), u.Credentials.ExpiresIn)
	assert.Equal(t, "identify guilds", u.Credentials.Scope)
}

func TestLoginWithCode_DevRedirect(t *testing.T) {
	srv, form := tokenServer(t, grantJSON)

	r := newFakeRequester()
	userRoutes(t, r)
	a := accountsWith(r, &fakeAccess{})
	a.oauth = oauthCfg(srv.URL)

	_, err := a.LoginWithCode(context.Background(), "the-code", true)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/callback", form.Get("redirect_uri"))
}

func TestLoginWithCode_ExchangeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "error body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid code"}`))
			},
		},
		{
			name: "non-JSON body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>upstream down</html>"))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := tokenServer(t, tt.handler)
			r := newFakeRequester()
			a := accountsWith(r, &fakeAccess{})
			a.oauth = oauthCfg(srv.URL)

			_, err := a.LoginWithCode(context.Background(), "bad-code", false)
			require.Error(t, err)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.CodeGetCreds, e.Code)
			assert.Equal(t, 0, r.callCount(), "no user lookups after a failed exchange")
		})
	}
}

func TestLoginWithCode_UserStageErrorPropagates(t *testing.T) {
	srv, _ := tokenServer(t, grantJSON)
	r := newFakeRequester()
	r.fail(discordgo.EndpointUser("@me"), assert.AnError)
	a := accountsWith(r, &fakeAccess{})
	a.oauth = oauthCfg(srv.URL)

	_, err := a.LoginWithCode(context.Background(), "code", false)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeGetUser, e.Code)
}
