package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/logging"
	"github.com/soyeahso/guildboard/internal/metrics"
)

type stubAccounts struct {
	user      domain.User
	err       error
	gotCode   string
	gotDev    bool
	gotCreds  domain.Credentials
	callCount int
}

func (s *stubAccounts) LoginWithCode(_ context.Context, code string, isDev bool) (domain.User, error) {
	s.callCount++
	s.gotCode, s.gotDev = code, isDev
	return s.user, s.err
}

func (s *stubAccounts) GetUser(_ context.Context, creds domain.Credentials) (domain.User, error) {
	s.callCount++
	s.gotCreds = creds
	return s.user, s.err
}

type stubResources struct {
	emojis    []domain.Emoji
	channels  []domain.Channel
	messages  []domain.Message
	err       error
	gotType   int
	gotQuery  domain.MessageQuery
	callCount int
}

func (s *stubResources) ListEmojis(context.Context, string) ([]domain.Emoji, error) {
	s.callCount++
	return s.emojis, s.err
}

func (s *stubResources) ListChannels(_ context.Context, _ string, channelType int) ([]domain.Channel, error) {
	s.callCount++
	s.gotType = channelType
	return s.channels, s.err
}

func (s *stubResources) ListMessages(_ context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	s.callCount++
	s.gotQuery = q
	return s.messages, s.err
}

func newTestService(a *stubAccounts, r *stubResources) *Service {
	return New(a, r, logging.New(nil, "silent"))
}

func requireInvalid(t *testing.T, err error, field string) {
	t.Helper()
	var invalid *apperr.InvalidParams
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, field, invalid.Field)
}

// --- Login tests ---

func TestLogin(t *testing.T) {
	a := &stubAccounts{user: domain.User{ID: "u1"}}
	s := newTestService(a, &stubResources{})

	u, err := s.Login(context.Background(), LoginParams{Code: "abc", IsDev: true})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "abc", a.gotCode)
	assert.True(t, a.gotDev)
}

func TestLogin_RequiresCode(t *testing.T) {
	a := &stubAccounts{}
	_, err := newTestService(a, &stubResources{}).Login(context.Background(), LoginParams{})
	requireInvalid(t, err, "code")
	assert.Equal(t, 0, a.callCount)
}

func TestGetUser_PassesDomainErrorThrough(t *testing.T) {
	a := &stubAccounts{err: apperr.Wrap(apperr.CodeTokenValidation, errors.New("no token"))}
	_, err := newTestService(a, &stubResources{}).GetUser(context.Background(), domain.Credentials{})

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeTokenValidation, e.Code)
}

// --- Resource tests ---

func TestGetEmojis(t *testing.T) {
	r := &stubResources{emojis: []domain.Emoji{{ID: "1", Name: "pog"}}}
	s := newTestService(&stubAccounts{}, r)

	emojis, err := s.GetEmojis(context.Background(), GuildParams{GuildID: "g1"})
	require.NoError(t, err)
	assert.Len(t, emojis, 1)

	_, err = s.GetEmojis(context.Background(), GuildParams{})
	requireInvalid(t, err, "guildId")
	assert.Equal(t, 1, r.callCount)
}

func TestGetChannels_TypeRange(t *testing.T) {
	r := &stubResources{}
	s := newTestService(&stubAccounts{}, r)

	for _, ct := range []int{0, 5, domain.MaxChannelType} {
		_, err := s.GetChannels(context.Background(), ChannelsParams{GuildID: "g1", ChannelType: ct})
		require.NoError(t, err)
		assert.Equal(t, ct, r.gotType)
	}

	for _, ct := range []int{-1, domain.MaxChannelType + 1} {
		_, err := s.GetChannels(context.Background(), ChannelsParams{GuildID: "g1", ChannelType: ct})
		requireInvalid(t, err, "channelType")
	}

	_, err := s.GetChannels(context.Background(), ChannelsParams{ChannelType: 0})
	requireInvalid(t, err, "guildId")
	assert.Equal(t, 3, r.callCount)
}

func TestGetMessages_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query domain.MessageQuery
		field string
	}{
		{"missing guild", domain.MessageQuery{Channels: []domain.ChannelQuery{{ID: "c1"}}}, "guildId"},
		{"no channels", domain.MessageQuery{GuildID: "g1"}, "channels"},
		{"channel without id", domain.MessageQuery{GuildID: "g1", Channels: []domain.ChannelQuery{{ID: "c1"}, {}}}, "channels[1].id"},
		{"limit too large", domain.MessageQuery{GuildID: "g1", Channels: []domain.ChannelQuery{{ID: "c1", Limit: 1001}}}, "channels[0].limit"},
		{"negative limit", domain.MessageQuery{GuildID: "g1", Channels: []domain.ChannelQuery{{ID: "c1", Limit: -5}}}, "channels[0].limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubResources{}
			_, err := newTestService(&stubAccounts{}, r).GetMessages(context.Background(), tt.query)
			requireInvalid(t, err, tt.field)
			assert.Equal(t, 0, r.callCount)
		})
	}
}

func TestGetMessages(t *testing.T) {
	r := &stubResources{messages: []domain.Message{{ID: "m1"}}}
	q := domain.MessageQuery{GuildID: "g1", Shuffle: true, Channels: []domain.ChannelQuery{{ID: "c1", Limit: 1000}}}

	msgs, err := newTestService(&stubAccounts{}, r).GetMessages(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, q, r.gotQuery)
}

// --- Outcome and metrics tests ---

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, Outcome(nil))
	assert.Equal(t, metrics.OutcomeInvalid, Outcome(apperr.Invalid("x", "bad")))
	assert.Equal(t, metrics.OutcomeDomain, Outcome(apperr.Wrap(apperr.CodeGetEmojis, errors.New("x"))))
	assert.Equal(t, metrics.OutcomeInternal, Outcome(errors.New("x")))
}

func TestOperationsAreCounted(t *testing.T) {
	r := &stubResources{err: apperr.Wrap(apperr.CodeGetEmojis, errors.New("x"))}
	s := newTestService(&stubAccounts{}, r)

	counter := metrics.Operations.WithLabelValues(OpGetEmojis, metrics.OutcomeDomain)
	before := testutil.ToFloat64(counter)
	_, _ = s.GetEmojis(context.Background(), GuildParams{GuildID: "g1"})
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestFallbackMessage(t *testing.T) {
	assert.Equal(t, "Unexpected error getting messages", FallbackMessage(OpGetMessages))
	assert.Equal(t, "Unexpected error", FallbackMessage("other"))
}
