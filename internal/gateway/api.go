package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/hooks"
	"github.com/soyeahso/guildboard/internal/service"
)

const maxBodyBytes = 1 << 20

// requireAuth guards the REST API with the gateway credentials.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authLimiter.allow(r.RemoteAddr) {
			s.log.Warn().Str("remote", r.RemoteAddr).Msg("rate limited; too many failed auth attempts")
			writeEnvelope(w, Envelope{Status: http.StatusTooManyRequests, Message: "too many requests"})
			return
		}
		result := Authorize(s.auth, requestAuth(r))
		if !result.OK {
			s.authLimiter.recordFailure(r.RemoteAddr)
			s.log.Debug().Str("remote", r.RemoteAddr).Str("reason", result.Reason).Msg("api auth failed")
			s.hooks.Emit(r.Context(), hooks.EventAuthFailed, map[string]any{
				"remote":    r.RemoteAddr,
				"transport": "http",
				"reason":    result.Reason,
			})
			writeEnvelope(w, Envelope{Status: http.StatusUnauthorized, Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeBody reads a JSON request body into target.
func decodeBody(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("body", "request body is required")
		}
		return apperr.Invalid("body", "malformed JSON")
	}
	return nil
}

func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	var p service.LoginParams
	if err := decodeBody(r, &p); err != nil {
		writeEnvelope(w, newEnvelope(service.OpLogin, nil, err))
		return
	}
	user, err := s.ops.Login(r.Context(), p)
	writeEnvelope(w, newEnvelope(service.OpLogin, user, err))
}

func (s *Server) apiUser(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeEnvelope(w, newEnvelope(service.OpGetUser, nil, err))
		return
	}
	user, err := s.ops.GetUser(r.Context(), creds)
	writeEnvelope(w, newEnvelope(service.OpGetUser, user, err))
}

func (s *Server) apiEmojis(w http.ResponseWriter, r *http.Request) {
	emojis, err := s.ops.GetEmojis(r.Context(), service.GuildParams{GuildID: r.PathValue("guildId")})
	writeEnvelope(w, newEnvelope(service.OpGetEmojis, emojis, err))
}

func (s *Server) apiChannels(w http.ResponseWriter, r *http.Request) {
	p := service.ChannelsParams{GuildID: r.PathValue("guildId")}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil {
			writeEnvelope(w, newEnvelope(service.OpGetChannels, nil, apperr.Invalid("type", "must be an integer")))
			return
		}
		p.ChannelType = t
	}
	channels, err := s.ops.GetChannels(r.Context(), p)
	writeEnvelope(w, newEnvelope(service.OpGetChannels, channels, err))
}

func (s *Server) apiMessages(w http.ResponseWriter, r *http.Request) {
	var q domain.MessageQuery
	if err := decodeBody(r, &q); err != nil {
		writeEnvelope(w, newEnvelope(service.OpGetMessages, nil, err))
		return
	}
	msgs, err := s.ops.GetMessages(r.Context(), q)
	writeEnvelope(w, newEnvelope(service.OpGetMessages, msgs, err))
}
