package gateway

import (
	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/service"
)

// registerRPCHandlers sets up all RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("discord.login", s.rpcLogin)
	s.Handle("discord.user", s.rpcUser)
	s.Handle("discord.emojis", s.rpcEmojis)
	s.Handle("discord.channels", s.rpcChannels)
	s.Handle("discord.messages", s.rpcMessages)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	h := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	}
	if s.discordState != nil {
		h.Discord = s.discordState()
	}
	rc.Respond(newEnvelope("health", h, nil))
}

// params decodes the frame params, answering with an INVALID_PARAMS
// envelope on failure.
func (rc *RequestContext) params(op string, target any) bool {
	if err := rc.Params(target); err != nil {
		rc.Respond(newEnvelope(op, nil, apperr.Invalid("params", "malformed JSON")))
		return false
	}
	return true
}

func (s *Server) rpcLogin(rc *RequestContext) {
	var p service.LoginParams
	if !rc.params(service.OpLogin, &p) {
		return
	}
	user, err := s.ops.Login(rc.Ctx, p)
	rc.Respond(newEnvelope(service.OpLogin, user, err))
}

func (s *Server) rpcUser(rc *RequestContext) {
	var creds domain.Credentials
	if !rc.params(service.OpGetUser, &creds) {
		return
	}
	user, err := s.ops.GetUser(rc.Ctx, creds)
	rc.Respond(newEnvelope(service.OpGetUser, user, err))
}

func (s *Server) rpcEmojis(rc *RequestContext) {
	var p service.GuildParams
	if !rc.params(service.OpGetEmojis, &p) {
		return
	}
	emojis, err := s.ops.GetEmojis(rc.Ctx, p)
	rc.Respond(newEnvelope(service.OpGetEmojis, emojis, err))
}

func (s *Server) rpcChannels(rc *RequestContext) {
	var p service.ChannelsParams
	if !rc.params(service.OpGetChannels, &p) {
		return
	}
	channels, err := s.ops.GetChannels(rc.Ctx, p)
	rc.Respond(newEnvelope(service.OpGetChannels, channels, err))
}

func (s *Server) rpcMessages(rc *RequestContext) {
	var q domain.MessageQuery
	if !rc.params(service.OpGetMessages, &q) {
		return
	}
	msgs, err := s.ops.GetMessages(rc.Ctx, q)
	rc.Respond(newEnvelope(service.OpGetMessages, msgs, err))
}
