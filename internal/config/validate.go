package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}

	validAuthModes := []string{"none", "token", "password"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		add("gateway.auth.mode", "must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode)
	}
	if cfg.Gateway.Auth.Mode == "none" && cfg.Gateway.Bind != "" && cfg.Gateway.Bind != "loopback" {
		add("gateway.auth.mode", "none is only allowed with bind loopback")
	}

	if cfg.Gateway.TLS.Enabled {
		if cfg.Gateway.TLS.CertPath == "" {
			add("gateway.tls.certPath", "required when TLS is enabled")
		}
		if cfg.Gateway.TLS.KeyPath == "" {
			add("gateway.tls.keyPath", "required when TLS is enabled")
		}
	}

	// Discord validation
	if cfg.Discord.ReadyTimeoutSeconds < 0 {
		add("discord.readyTimeoutSeconds", "must not be negative, got %d", cfg.Discord.ReadyTimeoutSeconds)
	}
	if cfg.Discord.RequestsPerSecond < 0 {
		add("discord.requestsPerSecond", "must not be negative, got %v", cfg.Discord.RequestsPerSecond)
	}
	if cfg.Discord.Burst < 0 {
		add("discord.burst", "must not be negative, got %d", cfg.Discord.Burst)
	}

	// OAuth validation
	for path, raw := range map[string]string{
		"oauth.redirectUri":    cfg.OAuth.RedirectURI,
		"oauth.devRedirectUri": cfg.OAuth.DevRedirectURI,
		"oauth.tokenUrl":       cfg.OAuth.TokenURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			add(path, "must be an absolute URL, got %q", raw)
		}
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	slices.SortStableFunc(issues, func(a, b ValidationIssue) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return issues
}
