package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".guildboard"

// Paths holds resolved filesystem paths for guildboard data.
type Paths struct {
	Base   string // ~/.guildboard
	Config string // ~/.guildboard/config.yaml
	Logs   string // ~/.guildboard/logs
	Data   string // ~/.guildboard/data
}

// ResolvePaths computes all standard paths from the home directory.
// If GUILDBOARD_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("GUILDBOARD_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Logs:   filepath.Join(base, "logs"),
		Data:   filepath.Join(base, "data"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// DBPath returns the access store location for cfg.
func (p Paths) DBPath(cfg StoreConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(p.Data, "guildboard.db")
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Redacted returns a copy of cfg with secrets masked, for display.
func Redacted(cfg Config) Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	cfg.Gateway.Auth.Token = mask(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = mask(cfg.Gateway.Auth.Password)
	cfg.Discord.BotToken = mask(cfg.Discord.BotToken)
	cfg.OAuth.ClientSecret = mask(cfg.OAuth.ClientSecret)
	return cfg
}
