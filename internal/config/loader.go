package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields lets tokens and secrets be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
	cfg.Discord.BotToken = expandEnvVars(cfg.Discord.BotToken)
	cfg.OAuth.ClientID = expandEnvVars(cfg.OAuth.ClientID)
	cfg.OAuth.ClientSecret = expandEnvVars(cfg.OAuth.ClientSecret)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// applyDefaults fills zero-value fields left empty by the file.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = d.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = d.Gateway.Bind
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = d.Gateway.Auth.Mode
	}
	if cfg.Discord.ReadyTimeoutSeconds == 0 {
		cfg.Discord.ReadyTimeoutSeconds = d.Discord.ReadyTimeoutSeconds
	}
	if cfg.Discord.RequestsPerSecond == 0 {
		cfg.Discord.RequestsPerSecond = d.Discord.RequestsPerSecond
	}
	if cfg.Discord.Burst == 0 {
		cfg.Discord.Burst = d.Discord.Burst
	}
	if cfg.OAuth.TokenURL == "" {
		cfg.OAuth.TokenURL = d.OAuth.TokenURL
	}
	if len(cfg.OAuth.Scopes) == 0 {
		cfg.OAuth.Scopes = d.OAuth.Scopes
	}
	if cfg.Shuffle.Seed == 0 {
		cfg.Shuffle.Seed = d.Shuffle.Seed
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides reads GUILDBOARD_* and the conventional DISCORD_*
// environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GUILDBOARD_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("GUILDBOARD_GATEWAY_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("GUILDBOARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("GUILDBOARD_SHUFFLE_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 0, 64); err == nil {
			cfg.Shuffle.Seed = seed
		}
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" && cfg.Discord.BotToken == "" {
		cfg.Discord.BotToken = v
	}
	if v := os.Getenv("DISCORD_CLIENT_ID"); v != "" && cfg.OAuth.ClientID == "" {
		cfg.OAuth.ClientID = v
	}
	if v := os.Getenv("DISCORD_CLIENT_SECRET"); v != "" && cfg.OAuth.ClientSecret == "" {
		cfg.OAuth.ClientSecret = v
	}
}
