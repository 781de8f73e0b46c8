package config

import "fmt"

// DefaultShuffleSeed is used when no seed is configured.
const DefaultShuffleSeed uint64 = 0x5eed_b1a6_0b0a_4d21

// DefaultTokenURL is Discord's OAuth2 token endpoint.
const DefaultTokenURL = "https://discord.com/api/oauth2/token"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Discord: DiscordConfig{
			ReadyTimeoutSeconds: 30,
			RequestsPerSecond:   5,
			Burst:               5,
		},
		OAuth: OAuthConfig{
			TokenURL: DefaultTokenURL,
			Scopes:   []string{"identify", "email", "guilds"},
		},
		Shuffle: ShuffleConfig{
			Seed: DefaultShuffleSeed,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
