package config

// Config is the root configuration for guildboard.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Discord DiscordConfig `yaml:"discord,omitempty"`
	OAuth   OAuthConfig   `yaml:"oauth,omitempty"`
	Shuffle ShuffleConfig `yaml:"shuffle,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP/WebSocket API server.
type GatewayConfig struct {
	Port           int              `yaml:"port,omitempty"`
	Bind           string           `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string           `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth      `yaml:"auth,omitempty"`
	TLS            GatewayTLS       `yaml:"tls,omitempty"`
	ControlUI      GatewayControlUI `yaml:"controlUi,omitempty"`
}

// GatewayAuth configures API authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "none" | "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// GatewayControlUI lists the browser origins allowed to call the API.
type GatewayControlUI struct {
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// DiscordConfig configures the bot session and REST pacing.
type DiscordConfig struct {
	BotToken            string  `yaml:"botToken,omitempty"`
	ReadyTimeoutSeconds int     `yaml:"readyTimeoutSeconds,omitempty"`
	RequestsPerSecond   float64 `yaml:"requestsPerSecond,omitempty"`
	Burst               int     `yaml:"burst,omitempty"`
}

// OAuthConfig configures the authorization-code exchange.
type OAuthConfig struct {
	ClientID       string   `yaml:"clientId,omitempty"`
	ClientSecret   string   `yaml:"clientSecret,omitempty"`
	RedirectURI    string   `yaml:"redirectUri,omitempty"`
	DevRedirectURI string   `yaml:"devRedirectUri,omitempty"`
	TokenURL       string   `yaml:"tokenUrl,omitempty"`
	Scopes         []string `yaml:"scopes,omitempty"`
}

// ShuffleConfig holds the seed for deterministic message shuffling.
type ShuffleConfig struct {
	Seed uint64 `yaml:"seed,omitempty"`
}

// StoreConfig locates the access window database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // empty means <data dir>/guildboard.db
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
