package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/soyeahso/guildboard/internal/config"
	"github.com/soyeahso/guildboard/internal/store"
	"github.com/soyeahso/guildboard/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show guildboard status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "guildboard %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:  not found (using defaults)")
			}
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway: port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode, cfg.Gateway.TLS.Enabled)
			fmt.Fprintf(out, "Store:   %s\n", storeSummary(cmd.Context(), paths.DBPath(cfg.Store)))

			bot := "configured"
			if cfg.Discord.BotToken == "" {
				bot = "missing"
			}
			fmt.Fprintf(out, "Discord: bot token %s, %.1f req/s burst %d\n",
				bot, cfg.Discord.RequestsPerSecond, cfg.Discord.Burst)

			oauth := "configured"
			if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
				oauth = "incomplete"
			}
			fmt.Fprintf(out, "OAuth:   %s (redirect %s)\n", oauth, cfg.OAuth.RedirectURI)

			fmt.Fprintf(out, "Server:  %s\n", probeHealth(cmd.Context(), cfg.Gateway))

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

// storeSummary reports the database path and schema version without
// creating a database that does not exist yet.
func storeSummary(ctx context.Context, path string) string {
	if _, err := os.Stat(path); err != nil {
		return path + " (not created)"
	}
	db, err := store.Open(path, log)
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", path, err)
	}
	defer db.Close()
	v, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", path, err)
	}
	return fmt.Sprintf("%s (schema v%d)", path, v)
}

// probeHealth asks a locally running server for its public health status.
func probeHealth(ctx context.Context, gw config.GatewayConfig) string {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	scheme := "http"
	if gw.TLS.Enabled {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://127.0.0.1:%d/health", scheme, gw.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "unknown (" + err.Error() + ")"
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "not running"
	}
	defer resp.Body.Close()

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("unhealthy (HTTP %d)", resp.StatusCode)
	}
	return health.Status + " at " + url
}
