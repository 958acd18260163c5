package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probekit/backendcheck/internal/appctx"
	"github.com/probekit/backendcheck/internal/config"
	"github.com/probekit/backendcheck/internal/output"
)

// ConfigValue is one resolved setting.
type ConfigValue struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Long: `Show the resolved configuration and where each value came from.

Precedence, highest first:
  flags > BACKENDCHECK_* env > env file lookup > --config file > global file > defaults

The global file is $XDG_CONFIG_HOME/backendcheck/config.yaml. The env file
lookup only supplies base_url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			values := resolvedValues(app.Config)
			lines := make([]string, 0, len(values))
			for _, v := range values {
				lines = append(lines, fmt.Sprintf("%-15s %s (%s)", v.Key, v.Value, v.Source))
			}

			return app.Output.Report(values, &output.Summary{
				Title:    "Effective configuration",
				Sections: []output.Section{{Lines: lines}},
				OK:       true,
			})
		},
	}
}

func resolvedValues(cfg *config.Config) []ConfigValue {
	entries := []struct{ key, value string }{
		{"base_url", cfg.BaseURL},
		{"api_prefix", cfg.APIPrefix},
		{"env_file", cfg.EnvFile},
		{"env_key", cfg.EnvKey},
		{"server_source", cfg.ServerSource},
		{"timeout", cfg.Timeout.String()},
		{"health_timeout", cfg.HealthTimeout.String()},
		{"history_dir", cfg.HistoryDir},
		{"history_enabled", strconv.FormatBool(cfg.HistoryEnabled)},
		{"history_limit", strconv.Itoa(cfg.HistoryLimit)},
		{"format", cfg.Format},
	}

	values := make([]ConfigValue, 0, len(entries))
	for _, e := range entries {
		values = append(values, ConfigValue{Key: e.key, Value: e.value, Source: cfg.SourceOf(e.key)})
	}
	return values
}
