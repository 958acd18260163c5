// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/probekit/backendcheck/internal/api"
	"github.com/probekit/backendcheck/internal/config"
	"github.com/probekit/backendcheck/internal/history"
	"github.com/probekit/backendcheck/internal/observability"
	"github.com/probekit/backendcheck/internal/output"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config  *config.Config
	Client  *api.Client
	Output  *output.Writer
	History *history.Store

	// Observability
	Logger    *observability.Logger
	Collector *observability.Collector

	Stdout io.Writer
	Stderr io.Writer

	// Flags holds the global flag values
	Flags GlobalFlags
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Configuration flags
	ConfigFile   string
	BaseURL      string
	EnvFile      string
	ServerSource string
	Timeout      time.Duration
	NoHistory    bool

	// Output flags
	Format string
	JSON   bool
	JQ     string

	// Behavior flags
	Verbose int
	Stats   bool
}

// Overrides converts the configuration flags for config.Load.
func (f GlobalFlags) Overrides() config.FlagOverrides {
	return config.FlagOverrides{
		ConfigFile:   f.ConfigFile,
		BaseURL:      f.BaseURL,
		EnvFile:      f.EnvFile,
		ServerSource: f.ServerSource,
		Timeout:      f.Timeout,
		Format:       f.Format,
		NoHistory:    f.NoHistory,
	}
}

// NewApp creates a new App with the given configuration. stdout carries the
// report; stderr carries diagnostics.
func NewApp(cfg *config.Config, stdout, stderr io.Writer) *App {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	// Collector always runs; --stats only controls whether it is shown.
	collector := observability.NewCollector()

	return &App{
		Config:    cfg,
		Client:    api.NewClient(cfg, collector),
		History:   history.NewStore(cfg.HistoryDir, cfg.HistoryLimit),
		Collector: collector,
		Logger:    observability.NewLoggerTo(stdout),
		Output:    output.New(output.Options{Writer: stdout}),
		Stdout:    stdout,
		Stderr:    stderr,
	}
}

// ApplyFlags applies global flag values and the configured format.
func (a *App) ApplyFlags() error {
	format, err := output.ParseFormat(a.Config.Format)
	if err != nil {
		return err
	}
	if a.Flags.JSON {
		format = output.FormatJSON
	}
	a.Output = output.New(output.Options{
		Format: format,
		Writer: a.Stdout,
		JQ:     a.Flags.JQ,
	})

	// Keep stdout machine-readable when it carries JSON.
	if a.Output.EffectiveFormat() == output.FormatJSON {
		a.Logger = observability.NewLoggerTo(a.Stderr)
	}

	verboseLevel := a.Flags.Verbose
	if debugEnv := os.Getenv("BACKENDCHECK_DEBUG"); debugEnv != "" {
		if level, err := strconv.Atoi(debugEnv); err == nil {
			verboseLevel = max(verboseLevel, level)
		} else if debugEnv == "true" {
			verboseLevel = 1
		}
	}

	if verboseLevel > 0 {
		debugLogger := slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		a.Client.SetLogger(debugLogger)
	}
	return nil
}

// HistoryEnabled reports whether runs should be stored.
func (a *App) HistoryEnabled() bool {
	return a.Config.HistoryEnabled && a.History != nil
}

// Report outputs a run report, including stats if --stats is set.
func (a *App) Report(data any, sum *output.Summary, opts ...output.ResponseOption) error {
	if !a.Flags.Stats {
		return a.Output.Report(data, sum, opts...)
	}

	stats := a.Collector.Summary()
	opts = append(opts, output.WithMeta("stats", stats))
	if err := a.Output.Report(data, sum, opts...); err != nil {
		return err
	}
	if !a.isMachineOutput() {
		a.printStatsToStderr(&stats)
	}
	return nil
}

// Err outputs an error response, printing stats to stderr if --stats is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}

	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		stats := a.Collector.Summary()
		a.printStatsToStderr(&stats)
	}
	return nil
}

// isMachineOutput returns true if stdout is meant for programmatic consumption.
func (a *App) isMachineOutput() bool {
	return a.Output.EffectiveFormat() == output.FormatJSON
}

// printStatsToStderr outputs a compact stats line to stderr.
func (a *App) printStatsToStderr(stats *observability.RunMetrics) {
	if stats == nil {
		return
	}

	var parts []string

	duration := stats.EndTime.Sub(stats.StartTime)
	if duration < time.Second {
		parts = append(parts, fmt.Sprintf("%dms", duration.Milliseconds()))
	} else {
		parts = append(parts, fmt.Sprintf("%.1fs", duration.Seconds()))
	}

	if stats.TotalRequests == 1 {
		parts = append(parts, "1 request")
	} else {
		parts = append(parts, fmt.Sprintf("%d requests", stats.TotalRequests))
	}

	if stats.FailedRequests > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", stats.FailedRequests))
	}

	if stats.SlowestURL != "" {
		parts = append(parts, fmt.Sprintf("slowest %s (%dms)", stats.SlowestURL, stats.Slowest.Milliseconds()))
	}

	fmt.Fprintf(a.Stderr, "\nStats: %s\n", strings.Join(parts, " | "))
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	if ctx == nil {
		return nil
	}
	app, _ := ctx.Value(appKey).(*App)
	return app
}
