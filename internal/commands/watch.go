package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/probekit/backendcheck/internal/appctx"
	"github.com/probekit/backendcheck/internal/output"
)

// DefaultDebounce is how long watch waits after the last change before re-running.
const DefaultDebounce = 500 * time.Millisecond

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the checks whenever the server source or env file changes",
		Long: `Run the checks once, then again each time the server source or the
env file changes. Stops on Ctrl-C. The exit code reflects the last run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Watch(ctx, app, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", DefaultDebounce, "Quiet period after a change before re-running")

	return cmd
}

// Watch runs the checks, then re-runs them after each burst of changes to the
// watched files until ctx is done. Runs never overlap.
func Watch(ctx context.Context, app *appctx.App, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories: editors often replace files rather than write them.
	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, path := range []string{app.Config.ServerSource, app.Config.EnvFile} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			app.Logger.Warn("Not watching %s: %v", dir, err)
			continue
		}
		app.Logger.Info("Watching %s", dir)
	}

	lastErr := runForWatch(ctx, app)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return lastErr

		case ev, ok := <-watcher.Events:
			if !ok {
				return lastErr
			}
			if !files[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return lastErr
			}
			app.Logger.Warn("File watcher error: %v", err)

		case <-fire:
			fire = nil
			app.Logger.Info("Change detected, re-running checks")
			lastErr = runForWatch(ctx, app)
		}
	}
}

// runForWatch runs once. A critical verdict is already in the report; other
// errors are logged so the watch loop keeps going.
func runForWatch(ctx context.Context, app *appctx.App) error {
	_, err := runOnce(ctx, app)
	if err != nil && output.CodeOf(err) != output.CodeCritical {
		app.Logger.Error("Run failed: %v", err)
	}
	return err
}
