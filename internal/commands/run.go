// Package commands implements the CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/probekit/backendcheck/internal/api"
	"github.com/probekit/backendcheck/internal/appctx"
	"github.com/probekit/backendcheck/internal/harness"
	"github.com/probekit/backendcheck/internal/output"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the backend checks once",
		Long: `Run every backend check in order and print a pass/fail report.

Checks:
  server_health               GET /docs answers 200
  openapi_schema              GET /openapi.json decodes; lists team endpoints
  root_endpoint               GET /api/ answers 200 with a JSON body
  status_endpoints            GET and POST /api/status work
  missing_team_endpoints      GET and POST /api/admin/teams answer 404
  mongodb_connection          a created status record is listed afterwards
  cors_configuration          CORS headers on /api/ (never fails)
  backend_structure_analysis  scan of the server source (never fails)

Exit code is 1 when server_health, mongodb_connection, root_endpoint or
status_endpoints failed, and 0 otherwise.`,
		Args: cobra.NoArgs,
		RunE: RunChecks,
	}
}

// RunChecks is the RunE of both the root and the run command.
func RunChecks(cmd *cobra.Command, _ []string) error {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	_, err := runOnce(cmd.Context(), app)
	return err
}

// runOnce runs the harness, stores and prints the report, and returns
// ErrCritical when the verdict is a critical failure.
func runOnce(ctx context.Context, app *appctx.App) (*harness.Report, error) {
	app.Collector.Reset()

	rep := harness.New(app.Config, app.Client, app.Logger).Run(ctx)

	if app.HistoryEnabled() {
		if err := app.History.Append(rep); err != nil {
			app.Logger.Warn("Could not store run history: %v", err)
		}
	}

	if err := app.Report(rep, Summarize(rep, app.Client.APIPath(api.PathAdminTeams))); err != nil {
		return rep, err
	}

	if rep.Verdict == harness.VerdictCriticalFailure {
		return rep, output.ErrCritical(rep.FailedCritical())
	}
	return rep, nil
}
