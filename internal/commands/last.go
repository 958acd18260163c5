package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/probekit/backendcheck/internal/api"
	"github.com/probekit/backendcheck/internal/appctx"
	"github.com/probekit/backendcheck/internal/history"
	"github.com/probekit/backendcheck/internal/output"
)

// NewLastCmd creates the last command.
func NewLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the most recent stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			entry, ok, err := app.History.Last()
			if err != nil {
				return output.ErrFile(app.History.Path(), err)
			}
			if !ok || entry.Report == nil || entry.Report.Results == nil {
				return errNoHistory()
			}

			sum := Summarize(entry.Report, app.Client.APIPath(api.PathAdminTeams))
			sum.Title = fmt.Sprintf("Last run (%s)", entry.Report.StartedAt.Local().Format(time.DateTime))
			return app.Output.Report(entry.Report, sum, output.WithMeta("exit_code", entry.ExitCode))
		},
	}
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			runs, err := app.History.List()
			if err != nil {
				return output.ErrFile(app.History.Path(), err)
			}
			if len(runs) == 0 {
				return errNoHistory()
			}
			return app.Output.Report(runs, historySummary(runs))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if err := app.History.Clear(); err != nil {
				return output.ErrFile(app.History.Path(), err)
			}
			return app.Output.Report(map[string]string{"cleared": app.History.Path()}, &output.Summary{
				Title: "History cleared",
				OK:    true,
			})
		},
	})

	return cmd
}

func historySummary(runs []history.Entry) *output.Summary {
	rows := make([]output.Row, 0, len(runs))
	for _, e := range runs {
		if e.Report == nil || e.Report.Results == nil {
			continue
		}
		rows = append(rows, output.Row{
			Name:    e.Report.StartedAt.Local().Format(time.DateTime),
			Passed:  e.ExitCode == output.ExitOK,
			Message: fmt.Sprintf("%s, %d/%d passed, %s", e.Report.Verdict, e.Report.Results.PassedCount(), e.Report.Results.Count(), e.Report.Target),
		})
	}
	return &output.Summary{
		Title:  "Stored runs",
		Rows:   rows,
		Totals: fmt.Sprintf("%d stored", len(rows)),
		OK:     true,
	}
}

func errNoHistory() error {
	return &output.Error{
		Code:    output.CodeNoHistory,
		Message: "No stored runs",
		Hint:    "Run `backendcheck run` first, without --no-history",
	}
}
