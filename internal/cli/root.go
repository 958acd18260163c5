// Package cli wires the root command, global flags, and exit codes.
package cli

import (
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/probekit/backendcheck/internal/appctx"
	"github.com/probekit/backendcheck/internal/commands"
	"github.com/probekit/backendcheck/internal/config"
	"github.com/probekit/backendcheck/internal/output"
	"github.com/probekit/backendcheck/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:   "backendcheck",
		Short: "Integration checks for the status and team API backend",
		Long: `backendcheck probes a running backend over HTTP: docs, OpenAPI schema,
API root, status CRUD, the admin team routes, persistence, and CORS. It also
scans the server source. Without a subcommand it runs the checks once.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          commands.RunChecks,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(flags.Overrides())
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			app.Flags = flags
			if err := app.ApplyFlags(); err != nil {
				return err
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.SetVersionTemplate(version.Full() + "\n")

	// Allow flags anywhere in the command line; --base_url works like --base-url
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)
	cmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// Target flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "YAML config file")
	pf.StringVar(&flags.BaseURL, "base-url", "", "Backend base URL (overrides the env file)")
	pf.StringVar(&flags.EnvFile, "env-file", "", "File holding the backend URL as KEY=VALUE")
	pf.StringVar(&flags.ServerSource, "server-source", "", "Server source file for the structure scan")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "Per-request timeout (default 10s)")
	pf.BoolVar(&flags.NoHistory, "no-history", false, "Do not store this run")

	// Output flags
	pf.StringVar(&flags.Format, "format", "", "Output format: auto, json, styled, plain")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	pf.StringVar(&flags.JQ, "jq", "", "Apply a jq expression to the JSON output")

	// Behavior flags
	pf.CountVarP(&flags.Verbose, "verbose", "v", "Log each HTTP request to stderr")
	pf.BoolVar(&flags.Stats, "stats", false, "Show request statistics")

	return cmd
}

// Execute runs the root command and exits with its exit code.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(commands.NewRunCmd())
	cmd.AddCommand(commands.NewWatchCmd())
	cmd.AddCommand(commands.NewLastCmd())
	cmd.AddCommand(commands.NewHistoryCmd())
	cmd.AddCommand(commands.NewConfigCmd())

	// Use ExecuteC to get the executed command (for correct context access)
	executedCmd, err := cmd.ExecuteContextC(ctx)
	if err == nil {
		return output.ExitOK
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	// The report already carries the critical verdict.
	if apiErr.Code == output.CodeCritical {
		return apiErr.ExitCode()
	}

	if app := appctx.FromContext(executedCmd.Context()); app != nil {
		_ = app.Err(err)
		return apiErr.ExitCode()
	}

	// App not available, e.g. a bad flag or config: render by the raw flags.
	format := output.FormatAuto
	if jsonFlag, _ := cmd.PersistentFlags().GetBool("json"); jsonFlag {
		format = output.FormatJSON
	}
	writer := output.New(output.Options{Format: format, Writer: stderr})
	_ = writer.Err(err)

	return apiErr.ExitCode()
}

var shorthandRE = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)

// transformCobraError turns cobra's parse errors into usage errors.
func transformCobraError(err error) error {
	msg := err.Error()

	if strings.HasPrefix(msg, "flag needs an argument: ") {
		flag := strings.TrimPrefix(msg, "flag needs an argument: ")
		return output.ErrUsage(flag + " requires a value")
	}

	if strings.HasPrefix(msg, "unknown flag: ") {
		flag := strings.TrimPrefix(msg, "unknown flag: ")
		return output.ErrUsage("Unknown option: " + flag)
	}

	if strings.HasPrefix(msg, "unknown shorthand flag: ") {
		if matches := shorthandRE.FindStringSubmatch(msg); len(matches) > 1 {
			return output.ErrUsage("Unknown option: " + matches[1])
		}
	}

	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(msg, "Run 'backendcheck --help' for usage")
	}

	if strings.Contains(msg, "invalid argument") || strings.Contains(msg, "accepts 0 arg(s)") {
		return output.ErrUsage(msg)
	}

	return err
}
