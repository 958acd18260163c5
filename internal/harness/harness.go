// Package harness runs the ordered backend checks and derives the verdict.
package harness

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/probekit/backendcheck/internal/api"
	"github.com/probekit/backendcheck/internal/config"
	"github.com/probekit/backendcheck/internal/observability"
	"github.com/probekit/backendcheck/internal/output"
)

// Check names, in run order.
const (
	CheckServerHealth      = "server_health"
	CheckOpenAPISchema     = "openapi_schema"
	CheckRootEndpoint      = "root_endpoint"
	CheckStatusEndpoints   = "status_endpoints"
	CheckMissingTeams      = "missing_team_endpoints"
	CheckMongoDBConnection = "mongodb_connection"
	CheckCORS              = "cors_configuration"
	CheckBackendStructure  = "backend_structure_analysis"
)

// CriticalChecks are the checks whose failure alone fails the run.
var CriticalChecks = []string{
	CheckServerHealth,
	CheckMongoDBConnection,
	CheckRootEndpoint,
	CheckStatusEndpoints,
}

// IsCritical reports whether name is one of CriticalChecks.
func IsCritical(name string) bool {
	for _, c := range CriticalChecks {
		if c == name {
			return true
		}
	}
	return false
}

// Check is one named probe.
type Check struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) Outcome
}

// Outcome is what a check returns. A non-nil Err forces a failure.
type Outcome struct {
	Passed  bool
	Message string
	Err     error
}

func pass(format string, args ...any) Outcome {
	return Outcome{Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(err error) Outcome {
	return Outcome{Message: err.Error(), Err: err}
}

// Harness runs checks against one backend.
type Harness struct {
	cfg      *config.Config
	client   *api.Client
	log      *observability.Logger
	now      func() time.Time
	newName  func(prefix string) string
	readFile func(path string) ([]byte, error)
}

// Option configures a Harness.
type Option func(*Harness)

// WithClock replaces the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) { h.now = now }
}

// WithNameGenerator replaces the generator of unique client names.
func WithNameGenerator(fn func(prefix string) string) Option {
	return func(h *Harness) { h.newName = fn }
}

// WithFileReader replaces how the server source is read.
func WithFileReader(fn func(path string) ([]byte, error)) Option {
	return func(h *Harness) { h.readFile = fn }
}

// New creates a Harness for an already resolved configuration.
func New(cfg *config.Config, client *api.Client, logger *observability.Logger, opts ...Option) *Harness {
	h := &Harness{
		cfg:      cfg,
		client:   client,
		log:      logger,
		now:      time.Now,
		newName:  UniqueName,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UniqueName returns prefix_ followed by eight random hex digits.
func UniqueName(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + id[:8]
}

// Run executes every check in order and returns the finished report.
// It never returns early: a failing check only affects its own result.
func (h *Harness) Run(ctx context.Context) *Report {
	rep := &Report{
		Target:    h.client.BaseURL(),
		StartedAt: h.now(),
		Results:   NewResults(),
	}
	r := &run{Harness: h, report: rep}

	h.log.Info("Starting comprehensive backend test suite")
	h.log.Info("Testing against: %s", rep.Target)

	h.log.Section("Backend checks")
	for _, c := range r.checks() {
		rep.Results.Add(h.execute(ctx, c))
	}

	rep.FinishedAt = h.now()
	rep.Verdict = Decide(rep.Results, rep.Discovery)

	h.log.Section("Test results summary")
	h.log.Info("Overall result: %d/%d tests passed", rep.Results.PassedCount(), rep.Results.Count())
	return rep
}

// execute runs one check, converting errors and panics into a failed result.
func (h *Harness) execute(ctx context.Context, c Check) (res Result) {
	start := time.Now()
	res = Result{Name: c.Name, Critical: c.Critical}

	defer func() {
		res.Duration = time.Since(start)
		if p := recover(); p != nil {
			res.Passed = false
			res.Message = fmt.Sprintf("check panicked: %v", p)
			res.Code = output.CodeInternal
			h.log.Error("%s: %s", c.Name, res.Message)
		}
	}()

	out := c.Run(ctx)
	res.Passed = out.Passed && out.Err == nil
	res.Message = out.Message
	if out.Err != nil {
		res.Code = output.CodeOf(out.Err)
	}
	return res
}
