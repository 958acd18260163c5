package appctx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probekit/backendcheck/internal/config"
	"github.com/probekit/backendcheck/internal/observability"
	"github.com/probekit/backendcheck/internal/output"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("BACKENDCHECK_DEBUG", "")
	cfg := config.Default()
	cfg.HistoryDir = t.TempDir()

	var stdout, stderr bytes.Buffer
	return NewApp(cfg, &stdout, &stderr), &stdout, &stderr
}

func TestNewApp(t *testing.T) {
	app, _, _ := newTestApp(t)

	assert.NotNil(t, app.Client)
	assert.NotNil(t, app.Output)
	assert.NotNil(t, app.Logger)
	assert.NotNil(t, app.Collector)
	require.NotNil(t, app.History)
	assert.Equal(t, app.Config.HistoryDir, app.History.Dir())
	assert.True(t, app.HistoryEnabled())
}

func TestWithAppAndFromContext(t *testing.T) {
	app, _, _ := newTestApp(t)

	ctx := WithApp(context.Background(), app)
	assert.Same(t, app, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestApplyFlagsFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		json     bool
		jq       string
		expected output.Format
	}{
		{"auto on a buffer", "auto", false, "", output.FormatPlain},
		{"configured json", "json", false, "", output.FormatJSON},
		{"styled", "styled", false, "", output.FormatStyled},
		{"json flag wins", "styled", true, "", output.FormatJSON},
		{"jq implies json", "plain", false, ".ok", output.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApp(t)
			app.Config.Format = tt.format
			app.Flags.JSON = tt.json
			app.Flags.JQ = tt.jq

			require.NoError(t, app.ApplyFlags())
			assert.Equal(t, tt.expected, app.Output.EffectiveFormat())
		})
	}
}

func TestApplyFlagsRejectsUnknownFormat(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Config.Format = "xml"

	err := app.ApplyFlags()
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.CodeOf(err))
}

func TestJSONModeMovesProgressToStderr(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	app.Flags.JSON = true
	require.NoError(t, app.ApplyFlags())

	app.Logger.Info("hello")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "INFO: hello")
}

func TestTextModeKeepsProgressOnStdout(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	require.NoError(t, app.ApplyFlags())

	app.Logger.Info("hello")

	assert.Contains(t, stdout.String(), "INFO: hello")
	assert.Empty(t, stderr.String())
}

func TestReportWithStats(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	app.Flags.JSON = true
	app.Flags.Stats = true
	require.NoError(t, app.ApplyFlags())

	app.Collector.RecordRequest(observability.RequestMetrics{Method: "GET", URL: "http://x/docs", StatusCode: 200, Duration: time.Millisecond})
	require.NoError(t, app.Report(map[string]string{"k": "v"}, &output.Summary{OK: true}))

	var resp struct {
		Meta struct {
			Stats observability.RunMetrics `json:"stats"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, 1, resp.Meta.Stats.TotalRequests)
}

func TestStatsLineOnStderrForText(t *testing.T) {
	app, _, stderr := newTestApp(t)
	app.Flags.Stats = true
	require.NoError(t, app.ApplyFlags())

	app.Collector.RecordRequest(observability.RequestMetrics{Method: "GET", URL: "http://x/docs", Duration: 2 * time.Millisecond})
	app.Collector.RecordRequest(observability.RequestMetrics{Method: "GET", URL: "http://x/api/", Error: assert.AnError})
	require.NoError(t, app.Report(nil, &output.Summary{OK: true}))

	line := stderr.String()
	assert.Contains(t, line, "Stats: ")
	assert.Contains(t, line, "2 requests")
	assert.Contains(t, line, "1 failed")
	assert.Contains(t, line, "slowest GET http://x/docs")
}

func TestErrWithoutStats(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	require.NoError(t, app.ApplyFlags())

	require.NoError(t, app.Err(output.ErrUsage("bad")))

	assert.Equal(t, "Error: bad\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestOverrides(t *testing.T) {
	f := GlobalFlags{BaseURL: "localhost:8001", Timeout: 3 * time.Second, NoHistory: true, Format: "json"}
	o := f.Overrides()

	assert.Equal(t, "localhost:8001", o.BaseURL)
	assert.Equal(t, 3*time.Second, o.Timeout)
	assert.True(t, o.NoHistory)
	assert.Equal(t, "json", o.Format)
}
