package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func resultsWith(failed ...string) *Results {
	r := NewResults()
	failing := map[string]bool{}
	for _, f := range failed {
		failing[f] = true
	}
	for _, name := range []string{
		CheckServerHealth, CheckOpenAPISchema, CheckRootEndpoint, CheckStatusEndpoints,
		CheckMissingTeams, CheckMongoDBConnection, CheckCORS, CheckBackendStructure,
	} {
		r.Add(Result{Name: name, Passed: !failing[name], Critical: IsCritical(name)})
	}
	return r
}

func TestDecide(t *testing.T) {
	declared := Discovery{AdminTeamPaths: []string{"/api/admin/teams"}}
	missing := Discovery{}

	tests := []struct {
		name      string
		results   *Results
		discovery Discovery
		expected  Verdict
		exitCode  int
	}{
		{"all pass, admin teams missing", resultsWith(), missing, VerdictFeatureMissing, 0},
		{"all pass, admin teams declared", resultsWith(), declared, VerdictAllPassed, 0},
		{"server health failed", resultsWith(CheckServerHealth), missing, VerdictCriticalFailure, 1},
		{"persistence failed with teams declared", resultsWith(CheckMongoDBConnection), declared, VerdictCriticalFailure, 1},
		{"root failed", resultsWith(CheckRootEndpoint), missing, VerdictCriticalFailure, 1},
		{"status failed", resultsWith(CheckStatusEndpoints), missing, VerdictCriticalFailure, 1},
		{"non-critical failures only", resultsWith(CheckOpenAPISchema, CheckMissingTeams), missing, VerdictFeatureMissing, 0},
		{"critical check never ran", NewResults(), declared, VerdictCriticalFailure, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Decide(tt.results, tt.discovery)
			assert.Equal(t, tt.expected, v)
			assert.Equal(t, tt.exitCode, v.ExitCode())
		})
	}
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, []string{
		"Backend infrastructure is working correctly!",
		"But team creation endpoints are missing and need to be implemented!",
	}, VerdictFeatureMissing.Headline())
	assert.Equal(t, []string{"Critical backend infrastructure issues found!"}, VerdictCriticalFailure.Headline())
	assert.Equal(t, []string{"All backend tests passed!"}, VerdictAllPassed.Headline())
}
