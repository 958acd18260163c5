package harness

import (
	"fmt"
	"net/http"
	"time"
)

// TeamProbe records the status codes seen on the admin teams path.
// Zero means the request was not made or did not complete.
type TeamProbe struct {
	GetStatus  int `json:"get_status,omitempty"`
	PostStatus int `json:"post_status,omitempty"`
}

// Report is the complete record of one run.
type Report struct {
	Target     string         `json:"target"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    *Results       `json:"results"`
	Discovery  Discovery      `json:"discovery"`
	Team       TeamProbe      `json:"team_probe"`
	Structure  *StructureScan `json:"structure,omitempty"`
	Verdict    Verdict        `json:"verdict"`
}

// ExitCode returns the process exit code for the report's verdict.
func (r *Report) ExitCode() int {
	return r.Verdict.ExitCode()
}

// FailedCritical lists critical checks that did not pass, in run order.
func (r *Report) FailedCritical() []string {
	var failed []string
	for _, res := range r.Results.All() {
		if res.Critical && !res.Passed {
			failed = append(failed, res.Name)
		}
	}
	return failed
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// TeamAnalysis describes what was observed about the admin teams routes.
func (r *Report) TeamAnalysis(apiPath string) []string {
	var lines []string
	if r.Discovery.TeamEndpointsMissing() {
		lines = append(lines, "CRITICAL ISSUE: Team creation endpoints are NOT implemented")
	} else {
		lines = append(lines, "Team endpoints are declared in the OpenAPI schema")
	}

	lines = append(lines,
		probeLine(http.MethodPost, apiPath, r.Team.PostStatus),
		probeLine(http.MethodGet, apiPath, r.Team.GetStatus),
	)

	if n := len(r.Discovery.AdminTeamPaths); n == 0 {
		lines = append(lines, "No team endpoints found in OpenAPI schema")
	} else {
		lines = append(lines, fmt.Sprintf("%d admin team endpoints found in OpenAPI schema", n))
	}

	switch {
	case r.Structure == nil:
		lines = append(lines, "Server source was not analyzed")
	case r.Structure.HasAdminTeamsPath:
		lines = append(lines, "Team routes are referenced in server source")
	default:
		lines = append(lines, "No team-related code found in server source")
	}
	return lines
}

func probeLine(method, path string, status int) string {
	switch status {
	case 0:
		return fmt.Sprintf("%s %s was not probed", method, path)
	case http.StatusNotFound:
		return fmt.Sprintf("%s %s returns 404 (not found)", method, path)
	default:
		return fmt.Sprintf("%s %s returns %d", method, path, status)
	}
}

// RequiredFixes lists the work needed when admin team endpoints are missing.
// It is empty otherwise.
func (r *Report) RequiredFixes(apiPath string) []string {
	if !r.Discovery.TeamEndpointsMissing() {
		return nil
	}
	return []string{
		"1. Add team data models (Team, TeamCreate, etc.)",
		"2. Implement " + http.MethodPost + " " + apiPath + " endpoint",
		"3. Implement " + http.MethodGet + " " + apiPath + " endpoint",
		"4. Add team endpoints to API router",
		"5. Add MongoDB collection for teams",
		"6. Test frontend integration after backend fixes",
	}
}
