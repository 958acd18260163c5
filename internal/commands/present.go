package commands

import (
	"fmt"

	"github.com/probekit/backendcheck/internal/harness"
	"github.com/probekit/backendcheck/internal/output"
)

// Summarize converts a report into the text view. teamsPath is the admin
// teams path as probed, used in the findings.
func Summarize(rep *harness.Report, teamsPath string) *output.Summary {
	rows := make([]output.Row, 0, rep.Results.Count())
	for _, res := range rep.Results.All() {
		rows = append(rows, output.Row{
			Name:     res.Name,
			Passed:   res.Passed,
			Critical: res.Critical,
			Message:  res.Message,
		})
	}

	sections := []output.Section{{
		Title: "Team endpoint analysis",
		Lines: rep.TeamAnalysis(teamsPath),
	}}
	if fixes := rep.RequiredFixes(teamsPath); len(fixes) > 0 {
		sections = append(sections, output.Section{Title: "Required fixes", Lines: fixes})
	}

	return &output.Summary{
		Title:    "Test results summary",
		Target:   rep.Target,
		Rows:     rows,
		Totals:   fmt.Sprintf("Overall result: %d/%d tests passed", rep.Results.PassedCount(), rep.Results.Count()),
		Sections: sections,
		Headline: rep.Verdict.Headline(),
		OK:       rep.Verdict != harness.VerdictCriticalFailure,
		Partial:  rep.Verdict == harness.VerdictFeatureMissing,
	}
}
