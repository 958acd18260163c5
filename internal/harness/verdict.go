package harness

import "github.com/probekit/backendcheck/internal/output"

// Verdict is the overall outcome of a run.
type Verdict string

const (
	// VerdictFeatureMissing: infrastructure healthy, admin team endpoints absent.
	VerdictFeatureMissing Verdict = "feature_missing"
	// VerdictCriticalFailure: at least one critical check failed.
	VerdictCriticalFailure Verdict = "critical_failure"
	// VerdictAllPassed: infrastructure healthy, admin team endpoints declared.
	VerdictAllPassed Verdict = "all_passed"
)

// Decide applies the exit policy. Critical failure wins over everything;
// otherwise a missing admin team route is the expected state, and its presence
// counts as full success. Both healthy outcomes exit 0.
func Decide(results *Results, d Discovery) Verdict {
	for _, name := range CriticalChecks {
		if !results.Passed(name) {
			return VerdictCriticalFailure
		}
	}
	if d.TeamEndpointsMissing() {
		return VerdictFeatureMissing
	}
	return VerdictAllPassed
}

// ExitCode returns the process exit code for v.
func (v Verdict) ExitCode() int {
	if v == VerdictCriticalFailure {
		return output.ExitFailure
	}
	return output.ExitOK
}

// Headline returns the closing message lines for v.
func (v Verdict) Headline() []string {
	switch v {
	case VerdictFeatureMissing:
		return []string{
			"Backend infrastructure is working correctly!",
			"But team creation endpoints are missing and need to be implemented!",
		}
	case VerdictCriticalFailure:
		return []string{"Critical backend infrastructure issues found!"}
	default:
		return []string{"All backend tests passed!"}
	}
}
