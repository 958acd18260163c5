// Package output provides report formatting and error handling.
package output

// Exit codes. The harness only distinguishes a sound backend from a broken one.
const (
	ExitOK      = 0 // Critical checks passed
	ExitFailure = 1 // Critical check failed, or the CLI could not run
)

// Error codes for the JSON envelope and check results.
const (
	CodeUsage     = "usage"
	CodeNetwork   = "network"
	CodeStatus    = "unexpected_status"
	CodeMalformed = "malformed_response"
	CodeFile      = "file"
	CodeCritical  = "critical_failure"
	CodeInternal  = "internal"
	CodeJQ        = "jq"
	CodeNoHistory = "no_history"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case "":
		return ExitOK
	default:
		return ExitFailure
	}
}
