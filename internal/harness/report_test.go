package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamAnalysisWhenMissing(t *testing.T) {
	rep := &Report{
		Results:   resultsWith(),
		Team:      TeamProbe{GetStatus: 404, PostStatus: 404},
		Structure: &StructureScan{},
	}

	assert.Equal(t, []string{
		"CRITICAL ISSUE: Team creation endpoints are NOT implemented",
		"POST /api/admin/teams returns 404 (not found)",
		"GET /api/admin/teams returns 404 (not found)",
		"No team endpoints found in OpenAPI schema",
		"No team-related code found in server source",
	}, rep.TeamAnalysis("/api/admin/teams"))
	assert.Len(t, rep.RequiredFixes("/api/admin/teams"), 6)
	assert.Equal(t, "2. Implement POST /api/admin/teams endpoint", rep.RequiredFixes("/api/admin/teams")[1])
}

func TestTeamAnalysisWhenDeclared(t *testing.T) {
	rep := &Report{
		Results:   resultsWith(CheckMissingTeams),
		Discovery: Discovery{AdminTeamPaths: []string{"/api/admin/teams"}},
		Team:      TeamProbe{GetStatus: 200},
	}

	assert.Equal(t, []string{
		"Team endpoints are declared in the OpenAPI schema",
		"POST /api/admin/teams was not probed",
		"GET /api/admin/teams returns 200",
		"1 admin team endpoints found in OpenAPI schema",
		"Server source was not analyzed",
	}, rep.TeamAnalysis("/api/admin/teams"))
	assert.Empty(t, rep.RequiredFixes("/api/admin/teams"))
}

func TestFailedCritical(t *testing.T) {
	rep := &Report{Results: resultsWith(CheckMongoDBConnection, CheckCORS, CheckServerHealth)}

	assert.Equal(t, []string{CheckServerHealth, CheckMongoDBConnection}, rep.FailedCritical())
}
