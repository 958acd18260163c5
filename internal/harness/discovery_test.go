package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probekit/backendcheck/internal/api"
)

func TestDiscover(t *testing.T) {
	var doc api.OpenAPIDocument
	require.NoError(t, json.Unmarshal([]byte(`{"paths": {
		"/api/status": {"get": {}},
		"/api/Teams": {"get": {}},
		"/api/admin/teams": {"get": {}, "post": {}},
		"/api/admin/teams/{id}": {"delete": {}},
		"/api/admin/Teams/x": {"get": {}}
	}}`), &doc))

	d := Discover(&doc)

	assert.Len(t, d.Paths, 5)
	assert.Equal(t, "/api/Teams", d.Paths[0].Path)
	assert.Equal(t, []string{"/api/Teams", "/api/admin/Teams/x", "/api/admin/teams", "/api/admin/teams/{id}"}, d.TeamPaths)
	assert.Equal(t, []string{"/api/admin/teams", "/api/admin/teams/{id}"}, d.AdminTeamPaths)
	assert.False(t, d.TeamEndpointsMissing())
}

func TestDiscoverEmptySchema(t *testing.T) {
	d := Discover(&api.OpenAPIDocument{})

	assert.Empty(t, d.Paths)
	assert.NotNil(t, d.TeamPaths)
	assert.NotNil(t, d.AdminTeamPaths)
	assert.True(t, d.TeamEndpointsMissing())
	assert.True(t, Discovery{}.TeamEndpointsMissing())
}

func TestScanSource(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected StructureScan
	}{
		{
			name:     "empty",
			src:      "",
			expected: StructureScan{},
		},
		{
			name: "router without teams",
			src:  "api_router = APIRouter()\napp.include_router(api_router)\n",
			expected: StructureScan{
				RouterIncludes:   1,
				RouterConfigured: true,
			},
		},
		{
			name: "case sensitive counts",
			src:  "Team TEAM team teams Admin admin",
			expected: StructureScan{
				TeamMentions:  2,
				AdminMentions: 1,
			},
		},
		{
			name: "include_router without api_router",
			src:  "app.include_router(other)",
			expected: StructureScan{
				RouterIncludes: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScanSource(tt.src))
		})
	}
}
