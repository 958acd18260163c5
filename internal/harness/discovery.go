package harness

import (
	"strings"

	"github.com/probekit/backendcheck/internal/api"
)

// adminTeamsMarker identifies admin team routes in schema paths and source.
const adminTeamsMarker = "/admin/teams"

// Discovery is what the OpenAPI schema declares.
type Discovery struct {
	Paths          []api.Endpoint `json:"paths"`
	TeamPaths      []string       `json:"team_paths"`
	AdminTeamPaths []string       `json:"admin_team_paths"`
}

// Discover partitions the schema paths. Team paths contain "team" in any case;
// admin team paths contain "/admin/teams" exactly.
func Discover(doc *api.OpenAPIDocument) Discovery {
	d := Discovery{
		Paths:          doc.Endpoints(),
		TeamPaths:      []string{},
		AdminTeamPaths: []string{},
	}
	for _, ep := range d.Paths {
		if strings.Contains(strings.ToLower(ep.Path), "team") {
			d.TeamPaths = append(d.TeamPaths, ep.Path)
		}
		if strings.Contains(ep.Path, adminTeamsMarker) {
			d.AdminTeamPaths = append(d.AdminTeamPaths, ep.Path)
		}
	}
	return d
}

// TeamEndpointsMissing reports whether no admin team path was declared.
// A schema that could not be fetched declares nothing.
func (d Discovery) TeamEndpointsMissing() bool {
	return len(d.AdminTeamPaths) == 0
}

// StructureScan holds substring counts from the server source.
type StructureScan struct {
	TeamMentions      int  `json:"team_mentions"`
	AdminMentions     int  `json:"admin_mentions"`
	RouterIncludes    int  `json:"router_includes"`
	HasAdminTeamsPath bool `json:"has_admin_teams_path"`
	RouterConfigured  bool `json:"router_configured"`
}

// ScanSource counts case-sensitive, non-overlapping occurrences in src.
func ScanSource(src string) StructureScan {
	includes := strings.Count(src, "include_router")
	return StructureScan{
		TeamMentions:      strings.Count(src, "team"),
		AdminMentions:     strings.Count(src, "admin"),
		RouterIncludes:    includes,
		HasAdminTeamsPath: strings.Contains(src, adminTeamsMarker),
		RouterConfigured:  strings.Contains(src, "api_router") && includes > 0,
	}
}
