package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/probekit/backendcheck/internal/api"
	"github.com/probekit/backendcheck/internal/output"
)

// corsHeaders are the cross-origin response headers looked for on the API root.
var corsHeaders = []string{
	"access-control-allow-origin",
	"access-control-allow-methods",
	"access-control-allow-headers",
}

// testTeam is the body posted to the admin teams path.
var testTeam = api.TeamCreate{Name: "Test Team", DistrictID: "test-district-123"}

// run holds the state of one Harness.Run.
type run struct {
	*Harness
	report *Report
}

func (r *run) checks() []Check {
	list := []struct {
		name string
		fn   func(context.Context) Outcome
	}{
		{CheckServerHealth, r.serverHealth},
		{CheckOpenAPISchema, r.openAPISchema},
		{CheckRootEndpoint, r.rootEndpoint},
		{CheckStatusEndpoints, r.statusEndpoints},
		{CheckMissingTeams, r.missingTeamEndpoints},
		{CheckMongoDBConnection, r.mongoDBConnection},
		{CheckCORS, r.corsConfiguration},
		{CheckBackendStructure, r.backendStructure},
	}

	checks := make([]Check, len(list))
	for i, c := range list {
		checks[i] = Check{Name: c.name, Critical: IsCritical(c.name), Run: c.fn}
	}
	return checks
}

func (r *run) fail(what string, err error) Outcome {
	r.log.Error("%s: %v", what, err)
	return fail(err)
}

func (r *run) serverHealth(ctx context.Context) Outcome {
	r.log.Info("Testing backend server health...")

	resp, err := r.client.Docs(ctx, r.cfg.HealthTimeout)
	if err != nil {
		return r.fail("Backend server health check failed", err)
	}
	if err := api.ExpectStatus(resp, http.StatusOK); err != nil {
		return r.fail("Backend server docs returned", err)
	}

	r.log.Info("Backend server is responding (docs accessible)")
	return pass("docs accessible")
}

func (r *run) openAPISchema(ctx context.Context) Outcome {
	r.log.Info("Testing OpenAPI schema...")

	doc, err := r.client.OpenAPI(ctx)
	if err != nil {
		return r.fail("Error testing OpenAPI schema", err)
	}

	d := Discover(doc)
	r.report.Discovery = d

	r.log.Info("OpenAPI schema accessible - Found %d endpoints", len(d.Paths))
	r.log.Info("Available endpoints:")
	for _, ep := range d.Paths {
		r.log.Info("   %s - %s", ep.Path, strings.Join(ep.Methods, ", "))
	}

	if len(d.TeamPaths) > 0 {
		r.log.Info("Found team-related endpoints: %s", strings.Join(d.TeamPaths, ", "))
	} else {
		r.log.Warn("No team-related endpoints found in OpenAPI schema")
	}
	if len(d.AdminTeamPaths) > 0 {
		r.log.Info("Found admin team endpoints: %s", strings.Join(d.AdminTeamPaths, ", "))
	} else {
		r.log.Warn("No %s endpoints found in OpenAPI schema", r.client.APIPath(api.PathAdminTeams))
	}

	return pass("%d endpoints, %d admin team", len(d.Paths), len(d.AdminTeamPaths))
}

func (r *run) rootEndpoint(ctx context.Context) Outcome {
	r.log.Info("Testing root endpoint...")

	msg, _, err := r.client.Root(ctx)
	if err != nil {
		return r.fail("Root endpoint failed", err)
	}

	body, _ := json.Marshal(msg)
	r.log.Info("Root endpoint working: %s", body)
	return pass("%s", body)
}

func (r *run) statusEndpoints(ctx context.Context) Outcome {
	r.log.Info("Testing status endpoints...")
	path := r.client.APIPath(api.PathStatus)

	list, err := r.client.ListStatusChecks(ctx)
	if err != nil {
		return r.fail("GET "+path+" failed", err)
	}
	r.log.Info("GET %s working - Found %d status checks", path, len(list))

	name := r.newName("TestClient")
	created, err := r.client.CreateStatusCheck(ctx, name)
	if err != nil {
		return r.fail("POST "+path+" failed", err)
	}
	if created.ClientName != name {
		err := output.ErrMalformed("created status", fmt.Errorf("client_name %q does not echo %q", created.ClientName, name))
		return r.fail("POST "+path+" failed", err)
	}

	r.log.Info("POST %s working - Created: %s", path, created.ClientName)
	return pass("listed %d, created %s", len(list), created.ClientName)
}

func (r *run) missingTeamEndpoints(ctx context.Context) Outcome {
	r.log.Info("Testing missing team endpoints...")
	path := r.client.APIPath(api.PathAdminTeams)

	resp, err := r.client.ListTeams(ctx)
	if err != nil {
		return r.fail("Error testing GET "+path, err)
	}
	r.report.Team.GetStatus = resp.StatusCode
	if resp.StatusCode != http.StatusNotFound {
		return r.fail("GET "+path+" unexpected response", api.ExpectStatus(resp, http.StatusNotFound))
	}
	r.log.Info("GET %s correctly returns 404 (endpoint not implemented)", path)

	resp, err = r.client.CreateTeam(ctx, testTeam)
	if err != nil {
		return r.fail("Error testing POST "+path, err)
	}
	r.report.Team.PostStatus = resp.StatusCode
	if resp.StatusCode != http.StatusNotFound {
		return r.fail("POST "+path+" unexpected response", api.ExpectStatus(resp, http.StatusNotFound))
	}
	r.log.Info("POST %s correctly returns 404 (endpoint not implemented)", path)

	return pass("GET and POST return 404")
}

func (r *run) mongoDBConnection(ctx context.Context) Outcome {
	r.log.Info("Testing MongoDB connection...")

	created, err := r.client.CreateStatusCheck(ctx, r.newName("MongoTest"))
	if err != nil {
		return r.fail("Failed to create test data", err)
	}
	if created.ID == "" {
		return r.fail("Failed to create test data", output.ErrMalformed("created status", errors.New("response has no id")))
	}

	all, err := r.client.ListStatusChecks(ctx)
	if err != nil {
		return r.fail("Failed to retrieve data", err)
	}
	if !api.ContainsID(all, created.ID) {
		r.log.Error("MongoDB connection issue - Data not found after creation")
		return Outcome{Message: fmt.Sprintf("record %s not found in %d records", api.FormatID(created.ID), len(all))}
	}

	r.log.Info("MongoDB connection working - Data persisted successfully")
	return pass("record %s persisted", api.FormatID(created.ID))
}

// corsConfiguration never fails; missing headers and transport errors are
// warnings only.
func (r *run) corsConfiguration(ctx context.Context) Outcome {
	r.log.Info("Testing CORS configuration...")

	if _, err := r.client.Options(ctx, r.client.APIURL(api.PathRoot)); err != nil {
		r.log.Warn("OPTIONS preflight failed: %v", err)
	}

	resp, err := r.client.Get(ctx, r.client.APIURL(api.PathRoot))
	if err != nil {
		r.log.Warn("Error testing CORS: %v", err)
		return pass("not verified: %s", output.AsError(err).Message)
	}

	var found []string
	for _, h := range corsHeaders {
		if hasHeader(resp.Headers, h) {
			found = append(found, h)
		}
	}
	if len(found) == 0 {
		r.log.Warn("No CORS headers found - may cause frontend issues")
		return pass("no CORS headers")
	}

	r.log.Info("CORS headers found: %s", strings.Join(found, ", "))
	return pass("%s", strings.Join(found, ", "))
}

func hasHeader(h http.Header, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// backendStructure never fails; it only reports what the server source contains.
func (r *run) backendStructure(_ context.Context) Outcome {
	r.log.Info("Analyzing backend code structure...")

	src, err := r.readFile(r.cfg.ServerSource)
	if err != nil {
		ferr := output.ErrFile(r.cfg.ServerSource, err)
		r.log.Warn("Error analyzing backend structure: %v", ferr)
		return pass("not analyzed: %s", ferr.Message)
	}

	scan := ScanSource(string(src))
	r.report.Structure = &scan

	r.log.Info("Code analysis:")
	r.log.Info("   - 'team' mentions: %d", scan.TeamMentions)
	r.log.Info("   - 'admin' mentions: %d", scan.AdminMentions)
	r.log.Info("   - Router includes: %d", scan.RouterIncludes)

	if scan.HasAdminTeamsPath {
		r.log.Info("Team endpoints found in code")
	} else {
		r.log.Warn("No team endpoints found in %s", r.cfg.ServerSource)
	}
	if scan.RouterConfigured {
		r.log.Info("Router configuration looks correct")
	} else {
		r.log.Warn("Router configuration may have issues")
	}

	return pass("team=%d admin=%d include_router=%d", scan.TeamMentions, scan.AdminMentions, scan.RouterIncludes)
}
