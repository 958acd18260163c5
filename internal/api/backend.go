package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Backend paths probed by the harness.
const (
	PathDocs       = "/docs"
	PathOpenAPI    = "/openapi.json"
	PathRoot       = "/"
	PathStatus     = "/status"
	PathAdminTeams = "/admin/teams"
)

// RecordID is a record identifier that the backend may send as a JSON string
// or number.
type RecordID string

// UnmarshalJSON accepts strings, numbers, and null.
func (id *RecordID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record id must be a string or number, got %s", b)
	}
	*id = RecordID(n.String())
	return nil
}

// StatusCheck is a record returned by the status endpoints. Only the fields
// the checks read are decoded; anything else the backend sends is ignored.
type StatusCheck struct {
	ID         RecordID `json:"id"`
	ClientName string   `json:"client_name"`
}

// StatusCheckCreate is the body of POST /api/status.
type StatusCheckCreate struct {
	ClientName string `json:"client_name"`
}

// TeamCreate is the body of POST /api/admin/teams.
type TeamCreate struct {
	Name       string `json:"name"`
	DistrictID string `json:"district_id"`
}

// RootMessage is the body of GET /api/: any valid JSON document.
type RootMessage any

// OpenAPIDocument is the subset of an OpenAPI schema the harness reads.
type OpenAPIDocument struct {
	OpenAPI string `json:"openapi"`
	Info    struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	Paths map[string]map[string]json.RawMessage `json:"paths"`
}

// Endpoint is one declared path with its methods.
type Endpoint struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// Endpoints lists declared paths sorted by path, methods upper-cased and sorted.
func (d *OpenAPIDocument) Endpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(d.Paths))
	for path, ops := range d.Paths {
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, strings.ToUpper(m))
		}
		sort.Strings(methods)
		endpoints = append(endpoints, Endpoint{Path: path, Methods: methods})
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Path < endpoints[j].Path })
	return endpoints
}

// Docs fetches the interactive documentation page.
func (c *Client) Docs(ctx context.Context, timeout time.Duration) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: c.URL(PathDocs), Timeout: timeout})
}

// OpenAPI fetches and decodes the schema document.
func (c *Client) OpenAPI(ctx context.Context) (*OpenAPIDocument, error) {
	resp, err := c.Get(ctx, c.URL(PathOpenAPI))
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var doc OpenAPIDocument
	if err := resp.Decode("OpenAPI schema", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Root fetches the API root. The raw response is returned alongside the
// decoded body so callers can inspect headers.
func (c *Client) Root(ctx context.Context) (RootMessage, *Response, error) {
	resp, err := c.Get(ctx, c.APIURL(PathRoot))
	if err != nil {
		return nil, nil, err
	}
	if err := ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, resp, err
	}
	var msg RootMessage
	if err := resp.Decode("root response", &msg); err != nil {
		return nil, resp, err
	}
	return msg, resp, nil
}

// ListStatusChecks fetches every status record.
func (c *Client) ListStatusChecks(ctx context.Context) ([]StatusCheck, error) {
	resp, err := c.Get(ctx, c.APIURL(PathStatus))
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var checks []StatusCheck
	if err := resp.Decode("status list", &checks); err != nil {
		return nil, err
	}
	return checks, nil
}

// CreateStatusCheck posts a new status record.
func (c *Client) CreateStatusCheck(ctx context.Context, clientName string) (*StatusCheck, error) {
	resp, err := c.Post(ctx, c.APIURL(PathStatus), StatusCheckCreate{ClientName: clientName})
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var created StatusCheck
	if err := resp.Decode("created status", &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListTeams calls GET /api/admin/teams. The status code is the caller's concern.
func (c *Client) ListTeams(ctx context.Context) (*Response, error) {
	return c.Get(ctx, c.APIURL(PathAdminTeams))
}

// CreateTeam calls POST /api/admin/teams. The status code is the caller's concern.
func (c *Client) CreateTeam(ctx context.Context, team TeamCreate) (*Response, error) {
	return c.Post(ctx, c.APIURL(PathAdminTeams), team)
}

// ContainsID reports whether any record has the given id.
func ContainsID(records []StatusCheck, id RecordID) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// FormatID renders an id for log lines.
func FormatID(id RecordID) string {
	if id == "" {
		return "<none>"
	}
	return strconv.Quote(string(id))
}
