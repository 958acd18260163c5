package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probekit/backendcheck/internal/output"
)

func TestRecordIDUnmarshal(t *testing.T) {
	tests := []struct {
		input    string
		expected RecordID
		wantErr  bool
	}{
		{`"abc-123"`, "abc-123", false},
		{`42`, "42", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{"$oid":"x"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id RecordID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestOpenAPIEndpoints(t *testing.T) {
	var doc OpenAPIDocument
	require.NoError(t, json.Unmarshal([]byte(`{
		"openapi": "3.1.0",
		"paths": {
			"/api/status": {"post": {}, "get": {}},
			"/api/": {"get": {}}
		}
	}`), &doc))

	assert.Equal(t, []Endpoint{
		{Path: "/api/", Methods: []string{"GET"}},
		{Path: "/api/status", Methods: []string{"GET", "POST"}},
	}, doc.Endpoints())
}

func TestBackendCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"openapi":"3.1.0","info":{"title":"t","version":"1"},"paths":{"/api/":{"get":{}}}}`))
	})
	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Hello World"}`))
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","client_name":"a","timestamp":"2026-01-01T00:00:00"}]`))
	})
	mux.HandleFunc("POST /api/status", func(w http.ResponseWriter, r *http.Request) {
		var in StatusCheckCreate
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(StatusCheck{ID: "2", ClientName: in.ClientName})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	doc, err := c.OpenAPI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Len(t, doc.Paths, 1)

	msg, resp, err := c.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "Hello World"}, msg)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	list, err := c.ListStatusChecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StatusCheck{{ID: "1", ClientName: "a"}}, list)

	created, err := c.CreateStatusCheck(ctx, "TestClient_1")
	require.NoError(t, err)
	assert.Equal(t, RecordID("2"), created.ID)
	assert.Equal(t, "TestClient_1", created.ClientName)

	resp, err = c.ListTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBackendCallsUnexpectedStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	_, err := c.ListStatusChecks(context.Background())
	require.Error(t, err)
	assert.Equal(t, output.CodeStatus, output.CodeOf(err))

	_, resp, err := c.Root(context.Background())
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusChecksIgnoreUnreadFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","client_name":"a","timestamp":1700000000,"tags":["x"]}]`))
	})
	mux.HandleFunc("POST /api/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7,"client_name":"b","timestamp":1700000001.5}`))
	})
	c, _ := newTestClient(t, mux)

	list, err := c.ListStatusChecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []StatusCheck{{ID: "1", ClientName: "a"}}, list)

	created, err := c.CreateStatusCheck(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, RecordID("7"), created.ID)
}

func TestRootAcceptsAnyJSON(t *testing.T) {
	tests := []struct {
		body    string
		want    any
		wantErr bool
	}{
		{`{"message":"Hello World"}`, map[string]any{"message": "Hello World"}, false},
		{`["a",1]`, []any{"a", float64(1)}, false},
		{`"ok"`, "ok", false},
		{`42`, float64(42), false},
		{`<html>`, nil, true},
		{``, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))

			msg, _, err := c.Root(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, output.CodeMalformed, output.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestContainsID(t *testing.T) {
	records := []StatusCheck{{ID: "a"}, {ID: "b"}}
	assert.True(t, ContainsID(records, "b"))
	assert.False(t, ContainsID(records, "c"))
	assert.False(t, ContainsID(nil, "a"))
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "<none>", FormatID(""))
	assert.Equal(t, `"x"`, FormatID("x"))
}
