package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/treecheck/internal/config"
	"github.com/chris-regnier/treecheck/internal/sarif"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	a := &api{eng: testEngine(t, config.SystemDefaults()), logger: slog.New(slog.DiscardHandler)}
	srv := httptest.NewServer(a.routes())
	t.Cleanup(srv.Close)
	return srv
}

func postCheck(t *testing.T, srv *httptest.Server, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/check", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func requestBody(t *testing.T, path, source string) string {
	t.Helper()
	data, err := json.Marshal(checkRequest{Path: path, Source: source})
	require.NoError(t, err)
	return string(data)
}

func TestServeHealth(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServeListChecks(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/v1/checks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []checkInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Contains(t, names, "nested-if-depth")
	// Disabled by default.
	assert.NotContains(t, names, "todo-comment")
}

func TestServeCheckReturnsSARIF(t *testing.T) {
	srv := testServer(t)
	resp := postCheck(t, srv, requestBody(t, "src/A.java", nestedIfs), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var log sarif.Log
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&log))
	require.Len(t, log.Runs, 1)
	require.Len(t, log.Runs[0].Results, 1)
	r := log.Runs[0].Results[0]
	assert.Equal(t, "nested-if-depth", r.RuleID)
	assert.Equal(t, "src/A.java", r.URI())
	assert.Equal(t, 5, r.Region().StartLine)
	assert.Equal(t, "Nested if-else depth is 2 (max allowed is 1).", r.Message.Text)
}

func TestServeCheckNegotiatesLocale(t *testing.T) {
	srv := testServer(t)
	resp := postCheck(t, srv, requestBody(t, "src/A.java", nestedIfs), map[string]string{"Accept-Language": "de-DE,de;q=0.9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var log sarif.Log
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&log))
	require.Len(t, log.Runs[0].Results, 1)
	assert.Equal(t, "Verschachtelungstiefe von if-else ist 2 (Maximum ist 1).", log.Runs[0].Results[0].Message.Text)
}

func TestServeCheckRejectsBadRequests(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"missing path", `{"source": "class A {}"}`, http.StatusBadRequest},
		{"unsupported language", requestBody(t, "notes.txt", "hello"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postCheck(t, srv, tt.body, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}
