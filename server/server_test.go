package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/dataset"
	"github.com/oaknational/currigraph/rdf/turtle"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	doc, err := turtle.ParseString(`
@prefix curric: <https://w3id.org/uk/curriculum/core/> .
@prefix eng: <https://w3id.org/uk/curriculum/england/> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

eng:subject-science a curric:Subject ;
    rdfs:label "Science"@en .

eng:subject-maths a curric:Subject ;
    rdfs:label "Maths"@en .

eng:key-stage-2 a curric:KeyStage ;
    rdfs:label "Key stage 2"@en .
`)
	require.NoError(t, err)
	return &dataset.Dataset{
		Graph:      doc.Graph,
		Namespaces: doc.Namespaces,
		Files:      []dataset.FileInfo{{Path: "programme-structure.ttl", Triples: doc.Graph.Len()}},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Options{Dataset: "curriculum"}, testDataset(t), quietLogger())
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

type selectResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Boolean *bool `json:"boolean"`
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

const subjectsQuery = "PREFIX curric: <https://w3id.org/uk/curriculum/core/> " +
	"SELECT ?s WHERE { ?s a curric:Subject } ORDER BY ?s"

func TestQueryGet(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(subjectsQuery), nil)
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, mediaResultsJSON, rec.Header().Get("Content-Type"))

	var out selectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []string{"s"}, out.Head.Vars)
	require.Len(t, out.Results.Bindings, 2)
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/subject-maths", out.Results.Bindings[0]["s"].Value)
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/subject-science", out.Results.Bindings[1]["s"].Value)
}

func TestQueryPostForm(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"query": {"ASK { ?s a <https://w3id.org/uk/curriculum/core/KeyStage> }"}}
	req := httptest.NewRequest(http.MethodPost, "/curriculum/sparql", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out selectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Boolean)
	assert.True(t, *out.Boolean)
}

func TestQueryPostRaw(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/curriculum/sparql", strings.NewReader(subjectsQuery))
	req.Header.Set("Content-Type", "application/sparql-query; charset=utf-8")
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out selectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Results.Bindings, 2)
}

func TestQueryConstruct(t *testing.T) {
	s := newTestServer(t)
	query := "PREFIX curric: <https://w3id.org/uk/curriculum/core/> " +
		"CONSTRUCT { ?s a curric:Subject } WHERE { ?s a curric:Subject }"

	req := httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(query), nil)
	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), mediaTurtle)
	assert.Contains(t, rec.Body.String(), "subject-science")

	req = httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(query), nil)
	req.Header.Set("Accept", mediaNTriples)
	rec = do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mediaNTriples, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<https://w3id.org/uk/curriculum/england/subject-science>")
}

func TestQueryParseError(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/curriculum/sparql?query="+url.QueryEscape("SELECT WHERE"), nil)
	rec := do(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out["error"])
}

func TestQueryMissingParameter(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/curriculum/sparql", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryTimeout(t *testing.T) {
	s := New(Options{Dataset: "curriculum", QueryTimeout: time.Nanosecond}, testDataset(t), quietLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(subjectsQuery), nil)
	rec := do(s, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "query timed out")
}

func TestUnknownDataset(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/other/sparql?query="+url.QueryEscape(subjectsQuery), nil)
	rec := do(s, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataset not found")
}

func TestUpdateRejected(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"update": {"INSERT DATA { <urn:a> <urn:b> <urn:c> }"}}
	req := httptest.NewRequest(http.MethodPost, "/curriculum/sparql", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/curriculum/sparql",
		strings.NewReader("INSERT DATA { <urn:a> <urn:b> <urn:c> }"))
	req.Header.Set("Content-Type", "application/sparql-update")
	rec = do(s, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnsupportedContentType(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/curriculum/sparql", strings.NewReader(subjectsQuery))
	req.Header.Set("Content-Type", "text/plain")
	rec := do(s, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestQueryBodyTooLarge(t *testing.T) {
	s := New(Options{Dataset: "curriculum", MaxBodyBytes: 16}, testDataset(t), quietLogger())

	req := httptest.NewRequest(http.MethodPost, "/curriculum/sparql", strings.NewReader(subjectsQuery))
	req.Header.Set("Content-Type", "application/sparql-query")
	rec := do(s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodDelete, "/curriculum/sparql", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = do(s, httptest.NewRequest(http.MethodDelete, "/curriculum/data", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestGraphStoreData(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/curriculum/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), mediaTurtle)
	assert.Contains(t, rec.Body.String(), "subject-science")

	req := httptest.NewRequest(http.MethodGet, "/curriculum/data", nil)
	req.Header.Set("Accept", mediaNTriples)
	rec = do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mediaNTriples, rec.Header().Get("Content-Type"))

	rec = do(s, httptest.NewRequest(http.MethodHead, "/curriculum/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/$/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := time.Parse(time.RFC3339, strings.TrimSpace(rec.Body.String()))
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(subjectsQuery), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/$/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	ds, ok := out.Datasets["/curriculum"]
	require.True(t, ok)
	assert.Equal(t, 6, ds.Triples)
	assert.Equal(t, 1, ds.Files)
	assert.Equal(t, int64(1), ds.Queries)
	assert.GreaterOrEqual(t, ds.Requests, int64(2))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(subjectsQuery), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "currigraph_dataset_triples 6")
	assert.Contains(t, body, `currigraph_queries_total{form="select",outcome="ok"} 1`)
	assert.Contains(t, body, "currigraph_query_duration_seconds_count 1")
}

func TestSetDatasetSwap(t *testing.T) {
	s := newTestServer(t)

	doc, err := turtle.ParseString(`
@prefix curric: <https://w3id.org/uk/curriculum/core/> .
@prefix eng: <https://w3id.org/uk/curriculum/england/> .

eng:subject-art a curric:Subject .
`)
	require.NoError(t, err)
	s.SetDataset(&dataset.Dataset{Graph: doc.Graph, Namespaces: doc.Namespaces})

	rec := do(s, httptest.NewRequest(http.MethodGet,
		"/curriculum/sparql?query="+url.QueryEscape(subjectsQuery), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out selectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Results.Bindings, 1)
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/subject-art", out.Results.Bindings[0]["s"].Value)
}
