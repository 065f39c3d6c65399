package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/oaknational/currigraph/dataset"
	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/sparql"
)

const (
	mediaResultsJSON  = "application/sparql-results+json"
	mediaTurtle       = "text/turtle"
	mediaNTriples     = "application/n-triples"
	mediaSPARQLQuery  = "application/sparql-query"
	mediaSPARQLUpdate = "application/sparql-update"
)

// handleSPARQL implements the query operation of the SPARQL 1.1
// protocol: GET with a query parameter, POST with a urlencoded form, or
// POST with a raw application/sparql-query body.
func (s *Server) handleSPARQL(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.resolveDataset(w, r)
	if !ok {
		return
	}

	var query string
	switch r.Method {
	case http.MethodGet:
		query = r.URL.Query().Get("query")
		if query == "" {
			s.writeError(w, http.StatusBadRequest, "missing query parameter")
			return
		}
	case http.MethodPost:
		query, ok = s.readQueryBody(w, r)
		if !ok {
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.queries.Add(1)
	q, err := sparql.Parse(query)
	if err != nil {
		s.metrics.queries.WithLabelValues("invalid", outcomeParseError).Inc()
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	form := strings.ToLower(q.Form.String())

	ctx := r.Context()
	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := executeWithContext(ctx, q, ds.Graph)
	s.metrics.duration.Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.queries.WithLabelValues(form, outcomeTimeout).Inc()
		s.writeError(w, http.StatusServiceUnavailable, "query timed out")
		return
	case err != nil:
		s.metrics.queries.WithLabelValues(form, outcomeEvalError).Inc()
		s.log.Error("query failed",
			slog.String("form", form),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.queries.WithLabelValues(form, outcomeOK).Inc()

	switch res.Form {
	case sparql.FormSelect, sparql.FormAsk:
		body, err := res.JSON()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", mediaResultsJSON)
		if _, err := w.Write(body); err != nil {
			s.log.Warn("write response", slog.String("error", err.Error()))
		}
	default:
		s.writeGraph(w, r, res.Graph, ds.Namespaces)
	}
}

// readQueryBody extracts the query string from a POST body. It reports
// false after writing an error response.
func (s *Server) readQueryBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, http.StatusUnsupportedMediaType, "missing or malformed Content-Type")
		return "", false
	}
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			s.writeError(w, requestBodyStatus(err), "parse form: "+err.Error())
			return "", false
		}
		if r.PostForm.Has("update") {
			s.writeError(w, http.StatusMethodNotAllowed, "read-only endpoint: update not supported")
			return "", false
		}
		query := r.PostForm.Get("query")
		if query == "" {
			s.writeError(w, http.StatusBadRequest, "missing query parameter")
			return "", false
		}
		return query, true
	case mediaSPARQLQuery:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, requestBodyStatus(err), "read body: "+err.Error())
			return "", false
		}
		return string(body), true
	case mediaSPARQLUpdate:
		s.writeError(w, http.StatusMethodNotAllowed, "read-only endpoint: update not supported")
		return "", false
	default:
		s.writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %q", ct))
		return "", false
	}
}

func requestBodyStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// executeWithContext evaluates the query in a goroutine so a deadline
// can cut the response short. A timed-out evaluation finishes against
// its immutable snapshot and is discarded.
func executeWithContext(ctx context.Context, q *sparql.Query, src sparql.Source) (*sparql.Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type evalResult struct {
		res *sparql.Results
		err error
	}
	done := make(chan evalResult, 1)
	go func() {
		res, err := q.Execute(src)
		done <- evalResult{res: res, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}

// handleData is the Graph Store read operation: the whole dataset as
// Turtle, or N-Triples via Accept.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.resolveDataset(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.writeGraph(w, r, ds.Graph, ds.Namespaces)
	case http.MethodHead:
		w.Header().Set("Content-Type", negotiateGraphType(r))
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Allow", "GET, HEAD")
		s.writeError(w, http.StatusMethodNotAllowed, "read-only endpoint")
	}
}

func (s *Server) resolveDataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	if name := r.PathValue("dataset"); name != s.opts.Dataset {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("dataset not found: /%s", name))
		return nil, false
	}
	return s.Dataset(), true
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, g *rdf.Graph, ns *rdf.Namespaces) {
	media := negotiateGraphType(r)
	w.Header().Set("Content-Type", media)
	var err error
	if strings.HasPrefix(media, mediaNTriples) {
		err = turtle.WriteNTriples(w, g)
	} else {
		err = turtle.Write(w, g, ns)
	}
	if err != nil {
		s.log.Warn("write response", slog.String("error", err.Error()))
	}
}

func negotiateGraphType(r *http.Request) string {
	if strings.Contains(r.Header.Get("Accept"), mediaNTriples) {
		return mediaNTriples
	}
	return mediaTurtle + "; charset=utf-8"
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, time.Now().UTC().Format(time.RFC3339))
}

// DatasetStats is the per-dataset block of the stats response.
type DatasetStats struct {
	Triples       int   `json:"triples"`
	Files         int   `json:"files"`
	Requests      int64 `json:"requests"`
	Queries       int64 `json:"queries"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// StatsResponse is the /$/stats payload.
type StatsResponse struct {
	Datasets map[string]DatasetStats `json:"datasets"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	ds := s.Dataset()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Datasets: map[string]DatasetStats{
			"/" + s.opts.Dataset: {
				Triples:       ds.Graph.Len(),
				Files:         len(ds.Files),
				Requests:      s.requests.Load(),
				Queries:       s.queries.Load(),
				UptimeSeconds: int64(time.Since(s.started).Seconds()),
			},
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("write JSON response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
