package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNoCredentials indicates the client was configured without the
// project id or API token.
var ErrNoCredentials = errors.New("missing Sanity credentials")

// DefaultAPIVersion is the Sanity query API version the client speaks.
const DefaultAPIVersion = "2021-10-21"

// ClientConfig configures access to the Sanity query API.
type ClientConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	Timeout    time.Duration
}

// Client fetches curriculum documents from the Sanity query API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient validates the configuration and returns a Client. Dataset
// defaults to production and the API version to DefaultAPIVersion.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: set project id and token", ErrNoCredentials)
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    fmt.Sprintf("https://%s.api.sanity.io/v%s/data/query/%s", cfg.ProjectID, cfg.APIVersion, cfg.Dataset),
		token:      cfg.Token,
	}, nil
}

// groqQuery pairs a document type with the projection that expands its
// reference fields.
type groqQuery struct {
	docType    string
	projection string
}

// exportQueries drives a full fetch, one query per export key.
var exportQueries = []struct {
	key   string
	query groqQuery
}{
	{"phases", groqQuery{"phase", ""}},
	{"keyStages", groqQuery{"keyStage", "{..., phase->{_id, label}}"}},
	{"yearGroups", groqQuery{"yearGroup", "{..., keyStage->{_id, label}}"}},
	{"disciplines", groqQuery{"discipline", ""}},
	{"subjects", groqQuery{"subject", "{..., disciplines[]->{_id, prefLabel}}"}},
	{"strands", groqQuery{"strand", "{..., discipline->{_id, prefLabel}}"}},
	{"substrands", groqQuery{"substrand", "{..., strand->{_id, prefLabel}}"}},
	{"contentDescriptors", groqQuery{"contentDescriptor", "{..., substrand->{_id, prefLabel}}"}},
	{"contentSubdescriptors", groqQuery{"contentSubdescriptor", "{..., contentDescriptor->{_id, prefLabel}}"}},
	{"subsubjects", groqQuery{"subsubject", "{..., subject->{_id, label}, strands[]->{_id, prefLabel}}"}},
	{"schemes", groqQuery{"scheme", "{..., subsubject->{_id, label}, keyStage->{_id, label}, contentDescriptors[]->{_id}}"}},
	{"progressions", groqQuery{"progression", "{..., scheme->{_id, label}, substrand->{_id, prefLabel}, contentDescriptors[]->{_id}}"}},
	{"themes", groqQuery{"theme", ""}},
}

// groq assembles the GROQ query string, appending an _updatedAt filter
// when since is set.
func (q groqQuery) groq(since time.Time) string {
	query := `*[_type == "` + q.docType + `"`
	if !since.IsZero() {
		query += ` && _updatedAt > "` + since.UTC().Format(time.RFC3339) + `"`
	}
	return query + "]" + q.projection
}

// Fetch retrieves every curriculum document type.
func (c *Client) Fetch(ctx context.Context) (*Export, error) {
	return c.fetch(ctx, time.Time{})
}

// FetchSince retrieves only documents updated after the cutoff.
func (c *Client) FetchSince(ctx context.Context, since time.Time) (*Export, error) {
	return c.fetch(ctx, since)
}

func (c *Client) fetch(ctx context.Context, since time.Time) (*Export, error) {
	export := &Export{}
	for _, eq := range exportQueries {
		docs, err := c.runQuery(ctx, eq.query.groq(since))
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", eq.key, err)
		}
		export.assign(eq.key, docs)
	}
	return export, nil
}

// runQuery executes one GROQ query and decodes its result array.
func (c *Client) runQuery(ctx context.Context, query string) ([]Document, error) {
	params := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Result []Document `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Result, nil
}

// assign routes a result array to its export field.
func (e *Export) assign(key string, docs []Document) {
	switch key {
	case "phases":
		e.Phases = docs
	case "keyStages":
		e.KeyStages = docs
	case "yearGroups":
		e.YearGroups = docs
	case "disciplines":
		e.Disciplines = docs
	case "subjects":
		e.Subjects = docs
	case "subsubjects":
		e.SubSubjects = docs
	case "strands":
		e.Strands = docs
	case "substrands":
		e.SubStrands = docs
	case "contentDescriptors":
		e.ContentDescriptors = docs
	case "contentSubdescriptors":
		e.ContentSubDescriptors = docs
	case "schemes":
		e.Schemes = docs
	case "progressions":
		e.Progressions = docs
	case "themes":
		e.Themes = docs
	}
}
