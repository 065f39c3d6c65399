package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/dataset"
)

func TestBuildQueryWritesJSON(t *testing.T) {
	ds, err := dataset.Load([]string{"testdata/data/england/subjects.ttl"})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "subjects.json")
	rows, err := buildQuery("testdata/queries/subjects.sparql", out, ds.Graph)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var payload struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
		Results struct {
			Bindings []map[string]struct {
				Type  string `json:"type"`
				Value string `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, []string{"subject", "label"}, payload.Head.Vars)
	require.Len(t, payload.Results.Bindings, 2)
	assert.Equal(t, "Mathematics", payload.Results.Bindings[0]["label"].Value)
}

func TestBuildQueryConstructRejected(t *testing.T) {
	ds, err := dataset.Load([]string{"testdata/data/england/subjects.ttl"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "construct.sparql")
	query := `PREFIX curric: <https://w3id.org/uk/curriculum/core/>
CONSTRUCT { ?s a curric:Subject } WHERE { ?s a curric:Subject }`
	require.NoError(t, os.WriteFile(path, []byte(query), 0o644))

	_, err = buildQuery(path, filepath.Join(t.TempDir(), "out.json"), ds.Graph)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON bindings form")
}

func TestBuildQueryParseError(t *testing.T) {
	ds, err := dataset.Load([]string{"testdata/data/england/subjects.ttl"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bad.sparql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT WHERE {"), 0o644))

	_, err = buildQuery(path, filepath.Join(t.TempDir(), "out.json"), ds.Graph)
	require.Error(t, err)
}

func TestBuildCommand(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "build")
	cfgPath := writeTestConfig(t, fmt.Sprintf(`data:
  roots: [testdata/data]
  ontology: testdata/ontology.ttl
build:
  queries_dir: testdata/queries
  output_dir: %s
`, outDir))

	_, err := executeCommand(t, "build", "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "subjects.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mathematics")
}

func TestBuildCommandFailsOnBadQuery(t *testing.T) {
	queriesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(queriesDir, "bad.sparql"), []byte("SELECT {"), 0o644))

	cfgPath := writeTestConfig(t, `data:
  roots: [testdata/data]
  ontology: testdata/ontology.ttl
`)

	_, err := executeCommand(t, "build",
		"--config", cfgPath,
		"--queries", queriesDir,
		"--output", t.TempDir())
	require.EqualError(t, err, "build failed")
}

func TestBuildCommandNoQueries(t *testing.T) {
	cfgPath := writeTestConfig(t, `data:
  roots: [testdata/data]
`)

	_, err := executeCommand(t, "build",
		"--config", cfgPath,
		"--queries", t.TempDir(),
		"--output", t.TempDir())
	require.EqualError(t, err, "no queries found")
}
