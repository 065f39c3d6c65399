package commands

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeConfig writes a config whose store lives in a fresh temp
// directory, returning the config path.
func storeConfig(t *testing.T) string {
	t.Helper()
	return writeTestConfig(t, fmt.Sprintf(`data:
  roots: [testdata/data]
  ontology: testdata/ontology.ttl
store:
  path: %s
`, filepath.Join(t.TempDir(), "store")))
}

func TestLoadCommandRoundTrip(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cfgPath := storeConfig(t)

	_, err := executeCommand(t, "load", "--config", cfgPath)
	require.NoError(t, err)

	out, err := executeCommand(t, "stats", "--config", cfgPath, "--store")
	require.NoError(t, err)
	assert.Contains(t, out, "dataset: curriculum")
	assert.Contains(t, out, "triples:")

	out, err = executeCommand(t, "query", "--config", cfgPath, "--store", "-q", subjectsSelect)
	require.NoError(t, err)
	assert.Contains(t, out, "eng:maths")
	assert.Contains(t, out, "2 rows")
}

func TestLoadCommandNoData(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cfgPath := writeTestConfig(t, `data:
  roots: [does-not-exist]
`)

	_, err := executeCommand(t, "load", "--config", cfgPath, "--store", filepath.Join(t.TempDir(), "store"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .ttl files")
}
