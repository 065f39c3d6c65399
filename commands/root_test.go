package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/config"
)

// resetCommandState returns every command flag variable to its default
// so one test's arguments do not leak into the next.
func resetCommandState() {
	configPath, logLevel = "", ""
	validateTargets, validateWatch = nil, false
	buildQueriesDir, buildOutputDir = "", ""
	serveAddr, serveWatch = "", false
	loadStorePath = ""
	mergeOutput = ""
	convertAPI, convertSample, convertSubjects = false, "", "all"
	convertOutput, convertIncremental, convertStatePath = "", false, defaultSyncStatePath
	exportMapping, exportDryRun, exportCypherOut, exportClear = "", false, "", false
	queryText, queryFormat, queryFromStore = "", "table", false
	statsFromStore = false
}

// executeCommand runs the CLI with args and returns everything written
// to the command output streams. Passing no args runs the bare root.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState()
	if args == nil {
		args = []string{}
	}
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeTestConfig writes a config file into a fresh temp directory and
// returns its path.
func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "currigraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRootShowsHelp(t *testing.T) {
	out, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "currigraph")
	assert.Contains(t, out, "validate")
	assert.Contains(t, out, "serve")
}

func TestRootRejectsUnknownFlag(t *testing.T) {
	_, err := executeCommand(t, "--no-such-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestSetVersionInfo(t *testing.T) {
	defer SetVersionInfo("dev", "none", "unknown")

	SetVersionInfo("1.4.0", "abc1234", "2026-08-01")
	assert.Equal(t, "1.4.0 (commit: abc1234, built: 2026-08-01)", rootCmd.Version)
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("dev", "none", "unknown")
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "currigraph version dev (commit: none, built: unknown)\n", out)
}

func TestContainsPath(t *testing.T) {
	files := []string{"a.ttl", "b/c.ttl"}
	assert.True(t, containsPath(files, "b/c.ttl"))
	assert.False(t, containsPath(files, "c.ttl"))
}

func TestNatsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NATS.URL = "nats://configured:4222"
	cfg.NATS.Subject = "curriculum.graph"

	t.Setenv("NATS_URL", "")
	nc := natsConfig(cfg)
	assert.Equal(t, "nats://configured:4222", nc.URL)
	assert.Equal(t, "curriculum.graph", nc.Subject)

	t.Setenv("NATS_URL", "nats://fromenv:4222")
	assert.Equal(t, "nats://fromenv:4222", natsConfig(cfg).URL)
}

func TestLoadDatasetMergesOntology(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Roots = []string{"testdata/data"}
	cfg.Data.Ontology = "testdata/ontology.ttl"

	ds, err := loadDataset(cfg)
	require.NoError(t, err)
	require.Len(t, ds.Files, 2)
	assert.Equal(t, "testdata/ontology.ttl", ds.Files[0].Path)
	assert.Greater(t, ds.Graph.Len(), 0)
}

func TestLoadDatasetNoFiles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Roots = []string{t.TempDir()}
	cfg.Data.Ontology = ""

	_, err := loadDataset(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .ttl files")
}

func TestSetupMissingConfig(t *testing.T) {
	resetCommandState()
	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	defer func() { configPath = "" }()

	_, _, err := setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
