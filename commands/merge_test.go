package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

func TestMergeCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "merged.ttl")

	_, err := executeCommand(t, "merge", "--config", queryConfig(t), "-o", out)
	require.NoError(t, err)

	doc, err := turtle.ParseFile(out)
	require.NoError(t, err)
	assert.Greater(t, doc.Graph.Len(), 0)

	subjects := doc.Graph.SubjectsOfType(curriculum.ClassSubject)
	assert.Len(t, subjects, 2)
	keyStages := doc.Graph.SubjectsOfType(curriculum.ClassKeyStage)
	assert.Len(t, keyStages, 1)
}

func TestMergeCommandNoData(t *testing.T) {
	cfgPath := writeTestConfig(t, `data:
  roots: [does-not-exist]
`)

	_, err := executeCommand(t, "merge", "--config", cfgPath, "-o", filepath.Join(t.TempDir(), "merged.ttl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .ttl files")
}
