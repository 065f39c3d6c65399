package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := color.Output
	color.Output = &buf
	defer func() { color.Output = prev }()
	fn()
	return buf.String()
}

func TestStatusLines(t *testing.T) {
	out := capture(t, func() { Success("loaded %d files\n", 3) })
	assert.Contains(t, out, "✓ loaded 3 files")

	out = capture(t, func() { Warning("no shapes configured\n") })
	assert.Contains(t, out, "⚠ no shapes configured")

	out = capture(t, func() { Failure("2 violations\n") })
	assert.Contains(t, out, "✗ 2 violations")

	out = capture(t, func() { Step("merging sources\n") })
	assert.Contains(t, out, "→ merging sources")
}

func TestError(t *testing.T) {
	err := Error("Validation failed", "The dataset has constraint violations.", nil)
	require.Error(t, err)
	assert.Equal(t, "Validation failed", err.Error())

	err = Error("Validation failed", "Explanation", []string{"Run with --target to narrow the check"})
	require.Error(t, err)
	assert.Equal(t, "Validation failed", err.Error())
}

func TestErrorWithContext(t *testing.T) {
	err := ErrorWithContext("Export failed", "Could not reach the database.",
		map[string]string{"URI": "neo4j+s://example", "Database": "neo4j"},
		[]string{"Check NEO4J_URI", "Check NEO4J_PASSWORD"})
	require.Error(t, err)
	assert.Equal(t, "Export failed", err.Error())
}
