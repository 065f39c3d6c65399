package sanity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Export {
	t.Helper()
	export, err := LoadExport("testdata/sample-export.json")
	require.NoError(t, err)
	return export
}

func TestLoadExport(t *testing.T) {
	export := loadFixture(t)

	assert.Len(t, export.Phases, 1)
	assert.Len(t, export.KeyStages, 2)
	assert.Len(t, export.YearGroups, 1)
	assert.Len(t, export.Disciplines, 1)
	assert.Len(t, export.Subjects, 1)
	assert.Len(t, export.SubSubjects, 2)
	assert.Len(t, export.Strands, 1)
	assert.Len(t, export.SubStrands, 1)
	assert.Len(t, export.ContentDescriptors, 1)
	assert.Len(t, export.ContentSubDescriptors, 1)
	assert.Len(t, export.Schemes, 1)
	assert.Len(t, export.Progressions, 1)
	assert.Len(t, export.Themes, 1)
	assert.Equal(t, 15, export.Len())
}

func TestLoadExportMissing(t *testing.T) {
	_, err := LoadExport("testdata/does-not-exist.json")
	require.Error(t, err)
}

func TestSlugValue(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"slug field", Document{ID: "phase-primary", Slug: &Slug{Current: "primary"}}, "primary"},
		{"fallback to id", Document{ID: "key-stage-2"}, "key-stage-2"},
		{"draft id stripped", Document{ID: "drafts.key-stage-1"}, "key-stage-1"},
		{"empty slug falls back", Document{ID: "year-1", Slug: &Slug{}}, "year-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.SlugValue())
		})
	}
}

func TestReferenceTarget(t *testing.T) {
	assert.Equal(t, "primary", Reference{Ref: "primary"}.Target())
	assert.Equal(t, "primary", Reference{ID: "primary"}.Target())
	assert.Equal(t, "raw", Reference{Ref: "raw", ID: "expanded"}.Target())
	assert.Empty(t, Reference{}.Target())
}

func TestDocumentUpdated(t *testing.T) {
	doc := Document{UpdatedAt: "2025-03-01T10:00:00Z"}
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), doc.Updated())

	assert.True(t, Document{}.Updated().IsZero())
	assert.True(t, Document{UpdatedAt: "not-a-time"}.Updated().IsZero())
}

func TestFilterSince(t *testing.T) {
	export := loadFixture(t)
	cutoff := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	filtered := export.FilterSince(cutoff)

	// key-stage-2 was last touched in January and drops out.
	require.Len(t, filtered.KeyStages, 1)
	assert.Equal(t, "drafts.key-stage-1", filtered.KeyStages[0].ID)
	assert.Len(t, filtered.Phases, 1)

	// Documents without a timestamp survive the filter.
	undated := &Export{Themes: []Document{{ID: "theme-x"}}}
	assert.Len(t, undated.FilterSince(cutoff).Themes, 1)

	// A future cutoff drops everything dated.
	empty := export.FilterSince(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, empty.Len())
}
