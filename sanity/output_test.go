package sanity

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

func quietBuilder() *Builder {
	b := NewBuilder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestOntologyHeader(t *testing.T) {
	g := rdf.NewGraph()
	iri := rdf.IRI(curriculum.EnglandNamespace + "programme-structure")
	OntologyHeader(g, iri, "Test Title", "Test description.", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	hasTriple(t, g, iri, rdf.RDFType, curriculum.OWLOntology)
	hasTriple(t, g, iri, rdf.RDFSLabel, enLit("Test Title"))
	hasTriple(t, g, iri, curriculum.DCTitle, enLit("Test Title"))
	hasTriple(t, g, iri, rdf.RDFSComment, enLit("Test description."))
	hasTriple(t, g, iri, curriculum.OWLVersionInfo, rdf.NewLiteral("0.1.0"))
	hasTriple(t, g, iri, curriculum.DCCreator, rdf.NewLiteral("Department for Education"))
	hasTriple(t, g, iri, curriculum.DCCreated, rdf.NewTypedLiteral("2025-06-01", rdf.XSDDate))
	hasTriple(t, g, iri, curriculum.DCLicense, oglLicense)
	hasTriple(t, g, iri, curriculum.DCRights, enLit("Crown Copyright"))
	hasTriple(t, g, iri, curriculum.OWLImports, rdf.IRI(curriculum.Namespace))
	assert.Equal(t, 10, g.Len())
}

func TestDiscoverSubjects(t *testing.T) {
	export := loadFixture(t)

	// science comes from the subject document, history from a
	// sub-subject reference.
	assert.Equal(t, []string{"history", "science"}, DiscoverSubjects(export))

	assert.Empty(t, DiscoverSubjects(&Export{}))
}

func TestSubjectSlice(t *testing.T) {
	export := loadFixture(t)

	slice := SubjectSlice(export, "science")
	assert.Len(t, slice.Subjects, 1)
	assert.Len(t, slice.SubSubjects, 1)
	assert.Len(t, slice.Disciplines, 1)
	assert.Len(t, slice.Strands, 1)
	assert.Len(t, slice.SubStrands, 1)
	assert.Len(t, slice.ContentDescriptors, 1)
	assert.Len(t, slice.ContentSubDescriptors, 1)
	assert.Len(t, slice.Schemes, 1)
	assert.Len(t, slice.Progressions, 1)

	// Programme structure stays global.
	assert.Empty(t, slice.Phases)
	assert.Empty(t, slice.KeyStages)

	empty := SubjectSlice(export, "geography")
	assert.Zero(t, empty.Len())
}

func TestSubjectSliceBreaksChain(t *testing.T) {
	export := loadFixture(t)

	// history has a sub-subject but no subject document, so nothing
	// downstream of the discipline chain is picked up.
	slice := SubjectSlice(export, "history")
	assert.Empty(t, slice.Subjects)
	assert.Len(t, slice.SubSubjects, 1)
	assert.Empty(t, slice.Disciplines)
	assert.Empty(t, slice.Strands)
}

func TestBuild(t *testing.T) {
	export := loadFixture(t)
	outputs := quietBuilder().Build(export, nil)

	var paths []string
	for _, out := range outputs {
		paths = append(paths, out.Path)
	}
	// history is discovered but has no subject document, so only the
	// science trio joins the two shared files.
	assert.Equal(t, []string{
		"programme-structure.ttl",
		"themes.ttl",
		filepath.Join("subjects", "science", "science-subject.ttl"),
		filepath.Join("subjects", "science", "science-knowledge-taxonomy.ttl"),
		filepath.Join("subjects", "science", "science-schemes.ttl"),
	}, paths)

	prog := outputs[0].Graph
	hasTriple(t, prog, eng("primary"), rdf.RDFType, curriculum.ClassPhase)
	hasTriple(t, prog, eng("year-1"), rdf.RDFType, curriculum.ClassYearGroup)
	hasTriple(t, prog,
		rdf.IRI(curriculum.EnglandNamespace+"programme-structure"),
		rdf.RDFType, curriculum.OWLOntology)

	themes := outputs[1].Graph
	hasTriple(t, themes, curriculum.ThemesScheme, rdf.RDFType, curriculum.SKOSConceptScheme)
	hasTriple(t, themes, curriculum.ThemesScheme, curriculum.SKOSPrefLabel, enLit("Cross-Cutting Themes"))
	hasTriple(t, themes, eng("theme-sustainability"), curriculum.SKOSInScheme, curriculum.ThemesScheme)

	taxonomy := outputs[3].Graph
	hasTriple(t, taxonomy, eng("strand-cells"), curriculum.SKOSBroader, eng("discipline-biology"))

	schemes := outputs[4].Graph
	hasTriple(t, schemes, eng("scheme-biology-ks2"), rdf.RDFType, curriculum.ClassScheme)
	hasTriple(t, schemes, eng("progression-cells"), rdf.RDFType, curriculum.ClassProgression)
}

func TestBuildSubjectFilter(t *testing.T) {
	export := loadFixture(t)

	outputs := quietBuilder().Build(export, []string{"science"})
	assert.Len(t, outputs, 5)

	// An unknown subject leaves just the shared files.
	outputs = quietBuilder().Build(export, []string{"geography"})
	assert.Len(t, outputs, 2)

	// "all" falls back to discovery.
	outputs = quietBuilder().Build(export, []string{"all"})
	assert.Len(t, outputs, 5)
}

func TestBuildNoThemes(t *testing.T) {
	export := loadFixture(t)
	export.Themes = nil

	outputs := quietBuilder().Build(export, []string{"science"})
	require.Len(t, outputs, 4)
	assert.Equal(t, "programme-structure.ttl", outputs[0].Path)
	assert.Equal(t, filepath.Join("subjects", "science", "science-subject.ttl"), outputs[1].Path)
}

func TestWriteAll(t *testing.T) {
	export := loadFixture(t)
	builder := quietBuilder()
	outputs := builder.Build(export, []string{"science"})

	root := t.TempDir()
	require.NoError(t, builder.WriteAll(root, outputs, curriculum.Namespaces()))

	doc, err := turtle.ParseFile(filepath.Join(root, "programme-structure.ttl"))
	require.NoError(t, err)
	assert.True(t, doc.Graph.Has(rdf.Triple{
		Subject:   eng("primary"),
		Predicate: rdf.RDFType,
		Object:    curriculum.ClassPhase,
	}))

	data, err := os.ReadFile(filepath.Join(root, "subjects", "science", "science-subject.ttl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "curric:Subject")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Science", titleCase("science"))
	assert.Equal(t, "Design And Technology", titleCase("design-and-technology"))
	assert.Equal(t, "", titleCase(""))
}

func TestSyncState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sanity-sync.json")

	// Missing file yields a zero state.
	state, err := LoadSyncState(path)
	require.NoError(t, err)
	assert.True(t, state.LastRun.IsZero())

	state.LastRun = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, state.Save(path))

	loaded, err := LoadSyncState(path)
	require.NoError(t, err)
	assert.True(t, state.LastRun.Equal(loaded.LastRun))
}

func TestSyncStateCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadSyncState(path)
	require.Error(t, err)
}
