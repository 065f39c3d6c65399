package sanity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

// headerVersion stamps owl:versionInfo on every generated file.
const headerVersion = "0.1.0"

// oglLicense is the Open Government Licence v3 IRI.
const oglLicense rdf.IRI = "http://www.nationalarchives.gov.uk/doc/open-government-licence/version/3/"

// OntologyHeader adds the shared metadata block that opens every
// generated Turtle file.
func OntologyHeader(g *rdf.Graph, iri rdf.IRI, title, description string, created time.Time) {
	add := func(p rdf.IRI, o rdf.Term) {
		g.Add(rdf.Triple{Subject: iri, Predicate: p, Object: o})
	}
	add(rdf.RDFType, curriculum.OWLOntology)
	add(rdf.RDFSLabel, en(title))
	add(curriculum.DCTitle, en(title))
	add(rdf.RDFSComment, en(description))
	add(curriculum.OWLVersionInfo, rdf.NewLiteral(headerVersion))
	add(curriculum.DCCreator, rdf.NewLiteral("Department for Education"))
	add(curriculum.DCCreated, rdf.NewTypedLiteral(created.Format("2006-01-02"), rdf.XSDDate))
	add(curriculum.DCLicense, oglLicense)
	add(curriculum.DCRights, en("Crown Copyright"))
	add(curriculum.OWLImports, rdf.IRI(curriculum.Namespace))
}

// Output is one generated Turtle file, its path relative to the output
// root.
type Output struct {
	Path  string
	Graph *rdf.Graph
}

// Builder assembles the output file set from an export.
type Builder struct {
	conv *Converter
	now  func() time.Time
	log  *slog.Logger
}

// NewBuilder returns a Builder logging through logger, or slog.Default
// when nil.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		conv: NewConverter(),
		now:  time.Now,
		log:  logger,
	}
}

// Build converts an export into the full output file set: the programme
// structure, the themes file when themes are present, and the per-subject
// trio for each requested subject. An empty or "all" subjects list
// converts every discovered subject.
func (b *Builder) Build(export *Export, subjects []string) []Output {
	var outputs []Output

	prog := rdf.NewGraph()
	OntologyHeader(prog,
		rdf.IRI(curriculum.EnglandNamespace+"programme-structure"),
		"National Curriculum for England - Programme Structure",
		"Programme structure defining phases, key stages, and year groups.",
		b.now())
	b.conv.Phases(prog, export.Phases)
	b.conv.KeyStages(prog, export.KeyStages)
	b.conv.YearGroups(prog, export.YearGroups)
	outputs = append(outputs, Output{Path: "programme-structure.ttl", Graph: prog})

	if len(export.Themes) > 0 {
		themes := rdf.NewGraph()
		OntologyHeader(themes,
			rdf.IRI(curriculum.EnglandNamespace+"themes"),
			"National Curriculum for England - Themes",
			"Cross-cutting themes spanning multiple subjects.",
			b.now())
		themes.Add(rdf.Triple{Subject: curriculum.ThemesScheme, Predicate: rdf.RDFType, Object: curriculum.SKOSConceptScheme})
		themes.Add(rdf.Triple{Subject: curriculum.ThemesScheme, Predicate: curriculum.SKOSPrefLabel, Object: en("Cross-Cutting Themes")})
		b.conv.Themes(themes, export.Themes)
		outputs = append(outputs, Output{Path: "themes.ttl", Graph: themes})
	}

	names := subjects
	if len(names) == 0 || containsAll(names) {
		names = DiscoverSubjects(export)
	}
	if len(names) == 0 {
		b.log.Warn("no subjects found in export")
	}
	for _, subject := range names {
		slice := SubjectSlice(export, subject)
		if len(slice.Subjects) == 0 {
			b.log.Warn("no data for subject, skipping", "subject", subject)
			continue
		}
		outputs = append(outputs, b.subjectOutputs(subject, slice)...)
	}
	return outputs
}

// subjectOutputs builds the subject, knowledge taxonomy, and schemes
// files for one subject.
func (b *Builder) subjectOutputs(subject string, slice *Export) []Output {
	title := titleCase(subject)
	dir := filepath.Join("subjects", subject)

	subjectGraph := rdf.NewGraph()
	OntologyHeader(subjectGraph,
		rdf.IRI(curriculum.EnglandNamespace+subject+"-subject"),
		fmt.Sprintf("National Curriculum for England - %s Subject", title),
		fmt.Sprintf("%s subject definition, including aims and strands.", title),
		b.now())
	b.conv.Subjects(subjectGraph, slice.Subjects)
	b.conv.SubSubjects(subjectGraph, slice.SubSubjects)

	taxonomyGraph := rdf.NewGraph()
	OntologyHeader(taxonomyGraph,
		rdf.IRI(curriculum.EnglandNamespace+subject+"-knowledge-taxonomy"),
		fmt.Sprintf("National Curriculum for England - %s Knowledge Taxonomy", title),
		fmt.Sprintf("%s knowledge taxonomy from disciplines to content descriptors.", title),
		b.now())
	b.conv.Disciplines(taxonomyGraph, slice.Disciplines)
	b.conv.Strands(taxonomyGraph, slice.Strands)
	b.conv.SubStrands(taxonomyGraph, slice.SubStrands)
	b.conv.ContentDescriptors(taxonomyGraph, slice.ContentDescriptors)
	b.conv.ContentSubDescriptors(taxonomyGraph, slice.ContentSubDescriptors)

	schemesGraph := rdf.NewGraph()
	OntologyHeader(schemesGraph,
		rdf.IRI(curriculum.EnglandNamespace+subject+"-schemes"),
		fmt.Sprintf("National Curriculum for England - %s Schemes", title),
		fmt.Sprintf("%s schemes mapping content to key stages.", title),
		b.now())
	b.conv.Schemes(schemesGraph, slice.Schemes)
	b.conv.Progressions(schemesGraph, slice.Progressions)

	b.log.Info("converted subject",
		"subject", subject,
		"subjects", len(slice.Subjects),
		"disciplines", len(slice.Disciplines),
		"strands", len(slice.Strands),
		"descriptors", len(slice.ContentDescriptors),
		"schemes", len(slice.Schemes))

	return []Output{
		{Path: filepath.Join(dir, subject+"-subject.ttl"), Graph: subjectGraph},
		{Path: filepath.Join(dir, subject+"-knowledge-taxonomy.ttl"), Graph: taxonomyGraph},
		{Path: filepath.Join(dir, subject+"-schemes.ttl"), Graph: schemesGraph},
	}
}

// WriteAll serializes the outputs under root, creating directories as
// needed.
func (b *Builder) WriteAll(root string, outputs []Output, ns *rdf.Namespaces) error {
	for _, out := range outputs {
		path := filepath.Join(root, out.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := turtle.Write(f, out.Graph, ns); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
		b.log.Info("written", "path", path, "triples", out.Graph.Len())
	}
	return nil
}

// DiscoverSubjects lists the subject names present in the export, from
// subject-prefixed slugs and sub-subject references.
func DiscoverSubjects(export *Export) []string {
	seen := map[string]bool{}
	for _, doc := range export.Subjects {
		slug := doc.SlugValue()
		if strings.HasPrefix(slug, "subject-") {
			seen[strings.TrimPrefix(slug, "subject-")] = true
		}
	}
	for _, doc := range export.SubSubjects {
		if doc.Subject == nil {
			continue
		}
		slug := refSlug(*doc.Subject)
		if strings.HasPrefix(slug, "subject-") {
			seen[strings.TrimPrefix(slug, "subject-")] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubjectSlice filters the export down to one subject by following the
// reference chains from subject to discipline, strand, sub-strand,
// descriptor, sub-descriptor, and on to schemes and progressions.
// Programme structure documents are global and stay out of the slice.
func SubjectSlice(export *Export, subject string) *Export {
	slice := &Export{}
	want := "subject-" + subject

	for _, doc := range export.Subjects {
		if doc.SlugValue() == want {
			slice.Subjects = append(slice.Subjects, doc)
		}
	}
	for _, doc := range export.SubSubjects {
		if doc.Subject != nil && refSlug(*doc.Subject) == want {
			slice.SubSubjects = append(slice.SubSubjects, doc)
		}
	}

	disciplineIDs := map[string]bool{}
	for _, doc := range slice.Subjects {
		for _, ref := range doc.Disciplines {
			if slug := refSlug(ref); slug != "" {
				disciplineIDs[slug] = true
			}
		}
	}
	for _, doc := range export.Disciplines {
		if disciplineIDs[doc.SlugValue()] {
			slice.Disciplines = append(slice.Disciplines, doc)
		}
	}

	strandIDs := map[string]bool{}
	for _, doc := range export.Strands {
		if doc.Discipline != nil && disciplineIDs[refSlug(*doc.Discipline)] {
			strandIDs[doc.SlugValue()] = true
			slice.Strands = append(slice.Strands, doc)
		}
	}

	substrandIDs := map[string]bool{}
	for _, doc := range export.SubStrands {
		if doc.Strand != nil && strandIDs[refSlug(*doc.Strand)] {
			substrandIDs[doc.SlugValue()] = true
			slice.SubStrands = append(slice.SubStrands, doc)
		}
	}

	descriptorIDs := map[string]bool{}
	for _, doc := range export.ContentDescriptors {
		if doc.SubStrand != nil && substrandIDs[refSlug(*doc.SubStrand)] {
			descriptorIDs[doc.SlugValue()] = true
			slice.ContentDescriptors = append(slice.ContentDescriptors, doc)
		}
	}

	for _, doc := range export.ContentSubDescriptors {
		if doc.ContentDescriptor != nil && descriptorIDs[refSlug(*doc.ContentDescriptor)] {
			slice.ContentSubDescriptors = append(slice.ContentSubDescriptors, doc)
		}
	}

	subsubjectIDs := map[string]bool{}
	for _, doc := range slice.SubSubjects {
		subsubjectIDs[doc.SlugValue()] = true
	}
	schemeIDs := map[string]bool{}
	for _, doc := range export.Schemes {
		if doc.SubSubject != nil && subsubjectIDs[refSlug(*doc.SubSubject)] {
			schemeIDs[doc.SlugValue()] = true
			slice.Schemes = append(slice.Schemes, doc)
		}
	}

	for _, doc := range export.Progressions {
		if doc.Scheme != nil && schemeIDs[refSlug(*doc.Scheme)] {
			slice.Progressions = append(slice.Progressions, doc)
		}
	}

	return slice
}

// refSlug returns a reference target with any drafts. prefix stripped.
func refSlug(ref Reference) string {
	return strings.TrimPrefix(ref.Target(), "drafts.")
}

func containsAll(subjects []string) bool {
	for _, s := range subjects {
		if s == "all" {
			return true
		}
	}
	return false
}

// titleCase turns a hyphenated slug into a display title.
func titleCase(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// SyncState records the last successful conversion for incremental
// fetches.
type SyncState struct {
	LastRun time.Time `json:"lastRun"`
}

// LoadSyncState reads the sync state file. A missing file yields a zero
// state.
func LoadSyncState(path string) (SyncState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SyncState{}, nil
		}
		return SyncState{}, fmt.Errorf("reading sync state: %w", err)
	}
	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return SyncState{}, fmt.Errorf("parsing sync state %s: %w", path, err)
	}
	return state, nil
}

// Save writes the sync state file.
func (s SyncState) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating sync state directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
