package sanity

import (
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

// htmlTag detects markup in rich-text fields. Plain prose passes through
// untouched.
var htmlTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// Converter maps Sanity documents onto curriculum triples.
type Converter struct {
	markdown *md.Converter
}

// NewConverter returns a Converter with the html-to-markdown pipeline
// configured for GitHub-flavored output.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{markdown: converter}
}

// uri builds the England-namespace IRI for a document id, stripping any
// drafts. prefix.
func (c *Converter) uri(id string) rdf.IRI {
	return rdf.IRI(curriculum.EnglandNamespace + strings.TrimPrefix(id, "drafts."))
}

// refIRI resolves a reference field to its target IRI.
func (c *Converter) refIRI(ref *Reference) (rdf.IRI, bool) {
	if ref == nil {
		return "", false
	}
	target := ref.Target()
	if target == "" {
		return "", false
	}
	return c.uri(target), true
}

// text normalizes a rich-text field: HTML is converted to markdown, plain
// strings pass through. Conversion failures fall back to the raw value.
func (c *Converter) text(s string) string {
	if !htmlTag.MatchString(s) {
		return s
	}
	converted, err := c.markdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(converted)
}

func en(s string) rdf.Literal {
	return rdf.NewLangLiteral(s, "en")
}

func (c *Converter) add(g *rdf.Graph, s rdf.Term, p rdf.IRI, o rdf.Term) {
	g.Add(rdf.Triple{Subject: s, Predicate: p, Object: o})
}

// ageBoundaries emits the typed age range literals shared by phases, key
// stages, and year groups.
func (c *Converter) ageBoundaries(g *rdf.Graph, uri rdf.IRI, doc Document) {
	if doc.LowerAgeBoundary != nil {
		lower := rdf.NewTypedLiteral(strconv.Itoa(*doc.LowerAgeBoundary), rdf.XSDNonNegativeInteger)
		c.add(g, uri, curriculum.PropLowerAgeBoundary, lower)
	}
	if doc.UpperAgeBoundary != nil {
		upper := rdf.NewTypedLiteral(strconv.Itoa(*doc.UpperAgeBoundary), rdf.XSDPositiveInteger)
		c.add(g, uri, curriculum.PropUpperAgeBoundary, upper)
	}
}

// Phases converts phase documents.
func (c *Converter) Phases(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassPhase)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		c.ageBoundaries(g, uri, doc)
	}
}

// KeyStages converts key stage documents.
func (c *Converter) KeyStages(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassKeyStage)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		c.ageBoundaries(g, uri, doc)
		if phase, ok := c.refIRI(doc.Phase); ok {
			c.add(g, uri, curriculum.PropIsPartOf, phase)
		}
	}
}

// YearGroups converts year group documents.
func (c *Converter) YearGroups(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassYearGroup)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		c.ageBoundaries(g, uri, doc)
		if ks, ok := c.refIRI(doc.KeyStage); ok {
			c.add(g, uri, curriculum.PropIsPartOf, ks)
		}
	}
}

// Disciplines converts discipline documents as top concepts of the
// knowledge taxonomy.
func (c *Converter) Disciplines(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.SKOSConcept)
		c.add(g, uri, rdf.RDFType, curriculum.ClassDiscipline)
		if doc.PrefLabel != "" {
			c.add(g, uri, curriculum.SKOSPrefLabel, en(doc.PrefLabel))
		}
		if doc.Definition != "" {
			c.add(g, uri, curriculum.SKOSDefinition, en(c.text(doc.Definition)))
		}
		if doc.ScopeNote != "" {
			c.add(g, uri, curriculum.SKOSScopeNote, en(doc.ScopeNote))
		}
		c.add(g, uri, curriculum.SKOSTopConceptOf, curriculum.KnowledgeTaxonomyScheme)
		c.add(g, uri, curriculum.SKOSInScheme, curriculum.KnowledgeTaxonomyScheme)
	}
}

// Subjects converts subject documents.
func (c *Converter) Subjects(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassSubject)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		for _, ref := range doc.Disciplines {
			if disc, ok := c.refIRI(&ref); ok {
				c.add(g, uri, curriculum.PropHasDiscipline, disc)
			}
		}
	}
}

// concept emits the triples shared by every knowledge-taxonomy concept:
// the dual typing, prefLabel, optional definition, a broader link, and
// scheme membership.
func (c *Converter) concept(g *rdf.Graph, doc Document, class rdf.IRI, broader *Reference) rdf.IRI {
	uri := c.uri(doc.SlugValue())
	c.add(g, uri, rdf.RDFType, curriculum.SKOSConcept)
	c.add(g, uri, rdf.RDFType, class)
	if doc.PrefLabel != "" {
		c.add(g, uri, curriculum.SKOSPrefLabel, en(doc.PrefLabel))
	}
	if doc.Definition != "" {
		c.add(g, uri, curriculum.SKOSDefinition, en(c.text(doc.Definition)))
	}
	if parent, ok := c.refIRI(broader); ok {
		c.add(g, uri, curriculum.SKOSBroader, parent)
	}
	c.add(g, uri, curriculum.SKOSInScheme, curriculum.KnowledgeTaxonomyScheme)
	return uri
}

// Strands converts strand documents, broader than their discipline.
func (c *Converter) Strands(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		c.concept(g, doc, curriculum.ClassStrand, doc.Discipline)
	}
}

// SubStrands converts sub-strand documents, broader than their strand.
func (c *Converter) SubStrands(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		c.concept(g, doc, curriculum.ClassSubStrand, doc.Strand)
	}
}

// ContentDescriptors converts content descriptor documents, broader than
// their sub-strand.
func (c *Converter) ContentDescriptors(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		c.concept(g, doc, curriculum.ClassContentDescriptor, doc.SubStrand)
	}
}

// ContentSubDescriptors converts content sub-descriptor documents,
// broader than their descriptor, with worked examples.
func (c *Converter) ContentSubDescriptors(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.concept(g, doc, curriculum.ClassContentSubDescriptor, doc.ContentDescriptor)
		if doc.ExampleText != "" {
			c.add(g, uri, curriculum.PropExample, en(c.text(doc.ExampleText)))
		}
		if doc.ExampleURL != "" {
			c.add(g, uri, curriculum.PropExampleURL, rdf.NewTypedLiteral(doc.ExampleURL, rdf.XSDAnyURI))
		}
	}
}

// SubSubjects converts sub-subject documents, including their aims.
func (c *Converter) SubSubjects(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassSubSubject)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		if doc.FullDescription != "" {
			c.add(g, uri, curriculum.DCDescription, en(c.text(doc.FullDescription)))
		}
		if doc.SourceURL != "" {
			c.add(g, uri, curriculum.DCSource, rdf.IRI(doc.SourceURL))
		}
		if subject, ok := c.refIRI(doc.Subject); ok {
			c.add(g, uri, curriculum.PropIsPartOf, subject)
		}
		for _, ref := range doc.Strands {
			if strand, ok := c.refIRI(&ref); ok {
				c.add(g, uri, curriculum.PropHasStrand, strand)
			}
		}
		for _, aim := range doc.Aims {
			if aim.AimText != "" {
				c.add(g, uri, curriculum.PropHasAim, en(aim.AimText))
			}
		}
	}
}

// Schemes converts scheme documents.
func (c *Converter) Schemes(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassScheme)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		if ss, ok := c.refIRI(doc.SubSubject); ok {
			c.add(g, uri, curriculum.PropIsPartOf, ss)
		}
		if ks, ok := c.refIRI(doc.KeyStage); ok {
			c.add(g, uri, curriculum.PropHasKeyStage, ks)
		}
		for _, ref := range doc.ContentDescriptors {
			if cd, ok := c.refIRI(&ref); ok {
				c.add(g, uri, curriculum.PropHasContentDescriptor, cd)
			}
		}
	}
}

// Progressions converts progression documents: part of a scheme, tracking
// content descriptors within a sub-strand.
func (c *Converter) Progressions(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.ClassProgression)
		if doc.Label != "" {
			c.add(g, uri, rdf.RDFSLabel, en(doc.Label))
		}
		if doc.Description != "" {
			c.add(g, uri, rdf.RDFSComment, en(c.text(doc.Description)))
		}
		if scheme, ok := c.refIRI(doc.Scheme); ok {
			c.add(g, uri, curriculum.PropIsPartOf, scheme)
		}
		if ss, ok := c.refIRI(doc.SubStrand); ok {
			c.add(g, uri, curriculum.PropHasStrand, ss)
		}
		for _, ref := range doc.ContentDescriptors {
			if cd, ok := c.refIRI(&ref); ok {
				c.add(g, uri, curriculum.PropHasContentDescriptor, cd)
			}
		}
	}
}

// Themes converts theme documents into the themes concept scheme.
func (c *Converter) Themes(g *rdf.Graph, docs []Document) {
	for _, doc := range docs {
		uri := c.uri(doc.SlugValue())
		c.add(g, uri, rdf.RDFType, curriculum.SKOSConcept)
		c.add(g, uri, rdf.RDFType, curriculum.ClassTheme)
		if doc.PrefLabel != "" {
			c.add(g, uri, curriculum.SKOSPrefLabel, en(doc.PrefLabel))
		}
		if doc.Definition != "" {
			c.add(g, uri, curriculum.SKOSDefinition, en(c.text(doc.Definition)))
		}
		c.add(g, uri, curriculum.SKOSInScheme, curriculum.ThemesScheme)
	}
}
