package curriculum

import "github.com/oaknational/currigraph/rdf"

// Namespace is the base IRI prefix for the curriculum schema.
const Namespace = "https://w3id.org/uk/curriculum/core/"

// EnglandNamespace is the base IRI for English national curriculum
// individuals.
const EnglandNamespace = "https://w3id.org/uk/curriculum/england/"

// Prefix labels conventionally bound to the two namespaces.
const (
	Prefix        = "curric"
	EnglandPrefix = "eng"
)

// Class IRIs define the structural types of the curriculum ontology.
const (
	// ClassPhase represents an education phase such as primary or
	// secondary.
	ClassPhase rdf.IRI = Namespace + "Phase"

	// ClassKeyStage represents a statutory key stage within a phase.
	ClassKeyStage rdf.IRI = Namespace + "KeyStage"

	// ClassYearGroup represents a single school year within a key stage.
	ClassYearGroup rdf.IRI = Namespace + "YearGroup"

	// ClassDiscipline represents a broad disciplinary grouping of
	// subjects, such as science or the arts.
	ClassDiscipline rdf.IRI = Namespace + "Discipline"

	// ClassSubject represents a taught subject.
	ClassSubject rdf.IRI = Namespace + "Subject"

	// ClassSubSubject represents a named sub-division of a subject, such
	// as biology within science.
	ClassSubSubject rdf.IRI = Namespace + "SubSubject"

	// ClassStrand represents a top-level division of a subject's
	// knowledge taxonomy.
	ClassStrand rdf.IRI = Namespace + "Strand"

	// ClassSubStrand represents a division of a strand.
	ClassSubStrand rdf.IRI = Namespace + "SubStrand"

	// ClassContentDescriptor represents a teachable item of knowledge
	// within a strand or sub-strand.
	ClassContentDescriptor rdf.IRI = Namespace + "ContentDescriptor"

	// ClassContentSubDescriptor represents a finer-grained part of a
	// content descriptor.
	ClassContentSubDescriptor rdf.IRI = Namespace + "ContentSubDescriptor"

	// ClassScheme represents a published grouping of curriculum
	// concepts, modelled as a skos:ConceptScheme.
	ClassScheme rdf.IRI = Namespace + "Scheme"

	// ClassProgression represents an ordered progression of content
	// across year groups.
	ClassProgression rdf.IRI = Namespace + "Progression"

	// ClassTheme represents a cross-cutting theme linking content from
	// several subjects.
	ClassTheme rdf.IRI = Namespace + "Theme"
)

// Object property IRIs relate curriculum entities to each other.
const (
	// PropHasPart links an entity to its parts.
	// Inverse: PropIsPartOf.
	PropHasPart rdf.IRI = Namespace + "hasPart"

	// PropIsPartOf links an entity to its whole.
	// Inverse: PropHasPart.
	PropIsPartOf rdf.IRI = Namespace + "isPartOf"

	// PropHasKeyStage links a phase or subject to a key stage.
	PropHasKeyStage rdf.IRI = Namespace + "hasKeyStage"

	// PropHasYearGroup links a key stage to its year groups.
	PropHasYearGroup rdf.IRI = Namespace + "hasYearGroup"

	// PropHasDiscipline links a subject to its discipline.
	PropHasDiscipline rdf.IRI = Namespace + "hasDiscipline"

	// PropHasStrand links an entity to a strand or sub-strand of the
	// knowledge taxonomy.
	PropHasStrand rdf.IRI = Namespace + "hasStrand"

	// PropHasContentDescriptor links a strand or sub-strand to a content
	// descriptor.
	PropHasContentDescriptor rdf.IRI = Namespace + "hasContentDescriptor"

	// PropHasTheme links a content descriptor or unit to a theme.
	PropHasTheme rdf.IRI = Namespace + "hasTheme"
)

// Datatype property IRIs carry literal values.
const (
	// PropHasAim is the stated aim text of a subject or key stage.
	PropHasAim rdf.IRI = Namespace + "hasAim"

	// PropLowerAgeBoundary is the lower bound of the age range, in
	// years.
	PropLowerAgeBoundary rdf.IRI = Namespace + "lowerAgeBoundary"

	// PropUpperAgeBoundary is the upper bound of the age range, in
	// years.
	PropUpperAgeBoundary rdf.IRI = Namespace + "upperAgeBoundary"

	// PropExample is a worked example illustrating a content descriptor.
	PropExample rdf.IRI = Namespace + "example"

	// PropExampleURL is a link to an external example resource.
	PropExampleURL rdf.IRI = Namespace + "exampleURL"
)

// SKOS term IRIs used when layering taxonomy entities as concepts.
const (
	SKOSConcept       rdf.IRI = rdf.NSSKOS + "Concept"
	SKOSConceptScheme rdf.IRI = rdf.NSSKOS + "ConceptScheme"
	SKOSPrefLabel     rdf.IRI = rdf.NSSKOS + "prefLabel"
	SKOSAltLabel      rdf.IRI = rdf.NSSKOS + "altLabel"
	SKOSDefinition    rdf.IRI = rdf.NSSKOS + "definition"
	SKOSScopeNote     rdf.IRI = rdf.NSSKOS + "scopeNote"
	SKOSNotation      rdf.IRI = rdf.NSSKOS + "notation"
	SKOSBroader       rdf.IRI = rdf.NSSKOS + "broader"
	SKOSNarrower      rdf.IRI = rdf.NSSKOS + "narrower"
	SKOSInScheme      rdf.IRI = rdf.NSSKOS + "inScheme"
	SKOSTopConceptOf  rdf.IRI = rdf.NSSKOS + "topConceptOf"
	SKOSHasTopConcept rdf.IRI = rdf.NSSKOS + "hasTopConcept"
)

// Dublin Core term IRIs used in ontology headers.
const (
	DCTitle       rdf.IRI = rdf.NSDCTerms + "title"
	DCDescription rdf.IRI = rdf.NSDCTerms + "description"
	DCCreator     rdf.IRI = rdf.NSDCTerms + "creator"
	DCCreated     rdf.IRI = rdf.NSDCTerms + "created"
	DCModified    rdf.IRI = rdf.NSDCTerms + "modified"
	DCPublisher   rdf.IRI = rdf.NSDCTerms + "publisher"
	DCLicense     rdf.IRI = rdf.NSDCTerms + "license"
	DCRights      rdf.IRI = rdf.NSDCTerms + "rights"
	DCSource      rdf.IRI = rdf.NSDCTerms + "source"
)

// OWL term IRIs used by the dataset assembler and ontology headers.
const (
	OWLOntology    rdf.IRI = rdf.NSOWL + "Ontology"
	OWLImports     rdf.IRI = rdf.NSOWL + "imports"
	OWLVersionIRI  rdf.IRI = rdf.NSOWL + "versionIRI"
	OWLVersionInfo rdf.IRI = rdf.NSOWL + "versionInfo"
)

// Scheme individuals published for the English national curriculum.
const (
	// KnowledgeTaxonomyScheme groups the strand and content descriptor
	// hierarchy for every subject.
	KnowledgeTaxonomyScheme rdf.IRI = EnglandNamespace + "knowledge-taxonomy"

	// ThemesScheme groups the cross-cutting themes.
	ThemesScheme rdf.IRI = EnglandNamespace + "themes-scheme"
)

// Namespaces returns a prefix table with the curriculum, England, and
// common vocabulary namespaces bound.
func Namespaces() *rdf.Namespaces {
	ns := rdf.CommonNamespaces()
	ns.Bind(Prefix, Namespace)
	ns.Bind(EnglandPrefix, EnglandNamespace)
	return ns
}
