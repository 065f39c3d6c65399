package curriculum

import "github.com/oaknational/currigraph/rdf"

// StructuralClasses lists the classes that make up the programme
// structure, in hierarchy order.
var StructuralClasses = []rdf.IRI{
	ClassPhase,
	ClassKeyStage,
	ClassYearGroup,
	ClassDiscipline,
	ClassSubject,
	ClassSubSubject,
}

// TaxonomyClasses lists the classes whose individuals are additionally
// published as skos:Concept within a concept scheme.
var TaxonomyClasses = []rdf.IRI{
	ClassStrand,
	ClassSubStrand,
	ClassContentDescriptor,
	ClassContentSubDescriptor,
	ClassTheme,
}

// Classes lists every class in the vocabulary.
var Classes = func() []rdf.IRI {
	all := make([]rdf.IRI, 0, len(StructuralClasses)+len(TaxonomyClasses)+2)
	all = append(all, StructuralClasses...)
	all = append(all, TaxonomyClasses...)
	all = append(all, ClassScheme, ClassProgression)
	return all
}()

// ClassLabels maps class IRIs to display labels for reports and tables.
var ClassLabels = map[rdf.IRI]string{
	ClassPhase:                "Phase",
	ClassKeyStage:             "Key stage",
	ClassYearGroup:            "Year group",
	ClassDiscipline:           "Discipline",
	ClassSubject:              "Subject",
	ClassSubSubject:           "Sub-subject",
	ClassStrand:               "Strand",
	ClassSubStrand:            "Sub-strand",
	ClassContentDescriptor:    "Content descriptor",
	ClassContentSubDescriptor: "Content sub-descriptor",
	ClassScheme:               "Scheme",
	ClassProgression:          "Progression",
	ClassTheme:                "Theme",
}

// IsTaxonomyClass reports whether individuals of class receive the SKOS
// concept layering.
func IsTaxonomyClass(class rdf.IRI) bool {
	for _, c := range TaxonomyClasses {
		if c == class {
			return true
		}
	}
	return false
}
