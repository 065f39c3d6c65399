package dataset

import (
	"sort"
	"strings"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

// LocalImportPrefix marks owl:imports targets that must resolve to a file
// inside the dataset rather than a published external ontology.
const LocalImportPrefix = "https://w3id.org/uk/curriculum/"

// ImportStatus is the audit result for one local owl:imports target.
type ImportStatus struct {
	IRI rdf.IRI
	// Satisfied reports whether some merged file declares the target as
	// its ontology IRI.
	Satisfied bool
}

// ImportsReport is the result of auditing owl:imports statements.
type ImportsReport struct {
	// Local are imports under LocalImportPrefix, sorted by IRI.
	Local []ImportStatus
	// External are imports of published third-party ontologies, sorted.
	External []rdf.IRI
}

// Unsatisfied returns the local imports that no merged file declares.
func (r ImportsReport) Unsatisfied() []rdf.IRI {
	var out []rdf.IRI
	for _, imp := range r.Local {
		if !imp.Satisfied {
			out = append(out, imp.IRI)
		}
	}
	return out
}

// AuditImports collects every owl:imports target in the dataset and splits
// it into local imports, checked against the ontology IRIs the merged
// files declare, and external imports, which are reported but not checked.
func (d *Dataset) AuditImports() ImportsReport {
	declared := make(map[rdf.IRI]bool, len(d.Files))
	for _, f := range d.Files {
		if f.Ontology != "" {
			declared[f.Ontology] = true
		}
	}

	localSeen := make(map[rdf.IRI]bool)
	externalSeen := make(map[rdf.IRI]bool)
	for _, t := range d.Graph.Match(nil, curriculum.OWLImports, nil) {
		target, ok := t.Object.(rdf.IRI)
		if !ok {
			continue
		}
		if strings.HasPrefix(string(target), LocalImportPrefix) {
			localSeen[target] = true
		} else {
			externalSeen[target] = true
		}
	}

	var report ImportsReport
	for iri := range localSeen {
		report.Local = append(report.Local, ImportStatus{
			IRI: iri,
			// A trailing-slash variant of a declared IRI still counts;
			// source files are inconsistent about the final slash.
			Satisfied: declared[iri] || declared[rdf.IRI(strings.TrimSuffix(string(iri), "/"))],
		})
	}
	sort.Slice(report.Local, func(i, j int) bool { return report.Local[i].IRI < report.Local[j].IRI })

	for iri := range externalSeen {
		report.External = append(report.External, iri)
	}
	sort.Slice(report.External, func(i, j int) bool { return report.External[i] < report.External[j] })

	return report
}
