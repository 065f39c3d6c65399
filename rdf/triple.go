package rdf

import "sort"

// Triple is a single RDF statement. Subjects are IRIs or blank nodes,
// predicates are IRIs, objects may be any term.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String returns the N-Triples encoding of the statement.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// SortTriples orders triples by subject, then predicate, then object so that
// serialized output is stable across runs.
func SortTriples(ts []Triple) {
	sort.Slice(ts, func(i, j int) bool {
		if c := CompareTerms(ts[i].Subject, ts[j].Subject); c != 0 {
			return c < 0
		}
		if c := CompareTerms(ts[i].Predicate, ts[j].Predicate); c != 0 {
			return c < 0
		}
		return CompareTerms(ts[i].Object, ts[j].Object) < 0
	})
}
