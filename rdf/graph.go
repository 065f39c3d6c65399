package rdf

import "sort"

// Graph is an in-memory set of triples with term indexes on each position.
// The zero value is not usable; call NewGraph. Graph is not safe for
// concurrent mutation.
type Graph struct {
	triples     map[Triple]struct{}
	bySubject   map[Term]map[Triple]struct{}
	byPredicate map[Term]map[Triple]struct{}
	byObject    map[Term]map[Triple]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		triples:     make(map[Triple]struct{}),
		bySubject:   make(map[Term]map[Triple]struct{}),
		byPredicate: make(map[Term]map[Triple]struct{}),
		byObject:    make(map[Term]map[Triple]struct{}),
	}
}

// Add inserts a triple. Duplicate statements are ignored.
func (g *Graph) Add(t Triple) {
	if _, ok := g.triples[t]; ok {
		return
	}
	g.triples[t] = struct{}{}
	addIndex(g.bySubject, t.Subject, t)
	addIndex(g.byPredicate, t.Predicate, t)
	addIndex(g.byObject, t.Object, t)
}

// AddAll inserts every triple in ts.
func (g *Graph) AddAll(ts []Triple) {
	for _, t := range ts {
		g.Add(t)
	}
}

// Merge inserts every triple from other.
func (g *Graph) Merge(other *Graph) {
	for t := range other.triples {
		g.Add(t)
	}
}

// Remove deletes a triple if present.
func (g *Graph) Remove(t Triple) {
	if _, ok := g.triples[t]; !ok {
		return
	}
	delete(g.triples, t)
	removeIndex(g.bySubject, t.Subject, t)
	removeIndex(g.byPredicate, t.Predicate, t)
	removeIndex(g.byObject, t.Object, t)
}

// Has reports whether the exact triple is present.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.triples[t]
	return ok
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Match returns all triples matching the pattern. A nil term matches any
// value in that position. Result order is unspecified.
func (g *Graph) Match(s, p, o Term) []Triple {
	candidates := g.candidates(s, p, o)
	if candidates == nil {
		out := make([]Triple, 0, len(g.triples))
		for t := range g.triples {
			out = append(out, t)
		}
		return out
	}
	var out []Triple
	for t := range candidates {
		if matches(t, s, p, o) {
			out = append(out, t)
		}
	}
	return out
}

// ForEach invokes fn for every triple until fn returns false.
func (g *Graph) ForEach(fn func(Triple) bool) {
	for t := range g.triples {
		if !fn(t) {
			return
		}
	}
}

// Triples returns every triple sorted by subject, predicate, object.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, 0, len(g.triples))
	for t := range g.triples {
		out = append(out, t)
	}
	SortTriples(out)
	return out
}

// Subjects returns the distinct subjects, sorted.
func (g *Graph) Subjects() []Term {
	out := make([]Term, 0, len(g.bySubject))
	for s := range g.bySubject {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return CompareTerms(out[i], out[j]) < 0 })
	return out
}

// Objects returns the objects of all (s, p, ?) triples, sorted.
func (g *Graph) Objects(s, p Term) []Term {
	ts := g.Match(s, p, nil)
	out := make([]Term, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Object)
	}
	sort.Slice(out, func(i, j int) bool { return CompareTerms(out[i], out[j]) < 0 })
	return out
}

// First returns the object of the first (s, p, ?) triple in sorted order.
func (g *Graph) First(s, p Term) (Term, bool) {
	os := g.Objects(s, p)
	if len(os) == 0 {
		return nil, false
	}
	return os[0], true
}

// SubjectsOfType returns the subjects of all (?, rdf:type, class) triples,
// sorted.
func (g *Graph) SubjectsOfType(class Term) []Term {
	ts := g.Match(nil, RDFType, class)
	seen := make(map[Term]struct{}, len(ts))
	out := make([]Term, 0, len(ts))
	for _, t := range ts {
		if _, ok := seen[t.Subject]; ok {
			continue
		}
		seen[t.Subject] = struct{}{}
		out = append(out, t.Subject)
	}
	sort.Slice(out, func(i, j int) bool { return CompareTerms(out[i], out[j]) < 0 })
	return out
}

// Predicates returns the distinct predicates, sorted.
func (g *Graph) Predicates() []Term {
	out := make([]Term, 0, len(g.byPredicate))
	for p := range g.byPredicate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return CompareTerms(out[i], out[j]) < 0 })
	return out
}

// candidates returns the smallest index bucket covering the bound positions,
// or nil when every position is a wildcard.
func (g *Graph) candidates(s, p, o Term) map[Triple]struct{} {
	var best map[Triple]struct{}
	found := false
	consider := func(m map[Triple]struct{}) {
		if !found || len(m) < len(best) {
			best = m
			found = true
		}
	}
	if s != nil {
		consider(g.bySubject[s])
	}
	if p != nil {
		consider(g.byPredicate[p])
	}
	if o != nil {
		consider(g.byObject[o])
	}
	if !found {
		return nil
	}
	if best == nil {
		return map[Triple]struct{}{}
	}
	return best
}

func matches(t Triple, s, p, o Term) bool {
	if s != nil && t.Subject != s {
		return false
	}
	if p != nil && t.Predicate != p {
		return false
	}
	if o != nil && t.Object != o {
		return false
	}
	return true
}

func addIndex(idx map[Term]map[Triple]struct{}, key Term, t Triple) {
	m, ok := idx[key]
	if !ok {
		m = make(map[Triple]struct{})
		idx[key] = m
	}
	m[t] = struct{}{}
}

func removeIndex(idx map[Term]map[Triple]struct{}, key Term, t Triple) {
	if m, ok := idx[key]; ok {
		delete(m, t)
		if len(m) == 0 {
			delete(idx, key)
		}
	}
}
