package sparql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oaknational/currigraph/rdf"
)

// Source is the triple pattern interface the evaluator queries. A nil term
// matches any value in that position. Both the in-memory graph and the
// persistent store satisfy it.
type Source interface {
	Match(s, p, o rdf.Term) []rdf.Triple
}

// Solution maps variable names to bound terms.
type Solution map[string]rdf.Term

// Execute evaluates the query against src.
func (q *Query) Execute(src Source) (*Results, error) {
	if q.Where == nil {
		return nil, fmt.Errorf("query has no pattern")
	}
	e := &evaluator{src: src, env: newExprEnv()}
	solutions := e.evalGroup(q.Where, []Solution{{}})

	switch q.Form {
	case FormAsk:
		matched := len(solutions) > 0
		return &Results{Form: FormAsk, Boolean: &matched}, nil
	case FormSelect:
		return q.selectResults(solutions), nil
	case FormConstruct:
		return &Results{Form: FormConstruct, Graph: e.construct(q.Template, solutions)}, nil
	case FormDescribe:
		return &Results{Form: FormDescribe, Graph: e.describe(q.Describe, solutions)}, nil
	}
	return nil, fmt.Errorf("unsupported query form %s", q.Form)
}

func (q *Query) selectResults(solutions []Solution) *Results {
	vars := q.Vars
	if len(vars) == 0 {
		vars = q.Where.PatternVars()
	}

	applyOrder(solutions, q.OrderBy)

	projected := make([]Solution, 0, len(solutions))
	for _, sol := range solutions {
		row := make(Solution, len(vars))
		for _, v := range vars {
			if term, ok := sol[v]; ok {
				row[v] = term
			}
		}
		projected = append(projected, row)
	}

	if q.Distinct {
		seen := make(map[string]struct{}, len(projected))
		deduped := projected[:0]
		for _, row := range projected {
			key := solutionKey(row, vars)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			deduped = append(deduped, row)
		}
		projected = deduped
	}

	projected = slice(projected, q.Offset, q.Limit)
	return &Results{Form: FormSelect, Vars: vars, Solutions: projected}
}

func slice(rows []Solution, offset, limit int) []Solution {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func solutionKey(sol Solution, vars []string) string {
	var sb strings.Builder
	for _, v := range vars {
		if term, ok := sol[v]; ok {
			sb.WriteString(term.String())
		}
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

func applyOrder(solutions []Solution, keys []OrderKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(solutions, func(i, j int) bool {
		for _, key := range keys {
			c := compareSolutions(solutions[i], solutions[j], key.Var)
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareSolutions orders two rows by one variable. Unbound sorts before
// bound; value comparison falls back to term ordering for mixed types.
func compareSolutions(a, b Solution, name string) int {
	ta, aok := a[name]
	tb, bok := b[name]
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	if c, ordered := compareValues(ta, tb); ordered {
		return c
	}
	return rdf.CompareTerms(ta, tb)
}

type evaluator struct {
	src Source
	env *exprEnv
}

// evalGroup evaluates the elements of a group left to right, applying the
// group's filters once the rest of the group has been evaluated.
func (e *evaluator) evalGroup(g *Group, input []Solution) []Solution {
	solutions := input
	var filters []Filter
	var run []TriplePattern
	flush := func() {
		if len(run) == 0 {
			return
		}
		bound := make(map[string]bool)
		if len(solutions) > 0 {
			for name := range solutions[0] {
				bound[name] = true
			}
		}
		for _, tp := range orderPatterns(run, bound) {
			solutions = e.evalPattern(tp, solutions)
		}
		run = nil
	}
	for _, element := range g.Elements {
		switch el := element.(type) {
		case TriplePattern:
			run = append(run, el)
		case Optional:
			flush()
			solutions = e.evalOptional(el, solutions)
		case Union:
			flush()
			left := e.evalGroup(el.Left, solutions)
			right := e.evalGroup(el.Right, solutions)
			solutions = append(left, right...)
		case SubGroup:
			flush()
			solutions = e.evalGroup(el.Group, solutions)
		case Filter:
			filters = append(filters, el)
		}
	}
	flush()
	for _, f := range filters {
		kept := solutions[:0]
		for _, sol := range solutions {
			if e.env.holds(f.Expr, sol) {
				kept = append(kept, sol)
			}
		}
		solutions = kept
	}
	return solutions
}

// orderPatterns arranges one basic graph pattern most-selective-first:
// the pattern with the most bound positions joins next, where bound means
// a ground term or a variable bound by the input rows or an earlier
// pattern. Subjects and objects weigh more than predicates, which match
// broadly. Ties keep the written order.
func orderPatterns(run []TriplePattern, bound map[string]bool) []TriplePattern {
	if len(run) < 2 {
		return run
	}
	remaining := append([]TriplePattern(nil), run...)
	out := make([]TriplePattern, 0, len(run))
	for len(remaining) > 0 {
		best, bestScore := 0, -1
		for i, tp := range remaining {
			if score := patternScore(tp, bound); score > bestScore {
				best, bestScore = i, score
			}
		}
		tp := remaining[best]
		out = append(out, tp)
		remaining = append(remaining[:best], remaining[best+1:]...)
		for _, pt := range [3]PatternTerm{tp.S, tp.P, tp.O} {
			if v, ok := pt.(Var); ok {
				bound[string(v)] = true
			}
		}
	}
	return out
}

func patternScore(tp TriplePattern, bound map[string]bool) int {
	score := 0
	weights := [3]int{3, 1, 2}
	for i, pt := range [3]PatternTerm{tp.S, tp.P, tp.O} {
		switch v := pt.(type) {
		case Ground:
			score += weights[i]
		case Var:
			if bound[string(v)] {
				score += weights[i]
			}
		}
	}
	return score
}

func (e *evaluator) evalOptional(opt Optional, input []Solution) []Solution {
	var out []Solution
	for _, sol := range input {
		extended := e.evalGroup(opt.Group, []Solution{sol})
		if len(extended) == 0 {
			out = append(out, sol)
			continue
		}
		out = append(out, extended...)
	}
	return out
}

func (e *evaluator) evalPattern(tp TriplePattern, input []Solution) []Solution {
	var out []Solution
	for _, sol := range input {
		s, sVar := resolveTerm(tp.S, sol)
		p, pVar := resolveTerm(tp.P, sol)
		o, oVar := resolveTerm(tp.O, sol)

		for _, t := range e.src.Match(s, p, o) {
			extended := sol
			cloned := false
			bind := func(name string, term rdf.Term) bool {
				if name == "" {
					return true
				}
				if existing, ok := extended[name]; ok {
					return existing == term
				}
				if !cloned {
					clone := make(Solution, len(extended)+3)
					for k, v := range extended {
						clone[k] = v
					}
					extended = clone
					cloned = true
				}
				extended[name] = term
				return true
			}
			if !bind(sVar, t.Subject) || !bind(pVar, t.Predicate) || !bind(oVar, t.Object) {
				continue
			}
			out = append(out, extended)
		}
	}
	return out
}

// resolveTerm maps a pattern position to either a concrete term for
// matching or the variable name to bind.
func resolveTerm(pt PatternTerm, sol Solution) (rdf.Term, string) {
	switch v := pt.(type) {
	case Ground:
		return v.Term, ""
	case Var:
		if term, ok := sol[string(v)]; ok {
			return term, ""
		}
		return nil, string(v)
	}
	return nil, ""
}

// construct instantiates the template once per solution. Blank nodes in
// the template are renamed per row.
func (e *evaluator) construct(template []TriplePattern, solutions []Solution) *rdf.Graph {
	g := rdf.NewGraph()
	for _, sol := range solutions {
		blanks := make(map[rdf.BlankNode]rdf.BlankNode)
		for _, tp := range template {
			s, ok := instantiate(tp.S, sol, blanks)
			if !ok {
				continue
			}
			p, ok := instantiate(tp.P, sol, blanks)
			if !ok {
				continue
			}
			o, ok := instantiate(tp.O, sol, blanks)
			if !ok {
				continue
			}
			if s.Kind() == rdf.TermLiteral || p.Kind() != rdf.TermIRI {
				continue
			}
			g.Add(rdf.Triple{Subject: s, Predicate: p, Object: o})
		}
	}
	return g
}

func instantiate(pt PatternTerm, sol Solution, blanks map[rdf.BlankNode]rdf.BlankNode) (rdf.Term, bool) {
	switch v := pt.(type) {
	case Ground:
		if b, ok := v.Term.(rdf.BlankNode); ok {
			fresh, seen := blanks[b]
			if !seen {
				fresh = rdf.NewBlankNode()
				blanks[b] = fresh
			}
			return fresh, true
		}
		return v.Term, true
	case Var:
		term, ok := sol[string(v)]
		return term, ok
	}
	return nil, false
}

// describe returns the concise bounded description of each target: its
// outgoing statements, expanded through blank node objects.
func (e *evaluator) describe(targets []PatternTerm, solutions []Solution) *rdf.Graph {
	resources := make(map[rdf.Term]struct{})
	for _, target := range targets {
		switch v := target.(type) {
		case Ground:
			resources[v.Term] = struct{}{}
		case Var:
			for _, sol := range solutions {
				if term, ok := sol[string(v)]; ok && term.Kind() != rdf.TermLiteral {
					resources[term] = struct{}{}
				}
			}
		}
	}

	g := rdf.NewGraph()
	visited := make(map[rdf.Term]struct{})
	var expand func(rdf.Term)
	expand = func(subject rdf.Term) {
		if _, ok := visited[subject]; ok {
			return
		}
		visited[subject] = struct{}{}
		for _, t := range e.src.Match(subject, nil, nil) {
			g.Add(t)
			if t.Object.Kind() == rdf.TermBlankNode {
				expand(t.Object)
			}
		}
	}
	for r := range resources {
		expand(r)
	}
	return g
}
