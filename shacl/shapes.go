// Package shacl validates RDF graphs against shape constraints. It covers
// the closed subset of SHACL Core the curriculum constraint files use:
// node shapes targeting classes, property shapes with cardinality,
// datatype, class, node kind, pattern, value list, and disjunctive
// alternatives, with per-shape severities and messages.
//
// Class targets and sh:class checks follow rdfs:subClassOf, so instances
// of subclasses validate against shapes declared on their superclasses.
package shacl

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/oaknational/currigraph/rdf"
)

// NodeShape is one sh:NodeShape with class targets.
type NodeShape struct {
	ID            rdf.Term
	TargetClasses []rdf.IRI
	Severity      rdf.IRI
	Properties    []PropertyShape
}

// Alternative is one branch of an sh:or list. Exactly one of the fields
// is set.
type Alternative struct {
	Datatype rdf.IRI
	Class    rdf.IRI
	NodeKind rdf.IRI
}

// PropertyShape is one sh:property constraint block.
type PropertyShape struct {
	ID      rdf.Term
	Path    rdf.IRI
	Inverse bool

	// MinCount and MaxCount are -1 when absent.
	MinCount int
	MaxCount int

	Datatype rdf.IRI
	Class    rdf.IRI
	NodeKind rdf.IRI
	HasValue rdf.Term
	In       []rdf.Term
	Or       []Alternative

	Pattern string
	Flags   string
	re      *regexp.Regexp

	Severity rdf.IRI
	Message  string
	Name     string
}

// ParseShapes reads every sh:NodeShape from the shapes graph. Shapes
// without a target class are skipped; malformed constraints are errors.
func ParseShapes(g *rdf.Graph) ([]NodeShape, error) {
	var shapes []NodeShape
	for _, subject := range g.SubjectsOfType(NodeShapeClass) {
		shape := NodeShape{ID: subject, Severity: Violation}

		for _, target := range g.Objects(subject, TargetClass) {
			iri, ok := target.(rdf.IRI)
			if !ok {
				return nil, fmt.Errorf("shape %s: sh:targetClass must be an IRI", subject)
			}
			shape.TargetClasses = append(shape.TargetClasses, iri)
		}
		if len(shape.TargetClasses) == 0 {
			continue
		}
		if sev, ok := severityOf(g, subject); ok {
			shape.Severity = sev
		}

		for _, prop := range g.Objects(subject, Property) {
			ps, err := parsePropertyShape(g, prop, shape.Severity)
			if err != nil {
				return nil, fmt.Errorf("shape %s: %w", subject, err)
			}
			shape.Properties = append(shape.Properties, ps)
		}
		sort.Slice(shape.Properties, func(i, j int) bool {
			return shape.Properties[i].Path < shape.Properties[j].Path
		})
		shapes = append(shapes, shape)
	}
	sort.Slice(shapes, func(i, j int) bool {
		return shapes[i].ID.String() < shapes[j].ID.String()
	})
	return shapes, nil
}

func parsePropertyShape(g *rdf.Graph, id rdf.Term, inherited rdf.IRI) (PropertyShape, error) {
	ps := PropertyShape{ID: id, MinCount: -1, MaxCount: -1, Severity: inherited}

	path, ok := g.First(id, Path)
	if !ok {
		return ps, fmt.Errorf("property shape %s has no sh:path", id)
	}
	switch p := path.(type) {
	case rdf.IRI:
		ps.Path = p
	case rdf.BlankNode:
		inv, ok := g.First(p, InversePath)
		if !ok {
			return ps, fmt.Errorf("property shape %s: unsupported path expression", id)
		}
		iri, ok := inv.(rdf.IRI)
		if !ok {
			return ps, fmt.Errorf("property shape %s: sh:inversePath must be an IRI", id)
		}
		ps.Path = iri
		ps.Inverse = true
	default:
		return ps, fmt.Errorf("property shape %s: invalid sh:path", id)
	}

	var err error
	if ps.MinCount, err = intConstraint(g, id, MinCount); err != nil {
		return ps, err
	}
	if ps.MaxCount, err = intConstraint(g, id, MaxCount); err != nil {
		return ps, err
	}
	if dt, ok := iriConstraint(g, id, DatatypeCons); ok {
		ps.Datatype = dt
	}
	if class, ok := iriConstraint(g, id, ClassCons); ok {
		ps.Class = class
	}
	if kind, ok := iriConstraint(g, id, NodeKindCons); ok {
		ps.NodeKind = kind
	}
	if v, ok := g.First(id, HasValue); ok {
		ps.HasValue = v
	}
	if head, ok := g.First(id, In); ok {
		ps.In, err = readList(g, head)
		if err != nil {
			return ps, fmt.Errorf("property shape %s: sh:in: %w", id, err)
		}
	}
	if head, ok := g.First(id, Or); ok {
		branches, err := readList(g, head)
		if err != nil {
			return ps, fmt.Errorf("property shape %s: sh:or: %w", id, err)
		}
		for _, branch := range branches {
			alt, err := parseAlternative(g, branch)
			if err != nil {
				return ps, fmt.Errorf("property shape %s: sh:or: %w", id, err)
			}
			ps.Or = append(ps.Or, alt)
		}
	}

	if pat, ok := g.First(id, Pattern); ok {
		lit, ok := pat.(rdf.Literal)
		if !ok {
			return ps, fmt.Errorf("property shape %s: sh:pattern must be a literal", id)
		}
		ps.Pattern = lit.Lexical
		if flags, ok := g.First(id, Flags); ok {
			if flit, ok := flags.(rdf.Literal); ok {
				ps.Flags = flit.Lexical
			}
		}
		expr := ps.Pattern
		for _, f := range ps.Flags {
			switch f {
			case 'i':
				expr = "(?i)" + expr
			case 's':
				expr = "(?s)" + expr
			case 'm':
				expr = "(?m)" + expr
			}
		}
		ps.re, err = regexp.Compile(expr)
		if err != nil {
			return ps, fmt.Errorf("property shape %s: invalid sh:pattern: %w", id, err)
		}
	}

	if sev, ok := severityOf(g, id); ok {
		ps.Severity = sev
	}
	if msg, ok := g.First(id, Message); ok {
		if lit, ok := msg.(rdf.Literal); ok {
			ps.Message = lit.Lexical
		}
	}
	if name, ok := g.First(id, Name); ok {
		if lit, ok := name.(rdf.Literal); ok {
			ps.Name = lit.Lexical
		}
	}
	return ps, nil
}

func parseAlternative(g *rdf.Graph, branch rdf.Term) (Alternative, error) {
	if dt, ok := iriValueOf(g, branch, DatatypeCons); ok {
		return Alternative{Datatype: dt}, nil
	}
	if class, ok := iriValueOf(g, branch, ClassCons); ok {
		return Alternative{Class: class}, nil
	}
	if kind, ok := iriValueOf(g, branch, NodeKindCons); ok {
		return Alternative{NodeKind: kind}, nil
	}
	return Alternative{}, fmt.Errorf("branch %s has no sh:datatype, sh:class, or sh:nodeKind", branch)
}

func severityOf(g *rdf.Graph, id rdf.Term) (rdf.IRI, bool) {
	return iriValueOf(g, id, SeverityProp)
}

func iriConstraint(g *rdf.Graph, id rdf.Term, pred rdf.IRI) (rdf.IRI, bool) {
	return iriValueOf(g, id, pred)
}

func iriValueOf(g *rdf.Graph, id rdf.Term, pred rdf.IRI) (rdf.IRI, bool) {
	v, ok := g.First(id, pred)
	if !ok {
		return "", false
	}
	iri, ok := v.(rdf.IRI)
	return iri, ok
}

func intConstraint(g *rdf.Graph, id rdf.Term, pred rdf.IRI) (int, error) {
	v, ok := g.First(id, pred)
	if !ok {
		return -1, nil
	}
	lit, ok := v.(rdf.Literal)
	if !ok {
		return -1, fmt.Errorf("property shape %s: %s must be an integer literal", id, pred)
	}
	var n int
	if _, err := fmt.Sscanf(lit.Lexical, "%d", &n); err != nil || n < 0 {
		return -1, fmt.Errorf("property shape %s: %s has invalid count %q", id, pred, lit.Lexical)
	}
	return n, nil
}

// readList walks an rdf:List from its head to rdf:nil.
func readList(g *rdf.Graph, head rdf.Term) ([]rdf.Term, error) {
	var out []rdf.Term
	seen := make(map[rdf.Term]bool)
	for head != rdf.RDFNil {
		if seen[head] {
			return nil, fmt.Errorf("cyclic list at %s", head)
		}
		seen[head] = true
		first, ok := g.First(head, rdf.RDFFirst)
		if !ok {
			return nil, fmt.Errorf("list node %s has no rdf:first", head)
		}
		out = append(out, first)
		rest, ok := g.First(head, rdf.RDFRest)
		if !ok {
			return nil, fmt.Errorf("list node %s has no rdf:rest", head)
		}
		head = rest
	}
	return out, nil
}
