// Package sparql implements the query subset the curriculum build and
// serve pipelines rely on: SELECT, ASK, CONSTRUCT, and DESCRIBE over basic
// graph patterns with OPTIONAL, UNION, FILTER, and the standard solution
// modifiers.
//
// The evaluator runs against any Source, so the same queries work over the
// in-memory merge graph and the persistent triple store.
package sparql

import (
	"github.com/oaknational/currigraph/rdf"
)

// Form is the query form.
type Form int

const (
	FormSelect Form = iota
	FormAsk
	FormConstruct
	FormDescribe
)

func (f Form) String() string {
	switch f {
	case FormSelect:
		return "SELECT"
	case FormAsk:
		return "ASK"
	case FormConstruct:
		return "CONSTRUCT"
	case FormDescribe:
		return "DESCRIBE"
	}
	return "UNKNOWN"
}

// Query is a parsed query.
type Query struct {
	Form     Form
	Distinct bool
	// Vars is the SELECT projection. Empty means SELECT *.
	Vars []string
	// Describe holds the DESCRIBE targets: variables or ground IRIs.
	Describe []PatternTerm
	// Template holds the CONSTRUCT template patterns.
	Template []TriplePattern
	Where    *Group
	OrderBy  []OrderKey
	// Limit is -1 when no LIMIT clause is present.
	Limit  int
	Offset int

	Base     string
	Prefixes *rdf.Namespaces
}

// OrderKey is one ORDER BY sort key.
type OrderKey struct {
	Var  string
	Desc bool
}

// PatternTerm is a position in a triple pattern: either a Var or a Ground
// term.
type PatternTerm interface {
	patternTerm()
}

// Var is a query variable, stored without the leading '?'.
type Var string

func (Var) patternTerm() {}

// Ground wraps a concrete RDF term appearing in a pattern.
type Ground struct {
	Term rdf.Term
}

func (Ground) patternTerm() {}

// TriplePattern is one triple pattern in a group or template.
type TriplePattern struct {
	S, P, O PatternTerm
}

func (TriplePattern) groupElement() {}

// Group is a graph pattern: an ordered list of elements evaluated left to
// right, with filters applied over the whole group.
type Group struct {
	Elements []GroupElement
}

// GroupElement is one element of a group pattern.
type GroupElement interface {
	groupElement()
}

// Optional is an OPTIONAL { ... } block.
type Optional struct {
	Group *Group
}

func (Optional) groupElement() {}

// Union is a { ... } UNION { ... } alternative. Chained unions nest on the
// right.
type Union struct {
	Left  *Group
	Right *Group
}

func (Union) groupElement() {}

// SubGroup is a nested { ... } group.
type SubGroup struct {
	Group *Group
}

func (SubGroup) groupElement() {}

// Filter is a FILTER constraint.
type Filter struct {
	Expr Expr
}

func (Filter) groupElement() {}

// vars appends the variables of pt to out in first-appearance order.
func appendVar(out []string, seen map[string]bool, pt PatternTerm) []string {
	v, ok := pt.(Var)
	if !ok || seen[string(v)] {
		return out
	}
	seen[string(v)] = true
	return append(out, string(v))
}

// PatternVars returns the variables mentioned in triple patterns of the
// group, in order of first appearance, descending into nested groups.
func (g *Group) PatternVars() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(*Group)
	walk = func(grp *Group) {
		for _, el := range grp.Elements {
			switch e := el.(type) {
			case TriplePattern:
				out = appendVar(out, seen, e.S)
				out = appendVar(out, seen, e.P)
				out = appendVar(out, seen, e.O)
			case Optional:
				walk(e.Group)
			case Union:
				walk(e.Left)
				walk(e.Right)
			case SubGroup:
				walk(e.Group)
			}
		}
	}
	walk(g)
	return out
}
