package shacl

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/oaknational/currigraph/rdf"
)

// Result is one validation finding.
type Result struct {
	FocusNode rdf.Term
	Path      rdf.IRI
	Value     rdf.Term
	Source    rdf.Term
	Component rdf.IRI
	Severity  rdf.IRI
	Message   string
}

// Report is the outcome of validating a data graph. Conforms is false
// only when at least one result carries sh:Violation severity.
type Report struct {
	Conforms bool
	Results  []Result
}

// Violations returns only the results that fail validation.
func (r *Report) Violations() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Severity == Violation {
			out = append(out, res)
		}
	}
	return out
}

// Validator checks data graphs against a parsed shapes graph.
type Validator struct {
	shapes []NodeShape
}

// NewValidator parses the shapes graph.
func NewValidator(shapes *rdf.Graph) (*Validator, error) {
	parsed, err := ParseShapes(shapes)
	if err != nil {
		return nil, err
	}
	return &Validator{shapes: parsed}, nil
}

// Shapes returns the parsed node shapes.
func (v *Validator) Shapes() []NodeShape { return v.shapes }

// Validate checks data against the shapes. The ontology graph supplies
// rdfs:subClassOf declarations; its entailments are merged into the data
// before target selection, matching validation with RDFS inference.
func (v *Validator) Validate(data, ontology *rdf.Graph) *Report {
	entailed := data
	closure := map[rdf.IRI]map[rdf.IRI]bool{}
	if ontology != nil {
		merged := rdf.NewGraph()
		merged.Merge(data)
		merged.Merge(ontology)
		entailed = rdf.Entail(merged, ontology)
		closure = rdf.SubClassClosure(ontology)
	}

	report := &Report{Conforms: true}
	for _, shape := range v.shapes {
		for _, focus := range focusNodes(entailed, shape.TargetClasses) {
			for i := range shape.Properties {
				v.checkProperty(entailed, closure, shape, &shape.Properties[i], focus, report)
			}
		}
	}

	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.FocusNode.String() != b.FocusNode.String() {
			return a.FocusNode.String() < b.FocusNode.String()
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Component < b.Component
	})
	for _, res := range report.Results {
		if res.Severity == Violation {
			report.Conforms = false
			break
		}
	}
	return report
}

func (v *Validator) checkProperty(g *rdf.Graph, closure map[rdf.IRI]map[rdf.IRI]bool, shape NodeShape, ps *PropertyShape, focus rdf.Term, report *Report) {
	values := pathValues(g, focus, ps)

	record := func(component rdf.IRI, value rdf.Term, fallback string) {
		msg := ps.Message
		if msg == "" {
			msg = fallback
		}
		report.Results = append(report.Results, Result{
			FocusNode: focus,
			Path:      ps.Path,
			Value:     value,
			Source:    shape.ID,
			Component: component,
			Severity:  ps.Severity,
			Message:   msg,
		})
	}

	if ps.MinCount >= 0 && len(values) < ps.MinCount {
		record(MinCountComponent, nil, countMessage("at least", ps.MinCount, len(values)))
	}
	if ps.MaxCount >= 0 && len(values) > ps.MaxCount {
		record(MaxCountComponent, nil, countMessage("at most", ps.MaxCount, len(values)))
	}
	if ps.HasValue != nil {
		found := false
		for _, value := range values {
			if value == ps.HasValue {
				found = true
				break
			}
		}
		if !found {
			record(HasValueComponent, nil, "required value "+ps.HasValue.String()+" is missing")
		}
	}

	for _, value := range values {
		if ps.Datatype != "" && !hasDatatype(value, ps.Datatype) {
			record(DatatypeComponent, value, "value does not have datatype "+string(ps.Datatype))
		}
		if ps.Class != "" && !instanceOf(g, value, ps.Class, closure) {
			record(ClassComponent, value, "value is not an instance of "+string(ps.Class))
		}
		if ps.NodeKind != "" && !hasNodeKind(value, ps.NodeKind) {
			record(NodeKindComponent, value, "value does not have node kind "+string(ps.NodeKind))
		}
		if ps.re != nil && !matchesPattern(value, ps.re) {
			record(PatternComponent, value, "value does not match pattern "+ps.Pattern)
		}
		if len(ps.In) > 0 && !inList(value, ps.In) {
			record(InComponent, value, "value is not one of the allowed values")
		}
		if len(ps.Or) > 0 && !anyAlternative(g, value, ps.Or, closure) {
			record(OrComponent, value, "value matches none of the allowed alternatives")
		}
	}
}

// focusNodes collects the instances of the target classes, each node once
// even when it matches several targets.
func focusNodes(g *rdf.Graph, classes []rdf.IRI) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	for _, class := range classes {
		for _, subject := range g.SubjectsOfType(class) {
			if seen[subject] {
				continue
			}
			seen[subject] = true
			out = append(out, subject)
		}
	}
	sort.Slice(out, func(i, j int) bool { return rdf.CompareTerms(out[i], out[j]) < 0 })
	return out
}

func pathValues(g *rdf.Graph, focus rdf.Term, ps *PropertyShape) []rdf.Term {
	if ps.Inverse {
		var out []rdf.Term
		for _, t := range g.Match(nil, ps.Path, focus) {
			out = append(out, t.Subject)
		}
		sort.Slice(out, func(i, j int) bool { return rdf.CompareTerms(out[i], out[j]) < 0 })
		return out
	}
	return g.Objects(focus, ps.Path)
}

func countMessage(bound string, want, got int) string {
	values := "values"
	if want == 1 {
		values = "value"
	}
	return fmt.Sprintf("property needs %s %d %s, found %d", bound, want, values, got)
}

func hasDatatype(value rdf.Term, datatype rdf.IRI) bool {
	lit, ok := value.(rdf.Literal)
	if !ok {
		return false
	}
	return lit.DatatypeIRI() == datatype
}

func instanceOf(g *rdf.Graph, value rdf.Term, class rdf.IRI, closure map[rdf.IRI]map[rdf.IRI]bool) bool {
	switch value.(type) {
	case rdf.IRI, rdf.BlankNode:
		return rdf.IsInstanceOf(g, value, class, closure)
	}
	return false
}

func hasNodeKind(value rdf.Term, kind rdf.IRI) bool {
	switch value.(type) {
	case rdf.IRI:
		return kind == NodeKindIRI || kind == NodeKindBlankNodeOrIRI || kind == NodeKindIRIOrLiteral
	case rdf.BlankNode:
		return kind == NodeKindBlankNode || kind == NodeKindBlankNodeOrIRI || kind == NodeKindBlankNodeOrLiteral
	case rdf.Literal:
		return kind == NodeKindLiteral || kind == NodeKindIRIOrLiteral || kind == NodeKindBlankNodeOrLiteral
	}
	return false
}

func matchesPattern(value rdf.Term, re *regexp.Regexp) bool {
	switch v := value.(type) {
	case rdf.Literal:
		return re.MatchString(v.Lexical)
	case rdf.IRI:
		return re.MatchString(string(v))
	}
	return false
}

func inList(value rdf.Term, allowed []rdf.Term) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func anyAlternative(g *rdf.Graph, value rdf.Term, alts []Alternative, closure map[rdf.IRI]map[rdf.IRI]bool) bool {
	for _, alt := range alts {
		switch {
		case alt.Datatype != "":
			if hasDatatype(value, alt.Datatype) {
				return true
			}
		case alt.Class != "":
			if instanceOf(g, value, alt.Class, closure) {
				return true
			}
		case alt.NodeKind != "":
			if hasNodeKind(value, alt.NodeKind) {
				return true
			}
		}
	}
	return false
}
