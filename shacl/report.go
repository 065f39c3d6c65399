package shacl

import (
	"fmt"
	"strings"

	"github.com/oaknational/currigraph/rdf"
)

// Text renders the report in the block format validation tooling prints:
// a Conforms line, then one indented block per result. IRIs are compacted
// against ns when possible; ns may be nil.
func (r *Report) Text(ns *rdf.Namespaces) string {
	var b strings.Builder
	b.WriteString("Validation Report\n")
	fmt.Fprintf(&b, "Conforms: %s\n", conformsWord(r.Conforms))
	if len(r.Results) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "Results (%d):\n", len(r.Results))
	for _, res := range r.Results {
		component := localName(res.Component)
		fmt.Fprintf(&b, "Constraint Violation in %s (%s):\n", component, res.Component)
		fmt.Fprintf(&b, "\tSeverity: %s\n", display(res.Severity, ns))
		fmt.Fprintf(&b, "\tSource Shape: %s\n", display(res.Source, ns))
		fmt.Fprintf(&b, "\tFocus Node: %s\n", display(res.FocusNode, ns))
		if res.Path != "" {
			fmt.Fprintf(&b, "\tResult Path: %s\n", display(res.Path, ns))
		}
		if res.Value != nil {
			fmt.Fprintf(&b, "\tValue Node: %s\n", display(res.Value, ns))
		}
		if res.Message != "" {
			fmt.Fprintf(&b, "\tMessage: %s\n", res.Message)
		}
	}
	return b.String()
}

func conformsWord(conforms bool) string {
	if conforms {
		return "True"
	}
	return "False"
}

func localName(iri rdf.IRI) string {
	s := string(iri)
	if i := strings.LastIndexAny(s, "#/"); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return s
}

func display(t rdf.Term, ns *rdf.Namespaces) string {
	if t == nil {
		return ""
	}
	if iri, ok := t.(rdf.IRI); ok && ns != nil {
		if curie, ok := ns.Compact(iri); ok {
			return curie
		}
	}
	return t.String()
}

// Graph renders the report as an sh:ValidationReport graph.
func (r *Report) Graph() *rdf.Graph {
	g := rdf.NewGraph()
	report := rdf.NewBlankNode()
	g.Add(rdf.Triple{Subject: report, Predicate: rdf.RDFType, Object: ValidationReportClass})
	g.Add(rdf.Triple{
		Subject:   report,
		Predicate: Conforms,
		Object:    rdf.NewTypedLiteral(strings.ToLower(conformsWord(r.Conforms)), rdf.XSDBoolean),
	})
	for _, res := range r.Results {
		node := rdf.NewBlankNode()
		g.Add(rdf.Triple{Subject: report, Predicate: ResultProp, Object: node})
		g.Add(rdf.Triple{Subject: node, Predicate: rdf.RDFType, Object: ValidationResultClass})
		g.Add(rdf.Triple{Subject: node, Predicate: FocusNode, Object: res.FocusNode})
		g.Add(rdf.Triple{Subject: node, Predicate: ResultSeverity, Object: res.Severity})
		g.Add(rdf.Triple{Subject: node, Predicate: SourceConstraint, Object: res.Component})
		if res.Source != nil {
			g.Add(rdf.Triple{Subject: node, Predicate: SourceShape, Object: res.Source})
		}
		if res.Path != "" {
			g.Add(rdf.Triple{Subject: node, Predicate: ResultPath, Object: res.Path})
		}
		if res.Value != nil {
			g.Add(rdf.Triple{Subject: node, Predicate: ResultValue, Object: res.Value})
		}
		if res.Message != "" {
			g.Add(rdf.Triple{Subject: node, Predicate: ResultMessage, Object: rdf.NewLiteral(res.Message)})
		}
	}
	return g
}
