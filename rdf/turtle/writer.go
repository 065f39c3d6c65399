package turtle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/oaknational/currigraph/rdf"
)

var (
	integerLexical = regexp.MustCompile(`^[+-]?[0-9]+$`)
	booleanLexical = regexp.MustCompile(`^(true|false)$`)
)

// Write serializes the graph as Turtle: a sorted prefix header followed by
// statements grouped per subject with predicate and object lists. Output is
// deterministic for a given graph and prefix table. ns may be nil.
func Write(w io.Writer, g *rdf.Graph, ns *rdf.Namespaces) error {
	bw := bufio.NewWriter(w)
	if ns == nil {
		ns = rdf.NewNamespaces()
	}

	for _, prefix := range ns.Prefixes() {
		base, _ := ns.Base(prefix)
		if _, err := fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefix, base); err != nil {
			return err
		}
	}
	if len(ns.Prefixes()) > 0 {
		if _, err := fmt.Fprintln(bw); err != nil {
			return err
		}
	}

	for _, subject := range g.Subjects() {
		if err := writeSubject(bw, g, subject, ns); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteString serializes the graph as Turtle into a string.
func WriteString(g *rdf.Graph, ns *rdf.Namespaces) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, g, ns); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeSubject(w io.Writer, g *rdf.Graph, subject rdf.Term, ns *rdf.Namespaces) error {
	triples := g.Match(subject, nil, nil)
	rdf.SortTriples(triples)

	// rdf:type statements lead the block, rendered with the 'a' keyword.
	ordered := make([]rdf.Triple, 0, len(triples))
	for _, t := range triples {
		if t.Predicate == rdf.RDFType {
			ordered = append(ordered, t)
		}
	}
	for _, t := range triples {
		if t.Predicate != rdf.RDFType {
			ordered = append(ordered, t)
		}
	}

	if _, err := fmt.Fprintf(w, "%s", renderTerm(subject, ns)); err != nil {
		return err
	}

	var lastPredicate rdf.Term
	for i, t := range ordered {
		switch {
		case i == 0:
			if _, err := fmt.Fprintf(w, " %s %s", renderPredicate(t.Predicate, ns), renderTerm(t.Object, ns)); err != nil {
				return err
			}
		case t.Predicate == lastPredicate:
			if _, err := fmt.Fprintf(w, ",\n        %s", renderTerm(t.Object, ns)); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintf(w, " ;\n    %s %s", renderPredicate(t.Predicate, ns), renderTerm(t.Object, ns)); err != nil {
				return err
			}
		}
		lastPredicate = t.Predicate
	}
	_, err := fmt.Fprintf(w, " .\n\n")
	return err
}

func renderPredicate(p rdf.Term, ns *rdf.Namespaces) string {
	if p == rdf.RDFType {
		return "a"
	}
	return renderTerm(p, ns)
}

func renderTerm(t rdf.Term, ns *rdf.Namespaces) string {
	switch v := t.(type) {
	case rdf.IRI:
		if curie, ok := ns.Compact(v); ok {
			return curie
		}
		return v.String()
	case rdf.Literal:
		switch {
		case v.Datatype == rdf.XSDInteger && integerLexical.MatchString(v.Lexical):
			return v.Lexical
		case v.Datatype == rdf.XSDBoolean && booleanLexical.MatchString(v.Lexical):
			return v.Lexical
		case v.Lang == "" && v.Datatype != "" && v.Datatype != rdf.XSDString:
			if curie, ok := ns.Compact(v.Datatype); ok {
				return `"` + rdf.EscapeLiteral(v.Lexical) + `"^^` + curie
			}
		}
		return v.String()
	default:
		return t.String()
	}
}

// WriteNTriples serializes the graph in canonical N-Triples form, one
// statement per line in sorted order.
func WriteNTriples(w io.Writer, g *rdf.Graph) error {
	bw := bufio.NewWriter(w)
	for _, t := range g.Triples() {
		if _, err := fmt.Fprintln(bw, t.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteNTriplesString serializes the graph as N-Triples into a string.
func WriteNTriplesString(g *rdf.Graph) (string, error) {
	var sb strings.Builder
	if err := WriteNTriples(&sb, g); err != nil {
		return "", err
	}
	return sb.String(), nil
}
