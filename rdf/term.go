// Package rdf implements the RDF 1.1 data model used across the toolchain:
// IRIs, literals, blank nodes, triples, and an indexed in-memory graph.
//
// Terms are small comparable values so they can key maps directly. The
// String method on every term renders its N-Triples form, which is also the
// canonical form used by the persistent term dictionary.
package rdf

import (
	"strings"

	"github.com/google/uuid"
)

// TermKind discriminates the three RDF term types.
type TermKind int

const (
	// TermIRI is an absolute IRI reference.
	TermIRI TermKind = iota
	// TermBlankNode is a document-scoped anonymous node.
	TermBlankNode
	// TermLiteral is a string value with a datatype or language tag.
	TermLiteral
)

// Term is an RDF term: IRI, BlankNode, or Literal.
// All implementations are comparable value types.
type Term interface {
	Kind() TermKind
	// String returns the N-Triples encoding of the term.
	String() string
}

// IRI is an absolute IRI term.
type IRI string

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI in angle brackets.
func (i IRI) String() string { return "<" + string(i) + ">" }

// BlankNode is a blank node term identified by its local label.
type BlankNode string

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the label with the _: prefix.
func (b BlankNode) String() string { return "_:" + string(b) }

// NewBlankNode returns a fresh blank node with a unique label.
func NewBlankNode() BlankNode {
	return BlankNode("b" + strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// Well-known datatype and vocabulary IRIs.
const (
	XSDString             IRI = "http://www.w3.org/2001/XMLSchema#string"
	XSDBoolean            IRI = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDInteger            IRI = "http://www.w3.org/2001/XMLSchema#integer"
	XSDNonNegativeInteger IRI = "http://www.w3.org/2001/XMLSchema#nonNegativeInteger"
	XSDPositiveInteger    IRI = "http://www.w3.org/2001/XMLSchema#positiveInteger"
	XSDDecimal            IRI = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble             IRI = "http://www.w3.org/2001/XMLSchema#double"
	XSDDate               IRI = "http://www.w3.org/2001/XMLSchema#date"
	XSDDateTime           IRI = "http://www.w3.org/2001/XMLSchema#dateTime"
	XSDGYear              IRI = "http://www.w3.org/2001/XMLSchema#gYear"
	XSDAnyURI             IRI = "http://www.w3.org/2001/XMLSchema#anyURI"

	RDFType       IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFLangString IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
	RDFFirst      IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	RDFRest       IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	RDFNil        IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"

	RDFSSubClassOf    IRI = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	RDFSSubPropertyOf IRI = "http://www.w3.org/2000/01/rdf-schema#subPropertyOf"
	RDFSLabel         IRI = "http://www.w3.org/2000/01/rdf-schema#label"
	RDFSComment       IRI = "http://www.w3.org/2000/01/rdf-schema#comment"
)

// Literal is a literal term. Lang is only set for language-tagged strings,
// in which case Datatype is rdf:langString. A zero Datatype means xsd:string.
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns the N-Triples encoding, with the datatype suffix omitted
// for plain xsd:string literals.
func (l Literal) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(EscapeLiteral(l.Lexical))
	sb.WriteByte('"')
	switch {
	case l.Lang != "":
		sb.WriteByte('@')
		sb.WriteString(l.Lang)
	case l.Datatype != "" && l.Datatype != XSDString:
		sb.WriteString("^^<")
		sb.WriteString(string(l.Datatype))
		sb.WriteByte('>')
	}
	return sb.String()
}

// DatatypeIRI returns the effective datatype, resolving the zero value to
// xsd:string and language-tagged strings to rdf:langString.
func (l Literal) DatatypeIRI() IRI {
	if l.Lang != "" {
		return RDFLangString
	}
	if l.Datatype == "" {
		return XSDString
	}
	return l.Datatype
}

// IsNumeric reports whether the literal carries a numeric XSD datatype.
func (l Literal) IsNumeric() bool {
	switch l.Datatype {
	case XSDInteger, XSDDecimal, XSDDouble:
		return true
	}
	return false
}

// NewLiteral returns a plain string literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewLangLiteral returns a language-tagged string literal.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: lang, Datatype: RDFLangString}
}

// NewTypedLiteral returns a literal with an explicit datatype.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	if datatype == XSDString {
		return Literal{Lexical: lexical}
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// EscapeLiteral escapes a lexical form for N-Triples and Turtle output.
func EscapeLiteral(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// CompareTerms orders terms for deterministic output: IRIs first, then blank
// nodes, then literals, each ordered by their N-Triples form.
func CompareTerms(a, b Term) int {
	if a.Kind() != b.Kind() {
		return int(a.Kind()) - int(b.Kind())
	}
	return strings.Compare(a.String(), b.String())
}
