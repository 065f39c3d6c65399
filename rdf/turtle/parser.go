package turtle

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/oaknational/currigraph/rdf"
)

// Document is the result of parsing one Turtle source: the graph plus the
// prefix and base bindings the source declared.
type Document struct {
	Graph      *rdf.Graph
	Namespaces *rdf.Namespaces
	Base       string
}

// Parse reads a complete Turtle document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a complete Turtle document.
func ParseString(input string) (*Document, error) {
	p := &parser{
		lex:    newLexer(input),
		doc:    &Document{Graph: rdf.NewGraph(), Namespaces: rdf.NewNamespaces()},
		blanks: make(map[string]rdf.BlankNode),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// ParseFile parses the Turtle file at path. Errors are prefixed with the
// file path so they read as path:line:col.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

type parser struct {
	lex *lexer
	tok token
	doc *Document
	// blanks maps document labels to fresh nodes so graphs from separate
	// files never share blank node identity when merged.
	blanks map[string]rdf.BlankNode
}

func (p *parser) run() error {
	if err := p.advance(); err != nil {
		return err
	}
	for p.tok.kind != tokEOF {
		switch p.tok.kind {
		case tokPrefixDecl, tokSparqlPrefix:
			if err := p.parsePrefixDirective(p.tok.kind == tokPrefixDecl); err != nil {
				return err
			}
		case tokBaseDecl, tokSparqlBase:
			if err := p.parseBaseDirective(p.tok.kind == tokBaseDecl); err != nil {
				return err
			}
		default:
			if err := p.parseTriples(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.tok.line, Col: p.tok.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, p.errorf("expected %s, got %s", kind, p.tok.kind)
	}
	tok := p.tok
	return tok, p.advance()
}

func (p *parser) parsePrefixDirective(atStyle bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	name, err := p.expect(tokPName)
	if err != nil {
		return err
	}
	prefix, local, _ := strings.Cut(name.text, ":")
	if local != "" {
		return &SyntaxError{Line: name.line, Col: name.col, Msg: "prefix declaration must end with ':'"}
	}
	iriTok, err := p.expect(tokIRIRef)
	if err != nil {
		return err
	}
	base, err := p.resolveIRI(iriTok)
	if err != nil {
		return err
	}
	p.doc.Namespaces.Bind(prefix, string(base))
	if atStyle {
		if _, err := p.expect(tokDot); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseBaseDirective(atStyle bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	iriTok, err := p.expect(tokIRIRef)
	if err != nil {
		return err
	}
	resolved, err := p.resolveIRI(iriTok)
	if err != nil {
		return err
	}
	p.doc.Base = string(resolved)
	if atStyle {
		if _, err := p.expect(tokDot); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseTriples() error {
	var subject rdf.Term
	var err error

	if p.tok.kind == tokLBracket {
		subject, err = p.parseBlankNodePropertyList()
		if err != nil {
			return err
		}
		// A bare property list may stand alone as a statement.
		if p.tok.kind == tokDot {
			return p.advance()
		}
	} else {
		subject, err = p.parseSubject()
		if err != nil {
			return err
		}
	}

	if err := p.parsePredicateObjectList(subject); err != nil {
		return err
	}
	_, err = p.expect(tokDot)
	return err
}

func (p *parser) parseSubject() (rdf.Term, error) {
	switch p.tok.kind {
	case tokIRIRef, tokPName:
		return p.parseIRI()
	case tokBlankLabel:
		node := p.blankNode(p.tok.text)
		return node, p.advance()
	case tokLParen:
		return p.parseCollection()
	}
	return nil, p.errorf("expected subject, got %s", p.tok.kind)
}

func (p *parser) parsePredicateObjectList(subject rdf.Term) error {
	for {
		predicate, err := p.parseVerb()
		if err != nil {
			return err
		}
		if err := p.parseObjectList(subject, predicate); err != nil {
			return err
		}
		if p.tok.kind != tokSemicolon {
			return nil
		}
		// Consume the semicolon run; a trailing semicolon before '.' or
		// ']' is permitted.
		for p.tok.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return err
			}
		}
		if p.tok.kind == tokDot || p.tok.kind == tokRBracket {
			return nil
		}
	}
}

func (p *parser) parseVerb() (rdf.Term, error) {
	if p.tok.kind == tokA {
		return rdf.RDFType, p.advance()
	}
	if p.tok.kind == tokIRIRef || p.tok.kind == tokPName {
		return p.parseIRI()
	}
	return nil, p.errorf("expected predicate, got %s", p.tok.kind)
}

func (p *parser) parseObjectList(subject, predicate rdf.Term) error {
	for {
		object, err := p.parseObject()
		if err != nil {
			return err
		}
		p.doc.Graph.Add(rdf.Triple{Subject: subject, Predicate: predicate, Object: object})
		if p.tok.kind != tokComma {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

func (p *parser) parseObject() (rdf.Term, error) {
	switch p.tok.kind {
	case tokIRIRef, tokPName:
		return p.parseIRI()
	case tokBlankLabel:
		node := p.blankNode(p.tok.text)
		return node, p.advance()
	case tokLBracket:
		return p.parseBlankNodePropertyList()
	case tokLParen:
		return p.parseCollection()
	case tokString:
		return p.parseLiteral()
	case tokInteger:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDInteger)
		return lit, p.advance()
	case tokDecimal:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDDecimal)
		return lit, p.advance()
	case tokDouble:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDDouble)
		return lit, p.advance()
	case tokBoolean:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDBoolean)
		return lit, p.advance()
	}
	return nil, p.errorf("expected object, got %s", p.tok.kind)
}

func (p *parser) parseLiteral() (rdf.Term, error) {
	lexical := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch p.tok.kind {
	case tokLangTag:
		lit := rdf.NewLangLiteral(lexical, p.tok.text)
		return lit, p.advance()
	case tokCaretCaret:
		if err := p.advance(); err != nil {
			return nil, err
		}
		datatype, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lexical, datatype), nil
	}
	return rdf.NewLiteral(lexical), nil
}

func (p *parser) parseBlankNodePropertyList() (rdf.Term, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	node := rdf.NewBlankNode()
	if p.tok.kind == tokRBracket {
		return node, p.advance()
	}
	if err := p.parsePredicateObjectList(node); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) parseCollection() (rdf.Term, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var items []rdf.Term
	for p.tok.kind != tokRParen {
		item, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}

	list := rdf.Term(rdf.RDFNil)
	for i := len(items) - 1; i >= 0; i-- {
		node := rdf.NewBlankNode()
		p.doc.Graph.Add(rdf.Triple{Subject: node, Predicate: rdf.RDFFirst, Object: items[i]})
		p.doc.Graph.Add(rdf.Triple{Subject: node, Predicate: rdf.RDFRest, Object: list})
		list = node
	}
	return list, nil
}

func (p *parser) parseIRI() (rdf.IRI, error) {
	switch p.tok.kind {
	case tokIRIRef:
		iri, err := p.resolveIRI(p.tok)
		if err != nil {
			return "", err
		}
		return iri, p.advance()
	case tokPName:
		prefix, local, _ := strings.Cut(p.tok.text, ":")
		base, ok := p.doc.Namespaces.Base(prefix)
		if !ok {
			return "", p.errorf("undefined prefix %q", prefix)
		}
		iri := rdf.IRI(base + local)
		return iri, p.advance()
	}
	return "", p.errorf("expected IRI, got %s", p.tok.kind)
}

// resolveIRI resolves a relative IRI reference against the document base.
func (p *parser) resolveIRI(tok token) (rdf.IRI, error) {
	raw := tok.text
	if isAbsoluteIRI(raw) {
		return rdf.IRI(raw), nil
	}
	if p.doc.Base == "" {
		if raw == "" {
			return "", &SyntaxError{Line: tok.line, Col: tok.col, Msg: "relative IRI with no base"}
		}
		return rdf.IRI(raw), nil
	}
	base, err := url.Parse(p.doc.Base)
	if err != nil {
		return "", &SyntaxError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid base IRI %q", p.doc.Base)}
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", &SyntaxError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid IRI reference %q", raw)}
	}
	return rdf.IRI(base.ResolveReference(ref).String()), nil
}

func (p *parser) blankNode(label string) rdf.BlankNode {
	if node, ok := p.blanks[label]; ok {
		return node
	}
	node := rdf.NewBlankNode()
	p.blanks[label] = node
	return node
}

func isAbsoluteIRI(s string) bool {
	for i, r := range s {
		switch {
		case r == ':':
			return i > 0
		case isLetter(r):
		case i > 0 && (isDigit(r) || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return false
}
