package sparql

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/oaknational/currigraph/rdf"
)

// Parse parses a query string.
func Parse(input string) (*Query, error) {
	p := &parser{
		lex: newLexer(input),
		query: &Query{
			Limit:    -1,
			Prefixes: rdf.NewNamespaces(),
		},
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.parseQuery(); err != nil {
		return nil, err
	}
	return p.query, nil
}

// ParseFile parses the query in the file at path. Errors carry the path.
func ParseFile(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	q, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

type parser struct {
	lex   *lexer
	tok   token
	query *Query
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
	return &ParseError{Line: p.tok.line, Col: p.tok.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, p.errorf("expected %s, got %s", kind, p.tok.kind)
	}
	tok := p.tok
	return tok, p.advance()
}

// word reports whether the current token is the given keyword,
// case-insensitively.
func (p *parser) word(kw string) bool {
	return p.tok.kind == tokWord && strings.EqualFold(p.tok.text, kw)
}

func (p *parser) parseQuery() error {
	if err := p.parsePrologue(); err != nil {
		return err
	}

	switch {
	case p.word("SELECT"):
		if err := p.parseSelect(); err != nil {
			return err
		}
	case p.word("ASK"):
		if err := p.parseAsk(); err != nil {
			return err
		}
	case p.word("CONSTRUCT"):
		if err := p.parseConstruct(); err != nil {
			return err
		}
	case p.word("DESCRIBE"):
		if err := p.parseDescribe(); err != nil {
			return err
		}
	default:
		return p.errorf("expected SELECT, ASK, CONSTRUCT, or DESCRIBE")
	}

	if p.tok.kind != tokEOF {
		return p.errorf("unexpected %s after end of query", p.tok.kind)
	}
	return nil
}

func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.word("PREFIX"):
			if err := p.advance(); err != nil {
				return err
			}
			name, err := p.expect(tokPName)
			if err != nil {
				return err
			}
			prefix, local, _ := strings.Cut(name.text, ":")
			if local != "" {
				return &ParseError{Line: name.line, Col: name.col, Msg: "prefix declaration must end with ':'"}
			}
			iriTok, err := p.expect(tokIRIRef)
			if err != nil {
				return err
			}
			iri, err := p.resolveIRI(iriTok)
			if err != nil {
				return err
			}
			p.query.Prefixes.Bind(prefix, string(iri))
		case p.word("BASE"):
			if err := p.advance(); err != nil {
				return err
			}
			iriTok, err := p.expect(tokIRIRef)
			if err != nil {
				return err
			}
			iri, err := p.resolveIRI(iriTok)
			if err != nil {
				return err
			}
			p.query.Base = string(iri)
		default:
			return nil
		}
	}
}

func (p *parser) parseSelect() error {
	p.query.Form = FormSelect
	if err := p.advance(); err != nil {
		return err
	}
	if p.word("DISTINCT") {
		p.query.Distinct = true
		if err := p.advance(); err != nil {
			return err
		}
	}

	switch {
	case p.tok.kind == tokStar:
		if err := p.advance(); err != nil {
			return err
		}
	case p.tok.kind == tokVar:
		for p.tok.kind == tokVar {
			p.query.Vars = append(p.query.Vars, p.tok.text)
			if err := p.advance(); err != nil {
				return err
			}
		}
	default:
		return p.errorf("expected projection variables or '*'")
	}

	if err := p.parseWhere(); err != nil {
		return err
	}
	return p.parseSolutionModifier()
}

func (p *parser) parseAsk() error {
	p.query.Form = FormAsk
	if err := p.advance(); err != nil {
		return err
	}
	group, err := p.parseGroup()
	if err != nil {
		return err
	}
	p.query.Where = group
	return nil
}

func (p *parser) parseConstruct() error {
	p.query.Form = FormConstruct
	if err := p.advance(); err != nil {
		return err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return err
	}
	for p.tok.kind != tokRBrace {
		patterns, err := p.parseTriplesSameSubject()
		if err != nil {
			return err
		}
		p.query.Template = append(p.query.Template, patterns...)
		if p.tok.kind == tokDot {
			if err := p.advance(); err != nil {
				return err
			}
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return err
	}

	if err := p.parseWhere(); err != nil {
		return err
	}
	return p.parseSolutionModifier()
}

func (p *parser) parseDescribe() error {
	p.query.Form = FormDescribe
	if err := p.advance(); err != nil {
		return err
	}

	for {
		switch p.tok.kind {
		case tokVar:
			p.query.Describe = append(p.query.Describe, Var(p.tok.text))
			if err := p.advance(); err != nil {
				return err
			}
			continue
		case tokIRIRef, tokPName:
			iri, err := p.parseIRIValue()
			if err != nil {
				return err
			}
			p.query.Describe = append(p.query.Describe, Ground{Term: iri})
			continue
		}
		break
	}
	if len(p.query.Describe) == 0 {
		return p.errorf("DESCRIBE needs at least one resource or variable")
	}

	if p.word("WHERE") || p.tok.kind == tokLBrace {
		if err := p.parseWhere(); err != nil {
			return err
		}
	} else {
		p.query.Where = &Group{}
	}
	return p.parseSolutionModifier()
}

func (p *parser) parseWhere() error {
	if p.word("WHERE") {
		if err := p.advance(); err != nil {
			return err
		}
	}
	group, err := p.parseGroup()
	if err != nil {
		return err
	}
	p.query.Where = group
	return nil
}

func (p *parser) parseGroup() (*Group, error) {
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	group := &Group{}
	for {
		switch {
		case p.tok.kind == tokRBrace:
			return group, p.advance()
		case p.tok.kind == tokEOF:
			return nil, p.errorf("unterminated group pattern")
		case p.tok.kind == tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.word("OPTIONAL"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			group.Elements = append(group.Elements, Optional{Group: inner})
		case p.word("FILTER"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			group.Elements = append(group.Elements, Filter{Expr: expr})
		case p.tok.kind == tokLBrace:
			element, err := p.parseGroupOrUnion()
			if err != nil {
				return nil, err
			}
			group.Elements = append(group.Elements, element)
		case p.word("GRAPH") || p.word("SERVICE") || p.word("MINUS") || p.word("BIND") || p.word("VALUES"):
			return nil, p.errorf("%s is not supported", strings.ToUpper(p.tok.text))
		default:
			patterns, err := p.parseTriplesSameSubject()
			if err != nil {
				return nil, err
			}
			for _, pattern := range patterns {
				group.Elements = append(group.Elements, pattern)
			}
		}
	}
}

func (p *parser) parseGroupOrUnion() (GroupElement, error) {
	left, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if !p.word("UNION") {
		return SubGroup{Group: left}, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseGroupOrUnion()
	if err != nil {
		return nil, err
	}
	switch r := right.(type) {
	case SubGroup:
		return Union{Left: left, Right: r.Group}, nil
	case Union:
		return Union{Left: left, Right: &Group{Elements: []GroupElement{r}}}, nil
	}
	return nil, p.errorf("malformed UNION")
}

func (p *parser) parseTriplesSameSubject() ([]TriplePattern, error) {
	subject, err := p.parsePatternTerm(false)
	if err != nil {
		return nil, err
	}

	var patterns []TriplePattern
	for {
		predicate, err := p.parseVerb()
		if err != nil {
			return nil, err
		}
		for {
			object, err := p.parsePatternTerm(true)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, TriplePattern{S: subject, P: predicate, O: object})
			if p.tok.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.kind != tokSemicolon {
			return patterns, nil
		}
		for p.tok.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.kind == tokDot || p.tok.kind == tokRBrace {
			return patterns, nil
		}
	}
}

func (p *parser) parseVerb() (PatternTerm, error) {
	if p.tok.kind == tokWord && p.tok.text == "a" {
		return Ground{Term: rdf.RDFType}, p.advance()
	}
	if p.tok.kind == tokVar {
		v := Var(p.tok.text)
		return v, p.advance()
	}
	if p.tok.kind == tokIRIRef || p.tok.kind == tokPName {
		iri, err := p.parseIRIValue()
		if err != nil {
			return nil, err
		}
		return Ground{Term: iri}, nil
	}
	return nil, p.errorf("expected predicate, got %s", p.tok.kind)
}

// parsePatternTerm parses a subject or object position. Literals are only
// legal in object position.
func (p *parser) parsePatternTerm(allowLiteral bool) (PatternTerm, error) {
	switch p.tok.kind {
	case tokVar:
		v := Var(p.tok.text)
		return v, p.advance()
	case tokIRIRef, tokPName:
		iri, err := p.parseIRIValue()
		if err != nil {
			return nil, err
		}
		return Ground{Term: iri}, nil
	case tokBlank:
		b := rdf.BlankNode(p.tok.text)
		return Ground{Term: b}, p.advance()
	}
	if !allowLiteral {
		return nil, p.errorf("expected subject, got %s", p.tok.kind)
	}
	term, err := p.parseLiteralTerm()
	if err != nil {
		return nil, err
	}
	return Ground{Term: term}, nil
}

func (p *parser) parseLiteralTerm() (rdf.Term, error) {
	switch p.tok.kind {
	case tokString:
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
			datatype, err := p.parseIRIValue()
			if err != nil {
				return nil, err
			}
			return rdf.NewTypedLiteral(lexical, datatype), nil
		}
		return rdf.NewLiteral(lexical), nil
	case tokInteger:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDInteger)
		return lit, p.advance()
	case tokDecimal:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDDecimal)
		return lit, p.advance()
	case tokDouble:
		lit := rdf.NewTypedLiteral(p.tok.text, rdf.XSDDouble)
		return lit, p.advance()
	case tokWord:
		if strings.EqualFold(p.tok.text, "true") || strings.EqualFold(p.tok.text, "false") {
			lit := rdf.NewTypedLiteral(strings.ToLower(p.tok.text), rdf.XSDBoolean)
			return lit, p.advance()
		}
	}
	return nil, p.errorf("expected RDF term, got %s", p.tok.kind)
}

func (p *parser) parseIRIValue() (rdf.IRI, error) {
	switch p.tok.kind {
	case tokIRIRef:
		iri, err := p.resolveIRI(p.tok)
		if err != nil {
			return "", err
		}
		return iri, p.advance()
	case tokPName:
		prefix, local, _ := strings.Cut(p.tok.text, ":")
		base, ok := p.query.Prefixes.Base(prefix)
		if !ok {
			return "", p.errorf("undefined prefix %q", prefix)
		}
		iri := rdf.IRI(base + local)
		return iri, p.advance()
	}
	return "", p.errorf("expected IRI, got %s", p.tok.kind)
}

func (p *parser) resolveIRI(tok token) (rdf.IRI, error) {
	raw := tok.text
	if p.query.Base == "" || strings.Contains(raw, "://") {
		return rdf.IRI(raw), nil
	}
	base, err := url.Parse(p.query.Base)
	if err != nil {
		return "", &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid base IRI %q", p.query.Base)}
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid IRI reference %q", raw)}
	}
	return rdf.IRI(base.ResolveReference(ref).String()), nil
}

// parseConstraint parses the FILTER operand: a parenthesized expression or
// a bare function call.
func (p *parser) parseConstraint() (Expr, error) {
	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	if p.tok.kind == tokWord {
		return p.parseCall()
	}
	return nil, p.errorf("expected '(' or function call after FILTER")
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOrOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ExprBinary{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAndAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = ExprBinary{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var relationalOps = map[tokenKind]BinaryOp{
	tokEq:  OpEq,
	tokNeq: OpNeq,
	tokLt:  OpLt,
	tokLe:  OpLe,
	tokGt:  OpGt,
	tokGe:  OpGe,
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	op, ok := relationalOps[p.tok.kind]
	if !ok {
		return left, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ExprBinary{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokBang {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ExprNot{Expr: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case tokVar:
		v := ExprVar(p.tok.text)
		return v, p.advance()
	case tokWord:
		if strings.EqualFold(p.tok.text, "true") || strings.EqualFold(p.tok.text, "false") {
			lit := rdf.NewTypedLiteral(strings.ToLower(p.tok.text), rdf.XSDBoolean)
			return ExprTerm{Term: lit}, p.advance()
		}
		return p.parseCall()
	case tokString, tokInteger, tokDecimal, tokDouble:
		term, err := p.parseLiteralTerm()
		if err != nil {
			return nil, err
		}
		return ExprTerm{Term: term}, nil
	case tokIRIRef, tokPName:
		iri, err := p.parseIRIValue()
		if err != nil {
			return nil, err
		}
		return ExprTerm{Term: iri}, nil
	}
	return nil, p.errorf("expected expression, got %s", p.tok.kind)
}

var builtinArity = map[string][2]int{
	"BOUND":       {1, 1},
	"STR":         {1, 1},
	"LANG":        {1, 1},
	"LANGMATCHES": {2, 2},
	"DATATYPE":    {1, 1},
	"REGEX":       {2, 3},
	"CONTAINS":    {2, 2},
	"STRSTARTS":   {2, 2},
	"STRENDS":     {2, 2},
	"LCASE":       {1, 1},
	"UCASE":       {1, 1},
	"ISIRI":       {1, 1},
	"ISURI":       {1, 1},
	"ISLITERAL":   {1, 1},
	"ISBLANK":     {1, 1},
}

func (p *parser) parseCall() (Expr, error) {
	name := strings.ToUpper(p.tok.text)
	arity, ok := builtinArity[name]
	if !ok {
		return nil, p.errorf("unknown function %q", p.tok.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []Expr
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if len(args) < arity[0] || len(args) > arity[1] {
		return nil, p.errorf("%s expects %d to %d arguments, got %d", name, arity[0], arity[1], len(args))
	}
	return ExprCall{Name: name, Args: args}, nil
}

func (p *parser) parseSolutionModifier() error {
	for {
		switch {
		case p.word("ORDER"):
			if err := p.advance(); err != nil {
				return err
			}
			if !p.word("BY") {
				return p.errorf("expected BY after ORDER")
			}
			if err := p.advance(); err != nil {
				return err
			}
			if err := p.parseOrderKeys(); err != nil {
				return err
			}
		case p.word("LIMIT"):
			if err := p.advance(); err != nil {
				return err
			}
			n, err := p.parseNonNegativeInt()
			if err != nil {
				return err
			}
			p.query.Limit = n
		case p.word("OFFSET"):
			if err := p.advance(); err != nil {
				return err
			}
			n, err := p.parseNonNegativeInt()
			if err != nil {
				return err
			}
			p.query.Offset = n
		default:
			return nil
		}
	}
}

func (p *parser) parseOrderKeys() error {
	parsed := false
	for {
		switch {
		case p.tok.kind == tokVar:
			p.query.OrderBy = append(p.query.OrderBy, OrderKey{Var: p.tok.text})
			if err := p.advance(); err != nil {
				return err
			}
		case p.word("ASC") || p.word("DESC"):
			desc := strings.EqualFold(p.tok.text, "DESC")
			if err := p.advance(); err != nil {
				return err
			}
			if _, err := p.expect(tokLParen); err != nil {
				return err
			}
			v, err := p.expect(tokVar)
			if err != nil {
				return err
			}
			if _, err := p.expect(tokRParen); err != nil {
				return err
			}
			p.query.OrderBy = append(p.query.OrderBy, OrderKey{Var: v.text, Desc: desc})
		default:
			if !parsed {
				return p.errorf("expected sort key after ORDER BY")
			}
			return nil
		}
		parsed = true
	}
}

func (p *parser) parseNonNegativeInt() (int, error) {
	tok, err := p.expect(tokInteger)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.text)
	if err != nil || n < 0 {
		return 0, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid count %q", tok.text)}
	}
	return n, nil
}
