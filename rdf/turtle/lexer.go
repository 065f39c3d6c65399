// Package turtle reads and writes the Turtle and N-Triples serializations
// of RDF graphs. The parser covers the Turtle 1.1 constructs used by the
// curriculum sources: prefix and base directives in both @ and SPARQL
// style, predicate and object lists, blank node property lists,
// collections, and the full literal syntax.
package turtle

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRIRef
	tokPName
	tokBlankLabel
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokBoolean
	tokDot
	tokSemicolon
	tokComma
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokCaretCaret
	tokA
	tokPrefixDecl
	tokBaseDecl
	tokSparqlPrefix
	tokSparqlBase
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIRIRef:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlankLabel:
		return "blank node label"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokBoolean:
		return "boolean"
	case tokDot:
		return "'.'"
	case tokSemicolon:
		return "';'"
	case tokComma:
		return "','"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokCaretCaret:
		return "'^^'"
	case tokA:
		return "'a'"
	case tokPrefixDecl:
		return "@prefix"
	case tokBaseDecl:
		return "@base"
	case tokSparqlPrefix:
		return "PREFIX"
	case tokSparqlBase:
		return "BASE"
	}
	return "token"
}

// token carries the decoded value of a lexeme. For strings and IRIs the
// text field holds the unescaped content without delimiters.
type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// SyntaxError reports a parse failure with its position in the input.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(input string) *lexer {
	return &lexer{src: []rune(input), line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		r := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '#':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// next returns the next token from the input.
func (l *lexer) next() (token, error) {
	l.skipWhitespaceAndComments()
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}

	r := l.peek()
	switch {
	case r == '<':
		return l.lexIRIRef(line, col)
	case r == '"' || r == '\'':
		return l.lexString(line, col)
	case r == '@':
		return l.lexAtWord(line, col)
	case r == '_' && l.peekAt(1) == ':':
		return l.lexBlankLabel(line, col)
	case r == '^':
		l.advance()
		if l.peek() != '^' {
			return token{}, l.errorf(line, col, "unexpected '^'")
		}
		l.advance()
		return token{kind: tokCaretCaret, line: line, col: col}, nil
	case r == '.':
		if isDigit(l.peekAt(1)) {
			return l.lexNumber(line, col)
		}
		l.advance()
		return token{kind: tokDot, line: line, col: col}, nil
	case r == ';':
		l.advance()
		return token{kind: tokSemicolon, line: line, col: col}, nil
	case r == ',':
		l.advance()
		return token{kind: tokComma, line: line, col: col}, nil
	case r == '[':
		l.advance()
		return token{kind: tokLBracket, line: line, col: col}, nil
	case r == ']':
		l.advance()
		return token{kind: tokRBracket, line: line, col: col}, nil
	case r == '(':
		l.advance()
		return token{kind: tokLParen, line: line, col: col}, nil
	case r == ')':
		l.advance()
		return token{kind: tokRParen, line: line, col: col}, nil
	case isDigit(r) || r == '+' || r == '-':
		return l.lexNumber(line, col)
	case r == ':' || isPNCharsBase(r):
		return l.lexWord(line, col)
	}
	return token{}, l.errorf(line, col, "unexpected character %q", r)
}

func (l *lexer) lexIRIRef(line, col int) (token, error) {
	l.advance() // consume '<'
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorf(line, col, "unterminated IRI")
		}
		r := l.advance()
		switch {
		case r == '>':
			return token{kind: tokIRIRef, text: sb.String(), line: line, col: col}, nil
		case r == '\\':
			esc, err := l.lexUnicodeEscape(line, col)
			if err != nil {
				return token{}, err
			}
			sb.WriteRune(esc)
		case r == ' ' || r == '<' || r == '"' || r == '{' || r == '}' || r == '|' || r == '^' || r == '`' || r <= 0x20:
			return token{}, l.errorf(line, col, "illegal character %q in IRI", r)
		default:
			sb.WriteRune(r)
		}
	}
}

// lexUnicodeEscape reads the tail of a \u or \U escape, the backslash
// already consumed.
func (l *lexer) lexUnicodeEscape(line, col int) (rune, error) {
	marker := l.advance()
	var width int
	switch marker {
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, l.errorf(line, col, "invalid IRI escape '\\%c'", marker)
	}
	var v rune
	for i := 0; i < width; i++ {
		d := hexValue(l.advance())
		if d < 0 {
			return 0, l.errorf(line, col, "invalid unicode escape")
		}
		v = v<<4 | rune(d)
	}
	return v, nil
}

func (l *lexer) lexString(line, col int) (token, error) {
	quote := l.advance()
	long := false
	if l.peek() == quote && l.peekAt(1) == quote {
		l.advance()
		l.advance()
		long = true
	}

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorf(line, col, "unterminated string")
		}
		r := l.advance()
		switch {
		case r == quote && !long:
			return token{kind: tokString, text: sb.String(), line: line, col: col}, nil
		case r == quote && long:
			if l.peek() == quote && l.peekAt(1) == quote {
				l.advance()
				l.advance()
				return token{kind: tokString, text: sb.String(), line: line, col: col}, nil
			}
			sb.WriteRune(r)
		case r == '\\':
			if err := l.lexStringEscape(&sb, line, col); err != nil {
				return token{}, err
			}
		case (r == '\n' || r == '\r') && !long:
			return token{}, l.errorf(line, col, "newline in string")
		default:
			sb.WriteRune(r)
		}
	}
}

func (l *lexer) lexStringEscape(sb *strings.Builder, line, col int) error {
	r := l.advance()
	switch r {
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 'f':
		sb.WriteByte('\f')
	case '"', '\'', '\\':
		sb.WriteRune(r)
	case 'u', 'U':
		width := 4
		if r == 'U' {
			width = 8
		}
		var v rune
		for i := 0; i < width; i++ {
			d := hexValue(l.advance())
			if d < 0 {
				return l.errorf(line, col, "invalid unicode escape")
			}
			v = v<<4 | rune(d)
		}
		sb.WriteRune(v)
	default:
		return l.errorf(line, col, "invalid string escape '\\%c'", r)
	}
	return nil
}

// lexAtWord handles @prefix, @base, and language tags.
func (l *lexer) lexAtWord(line, col int) (token, error) {
	l.advance() // consume '@'
	var sb strings.Builder
	for {
		r := l.peek()
		if !isLetter(r) && !isDigit(r) && r != '-' {
			break
		}
		sb.WriteRune(l.advance())
	}
	word := sb.String()
	switch word {
	case "prefix":
		return token{kind: tokPrefixDecl, line: line, col: col}, nil
	case "base":
		return token{kind: tokBaseDecl, line: line, col: col}, nil
	case "":
		return token{}, l.errorf(line, col, "bare '@'")
	}
	return token{kind: tokLangTag, text: word, line: line, col: col}, nil
}

func (l *lexer) lexBlankLabel(line, col int) (token, error) {
	l.advance() // '_'
	l.advance() // ':'
	var sb strings.Builder
	for {
		r := l.peek()
		if !isPNChar(r) && r != '.' {
			break
		}
		if r == '.' && !isPNChar(l.peekAt(1)) {
			break
		}
		sb.WriteRune(l.advance())
	}
	if sb.Len() == 0 {
		return token{}, l.errorf(line, col, "empty blank node label")
	}
	return token{kind: tokBlankLabel, text: sb.String(), line: line, col: col}, nil
}

func (l *lexer) lexNumber(line, col int) (token, error) {
	var sb strings.Builder
	if r := l.peek(); r == '+' || r == '-' {
		sb.WriteRune(l.advance())
	}
	kind := tokInteger
	for isDigit(l.peek()) {
		sb.WriteRune(l.advance())
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		kind = tokDecimal
		sb.WriteRune(l.advance())
		for isDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		kind = tokDouble
		sb.WriteRune(l.advance())
		if r := l.peek(); r == '+' || r == '-' {
			sb.WriteRune(l.advance())
		}
		if !isDigit(l.peek()) {
			return token{}, l.errorf(line, col, "malformed double")
		}
		for isDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
	}
	text := sb.String()
	if text == "" || text == "+" || text == "-" {
		return token{}, l.errorf(line, col, "malformed number")
	}
	return token{kind: kind, text: text, line: line, col: col}, nil
}

// lexWord handles prefixed names, the 'a' keyword, booleans, and the
// SPARQL-style PREFIX and BASE directives.
func (l *lexer) lexWord(line, col int) (token, error) {
	var prefix strings.Builder
	for {
		r := l.peek()
		if !isPNChar(r) && r != '.' {
			break
		}
		if r == '.' && !isPNChar(l.peekAt(1)) {
			break
		}
		prefix.WriteRune(l.advance())
	}

	if l.peek() != ':' {
		switch word := prefix.String(); {
		case word == "a":
			return token{kind: tokA, line: line, col: col}, nil
		case word == "true" || word == "false":
			return token{kind: tokBoolean, text: word, line: line, col: col}, nil
		case strings.EqualFold(word, "prefix"):
			return token{kind: tokSparqlPrefix, line: line, col: col}, nil
		case strings.EqualFold(word, "base"):
			return token{kind: tokSparqlBase, line: line, col: col}, nil
		default:
			return token{}, l.errorf(line, col, "unexpected word %q", word)
		}
	}

	l.advance() // ':'
	var local strings.Builder
	for {
		r := l.peek()
		switch {
		case isPNChar(r):
			local.WriteRune(l.advance())
		case r == '.':
			if !isPNChar(l.peekAt(1)) && l.peekAt(1) != '.' {
				return token{kind: tokPName, text: prefix.String() + ":" + local.String(), line: line, col: col}, nil
			}
			local.WriteRune(l.advance())
		case r == '%':
			l.advance()
			hi, lo := l.advance(), l.advance()
			if hexValue(hi) < 0 || hexValue(lo) < 0 {
				return token{}, l.errorf(line, col, "invalid percent escape in local name")
			}
			local.WriteRune('%')
			local.WriteRune(hi)
			local.WriteRune(lo)
		case r == '\\':
			l.advance()
			esc := l.advance()
			if !isLocalEscape(esc) {
				return token{}, l.errorf(line, col, "invalid local name escape '\\%c'", esc)
			}
			local.WriteRune(esc)
		default:
			return token{kind: tokPName, text: prefix.String() + ":" + local.String(), line: line, col: col}, nil
		}
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isPNCharsBase(r rune) bool {
	return isLetter(r) || r > 0x7F && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isPNChar(r rune) bool {
	return isPNCharsBase(r) || isDigit(r) || r == '_' || r == '-'
}

func isLocalEscape(r rune) bool {
	return strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", r)
}

func hexValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}
