package sparql

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokVar
	tokIRIRef
	tokPName
	tokBlank
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokDot
	tokSemicolon
	tokComma
	tokStar
	tokEq
	tokNeq
	tokLt
	tokLe
	tokGt
	tokGe
	tokAndAnd
	tokOrOr
	tokBang
	tokCaretCaret
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokWord:
		return "keyword"
	case tokVar:
		return "variable"
	case tokIRIRef:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokDot:
		return "'.'"
	case tokSemicolon:
		return "';'"
	case tokComma:
		return "','"
	case tokStar:
		return "'*'"
	case tokEq, tokNeq, tokLt, tokLe, tokGt, tokGe:
		return "comparison operator"
	case tokAndAnd:
		return "'&&'"
	case tokOrOr:
		return "'||'"
	case tokBang:
		return "'!'"
	case tokCaretCaret:
		return "'^^'"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// ParseError reports a query parse failure with its position.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
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
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek() rune { return l.peekAt(0) }

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

func (l *lexer) skip() {
	for l.pos < len(l.src) {
		switch r := l.peek(); {
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

func (l *lexer) next() (token, error) {
	l.skip()
	line, col := l.line, l.col
	mk := func(kind tokenKind, text string) token {
		return token{kind: kind, text: text, line: line, col: col}
	}
	if l.pos >= len(l.src) {
		return mk(tokEOF, ""), nil
	}

	switch r := l.peek(); {
	case r == '?' || r == '$':
		l.advance()
		name := l.scanName()
		if name == "" {
			return token{}, l.errorf(line, col, "empty variable name")
		}
		return mk(tokVar, name), nil
	case r == '<':
		if l.looksLikeIRI() {
			return l.lexIRIRef(line, col)
		}
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return mk(tokLe, ""), nil
		}
		return mk(tokLt, ""), nil
	case r == '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return mk(tokGe, ""), nil
		}
		return mk(tokGt, ""), nil
	case r == '"' || r == '\'':
		return l.lexString(line, col)
	case r == '@':
		l.advance()
		tag := l.scanWhile(func(r rune) bool { return isAlnum(r) || r == '-' })
		if tag == "" {
			return token{}, l.errorf(line, col, "empty language tag")
		}
		return mk(tokLangTag, tag), nil
	case r == '_' && l.peekAt(1) == ':':
		l.advance()
		l.advance()
		label := l.scanName()
		if label == "" {
			return token{}, l.errorf(line, col, "empty blank node label")
		}
		return mk(tokBlank, label), nil
	case r == '{':
		l.advance()
		return mk(tokLBrace, ""), nil
	case r == '}':
		l.advance()
		return mk(tokRBrace, ""), nil
	case r == '(':
		l.advance()
		return mk(tokLParen, ""), nil
	case r == ')':
		l.advance()
		return mk(tokRParen, ""), nil
	case r == '.':
		if isDigit(l.peekAt(1)) {
			return l.lexNumber(line, col)
		}
		l.advance()
		return mk(tokDot, ""), nil
	case r == ';':
		l.advance()
		return mk(tokSemicolon, ""), nil
	case r == ',':
		l.advance()
		return mk(tokComma, ""), nil
	case r == '*':
		l.advance()
		return mk(tokStar, ""), nil
	case r == '=':
		l.advance()
		return mk(tokEq, ""), nil
	case r == '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return mk(tokNeq, ""), nil
		}
		return mk(tokBang, ""), nil
	case r == '&':
		l.advance()
		if l.peek() != '&' {
			return token{}, l.errorf(line, col, "expected '&&'")
		}
		l.advance()
		return mk(tokAndAnd, ""), nil
	case r == '|':
		l.advance()
		if l.peek() != '|' {
			return token{}, l.errorf(line, col, "expected '||'")
		}
		l.advance()
		return mk(tokOrOr, ""), nil
	case r == '^':
		l.advance()
		if l.peek() != '^' {
			return token{}, l.errorf(line, col, "expected '^^'")
		}
		l.advance()
		return mk(tokCaretCaret, ""), nil
	case isDigit(r) || r == '+' || r == '-':
		return l.lexNumber(line, col)
	case r == ':' || isNameStart(r):
		return l.lexWordOrPName(line, col)
	default:
		return token{}, l.errorf(line, col, "unexpected character %q", r)
	}
}

// looksLikeIRI distinguishes an IRI reference from the '<' operator: an IRI
// closes with '>' before any whitespace.
func (l *lexer) looksLikeIRI() bool {
	for i := l.pos + 1; i < len(l.src); i++ {
		switch r := l.src[i]; {
		case r == '>':
			return true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return false
		}
	}
	return false
}

func (l *lexer) lexIRIRef(line, col int) (token, error) {
	l.advance() // '<'
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorf(line, col, "unterminated IRI")
		}
		r := l.advance()
		if r == '>' {
			return token{kind: tokIRIRef, text: sb.String(), line: line, col: col}, nil
		}
		sb.WriteRune(r)
	}
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
			esc := l.advance()
			switch esc {
			case 't':
				sb.WriteByte('\t')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '"', '\'', '\\':
				sb.WriteRune(esc)
			default:
				return token{}, l.errorf(line, col, "invalid string escape '\\%c'", esc)
			}
		case (r == '\n' || r == '\r') && !long:
			return token{}, l.errorf(line, col, "newline in string")
		default:
			sb.WriteRune(r)
		}
	}
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
	if sb.Len() == 0 {
		return token{}, l.errorf(line, col, "malformed number")
	}
	return token{kind: kind, text: sb.String(), line: line, col: col}, nil
}

func (l *lexer) lexWordOrPName(line, col int) (token, error) {
	prefix := l.scanName()
	if l.peek() != ':' {
		return token{kind: tokWord, text: prefix, line: line, col: col}, nil
	}
	l.advance() // ':'
	var local strings.Builder
	for {
		r := l.peek()
		switch {
		case isNameChar(r):
			local.WriteRune(l.advance())
		case r == '.' && (isNameChar(l.peekAt(1)) || l.peekAt(1) == '.'):
			local.WriteRune(l.advance())
		default:
			return token{kind: tokPName, text: prefix + ":" + local.String(), line: line, col: col}, nil
		}
	}
}

func (l *lexer) scanName() string {
	return l.scanWhile(isNameChar)
}

func (l *lexer) scanWhile(pred func(rune) bool) string {
	var sb strings.Builder
	for pred(l.peek()) {
		sb.WriteRune(l.advance())
	}
	return sb.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' ||
		(r > 0x7F && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r) || r == '-'
}
