package sparql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oaknational/currigraph/rdf"
)

// Expr is a FILTER expression node.
type Expr interface {
	exprNode()
}

// ExprVar references a variable's bound value.
type ExprVar string

func (ExprVar) exprNode() {}

// ExprTerm is a constant term in an expression.
type ExprTerm struct {
	Term rdf.Term
}

func (ExprTerm) exprNode() {}

// BinaryOp is a binary operator in a FILTER expression.
type BinaryOp string

const (
	OpEq  BinaryOp = "="
	OpNeq BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLe  BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGe  BinaryOp = ">="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
)

// ExprBinary applies a binary operator.
type ExprBinary struct {
	Op          BinaryOp
	Left, Right Expr
}

func (ExprBinary) exprNode() {}

// ExprNot negates the effective boolean value of its operand.
type ExprNot struct {
	Expr Expr
}

func (ExprNot) exprNode() {}

// ExprCall invokes a built-in function. Name is stored uppercase.
type ExprCall struct {
	Name string
	Args []Expr
}

func (ExprCall) exprNode() {}

var (
	errUnbound       = errors.New("unbound variable")
	errTypeMismatch  = errors.New("incomparable values")
	errNotBoolean    = errors.New("no effective boolean value")
	trueLiteral      = rdf.NewTypedLiteral("true", rdf.XSDBoolean)
	falseLiteral     = rdf.NewTypedLiteral("false", rdf.XSDBoolean)
	emptyLangLiteral = rdf.NewLiteral("")
)

func boolTerm(b bool) rdf.Term {
	if b {
		return trueLiteral
	}
	return falseLiteral
}

// exprEnv evaluates expressions against one solution. The regex cache is
// shared across rows of a query execution.
type exprEnv struct {
	regexCache map[string]*regexp.Regexp
}

func newExprEnv() *exprEnv {
	return &exprEnv{regexCache: make(map[string]*regexp.Regexp)}
}

// holds evaluates the filter expression for one solution. Expression
// errors eliminate the solution, per the error semantics of FILTER.
func (env *exprEnv) holds(e Expr, sol Solution) bool {
	term, err := env.eval(e, sol)
	if err != nil {
		return false
	}
	ok, err := effectiveBool(term)
	return err == nil && ok
}

func (env *exprEnv) eval(e Expr, sol Solution) (rdf.Term, error) {
	switch ex := e.(type) {
	case ExprVar:
		term, ok := sol[string(ex)]
		if !ok {
			return nil, fmt.Errorf("%w: ?%s", errUnbound, string(ex))
		}
		return term, nil
	case ExprTerm:
		return ex.Term, nil
	case ExprNot:
		term, err := env.eval(ex.Expr, sol)
		if err != nil {
			return nil, err
		}
		ok, err := effectiveBool(term)
		if err != nil {
			return nil, err
		}
		return boolTerm(!ok), nil
	case ExprBinary:
		return env.evalBinary(ex, sol)
	case ExprCall:
		return env.evalCall(ex, sol)
	}
	return nil, fmt.Errorf("unknown expression node %T", e)
}

func (env *exprEnv) evalBinary(ex ExprBinary, sol Solution) (rdf.Term, error) {
	if ex.Op == OpAnd || ex.Op == OpOr {
		return env.evalLogical(ex, sol)
	}

	left, lerr := env.eval(ex.Left, sol)
	if lerr != nil {
		return nil, lerr
	}
	right, rerr := env.eval(ex.Right, sol)
	if rerr != nil {
		return nil, rerr
	}

	cmp, ordered := compareValues(left, right)
	switch ex.Op {
	case OpEq:
		if ordered {
			return boolTerm(cmp == 0), nil
		}
		return boolTerm(left == right), nil
	case OpNeq:
		if ordered {
			return boolTerm(cmp != 0), nil
		}
		return boolTerm(left != right), nil
	}
	if !ordered {
		return nil, errTypeMismatch
	}
	switch ex.Op {
	case OpLt:
		return boolTerm(cmp < 0), nil
	case OpLe:
		return boolTerm(cmp <= 0), nil
	case OpGt:
		return boolTerm(cmp > 0), nil
	case OpGe:
		return boolTerm(cmp >= 0), nil
	}
	return nil, fmt.Errorf("unknown operator %q", ex.Op)
}

// evalLogical implements the three-valued && and ||: a definite answer on
// one side can absorb an error on the other.
func (env *exprEnv) evalLogical(ex ExprBinary, sol Solution) (rdf.Term, error) {
	lv, lerr := env.ebv(ex.Left, sol)
	rv, rerr := env.ebv(ex.Right, sol)
	if ex.Op == OpAnd {
		if lerr == nil && !lv {
			return falseLiteral, nil
		}
		if rerr == nil && !rv {
			return falseLiteral, nil
		}
		if lerr != nil {
			return nil, lerr
		}
		if rerr != nil {
			return nil, rerr
		}
		return trueLiteral, nil
	}
	if lerr == nil && lv {
		return trueLiteral, nil
	}
	if rerr == nil && rv {
		return trueLiteral, nil
	}
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return falseLiteral, nil
}

func (env *exprEnv) ebv(e Expr, sol Solution) (bool, error) {
	term, err := env.eval(e, sol)
	if err != nil {
		return false, err
	}
	return effectiveBool(term)
}

func (env *exprEnv) evalCall(ex ExprCall, sol Solution) (rdf.Term, error) {
	switch ex.Name {
	case "BOUND":
		v, ok := ex.Args[0].(ExprVar)
		if !ok {
			return nil, errors.New("BOUND requires a variable")
		}
		_, bound := sol[string(v)]
		return boolTerm(bound), nil
	}

	args := make([]rdf.Term, len(ex.Args))
	for i, arg := range ex.Args {
		term, err := env.eval(arg, sol)
		if err != nil {
			return nil, err
		}
		args[i] = term
	}

	switch ex.Name {
	case "STR":
		switch t := args[0].(type) {
		case rdf.IRI:
			return rdf.NewLiteral(string(t)), nil
		case rdf.Literal:
			return rdf.NewLiteral(t.Lexical), nil
		}
		return nil, errors.New("STR of a blank node")
	case "LANG":
		lit, ok := args[0].(rdf.Literal)
		if !ok {
			return nil, errors.New("LANG requires a literal")
		}
		if lit.Lang == "" {
			return emptyLangLiteral, nil
		}
		return rdf.NewLiteral(lit.Lang), nil
	case "LANGMATCHES":
		tag, err := stringValue(args[0])
		if err != nil {
			return nil, err
		}
		rng, err := stringValue(args[1])
		if err != nil {
			return nil, err
		}
		return boolTerm(langMatches(tag, rng)), nil
	case "DATATYPE":
		lit, ok := args[0].(rdf.Literal)
		if !ok {
			return nil, errors.New("DATATYPE requires a literal")
		}
		return lit.DatatypeIRI(), nil
	case "REGEX":
		text, err := stringValue(args[0])
		if err != nil {
			return nil, err
		}
		pattern, err := stringValue(args[1])
		if err != nil {
			return nil, err
		}
		if len(args) == 3 {
			flags, err := stringValue(args[2])
			if err != nil {
				return nil, err
			}
			if strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
		}
		re, err := env.compile(pattern)
		if err != nil {
			return nil, err
		}
		return boolTerm(re.MatchString(text)), nil
	case "CONTAINS", "STRSTARTS", "STRENDS":
		a, err := stringValue(args[0])
		if err != nil {
			return nil, err
		}
		b, err := stringValue(args[1])
		if err != nil {
			return nil, err
		}
		switch ex.Name {
		case "CONTAINS":
			return boolTerm(strings.Contains(a, b)), nil
		case "STRSTARTS":
			return boolTerm(strings.HasPrefix(a, b)), nil
		default:
			return boolTerm(strings.HasSuffix(a, b)), nil
		}
	case "LCASE", "UCASE":
		s, err := stringValue(args[0])
		if err != nil {
			return nil, err
		}
		if ex.Name == "LCASE" {
			return rdf.NewLiteral(strings.ToLower(s)), nil
		}
		return rdf.NewLiteral(strings.ToUpper(s)), nil
	case "ISIRI", "ISURI":
		return boolTerm(args[0].Kind() == rdf.TermIRI), nil
	case "ISLITERAL":
		return boolTerm(args[0].Kind() == rdf.TermLiteral), nil
	case "ISBLANK":
		return boolTerm(args[0].Kind() == rdf.TermBlankNode), nil
	}
	return nil, fmt.Errorf("unknown function %s", ex.Name)
}

// langMatches applies the basic language-range filtering of RFC 4647:
// "*" matches any tagged literal, otherwise the tag must equal the range
// or extend it at a subtag boundary, case-insensitively.
func langMatches(tag, rng string) bool {
	if tag == "" {
		return false
	}
	if rng == "*" {
		return true
	}
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	return tag == rng || strings.HasPrefix(tag, rng+"-")
}

func (env *exprEnv) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := env.regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	env.regexCache[pattern] = re
	return re, nil
}

// effectiveBool computes the effective boolean value of a term.
func effectiveBool(t rdf.Term) (bool, error) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return false, errNotBoolean
	}
	switch {
	case lit.Datatype == rdf.XSDBoolean:
		return lit.Lexical == "true" || lit.Lexical == "1", nil
	case lit.IsNumeric():
		f, err := strconv.ParseFloat(lit.Lexical, 64)
		if err != nil {
			return false, nil
		}
		return f != 0, nil
	case lit.DatatypeIRI() == rdf.XSDString || lit.Lang != "":
		return lit.Lexical != "", nil
	}
	return false, errNotBoolean
}

func stringValue(t rdf.Term) (string, error) {
	switch v := t.(type) {
	case rdf.Literal:
		return v.Lexical, nil
	case rdf.IRI:
		return string(v), nil
	}
	return "", errors.New("expected a string value")
}

// compareValues orders two terms when an order is defined: numerically for
// numeric literals, lexically for string literals with compatible types,
// and lexically for other literals sharing a datatype, which covers
// xsd:date and xsd:dateTime.
func compareValues(a, b rdf.Term) (int, bool) {
	la, aok := a.(rdf.Literal)
	lb, bok := b.(rdf.Literal)
	if !aok || !bok {
		return 0, false
	}
	if la.IsNumeric() && lb.IsNumeric() {
		fa, erra := strconv.ParseFloat(la.Lexical, 64)
		fb, errb := strconv.ParseFloat(lb.Lexical, 64)
		if erra != nil || errb != nil {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	aString := la.DatatypeIRI() == rdf.XSDString || la.Lang != ""
	bString := lb.DatatypeIRI() == rdf.XSDString || lb.Lang != ""
	if aString && bString {
		return strings.Compare(la.Lexical, lb.Lexical), true
	}
	if la.Datatype == lb.Datatype && la.Datatype != "" {
		return strings.Compare(la.Lexical, lb.Lexical), true
	}
	return 0, false
}
