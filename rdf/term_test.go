package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{
			name: "iri",
			term: IRI("https://w3id.org/uk/curriculum/core/Subject"),
			want: "<https://w3id.org/uk/curriculum/core/Subject>",
		},
		{
			name: "blank node",
			term: BlankNode("b1"),
			want: "_:b1",
		},
		{
			name: "plain literal",
			term: NewLiteral("Mathematics"),
			want: `"Mathematics"`,
		},
		{
			name: "language tagged literal",
			term: NewLangLiteral("Mathematics", "en"),
			want: `"Mathematics"@en`,
		},
		{
			name: "typed literal",
			term: NewTypedLiteral("7", XSDInteger),
			want: `"7"^^<http://www.w3.org/2001/XMLSchema#integer>`,
		},
		{
			name: "explicit xsd string collapses to plain",
			term: NewTypedLiteral("plain", XSDString),
			want: `"plain"`,
		},
		{
			name: "escaped characters",
			term: NewLiteral("line one\nline \"two\"\ttab\\end"),
			want: `"line one\nline \"two\"\ttab\\end"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

func TestLiteralDatatypeIRI(t *testing.T) {
	assert.Equal(t, XSDString, NewLiteral("x").DatatypeIRI())
	assert.Equal(t, RDFLangString, NewLangLiteral("x", "en").DatatypeIRI())
	assert.Equal(t, XSDDate, NewTypedLiteral("2024-09-01", XSDDate).DatatypeIRI())
}

func TestLiteralIsNumeric(t *testing.T) {
	assert.True(t, NewTypedLiteral("5", XSDInteger).IsNumeric())
	assert.True(t, NewTypedLiteral("5.5", XSDDecimal).IsNumeric())
	assert.False(t, NewLiteral("5").IsNumeric())
	assert.False(t, NewTypedLiteral("2024", XSDGYear).IsNumeric())
}

func TestNewBlankNodeUnique(t *testing.T) {
	a := NewBlankNode()
	b := NewBlankNode()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, string(a))
}

func TestCompareTerms(t *testing.T) {
	iri := IRI("https://example.org/a")
	blank := BlankNode("b1")
	lit := NewLiteral("a")

	assert.Negative(t, CompareTerms(iri, blank))
	assert.Negative(t, CompareTerms(blank, lit))
	assert.Negative(t, CompareTerms(iri, lit))
	assert.Zero(t, CompareTerms(iri, IRI("https://example.org/a")))
	assert.Positive(t, CompareTerms(IRI("https://example.org/b"), iri))
}
