package sparql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf"
)

func TestParseSelect(t *testing.T) {
	q, err := Parse(`
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		PREFIX curric: <https://w3id.org/uk/curriculum/core/>

		SELECT ?subject ?label
		WHERE {
			?subject a curric:Subject ;
				skos:prefLabel ?label .
		}
		ORDER BY ?label
		LIMIT 10
	`)
	require.NoError(t, err)

	assert.Equal(t, FormSelect, q.Form)
	assert.Equal(t, []string{"subject", "label"}, q.Vars)
	assert.False(t, q.Distinct)
	require.Len(t, q.Where.Elements, 2)

	first, ok := q.Where.Elements[0].(TriplePattern)
	require.True(t, ok)
	assert.Equal(t, Var("subject"), first.S)
	assert.Equal(t, Ground{rdf.RDFType}, first.P)
	assert.Equal(t, Ground{rdf.IRI("https://w3id.org/uk/curriculum/core/Subject")}, first.O)

	second, ok := q.Where.Elements[1].(TriplePattern)
	require.True(t, ok)
	assert.Equal(t, Ground{rdf.IRI("http://www.w3.org/2004/02/skos/core#prefLabel")}, second.P)
	assert.Equal(t, Var("label"), second.O)

	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, OrderKey{Var: "label"}, q.OrderBy[0])
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 0, q.Offset)
}

func TestParseSelectStarDistinct(t *testing.T) {
	q, err := Parse(`SELECT DISTINCT * WHERE { ?s ?p ?o } OFFSET 5`)
	require.NoError(t, err)

	assert.True(t, q.Distinct)
	assert.Empty(t, q.Vars)
	assert.Equal(t, -1, q.Limit)
	assert.Equal(t, 5, q.Offset)
	assert.Equal(t, []string{"s", "p", "o"}, q.PatternVars())
}

func TestParseOrderByDirections(t *testing.T) {
	q, err := Parse(`SELECT ?s WHERE { ?s ?p ?o } ORDER BY DESC(?s) ASC(?o)`)
	require.NoError(t, err)

	require.Len(t, q.OrderBy, 2)
	assert.Equal(t, OrderKey{Var: "s", Desc: true}, q.OrderBy[0])
	assert.Equal(t, OrderKey{Var: "o", Desc: false}, q.OrderBy[1])
}

func TestParseAsk(t *testing.T) {
	q, err := Parse(`
		PREFIX eng: <https://w3id.org/uk/curriculum/england/>
		ASK { eng:maths ?p ?o }
	`)
	require.NoError(t, err)

	assert.Equal(t, FormAsk, q.Form)
	require.Len(t, q.Where.Elements, 1)
	tp := q.Where.Elements[0].(TriplePattern)
	assert.Equal(t, Ground{rdf.IRI("https://w3id.org/uk/curriculum/england/maths")}, tp.S)
}

func TestParseConstruct(t *testing.T) {
	q, err := Parse(`
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		CONSTRUCT { ?parent skos:narrower ?child }
		WHERE { ?child skos:broader ?parent }
	`)
	require.NoError(t, err)

	assert.Equal(t, FormConstruct, q.Form)
	require.Len(t, q.Template, 1)
	assert.Equal(t, Var("parent"), q.Template[0].S)
	assert.Equal(t, Ground{rdf.IRI("http://www.w3.org/2004/02/skos/core#narrower")}, q.Template[0].P)
}

func TestParseDescribe(t *testing.T) {
	q, err := Parse(`DESCRIBE <https://w3id.org/uk/curriculum/england/maths>`)
	require.NoError(t, err)

	assert.Equal(t, FormDescribe, q.Form)
	require.Len(t, q.Describe, 1)
	assert.Equal(t, Ground{rdf.IRI("https://w3id.org/uk/curriculum/england/maths")}, q.Describe[0])
	require.NotNil(t, q.Where)
	assert.Empty(t, q.Where.Elements)
}

func TestParseDescribeVarWithWhere(t *testing.T) {
	q, err := Parse(`
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		DESCRIBE ?c WHERE { ?c skos:notation "maths" }
	`)
	require.NoError(t, err)

	require.Len(t, q.Describe, 1)
	assert.Equal(t, Var("c"), q.Describe[0])
	assert.Len(t, q.Where.Elements, 1)
}

func TestParseOptionalAndFilter(t *testing.T) {
	q, err := Parse(`
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		SELECT ?c ?broader WHERE {
			?c skos:prefLabel ?label .
			OPTIONAL { ?c skos:broader ?broader }
			FILTER (LANG(?label) = "en")
		}
	`)
	require.NoError(t, err)

	require.Len(t, q.Where.Elements, 3)
	_, isPattern := q.Where.Elements[0].(TriplePattern)
	assert.True(t, isPattern)
	opt, isOpt := q.Where.Elements[1].(Optional)
	require.True(t, isOpt)
	assert.Len(t, opt.Group.Elements, 1)
	_, isFilter := q.Where.Elements[2].(Filter)
	assert.True(t, isFilter)
}

func TestParseUnion(t *testing.T) {
	q, err := Parse(`
		PREFIX curric: <https://w3id.org/uk/curriculum/core/>
		SELECT ?c WHERE {
			{ ?c a curric:Subject } UNION { ?c a curric:Strand } UNION { ?c a curric:Theme }
		}
	`)
	require.NoError(t, err)

	require.Len(t, q.Where.Elements, 1)
	union, ok := q.Where.Elements[0].(Union)
	require.True(t, ok)
	// Chains nest to the right.
	_, ok = union.Right.Elements[0].(Union)
	assert.True(t, ok)
}

func TestParseLiteralForms(t *testing.T) {
	q, err := Parse(`
		PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
		SELECT ?s WHERE {
			?s ?a "plain" .
			?s ?b "tagged"@en .
			?s ?c "7"^^xsd:integer .
			?s ?d 7 .
			?s ?e 2.5 .
			?s ?f true .
		}
	`)
	require.NoError(t, err)

	objects := make([]rdf.Term, 0, 6)
	for _, el := range q.Where.Elements {
		objects = append(objects, el.(TriplePattern).O.(Ground).Term)
	}
	assert.Equal(t, rdf.NewLiteral("plain"), objects[0])
	assert.Equal(t, rdf.NewLangLiteral("tagged", "en"), objects[1])
	assert.Equal(t, rdf.NewTypedLiteral("7", rdf.XSDInteger), objects[2])
	assert.Equal(t, rdf.NewTypedLiteral("7", rdf.XSDInteger), objects[3])
	assert.Equal(t, rdf.NewTypedLiteral("2.5", rdf.XSDDecimal), objects[4])
	assert.Equal(t, rdf.NewTypedLiteral("true", rdf.XSDBoolean), objects[5])
}

func TestParseBaseResolution(t *testing.T) {
	q, err := Parse(`
		BASE <https://w3id.org/uk/curriculum/england/>
		SELECT ?p WHERE { <maths> ?p ?o }
	`)
	require.NoError(t, err)

	tp := q.Where.Elements[0].(TriplePattern)
	assert.Equal(t, Ground{rdf.IRI("https://w3id.org/uk/curriculum/england/maths")}, tp.S)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"empty", ``, "expected SELECT, ASK, CONSTRUCT, or DESCRIBE"},
		{"unsupported graph", `SELECT ?s WHERE { GRAPH ?g { ?s ?p ?o } }`, "GRAPH is not supported"},
		{"unsupported bind", `SELECT ?s WHERE { BIND(1 AS ?s) }`, "BIND is not supported"},
		{"unsupported values", `SELECT ?s WHERE { VALUES ?s { 1 } }`, "VALUES is not supported"},
		{"unsupported minus", `SELECT ?s WHERE { ?s ?p ?o MINUS { ?s a ?c } }`, "MINUS is not supported"},
		{"unknown function", `SELECT ?s WHERE { ?s ?p ?o FILTER (NOW() > 1) }`, "unknown function NOW"},
		{"bad arity", `SELECT ?s WHERE { ?s ?p ?o FILTER (BOUND(?s, ?p)) }`, "BOUND expects"},
		{"undefined prefix", `SELECT ?s WHERE { ?s a curric:Subject }`, "undefined prefix"},
		{"unterminated group", `SELECT ?s WHERE { ?s ?p ?o`, "unterminated group"},
		{"garbage after query", `ASK { ?s ?p ?o } nonsense`, "after end of query"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("SELECT ?s\nWHERE { ?s ?p }")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "line 2:"), "got %v", err)
}

func TestParseFileQuery(t *testing.T) {
	q, err := ParseFile("testdata/labels.rq")
	require.NoError(t, err)

	assert.Equal(t, FormSelect, q.Form)
	assert.Equal(t, []string{"concept", "label"}, q.Vars)
	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, "label", q.OrderBy[0].Var)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile("testdata/does-not-exist.rq")
	assert.Error(t, err)
}
