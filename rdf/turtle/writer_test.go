package turtle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf"
)

func sampleGraph() (*rdf.Graph, *rdf.Namespaces) {
	g := rdf.NewGraph()
	maths := rdf.IRI(engNS + "maths")
	g.AddAll([]rdf.Triple{
		{Subject: maths, Predicate: rdf.RDFType, Object: rdf.IRI(coreNS + "Subject")},
		{Subject: maths, Predicate: rdf.IRI(rdf.NSSKOS + "prefLabel"), Object: rdf.NewLangLiteral("Mathematics", "en")},
		{Subject: maths, Predicate: rdf.IRI(coreNS + "hasStrand"), Object: rdf.IRI(engNS + "maths-number")},
		{Subject: maths, Predicate: rdf.IRI(coreNS + "hasStrand"), Object: rdf.IRI(engNS + "maths-algebra")},
		{Subject: rdf.IRI(engNS + "y1"), Predicate: rdf.IRI(coreNS + "ageLower"), Object: rdf.NewTypedLiteral("5", rdf.XSDInteger)},
	})

	ns := rdf.NewNamespaces()
	ns.Bind("curric", coreNS)
	ns.Bind("eng", engNS)
	ns.Bind("skos", rdf.NSSKOS)
	return g, ns
}

func TestWriteTurtle(t *testing.T) {
	g, ns := sampleGraph()

	out, err := WriteString(g, ns)
	require.NoError(t, err)

	assert.Contains(t, out, "@prefix curric: <"+coreNS+"> .")
	assert.Contains(t, out, "eng:maths a curric:Subject")
	assert.Contains(t, out, `"Mathematics"@en`)
	assert.Contains(t, out, "eng:maths-algebra,")
	assert.Contains(t, out, "eng:ageLower 5 .", "integers use the bare shorthand")
}

func TestWriteTurtleRoundTrip(t *testing.T) {
	g, ns := sampleGraph()

	out, err := WriteString(g, ns)
	require.NoError(t, err)

	doc, err := ParseString(out)
	require.NoError(t, err)

	assert.Equal(t, g.Len(), doc.Graph.Len())
	for _, triple := range g.Triples() {
		assert.True(t, doc.Graph.Has(triple), "missing after round trip: %s", triple)
	}
}

func TestWriteTurtleDeterministic(t *testing.T) {
	g, ns := sampleGraph()

	first, err := WriteString(g, ns)
	require.NoError(t, err)
	second, err := WriteString(g, ns)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteNTriples(t *testing.T) {
	g, _ := sampleGraph()

	out, err := WriteNTriplesString(g)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, g.Len())
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " ."), "line should end with ' .': %s", line)
	}
	assert.Contains(t, out, "<"+engNS+"maths> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <"+coreNS+"Subject> .")
}

func TestWriteUncompactableIRI(t *testing.T) {
	g := rdf.NewGraph()
	g.Add(rdf.Triple{
		Subject:   rdf.IRI("https://other.example/x"),
		Predicate: rdf.IRI("https://other.example/p"),
		Object:    rdf.NewLiteral("v"),
	})

	out, err := WriteString(g, rdf.NewNamespaces())
	require.NoError(t, err)
	assert.Contains(t, out, "<https://other.example/x> <https://other.example/p> \"v\" .")
}
