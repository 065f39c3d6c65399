package shacl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
)

const shapesTurtle = `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix curric: <https://w3id.org/uk/curriculum/core/> .
@prefix eng: <https://w3id.org/uk/curriculum/england/> .

curric:SubjectShape a sh:NodeShape ;
    sh:targetClass curric:Subject ;
    sh:property [
        sh:path skos:prefLabel ;
        sh:minCount 1 ;
        sh:message "every subject needs a preferred label" ;
    ] ;
    sh:property [
        sh:path skos:notation ;
        sh:maxCount 1 ;
        sh:datatype xsd:string ;
        sh:pattern "^[a-z][a-z0-9-]*$" ;
    ] ;
    sh:property [
        sh:path curric:hasKeyStage ;
        sh:class curric:KeyStage ;
        sh:nodeKind sh:IRI ;
    ] .

curric:PhaseShape a sh:NodeShape ;
    sh:targetClass curric:Phase ;
    sh:property [
        sh:path skos:prefLabel ;
        sh:or ( [ sh:datatype xsd:string ] [ sh:datatype rdf:langString ] ) ;
    ] ;
    sh:property [
        sh:path curric:phaseKind ;
        sh:in ( eng:primary eng:secondary ) ;
    ] .

curric:SchemeShape a sh:NodeShape ;
    sh:targetClass curric:Scheme ;
    sh:severity sh:Warning ;
    sh:property [
        sh:path [ sh:inversePath curric:isPartOf ] ;
        sh:minCount 1 ;
        sh:name "scheme members" ;
    ] .
`

func shapesGraph(t *testing.T) *rdf.Graph {
	t.Helper()
	doc, err := turtle.ParseString(shapesTurtle)
	require.NoError(t, err)
	return doc.Graph
}

func shapeByID(t *testing.T, shapes []NodeShape, id rdf.IRI) NodeShape {
	t.Helper()
	for _, s := range shapes {
		if s.ID == rdf.Term(id) {
			return s
		}
	}
	t.Fatalf("no shape %s", id)
	return NodeShape{}
}

func TestParseShapes(t *testing.T) {
	shapes, err := ParseShapes(shapesGraph(t))
	require.NoError(t, err)
	require.Len(t, shapes, 3)

	subject := shapeByID(t, shapes, "https://w3id.org/uk/curriculum/core/SubjectShape")
	assert.Equal(t, []rdf.IRI{"https://w3id.org/uk/curriculum/core/Subject"}, subject.TargetClasses)
	assert.Equal(t, Violation, subject.Severity)
	require.Len(t, subject.Properties, 3)

	// Properties come back sorted by path; the skos paths precede the
	// https curriculum namespace.
	notation := subject.Properties[0]
	assert.Equal(t, rdf.IRI(rdf.NSSKOS+"notation"), notation.Path)
	assert.Equal(t, 1, notation.MaxCount)
	assert.Equal(t, rdf.XSDString, notation.Datatype)
	assert.Equal(t, "^[a-z][a-z0-9-]*$", notation.Pattern)

	label := subject.Properties[1]
	assert.Equal(t, rdf.IRI(rdf.NSSKOS+"prefLabel"), label.Path)
	assert.Equal(t, 1, label.MinCount)
	assert.Equal(t, "every subject needs a preferred label", label.Message)

	keyStage := subject.Properties[2]
	assert.Equal(t, rdf.IRI("https://w3id.org/uk/curriculum/core/hasKeyStage"), keyStage.Path)
	assert.Equal(t, rdf.IRI("https://w3id.org/uk/curriculum/core/KeyStage"), keyStage.Class)
	assert.Equal(t, NodeKindIRI, keyStage.NodeKind)
	assert.Equal(t, -1, keyStage.MinCount)
}

func TestParseShapesOrAndIn(t *testing.T) {
	shapes, err := ParseShapes(shapesGraph(t))
	require.NoError(t, err)

	phase := shapeByID(t, shapes, "https://w3id.org/uk/curriculum/core/PhaseShape")
	require.Len(t, phase.Properties, 2)

	label := phase.Properties[0]
	require.Len(t, label.Or, 2)
	assert.Equal(t, rdf.XSDString, label.Or[0].Datatype)
	assert.Equal(t, rdf.RDFLangString, label.Or[1].Datatype)

	kind := phase.Properties[1]
	require.Len(t, kind.In, 2)
	assert.Equal(t, rdf.Term(rdf.IRI("https://w3id.org/uk/curriculum/england/primary")), kind.In[0])
}

func TestParseShapesInversePathAndSeverity(t *testing.T) {
	shapes, err := ParseShapes(shapesGraph(t))
	require.NoError(t, err)

	scheme := shapeByID(t, shapes, "https://w3id.org/uk/curriculum/core/SchemeShape")
	assert.Equal(t, Warning, scheme.Severity)
	require.Len(t, scheme.Properties, 1)

	members := scheme.Properties[0]
	assert.True(t, members.Inverse)
	assert.Equal(t, rdf.IRI("https://w3id.org/uk/curriculum/core/isPartOf"), members.Path)
	assert.Equal(t, Warning, members.Severity, "property inherits the shape severity")
	assert.Equal(t, "scheme members", members.Name)
}

func TestParseShapesSkipsUntargeted(t *testing.T) {
	doc, err := turtle.ParseString(`
		@prefix sh: <http://www.w3.org/ns/shacl#> .
		@prefix ex: <https://example.org/> .
		ex:Floating a sh:NodeShape .
	`)
	require.NoError(t, err)

	shapes, err := ParseShapes(doc.Graph)
	require.NoError(t, err)
	assert.Empty(t, shapes)
}

func TestParseShapesErrors(t *testing.T) {
	cases := []struct {
		name   string
		turtle string
		want   string
	}{
		{
			"missing path",
			`@prefix sh: <http://www.w3.org/ns/shacl#> .
			@prefix ex: <https://example.org/> .
			ex:S a sh:NodeShape ; sh:targetClass ex:C ; sh:property [ sh:minCount 1 ] .`,
			"no sh:path",
		},
		{
			"bad count",
			`@prefix sh: <http://www.w3.org/ns/shacl#> .
			@prefix ex: <https://example.org/> .
			ex:S a sh:NodeShape ; sh:targetClass ex:C ;
			  sh:property [ sh:path ex:p ; sh:minCount "many" ] .`,
			"invalid count",
		},
		{
			"bad pattern",
			`@prefix sh: <http://www.w3.org/ns/shacl#> .
			@prefix ex: <https://example.org/> .
			ex:S a sh:NodeShape ; sh:targetClass ex:C ;
			  sh:property [ sh:path ex:p ; sh:pattern "[unclosed" ] .`,
			"invalid sh:pattern",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := turtle.ParseString(tc.turtle)
			require.NoError(t, err)
			_, err = ParseShapes(doc.Graph)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
