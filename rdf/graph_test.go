package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNS = "https://w3id.org/uk/curriculum/test/"

func iri(local string) IRI { return IRI(testNS + local) }

func TestGraphAddAndHas(t *testing.T) {
	g := NewGraph()
	tr := Triple{Subject: iri("maths"), Predicate: RDFType, Object: iri("Subject")}

	g.Add(tr)
	g.Add(tr)

	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Has(tr))
	assert.False(t, g.Has(Triple{Subject: iri("science"), Predicate: RDFType, Object: iri("Subject")}))
}

func TestGraphRemove(t *testing.T) {
	g := NewGraph()
	tr := Triple{Subject: iri("maths"), Predicate: RDFType, Object: iri("Subject")}
	g.Add(tr)

	g.Remove(tr)

	assert.Zero(t, g.Len())
	assert.False(t, g.Has(tr))
	assert.Empty(t, g.Match(iri("maths"), nil, nil))
}

func TestGraphMatch(t *testing.T) {
	g := NewGraph()
	g.AddAll([]Triple{
		{Subject: iri("maths"), Predicate: RDFType, Object: iri("Subject")},
		{Subject: iri("maths"), Predicate: RDFSLabel, Object: NewLiteral("Mathematics")},
		{Subject: iri("science"), Predicate: RDFType, Object: iri("Subject")},
		{Subject: iri("ks1"), Predicate: RDFType, Object: iri("KeyStage")},
	})

	tests := []struct {
		name    string
		s, p, o Term
		want    int
	}{
		{name: "all wildcards", want: 4},
		{name: "by subject", s: iri("maths"), want: 2},
		{name: "by predicate", p: RDFType, want: 3},
		{name: "by object", o: iri("Subject"), want: 2},
		{name: "subject and predicate", s: iri("maths"), p: RDFType, want: 1},
		{name: "no match", s: iri("history"), want: 0},
		{name: "bound but absent object", p: RDFType, o: iri("Phase"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, g.Match(tt.s, tt.p, tt.o), tt.want)
		})
	}
}

func TestGraphTriplesSorted(t *testing.T) {
	g := NewGraph()
	g.AddAll([]Triple{
		{Subject: iri("b"), Predicate: RDFSLabel, Object: NewLiteral("B")},
		{Subject: iri("a"), Predicate: RDFSLabel, Object: NewLiteral("A")},
		{Subject: iri("a"), Predicate: RDFType, Object: iri("Subject")},
	})

	ts := g.Triples()
	require.Len(t, ts, 3)
	assert.Equal(t, iri("a"), ts[0].Subject)
	assert.Equal(t, iri("a"), ts[1].Subject)
	assert.Equal(t, iri("b"), ts[2].Subject)
}

func TestGraphMerge(t *testing.T) {
	a := NewGraph()
	a.Add(Triple{Subject: iri("maths"), Predicate: RDFType, Object: iri("Subject")})
	b := NewGraph()
	b.Add(Triple{Subject: iri("maths"), Predicate: RDFType, Object: iri("Subject")})
	b.Add(Triple{Subject: iri("science"), Predicate: RDFType, Object: iri("Subject")})

	a.Merge(b)

	assert.Equal(t, 2, a.Len())
}

func TestGraphObjectsAndFirst(t *testing.T) {
	g := NewGraph()
	g.AddAll([]Triple{
		{Subject: iri("maths"), Predicate: iri("hasStrand"), Object: iri("number")},
		{Subject: iri("maths"), Predicate: iri("hasStrand"), Object: iri("algebra")},
	})

	objects := g.Objects(iri("maths"), iri("hasStrand"))
	require.Len(t, objects, 2)
	assert.Equal(t, iri("algebra"), objects[0])

	first, ok := g.First(iri("maths"), iri("hasStrand"))
	require.True(t, ok)
	assert.Equal(t, iri("algebra"), first)

	_, ok = g.First(iri("maths"), iri("missing"))
	assert.False(t, ok)
}

func TestGraphSubjectsOfType(t *testing.T) {
	g := NewGraph()
	g.AddAll([]Triple{
		{Subject: iri("maths"), Predicate: RDFType, Object: iri("Subject")},
		{Subject: iri("science"), Predicate: RDFType, Object: iri("Subject")},
		{Subject: iri("ks1"), Predicate: RDFType, Object: iri("KeyStage")},
	})

	subjects := g.SubjectsOfType(iri("Subject"))
	require.Len(t, subjects, 2)
	assert.Equal(t, iri("maths"), subjects[0])
	assert.Equal(t, iri("science"), subjects[1])
}
