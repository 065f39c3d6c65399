package graph

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

func ingestFixture() *rdf.Graph {
	g := rdf.NewGraph()
	maths := rdf.IRI(curriculum.EnglandNamespace + "subject-mathematics")
	algebra := rdf.IRI(curriculum.EnglandNamespace + "strand-algebra")

	g.Add(rdf.Triple{Subject: maths, Predicate: rdf.RDFType, Object: curriculum.ClassSubject})
	g.Add(rdf.Triple{Subject: maths, Predicate: rdf.RDFSLabel, Object: rdf.NewLangLiteral("Mathematics", "en")})
	g.Add(rdf.Triple{Subject: algebra, Predicate: rdf.RDFType, Object: curriculum.ClassStrand})
	g.Add(rdf.Triple{Subject: rdf.BlankNode("b1"), Predicate: rdf.RDFSLabel, Object: rdf.NewLiteral("anonymous")})
	return g
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "curriculum.england.subject-science", EntityID("subject-science"))
}

func TestSlugOf(t *testing.T) {
	assert.Equal(t, "strand-algebra", SlugOf(rdf.IRI(curriculum.EnglandNamespace+"strand-algebra")))
	assert.Equal(t, "Subject", SlugOf(curriculum.ClassSubject))
	assert.Equal(t, "prefLabel", SlugOf(curriculum.SKOSPrefLabel))
	assert.Equal(t, "urn:x", SlugOf(rdf.IRI("urn:x")))
}

func TestEntitySubjects(t *testing.T) {
	subjects := EntitySubjects(ingestFixture())

	// Blank node subjects are excluded; IRIs come back sorted.
	require.Len(t, subjects, 2)
	assert.Equal(t, rdf.IRI(curriculum.EnglandNamespace+"strand-algebra"), subjects[0])
	assert.Equal(t, rdf.IRI(curriculum.EnglandNamespace+"subject-mathematics"), subjects[1])
}

func TestEntityMessage(t *testing.T) {
	g := ingestFixture()
	maths := rdf.IRI(curriculum.EnglandNamespace + "subject-mathematics")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	msg := EntityMessage(g, maths, "currigraph.load", now)

	assert.Equal(t, "curriculum.england.subject-mathematics", msg.ID)
	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, now, msg.UpdatedAt)
	require.Len(t, msg.Triples, 2)

	for _, triple := range msg.Triples {
		assert.Equal(t, string(maths), triple.Subject)
		assert.Equal(t, "currigraph.load", triple.Source)
		assert.Equal(t, now, triple.Timestamp)
	}
	// Literal objects are carried as their lexical form.
	assert.Equal(t, string(rdf.RDFSLabel), msg.Triples[1].Predicate)
	assert.Equal(t, "Mathematics", msg.Triples[1].Object)
	assert.Equal(t, string(curriculum.ClassSubject), msg.Triples[0].Object)
}

func TestEntityMessageJSON(t *testing.T) {
	g := ingestFixture()
	maths := rdf.IRI(curriculum.EnglandNamespace + "subject-mathematics")
	msg := EntityMessage(g, maths, "currigraph.load", time.Now().UTC())

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"curriculum.england.subject-mathematics"`)
	assert.Contains(t, string(data), `"message_id"`)
	assert.Contains(t, string(data), `"triples"`)
}

func TestValidate(t *testing.T) {
	require.Error(t, EntityIngestMessage{}.Validate())
	require.NoError(t, EntityIngestMessage{ID: "curriculum.england.x"}.Validate())
}

func TestNilPublisher(t *testing.T) {
	var p *Publisher

	require.NoError(t, p.Publish(context.Background(), EntityIngestMessage{ID: "x"}))
	require.NoError(t, p.PublishGraph(context.Background(), ingestFixture(), "test"))
	p.Close()
}

func TestConnectDisabled(t *testing.T) {
	p, err := Connect(Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}
