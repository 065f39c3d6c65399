// Package graph publishes dataset change notifications to NATS JetStream
// so downstream consumers can track curriculum updates.
package graph

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

// Triple is the wire form of one statement in an ingest message.
type Triple struct {
	Subject   string    `json:"subject"`
	Predicate string    `json:"predicate"`
	Object    string    `json:"object"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// EntityIngestMessage carries one entity's statements to the ingest
// subject.
type EntityIngestMessage struct {
	MessageID string    `json:"message_id"`
	ID        string    `json:"id"`
	Triples   []Triple  `json:"triples"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the message is publishable.
func (m EntityIngestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("entity ID is required")
	}
	return nil
}

// EntityID generates the ingest entity id for a curriculum slug.
// Format: curriculum.england.<slug>
func EntityID(slug string) string {
	return "curriculum.england." + slug
}

// SlugOf extracts the entity slug from an IRI: the England-namespace
// local name, or the last path segment for anything else.
func SlugOf(iri rdf.IRI) string {
	s := string(iri)
	if strings.HasPrefix(s, curriculum.EnglandNamespace) {
		return strings.TrimPrefix(s, curriculum.EnglandNamespace)
	}
	if i := strings.LastIndexAny(s, "#/"); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

// EntityMessage builds the ingest message for one subject of the graph.
func EntityMessage(g *rdf.Graph, subject rdf.IRI, source string, now time.Time) EntityIngestMessage {
	triples := g.Match(subject, nil, nil)
	rdf.SortTriples(triples)

	wire := make([]Triple, 0, len(triples))
	for _, t := range triples {
		wire = append(wire, Triple{
			Subject:   string(subject),
			Predicate: termValue(t.Predicate),
			Object:    termValue(t.Object),
			Source:    source,
			Timestamp: now,
		})
	}
	return EntityIngestMessage{
		MessageID: uuid.NewString(),
		ID:        EntityID(SlugOf(subject)),
		Triples:   wire,
		UpdatedAt: now,
	}
}

// EntitySubjects lists the IRI subjects of the graph in stable order.
// Blank nodes carry no public identity and stay out of the ingest feed.
func EntitySubjects(g *rdf.Graph) []rdf.IRI {
	var subjects []rdf.IRI
	for _, s := range g.Subjects() {
		if iri, ok := s.(rdf.IRI); ok {
			subjects = append(subjects, iri)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })
	return subjects
}

// termValue renders a term for the wire: raw IRIs, literal lexical
// forms, labelled blanks.
func termValue(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return string(v)
	case rdf.Literal:
		return v.Lexical
	default:
		return t.String()
	}
}
