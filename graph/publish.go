package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/oaknational/currigraph/rdf"
)

// IngestSubject is the JetStream subject dataset changes publish to.
const IngestSubject = "curriculum.ingest.entity"

// IngestStream is the stream that captures ingest subjects.
const IngestStream = "CURRICULUM"

// Config selects the NATS endpoint and stream layout. An empty URL
// disables publishing.
type Config struct {
	URL     string
	Subject string
	Stream  string
}

// Publisher publishes entity ingest messages. A nil Publisher is valid
// and publishes nothing, so callers without NATS configured need no
// branching.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	stream  string
	log     *slog.Logger

	mu      sync.Mutex
	ensured bool
}

// Connect dials NATS and prepares a JetStream publisher. A config with
// no URL yields a nil Publisher and no error.
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Subject == "" {
		cfg.Subject = IngestSubject
	}
	if cfg.Stream == "" {
		cfg.Stream = IngestStream
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("currigraph"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("get jetstream: %w", err)
	}
	return &Publisher{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		stream:  cfg.Stream,
		log:     logger,
	}, nil
}

// Close drains the connection. Safe on nil.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

// ensureStream creates or updates the ingest stream once per Publisher.
func (p *Publisher) ensureStream(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ensured {
		return nil
	}
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     p.stream,
		Subjects: []string{p.subject},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", p.stream, err)
	}
	p.ensured = true
	return nil
}

// Publish sends one entity ingest message. No-op on a nil Publisher.
func (p *Publisher) Publish(ctx context.Context, msg EntityIngestMessage) error {
	if p == nil {
		return nil
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid ingest message: %w", err)
	}
	if err := p.ensureStream(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ingest message: %w", err)
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("publish entity %s: %w", msg.ID, err)
	}
	return nil
}

// PublishGraph publishes one ingest message per entity in the graph.
// No-op on a nil Publisher.
func (p *Publisher) PublishGraph(ctx context.Context, g *rdf.Graph, source string) error {
	if p == nil {
		return nil
	}
	now := time.Now().UTC()
	subjects := EntitySubjects(g)
	for _, subject := range subjects {
		if err := p.Publish(ctx, EntityMessage(g, subject, source, now)); err != nil {
			return err
		}
	}
	p.log.Info("published dataset entities",
		"entities", len(subjects),
		"subject", p.subject,
		"source", source)
	return nil
}
