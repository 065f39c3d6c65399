package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Exporter loads property graphs into a Neo4j database.
type Exporter struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

// Connect opens a driver for the credentials and verifies connectivity
// before returning. Close releases the driver. A nil logger falls back
// to slog.Default.
func Connect(ctx context.Context, creds Credentials, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(creds.URI, neo4j.BasicAuth(creds.Username, creds.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify connectivity: %w", err)
	}
	logger.Info("connected to Neo4j",
		slog.String("uri", creds.URI),
		slog.String("database", creds.Database))
	return &Exporter{driver: driver, database: creds.Database, log: logger}, nil
}

// Close releases the underlying driver.
func (e *Exporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Run loads the property graph in batched write transactions. The first
// failing batch aborts the load.
func (e *Exporter) Run(ctx context.Context, pg *PropertyGraph, batchSize int) error {
	stmts := Statements(pg, batchSize)
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer session.Close(ctx)

	var nodesCreated, relsCreated, propsSet int
	for i, stmt := range stmts {
		out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, stmt.Query, stmt.Params)
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("batch %d of %d: %w", i+1, len(stmts), err)
		}
		if summary, ok := out.(neo4j.ResultSummary); ok {
			counters := summary.Counters()
			nodesCreated += counters.NodesCreated()
			relsCreated += counters.RelationshipsCreated()
			propsSet += counters.PropertiesSet()
		}
	}
	e.log.Info("export complete",
		slog.Int("batches", len(stmts)),
		slog.Int("nodes_created", nodesCreated),
		slog.Int("relationships_created", relsCreated),
		slog.Int("properties_set", propsSet))
	return nil
}

// Clear removes every node carrying the label, typically the main
// label left by a previous export, and returns how many were deleted.
func (e *Exporter) Clear(ctx context.Context, label string) (int64, error) {
	if !validIdentifier(label) {
		return 0, fmt.Errorf("invalid label %q", label)
	}
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (n:"+label+") RETURN count(n)", nil)
	if err != nil {
		return 0, fmt.Errorf("count %s nodes: %w", label, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s nodes: %w", label, err)
	}
	count, _ := record.Values[0].(int64)
	if count == 0 {
		return 0, nil
	}

	result, err = session.Run(ctx, "MATCH (n:"+label+") DETACH DELETE n", nil)
	if err != nil {
		return 0, fmt.Errorf("clear %s nodes: %w", label, err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return 0, fmt.Errorf("clear %s nodes: %w", label, err)
	}
	e.log.Info("cleared previous export", slog.String("label", label), slog.Int64("nodes", count))
	return count, nil
}

// LabelCount pairs a type label with its node count.
type LabelCount struct {
	Label string
	Count int64
}

// GraphStats summarises the database contents after an export.
type GraphStats struct {
	Nodes   int64
	ByLabel []LabelCount
}

// Verify queries the total node count and the per-type breakdown of
// nodes carrying the main label.
func (e *Exporter) Verify(ctx context.Context, mainLabel string) (GraphStats, error) {
	var stats GraphStats
	if !validIdentifier(mainLabel) {
		return stats, fmt.Errorf("invalid label %q", mainLabel)
	}
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (n) RETURN count(n)", nil)
	if err != nil {
		return stats, fmt.Errorf("count nodes: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return stats, fmt.Errorf("count nodes: %w", err)
	}
	stats.Nodes, _ = record.Values[0].(int64)

	query := "MATCH (n:" + mainLabel + ") " +
		"WITH n, [label IN labels(n) WHERE label <> $main] AS types " +
		"WITH CASE WHEN size(types) = 0 THEN '(untyped)' ELSE types[0] END AS type, count(*) AS count " +
		"RETURN type, count ORDER BY count DESC, type"
	result, err = session.Run(ctx, query, map[string]any{"main": mainLabel})
	if err != nil {
		return stats, fmt.Errorf("count by type: %w", err)
	}
	for result.Next(ctx) {
		values := result.Record().Values
		label, _ := values[0].(string)
		count, _ := values[1].(int64)
		stats.ByLabel = append(stats.ByLabel, LabelCount{Label: label, Count: count})
	}
	if err := result.Err(); err != nil {
		return stats, fmt.Errorf("count by type: %w", err)
	}
	return stats, nil
}
