package export

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Statement is one parameterized Cypher write.
type Statement struct {
	Query  string
	Params map[string]any
}

// Statements generates the batched writes that load a property graph:
// node MERGE batches grouped by label set, then relationship MERGE
// batches grouped by type, so every endpoint exists before its edges.
// batchSize caps the rows per statement.
func Statements(pg *PropertyGraph, batchSize int) []Statement {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var stmts []Statement

	byLabels := make(map[string][]*Node)
	for _, n := range pg.Nodes() {
		key := strings.Join(n.Labels, ":")
		byLabels[key] = append(byLabels[key], n)
	}
	for _, key := range slices.Sorted(maps.Keys(byLabels)) {
		nodes := byLabels[key]
		query := "UNWIND $rows AS row MERGE (n:" + key + " {uri: row.uri}) SET n += row.props"
		for start := 0; start < len(nodes); start += batchSize {
			end := min(start+batchSize, len(nodes))
			rows := make([]map[string]any, 0, end-start)
			for _, n := range nodes[start:end] {
				rows = append(rows, map[string]any{"uri": n.URI, "props": n.Props})
			}
			stmts = append(stmts, Statement{Query: query, Params: map[string]any{"rows": rows}})
		}
	}

	byType := make(map[string][]*Relationship)
	for _, r := range pg.Relationships() {
		byType[r.Type] = append(byType[r.Type], r)
	}
	for _, relType := range slices.Sorted(maps.Keys(byType)) {
		rels := byType[relType]
		query := "UNWIND $rows AS row MATCH (a {uri: row.from}) MATCH (b {uri: row.to}) " +
			"MERGE (a)-[r:" + relType + "]->(b) SET r += row.props"
		for start := 0; start < len(rels); start += batchSize {
			end := min(start+batchSize, len(rels))
			rows := make([]map[string]any, 0, end-start)
			for _, r := range rels[start:end] {
				props := r.Props
				if props == nil {
					props = map[string]any{}
				}
				rows = append(rows, map[string]any{"from": r.From, "to": r.To, "props": props})
			}
			stmts = append(stmts, Statement{Query: query, Params: map[string]any{"rows": rows}})
		}
	}
	return stmts
}

// WriteCypher writes the property graph as literal Cypher statements,
// one per node and relationship, for inspection or offline loading.
func WriteCypher(w io.Writer, pg *PropertyGraph) error {
	for _, n := range pg.Nodes() {
		var sb strings.Builder
		sb.WriteString("MERGE (n:")
		sb.WriteString(strings.Join(n.Labels, ":"))
		sb.WriteString(" {uri: ")
		sb.WriteString(quote(n.URI))
		sb.WriteString("})")
		writeAssignments(&sb, "n", n.Props)
		sb.WriteString(";\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	for _, r := range pg.Relationships() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "MATCH (a {uri: %s}), (b {uri: %s}) MERGE (a)-[r:%s]->(b)",
			quote(r.From), quote(r.To), r.Type)
		writeAssignments(&sb, "r", r.Props)
		sb.WriteString(";\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeAssignments(sb *strings.Builder, variable string, props map[string]any) {
	if len(props) == 0 {
		return
	}
	sb.WriteString(" SET ")
	for i, key := range slices.Sorted(maps.Keys(props)) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(variable)
		sb.WriteByte('.')
		sb.WriteString(propName(key))
		sb.WriteString(" = ")
		sb.WriteString(cypherValue(props[key]))
	}
}

// propName backtick-quotes property names that are not plain
// identifiers.
func propName(key string) string {
	if validIdentifier(key) {
		return key
	}
	return "`" + strings.ReplaceAll(key, "`", "``") + "`"
}

// cypherValue renders a property value as a Cypher literal.
func cypherValue(v any) string {
	switch val := v.(type) {
	case string:
		return quote(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = cypherValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return quote(fmt.Sprint(val))
	}
}

// quote renders a single-quoted Cypher string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
