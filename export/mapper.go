package export

import (
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/oaknational/currigraph/rdf"
)

// Node is one property-graph node, keyed by the IRI it was minted from.
// The IRI is kept as the uri property and as the MERGE key.
type Node struct {
	URI    string
	Labels []string
	Props  map[string]any
}

// HasLabel reports whether the node carries the label.
func (n *Node) HasLabel(label string) bool {
	return slices.Contains(n.Labels, label)
}

func (n *Node) addLabel(label string) {
	if !n.HasLabel(label) {
		n.Labels = append(n.Labels, label)
	}
}

// addProp sets a property, collecting repeated values into a list.
func (n *Node) addProp(key string, value any) {
	existing, ok := n.Props[key]
	if !ok {
		n.Props[key] = value
		return
	}
	if list, ok := existing.([]any); ok {
		n.Props[key] = append(list, value)
		return
	}
	n.Props[key] = []any{existing, value}
}

// Relationship is one directed, typed edge between two nodes.
type Relationship struct {
	From  string
	To    string
	Type  string
	Props map[string]any
}

// PropertyGraph is the mapped form of an RDF graph, ready for Cypher
// generation.
type PropertyGraph struct {
	nodes map[string]*Node
	rels  []*Relationship
}

// Node returns the node minted for the IRI.
func (pg *PropertyGraph) Node(uri string) (*Node, bool) {
	n, ok := pg.nodes[uri]
	return n, ok
}

// Nodes returns every node sorted by IRI.
func (pg *PropertyGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(pg.nodes))
	for _, n := range pg.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Relationships returns every relationship sorted by source, type, and
// target.
func (pg *PropertyGraph) Relationships() []*Relationship {
	out := make([]*Relationship, len(pg.rels))
	copy(out, pg.rels)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.To < b.To
	})
	return out
}

// NodeCount returns the number of nodes.
func (pg *PropertyGraph) NodeCount() int { return len(pg.nodes) }

// RelationshipCount returns the number of relationships.
func (pg *PropertyGraph) RelationshipCount() int { return len(pg.rels) }

func (pg *PropertyGraph) ensure(uri, mainLabel string) *Node {
	if n, ok := pg.nodes[uri]; ok {
		return n
	}
	n := &Node{URI: uri, Labels: []string{mainLabel}, Props: make(map[string]any)}
	pg.nodes[uri] = n
	return n
}

// Mapper applies a Config to RDF graphs.
type Mapper struct {
	cfg *Config
	ns  *rdf.Namespaces
	log *slog.Logger
}

// NewMapper returns a Mapper for the configuration. A nil logger falls
// back to slog.Default.
func NewMapper(cfg *Config, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	ns := rdf.CommonNamespaces()
	for prefix, base := range cfg.RDFSource.Namespaces {
		ns.Bind(prefix, base)
	}
	return &Mapper{cfg: cfg, ns: ns, log: logger}
}

// Map converts an RDF graph into a property graph. Statements about
// excluded subjects are dropped, rdf:type objects become labels,
// literals become properties, and IRI objects become relationships.
// Blank nodes have no stable identity across runs and are skipped.
func (m *Mapper) Map(g *rdf.Graph) *PropertyGraph {
	excluded, filtered := m.excludedSubjects(g)

	pg := &PropertyGraph{nodes: make(map[string]*Node)}
	skipped := 0
	for _, t := range g.Triples() {
		if _, ok := excluded[t.Subject]; ok {
			continue
		}
		subj, ok := t.Subject.(rdf.IRI)
		if !ok {
			skipped++
			continue
		}
		pred, ok := t.Predicate.(rdf.IRI)
		if !ok {
			skipped++
			continue
		}
		node := pg.ensure(string(subj), m.mainLabel(string(subj)))

		if pred == rdf.RDFType {
			if class, ok := t.Object.(rdf.IRI); ok {
				node.addLabel(identifier(localName(class)))
			}
			continue
		}

		switch obj := t.Object.(type) {
		case rdf.Literal:
			node.addProp(localName(pred), literalValue(obj))
		case rdf.IRI:
			relType, reversed := m.relType(pred)
			pg.ensure(string(obj), m.mainLabel(string(obj)))
			from, to := string(subj), string(obj)
			if reversed {
				from, to = to, from
			}
			pg.rels = append(pg.rels, &Relationship{From: from, To: to, Type: relType})
		default:
			skipped++
		}
	}

	m.extractSlugs(pg)
	m.renameProps(pg)
	flattened := m.flatten(pg)

	m.log.Info("mapped property graph",
		slog.Int("nodes", pg.NodeCount()),
		slog.Int("relationships", pg.RelationshipCount()),
		slog.Int("filtered_triples", filtered),
		slog.Int("flattened_nodes", flattened))
	if skipped > 0 {
		m.log.Debug("skipped blank node statements", slog.Int("count", skipped))
	}
	return pg
}

// excludedSubjects resolves the configured type filters and collects
// every subject that is an instance of one of them.
func (m *Mapper) excludedSubjects(g *rdf.Graph) (map[rdf.Term]struct{}, int) {
	excluded := make(map[rdf.Term]struct{})
	for _, name := range m.cfg.RDFSource.Filters.ExcludeSubjectsByType {
		class, ok := m.ns.Expand(name)
		if !ok {
			class = rdf.IRI(name)
		}
		for _, s := range g.SubjectsOfType(class) {
			excluded[s] = struct{}{}
		}
	}
	filtered := 0
	for s := range excluded {
		filtered += len(g.Match(s, nil, nil))
	}
	return excluded, filtered
}

func (m *Mapper) mainLabel(uri string) string {
	if strings.HasPrefix(uri, m.cfg.LabelMapping.URIPattern) {
		return m.cfg.LabelMapping.TargetLabel
	}
	return m.cfg.LabelMapping.SourceLabel
}

// relType derives the relationship type for a predicate: explicit
// renames first, then reversals, then mechanical UPPER_SNAKE
// conversion for everything unmapped.
func (m *Mapper) relType(pred rdf.IRI) (string, bool) {
	name := localName(pred)
	explicit := false
	if mapped, ok := m.cfg.RelationshipTypes[name]; ok {
		name, explicit = mapped, true
	}
	reversed := false
	if mapped, ok := m.cfg.ReverseRelationships[name]; ok {
		name, reversed, explicit = mapped, true, true
	}
	if !explicit {
		name = upperSnake(name)
	}
	return identifier(name), reversed
}

func (m *Mapper) extractSlugs(pg *PropertyGraph) {
	if len(m.cfg.SlugProperties) == 0 {
		return
	}
	nodes := pg.Nodes()
	main := m.cfg.LabelMapping.TargetLabel
	for _, label := range slices.Sorted(maps.Keys(m.cfg.SlugProperties)) {
		prop := m.cfg.SlugProperties[label]
		count := 0
		for _, n := range nodes {
			if !n.HasLabel(label) || !n.HasLabel(main) {
				continue
			}
			n.Props[prop] = slugOf(n.URI)
			count++
		}
		if count > 0 {
			m.log.Debug("extracted slugs",
				slog.String("label", label),
				slog.String("property", prop),
				slog.Int("nodes", count))
		}
	}
}

func (m *Mapper) renameProps(pg *PropertyGraph) {
	if len(m.cfg.PropertyRenames) == 0 {
		return
	}
	nodes := pg.Nodes()
	main := m.cfg.LabelMapping.TargetLabel
	for _, label := range slices.Sorted(maps.Keys(m.cfg.PropertyRenames)) {
		renames := m.cfg.PropertyRenames[label]
		for _, old := range slices.Sorted(maps.Keys(renames)) {
			renamed := renames[old]
			for _, n := range nodes {
				if !n.HasLabel(label) || !n.HasLabel(main) {
					continue
				}
				if v, ok := n.Props[old]; ok {
					n.Props[renamed] = v
					delete(n.Props, old)
				}
			}
		}
	}
}

// flatten applies each rule in order: every join node with at least one
// qualifying source and target is replaced by direct relationships, one
// per source and target pair, and removed together with all its edges.
func (m *Mapper) flatten(pg *PropertyGraph) int {
	flattened := 0
	main := m.cfg.LabelMapping.TargetLabel
	for _, rule := range m.cfg.Flatten {
		incoming := make(map[string][]*Relationship)
		outgoing := make(map[string][]*Relationship)
		for _, r := range pg.rels {
			incoming[r.To] = append(incoming[r.To], r)
			outgoing[r.From] = append(outgoing[r.From], r)
		}

		var direct []*Relationship
		removed := make(map[string]struct{})
		for _, n := range pg.Nodes() {
			if !n.HasLabel(rule.InclusionLabel) || !n.HasLabel(main) {
				continue
			}
			var sources, targets []*Node
			for _, r := range incoming[n.URI] {
				if s, ok := pg.nodes[r.From]; ok && s.HasLabel(rule.SourceLabel) && s.HasLabel(main) {
					sources = append(sources, s)
				}
			}
			for _, r := range outgoing[n.URI] {
				if t, ok := pg.nodes[r.To]; ok && t.HasLabel(rule.TargetLabel) && t.HasLabel(main) {
					targets = append(targets, t)
				}
			}
			if len(sources) == 0 || len(targets) == 0 {
				continue
			}
			for _, s := range sources {
				for _, t := range targets {
					props := make(map[string]any)
					for _, old := range slices.Sorted(maps.Keys(rule.PropertyMappings)) {
						if v, ok := n.Props[old]; ok {
							props[rule.PropertyMappings[old]] = v
						}
					}
					for _, old := range slices.Sorted(maps.Keys(rule.CopyTargetProperties)) {
						if v, ok := t.Props[old]; ok {
							props[rule.CopyTargetProperties[old]] = v
						}
					}
					direct = append(direct, &Relationship{From: s.URI, To: t.URI, Type: rule.RelationshipType, Props: props})
				}
			}
			removed[n.URI] = struct{}{}
			flattened++
		}

		if len(removed) == 0 {
			continue
		}
		var kept []*Relationship
		for _, r := range pg.rels {
			if _, ok := removed[r.From]; ok {
				continue
			}
			if _, ok := removed[r.To]; ok {
				continue
			}
			kept = append(kept, r)
		}
		pg.rels = append(kept, direct...)
		for uri := range removed {
			delete(pg.nodes, uri)
		}
		m.log.Info("flattened join nodes",
			slog.String("relationship", rule.RelationshipType),
			slog.Int("nodes", len(removed)),
			slog.Int("relationships", len(direct)))
	}
	return flattened
}

// localName returns the IRI fragment after the last # or /.
func localName(iri rdf.IRI) string {
	s := string(iri)
	if i := strings.LastIndexAny(s, "#/"); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return s
}

// slugOf returns the last path segment of a node IRI.
func slugOf(uri string) string {
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// literalValue converts a literal to its Neo4j property value. Numeric
// and boolean datatypes map to native types; everything else, language
// tags included, keeps the lexical form.
func literalValue(l rdf.Literal) any {
	switch l.Datatype {
	case rdf.XSDInteger, rdf.XSDNonNegativeInteger, rdf.XSDPositiveInteger:
		if n, err := strconv.ParseInt(l.Lexical, 10, 64); err == nil {
			return n
		}
	case rdf.XSDBoolean:
		if b, err := strconv.ParseBool(l.Lexical); err == nil {
			return b
		}
	case rdf.XSDDecimal, rdf.XSDDouble:
		if f, err := strconv.ParseFloat(l.Lexical, 64); err == nil {
			return f
		}
	}
	return l.Lexical
}

// upperSnake converts a camelCase name to the UPPER_SNAKE relationship
// type convention. Names already fully uppercase pass through.
func upperSnake(s string) string {
	if s == strings.ToUpper(s) {
		return s
	}
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if !unicode.IsUpper(prev) || (i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}

// identifier coerces a name derived from an IRI into a form safe to
// interpolate into Cypher as a label or relationship type.
func identifier(s string) string {
	if validIdentifier(s) {
		return s
	}
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
