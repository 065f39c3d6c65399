// Package export maps the merged curriculum graph onto a labelled
// property graph and loads it into Neo4j. The mapping is driven by a
// JSON configuration: node labels derive from rdf:type local names,
// literal properties from predicate local names, and IRI-valued
// statements become relationships whose types are renamed, reversed,
// or flattened according to the configured rules.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoCredentials indicates the Neo4j connection environment is not set.
var ErrNoCredentials = errors.New("missing Neo4j credentials")

// DefaultBatchSize is the number of rows sent per write transaction.
const DefaultBatchSize = 1000

// Config drives one export run. Field names follow the JSON
// configuration file checked in next to the data.
type Config struct {
	RDFSource  RDFSource  `json:"rdf_source"`
	Connection Connection `json:"neo4j_connection"`

	// LabelMapping assigns the main node label by IRI prefix. Nodes
	// whose IRI starts with URIPattern get TargetLabel; everything
	// else, external vocabulary terms included, keeps SourceLabel.
	LabelMapping LabelMapping `json:"label_mapping"`

	// SlugProperties stores the last IRI path segment as a property,
	// keyed by node label.
	SlugProperties map[string]string `json:"uri_slug_extraction"`

	// PropertyRenames renames node properties per label, old name to
	// new name.
	PropertyRenames map[string]map[string]string `json:"property_mappings"`

	// RelationshipTypes renames relationship types derived from
	// predicate local names. Mapped values are used verbatim; anything
	// unmapped is converted to UPPER_SNAKE form.
	RelationshipTypes map[string]string `json:"relationship_type_mappings"`

	// ReverseRelationships flips the direction of a relationship type
	// while renaming it.
	ReverseRelationships map[string]string `json:"reverse_relationships"`

	// Flatten hoists join nodes into direct relationships.
	Flatten []FlattenRule `json:"inclusion_flattening"`
}

// RDFSource locates and filters the Turtle files to export.
type RDFSource struct {
	// Namespaces binds prefix labels for the CURIEs used elsewhere in
	// the configuration.
	Namespaces map[string]string `json:"namespaces"`
	Files      FileDiscovery     `json:"file_discovery"`
	Filters    Filters           `json:"filters"`
}

// FileDiscovery selects Turtle files relative to a base directory.
type FileDiscovery struct {
	BaseDir         string   `json:"base_dir"`
	IncludeFiles    []string `json:"include_files"`
	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`
}

// Filters removes statements before mapping.
type Filters struct {
	// ExcludeSubjectsByType drops every statement whose subject is an
	// instance of one of these classes, given as CURIEs or full IRIs.
	// Ontology headers are excluded this way.
	ExcludeSubjectsByType []string `json:"exclude_subjects_by_type"`
}

// Connection configures the target database.
type Connection struct {
	Database  string `json:"database"`
	BatchSize int    `json:"batch_size"`
}

// LabelMapping assigns the main node label by IRI prefix.
type LabelMapping struct {
	SourceLabel string `json:"source_label"`
	TargetLabel string `json:"target_label"`
	URIPattern  string `json:"uri_pattern"`
	Description string `json:"description"`
}

// FlattenRule replaces a (source)->(join)->(target) path with a direct
// relationship. Properties of the join node and of the target node can
// be carried onto the new relationship under new names.
type FlattenRule struct {
	Description          string            `json:"description"`
	InclusionLabel       string            `json:"inclusion_node_label"`
	SourceLabel          string            `json:"source_node_label"`
	TargetLabel          string            `json:"target_node_label"`
	RelationshipType     string            `json:"relationship_type"`
	PropertyMappings     map[string]string `json:"relationship_property_mappings"`
	CopyTargetProperties map[string]string `json:"copy_target_properties"`
}

// LoadConfig reads and validates an export configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LabelMapping.SourceLabel == "" {
		c.LabelMapping.SourceLabel = "Resource"
	}
	if c.LabelMapping.TargetLabel == "" {
		c.LabelMapping.TargetLabel = "Curriculum"
	}
	if c.Connection.Database == "" {
		c.Connection.Database = "neo4j"
	}
	if c.Connection.BatchSize <= 0 {
		c.Connection.BatchSize = DefaultBatchSize
	}
	if c.RDFSource.Files.ExcludePatterns == nil {
		c.RDFSource.Files.ExcludePatterns = []string{"**/versions/**"}
	}
	if c.RDFSource.Filters.ExcludeSubjectsByType == nil {
		c.RDFSource.Filters.ExcludeSubjectsByType = []string{"owl:Ontology"}
	}
}

// Validate checks that the configuration can produce well-formed
// Cypher. Labels and relationship types are interpolated into
// statements, so they must be plain identifiers.
func (c *Config) Validate() error {
	if c.LabelMapping.URIPattern == "" {
		return errors.New("label_mapping.uri_pattern is required")
	}
	for _, label := range []string{c.LabelMapping.SourceLabel, c.LabelMapping.TargetLabel} {
		if !validIdentifier(label) {
			return fmt.Errorf("invalid label %q", label)
		}
	}
	for label := range c.SlugProperties {
		if !validIdentifier(label) {
			return fmt.Errorf("uri_slug_extraction: invalid label %q", label)
		}
	}
	for label := range c.PropertyRenames {
		if !validIdentifier(label) {
			return fmt.Errorf("property_mappings: invalid label %q", label)
		}
	}
	for name, mapped := range c.RelationshipTypes {
		if !validIdentifier(mapped) {
			return fmt.Errorf("relationship_type_mappings: invalid type %q for %q", mapped, name)
		}
	}
	for name, mapped := range c.ReverseRelationships {
		if !validIdentifier(mapped) {
			return fmt.Errorf("reverse_relationships: invalid type %q for %q", mapped, name)
		}
	}
	for i, rule := range c.Flatten {
		for _, label := range []string{rule.InclusionLabel, rule.SourceLabel, rule.TargetLabel} {
			if !validIdentifier(label) {
				return fmt.Errorf("inclusion_flattening[%d]: invalid label %q", i, label)
			}
		}
		if !validIdentifier(rule.RelationshipType) {
			return fmt.Errorf("inclusion_flattening[%d]: invalid relationship type %q", i, rule.RelationshipType)
		}
	}
	return nil
}

// Discover resolves the configured files and patterns against root.
// Explicitly listed files come first in their configured order; pattern
// matches follow sorted by path. Missing listed files are skipped.
func (f FileDiscovery) Discover(root string) ([]string, error) {
	base := filepath.Join(root, f.BaseDir)
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, name := range f.IncludeFiles {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		add(path)
	}

	var matched []string
	for _, pattern := range f.IncludePatterns {
		glob := filepath.ToSlash(filepath.Join(base, pattern))
		paths, err := doublestar.FilepathGlob(glob)
		if err != nil {
			return nil, fmt.Errorf("globbing %s: %w", glob, err)
		}
		for _, path := range paths {
			if f.excluded(filepath.ToSlash(path)) {
				continue
			}
			matched = append(matched, path)
		}
	}
	sort.Strings(matched)
	for _, path := range matched {
		add(path)
	}
	return files, nil
}

func (f FileDiscovery) excluded(path string) bool {
	for _, pattern := range f.ExcludePatterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Credentials holds the Neo4j connection parameters.
type Credentials struct {
	URI      string
	Username string
	Password string
	Database string
}

// CredentialsFromEnv reads NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD,
// and NEO4J_DATABASE, filling anything unset except the password from
// fallback. The password only ever comes from the environment. The
// username defaults to neo4j when neither source sets it.
func CredentialsFromEnv(fallback Credentials) (Credentials, error) {
	creds := Credentials{
		URI:      os.Getenv("NEO4J_URI"),
		Username: os.Getenv("NEO4J_USERNAME"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	}
	if creds.URI == "" {
		creds.URI = fallback.URI
	}
	if creds.Username == "" {
		creds.Username = fallback.Username
	}
	if creds.Username == "" {
		creds.Username = "neo4j"
	}
	if creds.Database == "" {
		creds.Database = fallback.Database
	}
	if creds.URI == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("%w: set NEO4J_URI and NEO4J_PASSWORD", ErrNoCredentials)
	}
	return creds, nil
}

// validIdentifier accepts the label and relationship type names that
// can be interpolated into Cypher without quoting.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
