// Package config loads the toolchain configuration: where the Turtle
// sources live, where builds go, and how the server, store, and
// integrations are wired. Values layer as defaults, then config files,
// then command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

// Config is the complete toolchain configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Build   BuildConfig   `yaml:"build"`
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	NATS    NATSConfig    `yaml:"nats"`
	Sanity  SanityConfig  `yaml:"sanity"`
	Neo4j   Neo4jConfig   `yaml:"neo4j"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the Turtle sources and the ontology artefacts.
type DataConfig struct {
	// Roots are the directories scanned for .ttl sources.
	Roots []string `yaml:"roots"`
	// Exclude lists glob patterns dropped from discovery.
	Exclude []string `yaml:"exclude"`
	// Ontology is the core ontology file merged into validation loads.
	Ontology string `yaml:"ontology"`
	// Shapes is the SHACL shapes file.
	Shapes string `yaml:"shapes"`
	// BaseIRI is the namespace dataset entities live under.
	BaseIRI string `yaml:"base_iri"`
}

// BuildConfig configures the static query build.
type BuildConfig struct {
	// QueriesDir holds the *.sparql files the build command runs.
	QueriesDir string `yaml:"queries_dir"`
	// OutputDir receives one JSON result file per query.
	OutputDir string `yaml:"output_dir"`
}

// ServerConfig configures the SPARQL service.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`
	// Dataset is the dataset name in request paths.
	Dataset string `yaml:"dataset"`
	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// QueryTimeout bounds one query evaluation.
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// StoreConfig configures the persistent triple store.
type StoreConfig struct {
	// Path is the LevelDB directory.
	Path string `yaml:"path"`
}

// NATSConfig configures ingest publishing. An empty URL disables it.
type NATSConfig struct {
	URL string `yaml:"url"`
	// Subject and Stream fall back to the publisher defaults when empty.
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
}

// SanityConfig configures the CMS conversion source.
type SanityConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	// APIVersion falls back to the client default when empty.
	APIVersion string `yaml:"api_version"`
	// TokenEnv names the environment variable holding the API token.
	TokenEnv string `yaml:"token_env"`
}

// Neo4jConfig configures the property-graph export target. The password
// always comes from NEO4J_PASSWORD; these values are fallbacks for the
// corresponding NEO4J_* variables.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	// Mapping is the JSON mapping configuration for the export command.
	Mapping string `yaml:"mapping"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
}

// SlogLevel maps the configured name onto a slog level. Unset means
// info.
func (lc LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(lc.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultConfig returns the configuration for a checkout with the
// conventional layout.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Roots:    []string{"data"},
			Exclude:  []string{"**/versions/**"},
			Ontology: "ontology/curriculum.ttl",
			Shapes:   "shapes/curriculum-shapes.ttl",
			BaseIRI:  string(curriculum.EnglandNamespace),
		},
		Build: BuildConfig{
			QueriesDir: "queries",
			OutputDir:  "build",
		},
		Server: ServerConfig{
			Addr:         ":3030",
			Dataset:      "curriculum",
			ReadTimeout:  15 * time.Second,
			QueryTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path: ".currigraph/store",
		},
		Sanity: SanityConfig{
			Dataset:  "production",
			TokenEnv: "SANITY_API_TOKEN",
		},
		Neo4j: Neo4jConfig{
			Database: "neo4j",
			Username: "neo4j",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Data.Roots) == 0 {
		return fmt.Errorf("data.roots is required")
	}
	if c.Server.Dataset == "" {
		return fmt.Errorf("server.dataset is required")
	}
	if strings.ContainsAny(c.Server.Dataset, "/ ") {
		return fmt.Errorf("server.dataset %q must be a single path segment", c.Server.Dataset)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must not be negative")
	}
	if c.Logging.Level != "" && !logLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv substitutes ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(os.Getenv(string(m[2 : len(m)-1])))
	})
}

// parseFile reads one YAML file into a zero config, so merging layers
// only carries values the file actually set.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(expandEnv(data), &config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &config, nil
}

// LoadFromFile reads one YAML config file over the defaults, expanding
// ${VAR} environment references.
func LoadFromFile(path string) (*Config, error) {
	overlay, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	config.Merge(overlay)
	return config, nil
}

// Merge overlays other onto c; non-zero values in other win.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Data.Roots) > 0 {
		c.Data.Roots = other.Data.Roots
	}
	if len(other.Data.Exclude) > 0 {
		c.Data.Exclude = other.Data.Exclude
	}
	if other.Data.Ontology != "" {
		c.Data.Ontology = other.Data.Ontology
	}
	if other.Data.Shapes != "" {
		c.Data.Shapes = other.Data.Shapes
	}
	if other.Data.BaseIRI != "" {
		c.Data.BaseIRI = other.Data.BaseIRI
	}

	if other.Build.QueriesDir != "" {
		c.Build.QueriesDir = other.Build.QueriesDir
	}
	if other.Build.OutputDir != "" {
		c.Build.OutputDir = other.Build.OutputDir
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.Dataset != "" {
		c.Server.Dataset = other.Server.Dataset
	}
	if other.Server.ReadTimeout != 0 {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.QueryTimeout != 0 {
		c.Server.QueryTimeout = other.Server.QueryTimeout
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
	if other.NATS.Stream != "" {
		c.NATS.Stream = other.NATS.Stream
	}

	if other.Sanity.ProjectID != "" {
		c.Sanity.ProjectID = other.Sanity.ProjectID
	}
	if other.Sanity.Dataset != "" {
		c.Sanity.Dataset = other.Sanity.Dataset
	}
	if other.Sanity.APIVersion != "" {
		c.Sanity.APIVersion = other.Sanity.APIVersion
	}
	if other.Sanity.TokenEnv != "" {
		c.Sanity.TokenEnv = other.Sanity.TokenEnv
	}

	if other.Neo4j.URI != "" {
		c.Neo4j.URI = other.Neo4j.URI
	}
	if other.Neo4j.Database != "" {
		c.Neo4j.Database = other.Neo4j.Database
	}
	if other.Neo4j.Username != "" {
		c.Neo4j.Username = other.Neo4j.Username
	}
	if other.Neo4j.Mapping != "" {
		c.Neo4j.Mapping = other.Neo4j.Mapping
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}
