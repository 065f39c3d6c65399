// Package dataset assembles the curriculum dataset from Turtle sources on
// disk: discovery of source files, merging into a single graph, the
// owl:imports audit, and summary statistics.
package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

// DefaultExcludes skips archived snapshots kept next to the live sources.
var DefaultExcludes = []string{"**/versions/**"}

// Discover returns the Turtle files under the given roots, sorted by path.
// A root may itself be a glob pattern. Files matching any exclude pattern
// are skipped; patterns use / as separator on every platform.
func Discover(roots []string, excludes []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, root := range roots {
		pattern := filepath.ToSlash(filepath.Join(root, "**", "*.ttl"))
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing %s: %w", pattern, err)
		}
		for _, match := range matches {
			slash := filepath.ToSlash(match)
			if excluded(slash, excludes) {
				continue
			}
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}

func excluded(path string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// FileInfo describes one merged source file.
type FileInfo struct {
	Path string
	// Triples is the statement count contributed by this file before
	// deduplication.
	Triples int
	// Ontology is the IRI this file declares as owl:Ontology, if any.
	Ontology rdf.IRI
}

// Dataset is a merged set of Turtle sources.
type Dataset struct {
	Graph      *rdf.Graph
	Namespaces *rdf.Namespaces
	Files      []FileInfo
}

// Load parses and merges every file into a single dataset. Parsing stops
// at the first syntax error, which carries the offending file and
// position. Conflicting prefix bindings keep the first binding seen.
func Load(files []string) (*Dataset, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	ds := &Dataset{
		Graph:      rdf.NewGraph(),
		Namespaces: rdf.NewNamespaces(),
	}
	bound := make(map[string]string)
	for _, path := range files {
		doc, err := turtle.ParseFile(path)
		if err != nil {
			return nil, err
		}

		info := FileInfo{Path: path, Triples: doc.Graph.Len()}
		if onts := doc.Graph.SubjectsOfType(curriculum.OWLOntology); len(onts) > 0 {
			if iri, ok := onts[0].(rdf.IRI); ok {
				info.Ontology = iri
			}
		}
		ds.Files = append(ds.Files, info)

		for _, prefix := range doc.Namespaces.Prefixes() {
			base, _ := doc.Namespaces.Base(prefix)
			if existing, ok := bound[prefix]; ok {
				if existing != base {
					slog.Warn("conflicting prefix binding",
						slog.String("prefix", prefix),
						slog.String("kept", existing),
						slog.String("ignored", base),
						slog.String("file", path))
				}
				continue
			}
			bound[prefix] = base
			ds.Namespaces.Bind(prefix, base)
		}

		ds.Graph.Merge(doc.Graph)
	}
	return ds, nil
}

// ClassCount is the number of instances of one class in the dataset.
type ClassCount struct {
	Class rdf.IRI
	Label string
	Count int
}

// Stats summarises a merged dataset.
type Stats struct {
	Files   int
	Triples int
	// Classes counts instances per curriculum class, descending, classes
	// with no instances omitted.
	Classes []ClassCount
}

// Stats computes summary statistics over the merged graph.
func (d *Dataset) Stats() Stats {
	s := Stats{Files: len(d.Files), Triples: d.Graph.Len()}
	for _, class := range curriculum.Classes {
		n := len(d.Graph.SubjectsOfType(class))
		if n == 0 {
			continue
		}
		s.Classes = append(s.Classes, ClassCount{
			Class: class,
			Label: curriculum.ClassLabels[class],
			Count: n,
		})
	}
	sort.SliceStable(s.Classes, func(i, j int) bool {
		return s.Classes[i].Count > s.Classes[j].Count
	})
	return s
}
