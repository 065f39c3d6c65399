// Package sanity converts curriculum content exported from the Sanity CMS
// into the Turtle files the dataset pipeline consumes. Input is either a
// local export file or the Sanity query API; output is the programme
// structure file, the themes file, and a per-subject trio of subject,
// knowledge taxonomy, and scheme files, each opened with an ontology
// header block.
package sanity

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Reference is a Sanity document reference. Raw references carry _ref;
// references expanded by a GROQ projection carry the target's _id
// instead.
type Reference struct {
	Ref string `json:"_ref"`
	ID  string `json:"_id"`
}

// Target returns the referenced document id, whichever form the
// reference arrived in.
func (r Reference) Target() string {
	if r.Ref != "" {
		return r.Ref
	}
	return r.ID
}

// Slug is Sanity's slug field shape.
type Slug struct {
	Current string `json:"current"`
}

// Aim is one entry of a subsubject's aims array.
type Aim struct {
	AimText string `json:"aimText"`
}

// Document is one Sanity document. The export flattens every curriculum
// document type into this shape; fields missing from a given type stay
// zero.
type Document struct {
	ID        string `json:"_id"`
	Type      string `json:"_type"`
	UpdatedAt string `json:"_updatedAt"`
	Slug      *Slug  `json:"id"`

	Label           string `json:"label"`
	PrefLabel       string `json:"prefLabel"`
	Description     string `json:"description"`
	Definition      string `json:"definition"`
	ScopeNote       string `json:"scopeNote"`
	FullDescription string `json:"fullDescription"`
	SourceURL       string `json:"sourceUrl"`

	LowerAgeBoundary *int `json:"lowerAgeBoundary"`
	UpperAgeBoundary *int `json:"upperAgeBoundary"`

	ExampleText string `json:"exampleText"`
	ExampleURL  string `json:"exampleUrl"`

	Phase             *Reference `json:"phase"`
	KeyStage          *Reference `json:"keyStage"`
	Discipline        *Reference `json:"discipline"`
	Strand            *Reference `json:"strand"`
	SubStrand         *Reference `json:"substrand"`
	ContentDescriptor *Reference `json:"contentDescriptor"`
	SubSubject        *Reference `json:"subsubject"`
	Subject           *Reference `json:"subject"`
	Scheme            *Reference `json:"scheme"`

	Disciplines        []Reference `json:"disciplines"`
	Strands            []Reference `json:"strands"`
	ContentDescriptors []Reference `json:"contentDescriptors"`

	Aims []Aim `json:"aims"`
}

// Updated parses the document's modification timestamp. Zero when the
// export carries none.
func (d Document) Updated() time.Time {
	if d.UpdatedAt == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, d.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SlugValue returns the document's slug, falling back to its id with any
// drafts. prefix stripped.
func (d Document) SlugValue() string {
	if d.Slug != nil && d.Slug.Current != "" {
		return d.Slug.Current
	}
	return strings.TrimPrefix(d.ID, "drafts.")
}

// Export is a full Sanity export keyed by document type.
type Export struct {
	Phases                []Document `json:"phases"`
	KeyStages             []Document `json:"keyStages"`
	YearGroups            []Document `json:"yearGroups"`
	Disciplines           []Document `json:"disciplines"`
	Subjects              []Document `json:"subjects"`
	SubSubjects           []Document `json:"subsubjects"`
	Strands               []Document `json:"strands"`
	SubStrands            []Document `json:"substrands"`
	ContentDescriptors    []Document `json:"contentDescriptors"`
	ContentSubDescriptors []Document `json:"contentSubdescriptors"`
	Schemes               []Document `json:"schemes"`
	Progressions          []Document `json:"progressions"`
	Themes                []Document `json:"themes"`
}

// Len counts every document in the export.
func (e *Export) Len() int {
	n := 0
	for _, docs := range e.byType() {
		n += len(docs)
	}
	return n
}

func (e *Export) byType() map[string][]Document {
	return map[string][]Document{
		"phases":                e.Phases,
		"keyStages":             e.KeyStages,
		"yearGroups":            e.YearGroups,
		"disciplines":           e.Disciplines,
		"subjects":              e.Subjects,
		"subsubjects":           e.SubSubjects,
		"strands":               e.Strands,
		"substrands":            e.SubStrands,
		"contentDescriptors":    e.ContentDescriptors,
		"contentSubdescriptors": e.ContentSubDescriptors,
		"schemes":               e.Schemes,
		"progressions":          e.Progressions,
		"themes":                e.Themes,
	}
}

// FilterSince drops documents not updated after the cutoff, returning the
// trimmed export. Documents without a timestamp are kept.
func (e *Export) FilterSince(cutoff time.Time) *Export {
	keep := func(docs []Document) []Document {
		var out []Document
		for _, d := range docs {
			if u := d.Updated(); u.IsZero() || u.After(cutoff) {
				out = append(out, d)
			}
		}
		return out
	}
	return &Export{
		Phases:                keep(e.Phases),
		KeyStages:             keep(e.KeyStages),
		YearGroups:            keep(e.YearGroups),
		Disciplines:           keep(e.Disciplines),
		Subjects:              keep(e.Subjects),
		SubSubjects:           keep(e.SubSubjects),
		Strands:               keep(e.Strands),
		SubStrands:            keep(e.SubStrands),
		ContentDescriptors:    keep(e.ContentDescriptors),
		ContentSubDescriptors: keep(e.ContentSubDescriptors),
		Schemes:               keep(e.Schemes),
		Progressions:          keep(e.Progressions),
		Themes:                keep(e.Themes),
	}
}

// LoadExport reads a Sanity export JSON file.
func LoadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing export %s: %w", path, err)
	}
	return &export, nil
}
