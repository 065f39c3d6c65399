package sparql

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oaknational/currigraph/rdf"
)

// Results is the outcome of executing a query. Vars and Solutions are set
// for SELECT, Boolean for ASK, Graph for CONSTRUCT and DESCRIBE.
type Results struct {
	Form      Form
	Vars      []string
	Solutions []Solution
	Boolean   *bool
	Graph     *rdf.Graph
}

type jsonHead struct {
	Vars []string `json:"vars,omitempty"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

type jsonBindings struct {
	Bindings []map[string]jsonTerm `json:"bindings"`
}

type jsonResults struct {
	Head    jsonHead      `json:"head"`
	Boolean *bool         `json:"boolean,omitempty"`
	Results *jsonBindings `json:"results,omitempty"`
}

// JSON renders SELECT or ASK results in the SPARQL 1.1 Query Results JSON
// format, indented for stable diffs between builds.
func (r *Results) JSON() ([]byte, error) {
	switch r.Form {
	case FormSelect:
		out := jsonResults{
			Head:    jsonHead{Vars: r.Vars},
			Results: &jsonBindings{Bindings: make([]map[string]jsonTerm, 0, len(r.Solutions))},
		}
		for _, sol := range r.Solutions {
			row := make(map[string]jsonTerm, len(sol))
			for _, v := range r.Vars {
				term, ok := sol[v]
				if !ok {
					continue
				}
				row[v] = encodeTerm(term)
			}
			out.Results.Bindings = append(out.Results.Bindings, row)
		}
		return json.MarshalIndent(out, "", "  ")
	case FormAsk:
		return json.MarshalIndent(jsonResults{Boolean: r.Boolean}, "", "  ")
	}
	return nil, fmt.Errorf("%s results have no JSON bindings form", r.Form)
}

func encodeTerm(t rdf.Term) jsonTerm {
	switch v := t.(type) {
	case rdf.IRI:
		return jsonTerm{Type: "uri", Value: string(v)}
	case rdf.BlankNode:
		return jsonTerm{Type: "bnode", Value: string(v)}
	case rdf.Literal:
		out := jsonTerm{Type: "literal", Value: v.Lexical}
		if v.Lang != "" {
			out.Lang = v.Lang
		} else if v.Datatype != "" && v.Datatype != rdf.XSDString {
			out.Datatype = string(v.Datatype)
		}
		return out
	}
	return jsonTerm{Type: "literal", Value: t.String()}
}

// WriteCSV renders SELECT results in the SPARQL 1.1 CSV form: a header of
// variable names, then plain values.
func (r *Results) WriteCSV(w io.Writer) error {
	if r.Form != FormSelect {
		return fmt.Errorf("%s results have no CSV form", r.Form)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Vars); err != nil {
		return err
	}
	for _, sol := range r.Solutions {
		row := make([]string, len(r.Vars))
		for i, v := range r.Vars {
			if term, ok := sol[v]; ok {
				row[i] = plainValue(term)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func plainValue(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return string(v)
	case rdf.BlankNode:
		return "_:" + string(v)
	case rdf.Literal:
		return v.Lexical
	}
	return t.String()
}

// TableRows renders SELECT results for tabular display, compacting IRIs
// against ns when possible. ns may be nil.
func (r *Results) TableRows(ns *rdf.Namespaces) (header []string, rows [][]string) {
	header = append(header, r.Vars...)
	for _, sol := range r.Solutions {
		row := make([]string, len(r.Vars))
		for i, v := range r.Vars {
			term, ok := sol[v]
			if !ok {
				continue
			}
			row[i] = displayValue(term, ns)
		}
		rows = append(rows, row)
	}
	return header, rows
}

func displayValue(t rdf.Term, ns *rdf.Namespaces) string {
	if iri, ok := t.(rdf.IRI); ok && ns != nil {
		if curie, ok := ns.Compact(iri); ok {
			return curie
		}
	}
	return plainValue(t)
}

// Count returns the number of result rows, or 1/0 for a boolean result.
func (r *Results) Count() int {
	switch r.Form {
	case FormSelect:
		return len(r.Solutions)
	case FormAsk:
		if r.Boolean != nil && *r.Boolean {
			return 1
		}
		return 0
	default:
		if r.Graph != nil {
			return r.Graph.Len()
		}
	}
	return 0
}
