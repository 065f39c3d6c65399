package sparql

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaknational/currigraph/rdf"
)

func TestResultsJSON(t *testing.T) {
	res := runSelect(t, fixtureGraph(t), `
		PREFIX curric: <https://w3id.org/uk/curriculum/core/>
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		SELECT ?s ?label ?notation WHERE {
			?s a curric:Subject ;
				skos:prefLabel ?label .
			OPTIONAL { ?s skos:notation ?notation }
		}
		ORDER BY ?label
	`)

	data, err := res.JSON()
	require.NoError(t, err)

	var decoded struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
		Results struct {
			Bindings []map[string]map[string]string `json:"bindings"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, []string{"s", "label", "notation"}, decoded.Head.Vars)
	require.Len(t, decoded.Results.Bindings, 2)

	english := decoded.Results.Bindings[0]
	assert.Equal(t, "uri", english["s"]["type"])
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/english", english["s"]["value"])
	assert.Equal(t, "literal", english["label"]["type"])
	assert.Equal(t, "en", english["label"]["xml:lang"])
	// The unbound variable is omitted from the row entirely.
	_, present := english["notation"]
	assert.False(t, present)

	maths := decoded.Results.Bindings[1]
	assert.Equal(t, "maths", maths["notation"]["value"])
	_, present = maths["notation"]["xml:lang"]
	assert.False(t, present)
}

func TestResultsJSONTypedLiteral(t *testing.T) {
	res := runSelect(t, fixtureGraph(t), `
		PREFIX curric: <https://w3id.org/uk/curriculum/core/>
		PREFIX eng: <https://w3id.org/uk/curriculum/england/>
		SELECT ?age WHERE { eng:key-stage-1 curric:lowerAgeBoundary ?age }
	`)

	data, err := res.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	bindings := decoded["results"].(map[string]any)["bindings"].([]any)
	require.Len(t, bindings, 1)
	age := bindings[0].(map[string]any)["age"].(map[string]any)
	assert.Equal(t, "literal", age["type"])
	assert.Equal(t, "5", age["value"])
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", age["datatype"])
}

func TestResultsJSONAsk(t *testing.T) {
	q, err := Parse(`
		PREFIX eng: <https://w3id.org/uk/curriculum/england/>
		ASK { eng:maths ?p ?o }
	`)
	require.NoError(t, err)
	res, err := q.Execute(fixtureGraph(t))
	require.NoError(t, err)

	data, err := res.JSON()
	require.NoError(t, err)

	var decoded struct {
		Boolean bool `json:"boolean"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Boolean)
	assert.Contains(t, string(data), `"head"`)
}

func TestResultsJSONGraphForm(t *testing.T) {
	q, err := Parse(`DESCRIBE <https://w3id.org/uk/curriculum/england/maths>`)
	require.NoError(t, err)
	res, err := q.Execute(fixtureGraph(t))
	require.NoError(t, err)

	_, err = res.JSON()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DESCRIBE")
}

func TestResultsCSV(t *testing.T) {
	res := runSelect(t, fixtureGraph(t), `
		PREFIX curric: <https://w3id.org/uk/curriculum/core/>
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		SELECT ?s ?label WHERE {
			?s a curric:Subject ;
				skos:prefLabel ?label .
		}
		ORDER BY ?label
	`)

	var buf bytes.Buffer
	require.NoError(t, res.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "s,label", lines[0])
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/english,English", lines[1])
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/maths,Mathematics", lines[2])
}

func TestResultsCSVGraphForm(t *testing.T) {
	q, err := Parse(`
		PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
		CONSTRUCT { ?p skos:narrower ?c } WHERE { ?c skos:broader ?p }
	`)
	require.NoError(t, err)
	res, err := q.Execute(fixtureGraph(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, res.WriteCSV(&buf))
}

func TestResultsTableRows(t *testing.T) {
	res := runSelect(t, fixtureGraph(t), `
		PREFIX curric: <https://w3id.org/uk/curriculum/core/>
		SELECT ?s WHERE { ?s a curric:Subject } ORDER BY ?s
	`)

	ns := rdf.NewNamespaces()
	ns.Bind("eng", "https://w3id.org/uk/curriculum/england/")

	header, rows := res.TableRows(ns)
	assert.Equal(t, []string{"s"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "eng:english", rows[0][0])
	assert.Equal(t, "eng:maths", rows[1][0])

	// Without namespaces the raw IRI comes through.
	_, raw := res.TableRows(nil)
	assert.Equal(t, "https://w3id.org/uk/curriculum/england/english", raw[0][0])
}

func TestResultsCount(t *testing.T) {
	g := fixtureGraph(t)

	sel := runSelect(t, g, `SELECT ?s WHERE { ?s ?p ?o }`)
	assert.Equal(t, g.Len(), sel.Count())

	q, err := Parse(`ASK { ?s ?p ?o }`)
	require.NoError(t, err)
	ask, err := q.Execute(g)
	require.NoError(t, err)
	assert.Equal(t, 1, ask.Count())

	q, err = Parse(`DESCRIBE <https://w3id.org/uk/curriculum/england/maths>`)
	require.NoError(t, err)
	desc, err := q.Execute(g)
	require.NoError(t, err)
	assert.Equal(t, 3, desc.Count())
}
