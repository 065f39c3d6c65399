package store

import (
	"encoding/binary"
	"fmt"

	"github.com/oaknational/currigraph/rdf"
)

// Term encoding: one kind byte, then the term's fields. IRIs and blank
// node labels are raw bytes; literals length-prefix the lexical form and
// datatype so the language tag can trail without a separator.
const (
	kindIRI     = 'i'
	kindBlank   = 'b'
	kindLiteral = 'l'
)

func encodeTerm(t rdf.Term) []byte {
	switch v := t.(type) {
	case rdf.IRI:
		return append([]byte{kindIRI}, v...)
	case rdf.BlankNode:
		return append([]byte{kindBlank}, v...)
	case rdf.Literal:
		out := []byte{kindLiteral}
		out = binary.AppendUvarint(out, uint64(len(v.Lexical)))
		out = append(out, v.Lexical...)
		out = binary.AppendUvarint(out, uint64(len(v.Datatype)))
		out = append(out, v.Datatype...)
		out = append(out, v.Lang...)
		return out
	}
	return nil
}

func decodeTerm(data []byte) (rdf.Term, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty term encoding")
	}
	body := data[1:]
	switch data[0] {
	case kindIRI:
		return rdf.IRI(body), nil
	case kindBlank:
		return rdf.BlankNode(body), nil
	case kindLiteral:
		lexical, rest, err := readChunk(body)
		if err != nil {
			return nil, fmt.Errorf("literal lexical form: %w", err)
		}
		datatype, lang, err := readChunk(rest)
		if err != nil {
			return nil, fmt.Errorf("literal datatype: %w", err)
		}
		return rdf.Literal{
			Lexical:  string(lexical),
			Datatype: rdf.IRI(datatype),
			Lang:     string(lang),
		}, nil
	}
	return nil, fmt.Errorf("unknown term kind %q", data[0])
}

func readChunk(data []byte) (chunk, rest []byte, err error) {
	n, read := binary.Uvarint(data)
	if read <= 0 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}
	data = data[read:]
	if uint64(len(data)) < n {
		return nil, nil, fmt.Errorf("declared %d bytes, have %d", n, len(data))
	}
	return data[:n], data[n:], nil
}
