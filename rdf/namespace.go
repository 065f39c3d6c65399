package rdf

import (
	"sort"
	"strings"
)

// Well-known namespace bases.
const (
	NSRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL     = "http://www.w3.org/2002/07/owl#"
	NSXSD     = "http://www.w3.org/2001/XMLSchema#"
	NSSKOS    = "http://www.w3.org/2004/02/skos/core#"
	NSDCTerms = "http://purl.org/dc/terms/"
	NSDC      = "http://purl.org/dc/elements/1.1/"
	NSSHACL   = "http://www.w3.org/ns/shacl#"
	NSFOAF    = "http://xmlns.com/foaf/0.1/"
)

// CommonPrefixes maps the prefix labels used throughout the toolchain to
// their namespace bases.
var CommonPrefixes = map[string]string{
	"rdf":     NSRDF,
	"rdfs":    NSRDFS,
	"owl":     NSOWL,
	"xsd":     NSXSD,
	"skos":    NSSKOS,
	"dcterms": NSDCTerms,
	"sh":      NSSHACL,
}

// Namespaces maps prefix labels to namespace bases for CURIE expansion and
// compaction.
type Namespaces struct {
	byPrefix map[string]string
}

// NewNamespaces returns an empty prefix table.
func NewNamespaces() *Namespaces {
	return &Namespaces{byPrefix: make(map[string]string)}
}

// CommonNamespaces returns a prefix table pre-bound with CommonPrefixes.
func CommonNamespaces() *Namespaces {
	ns := NewNamespaces()
	for p, base := range CommonPrefixes {
		ns.Bind(p, base)
	}
	return ns
}

// Bind associates a prefix label with a namespace base, replacing any
// previous binding for the label.
func (n *Namespaces) Bind(prefix, base string) {
	n.byPrefix[prefix] = base
}

// Base returns the namespace bound to prefix.
func (n *Namespaces) Base(prefix string) (string, bool) {
	base, ok := n.byPrefix[prefix]
	return base, ok
}

// Expand resolves a prefix:local CURIE to a full IRI.
func (n *Namespaces) Expand(curie string) (IRI, bool) {
	prefix, local, ok := strings.Cut(curie, ":")
	if !ok {
		return "", false
	}
	base, ok := n.byPrefix[prefix]
	if !ok {
		return "", false
	}
	return IRI(base + local), true
}

// Compact rewrites an IRI as prefix:local using the longest matching base.
// Local names containing characters outside the prefixed-name syntax are
// left uncompacted.
func (n *Namespaces) Compact(iri IRI) (string, bool) {
	s := string(iri)
	bestPrefix, bestBase := "", ""
	for prefix, base := range n.byPrefix {
		if strings.HasPrefix(s, base) && len(base) > len(bestBase) {
			bestPrefix, bestBase = prefix, base
		}
	}
	if bestBase == "" {
		return "", false
	}
	local := s[len(bestBase):]
	if !validLocalName(local) {
		return "", false
	}
	return bestPrefix + ":" + local, true
}

// Prefixes returns the bound prefix labels, sorted.
func (n *Namespaces) Prefixes() []string {
	out := make([]string, 0, len(n.byPrefix))
	for p := range n.byPrefix {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// validLocalName accepts the subset of Turtle PN_LOCAL the serializer emits
// unescaped. Anything else falls back to the full IRI form.
func validLocalName(local string) bool {
	if local == "" {
		return false
	}
	for i, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_':
		case r == '-' && i > 0:
		case r == '.' && i > 0 && i < len(local)-1:
		default:
			return false
		}
	}
	return true
}
