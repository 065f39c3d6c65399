// Package curriculum defines the IRI vocabulary for the national
// curriculum ontology.
//
// The vocabulary has two namespaces. The core namespace
// (https://w3id.org/uk/curriculum/core/) holds the schema: the classes
// that structure a curriculum and the properties that relate them. The
// England namespace (https://w3id.org/uk/curriculum/england/) holds the
// published individuals for the English national curriculum, from phases
// and key stages down to individual content descriptors.
//
// Structural entities (phases, key stages, year groups, subjects) carry
// rdfs:label and rdfs:comment. Taxonomy entities (strands, content
// descriptors, themes) are additionally modelled as skos:Concept inside a
// skos:ConceptScheme, linked upward with skos:broader and skos:inScheme,
// so SKOS-aware tooling can navigate the hierarchy without knowing the
// curriculum classes.
//
// Two concept schemes are published for England: KnowledgeTaxonomyScheme
// groups the subject knowledge hierarchy, ThemesScheme groups the
// cross-cutting themes.
package curriculum
