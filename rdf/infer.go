package rdf

// SubClassClosure computes the transitive rdfs:subClassOf closure of the
// schema graph. The result maps each class IRI to the set of all its strict
// and reflexive superclasses.
func SubClassClosure(schema *Graph) map[IRI]map[IRI]bool {
	return transitiveClosure(schema, RDFSSubClassOf)
}

// SubPropertyClosure computes the transitive rdfs:subPropertyOf closure of
// the schema graph.
func SubPropertyClosure(schema *Graph) map[IRI]map[IRI]bool {
	return transitiveClosure(schema, RDFSSubPropertyOf)
}

func transitiveClosure(schema *Graph, pred IRI) map[IRI]map[IRI]bool {
	direct := make(map[IRI][]IRI)
	for _, t := range schema.Match(nil, pred, nil) {
		sub, ok := t.Subject.(IRI)
		if !ok {
			continue
		}
		super, ok := t.Object.(IRI)
		if !ok {
			continue
		}
		direct[sub] = append(direct[sub], super)
	}

	closure := make(map[IRI]map[IRI]bool, len(direct))
	var walk func(from IRI, into map[IRI]bool)
	walk = func(from IRI, into map[IRI]bool) {
		for _, super := range direct[from] {
			if into[super] {
				continue
			}
			into[super] = true
			walk(super, into)
		}
	}
	for sub := range direct {
		set := map[IRI]bool{sub: true}
		walk(sub, set)
		closure[sub] = set
	}
	return closure
}

// Entail returns a new graph containing data plus the triples derivable
// under RDFS subclass and subproperty entailment against schema. Type
// statements gain one statement per superclass; statements whose predicate
// has superproperties are restated with each superproperty.
func Entail(data, schema *Graph) *Graph {
	out := NewGraph()
	out.Merge(data)

	classes := SubClassClosure(schema)
	props := SubPropertyClosure(schema)

	data.ForEach(func(t Triple) bool {
		if t.Predicate == RDFType {
			if class, ok := t.Object.(IRI); ok {
				for super := range classes[class] {
					out.Add(Triple{Subject: t.Subject, Predicate: RDFType, Object: super})
				}
			}
		}
		if pred, ok := t.Predicate.(IRI); ok {
			for super := range props[pred] {
				if super == pred {
					continue
				}
				out.Add(Triple{Subject: t.Subject, Predicate: super, Object: t.Object})
			}
		}
		return true
	})
	return out
}

// IsInstanceOf reports whether subject has class among its asserted types in
// g, or a type that is a subclass of class under the supplied closure.
func IsInstanceOf(g *Graph, subject Term, class IRI, closure map[IRI]map[IRI]bool) bool {
	for _, t := range g.Match(subject, RDFType, nil) {
		asserted, ok := t.Object.(IRI)
		if !ok {
			continue
		}
		if asserted == class {
			return true
		}
		if closure[asserted][class] {
			return true
		}
	}
	return false
}
