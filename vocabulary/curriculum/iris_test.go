package curriculum

import (
	"strings"
	"testing"

	"github.com/oaknational/currigraph/rdf"
)

func TestClassIRIsUseCoreNamespace(t *testing.T) {
	for _, class := range Classes {
		if !strings.HasPrefix(string(class), Namespace) {
			t.Errorf("class %s is outside the core namespace", class)
		}
	}
}

func TestClassLabelsCoverAllClasses(t *testing.T) {
	for _, class := range Classes {
		if _, ok := ClassLabels[class]; !ok {
			t.Errorf("class %s has no display label", class)
		}
	}
	if len(ClassLabels) != len(Classes) {
		t.Errorf("expected %d labels, got %d", len(Classes), len(ClassLabels))
	}
}

func TestIsTaxonomyClass(t *testing.T) {
	if !IsTaxonomyClass(ClassStrand) {
		t.Error("strands should receive SKOS layering")
	}
	if !IsTaxonomyClass(ClassTheme) {
		t.Error("themes should receive SKOS layering")
	}
	if IsTaxonomyClass(ClassKeyStage) {
		t.Error("key stages are structural, not taxonomy")
	}
	if IsTaxonomyClass(ClassScheme) {
		t.Error("schemes hold concepts but are not concepts themselves")
	}
}

func TestNamespaces(t *testing.T) {
	ns := Namespaces()

	got, ok := ns.Expand("curric:Subject")
	if !ok {
		t.Fatal("curric prefix should be bound")
	}
	if got != ClassSubject {
		t.Errorf("expected %s, got %s", ClassSubject, got)
	}

	compact, ok := ns.Compact(rdf.IRI(EnglandNamespace + "maths"))
	if !ok || compact != "eng:maths" {
		t.Errorf("expected eng:maths, got %q (ok=%v)", compact, ok)
	}
}
