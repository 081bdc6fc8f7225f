package registry

import (
	"testing"

	"github.com/mmrzaf/mdgen/internal/awk"
)

func TestDefaultGeneratorRegistry_CoversDefaultTable(t *testing.T) {
	table, err := awk.DefaultTable()
	if err != nil {
		t.Fatal(err)
	}
	reg := DefaultGeneratorRegistry()
	for _, tag := range table.Tags() {
		if !reg.Has(tag) {
			t.Fatalf("no preview generator for awk tag %q", tag)
		}
	}
	if got, want := len(reg.List()), len(table.Tags()); got != want {
		t.Fatalf("registry has %d tags, awk table has %d", got, want)
	}
}

func TestGeneratorRegistry_GetUnknown(t *testing.T) {
	reg := NewGeneratorRegistry()
	if _, err := reg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}
