package hashing

import (
	"testing"

	"github.com/mmrzaf/mdgen/internal/domain"
)

func TestHashRequest_StableAndSensitive(t *testing.T) {
	two := 2
	base := func() *domain.GenerationRequest {
		return &domain.GenerationRequest{
			Headers:  []string{"id", "amount"},
			Types:    map[string]string{"id": "int", "amount": "float"},
			Rows:     100,
			Filename: "out.csv",
		}
	}

	h1, err := HashRequest(base())
	if err != nil {
		t.Fatal(err)
	}
	h1again, _ := HashRequest(base())
	if h1 != h1again {
		t.Fatal("expected identical requests to hash identically")
	}

	named := base()
	named.ID, named.Name = "r1", "payments"
	extra := base()
	extra.Types["unused"] = "name"
	for label, req := range map[string]*domain.GenerationRequest{"id/name": named, "unused type": extra} {
		h, _ := HashRequest(req)
		if h != h1 {
			t.Fatalf("expected %s to leave hash unchanged", label)
		}
	}

	reordered := base()
	reordered.Headers = []string{"amount", "id"}
	rows := base()
	rows.Rows = 101
	precision := base()
	precision.Precision = &two
	retyped := base()
	retyped.Types["amount"] = "percent"
	for label, req := range map[string]*domain.GenerationRequest{"header order": reordered, "rows": rows, "precision": precision, "types": retyped} {
		h, _ := HashRequest(req)
		if h == h1 {
			t.Fatalf("expected %s to affect hash", label)
		}
	}
}
