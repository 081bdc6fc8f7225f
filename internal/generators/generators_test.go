package generators

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUniformIntGenerator_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := &UniformIntGenerator{Min: 0, Max: 10}
	for i := 0; i < 200; i++ {
		v, err := g.Generate(rng, GeneratorContext{})
		if err != nil {
			t.Fatal(err)
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n >= 10 {
			t.Fatalf("value out of range: %q", v)
		}
	}
	if _, err := (&UniformIntGenerator{Min: 5, Max: 5}).Generate(rng, GeneratorContext{}); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestUniformFloatGenerator_HonoursPrecision(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	two := 2
	g := &UniformFloatGenerator{Min: 0, Max: 1000}
	re := regexp.MustCompile(`^\d+(\.\d{2})?$`)
	for i := 0; i < 50; i++ {
		v, err := g.Generate(rng, GeneratorContext{Precision: &two})
		if err != nil {
			t.Fatal(err)
		}
		if !re.MatchString(v) {
			t.Fatalf("expected two decimals, got %q", v)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	zero := 0
	cases := []struct {
		v    float64
		p    *int
		want string
	}{
		{3, nil, "3"},
		{3.14159265, nil, "3.14159"},
		{3.14159265, &zero, "3"},
	}
	for _, c := range cases {
		if got := formatNumber(c.v, c.p); got != c.want {
			t.Fatalf("formatNumber(%v): got %q want %q", c.v, got, c.want)
		}
	}
}

func TestUUIDGenerator_IsVersion4AndSeeded(t *testing.T) {
	a, err := (&UUIDGenerator{}).Generate(rand.New(rand.NewSource(7)), GeneratorContext{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := (&UUIDGenerator{}).Generate(rand.New(rand.NewSource(7)), GeneratorContext{})
	if a != b {
		t.Fatalf("expected same seed to give same uuid: %s vs %s", a, b)
	}
	u, err := uuid.Parse(a)
	if err != nil {
		t.Fatal(err)
	}
	if u.Version() != 4 {
		t.Fatalf("expected version 4, got %d", u.Version())
	}
}

func TestRowIDGenerator_IsOneBased(t *testing.T) {
	v, _ := (&RowIDGenerator{}).Generate(nil, GeneratorContext{RowIndex: 0})
	if v != "1" {
		t.Fatalf("expected 1, got %q", v)
	}
}

func TestDateGenerator_Format(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := &DateGenerator{FromYear: 2000, Years: 26}
	re := regexp.MustCompile(`^20[0-2]\d-(0[1-9]|1[0-2])-(0[1-9]|1\d|2[0-8])$`)
	for i := 0; i < 50; i++ {
		v, _ := g.Generate(rng, GeneratorContext{})
		if !re.MatchString(v) {
			t.Fatalf("unexpected date %q", v)
		}
	}
}

func TestFakerGenerators_NonEmpty(t *testing.T) {
	name, err := (&FakerNameGenerator{}).Generate(nil, GeneratorContext{})
	if err != nil || name == "" {
		t.Fatalf("expected a name, got %q (%v)", name, err)
	}
	email, err := (&FakerEmailGenerator{}).Generate(nil, GeneratorContext{})
	if err != nil || !strings.Contains(email, "@") {
		t.Fatalf("expected an email, got %q (%v)", email, err)
	}
}

func TestChoiceGenerator_EmptyValues(t *testing.T) {
	if _, err := (&ChoiceGenerator{}).Generate(rand.New(rand.NewSource(1)), GeneratorContext{}); err == nil {
		t.Fatal("expected error for empty values")
	}
	if got := len(LetterGenerator().Values); got != 26 {
		t.Fatalf("expected 26 letters, got %d", got)
	}
}
