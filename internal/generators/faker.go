package generators

import (
	"math/rand"
	"strings"

	"github.com/go-faker/faker/v4"
)

// Faker-backed generators draw from faker's own source, so their values are
// not reproducible from the sample seed.

type FakerNameGenerator struct{}

func (g *FakerNameGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	return faker.FirstName(), nil
}

type FakerEmailGenerator struct{}

func (g *FakerEmailGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	return strings.ToLower(faker.Email()), nil
}
