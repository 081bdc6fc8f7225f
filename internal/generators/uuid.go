package generators

import (
	"math/rand"

	"github.com/google/uuid"
)

// UUIDGenerator emits version 4 uuids drawn from the row rng, so a seeded
// sample repeats its ids.
type UUIDGenerator struct{}

func (g *UUIDGenerator) Generate(rng *rand.Rand, _ GeneratorContext) (string, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
