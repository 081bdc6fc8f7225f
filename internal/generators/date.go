package generators

import (
	"fmt"
	"math/rand"
)

// DateGenerator yields YYYY-MM-DD with days capped at 28 so every month is valid.
type DateGenerator struct {
	FromYear int
	Years    int
}

func (g *DateGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	years := g.Years
	if years <= 0 {
		years = 1
	}
	return fmt.Sprintf("%04d-%02d-%02d", g.FromYear+rng.Intn(years), 1+rng.Intn(12), 1+rng.Intn(28)), nil
}
