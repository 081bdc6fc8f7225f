package generators

import (
	"errors"
	"math/rand"
	"strconv"
)

type UniformIntGenerator struct {
	Min int64
	Max int64 // exclusive
}

func (g *UniformIntGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	if g.Max <= g.Min {
		return "", errors.New("uniform_int requires max > min")
	}
	return strconv.FormatInt(g.Min+rng.Int63n(g.Max-g.Min), 10), nil
}

type UniformFloatGenerator struct {
	Min float64
	Max float64
}

func (g *UniformFloatGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	if g.Max <= g.Min {
		return "", errors.New("uniform_float requires max > min")
	}
	return formatNumber(g.Min+rng.Float64()*(g.Max-g.Min), ctx.Precision), nil
}

type BoolGenerator struct{}

func (g *BoolGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	if rng.Float64() < 0.5 {
		return "true", nil
	}
	return "false", nil
}

// RowIDGenerator numbers rows from 1, like NR.
type RowIDGenerator struct{}

func (g *RowIDGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	return strconv.FormatInt(ctx.RowIndex+1, 10), nil
}
