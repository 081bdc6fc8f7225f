package generators

import (
	"errors"
	"math/rand"
)

type ChoiceGenerator struct {
	Values []string
}

func (g *ChoiceGenerator) Generate(rng *rand.Rand, ctx GeneratorContext) (string, error) {
	if len(g.Values) == 0 {
		return "", errors.New("'values' cannot be empty")
	}
	return g.Values[rng.Intn(len(g.Values))], nil
}

func LetterGenerator() *ChoiceGenerator {
	letters := make([]string, 0, 26)
	for c := 'a'; c <= 'z'; c++ {
		letters = append(letters, string(c))
	}
	return &ChoiceGenerator{Values: letters}
}

func CategoryGenerator() *ChoiceGenerator {
	return &ChoiceGenerator{Values: []string{"red", "green", "blue", "amber", "violet"}}
}
