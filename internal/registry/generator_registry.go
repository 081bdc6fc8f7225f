package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mmrzaf/mdgen/internal/generators"
)

// GeneratorRegistry maps data-type tags to preview generators.
type GeneratorRegistry struct {
	mu         sync.RWMutex
	generators map[string]generators.Generator
}

func NewGeneratorRegistry() *GeneratorRegistry {
	return &GeneratorRegistry{
		generators: make(map[string]generators.Generator),
	}
}

func (r *GeneratorRegistry) Register(tag string, gen generators.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[tag] = gen
}

func (r *GeneratorRegistry) Get(tag string) (generators.Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[tag]
	if !ok {
		return nil, fmt.Errorf("generator not found: %s", tag)
	}
	return gen, nil
}

func (r *GeneratorRegistry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.generators[tag]
	return ok
}

func (r *GeneratorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultGeneratorRegistry covers the tags of the embedded awk table.
func DefaultGeneratorRegistry() *GeneratorRegistry {
	r := NewGeneratorRegistry()
	r.Register("int", &generators.UniformIntGenerator{Min: 0, Max: 1000000})
	r.Register("float", &generators.UniformFloatGenerator{Min: 0, Max: 1000})
	r.Register("percent", &generators.UniformFloatGenerator{Min: 0, Max: 100})
	r.Register("bool", &generators.BoolGenerator{})
	r.Register("digit", &generators.UniformIntGenerator{Min: 0, Max: 10})
	r.Register("letter", generators.LetterGenerator())
	r.Register("category", generators.CategoryGenerator())
	r.Register("name", &generators.FakerNameGenerator{})
	r.Register("email", &generators.FakerEmailGenerator{})
	r.Register("uuid", &generators.UUIDGenerator{})
	r.Register("date", &generators.DateGenerator{FromYear: 2000, Years: 26})
	r.Register("row_id", &generators.RowIDGenerator{})
	return r
}
