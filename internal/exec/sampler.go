package exec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/mmrzaf/mdgen/internal/awk"
	"github.com/mmrzaf/mdgen/internal/domain"
	"github.com/mmrzaf/mdgen/internal/generators"
	"github.com/mmrzaf/mdgen/internal/registry"
	"github.com/mmrzaf/mdgen/internal/validation"
)

// MaxSampleRows caps preview size; previews are for eyeballing a schema, the
// synthesized command is what produces real volumes.
const MaxSampleRows = 1000

// Sampler renders preview rows in-process with Go generators standing in for
// the awk expressions of table. Values are look-alikes, not the exact awk
// output: names and emails come from faker rather than the table's word lists.
// Tags the table does not know are pass-through columns and come out empty, as
// awk prints them. Tags the table knows but no generator covers also come out
// empty and are listed in SampleResult.Unpreviewed.
type Sampler struct {
	genRegistry *registry.GeneratorRegistry
	table       *awk.Table
}

func NewSampler(genRegistry *registry.GeneratorRegistry, table *awk.Table) *Sampler {
	return &Sampler{genRegistry: genRegistry, table: table}
}

func (s *Sampler) Sample(req *domain.GenerationRequest, rows int64, seed int64) (*domain.SampleResult, error) {
	if req == nil || len(req.Headers) == 0 {
		return nil, errors.New("at least one header is required")
	}
	for i, h := range req.Headers {
		if !validation.IsValidHeader(h) {
			return nil, fmt.Errorf("header %d: invalid header identifier: %q", i, h)
		}
	}
	if rows <= 0 || rows > MaxSampleRows {
		return nil, fmt.Errorf("sample rows must be between 1 and %d, got %d", MaxSampleRows, rows)
	}

	gens := make([]generators.Generator, len(req.Headers))
	var unpreviewed []string
	for i, h := range req.Headers {
		tag := req.TypeOf(h)
		if s.table.Resolve(tag, h).IsFallback() {
			continue
		}
		if !s.genRegistry.Has(tag) {
			unpreviewed = append(unpreviewed, h)
			continue
		}
		gen, err := s.genRegistry.Get(tag)
		if err != nil {
			return nil, err
		}
		gens[i] = gen
	}

	rng := rand.New(rand.NewSource(seed))
	out := &domain.SampleResult{
		Headers:     append([]string(nil), req.Headers...),
		Rows:        make([][]string, 0, rows),
		Seed:        seed,
		Unpreviewed: unpreviewed,
	}
	for rowIdx := int64(0); rowIdx < rows; rowIdx++ {
		ctx := generators.GeneratorContext{RowIndex: rowIdx, Precision: req.Precision}
		row := make([]string, len(gens))
		for colIdx, gen := range gens {
			if gen == nil {
				continue
			}
			val, err := gen.Generate(rng, ctx)
			if err != nil {
				return nil, fmt.Errorf("column '%s', row %d: %w", req.Headers[colIdx], rowIdx, err)
			}
			row[colIdx] = val
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// WriteCSV writes the header line followed by every sampled row.
func WriteCSV(w io.Writer, res *domain.SampleResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(res.Rows); err != nil {
		return err
	}
	return cw.Error()
}
