package generators

import (
	"math/rand"
	"strconv"
)

// Generator produces one preview value per row, mirroring the awk expression
// registered under the same tag.
type Generator interface {
	Generate(rng *rand.Rand, ctx GeneratorContext) (string, error)
}

type GeneratorContext struct {
	// RowIndex is zero-based; awk's NR is RowIndex+1.
	RowIndex int64
	// Precision mirrors the request's decimal directive. Nil leaves awk's
	// default number format in place.
	Precision *int
}

// formatNumber renders v the way awk's print does: integral values print as
// integers, others through OFMT (%.6g unless a precision was requested).
func formatNumber(v float64, precision *int) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	if precision != nil {
		return strconv.FormatFloat(v, 'f', *precision, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
