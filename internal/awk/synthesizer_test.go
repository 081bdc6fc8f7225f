package awk

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/mdgen/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestBuild_ExactLayout(t *testing.T) {
	s := NewSynthesizer(stubTable(t))

	got, err := s.Build(&domain.GenerationRequest{
		Headers:   []string{"id", "amount"},
		Types:     map[string]string{"id": "int", "amount": "float"},
		Rows:      100,
		Filename:  "out.csv",
		Precision: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "loop(100)\nscript[id=INT;\namount=FLOAT;print id,amount]|sep=,|digits=2|file=out.csv", got)
}

func TestBuild_PassThroughOnly(t *testing.T) {
	s := NewSynthesizer(stubTable(t))

	got, err := s.Build(&domain.GenerationRequest{
		Headers:  []string{"note"},
		Rows:     1,
		Filename: "notes.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "loop(1)\nscript[note=note;print note]|sep=,|file=notes.csv", got)
}

func TestBuild_UnknownTagsFallBackIndependently(t *testing.T) {
	s := NewSynthesizer(stubTable(t))

	got, err := s.Build(&domain.GenerationRequest{
		Headers:  []string{"a", "b", "c", "d"},
		Types:    map[string]string{"a": "nope", "b": "int", "d": "also_nope", "zzz": "int"},
		Rows:     3,
		Filename: "x.csv",
	})
	require.NoError(t, err)
	assert.Contains(t, got, "a=a;\nb=INT;\nc=c;\nd=d;print a,b,c,d]")
}

func TestBuild_PrecisionSuffixOnlyWhenSupplied(t *testing.T) {
	s := NewSynthesizer(stubTable(t))
	req := &domain.GenerationRequest{Headers: []string{"v"}, Types: map[string]string{"v": "float"}, Rows: 5, Filename: "v.csv"}

	without, err := s.Build(req)
	require.NoError(t, err)
	assert.NotContains(t, without, "|digits=")
	assert.True(t, strings.HasSuffix(without, "|sep=,|file=v.csv"))

	req.Precision = intPtr(0)
	withZero, err := s.Build(req)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(withZero, "|sep=,|digits=0|file=v.csv"))

	// everything before the suffix is unchanged
	assert.Equal(t, strings.TrimSuffix(without, "|sep=,|file=v.csv"), strings.TrimSuffix(withZero, "|sep=,|digits=0|file=v.csv"))
}

func TestBuild_KeepsHeaderOrderAndRepeats(t *testing.T) {
	s := NewSynthesizer(stubTable(t))

	got, err := s.Build(&domain.GenerationRequest{
		Headers:  []string{"z", "a", "z"},
		Types:    map[string]string{"z": "int"},
		Rows:     2,
		Filename: "o.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(got, "print "))
	assert.Contains(t, got, "print z,a,z]")
	assert.Contains(t, got, "z=INT;\na=a;\nz=INT;print")
}

func TestBuild_RejectsInvalidInput(t *testing.T) {
	s := NewSynthesizer(stubTable(t))

	cases := []*domain.GenerationRequest{
		nil,
		{Rows: 1, Filename: "a.csv"},
		{Headers: []string{"a"}, Rows: 0, Filename: "a.csv"},
		{Headers: []string{"a"}, Rows: 1},
		{Headers: []string{"a b"}, Rows: 1, Filename: "a.csv"},
		{Headers: []string{"a"}, Rows: 1, Filename: "a.csv", Precision: intPtr(-1)},
	}
	for i, req := range cases {
		got, err := s.Build(req)
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.Is(err, ErrInvalidRequest), "case %d: %v", i, err)
		assert.Empty(t, got, "case %d", i)
	}
}

func TestBuild_DefaultTableScenario(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	s := NewSynthesizer(table)

	got, err := s.Build(&domain.GenerationRequest{
		Headers:   []string{"id", "amount"},
		Types:     map[string]string{"id": "int", "amount": "float"},
		Rows:      100,
		Filename:  "out.csv",
		Precision: intPtr(2),
	})
	require.NoError(t, err)

	intExpr, _ := table.Expression("int")
	floatExpr, _ := table.Expression("float")

	assert.True(t, strings.HasPrefix(got, "seq 100 |\nawk '"), got)
	assert.Equal(t, 1, strings.Count(got, "seq 100 |"))
	assert.Contains(t, got, "id="+intExpr+";\n")
	assert.Contains(t, got, "amount="+floatExpr+";print id,amount}'")
	assert.True(t, strings.HasSuffix(got, `' OFS="," OFMT="%.2f" >> 'out.csv'`), got)
}

func TestBuild_Idempotent(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	s := NewSynthesizer(table)
	req := &domain.GenerationRequest{
		Headers:  []string{"id", "who", "when", "score"},
		Types:    map[string]string{"id": "uuid", "who": "name", "when": "date", "score": "percent"},
		Rows:     10,
		Filename: "runs/scores.csv",
	}

	first, err := s.Build(req)
	require.NoError(t, err)
	second, err := s.Build(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_ConcurrentCallsAgree(t *testing.T) {
	s := NewSynthesizer(stubTable(t))
	req := &domain.GenerationRequest{
		Headers:  []string{"id", "amount", "note"},
		Types:    map[string]string{"id": "int", "amount": "float"},
		Rows:     7,
		Filename: "c.csv",
	}
	want, err := s.Build(req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Build(req)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, want, got, "goroutine %d", i)
	}
}

func TestPlan_ReportsResolutions(t *testing.T) {
	s := NewSynthesizer(stubTable(t))

	plan, err := s.Plan(&domain.GenerationRequest{
		Headers:  []string{"id", "label"},
		Types:    map[string]string{"id": "int", "label": "emoji"},
		Rows:     1,
		Filename: "p.csv",
	})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, Found, plan[0].Resolution.Kind)
	assert.Equal(t, "id=INT", plan[0].String())
	assert.Equal(t, "emoji", plan[1].Tag)
	assert.True(t, plan[1].Resolution.IsFallback())
	assert.Equal(t, "label=label", plan[1].String())

	_, err = s.Plan(&domain.GenerationRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
