package awk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubTableJSON = `{
  "commands": {"int": "INT", "float": "FLOAT"},
  "constants": {
    "row_loop": "loop(${rows})",
    "awk_script": "script[${body}]",
    "delimiter": "|sep=${sep}",
    "decimal_count": "|digits=${digits}",
    "append_file": "|file=${file}"
  }
}`

func stubTable(t *testing.T) *Table {
	t.Helper()
	table, err := ParseTable([]byte(stubTableJSON), ".json")
	require.NoError(t, err)
	return table
}

func TestDefaultTable_Loads(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)

	tags := table.Tags()
	assert.Contains(t, tags, "int")
	assert.Contains(t, tags, "float")
	assert.Contains(t, tags, "name")
	assert.True(t, sortedStrings(tags), "tags should be sorted: %v", tags)

	for _, tag := range tags {
		expr, ok := table.Expression(tag)
		require.True(t, ok)
		assert.NotContains(t, expr, "'", "tag %s", tag)
	}
}

func TestLoadTable_EmptyPathUsesDefault(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	_, ok := table.Expression("float")
	assert.True(t, ok)
}

func TestLoadTable_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awk.yaml")
	doc := `
commands:
  int: INT
constants:
  row_loop: "loop(${rows})"
  awk_script: "script[${body}]"
  delimiter: "|sep=${sep}"
  decimal_count: "|digits=${digits}"
  append_file: "|file=${file}"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"int"}, table.Tags())
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestParseTable_RejectsStructuralProblems(t *testing.T) {
	cases := map[string]string{
		"malformed json":    `{"commands": `,
		"unknown section":   strings.Replace(stubTableJSON, `"commands"`, `"generators"`, 1),
		"missing commands":  `{"constants": {"row_loop": "${rows}"}}`,
		"missing constants": `{"commands": {"int": "INT"}}`,
		"missing key":       strings.Replace(stubTableJSON, `"append_file": "|file=${file}"`, `"append": "|file=${file}"`, 1),
		"missing slot":      strings.Replace(stubTableJSON, `loop(${rows})`, `loop(rows)`, 1),
		"repeated slot":     strings.Replace(stubTableJSON, `script[${body}]`, `script[${body}${body}]`, 1),
		"empty expression":  strings.Replace(stubTableJSON, `"int": "INT"`, `"int": " "`, 1),
		"quoted expression": strings.Replace(stubTableJSON, `"int": "INT"`, `"int": "'x'"`, 1),
		"empty tag":         strings.Replace(stubTableJSON, `"int": "INT"`, `"": "INT"`, 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable([]byte(doc), ".json")
			assert.Error(t, err)
		})
	}
}

func TestResolve_FoundAndFallback(t *testing.T) {
	table := stubTable(t)

	r := table.Resolve("int", "id")
	assert.Equal(t, Found, r.Kind)
	assert.Equal(t, "INT", r.Expr)
	assert.False(t, r.IsFallback())

	r = table.Resolve("currency", "price")
	assert.Equal(t, Fallback, r.Kind)
	assert.Equal(t, "price", r.Expr)

	r = table.Resolve("", "note")
	assert.True(t, r.IsFallback())
	assert.Equal(t, "note", r.Expr)
	assert.Equal(t, "fallback", r.Kind.String())
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
