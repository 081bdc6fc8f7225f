package awk

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed awk.json
var defaultTable []byte

type tableFile struct {
	Commands  map[string]string `json:"commands" yaml:"commands"`
	Constants map[string]string `json:"constants" yaml:"constants"`
}

// Table is the generator configuration: data-type tags mapped to awk
// expressions, plus the templates that frame a command. It is never mutated
// after loading; reloading means building a new Table.
type Table struct {
	commands map[string]string
	tmpl     templates
}

// DefaultTable parses the table compiled into the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable, ".json")
}

// LoadTable reads a table from path, or returns the default table when path
// is empty. YAML is used for .yaml/.yml files, JSON otherwise.
func LoadTable(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read awk table: %w", err)
	}
	t, err := ParseTable(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func ParseTable(data []byte, ext string) (*Table, error) {
	var f tableFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse awk table: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse awk table: %w", err)
		}
	}
	return newTable(f)
}

func newTable(f tableFile) (*Table, error) {
	if len(f.Commands) == 0 {
		return nil, errors.New("awk table: commands section is missing or empty")
	}
	if len(f.Constants) == 0 {
		return nil, errors.New("awk table: constants section is missing or empty")
	}

	commands := make(map[string]string, len(f.Commands))
	for tag, expr := range f.Commands {
		if strings.TrimSpace(tag) == "" {
			return nil, errors.New("awk table: empty data-type tag")
		}
		if strings.TrimSpace(expr) == "" {
			return nil, fmt.Errorf("awk table: command %q has an empty expression", tag)
		}
		if strings.ContainsRune(expr, '\'') {
			return nil, fmt.Errorf("awk table: command %q contains a single quote", tag)
		}
		commands[tag] = expr
	}

	tmpl, err := compileTemplates(f.Constants)
	if err != nil {
		return nil, fmt.Errorf("awk table: %w", err)
	}
	return &Table{commands: commands, tmpl: tmpl}, nil
}

// Resolve looks up the expression for tag. Unknown or empty tags fall back to
// the header itself, which makes the column a pass-through assignment.
func (t *Table) Resolve(tag, header string) Resolution {
	if expr, ok := t.commands[tag]; ok && tag != "" {
		return Resolution{Kind: Found, Expr: expr}
	}
	return Resolution{Kind: Fallback, Expr: header}
}

// Tags returns the known data-type tags in sorted order.
func (t *Table) Tags() []string {
	tags := make([]string, 0, len(t.commands))
	for tag := range t.commands {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Expression returns the awk expression registered for tag.
func (t *Table) Expression(tag string) (string, bool) {
	expr, ok := t.commands[tag]
	return expr, ok
}
