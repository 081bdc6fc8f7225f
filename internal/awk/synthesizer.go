package awk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmrzaf/mdgen/internal/domain"
	"github.com/mmrzaf/mdgen/internal/validation"
)

const (
	printKeyword = "print " // the space separates the keyword from the first header
	eq           = "="
	semicolon    = ";"
	comma        = ","
	eol          = "\n"
)

// ErrInvalidRequest wraps every input validation failure of Build.
var ErrInvalidRequest = errors.New("invalid generation request")

// Synthesizer renders generation requests into shell commands. It holds no
// state besides its table, so one value may serve any number of goroutines.
type Synthesizer struct {
	table *Table
}

func NewSynthesizer(table *Table) *Synthesizer {
	return &Synthesizer{table: table}
}

func (s *Synthesizer) Table() *Table { return s.table }

// Plan resolves every header of req in order.
func (s *Synthesizer) Plan(req *domain.GenerationRequest) ([]Assignment, error) {
	if err := validation.ValidateGenerationRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.plan(req), nil
}

func (s *Synthesizer) plan(req *domain.GenerationRequest) []Assignment {
	out := make([]Assignment, len(req.Headers))
	for i, h := range req.Headers {
		tag := req.TypeOf(h)
		out[i] = Assignment{Header: h, Tag: tag, Resolution: s.table.Resolve(tag, h)}
	}
	return out
}

// Build returns the command that writes req.Rows synthetic rows, comma
// separated, appended to req.Filename. The layout is
//
//	<row loop>\n<script(assignments;print headers)><delimiter>[<decimals>]<append>
func (s *Synthesizer) Build(req *domain.GenerationRequest) (string, error) {
	if err := validation.ValidateGenerationRequest(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var b strings.Builder
	b.WriteString(s.table.tmpl.rowLoop(req.Rows))
	b.WriteString(eol)
	b.WriteString(s.table.tmpl.script(commandBody(s.plan(req)) + printStatement(req.Headers)))
	b.WriteString(s.closeStatement(req))
	return b.String(), nil
}

func commandBody(assignments []Assignment) string {
	parts := make([]string, len(assignments))
	for i, a := range assignments {
		parts[i] = a.String()
	}
	return strings.Join(parts, semicolon+eol) + semicolon
}

func printStatement(headers []string) string {
	return printKeyword + strings.Join(headers, comma)
}

func (s *Synthesizer) closeStatement(req *domain.GenerationRequest) string {
	out := s.table.tmpl.delimiter(comma)
	if req.Precision != nil {
		out += s.table.tmpl.decimalCount(*req.Precision)
	}
	return out + s.table.tmpl.appendFile(req.Filename)
}
