package awk

import (
	"fmt"
	"strconv"
	"strings"
)

// Constant keys and the single slot each template must carry.
const (
	KeyRowLoop      = "row_loop"
	KeyScript       = "awk_script"
	KeyDelimiter    = "delimiter"
	KeyDecimalCount = "decimal_count"
	KeyAppendFile   = "append_file"

	slotRows   = "${rows}"
	slotBody   = "${body}"
	slotSep    = "${sep}"
	slotDigits = "${digits}"
	slotFile   = "${file}"
)

var requiredConstants = []struct {
	key  string
	slot string
}{
	{KeyRowLoop, slotRows},
	{KeyScript, slotBody},
	{KeyDelimiter, slotSep},
	{KeyDecimalCount, slotDigits},
	{KeyAppendFile, slotFile},
}

// slotTemplate is a template split around its only slot.
type slotTemplate struct {
	prefix string
	suffix string
}

func compileTemplate(key, text, slot string) (slotTemplate, error) {
	switch n := strings.Count(text, slot); n {
	case 1:
	case 0:
		return slotTemplate{}, fmt.Errorf("constant %q: missing slot %s", key, slot)
	default:
		return slotTemplate{}, fmt.Errorf("constant %q: slot %s appears %d times", key, slot, n)
	}
	i := strings.Index(text, slot)
	return slotTemplate{prefix: text[:i], suffix: text[i+len(slot):]}, nil
}

func (t slotTemplate) fill(v string) string {
	return t.prefix + v + t.suffix
}

// templates holds the typed renderers for every constant of a table.
type templates struct {
	rowLoop      func(rows int64) string
	script       func(body string) string
	delimiter    func(sep string) string
	decimalCount func(digits int) string
	appendFile   func(filename string) string
}

func compileTemplates(constants map[string]string) (templates, error) {
	compiled := make(map[string]slotTemplate, len(requiredConstants))
	for _, rc := range requiredConstants {
		text, ok := constants[rc.key]
		if !ok {
			return templates{}, fmt.Errorf("missing required constant %q", rc.key)
		}
		tmpl, err := compileTemplate(rc.key, text, rc.slot)
		if err != nil {
			return templates{}, err
		}
		compiled[rc.key] = tmpl
	}

	rowLoop := compiled[KeyRowLoop]
	script := compiled[KeyScript]
	delimiter := compiled[KeyDelimiter]
	decimalCount := compiled[KeyDecimalCount]
	appendFile := compiled[KeyAppendFile]

	return templates{
		rowLoop:      func(rows int64) string { return rowLoop.fill(strconv.FormatInt(rows, 10)) },
		script:       script.fill,
		delimiter:    delimiter.fill,
		decimalCount: func(digits int) string { return decimalCount.fill(strconv.Itoa(digits)) },
		appendFile:   appendFile.fill,
	}, nil
}
