package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mmrzaf/mdgen/internal/domain"
)

// MaxPrecision bounds the digits accepted for the decimal directive.
const MaxPrecision = 15

var ErrInvalidEmail = errors.New("invalid email")

// header validation: awk variable names only, so every header can appear on the
// left of an assignment and in the print list.
var (
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	filenameRe    = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)
	reservedWords = map[string]struct{}{
		// keywords
		"BEGIN": {}, "END": {}, "BEGINFILE": {}, "ENDFILE": {}, "function": {}, "func": {},
		"if": {}, "else": {}, "while": {}, "for": {}, "do": {}, "break": {},
		"continue": {}, "next": {}, "nextfile": {}, "exit": {}, "return": {}, "delete": {},
		"getline": {}, "print": {}, "printf": {}, "in": {}, "switch": {}, "case": {},
		"default": {},
		// builtin functions
		"length": {}, "substr": {}, "index": {}, "split": {}, "sub": {}, "gsub": {},
		"match": {}, "sprintf": {}, "sin": {}, "cos": {}, "atan2": {}, "exp": {},
		"log": {}, "sqrt": {}, "int": {}, "rand": {}, "srand": {}, "tolower": {},
		"toupper": {}, "system": {}, "close": {}, "fflush": {}, "gensub": {},
		"strftime": {}, "systime": {}, "mktime": {}, "and": {}, "or": {}, "xor": {},
		"compl": {}, "lshift": {}, "rshift": {}, "asort": {}, "asorti": {},
		"patsplit": {}, "isarray": {}, "typeof": {},
		// special variables
		"NR": {}, "NF": {}, "FNR": {}, "FS": {}, "OFS": {}, "ORS": {}, "RS": {},
		"FILENAME": {}, "SUBSEP": {}, "RSTART": {}, "RLENGTH": {}, "CONVFMT": {},
		"OFMT": {}, "ENVIRON": {}, "ARGC": {}, "ARGV": {}, "PROCINFO": {},
		"IGNORECASE": {}, "RT": {}, "FPAT": {}, "FIELDWIDTHS": {}, "BINMODE": {},
		"LINT": {}, "TEXTDOMAIN": {}, "ERRNO": {}, "ARGIND": {}, "SYMTAB": {},
		"FUNCTAB": {},
	}
)

// IsValidHeader reports whether s can be used as a column header, i.e. as an
// awk variable that does not shadow anything the interpreter or the script
// template defines.
func IsValidHeader(s string) bool {
	if !identRe.MatchString(s) {
		return false
	}
	if strings.HasPrefix(s, "_") {
		return false
	}
	if _, ok := reservedWords[s]; ok {
		return false
	}
	return true
}

// IsValidFilename accepts clean paths made of portable characters that do not
// climb out of their starting directory. The name is embedded in a quoted shell
// redirection, so anything that could end the quote is refused.
func IsValidFilename(s string) bool {
	if s == "" || !filenameRe.MatchString(s) {
		return false
	}
	if strings.HasPrefix(s, "-") {
		return false
	}
	clean := filepath.Clean(s)
	if clean != s || clean == "." {
		return false
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}
	return !strings.HasSuffix(s, "/")
}

func ValidateGenerationRequest(req *domain.GenerationRequest) error {
	if req == nil {
		return errors.New("generation request is required")
	}
	if len(req.Headers) == 0 {
		return errors.New("at least one header is required")
	}
	for i, h := range req.Headers {
		if !IsValidHeader(h) {
			return fmt.Errorf("header %d: invalid header identifier: %q", i, h)
		}
	}
	if req.Rows <= 0 {
		return fmt.Errorf("rows must be > 0, got %d", req.Rows)
	}
	if strings.TrimSpace(req.Filename) == "" {
		return errors.New("filename is required")
	}
	if !IsValidFilename(req.Filename) {
		return fmt.Errorf("invalid filename: %q", req.Filename)
	}
	if req.Precision != nil {
		if p := *req.Precision; p < 0 || p > MaxPrecision {
			return fmt.Errorf("precision must be between 0 and %d, got %d", MaxPrecision, p)
		}
	}
	return nil
}

// ValidateCommandRequest checks that a command call names exactly one request.
func ValidateCommandRequest(req *domain.CommandRequest) error {
	if req == nil {
		return errors.New("command request is required")
	}
	hasID := strings.TrimSpace(req.RequestID) != ""
	if hasID == (req.Request != nil) {
		return errors.New("exactly one of request_id or request is required")
	}
	return nil
}

// NormalizeEmail trims and lowercases an address after checking it is a single
// bare address (no display name).
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidEmail, email, err)
	}
	if addr.Name != "" || addr.Address != email {
		return "", fmt.Errorf("%w %q", ErrInvalidEmail, email)
	}
	return strings.ToLower(addr.Address), nil
}
