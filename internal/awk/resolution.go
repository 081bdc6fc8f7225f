package awk

// ResolutionKind tells how a column's expression was chosen.
type ResolutionKind uint8

const (
	// Found means the requested tag is in the table.
	Found ResolutionKind = iota + 1
	// Fallback means the tag was absent or unknown and the header is echoed.
	Fallback
)

func (k ResolutionKind) String() string {
	switch k {
	case Found:
		return "found"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

type Resolution struct {
	Kind ResolutionKind
	Expr string
}

func (r Resolution) IsFallback() bool { return r.Kind == Fallback }

// Assignment is one `header=expr` statement of a command body.
type Assignment struct {
	Header     string     `json:"header"`
	Tag        string     `json:"tag,omitempty"`
	Resolution Resolution `json:"-"`
}

func (a Assignment) String() string {
	return a.Header + eq + a.Resolution.Expr
}
