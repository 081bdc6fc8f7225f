package domain

import "time"

// GenerationRequest describes one CSV to synthesize: the ordered headers, the
// data-type tag wanted for each header, and the output options.
type GenerationRequest struct {
	ID        string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Headers   []string          `json:"headers" yaml:"headers"`
	Types     map[string]string `json:"types,omitempty" yaml:"types,omitempty"`
	Rows      int64             `json:"rows" yaml:"rows"`
	Filename  string            `json:"filename" yaml:"filename"`
	Precision *int              `json:"precision,omitempty" yaml:"precision,omitempty"`
}

// TypeOf returns the tag requested for header, or "" when none was requested.
func (r *GenerationRequest) TypeOf(header string) string {
	if r.Types == nil {
		return ""
	}
	return r.Types[header]
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Token          string    `json:"token,omitempty"`
	Verified       bool      `json:"verified"`
	GeneratedCount int64     `json:"generated_count"`
	LastUsed       time.Time `json:"last_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// CommandRequest is the body of a command build call. Exactly one of
// RequestID and Request is set.
type CommandRequest struct {
	RequestID string             `json:"request_id,omitempty"`
	Request   *GenerationRequest `json:"request,omitempty"`
}

type CommandResult struct {
	Command     string `json:"command"`
	Filename    string `json:"filename"`
	RequestHash string `json:"request_hash"`
}

type SampleResult struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Seed    int64      `json:"seed"`
	// Unpreviewed lists headers whose tag has an awk expression but no
	// preview generator; their values are left empty.
	Unpreviewed []string `json:"unpreviewed,omitempty"`
}

const (
	UsersBackendSQLite   = "sqlite"
	UsersBackendPostgres = "postgres"
	UsersBackendMongo    = "mongo"
)
