package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/mmrzaf/mdgen/internal/domain"
)

type typeEntry struct {
	Header string `json:"header"`
	Tag    string `json:"tag"`
}

type requestHashPayload struct {
	Headers   []string    `json:"headers"`
	Types     []typeEntry `json:"types"`
	Rows      int64       `json:"rows"`
	Filename  string      `json:"filename"`
	Precision *int        `json:"precision,omitempty"`
}

// HashRequest fingerprints the parts of a request that shape the command.
// ID and Name are left out; type entries for headers that are not requested are
// dropped since they cannot affect the output.
func HashRequest(req *domain.GenerationRequest) (string, error) {
	data, err := json.Marshal(canonicalizeRequest(req))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeRequest(req *domain.GenerationRequest) requestHashPayload {
	used := make(map[string]struct{}, len(req.Headers))
	for _, h := range req.Headers {
		used[h] = struct{}{}
	}

	keys := make([]string, 0, len(req.Types))
	for k := range req.Types {
		if _, ok := used[k]; ok && req.Types[k] != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	types := make([]typeEntry, 0, len(keys))
	for _, k := range keys {
		types = append(types, typeEntry{Header: k, Tag: req.Types[k]})
	}

	headers := req.Headers
	if headers == nil {
		headers = []string{}
	}
	return requestHashPayload{
		Headers:   headers,
		Types:     types,
		Rows:      req.Rows,
		Filename:  req.Filename,
		Precision: req.Precision,
	}
}
