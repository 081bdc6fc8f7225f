package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmrzaf/mdgen/internal/domain"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("request not found")

type Repository interface {
	List() ([]*domain.GenerationRequest, error)
	Get(id string) (*domain.GenerationRequest, error)
	GetByPath(path string) (*domain.GenerationRequest, error)
}

// FileRepository serves saved generation requests from YAML or JSON files in
// one directory.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

func (r *FileRepository) List() ([]*domain.GenerationRequest, error) {
	if _, err := os.Stat(r.baseDir); os.IsNotExist(err) {
		return []*domain.GenerationRequest{}, nil
	}

	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.GenerationRequest, 0)
	for _, entry := range entries {
		if entry.IsDir() || !IsRequestFile(entry.Name()) {
			continue
		}
		req, err := LoadFile(filepath.Join(r.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FileRepository) Get(id string) (*domain.GenerationRequest, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, req := range list {
		if req.ID == id || req.Name == id {
			return req, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetByPath loads a request file. Relative paths are resolved against the
// base directory, and the result must stay inside it. Paths outside the
// directory and missing files both report ErrNotFound.
func (r *FileRepository) GetByPath(path string) (*domain.GenerationRequest, error) {
	resolved, err := r.resolveInside(path)
	if err != nil {
		return nil, err
	}
	req, err := LoadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return req, err
}

func (r *FileRepository) resolveInside(path string) (string, error) {
	base, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", err
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: request path %q is outside %s", ErrNotFound, path, r.baseDir)
	}
	return target, nil
}

// LoadFile reads one request file without any directory restriction.
func LoadFile(path string) (*domain.GenerationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var req domain.GenerationRequest
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	if req.ID == "" {
		req.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &req, nil
}

// IsRequestFile reports whether name has a request file extension.
func IsRequestFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
