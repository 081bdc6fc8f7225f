package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/mmrzaf/mdgen/internal/awk"
	"github.com/mmrzaf/mdgen/internal/domain"
	"github.com/mmrzaf/mdgen/internal/exec"
	"github.com/mmrzaf/mdgen/internal/hashing"
	"github.com/mmrzaf/mdgen/internal/infra/repos/requests"
	"github.com/mmrzaf/mdgen/internal/logging"
	"github.com/mmrzaf/mdgen/internal/validation"
)

// GenerationService is the caller of the synthesizer: it checks the user,
// fills request defaults, builds the command and records usage.
type GenerationService struct {
	requestRepo requests.Repository
	registry    *UserRegistry
	synth       *awk.Synthesizer
	sampler     *exec.Sampler
	outputDir   string
	logger      *logging.Logger
}

// NewGenerationService fails when outputDir could never prefix a valid
// filename, so a bad directory is caught at startup rather than per request.
func NewGenerationService(
	requestRepo requests.Repository,
	registry *UserRegistry,
	synth *awk.Synthesizer,
	sampler *exec.Sampler,
	outputDir string,
	logger *logging.Logger,
) (*GenerationService, error) {
	dir, err := cleanOutputDir(outputDir)
	if err != nil {
		return nil, err
	}
	return &GenerationService{
		requestRepo: requestRepo,
		registry:    registry,
		synth:       synth,
		sampler:     sampler,
		outputDir:   dir,
		logger:      logger.WithComponent("generation_service"),
	}, nil
}

// cleanOutputDir normalizes dir; "" and "." mean filenames stay as given.
func cleanOutputDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", nil
	}
	clean := path.Clean(filepath.ToSlash(dir))
	if clean == "." {
		return "", nil
	}
	if !validation.IsValidFilename(clean) {
		return "", fmt.Errorf("invalid output directory %q", dir)
	}
	return clean, nil
}

func (s *GenerationService) Tags() []string { return s.synth.Table().Tags() }

func (s *GenerationService) Requests() requests.Repository { return s.requestRepo }

// BuildCommand returns the generation command for a verified user. Usage is
// recorded once the command is built, since running it happens elsewhere.
func (s *GenerationService) BuildCommand(ctx context.Context, token string, creq *domain.CommandRequest) (*domain.CommandResult, error) {
	if err := validation.ValidateCommandRequest(creq); err != nil {
		return nil, fmt.Errorf("%w: %v", awk.ErrInvalidRequest, err)
	}

	user, err := s.registry.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}

	req, err := s.resolveRequest(creq)
	if err != nil {
		return nil, err
	}

	res, err := s.Render(req)
	if err != nil {
		return nil, err
	}

	if err := s.registry.RecordUsage(ctx, token); err != nil {
		return nil, err
	}
	s.logger.Infow("command.built", map[string]any{
		"user_id":      user.ID,
		"request_hash": res.RequestHash,
		"rows":         req.Rows,
		"columns":      len(req.Headers),
	})
	return res, nil
}

// Render builds the command for req without any user checks. An empty
// filename becomes <hash prefix>.csv; filenames are placed under the output
// directory.
func (s *GenerationService) Render(req *domain.GenerationRequest) (*domain.CommandResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: generation request is required", awk.ErrInvalidRequest)
	}
	r := *req
	hash, err := hashing.HashRequest(&r)
	if err != nil {
		return nil, fmt.Errorf("hash request: %w", err)
	}
	if r.Filename == "" {
		r.Filename = hash[:12] + ".csv"
	}
	if path.IsAbs(r.Filename) || !validation.IsValidFilename(r.Filename) {
		return nil, fmt.Errorf("%w: invalid filename: %q", awk.ErrInvalidRequest, r.Filename)
	}
	if s.outputDir != "" {
		r.Filename = path.Join(s.outputDir, r.Filename)
	}

	plan, err := s.synth.Plan(&r)
	if err != nil {
		return nil, err
	}
	var fallbacks []string
	for _, a := range plan {
		if a.Resolution.IsFallback() {
			fallbacks = append(fallbacks, a.Header)
		}
	}
	if len(fallbacks) > 0 {
		s.logger.Debugw("command.pass_through_columns", map[string]any{"request_hash": hash, "headers": fallbacks})
	}

	cmd, err := s.synth.Build(&r)
	if err != nil {
		return nil, err
	}
	return &domain.CommandResult{Command: cmd, Filename: r.Filename, RequestHash: hash}, nil
}

func (s *GenerationService) Sample(req *domain.GenerationRequest, rows, seed int64) (*domain.SampleResult, error) {
	return s.sampler.Sample(req, rows, seed)
}

// resolveRequest loads a saved request by id or name, or by its file path
// inside the requests directory when the reference has a request file
// extension.
func (s *GenerationService) resolveRequest(creq *domain.CommandRequest) (*domain.GenerationRequest, error) {
	if creq.Request != nil {
		return creq.Request, nil
	}
	var (
		req *domain.GenerationRequest
		err error
	)
	if requests.IsRequestFile(creq.RequestID) {
		req, err = s.requestRepo.GetByPath(creq.RequestID)
	} else {
		req, err = s.requestRepo.Get(creq.RequestID)
	}
	if errors.Is(err, requests.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	return req, nil
}
