package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmrzaf/mdgen/internal/app"
	"github.com/mmrzaf/mdgen/internal/awk"
	"github.com/mmrzaf/mdgen/internal/domain"
	"github.com/mmrzaf/mdgen/internal/infra/repos/requests"
	"github.com/mmrzaf/mdgen/internal/logging"
	"github.com/mmrzaf/mdgen/internal/validation"
)

const (
	defaultSampleRows = 10
	maxBodyBytes      = 1 << 20
)

type Handler struct {
	registry *app.UserRegistry
	service  *app.GenerationService
	logger   *logging.Logger
}

func NewHandler(registry *app.UserRegistry, service *app.GenerationService, logger *logging.Logger) *Handler {
	return &Handler{
		registry: registry,
		service:  service,
		logger:   logger.WithComponent("api"),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/users", h.CreateUser)
	mux.HandleFunc("GET /api/v1/users/me", h.GetMe)
	mux.HandleFunc("POST /api/v1/users/me/token", h.RotateToken)
	mux.HandleFunc("GET /api/v1/verify/{token}", h.Verify)

	mux.HandleFunc("GET /api/v1/types", h.ListTypes)
	mux.HandleFunc("GET /api/v1/requests", h.ListRequests)
	mux.HandleFunc("GET /api/v1/requests/{id}", h.GetRequest)

	mux.HandleFunc("POST /api/v1/commands", h.CreateCommand)
	mux.HandleFunc("POST /api/v1/samples", h.CreateSample)
}

type createUserRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Users

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := decodeJSONStrict(r, &body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	token, err := h.registry.IdentifyOrCreate(r.Context(), body.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, tokenResponse{Token: token})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	user, err := h.registry.Lookup(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) RotateToken(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	next, err := h.registry.RotateToken(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, tokenResponse{Token: next})
}

// Verify is the target of the verification link mailed to the user.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.MarkVerified(r.Context(), r.PathValue("token")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"verified": true})
}

// Types and saved requests

func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.Tags())
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Requests().List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.Requests().Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, req)
}

// Commands

func (h *Handler) CreateCommand(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var body domain.CommandRequest
	if err := decodeJSONStrict(r, &body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	res, err := h.service.BuildCommand(r.Context(), token, &body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res)
}

// CreateSample previews rows with Go look-alikes of the awk expressions.
// Headers whose tag has no preview generator come back in "unpreviewed".
func (h *Handler) CreateSample(w http.ResponseWriter, r *http.Request) {
	rows := int64(defaultSampleRows)
	if q := r.URL.Query().Get("rows"); q != "" {
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			http.Error(w, "invalid rows", http.StatusBadRequest)
			return
		}
		rows = n
	}
	var seed int64
	if q := r.URL.Query().Get("seed"); q != "" {
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			http.Error(w, "invalid seed", http.StatusBadRequest)
			return
		}
		seed = n
	}

	var req domain.GenerationRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	res, err := h.service.Sample(&req, rows, seed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnknownUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, app.ErrNotVerified):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, requests.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, awk.ErrInvalidRequest), errors.Is(err, validation.ErrInvalidEmail):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Errorw("request.failed", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := accessToken(r)
	if token == "" {
		http.Error(w, "missing access token", http.StatusUnauthorized)
		return "", false
	}
	return token, true
}

func accessToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if t, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Access-Token"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSONStrict(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
