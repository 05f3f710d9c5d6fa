package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatmandu/elections/internal/core/domain"
	"github.com/chatmandu/elections/internal/core/ports"
)

// UserIDHeader carries the caller's platform identity. Authenticating it
// is the hosting platform's job, not this service's.
const UserIDHeader = "X-User-ID"

type ElectionHandler struct {
	service ports.ElectionService
}

func NewElectionHandler(service ports.ElectionService) *ElectionHandler {
	return &ElectionHandler{
		service: service,
	}
}

type createElectionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Candidates  []string `json:"candidates"`
	Duration    string   `json:"duration"`
}

func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req createElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	creatorID := r.Header.Get(UserIDHeader)
	if creatorID == "" {
		http.Error(w, "missing user id", http.StatusUnauthorized)
		return
	}

	input := ports.CreateElectionInput{
		Title:       req.Title,
		Description: req.Description,
		Candidates:  req.Candidates,
		Duration:    domain.ParseDuration(req.Duration),
		CreatorID:   creatorID,
	}

	election, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(election.Snapshot(time.Now())); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing election id", http.StatusBadRequest)
		return
	}

	election, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(election.Snapshot(time.Now())); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	elections, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	snapshots := make([]*domain.ElectionSnapshot, 0, len(elections))
	for _, e := range elections {
		snapshots = append(snapshots, e.Snapshot(now))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.Results(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ElectionHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	trail, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trail); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ElectionHandler) EndElection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		http.Error(w, "missing user id", http.StatusUnauthorized)
		return
	}

	result, err := h.service.End(r.Context(), id, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrElectionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidCandidateCount),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrUnknownCandidate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrAccountTooNew):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrDuplicateVote),
		errors.Is(err, domain.ErrElectionNotActive),
		errors.Is(err, domain.ErrElectionExpired),
		errors.Is(err, domain.ErrElectionAlreadyEnded):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
