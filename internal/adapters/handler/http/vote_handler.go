package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatmandu/elections/internal/core/ports"
)

// AccountCreatedAtHeader carries the caller's platform account creation
// time (RFC 3339), used for the account-age eligibility rule.
const AccountCreatedAtHeader = "X-Account-Created-At"

type VoteHandler struct {
	service ports.ElectionService
}

func NewVoteHandler(service ports.ElectionService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	CandidateID int `json:"candidate_id"`
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "id")

	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		http.Error(w, "missing user id", http.StatusUnauthorized)
		return
	}

	accountCreatedAt, err := time.Parse(time.RFC3339, r.Header.Get(AccountCreatedAtHeader))
	if err != nil {
		http.Error(w, "missing or invalid account creation time", http.StatusBadRequest)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := ports.VoteInput{
		UserID:           userID,
		AccountCreatedAt: accountCreatedAt,
		ElectionID:       electionID,
		CandidateID:      req.CandidateID,
	}

	vote, err := h.service.CastVote(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(vote); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
