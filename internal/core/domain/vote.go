package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoteRecord is an append-only ledger entry. At most one record may exist
// per (UserID, ElectionID); the ledger is the sole source of truth for
// "has this user already voted".
type VoteRecord struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	ElectionID    string    `json:"election_id"`
	CandidateID   int       `json:"candidate_id"`
	CandidateText string    `json:"candidate_text"`
	CastAt        time.Time `json:"cast_at"`
}

// AuditTrail is the exportable view of one election's full vote history.
type AuditTrail struct {
	ElectionID   string         `json:"election_id"`
	Title        string         `json:"title"`
	Status       ElectionStatus `json:"status"`
	TotalVotes   int            `json:"total_votes"`
	UniqueVoters int            `json:"unique_voters"`
	CreatedAt    time.Time      `json:"created_at"`
	EndsAt       time.Time      `json:"ends_at"`
	History      []*VoteRecord  `json:"history"`
}
