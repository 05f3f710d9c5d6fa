package ports

import (
	"context"
	"time"

	"github.com/chatmandu/elections/internal/core/domain"
)

type ElectionRepository interface {
	Save(ctx context.Context, election *domain.Election) error
	GetByID(ctx context.Context, id string) (*domain.Election, error)
	GetAll(ctx context.Context) ([]*domain.Election, error)
}

// CanEndElection is the authorization capability supplied by the hosting
// platform. The engine only consumes the boolean.
type CanEndElection func(userID string, election *domain.Election) bool

// CandidateResolver turns a raw candidate label (possibly a platform
// mention token) into display text. Resolution happens once, at creation.
type CandidateResolver func(ctx context.Context, label string) string

type CreateElectionInput struct {
	Title       string
	Description string
	Candidates  []string
	Duration    time.Duration
	CreatorID   string
}

type VoteInput struct {
	UserID           string
	AccountCreatedAt time.Time
	ElectionID       string
	CandidateID      int
}

type EndedElection struct {
	Election *domain.Election
	Result   *domain.ElectionResult
}

type ElectionService interface {
	Create(ctx context.Context, input CreateElectionInput) (*domain.Election, error)
	Get(ctx context.Context, id string) (*domain.Election, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Election, error)
	Eligibility(ctx context.Context, userID string, accountCreatedAt time.Time, electionID string) error
	CastVote(ctx context.Context, input VoteInput) (*domain.VoteRecord, error)
	End(ctx context.Context, electionID, requestedBy string) (*domain.ElectionResult, error)
	Results(ctx context.Context, electionID string) (*domain.ElectionResult, error)
	AuditTrail(ctx context.Context, electionID string) (*domain.AuditTrail, error)
	SweepExpired(ctx context.Context, now time.Time) ([]EndedElection, error)
}
