package ports

import (
	"context"

	"github.com/chatmandu/elections/internal/core/domain"
)

type VoteRepository interface {
	HasVoted(ctx context.Context, userID, electionID string) (bool, error)

	// RecordVote durably commits the ledger entry and the election's
	// updated tallies as one unit. It fails with ErrDuplicateVote if a
	// record for (vote.UserID, vote.ElectionID) already exists; in that
	// case no tally is persisted either.
	RecordVote(ctx context.Context, election *domain.Election, vote *domain.VoteRecord) error

	// History returns an election's ledger entries in cast order.
	History(ctx context.Context, electionID string) ([]*domain.VoteRecord, error)
}
