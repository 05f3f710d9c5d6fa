package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/chatmandu/elections/internal/core/domain"
	"github.com/chatmandu/elections/internal/core/ports"
)

const uniqueViolation = "23505"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) HasVoted(ctx context.Context, userID, electionID string) (bool, error) {
	query := `SELECT 1 FROM votes WHERE user_id = $1 AND election_id = $2 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, userID, electionID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return true, nil
}

// RecordVote inserts the ledger entry and the updated tallies in one
// transaction. The unique index on (election_id, user_id) backs the
// one-vote-per-user invariant even if two commits race past the
// service-level lock.
func (r *voteRepository) RecordVote(ctx context.Context, election *domain.Election, vote *domain.VoteRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	queryVote := `
		INSERT INTO votes (id, election_id, user_id, candidate_id, candidate_text, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, queryVote,
		vote.ID, vote.ElectionID, vote.UserID, vote.CandidateID, vote.CandidateText, vote.CastAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("%w: failed to insert vote: %v", domain.ErrPersistence, err)
	}

	if err := upsertElection(ctx, tx, election); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit vote: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (r *voteRepository) History(ctx context.Context, electionID string) ([]*domain.VoteRecord, error) {
	query := `
		SELECT id, election_id, user_id, candidate_id, candidate_text, cast_at
		FROM votes
		WHERE election_id = $1
		ORDER BY cast_at, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote history: %w", err)
	}
	defer rows.Close()

	var history []*domain.VoteRecord
	for rows.Next() {
		var record domain.VoteRecord
		if err := rows.Scan(
			&record.ID, &record.ElectionID, &record.UserID,
			&record.CandidateID, &record.CandidateText, &record.CastAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		history = append(history, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return history, nil
}
