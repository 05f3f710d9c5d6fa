package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chatmandu/elections/internal/core/domain"
	"github.com/chatmandu/elections/internal/core/ports"
)

type electionRepository struct {
	db *sql.DB
}

func NewElectionRepository(db *sql.DB) ports.ElectionRepository {
	return &electionRepository{
		db: db,
	}
}

func (r *electionRepository) Save(ctx context.Context, election *domain.Election) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	if err := upsertElection(ctx, tx, election); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", domain.ErrPersistence, err)
	}
	return nil
}

// upsertElection writes an election and its candidate tallies inside an
// existing transaction, so a vote commit can reuse it.
func upsertElection(ctx context.Context, tx *sql.Tx, election *domain.Election) error {
	queryElection := `
		INSERT INTO elections (id, title, description, creator_id, status, created_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, ends_at = EXCLUDED.ends_at
	`
	_, err := tx.ExecContext(ctx, queryElection,
		election.ID, election.Title, election.Description, election.CreatorID,
		election.Status, election.CreatedAt, election.EndsAt)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert election: %v", domain.ErrPersistence, err)
	}

	queryCandidate := `
		INSERT INTO election_candidates (election_id, id, text, emoji, vote_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (election_id, id) DO UPDATE SET vote_count = EXCLUDED.vote_count
	`
	stmt, err := tx.PrepareContext(ctx, queryCandidate)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare candidate statement: %v", domain.ErrPersistence, err)
	}
	defer stmt.Close()

	for _, candidate := range election.Candidates {
		_, err = stmt.ExecContext(ctx, election.ID, candidate.ID, candidate.Text, candidate.Emoji, candidate.VoteCount)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert candidate: %v", domain.ErrPersistence, err)
		}
	}
	return nil
}

func (r *electionRepository) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	query := `
		SELECT id, title, description, creator_id, status, created_at, ends_at
		FROM elections
		WHERE id = $1
	`

	var election domain.Election
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&election.ID, &election.Title, &election.Description, &election.CreatorID,
		&election.Status, &election.CreatedAt, &election.EndsAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to get election: %w", err)
	}

	candidates, err := r.fetchCandidates(ctx, election.ID)
	if err != nil {
		return nil, err
	}
	election.Candidates = candidates

	return &election, nil
}

func (r *electionRepository) GetAll(ctx context.Context) ([]*domain.Election, error) {
	query := `
		SELECT id, title, description, creator_id, status, created_at, ends_at
		FROM elections
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all elections: %w", err)
	}
	defer rows.Close()

	var elections []*domain.Election
	for rows.Next() {
		var election domain.Election
		if err := rows.Scan(
			&election.ID, &election.Title, &election.Description, &election.CreatorID,
			&election.Status, &election.CreatedAt, &election.EndsAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}

		candidates, err := r.fetchCandidates(ctx, election.ID)
		if err != nil {
			return nil, err
		}
		election.Candidates = candidates

		elections = append(elections, &election)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating elections: %w", err)
	}
	return elections, nil
}

func (r *electionRepository) fetchCandidates(ctx context.Context, electionID string) ([]domain.Candidate, error) {
	query := `
		SELECT id, text, emoji, vote_count
		FROM election_candidates
		WHERE election_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var candidate domain.Candidate
		if err := rows.Scan(&candidate.ID, &candidate.Text, &candidate.Emoji, &candidate.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}
