package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/core/domain"
	"github.com/chatmandu/elections/internal/core/ports"
)

const (
	minCandidates = 2
	maxCandidates = 10
)

type electionService struct {
	repo    ports.ElectionRepository
	votes   ports.VoteRepository
	canEnd  ports.CanEndElection
	resolve ports.CandidateResolver
	logger  *zap.Logger

	// Per-election serialization point. Eligibility-check-then-commit for
	// a vote and scan-then-transition for a sweep must not interleave on
	// the same election id.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewElectionService(
	repo ports.ElectionRepository,
	votes ports.VoteRepository,
	canEnd ports.CanEndElection,
	resolve ports.CandidateResolver,
	logger *zap.Logger,
) ports.ElectionService {
	return &electionService{
		repo:    repo,
		votes:   votes,
		canEnd:  canEnd,
		resolve: resolve,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *electionService) lockFor(electionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[electionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[electionID] = lock
	}
	return lock
}

func (s *electionService) Create(ctx context.Context, input ports.CreateElectionInput) (*domain.Election, error) {
	labels := make([]string, 0, len(input.Candidates))
	for _, label := range input.Candidates {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	if len(labels) < minCandidates || len(labels) > maxCandidates {
		return nil, domain.ErrInvalidCandidateCount
	}
	if input.Duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	now := time.Now()
	election := &domain.Election{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		CreatorID:   input.CreatorID,
		Status:      domain.StatusActive,
		CreatedAt:   now,
		EndsAt:      now.Add(input.Duration),
	}

	for i, label := range labels {
		text := label
		if s.resolve != nil {
			text = s.resolve(ctx, label)
		}
		election.Candidates = append(election.Candidates, domain.Candidate{
			ID:    i + 1,
			Text:  text,
			Emoji: domain.CandidateEmoji(i),
		})
	}

	if err := s.repo.Save(ctx, election); err != nil {
		s.logger.Error("failed to persist new election",
			zap.String("election_id", election.ID), zap.Error(err))
		return nil, err
	}
	return election, nil
}

func (s *electionService) Get(ctx context.Context, id string) (*domain.Election, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *electionService) List(ctx context.Context, activeOnly bool) ([]*domain.Election, error) {
	elections, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return elections, nil
	}

	now := time.Now()
	active := make([]*domain.Election, 0, len(elections))
	for _, e := range elections {
		if e.IsActive(now) {
			active = append(active, e)
		}
	}
	return active, nil
}

func (s *electionService) Eligibility(ctx context.Context, userID string, accountCreatedAt time.Time, electionID string) error {
	election, err := s.repo.GetByID(ctx, electionID)
	if err != nil {
		return err
	}
	return s.checkEligibility(ctx, userID, accountCreatedAt, election)
}

// checkEligibility applies the rejection rules in their fixed order: not
// active, expired, account too new, already voted. The caller has already
// handled not-found by loading the election.
func (s *electionService) checkEligibility(ctx context.Context, userID string, accountCreatedAt time.Time, election *domain.Election) error {
	if election.Status != domain.StatusActive {
		return domain.ErrElectionNotActive
	}
	if !time.Now().Before(election.EndsAt) {
		return domain.ErrElectionExpired
	}
	if time.Since(accountCreatedAt) < domain.MinimumAccountAge {
		return domain.ErrAccountTooNew
	}

	voted, err := s.votes.HasVoted(ctx, userID, election.ID)
	if err != nil {
		return err
	}
	if voted {
		return domain.ErrDuplicateVote
	}
	return nil
}

func (s *electionService) CastVote(ctx context.Context, input ports.VoteInput) (*domain.VoteRecord, error) {
	lock := s.lockFor(input.ElectionID)
	lock.Lock()
	defer lock.Unlock()

	election, err := s.repo.GetByID(ctx, input.ElectionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, input.UserID, input.AccountCreatedAt, election); err != nil {
		return nil, err
	}

	updated := election.Clone()
	candidate := updated.Candidate(input.CandidateID)
	if candidate == nil {
		return nil, domain.ErrUnknownCandidate
	}
	candidate.VoteCount++

	vote := &domain.VoteRecord{
		ID:            uuid.New(),
		UserID:        input.UserID,
		ElectionID:    input.ElectionID,
		CandidateID:   candidate.ID,
		CandidateText: candidate.Text,
		CastAt:        time.Now(),
	}

	if err := s.votes.RecordVote(ctx, updated, vote); err != nil {
		if !errors.Is(err, domain.ErrDuplicateVote) {
			s.logger.Error("failed to persist vote",
				zap.String("election_id", input.ElectionID),
				zap.String("user_id", input.UserID),
				zap.Error(err))
		}
		return nil, err
	}
	return vote, nil
}

func (s *electionService) End(ctx context.Context, electionID, requestedBy string) (*domain.ElectionResult, error) {
	lock := s.lockFor(electionID)
	lock.Lock()
	defer lock.Unlock()

	election, err := s.repo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status == domain.StatusEnded {
		return nil, domain.ErrElectionAlreadyEnded
	}
	if s.canEnd == nil || !s.canEnd(requestedBy, election) {
		return nil, domain.ErrForbidden
	}

	ended, err := s.endLocked(ctx, election)
	if err != nil {
		return nil, err
	}
	return ended.Result, nil
}

// endLocked flips an election to ended and persists it. The caller holds
// the election's lock and has verified the election is still active.
func (s *electionService) endLocked(ctx context.Context, election *domain.Election) (*ports.EndedElection, error) {
	updated := election.Clone()
	updated.Status = domain.StatusEnded

	if err := s.repo.Save(ctx, updated); err != nil {
		s.logger.Error("failed to persist ended election",
			zap.String("election_id", election.ID), zap.Error(err))
		return nil, err
	}
	return &ports.EndedElection{
		Election: updated,
		Result:   domain.ComputeResult(updated),
	}, nil
}

func (s *electionService) Results(ctx context.Context, electionID string) (*domain.ElectionResult, error) {
	election, err := s.repo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return domain.ComputeResult(election), nil
}

func (s *electionService) AuditTrail(ctx context.Context, electionID string) (*domain.AuditTrail, error) {
	election, err := s.repo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}

	history, err := s.votes.History(ctx, electionID)
	if err != nil {
		return nil, err
	}

	voters := make(map[string]struct{}, len(history))
	for _, record := range history {
		voters[record.UserID] = struct{}{}
	}

	return &domain.AuditTrail{
		ElectionID:   election.ID,
		Title:        election.Title,
		Status:       election.Status,
		TotalVotes:   election.TotalVotes(),
		UniqueVoters: len(voters),
		CreatedAt:    election.CreatedAt,
		EndsAt:       election.EndsAt,
		History:      history,
	}, nil
}

// SweepExpired transitions every active election past its deadline to
// ended, each exactly once. A failure on one election is logged and does
// not stop the sweep of the rest.
func (s *electionService) SweepExpired(ctx context.Context, now time.Time) ([]ports.EndedElection, error) {
	elections, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var ended []ports.EndedElection
	for _, candidate := range elections {
		if candidate.Status != domain.StatusActive || candidate.EndsAt.After(now) {
			continue
		}

		lock := s.lockFor(candidate.ID)
		lock.Lock()

		// Reload under the lock: a manual end or a concurrent sweep may
		// have gotten there first.
		election, err := s.repo.GetByID(ctx, candidate.ID)
		if err != nil {
			lock.Unlock()
			s.logger.Error("sweep: failed to reload election",
				zap.String("election_id", candidate.ID), zap.Error(err))
			continue
		}
		if election.Status != domain.StatusActive || election.EndsAt.After(now) {
			lock.Unlock()
			continue
		}

		result, err := s.endLocked(ctx, election)
		lock.Unlock()
		if err != nil {
			s.logger.Error("sweep: failed to end election",
				zap.String("election_id", election.ID), zap.Error(err))
			continue
		}
		ended = append(ended, *result)
	}
	return ended, nil
}
