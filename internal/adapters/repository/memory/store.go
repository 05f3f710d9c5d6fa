// Package memory is an in-memory implementation of the election store and
// vote ledger, used for isolated tests and throwaway deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chatmandu/elections/internal/core/domain"
)

type Store struct {
	mu        sync.RWMutex
	elections map[string]*domain.Election
	voteLog   map[string][]*domain.VoteRecord // keyed by user id
}

func NewStore() *Store {
	return &Store{
		elections: make(map[string]*domain.Election),
		voteLog:   make(map[string][]*domain.VoteRecord),
	}
}

func (s *Store) Save(ctx context.Context, election *domain.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[election.ID] = election.Clone()
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[id]
	if !ok {
		return nil, domain.ErrElectionNotFound
	}
	return election.Clone(), nil
}

func (s *Store) GetAll(ctx context.Context) ([]*domain.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elections := make([]*domain.Election, 0, len(s.elections))
	for _, e := range s.elections {
		elections = append(elections, e.Clone())
	}
	return elections, nil
}

func (s *Store) HasVoted(ctx context.Context, userID, electionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasVotedLocked(userID, electionID), nil
}

func (s *Store) hasVotedLocked(userID, electionID string) bool {
	for _, record := range s.voteLog[userID] {
		if record.ElectionID == electionID {
			return true
		}
	}
	return false
}

func (s *Store) RecordVote(ctx context.Context, election *domain.Election, vote *domain.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasVotedLocked(vote.UserID, vote.ElectionID) {
		return domain.ErrDuplicateVote
	}

	recorded := *vote
	s.voteLog[vote.UserID] = append(s.voteLog[vote.UserID], &recorded)
	s.elections[election.ID] = election.Clone()
	return nil
}

func (s *Store) History(ctx context.Context, electionID string) ([]*domain.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []*domain.VoteRecord
	for _, records := range s.voteLog {
		for _, record := range records {
			if record.ElectionID == electionID {
				copied := *record
				history = append(history, &copied)
			}
		}
	}
	sort.Slice(history, func(i, j int) bool {
		if !history[i].CastAt.Equal(history[j].CastAt) {
			return history[i].CastAt.Before(history[j].CastAt)
		}
		return history[i].UserID < history[j].UserID
	})
	return history, nil
}
