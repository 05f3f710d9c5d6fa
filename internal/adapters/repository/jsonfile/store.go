// Package jsonfile persists the whole election store and vote ledger as a
// single JSON document, rewritten atomically on every mutation.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/core/domain"
)

type document struct {
	Elections map[string]*domain.Election     `json:"elections"`
	VoteLog   map[string][]*domain.VoteRecord `json:"vote_log"`
}

type Store struct {
	mu     sync.RWMutex
	path   string
	doc    document
	logger *zap.Logger
}

// NewStore loads the document at path, starting fresh if it does not exist
// yet. A document that exists but cannot be parsed is an error; silently
// discarding committed votes is not acceptable.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path: path,
		doc: document{
			Elections: make(map[string]*domain.Election),
			VoteLog:   make(map[string][]*domain.VoteRecord),
		},
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Info("no existing election data, starting fresh", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read election data: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse election data: %w", err)
	}
	if s.doc.Elections == nil {
		s.doc.Elections = make(map[string]*domain.Election)
	}
	if s.doc.VoteLog == nil {
		s.doc.VoteLog = make(map[string][]*domain.VoteRecord)
	}

	logger.Info("election data loaded",
		zap.String("path", path), zap.Int("elections", len(s.doc.Elections)))
	return s, nil
}

// persistLocked writes the whole document to a temp file and renames it
// over the target, so a crash mid-write never truncates committed state.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, ".elections-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, election *domain.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.doc.Elections[election.ID]
	s.doc.Elections[election.ID] = election.Clone()

	if err := s.persistLocked(); err != nil {
		if existed {
			s.doc.Elections[election.ID] = previous
		} else {
			delete(s.doc.Elections, election.ID)
		}
		s.logger.Error("failed to save election data", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.doc.Elections[id]
	if !ok {
		return nil, domain.ErrElectionNotFound
	}
	return election.Clone(), nil
}

func (s *Store) GetAll(ctx context.Context) ([]*domain.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elections := make([]*domain.Election, 0, len(s.doc.Elections))
	for _, e := range s.doc.Elections {
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
	for _, record := range s.doc.VoteLog[userID] {
		if record.ElectionID == electionID {
			return true
		}
	}
	return false
}

// RecordVote commits the ledger entry and the updated tallies as one
// document write. On a persist failure both are rolled back in memory, so
// success is never reported for a vote that is not on disk.
func (s *Store) RecordVote(ctx context.Context, election *domain.Election, vote *domain.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasVotedLocked(vote.UserID, vote.ElectionID) {
		return domain.ErrDuplicateVote
	}

	previousElection, existed := s.doc.Elections[election.ID]
	previousLog := s.doc.VoteLog[vote.UserID]

	recorded := *vote
	s.doc.VoteLog[vote.UserID] = append(previousLog, &recorded)
	s.doc.Elections[election.ID] = election.Clone()

	if err := s.persistLocked(); err != nil {
		s.doc.VoteLog[vote.UserID] = previousLog
		if existed {
			s.doc.Elections[election.ID] = previousElection
		} else {
			delete(s.doc.Elections, election.ID)
		}
		s.logger.Error("failed to save vote", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) History(ctx context.Context, electionID string) ([]*domain.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []*domain.VoteRecord
	for _, records := range s.doc.VoteLog {
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
