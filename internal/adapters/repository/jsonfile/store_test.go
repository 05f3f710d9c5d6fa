package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/core/domain"
)

func testElection() *domain.Election {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Election{
		ID:          "election-1",
		Title:       "Prime Minister of Chatmandu",
		Description: "choose wisely",
		CreatorID:   "creator",
		Status:      domain.StatusActive,
		CreatedAt:   now,
		EndsAt:      now.Add(72 * time.Hour),
		Candidates: []domain.Candidate{
			{ID: 1, Text: "Alice", Emoji: domain.CandidateEmoji(0)},
			{ID: 2, Text: "Bob", Emoji: domain.CandidateEmoji(1)},
		},
	}
}

func testVote(userID string, election *domain.Election, candidateID int) *domain.VoteRecord {
	return &domain.VoteRecord{
		ID:            uuid.New(),
		UserID:        userID,
		ElectionID:    election.ID,
		CandidateID:   candidateID,
		CandidateText: election.Candidates[candidateID-1].Text,
		CastAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "election_data.json")

	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	election := testElection()
	require.NoError(t, store.Save(ctx, election))

	voted := election.Clone()
	voted.Candidates[0].VoteCount++
	require.NoError(t, store.RecordVote(ctx, voted, testVote("voter-1", election, 1)))

	// A fresh store over the same file sees everything, losslessly.
	reloaded, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	got, err := reloaded.GetByID(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, election.Title, got.Title)
	assert.Equal(t, election.Candidates[0].Emoji, got.Candidates[0].Emoji)
	assert.True(t, election.EndsAt.Equal(got.EndsAt))
	assert.Equal(t, 1, got.TotalVotes())

	voted2, err := reloaded.HasVoted(ctx, "voter-1", election.ID)
	require.NoError(t, err)
	assert.True(t, voted2)

	history, err := reloaded.History(ctx, election.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "voter-1", history[0].UserID)
	assert.Equal(t, "Alice", history[0].CandidateText)
}

func TestStoreMissingFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "election_data.json")

	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreCorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "election_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path, zap.NewNop())
	assert.Error(t, err)
}

func TestStoreGetByIDNotFound(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "d.json"), zap.NewNop())
	require.NoError(t, err)

	_, err = store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}

func TestStoreRejectsDuplicateVote(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "d.json"), zap.NewNop())
	require.NoError(t, err)

	election := testElection()
	require.NoError(t, store.Save(ctx, election))

	voted := election.Clone()
	voted.Candidates[0].VoteCount++
	require.NoError(t, store.RecordVote(ctx, voted, testVote("voter-1", election, 1)))

	again := voted.Clone()
	again.Candidates[1].VoteCount++
	err = store.RecordVote(ctx, again, testVote("voter-1", election, 2))
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)

	got, err := store.GetByID(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalVotes())
}

func TestStoreHistoryIsInCastOrder(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "d.json"), zap.NewNop())
	require.NoError(t, err)

	election := testElection()
	require.NoError(t, store.Save(ctx, election))

	current := election.Clone()
	base := time.Now().UTC()
	for i, userID := range []string{"u1", "u2", "u3"} {
		current = current.Clone()
		current.Candidates[0].VoteCount++
		vote := testVote(userID, election, 1)
		vote.CastAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.RecordVote(ctx, current, vote))
	}

	history, err := store.History(ctx, election.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "u1", history[0].UserID)
	assert.Equal(t, "u3", history[2].UserID)
}

func TestStorePersistFailureRollsBack(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not apply to root")
	}

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "election_data.json")

	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	election := testElection()
	require.NoError(t, store.Save(ctx, election))

	// Make the directory unwritable so the temp-file write fails.
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	voted := election.Clone()
	voted.Candidates[0].VoteCount++
	err = store.RecordVote(ctx, voted, testVote("voter-1", election, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	// The in-memory state was rolled back: no vote, no tally.
	hasVoted, err := store.HasVoted(ctx, "voter-1", election.ID)
	require.NoError(t, err)
	assert.False(t, hasVoted)

	got, err := store.GetByID(ctx, election.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalVotes())
}
