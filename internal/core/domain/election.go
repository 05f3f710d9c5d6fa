package domain

import (
	"time"
)

type ElectionStatus string

const (
	StatusActive ElectionStatus = "active"
	StatusEnded  ElectionStatus = "ended"
)

// MinimumAccountAge is how old a voter's platform account must be. Six
// months approximated as 6x30 days; callers depend on this exact value.
const MinimumAccountAge = 6 * 30 * 24 * time.Hour

type Election struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Candidates  []Candidate    `json:"candidates"`
	CreatorID   string         `json:"creator_id"`
	Status      ElectionStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	EndsAt      time.Time      `json:"ends_at"`
}

type Candidate struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Emoji     string `json:"emoji"`
	VoteCount int    `json:"vote_count"`
}

var candidateEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// CandidateEmoji returns the display glyph for the candidate at the given
// zero-based position, with a placeholder past the glyph table.
func CandidateEmoji(index int) string {
	if index < 0 || index >= len(candidateEmojis) {
		return "❓"
	}
	return candidateEmojis[index]
}

// IsActive is the single active predicate: the status flag alone is not
// enough because an election may have passed its deadline before the
// monitor sweeps it.
func (e *Election) IsActive(now time.Time) bool {
	return e.Status == StatusActive && now.Before(e.EndsAt)
}

// TotalVotes is always derived from the candidate tallies, never stored.
func (e *Election) TotalVotes() int {
	total := 0
	for _, c := range e.Candidates {
		total += c.VoteCount
	}
	return total
}

func (e *Election) Candidate(id int) *Candidate {
	for i := range e.Candidates {
		if e.Candidates[i].ID == id {
			return &e.Candidates[i]
		}
	}
	return nil
}

// ElectionSnapshot is the outbound view a presentation layer renders. It
// carries no creator or bookkeeping fields.
type ElectionSnapshot struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      ElectionStatus `json:"status"`
	Candidates  []Candidate    `json:"candidates"`
	TotalVotes  int            `json:"total_votes"`
	EndsAt      time.Time      `json:"ends_at"`
	Remaining   string         `json:"remaining"`
}

func (e *Election) Snapshot(now time.Time) *ElectionSnapshot {
	candidates := make([]Candidate, len(e.Candidates))
	copy(candidates, e.Candidates)

	status := e.Status
	if !e.IsActive(now) {
		status = StatusEnded
	}

	return &ElectionSnapshot{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Status:      status,
		Candidates:  candidates,
		TotalVotes:  e.TotalVotes(),
		EndsAt:      e.EndsAt,
		Remaining:   FormatDuration(e.EndsAt.Sub(now)),
	}
}

// Clone returns a deep copy. The engine mutates clones and hands them to
// the store, so a failed persist leaves the stored record untouched.
func (e *Election) Clone() *Election {
	copied := *e
	copied.Candidates = make([]Candidate, len(e.Candidates))
	copy(copied.Candidates, e.Candidates)
	return &copied
}
