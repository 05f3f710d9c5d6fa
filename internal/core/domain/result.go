package domain

import "sort"

// RunnerUpPanelSize is the nominal number of runner-up seats after the
// winner. The actual panel may shrink or grow at a tied boundary, see
// runnerUpPanel.
const RunnerUpPanelSize = 4

type ElectionResult struct {
	ElectionID string      `json:"election_id"`
	Title      string      `json:"title"`
	TotalVotes int         `json:"total_votes"`
	Ranked     []Candidate `json:"ranked"`
	Winner     *Candidate  `json:"winner,omitempty"`
	RunnersUp  []Candidate `json:"runners_up"`
}

// ComputeResult ranks an election's candidates. Ranking is descending by
// vote count with ties broken by original candidate order, so it is
// deterministic across runs. There is no winner when no votes were cast.
func ComputeResult(e *Election) *ElectionResult {
	ranked := make([]Candidate, len(e.Candidates))
	copy(ranked, e.Candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].VoteCount > ranked[j].VoteCount
	})

	result := &ElectionResult{
		ElectionID: e.ID,
		Title:      e.Title,
		TotalVotes: e.TotalVotes(),
		Ranked:     ranked,
	}
	if result.TotalVotes == 0 || len(ranked) == 0 {
		return result
	}

	winner := ranked[0]
	result.Winner = &winner
	result.RunnersUp = runnerUpPanel(ranked[1:], RunnerUpPanelSize)
	return result
}

// runnerUpPanel truncates the ranked candidates after the winner to the
// nominal panel size, keeping tied groups whole at the boundary: a group
// whose vote count continues past the final seat is included entirely when
// it began before that seat, and dropped entirely when it only begins
// there.
func runnerUpPanel(rest []Candidate, size int) []Candidate {
	if len(rest) <= size {
		return rest
	}
	cutoff := rest[size-1].VoteCount
	if rest[size].VoteCount != cutoff {
		return rest[:size]
	}
	if size >= 2 && rest[size-2].VoteCount == cutoff {
		end := size
		for end < len(rest) && rest[end].VoteCount == cutoff {
			end++
		}
		return rest[:end]
	}
	return rest[:size-1]
}
