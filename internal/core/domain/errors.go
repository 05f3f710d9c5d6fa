package domain

import "errors"

var (
	ErrElectionNotFound      = errors.New("election not found")
	ErrElectionNotActive     = errors.New("election is not active")
	ErrElectionExpired       = errors.New("election has ended")
	ErrElectionAlreadyEnded  = errors.New("election has already been ended")
	ErrInvalidCandidateCount = errors.New("an election needs between 2 and 10 candidates")
	ErrInvalidDuration       = errors.New("election duration must be positive")
	ErrUnknownCandidate      = errors.New("invalid candidate for this election")
	ErrAccountTooNew         = errors.New("account must be at least 6 months old")
	ErrDuplicateVote         = errors.New("user has already voted in this election")
	ErrForbidden             = errors.New("user is not allowed to end this election")
	ErrPersistence           = errors.New("failed to persist election data")
)
