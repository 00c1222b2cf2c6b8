package service

import (
	"errors"
	"fmt"
)

// Sentinel error kinds returned by offerings.
var (
	ErrValidation             = errors.New("invalid requirements")
	ErrUnknownOffering        = errors.New("unknown offering")
	ErrLeaderboardUnavailable = errors.New("could not fetch leaderboard data, try again later")
	ErrNoAgentsAnalyzed       = errors.New("could not analyze any agent")
	ErrTooManyAgents          = errors.New("too many agents")
)

// ValidationError carries the reason requirements were rejected.
type ValidationError struct {
	Offering string
	Reason   string
	Cause    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Offering, e.Reason)
}

// Unwrap exposes ErrValidation and, when set, the specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}
