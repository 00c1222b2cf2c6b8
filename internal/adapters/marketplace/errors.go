package marketplace

import (
	"errors"
	"fmt"
)

// Sentinel kinds for marketplace errors.
var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrMetricsUnavailable = errors.New("agent metrics unavailable")
	ErrUpstream           = errors.New("upstream request failed")
)

// AcceptedFormats lists the reference forms the resolver understands.
const AcceptedFormats = "numeric agent ID (e.g. 3212), exact agent name, " +
	"profile URL (https://agdp.io/agent/3212) or a 0x wallet address"

// ResolutionError reports an agent reference that could not be mapped to an ID.
type ResolutionError struct {
	Reference string
}

func (e *ResolutionError) Error() string {
	if e.Reference == "" {
		return fmt.Sprintf("no agent reference supplied; provide a %s", AcceptedFormats)
	}
	return fmt.Sprintf("could not resolve agent %q; provide a %s", e.Reference, AcceptedFormats)
}

func (e *ResolutionError) Unwrap() error { return ErrAgentNotFound }

// FetchExhaustedError reports that every metrics strategy came back empty.
type FetchExhaustedError struct {
	AgentID    string
	ProfileURL string
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("could not fetch metrics for agent %s from any source; verify the agent manually at %s",
		e.AgentID, e.ProfileURL)
}

func (e *FetchExhaustedError) Unwrap() error { return ErrMetricsUnavailable }
