package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tool failure taxonomy. The agent recovers from all
// of these locally; only ErrReasonerUnavailable surfaces to the caller.
var (
	// ErrWeatherUnavailable marks a transient upstream weather failure
	// (network, auth, 5xx), as opposed to an unresolvable place name.
	ErrWeatherUnavailable = errors.New("weather service unavailable")

	// ErrReasonerUnavailable means the reasoning capability itself could not
	// be reached. Fatal for the run.
	ErrReasonerUnavailable = errors.New("reasoning capability unavailable")

	// ErrConversationNotFound is returned for lookups of unknown conversations.
	ErrConversationNotFound = errors.New("conversation not found")
)

// LocationNotFoundError is returned when geocoding cannot resolve a place
// name. It carries the name so the degradation note can cite it.
type LocationNotFoundError struct {
	Location string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("location not found: %q", e.Location)
}

// IsLocationNotFound reports whether err is a LocationNotFoundError.
func IsLocationNotFound(err error) bool {
	var lnf *LocationNotFoundError
	return errors.As(err, &lnf)
}
