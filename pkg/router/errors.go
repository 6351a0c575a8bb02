package router

import (
	"fmt"
	"strings"
	"time"
)

// Attempt is the outcome of a failed provider call
type Attempt struct {
	Provider string        `json:"provider"`
	Reason   string        `json:"reason"`
	Fatal    bool          `json:"fatal"`
	Latency  time.Duration `json:"latency"`
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s (%s)", a.Provider, a.Reason)
}

// ErrAllProvidersFailed is returned when no provider could serve the request before the deadline.
// It lists every attempt made, it is empty when no provider was available.
type ErrAllProvidersFailed struct {
	Attempts []Attempt
}

func (err ErrAllProvidersFailed) Error() string {
	if len(err.Attempts) == 0 {
		return "all providers failed: no provider available"
	}
	parts := make([]string, len(err.Attempts))
	for i, a := range err.Attempts {
		parts[i] = a.String()
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(parts, " | "))
}
