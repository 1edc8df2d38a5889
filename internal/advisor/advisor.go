// Package advisor talks to the external text-completion service. Both
// department routing and resolution prediction treat it as an unreliable,
// latency-variable plain-text oracle; fallback logic lives with the callers.
package advisor

import "context"

// Client sends a free-text prompt and returns the raw completion.
type Client interface {
	Propose(ctx context.Context, prompt string) (string, error)
}
