package probe

import "context"

// Observation is the result of one successful probe: the candidate's own
// reported address and the ordered list of seed nodes it knows about. An
// empty seed list is a valid observation, not an error.
type Observation struct {
	SelfNode  string
	SeedNodes []string
}

// Querier issues a single seed-node query against a candidate address.
// Transport errors and malformed responses are both returned as plain errors;
// the Prober treats every error as a failed probe attempt.
type Querier interface {
	QuerySeedNodes(ctx context.Context, target string) (Observation, error)
}

// Notifier is the handle a Prober reports outcomes through. Calls are made
// from the Prober's own goroutine and must not block for long.
//
// SeedsObserved and ProbingFailed are each invoked at most once per Prober
// and are followed by self-termination. NoSeedsObserved may be invoked
// repeatedly, once per qualifying empty observation after the stable margin
// has passed; receivers should treat it as an idempotent hint.
type Notifier interface {
	NoSeedsObserved(target string)
	SeedsObserved(selfNode string, seedNodes []string)
	ProbingFailed(target string, cause error)
}
