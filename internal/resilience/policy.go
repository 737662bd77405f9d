package resilience

import "errors"

// Component identifies which engine sub-component failed. The set is closed:
// the orchestrator is generic over these four capability kinds.
type Component string

const (
	ComponentAnalyst     Component = "historical_analyst"
	ComponentEvaluator   Component = "player_evaluator"
	ComponentPlanner     Component = "strategy_planner"
	ComponentSynthesizer Component = "recommendation_synthesizer"
)

// Decision is the policy's verdict on a sub-component failure.
type Decision int

const (
	// Retry re-invokes the component, with backoff for transient errors.
	Retry Decision = iota
	// FallbackToHeuristic proceeds without the failed capability: no
	// historical context for the analyst, direct heuristic output without
	// reasoning augmentation for evaluator and planner.
	FallbackToHeuristic
	// Abort terminates the run with no partial recommendation.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Retry:
		return "retry"
	case FallbackToHeuristic:
		return "fallback_to_heuristic"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Policy is the stateless degradation policy consulted by the orchestrator on
// every sub-component failure.
type Policy struct {
	// MaxTransientAttempts bounds retries of transient external-call errors
	// per component invocation. Default: 3.
	MaxTransientAttempts int
}

// NewPolicy returns the default degradation policy.
func NewPolicy() *Policy {
	return &Policy{MaxTransientAttempts: 3}
}

// OnFailure maps a component failure to a decision. attempt is 1-based: the
// number of times the component has now failed within the current round.
//
// Decision table:
//   - any synthesizer error: Abort (data inconsistency is not recoverable
//     in-process)
//   - consistency or configuration errors from anywhere: Abort
//   - retrieval backend unavailability (degraded signal, open circuit):
//     FallbackToHeuristic
//   - transient external-call errors: Retry up to MaxTransientAttempts,
//     then FallbackToHeuristic
//   - structured-output validation failures: Retry once, then
//     FallbackToHeuristic
//   - anything else: Abort
func (p *Policy) OnFailure(component Component, err error, attempt int) Decision {
	if component == ComponentSynthesizer {
		return Abort
	}
	if IsConsistency(err) || IsConfiguration(err) {
		return Abort
	}
	if errors.Is(err, ErrDegraded) || errors.Is(err, ErrCircuitOpen) {
		return FallbackToHeuristic
	}

	maxAttempts := p.MaxTransientAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	if IsTransient(err) {
		if attempt < maxAttempts {
			return Retry
		}
		return FallbackToHeuristic
	}

	if IsValidation(err) {
		if attempt < 2 {
			return Retry
		}
		return FallbackToHeuristic
	}

	return Abort
}
