package jobpoll

// outcome is the scheduler's decision after one probe settles.
//
// Each tick reduces to exactly one of these; the pollers drive their state
// machine from the returned value rather than from callback side effects,
// so the "stop vs continue" decision is a pure function of the latest
// attempt.
type outcome int

const (
	// outcomeContinue keeps the operation alive; another tick will fire.
	outcomeContinue outcome = iota

	// outcomeComplete ends the operation because the continuation
	// predicate declined; OnComplete fires. This is not an error: a probe
	// that successfully observed a terminal job state lands here.
	outcomeComplete

	// outcomeExhausted ends the operation because the attempt budget ran
	// out; OnError fires with [ErrMaxAttempts].
	outcomeExhausted
)

// decide maps one settled attempt onto the scheduler's next action.
//
// cont is the continuation predicate's verdict (always true for the
// interval strategy, which has no semantic stop). Completion is only
// reachable through a successful probe; a failed attempt can either
// continue or exhaust the budget. Budget exhaustion is checked after the
// semantic decision, so a probe that observes a terminal state on its last
// allowed attempt still completes normally.
func decide(failed bool, exhausted bool, cont bool) outcome {
	if !failed && !cont {
		return outcomeComplete
	}
	if exhausted {
		return outcomeExhausted
	}
	return outcomeContinue
}
