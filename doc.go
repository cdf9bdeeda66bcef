// Package jobpoll provides an in-memory scheduling engine for polling the
// status of long-running backend jobs.
//
// Many job APIs expose nothing but a status-check endpoint: the client must
// probe it repeatedly, avoid duplicate probes for the same job, back off on
// failures, enforce attempt budgets, and tear everything down when the
// session ends. jobpoll owns exactly that bookkeeping. It knows nothing
// about HTTP, authentication, or what a job is - a probe is just a function
// returning a result and an error.
//
// # Quick Start
//
// Create an engine and poll a job every 5 seconds until it reports a
// terminal state:
//
//	eng, _ := jobpoll.New()
//	defer eng.StopAll()
//
//	h := jobpoll.StartRecursive(eng, "look:42", checkStatus, 5*time.Second,
//	    jobpoll.RecursiveOptions[string]{
//	        ShouldContinue: func(s string) bool { return s != "success" && s != "failed" },
//	        MaxAttempts:    60,
//	        OnComplete:     func(s string) { log.Printf("job finished: %s", s) },
//	    })
//	<-h.Done()
//
// # Scheduling strategies
//
// Two disciplines are available, differing in how the next tick is timed:
//
//   - [Engine.StartPolling]: fixed-period ticks. A slow probe does not
//     delay the next tick, so probes may overlap. Suited to regular,
//     unbounded cadences (e.g. refresh training status every 30s).
//   - [StartRecursive]: the next tick is scheduled only after the previous
//     probe settles, so probes never overlap. Supports a ShouldContinue
//     predicate to end the loop on a semantic condition.
//
// [Engine.StartDebounced] additionally collapses bursts of start requests
// for one key into a single operation.
//
// Both strategies share the same failure policy: a probe error is reported
// to OnError (or logged), grows the failure streak, and doubles the delay
// before the next tick, capped at 60 seconds; a success resets both. An
// attempt budget ([IntervalOptions.MaxAttempts]) turns the operation
// terminal with [ErrMaxAttempts]. The budget counts ticks, not wall-clock
// time; callers needing hard wall-clock cutoffs layer their own timer on
// top, as the trackers in the track subpackage do.
//
// # Deduplication and lifecycle
//
// Operations are keyed by caller-chosen strings. At most one operation is
// ever active per key: starting an already-active key returns a [Handle]
// to the existing operation instead of creating a second timer. Stopping a
// key releases its timer, clears its failure counter, and guarantees no
// further probe or callback fires for it. [Engine.StopAll] - typically
// wired to session teardown via [WithContext] - releases everything.
//
// The engine keeps ticking while the host application is backgrounded;
// pausing on visibility changes is a policy choice left to callers (stop
// the keys you want paused and start them again later).
//
// # Architecture
//
// The public surface is the Engine in this package plus two subpackages:
//
//   - clock: timer abstraction with a virtual-time fake for tests
//   - track: ready-made trackers for training, avatar-generation, and
//     look-generation status flows
//
// Internal packages (internal/registry, internal/backoff) hold the keyed
// operation table and the backoff policy; they are not part of the public
// API and may change without notice.
package jobpoll
