// Package clock abstracts timer scheduling for the jobpoll engine.
//
// The engine never calls the time package directly for scheduling; all
// ticks, debounce windows, and wall-clock guards go through a [Clock].
// Two implementations are provided:
//
//   - [System]: backed by [time.AfterFunc], used in production
//   - [Fake]: virtual time advanced explicitly by tests
//
// The Fake clock makes timing-sensitive properties (exponential backoff
// sequences, debounce collapsing, post-stop silence) deterministic without
// real sleeps. It is exported, not internal, so that consumers of jobpoll
// can unit-test their own trackers the same way.
package clock
