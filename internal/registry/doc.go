// Package registry maintains the in-memory table of active polling
// operations.
//
// This package is internal to jobpoll. It owns the dedup guarantee (at most
// one active operation per key), per-key consecutive-failure counters, tick
// timers, and pending debounce windows. The pollers in the root package are
// thin drivers over this table: they begin attempts, run probes, settle
// outcomes, and schedule the next tick, all through registry methods that
// check the operation is still the live generation.
//
// The main components are:
//
//   - [Registry]: keyed operation table with start/stop lifecycle
//   - [Operation]: one active job tracker and its scheduling configuration
//   - [Ticket]: a (key, generation, done-channel) identity for handles
//   - [Attempt]: the outcome snapshot of one settled probe
//
// Users of the jobpoll library should not interact with this package
// directly; the engine in the root package is the public surface.
package registry
