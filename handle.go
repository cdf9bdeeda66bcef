package jobpoll

// Handle is a typed cancellation handle for a polling operation.
//
// Every start call returns a Handle. When a start call dedups against an
// already-active key, the returned Handle refers to the existing operation,
// so cancelling either handle stops polling for that key. A Handle carries
// the generation it was issued for: once its operation has ended, the
// handle is inert and cannot cancel a newer operation started later under
// the same key.
//
// The zero Handle is valid and inert.
type Handle struct {
	e    *Engine
	key  string
	id   string
	done <-chan struct{}
}

// Key returns the operation key this handle refers to.
func (h Handle) Key() string {
	return h.key
}

// Cancel stops the operation this handle refers to. Cancelling an already
// finished operation is a no-op.
//
// Cancellation is immediate from the engine's point of view (the pending
// timer is released synchronously), but it cannot abort a probe already in
// flight; that probe's result is discarded and no callback fires for it.
func (h Handle) Cancel() {
	if h.e == nil {
		return
	}
	if h.id == "" {
		// a debounced start that has not yet begun; clears the
		// pending window (and the operation, if it already fired)
		h.e.StopPolling(h.key)
		return
	}
	if h.e.reg.StopMatching(h.key, h.id) {
		h.e.logger.Debug("polling cancelled", "key", h.key)
	}
}

// Done returns a channel closed when the operation ends, whether by
// cancellation, attempt exhaustion, or semantic completion.
//
// For a handle returned by [Engine.StartDebounced] before the debounce
// window fires, Done returns nil; such an operation has not started yet.
func (h Handle) Done() <-chan struct{} {
	return h.done
}

// Active reports whether the operation this handle refers to is still
// registered and polling.
func (h Handle) Active() bool {
	if h.e == nil {
		return false
	}
	t, ok := h.e.reg.Lookup(h.key)
	if !ok {
		return false
	}
	return h.id == "" || t.ID == h.id
}
