package flow

import "context"

// Handle follows one run of a flow.
type Handle struct {
	s    *session
	done <-chan struct{}
}

// ID returns the flow ID. It stays the same across retries.
func (h *Handle) ID() string {
	return h.s.snapshot().ID
}

// State returns the current snapshot.
func (h *Handle) State() State {
	return h.s.snapshot()
}

// Done is closed when the run stops, in a terminal phase.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run stops or ctx is done.
func (h *Handle) Wait(ctx context.Context) (State, error) {
	select {
	case <-h.done:
		return h.s.snapshot(), nil
	case <-ctx.Done():
		return h.s.snapshot(), ctx.Err()
	}
}

// Subscribe streams snapshots on every phase change of the running flow.
// The channel is closed when the run stops; slow readers miss intermediate
// snapshots, never the close. Call the returned func to unsubscribe early.
func (h *Handle) Subscribe() (<-chan State, func()) {
	return h.s.subscribe()
}
