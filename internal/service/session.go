package service

import (
	"context"
	"errors"
	"sync"
)

type sessionKey struct{}

// errSuperseded is the cancellation cause given to a call replaced by a newer one.
var errSuperseded = errors.New("superseded by a newer request")

// WithSession tags ctx with a client session id. Calls of the same operation
// under the same session supersede each other. An empty id disables tracking.
func WithSession(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id carried by ctx, or "".
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// sessions tracks the newest in-flight call per session and operation.
type sessions struct {
	mu     sync.Mutex
	active map[string]*inflight
}

type inflight struct {
	cancel context.CancelCauseFunc
}

func newSessions() *sessions {
	return &sessions{active: make(map[string]*inflight)}
}

// begin registers a call under key, cancelling any earlier call with the same
// key. The returned finish func must be called once the call completes; it
// reports whether the call was superseded while it ran.
func (s *sessions) begin(ctx context.Context, key string) (context.Context, func() bool) {
	if key == "" {
		return ctx, func() bool { return false }
	}

	ctx, cancel := context.WithCancelCause(ctx)
	call := &inflight{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.active[key]; ok {
		prev.cancel(errSuperseded)
	}
	s.active[key] = call
	s.mu.Unlock()

	return ctx, func() bool {
		s.mu.Lock()
		current := s.active[key] == call
		if current {
			delete(s.active, key)
		}
		s.mu.Unlock()

		cancel(nil)
		return !current
	}
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
