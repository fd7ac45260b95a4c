package concord

import (
	"context"
	"sync"
)

// State is a middleware that provides a state value to the rest of the
// pipeline. It is an alternative to carrying dependencies as fields on
// hand-written middleware.
//
// On every run the resolved state is written into the event context's state
// store, keyed by the state's own type, where later members retrieve it with
// GetState or StateOf. When the WithStateKey option was given, the state is
// additionally forwarded to next as a keyword argument under that name.
//
// Three resolution forms exist:
//   - NewState: a ready value, shared as-is across invocations.
//   - NewLazyState: built by a factory on the first run, then memoized and
//     shared like a ready value.
//   - NewFreshState: built by a factory on every run, giving each invocation
//     its own instance. Use this form when concurrent invocations must not
//     share the state object; shared forms are not synchronized by this
//     package.
type State struct {
	value any
	lazy  func() any
	fresh func() any
	once  sync.Once
	key   string
}

// StateOption configures a State middleware.
type StateOption func(*State)

// WithStateKey makes the middleware also pass the resolved state to next as
// a keyword argument under the given name.
func WithStateKey(key string) StateOption {
	return func(s *State) {
		s.key = key
	}
}

// NewState creates a State middleware providing a ready value. The same
// value is reused across invocations - shared, not copied.
func NewState(value any, opts ...StateOption) *State {
	s := &State{value: value}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewLazyState creates a State middleware whose value is constructed by
// factory on the first run and memoized for all later runs.
func NewLazyState(factory func() any, opts ...StateOption) *State {
	s := &State{lazy: factory}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFreshState creates a State middleware whose value is constructed anew
// by factory on every run.
func NewFreshState(factory func() any, opts ...StateOption) *State {
	s := &State{fresh: factory}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run resolves the state, stores it into the event context, optionally
// forwards it as a keyword argument, and delegates to next, returning its
// result unchanged.
func (s *State) Run(ctx context.Context, ec *Context, args Args, next Next) (any, error) {
	state := s.resolve()
	if s.key != "" {
		args = args.WithKeyword(s.key, state)
	}
	SetState(ec, state)
	return next(ctx, ec, args)
}

// Handler returns nil; a State middleware has no originating function.
func (*State) Handler() Handler {
	return nil
}

func (s *State) resolve() any {
	switch {
	case s.fresh != nil:
		return s.fresh()
	case s.lazy != nil:
		s.once.Do(func() {
			s.value = s.lazy()
		})
	}
	return s.value
}
