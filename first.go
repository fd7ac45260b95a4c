package concord

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the First collection.
const (
	// Metrics.
	FirstRunsTotal      = metricz.Key("first.runs.total")
	FirstMatchesTotal   = metricz.Key("first.matches.total")
	FirstExhaustedTotal = metricz.Key("first.exhausted.total")
	FirstFailuresTotal  = metricz.Key("first.failures.total")
	FirstMembersTotal   = metricz.Key("first.members.total")
	FirstDurationMs     = metricz.Key("first.duration.ms")

	// Spans.
	FirstRunSpan    = tracez.Key("first.run")
	FirstMemberSpan = tracez.Key("first.member")

	// Tags.
	FirstTagMemberCount = tracez.Tag("first.member_count")
	FirstTagMemberIndex = tracez.Tag("first.member_index")
	FirstTagMemberLabel = tracez.Tag("first.member_label")
	FirstTagMatched     = tracez.Tag("first.matched")
	FirstTagError       = tracez.Tag("first.error")

	// Hook event keys.
	FirstEventMemberComplete = hookz.Key("first.member_complete")
	FirstEventRunComplete    = hookz.Key("first.run_complete")
)

// FirstEvent represents a first-success processing event.
type FirstEvent struct {
	Name        Name          // Collection name
	MemberIndex int           // Index in storage order, -1 for run-level events
	MemberLabel string        // Member name when it has one
	Members     int           // Total number of members
	Matched     bool          // Whether a successful result was produced
	Err         error         // Error, when one propagated
	Duration    time.Duration // Time spent
	Timestamp   time.Time     // When the event occurred
}

// First runs members strictly in storage order until one returns a
// successful result, which it returns immediately; members added later are
// never consulted. Unlike Chain there is no nesting: every member receives
// the original terminal next, context, and arguments.
//
// When every member declines - and when the group is empty - First returns
// the Ignore sentinel. That value is indistinguishable from an Ignore a
// member returned deliberately; the conflation is part of the contract.
//
// A member error aborts the scan and propagates unchanged.
type First struct {
	name    Name
	members []Middleware
	mu      sync.RWMutex
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[FirstEvent]
}

// NewFirst creates a first-success group with optional initial members.
// Panics when an initial member is nil, typed or untyped.
func NewFirst(name Name, mws ...Middleware) *First {
	metrics := metricz.New()
	metrics.Counter(FirstRunsTotal)
	metrics.Counter(FirstMatchesTotal)
	metrics.Counter(FirstExhaustedTotal)
	metrics.Counter(FirstFailuresTotal)
	metrics.Gauge(FirstMembersTotal)
	metrics.Gauge(FirstDurationMs)

	f := &First{
		name:    name,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[FirstEvent](),
	}
	for _, mw := range mws {
		if _, err := f.Add(mw); err != nil {
			panic(err)
		}
	}
	return f
}

// Add validates and appends a middleware, returning it unchanged. Adding a
// nil middleware, typed or untyped, fails with ErrNotMiddleware.
func (f *First) Add(mw Middleware) (Middleware, error) {
	if isNilMiddleware(mw) {
		return nil, ErrNotMiddleware
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members = append(f.members, mw)
	return mw, nil
}

// Run tries each member in order and returns the first successful result,
// or Ignore when every member declines.
func (f *First) Run(ctx context.Context, ec *Context, args Args, next Next) (result any, err error) {
	f.mu.RLock()
	members := make([]Middleware, len(f.members))
	copy(members, f.members)
	clock := f.getClock()
	f.mu.RUnlock()

	f.metrics.Counter(FirstRunsTotal).Inc()
	f.metrics.Gauge(FirstMembersTotal).Set(float64(len(members)))
	start := clock.Now()

	runCtx, span := f.tracer.StartSpan(ctx, FirstRunSpan)
	span.SetTag(FirstTagMemberCount, strconv.Itoa(len(members)))
	defer func() {
		elapsed := clock.Now().Sub(start)
		f.metrics.Gauge(FirstDurationMs).Set(float64(elapsed.Milliseconds()))

		matched := err == nil && IsSuccessful(result)
		span.SetTag(FirstTagMatched, strconv.FormatBool(matched))
		if err != nil {
			span.SetTag(FirstTagError, err.Error())
			f.metrics.Counter(FirstFailuresTotal).Inc()
		} else if matched {
			f.metrics.Counter(FirstMatchesTotal).Inc()
		} else {
			f.metrics.Counter(FirstExhaustedTotal).Inc()
		}
		span.Finish()

		_ = f.hooks.Emit(ctx, FirstEventRunComplete, FirstEvent{ //nolint:errcheck
			Name:        f.name,
			MemberIndex: -1,
			Members:     len(members),
			Matched:     matched,
			Err:         err,
			Duration:    elapsed,
			Timestamp:   clock.Now(),
		})
	}()

	for i, member := range members {
		if cerr := runCtx.Err(); cerr != nil {
			return nil, cerr
		}

		memberCtx, memberSpan := f.tracer.StartSpan(runCtx, FirstMemberSpan)
		memberSpan.SetTag(FirstTagMemberIndex, strconv.Itoa(i))
		memberSpan.SetTag(FirstTagMemberLabel, memberLabel(member))

		memberStart := clock.Now()
		value, merr := member.Run(memberCtx, ec, args, next)
		memberSpan.Finish()

		matched := merr == nil && IsSuccessful(value)
		_ = f.hooks.Emit(ctx, FirstEventMemberComplete, FirstEvent{ //nolint:errcheck
			Name:        f.name,
			MemberIndex: i,
			MemberLabel: memberLabel(member),
			Members:     len(members),
			Matched:     matched,
			Err:         merr,
			Duration:    clock.Now().Sub(memberStart),
			Timestamp:   clock.Now(),
		})

		if merr != nil {
			return nil, merr
		}
		if matched {
			return value, nil
		}
	}

	return Ignore, nil
}

// Handler returns nil; a group has no originating function.
func (*First) Handler() Handler {
	return nil
}

// Len returns the number of members in the group.
func (f *First) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.members)
}

// Members returns a copy of the member list in storage order.
func (f *First) Members() []Middleware {
	f.mu.RLock()
	defer f.mu.RUnlock()
	members := make([]Middleware, len(f.members))
	copy(members, f.members)
	return members
}

// Name returns the name of this group.
func (f *First) Name() Name {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// WithClock sets the clock used for timestamps and durations.
func (f *First) WithClock(clock clockz.Clock) *First {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = clock
	return f
}

// getClock returns the clock to use.
func (f *First) getClock() clockz.Clock {
	if f.clock == nil {
		return clockz.RealClock
	}
	return f.clock
}

// Metrics returns the metrics registry for this group.
func (f *First) Metrics() *metricz.Registry {
	return f.metrics
}

// Tracer returns the tracer for this group.
func (f *First) Tracer() *tracez.Tracer {
	return f.tracer
}

// OnMemberComplete registers a handler fired after each tried member.
func (f *First) OnMemberComplete(handler func(context.Context, FirstEvent) error) error {
	_, err := f.hooks.Hook(FirstEventMemberComplete, handler)
	return err
}

// OnRunComplete registers a handler fired once per group invocation.
func (f *First) OnRunComplete(handler func(context.Context, FirstEvent) error) error {
	_, err := f.hooks.Hook(FirstEventRunComplete, handler)
	return err
}

// Close gracefully shuts down observability components.
func (f *First) Close() error {
	if f.tracer != nil {
		f.tracer.Close()
	}
	f.hooks.Close()
	return nil
}
