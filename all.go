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

// Observability constants for the All collection.
const (
	// Metrics.
	AllRunsTotal      = metricz.Key("all.runs.total")
	AllFailuresTotal  = metricz.Key("all.failures.total")
	AllMembersTotal   = metricz.Key("all.members.total")
	AllSuccessfulLast = metricz.Key("all.successful.last")
	AllDurationMs     = metricz.Key("all.duration.ms")

	// Spans.
	AllRunSpan    = tracez.Key("all.run")
	AllMemberSpan = tracez.Key("all.member")

	// Tags.
	AllTagMemberCount = tracez.Tag("all.member_count")
	AllTagMemberIndex = tracez.Tag("all.member_index")
	AllTagMemberLabel = tracez.Tag("all.member_label")
	AllTagError       = tracez.Tag("all.error")

	// Hook event keys.
	AllEventMemberComplete = hookz.Key("all.member_complete")
	AllEventRunComplete    = hookz.Key("all.run_complete")
)

// AllEvent represents a fan-out processing event.
type AllEvent struct {
	Name        Name          // Collection name
	MemberIndex int           // Index in storage order, -1 for run-level events
	MemberLabel string        // Member name when it has one
	Members     int           // Total number of members
	Successful  int           // Successful results collected so far
	Err         error         // Error, when one propagated
	Duration    time.Duration // Time spent
	Timestamp   time.Time     // When the event occurred
}

// All runs every member strictly in storage order - sequentially, with no
// nesting, the same terminal next passed to each - and collects every raw
// result, Ignore included, into an ordered slice that becomes its own
// result. A slice is never the Ignore sentinel, so the group's own result
// always counts as successful, whatever its contents. An empty group
// returns an empty slice.
//
// A member error aborts the remaining members and propagates unchanged.
type All struct {
	name    Name
	members []Middleware
	mu      sync.RWMutex
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[AllEvent]
}

// NewAll creates a collect-all group with optional initial members.
// Panics when an initial member is nil, typed or untyped.
func NewAll(name Name, mws ...Middleware) *All {
	metrics := metricz.New()
	metrics.Counter(AllRunsTotal)
	metrics.Counter(AllFailuresTotal)
	metrics.Gauge(AllMembersTotal)
	metrics.Gauge(AllSuccessfulLast)
	metrics.Gauge(AllDurationMs)

	a := &All{
		name:    name,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[AllEvent](),
	}
	for _, mw := range mws {
		if _, err := a.Add(mw); err != nil {
			panic(err)
		}
	}
	return a
}

// Add validates and appends a middleware, returning it unchanged. Adding a
// nil middleware, typed or untyped, fails with ErrNotMiddleware.
func (a *All) Add(mw Middleware) (Middleware, error) {
	if isNilMiddleware(mw) {
		return nil, ErrNotMiddleware
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.members = append(a.members, mw)
	return mw, nil
}

// Run executes every member and returns the ordered slice of their raw
// results.
func (a *All) Run(ctx context.Context, ec *Context, args Args, next Next) (any, error) {
	a.mu.RLock()
	members := make([]Middleware, len(a.members))
	copy(members, a.members)
	clock := a.getClock()
	a.mu.RUnlock()

	a.metrics.Counter(AllRunsTotal).Inc()
	a.metrics.Gauge(AllMembersTotal).Set(float64(len(members)))
	start := clock.Now()

	runCtx, span := a.tracer.StartSpan(ctx, AllRunSpan)
	span.SetTag(AllTagMemberCount, strconv.Itoa(len(members)))

	results := make([]any, 0, len(members))
	successful := 0

	finish := func(err error) {
		elapsed := clock.Now().Sub(start)
		a.metrics.Gauge(AllDurationMs).Set(float64(elapsed.Milliseconds()))
		a.metrics.Gauge(AllSuccessfulLast).Set(float64(successful))
		if err != nil {
			span.SetTag(AllTagError, err.Error())
			a.metrics.Counter(AllFailuresTotal).Inc()
		}
		span.Finish()

		_ = a.hooks.Emit(ctx, AllEventRunComplete, AllEvent{ //nolint:errcheck
			Name:        a.name,
			MemberIndex: -1,
			Members:     len(members),
			Successful:  successful,
			Err:         err,
			Duration:    elapsed,
			Timestamp:   clock.Now(),
		})
	}

	for i, member := range members {
		if cerr := runCtx.Err(); cerr != nil {
			finish(cerr)
			return nil, cerr
		}

		memberCtx, memberSpan := a.tracer.StartSpan(runCtx, AllMemberSpan)
		memberSpan.SetTag(AllTagMemberIndex, strconv.Itoa(i))
		memberSpan.SetTag(AllTagMemberLabel, memberLabel(member))

		memberStart := clock.Now()
		value, merr := member.Run(memberCtx, ec, args, next)
		memberSpan.Finish()

		if merr == nil && IsSuccessful(value) {
			successful++
		}
		_ = a.hooks.Emit(ctx, AllEventMemberComplete, AllEvent{ //nolint:errcheck
			Name:        a.name,
			MemberIndex: i,
			MemberLabel: memberLabel(member),
			Members:     len(members),
			Successful:  successful,
			Err:         merr,
			Duration:    clock.Now().Sub(memberStart),
			Timestamp:   clock.Now(),
		})

		if merr != nil {
			finish(merr)
			return nil, merr
		}
		results = append(results, value)
	}

	finish(nil)
	return results, nil
}

// Handler returns nil; a group has no originating function.
func (*All) Handler() Handler {
	return nil
}

// Len returns the number of members in the group.
func (a *All) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.members)
}

// Members returns a copy of the member list in storage order.
func (a *All) Members() []Middleware {
	a.mu.RLock()
	defer a.mu.RUnlock()
	members := make([]Middleware, len(a.members))
	copy(members, a.members)
	return members
}

// Name returns the name of this group.
func (a *All) Name() Name {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// WithClock sets the clock used for timestamps and durations.
func (a *All) WithClock(clock clockz.Clock) *All {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clock = clock
	return a
}

// getClock returns the clock to use.
func (a *All) getClock() clockz.Clock {
	if a.clock == nil {
		return clockz.RealClock
	}
	return a.clock
}

// Metrics returns the metrics registry for this group.
func (a *All) Metrics() *metricz.Registry {
	return a.metrics
}

// Tracer returns the tracer for this group.
func (a *All) Tracer() *tracez.Tracer {
	return a.tracer
}

// OnMemberComplete registers a handler fired after each member runs.
func (a *All) OnMemberComplete(handler func(context.Context, AllEvent) error) error {
	_, err := a.hooks.Hook(AllEventMemberComplete, handler)
	return err
}

// OnRunComplete registers a handler fired once per group invocation.
func (a *All) OnRunComplete(handler func(context.Context, AllEvent) error) error {
	_, err := a.hooks.Hook(AllEventRunComplete, handler)
	return err
}

// Close gracefully shuts down observability components.
func (a *All) Close() error {
	if a.tracer != nil {
		a.tracer.Close()
	}
	a.hooks.Close()
	return nil
}
