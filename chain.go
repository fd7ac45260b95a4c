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

// Observability constants for the Chain collection.
const (
	// Metrics.
	ChainRunsTotal      = metricz.Key("chain.runs.total")
	ChainSuccessesTotal = metricz.Key("chain.successes.total")
	ChainFailuresTotal  = metricz.Key("chain.failures.total")
	ChainMembersTotal   = metricz.Key("chain.members.total")
	ChainDurationMs     = metricz.Key("chain.duration.ms")

	// Spans.
	ChainRunSpan    = tracez.Key("chain.run")
	ChainMemberSpan = tracez.Key("chain.member")

	// Tags.
	ChainTagMemberCount = tracez.Tag("chain.member_count")
	ChainTagMemberIndex = tracez.Tag("chain.member_index")
	ChainTagMemberLabel = tracez.Tag("chain.member_label")
	ChainTagSuccess     = tracez.Tag("chain.success")
	ChainTagError       = tracez.Tag("chain.error")

	// Hook event keys.
	ChainEventMemberComplete = hookz.Key("chain.member_complete")
	ChainEventRunComplete    = hookz.Key("chain.run_complete")
)

// ChainEvent represents a chain processing event, emitted via hooks as each
// member's delegation resolves and once per completed invocation.
type ChainEvent struct {
	Name        Name          // Collection name
	MemberIndex int           // Index in storage order, -1 for run-level events
	MemberLabel string        // Member name when it has one
	Members     int           // Total number of members
	Successful  bool          // Whether the result counts as successful
	Err         error         // Error, when one propagated
	Duration    time.Duration // Time spent
	Timestamp   time.Time     // When the event occurred
}

// Chain composes middleware as nested continuations. Members are stored in
// insertion order, and the composition folds from the externally supplied
// terminal next backwards over that order: the first-added member ends up
// closest to the terminal, the most-recently-added member is the outermost
// wrapper and is entered first. Each member's own delegation decision - call
// next or not - governs whether earlier-added members ever run.
//
// An empty chain behaves as calling the terminal next directly.
//
// When the chain gains its first member it adopts that member's originating
// function reference, so a chain built from a single converted function
// still reports that function through Handler.
//
// # Observability
//
// Metrics:
//   - chain.runs.total: counter of chain invocations
//   - chain.successes.total: counter of invocations that returned no error
//   - chain.failures.total: counter of invocations that returned an error
//   - chain.members.total: gauge of member count
//   - chain.duration.ms: gauge of last invocation duration
//
// Traces:
//   - chain.run: parent span for the whole invocation
//   - chain.member: child span per member, covering its nested delegation
//
// Events (via hooks):
//   - chain.member_complete: fired as each member's delegation resolves
//   - chain.run_complete: fired once per invocation
type Chain struct {
	name    Name
	members []Middleware
	handler Handler
	mu      sync.RWMutex
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[ChainEvent]
}

// NewChain creates a chain with optional initial members. Members may also
// be added later with Add; ChainOf additionally coerces plain handler
// functions. Panics when an initial member is nil, typed or untyped.
func NewChain(name Name, mws ...Middleware) *Chain {
	metrics := metricz.New()
	metrics.Counter(ChainRunsTotal)
	metrics.Counter(ChainSuccessesTotal)
	metrics.Counter(ChainFailuresTotal)
	metrics.Gauge(ChainMembersTotal)
	metrics.Gauge(ChainDurationMs)

	c := &Chain{
		name:    name,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[ChainEvent](),
	}
	for _, mw := range mws {
		if _, err := c.Add(mw); err != nil {
			panic(err)
		}
	}
	return c
}

// Add validates and appends a middleware, returning it unchanged. Adding a
// nil middleware, typed or untyped, fails with ErrNotMiddleware. When the
// chain gains its first member, the chain adopts that member's originating
// function reference as its own.
func (c *Chain) Add(mw Middleware) (Middleware, error) {
	if isNilMiddleware(mw) {
		return nil, ErrNotMiddleware
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members = append(c.members, mw)
	if len(c.members) == 1 {
		c.handler = mw.Handler()
	}
	return mw, nil
}

// Run executes the composed chain. The stored sequence is walked from the
// end with an index-based dispatcher: each member is invoked with a
// continuation that advances toward the terminal next, which runs when the
// innermost member delegates past index zero.
//
// Cancellation of ctx observed between members stops the descent and
// propagates ctx.Err() unchanged. Member errors are likewise propagated
// unchanged; nothing in the chain catches, wraps, or retries them.
func (c *Chain) Run(ctx context.Context, ec *Context, args Args, next Next) (result any, err error) {
	c.mu.RLock()
	members := make([]Middleware, len(c.members))
	copy(members, c.members)
	clock := c.getClock()
	c.mu.RUnlock()

	c.metrics.Counter(ChainRunsTotal).Inc()
	c.metrics.Gauge(ChainMembersTotal).Set(float64(len(members)))
	start := clock.Now()

	runCtx, span := c.tracer.StartSpan(ctx, ChainRunSpan)
	span.SetTag(ChainTagMemberCount, strconv.Itoa(len(members)))
	defer func() {
		elapsed := clock.Now().Sub(start)
		c.metrics.Gauge(ChainDurationMs).Set(float64(elapsed.Milliseconds()))

		if err == nil {
			span.SetTag(ChainTagSuccess, "true")
			c.metrics.Counter(ChainSuccessesTotal).Inc()
		} else {
			span.SetTag(ChainTagSuccess, "false")
			span.SetTag(ChainTagError, err.Error())
			c.metrics.Counter(ChainFailuresTotal).Inc()
		}
		span.Finish()

		_ = c.hooks.Emit(ctx, ChainEventRunComplete, ChainEvent{ //nolint:errcheck
			Name:        c.name,
			MemberIndex: -1,
			Members:     len(members),
			Successful:  err == nil && IsSuccessful(result),
			Err:         err,
			Duration:    elapsed,
			Timestamp:   clock.Now(),
		})
	}()

	var call func(i int, ctx context.Context, ec *Context, args Args) (any, error)
	call = func(i int, ctx context.Context, ec *Context, args Args) (any, error) {
		if i < 0 {
			return next(ctx, ec, args)
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		member := members[i]
		memberCtx, memberSpan := c.tracer.StartSpan(ctx, ChainMemberSpan)
		memberSpan.SetTag(ChainTagMemberIndex, strconv.Itoa(i))
		memberSpan.SetTag(ChainTagMemberLabel, memberLabel(member))

		memberStart := clock.Now()
		value, merr := member.Run(memberCtx, ec, args, func(ctx context.Context, ec *Context, args Args) (any, error) {
			return call(i-1, ctx, ec, args)
		})
		memberSpan.Finish()

		_ = c.hooks.Emit(ctx, ChainEventMemberComplete, ChainEvent{ //nolint:errcheck
			Name:        c.name,
			MemberIndex: i,
			MemberLabel: memberLabel(member),
			Members:     len(members),
			Successful:  merr == nil && IsSuccessful(value),
			Err:         merr,
			Duration:    clock.Now().Sub(memberStart),
			Timestamp:   clock.Now(),
		})
		return value, merr
	}

	return call(len(members)-1, runCtx, ec, args)
}

// Handler returns the originating function adopted from the chain's first
// member, nil when the first member has none or the chain is empty.
func (c *Chain) Handler() Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

// Len returns the number of members in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Members returns a copy of the member list in storage order.
func (c *Chain) Members() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	members := make([]Middleware, len(c.members))
	copy(members, c.members)
	return members
}

// Name returns the name of this chain.
func (c *Chain) Name() Name {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// WithClock sets the clock used for timestamps and durations.
func (c *Chain) WithClock(clock clockz.Clock) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
	return c
}

// getClock returns the clock to use.
func (c *Chain) getClock() clockz.Clock {
	if c.clock == nil {
		return clockz.RealClock
	}
	return c.clock
}

// Metrics returns the metrics registry for this chain.
func (c *Chain) Metrics() *metricz.Registry {
	return c.metrics
}

// Tracer returns the tracer for this chain.
func (c *Chain) Tracer() *tracez.Tracer {
	return c.tracer
}

// OnMemberComplete registers a handler fired as each member's delegation
// resolves.
func (c *Chain) OnMemberComplete(handler func(context.Context, ChainEvent) error) error {
	_, err := c.hooks.Hook(ChainEventMemberComplete, handler)
	return err
}

// OnRunComplete registers a handler fired once per chain invocation.
func (c *Chain) OnRunComplete(handler func(context.Context, ChainEvent) error) error {
	_, err := c.hooks.Hook(ChainEventRunComplete, handler)
	return err
}

// Close gracefully shuts down observability components.
func (c *Chain) Close() error {
	if c.tracer != nil {
		c.tracer.Close()
	}
	c.hooks.Close()
	return nil
}
