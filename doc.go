// Package concord provides a composable middleware engine for event
// processing pipelines.
//
// # Overview
//
// concord links independent processing units - middleware - into chains and
// groups. Each middleware can inspect or transform the shared event context,
// short-circuit the pipeline, or delegate to the rest of it through an
// explicit continuation. The surrounding event framework stays outside this
// package: it creates the event Context, supplies the terminal continuation,
// and invokes the assembled chain like any other middleware.
//
// # Core Concepts
//
// The package is built around a single, uniform interface:
//
//	type Middleware interface {
//	    Run(ctx context.Context, ec *Context, args Args, next Next) (any, error)
//	    Handler() Handler
//	}
//
// Key components:
//   - Sentinel results: Ignore marks "no result here, try something else";
//     every other value, OK and nil included, is a successful result.
//   - Func: adapts a plain Handler function into a middleware (AsMiddleware).
//   - State: injects a shared, lazily-built, or per-run value into the event
//     context and optionally into the keyword arguments.
//   - Collections: Chain (nested delegation), First (first successful result
//     wins), All (run everything, collect every result). A collection is
//     itself a middleware, so collections nest freely.
//   - Construction helpers: CollectionOf, ChainOf, FirstOf, AllOf coerce
//     plain functions and assemble collections; ChainBuilder grows one chain
//     by wrapping an inner target with successive outer middleware.
//
// # Quick Start
//
//	logCalls := func(ctx context.Context, ec *concord.Context, args concord.Args, next concord.Next) (any, error) {
//	    result, err := next(ctx, ec, args)
//	    // inspect or replace result here
//	    return result, err
//	}
//
//	chain, err := concord.ChainOf("inbound", handleCommand, logCalls)
//	if err != nil {
//	    // a construction item was not middleware-shaped
//	}
//
//	terminal := func(ctx context.Context, ec *concord.Context, args concord.Args) (any, error) {
//	    return concord.OK, nil
//	}
//	result, err := chain.Run(ctx, concord.NewContext(event), concord.Args{}, terminal)
//
// # Execution Order
//
// Chain members compose from the terminal continuation backwards over
// storage order: the member added last is the outermost wrapper and is
// entered first, the member added first sits directly above the terminal.
// ChainBuilder preserves this for decorator-style stacking - the last
// Prepend runs first.
//
// # Error Handling
//
// Construction problems (adapting a nil function, adding a nil middleware)
// fail immediately with ErrNilHandler or ErrNotMiddleware. At run time the
// package catches nothing: an error from a member or from the terminal
// continuation aborts the invocation and propagates unchanged, and context
// state written by earlier members stays in place. The Ignore sentinel is
// not an error - First uses it for control flow.
//
// # Concurrency
//
// A collection's membership is safe for concurrent access, and separate
// invocations of the same chain may run concurrently. Within one invocation
// execution is strictly sequential. Shared mutable state - a non-fresh State
// value, or the event context itself - is not synchronized by this package;
// use NewFreshState when concurrent invocations need isolation.
package concord
