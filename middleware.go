package concord

import "context"

// Name is a type alias for middleware and collection names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    InboundChainName  Name = "inbound-chain"
//	    AuthStateName     Name = "auth-state"
//	)
type Name = string

// Args is the fixed call shape threaded through a chain invocation.
// Positional holds the event's unnamed arguments in order, Keyword holds
// its named arguments. The event context is NOT part of Args - it travels
// as its own typed parameter on Run and Next, so it can never be mistaken
// for a positional argument.
//
// Args is passed by value. Middleware that augment the keyword set for a
// downstream call must use WithKeyword, which copies the map; mutating
// a.Keyword in place would leak the change to sibling members that were
// given the same Args.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// WithKeyword returns a copy of the arguments with the keyword key set to
// value. The keyword map is cloned, so the receiver and anything sharing
// its map are left untouched.
func (a Args) WithKeyword(key string, value any) Args {
	kw := make(map[string]any, len(a.Keyword)+1)
	for k, v := range a.Keyword {
		kw[k] = v
	}
	kw[key] = value
	a.Keyword = kw
	return a
}

// KeywordOr returns the keyword argument for key, or def when the key is
// absent.
func (a Args) KeywordOr(key string, def any) any {
	if v, ok := a.Keyword[key]; ok {
		return v
	}
	return def
}

// Next is the continuation handed to a middleware: the rest of the pipeline.
// A middleware delegates by calling it with the (possibly replaced) event
// context and (possibly augmented) arguments, or short-circuits by not
// calling it at all.
type Next func(ctx context.Context, ec *Context, args Args) (any, error)

// Handler is the plain-function shape of a middleware. It has the exact
// signature of Middleware.Run and is what AsMiddleware adapts. A chain whose
// first member was built from a Handler reports that function through its
// own Handler method.
type Handler func(ctx context.Context, ec *Context, args Args, next Next) (any, error)

// Middleware is the unit of event processing. Middleware are useful for
// filtering events or extending functionality, and compose freely: every
// collection in this package is itself a Middleware.
//
// Run may:
//   - return a value (or OK) to signal success without delegating,
//   - return Ignore to decline, letting a surrounding First try another member,
//   - call next and return its result unchanged (plain delegation), or
//   - call next and transform its result before returning.
//
// The event context may be mutated in place or replaced wholesale by passing
// a different *Context to next; a replacement changes what all downstream
// members observe for the remainder of this invocation only.
//
// Errors returned by a member or by next are not caught anywhere in this
// package - they propagate unchanged to the invocation's caller, and state
// already written into the event context stays in place. The chain is a
// composition mechanism, not a fault-tolerance layer.
//
// Handler returns the originating plain function when the middleware was
// adapted from one, nil otherwise. User-defined middleware may simply
// return nil.
type Middleware interface {
	Run(ctx context.Context, ec *Context, args Args, next Next) (any, error)
	Handler() Handler
}
