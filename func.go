package concord

import "context"

// Func adapts a plain Handler function into a Middleware.
// Create instances with AsMiddleware.
type Func struct {
	fn Handler
}

// AsMiddleware converts a handler function into a middleware.
// It fails with ErrNilHandler when fn is nil.
//
// AsMiddleware always builds a fresh wrapper - two calls with the same
// function yield two distinct middleware instances. If you are planning to
// compose the converted function with other middleware, prefer ChainOf or
// BuildChain, which coerce plain functions for you.
func AsMiddleware(fn Handler) (*Func, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return &Func{fn: fn}, nil
}

// Run invokes the adapted function with the given parameters.
func (f *Func) Run(ctx context.Context, ec *Context, args Args, next Next) (any, error) {
	return f.fn(ctx, ec, args, next)
}

// Handler returns the adapted function.
func (f *Func) Handler() Handler {
	return f.fn
}
