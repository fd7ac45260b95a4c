package concord

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Construction errors.
var (
	// ErrNilHandler is returned when adapting a nil function.
	ErrNilHandler = errors.New("handler must not be nil")
	// ErrNotMiddleware is returned when a value cannot serve as a middleware.
	ErrNotMiddleware = errors.New("not a middleware")
)

// Collection is an ordered group of middleware with a pluggable run policy.
// A collection is itself a Middleware, so collections nest freely: a Chain
// may contain a First which contains another Chain.
//
// Insertion order is semantically meaningful and each concrete kind defines
// its own reading of it:
//   - Chain: nested delegation, the last-added member is the outermost
//     wrapper and runs first.
//   - First: try members in order until one returns a successful result.
//   - All: run every member in order and collect all results.
type Collection interface {
	Middleware

	// Add validates and appends a middleware, returning it unchanged so
	// call sites can keep a reference to what they registered. Adding a
	// nil middleware - a nil interface or a typed nil implementation -
	// fails with ErrNotMiddleware.
	Add(mw Middleware) (Middleware, error)

	// Len returns the number of members.
	Len() int

	// Members returns a copy of the member list in storage order.
	Members() []Middleware
}

// coerce turns a construction item into a middleware: middleware pass
// through unchanged, handler-shaped functions are adapted, anything else is
// rejected.
func coerce(item any) (Middleware, error) {
	switch v := item.(type) {
	case Middleware:
		return v, nil
	case Handler:
		return AsMiddleware(v)
	case func(ctx context.Context, ec *Context, args Args, next Next) (any, error):
		return AsMiddleware(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotMiddleware, item)
	}
}

// isNilMiddleware reports whether mw is unusable as a member: a nil
// interface, or an interface holding a typed nil that would crash on Run.
func isNilMiddleware(mw Middleware) bool {
	if mw == nil {
		return true
	}
	v := reflect.ValueOf(mw)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// memberLabel resolves a debug label for a member: its own name when it has
// one, "unknown" otherwise.
func memberLabel(mw Middleware) string {
	if named, ok := mw.(interface{ Name() Name }); ok {
		return string(named.Name())
	}
	return "unknown"
}
