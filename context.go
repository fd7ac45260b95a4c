package concord

import "reflect"

// Context is the mutable event-processing context threaded through a single
// chain invocation. The invoking collaborator creates it, middleware may
// mutate it or replace it for downstream members, and it never outlives the
// invocation - no cross-invocation persistence is implied.
//
// Besides the explicit event payload, a Context carries a state store: a
// type-keyed side table that State middleware write into and later members
// read with GetState or StateOf. The store is created lazily on first use.
type Context struct {
	// Event is the payload of the event being processed. The middleware
	// core treats it as opaque.
	Event any

	states map[reflect.Type]any
}

// NewContext creates a context for a single event invocation.
func NewContext(event any) *Context {
	return &Context{Event: event}
}

// States returns the context's state store, creating it on first access.
// Creation is idempotent: an existing store is never overwritten.
func (c *Context) States() map[reflect.Type]any {
	if c.states == nil {
		c.states = make(map[reflect.Type]any)
	}
	return c.states
}

// SetState stores state in the context's state store, keyed by the state's
// own dynamic type. A later write with a value of the same type replaces
// the earlier one.
func SetState(ec *Context, state any) {
	ec.States()[reflect.TypeOf(state)] = state
}

// GetState returns the stored state for the given type key, and whether a
// state of that type was ever set.
func GetState(ec *Context, stateType reflect.Type) (any, bool) {
	v, ok := ec.States()[stateType]
	return v, ok
}

// StateOf is the typed form of GetState: it looks up the state stored under
// type S and returns it, with false when no such state was set.
func StateOf[S any](ec *Context) (S, bool) {
	v, ok := GetState(ec, reflect.TypeOf((*S)(nil)).Elem())
	if !ok {
		var zero S
		return zero, false
	}
	s, ok := v.(S)
	return s, ok
}
