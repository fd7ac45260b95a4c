package concord

// Sentinel is a non-data middleware result. A middleware returns one of
// these values when it has no actual data to provide: OK for "processed,
// nothing to report", Ignore for "I decline, try something else".
// Anything returned by a middleware that is not the Ignore sentinel -
// including nil and OK - counts as a successful result.
type Sentinel uint8

const (
	// OK signals success with no payload.
	OK Sentinel = iota + 1
	// Ignore signals that the middleware declines to produce a result.
	Ignore
)

// String returns the sentinel's name for debugging.
func (s Sentinel) String() string {
	switch s {
	case OK:
		return "ok"
	case Ignore:
		return "ignore"
	}
	return "unknown"
}

// IsSuccessful reports whether a middleware result counts as successful.
// The rule is exactly value != Ignore; no other value is special.
func IsSuccessful(value any) bool {
	return value != Ignore
}
