package tsdb

// Codec converts a device's domain value type to and from the opaque
// string cells a shard line stores. The driver never inspects a cell's
// contents; it only joins/splits on whitespace, so Format must never
// produce a cell containing whitespace or a newline.
//
// This is the Go rendering of the source's injected format_fnc/parse_fnc
// pair, expressed as a generic interface parameterised by the value type
// rather than two freestanding function values, so a Driver[V] and its
// Codec[V] are checked together at compile time.
type Codec[V any] interface {
	// Format renders one measurement's values as cell tokens.
	Format(values V) []string

	// Parse reconstructs a measurement's values from cell tokens read off
	// a shard line. It is free to fail on malformed input; the resulting
	// error is wrapped in a *ParseError by the caller.
	Parse(cells []string) (V, error)
}
