// Package covrt provides coverage marker functions.
//
// Instrumentation puts calls of these functions into the code it covers. The covgate
// analyzer recognizes them by name, the argument must be a constant:
//
//	covrt.Counter(0)
//	if ok {
//		covrt.Counter(1)
//	}
//	covrt.Expression(2)
package covrt

// Counter marks a point where the counter id gets incremented.
//
//go:noinline
func Counter(id uint32) {}

// Expression marks a point where the value of the coverage expression id is observed.
//
//go:noinline
func Expression(id uint32) {}
