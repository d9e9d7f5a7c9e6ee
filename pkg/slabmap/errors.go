package slabmap

import "errors"

// Sentinel errors reported by slabmap.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, slabmap.ErrCapacityOverflow) {
//	    // request fewer slots
//	}
var (
	// ErrCapacityOverflow indicates a reservation would exceed the largest
	// slice the runtime can allocate for the map's slot type.
	//
	// Returned by [SlabMap.TryReserve] and [SlabMap.TryReserveExact]; the
	// non-Try variants panic with it.
	//
	// Recovery: reserve less, or insert incrementally.
	ErrCapacityOverflow = errors.New("slabmap: capacity overflow")

	// ErrOutOfRange indicates indexed access to a key that is not occupied.
	//
	// Only used as the panic value of [SlabMap.At] and friends.
	//
	// This is a programming error. Use Get to test for presence.
	ErrOutOfRange = errors.New("slabmap: key out of range")
)
