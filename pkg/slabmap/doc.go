// Package slabmap provides slot-based maps that assign small integer keys on
// insertion.
//
// A [SlabMap] stores values in a slice of slots. Insert returns the index of
// the slot used as the key; Remove puts the slot on an internal free list so
// the next Insert can reuse it. Insert, Remove and Get are O(1) amortized.
//
// # Basic Usage
//
//	var m slabmap.SlabMap[string]
//	k := m.Insert("a")
//	v, ok := m.Get(k)
//	m.Remove(k)
//
//	for key, value := range m.All() {
//	    // keys are visited in increasing order
//	}
//
// # Optimize
//
// Removing many entries one by one leaves a chain of single vacant slots that
// iteration has to step over. [SlabMap.Optimize] rewrites every run of vacant
// slots as a head/tail pair so iteration skips a whole run in one step.
// Optimize never changes iteration results, only their cost. [SlabMap.Retain]
// performs the same pass while filtering.
//
// # Small maps
//
// [SmallSlabMap] keeps up to N entries in an inline array and moves them into
// a [SlabMap] the first time more room is needed. Keys handed out while
// inline stay valid after the move. The move is one-way.
//
//	var s slabmap.Small4[int]
//	k := s.Insert(10) // no allocation
//
// # Concurrency
//
// Maps are not safe for concurrent use. Multiple goroutines may read a map
// at the same time as long as none of them modifies it; any mutation needs
// exclusive access, e.g. a mutex held by the caller.
//
// # Error Handling
//
// Lookups and removals of absent keys report absence (false or nil); they
// never fail. [SlabMap.At] and [SlabMap.AtPtr] panic on absent keys with an
// error wrapping [ErrOutOfRange]. Reservations beyond addressable memory
// return [ErrCapacityOverflow] from the Try variants and panic otherwise.
package slabmap
