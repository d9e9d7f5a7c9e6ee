package slabmap

import (
	"fmt"
	"iter"
	"math"
	"strings"
	"unsafe"
)

// invalidIndex terminates the free list. No slice can be this long.
const invalidIndex = math.MaxInt

// maxAllocBytes is the largest backing array the runtime hands out on 64-bit
// targets; on 32-bit targets MaxInt is the tighter bound.
const maxAllocBytes = min(math.MaxInt, 1<<47)

type entryKind uint8

const (
	_ entryKind = iota
	kindOccupied
	kindVacantHead
	kindVacantTail
)

// entry is a single slot.
//
// The meaning of link depends on kind:
//   - kindVacantHead: number of slots between the head and the tail of a
//     compacted vacant run (the run spans link+2 slots)
//   - kindVacantTail: index of the next vacant slot, or invalidIndex
//
// Slots strictly between a head and its tail hold no defined content and are
// never read; every walk jumps over them using the head's link.
type entry[T any] struct {
	value T
	link  int
	kind  entryKind
}

func occupied[T any](value T) entry[T] {
	return entry[T]{kind: kindOccupied, value: value}
}

func vacantHead[T any](bodyLen int) entry[T] {
	return entry[T]{kind: kindVacantHead, link: bodyLen}
}

func vacantTail[T any](next int) entry[T] {
	return entry[T]{kind: kindVacantTail, link: next}
}

// nextOccupied returns the first occupied index >= idx, or len(entries).
func nextOccupied[T any](entries []entry[T], idx int) int {
	for idx < len(entries) {
		e := &entries[idx]

		switch e.kind {
		case kindOccupied:
			return idx
		case kindVacantHead:
			idx += e.link + 2
		default:
			idx++
		}
	}

	return len(entries)
}

// maxEntries is the longest []entry[T] the runtime can allocate.
func maxEntries[T any]() int {
	return maxAllocBytes / int(unsafe.Sizeof(entry[T]{}))
}

func saturatingSub(a, b int) int {
	if a <= b {
		return 0
	}

	return a - b
}

func outOfRange(key int) error {
	return fmt.Errorf("%w: %d", ErrOutOfRange, key)
}

// formatPairs renders pairs as {k: v, k: v}.
func formatPairs[T any](pairs iter.Seq2[int, T]) string {
	var b strings.Builder

	b.WriteByte('{')

	first := true
	for key, value := range pairs {
		if !first {
			b.WriteString(", ")
		}

		first = false

		fmt.Fprintf(&b, "%d: %v", key, value)
	}

	b.WriteByte('}')

	return b.String()
}
