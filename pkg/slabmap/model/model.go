// Package model provides a deliberately simple, in-memory model of slabmap's
// publicly observable behavior.
//
// The model is easy to audit: live keys sit in a roaring bitmap, values in a
// Go map, and the free list is a plain slice. It predicts the exact key every
// Insert returns, including the order in which vacated keys are reused, so
// the tests can compare it call-for-call with the real containers.
package model

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Entry mirrors a key/value pair yielded by the real iterators.
type Entry[T any] struct {
	Key   int
	Value T
}

// SlabMap models both slabmap.SlabMap and slabmap.SmallSlabMap.
//
// A model created by NewSmall starts in inline mode: inserts take the lowest
// free cell below the inline size, and the first insert or reservation that
// does not fit switches it to slab mode for good.
type SlabMap[T any] struct {
	live   *roaring.Bitmap
	values map[int]T

	// free is the order in which Insert hands out vacated keys. Remove pushes
	// to the front; Optimize and Retain rebuild it in ascending order.
	free []int

	// slots is the number of slots the real map holds, occupied or not.
	slots int

	// pending counts removals that Optimize has not folded in yet.
	pending int

	inline   int
	promoted bool
}

// New returns an empty model of a slab map.
func New[T any]() *SlabMap[T] {
	return &SlabMap[T]{
		live:     roaring.New(),
		values:   make(map[int]T),
		promoted: true,
	}
}

// NewSmall returns an empty model of a small map with inline cells.
func NewSmall[T any](inline int) *SlabMap[T] {
	m := New[T]()
	m.inline = inline
	m.promoted = inline == 0

	return m
}

// Clone makes a deep copy so metamorphic tests can fork the same state.
func (m *SlabMap[T]) Clone() *SlabMap[T] {
	c := *m
	c.live = m.live.Clone()
	c.values = make(map[int]T, len(m.values))

	for key, value := range m.values {
		c.values[key] = value
	}

	c.free = slices.Clone(m.free)

	return &c
}

// Promoted reports whether the model is in slab mode.
func (m *SlabMap[T]) Promoted() bool {
	return m.promoted
}

// Len returns the number of live entries.
func (m *SlabMap[T]) Len() int {
	return int(m.live.GetCardinality())
}

// Get returns the value at key.
func (m *SlabMap[T]) Get(key int) (T, bool) {
	if !m.contains(key) {
		var zero T

		return zero, false
	}

	return m.values[key], true
}

// Set replaces the value at key and returns the old one. Absent keys are
// left alone.
func (m *SlabMap[T]) Set(key int, value T) (T, bool) {
	old, ok := m.Get(key)
	if ok {
		m.values[key] = value
	}

	return old, ok
}

// Entries returns all live entries in key order.
func (m *SlabMap[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, m.Len())

	it := m.live.Iterator()
	for it.HasNext() {
		key := int(it.Next())
		out = append(out, Entry[T]{Key: key, Value: m.values[key]})
	}

	return out
}

// Keys returns the live keys in ascending order.
func (m *SlabMap[T]) Keys() []int {
	raw := m.live.ToArray()
	out := make([]int, len(raw))

	for i, key := range raw {
		out[i] = int(key)
	}

	return out
}

// NextKey returns the key the next Insert will return.
func (m *SlabMap[T]) NextKey() int {
	if !m.promoted {
		if m.Len() < m.inline {
			return m.lowestFreeCell()
		}

		c := m.Clone()
		c.promote()

		return c.NextKey()
	}

	if len(m.free) > 0 {
		return m.free[0]
	}

	return m.slots
}

// Insert stores value and returns the key the real map is expected to use.
func (m *SlabMap[T]) Insert(value T) int {
	if !m.promoted && m.Len() == m.inline {
		m.promote()
	}

	var key int

	switch {
	case !m.promoted:
		key = m.lowestFreeCell()
	case len(m.free) > 0:
		key = m.free[0]
		m.free = m.free[1:]
		m.pending = max(m.pending-1, 0)
	default:
		key = m.slots
		m.slots++
	}

	m.live.Add(uint32(key))
	m.values[key] = value

	return key
}

// Remove deletes the entry at key.
func (m *SlabMap[T]) Remove(key int) (T, bool) {
	var zero T

	if !m.contains(key) {
		return zero, false
	}

	value := m.values[key]
	m.live.Remove(uint32(key))
	delete(m.values, key)

	if !m.promoted {
		return value, true
	}

	if key == m.slots-1 {
		m.slots--
	} else {
		m.free = append([]int{key}, m.free...)
		m.pending++
	}

	if m.Len() == 0 {
		m.Clear()
	}

	return value, true
}

// Clear removes all entries. Slab mode is kept.
func (m *SlabMap[T]) Clear() {
	m.live.Clear()
	clear(m.values)
	m.free = nil
	m.slots = 0
	m.pending = 0
}

// Drain removes and returns every entry in key order.
func (m *SlabMap[T]) Drain() []Entry[T] {
	out := m.Entries()
	m.Clear()

	return out
}

// Retain keeps the entries for which keep returns true. keep may replace the
// value through the pointer.
func (m *SlabMap[T]) Retain(keep func(key int, value *T) bool) {
	for _, key := range m.Keys() {
		value := m.values[key]
		if keep(key, &value) {
			m.values[key] = value

			continue
		}

		m.live.Remove(uint32(key))
		delete(m.values, key)
	}

	if m.promoted {
		m.rebuild()
	}
}

// Optimize folds pending removals into ascending runs.
func (m *SlabMap[T]) Optimize() {
	if m.promoted && m.pending != 0 {
		m.rebuild()
	}
}

// Reserve switches an inline model to slab mode when additional more entries
// would not fit inline.
func (m *SlabMap[T]) Reserve(additional int) {
	if !m.promoted && additional > m.inline-m.Len() {
		m.promote()
	}
}

func (m *SlabMap[T]) contains(key int) bool {
	return key >= 0 && uint64(key) <= uint64(^uint32(0)) && m.live.Contains(uint32(key))
}

func (m *SlabMap[T]) lowestFreeCell() int {
	for key := range m.inline {
		if !m.live.Contains(uint32(key)) {
			return key
		}
	}

	return m.inline
}

func (m *SlabMap[T]) promote() {
	m.promoted = true
	m.rebuild()
}

func (m *SlabMap[T]) rebuild() {
	m.free = m.free[:0]
	m.slots = 0
	m.pending = 0

	if m.live.IsEmpty() {
		return
	}

	m.slots = int(m.live.Maximum()) + 1

	for key := range m.slots {
		if !m.live.Contains(uint32(key)) {
			m.free = append(m.free, key)
		}
	}
}
