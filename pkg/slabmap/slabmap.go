package slabmap

import (
	"iter"
	"slices"
)

// SlabMap is a map whose keys are assigned by the map itself.
//
// Keys are slot indexes. A removed slot goes onto a free list and is handed
// out again by a later Insert. Removing the highest slot shrinks the map
// instead.
//
// The zero value is an empty map ready to use.
type SlabMap[T any] struct {
	entries []entry[T]

	// nextVacant is the head of the free list, or invalidIndex.
	nextVacant int

	// len is the number of occupied slots.
	len int

	// nonOptimized counts removals not yet folded into vacant runs.
	// Zero means the map is optimized.
	nonOptimized int
}

// New returns an empty map.
func New[T any]() *SlabMap[T] {
	return &SlabMap[T]{nextVacant: invalidIndex}
}

// WithCapacity returns an empty map with room for capacity entries.
func WithCapacity[T any](capacity int) *SlabMap[T] {
	return &SlabMap[T]{
		entries:    make([]entry[T], 0, max(capacity, 0)),
		nextVacant: invalidIndex,
	}
}

// FromPairs builds a map holding the given key/value pairs.
//
// Pairs are applied in order, so a later pair replaces an earlier one with
// the same key. Keys that are never mentioned become vacant slots. FromPairs
// panics if a key is negative.
func FromPairs[T any](pairs iter.Seq2[int, T]) *SlabMap[T] {
	return FromPairsWithCapacity(pairs, 0)
}

// FromPairsWithCapacity is like [FromPairs] but preallocates capacity slots.
func FromPairsWithCapacity[T any](pairs iter.Seq2[int, T], capacity int) *SlabMap[T] {
	m := WithCapacity[T](capacity)

	for key, value := range pairs {
		m.set(key, value)
	}

	m.rebuildVacants(nil)

	return m
}

// set stores value at key, padding with unlinked vacant slots. The free list
// and len are stale until rebuildVacants runs.
func (m *SlabMap[T]) set(key int, value T) {
	if key < 0 {
		panic(outOfRange(key))
	}

	for len(m.entries) <= key {
		m.entries = append(m.entries, vacantTail[T](invalidIndex))
	}

	m.entries[key] = occupied(value)
}

// Capacity returns the number of slots the map can hold without allocating.
func (m *SlabMap[T]) Capacity() int {
	return cap(m.entries)
}

// Reserve makes room for at least additional more entries.
//
// Vacant slots count towards the request, so inserting and removing within a
// previously reached size never allocates. Reserve panics with
// [ErrCapacityOverflow] when the request cannot be represented.
func (m *SlabMap[T]) Reserve(additional int) {
	err := m.TryReserve(additional)
	if err != nil {
		panic(err)
	}
}

// TryReserve is like [SlabMap.Reserve] but returns [ErrCapacityOverflow]
// instead of panicking.
func (m *SlabMap[T]) TryReserve(additional int) error {
	extra, err := m.growth(additional)
	if err != nil || extra == 0 {
		return err
	}

	m.entries = slices.Grow(m.entries, extra)

	return nil
}

// ReserveExact makes room for exactly additional more entries beyond the
// vacant slots, without amortized over-allocation.
func (m *SlabMap[T]) ReserveExact(additional int) {
	err := m.TryReserveExact(additional)
	if err != nil {
		panic(err)
	}
}

// TryReserveExact is like [SlabMap.ReserveExact] but returns
// [ErrCapacityOverflow] instead of panicking.
func (m *SlabMap[T]) TryReserveExact(additional int) error {
	extra, err := m.growth(additional)
	if err != nil || extra == 0 {
		return err
	}

	grown := make([]entry[T], len(m.entries), len(m.entries)+extra)
	copy(grown, m.entries)
	m.entries = grown

	return nil
}

// growth converts a request for additional entries into the number of slots
// the backing slice must grow by (zero if it already has room).
func (m *SlabMap[T]) growth(additional int) (int, error) {
	needed := saturatingSub(additional, len(m.entries)-m.len)
	if needed > maxEntries[T]()-len(m.entries) {
		return 0, ErrCapacityOverflow
	}

	if cap(m.entries)-len(m.entries) >= needed {
		return 0, nil
	}

	return needed, nil
}

// Len returns the number of entries.
func (m *SlabMap[T]) Len() int {
	return m.len
}

// IsEmpty reports whether the map has no entries.
func (m *SlabMap[T]) IsEmpty() bool {
	return m.len == 0
}

// Get returns the value stored at key.
func (m *SlabMap[T]) Get(key int) (T, bool) {
	if key < 0 || key >= len(m.entries) || m.entries[key].kind != kindOccupied {
		var zero T

		return zero, false
	}

	return m.entries[key].value, true
}

// GetPtr returns a pointer to the value stored at key, or nil.
//
// The pointer is valid until the next call that modifies the map.
func (m *SlabMap[T]) GetPtr(key int) *T {
	if key < 0 || key >= len(m.entries) || m.entries[key].kind != kindOccupied {
		return nil
	}

	return &m.entries[key].value
}

// At returns the value stored at key. It panics if key is not occupied.
func (m *SlabMap[T]) At(key int) T {
	value, ok := m.Get(key)
	if !ok {
		panic(outOfRange(key))
	}

	return value
}

// AtPtr is like [SlabMap.GetPtr] but panics if key is not occupied.
func (m *SlabMap[T]) AtPtr(key int) *T {
	ptr := m.GetPtr(key)
	if ptr == nil {
		panic(outOfRange(key))
	}

	return ptr
}

// Contains reports whether key is occupied.
func (m *SlabMap[T]) Contains(key int) bool {
	_, ok := m.Get(key)

	return ok
}

// Insert stores value and returns its key.
func (m *SlabMap[T]) Insert(value T) int {
	key := m.vacantKey()
	m.occupy(key, value)

	return key
}

// InsertWithKey calls f with the key the new entry will get and stores the
// result under that key. This lets a value hold its own key.
func (m *SlabMap[T]) InsertWithKey(f func(key int) T) int {
	key := m.vacantKey()
	m.occupy(key, f(key))

	return key
}

// vacantKey returns the key the next insert will use.
func (m *SlabMap[T]) vacantKey() int {
	if len(m.entries) == 0 {
		// Covers the zero value, whose nextVacant is 0.
		m.nextVacant = invalidIndex

		return 0
	}

	if m.nextVacant < len(m.entries) {
		return m.nextVacant
	}

	return len(m.entries)
}

// occupy stores value at key, which must come from vacantKey.
func (m *SlabMap[T]) occupy(key int, value T) {
	m.len++

	if key == len(m.entries) {
		m.entries = append(m.entries, occupied(value))

		return
	}

	e := m.entries[key]

	switch e.kind {
	case kindVacantHead:
		if e.link > 0 {
			m.entries[key+1] = vacantHead[T](e.link - 1)
		}

		m.nextVacant = key + 1
	case kindVacantTail:
		m.nextVacant = e.link
	default:
		panic("slabmap: free list points at an occupied slot")
	}

	m.entries[key] = occupied(value)
	m.nonOptimized = saturatingSub(m.nonOptimized, 1)
}

// Remove removes the entry at key and returns its value.
func (m *SlabMap[T]) Remove(key int) (T, bool) {
	var zero T

	if key < 0 || key >= len(m.entries) || m.entries[key].kind != kindOccupied {
		return zero, false
	}

	value := m.entries[key].value
	m.len--

	if key == len(m.entries)-1 {
		m.entries[key] = entry[T]{}
		m.entries = m.entries[:key]
	} else {
		m.entries[key] = vacantTail[T](m.nextVacant)
		m.nextVacant = key
		m.nonOptimized++
	}

	if m.len == 0 {
		m.Clear()
	}

	return value, true
}

// Clear removes all entries. The capacity is kept.
func (m *SlabMap[T]) Clear() {
	clear(m.entries)
	m.entries = m.entries[:0]
	m.len = 0
	m.nextVacant = invalidIndex
	m.nonOptimized = 0
}

// Retain keeps only the entries for which keep returns true.
//
// keep may modify the value through the pointer. Retain also optimizes the
// map; see [SlabMap.Optimize].
func (m *SlabMap[T]) Retain(keep func(key int, value *T) bool) {
	m.rebuildVacants(keep)
}

// Optimize merges the vacant slots left behind by Remove into runs so that
// iteration skips each run in one step.
//
// Optimize does nothing if no entry was removed since the last call. It never
// changes the entries, their keys or their order.
func (m *SlabMap[T]) Optimize() {
	if m.nonOptimized != 0 {
		m.rebuildVacants(nil)
	}
}

// rebuildVacants walks the slots once, vacates entries rejected by keep
// (nil keeps everything), rewrites every maximal vacant run as a head/tail
// pair linked in ascending order, and truncates the trailing run.
func (m *SlabMap[T]) rebuildVacants(keep func(key int, value *T) bool) {
	idx := 0
	runStart := 0
	prevTail := -1
	live := 0

	m.nextVacant = invalidIndex

	for idx < len(m.entries) {
		e := &m.entries[idx]

		switch e.kind {
		case kindOccupied:
			if keep == nil || keep(idx, &e.value) {
				m.linkVacantRun(runStart, idx, &prevTail)
				idx++
				live++
				runStart = idx
			} else {
				*e = vacantTail[T](invalidIndex)
				idx++
			}
		case kindVacantHead:
			idx += e.link + 2
		default:
			idx++
		}
	}

	clear(m.entries[runStart:])
	m.entries = m.entries[:runStart]
	m.len = live
	m.nonOptimized = 0
}

// linkVacantRun marks [start, end) as one vacant run and appends it to the
// free list after the run ending at *prevTail.
func (m *SlabMap[T]) linkVacantRun(start, end int, prevTail *int) {
	if start >= end {
		return
	}

	if m.nextVacant == invalidIndex {
		m.nextVacant = start
	}

	if end-start >= 2 {
		m.entries[start] = vacantHead[T](end - start - 2)
	}

	m.entries[end-1] = vacantTail[T](invalidIndex)

	if *prevTail >= 0 {
		m.entries[*prevTail].link = start
	}

	*prevTail = end - 1
}

// Clone returns a copy of m. Values are copied shallowly.
func (m *SlabMap[T]) Clone() *SlabMap[T] {
	c := *m
	c.entries = slices.Clone(m.entries)

	return &c
}

// String formats the entries as {key: value, ...} in key order.
func (m *SlabMap[T]) String() string {
	return formatPairs(m.All())
}
