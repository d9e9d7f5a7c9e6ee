package slabmap

import "iter"

// Cell is one inline slot of a [SmallSlabMap].
type Cell[T any] struct {
	value T
	ok    bool
}

// InlineArray lists the inline array types a [SmallSlabMap] accepts. The
// array length is the number of entries kept inline.
type InlineArray[T any] interface {
	~[1]Cell[T] | ~[2]Cell[T] | ~[4]Cell[T] | ~[8]Cell[T] | ~[16]Cell[T] | ~[32]Cell[T]
}

// SmallSlabMap is a [SlabMap] that stores its first len(A) entries inline.
//
// While the map has never needed more than len(A) slots, entries live in the
// inline array and no heap allocation happens. An insert or reservation
// beyond that moves every entry into a [SlabMap] under its current key. The
// map stays heap-backed from then on, even if it shrinks again.
//
// The zero value is an empty map ready to use.
type SmallSlabMap[T any, A InlineArray[T]] struct {
	inline A
	count  int

	// heap is set once the map has been promoted.
	heap *SlabMap[T]
}

// Small1 through Small32 name the common inline sizes.
type (
	Small1[T any]  = SmallSlabMap[T, [1]Cell[T]]
	Small2[T any]  = SmallSlabMap[T, [2]Cell[T]]
	Small4[T any]  = SmallSlabMap[T, [4]Cell[T]]
	Small8[T any]  = SmallSlabMap[T, [8]Cell[T]]
	Small16[T any] = SmallSlabMap[T, [16]Cell[T]]
	Small32[T any] = SmallSlabMap[T, [32]Cell[T]]
)

// NewSmall returns an empty inline map.
func NewSmall[T any, A InlineArray[T]]() *SmallSlabMap[T, A] {
	return &SmallSlabMap[T, A]{}
}

// SmallWithCapacity returns an empty map with room for capacity entries. A
// capacity above the inline size starts the map heap-backed.
func SmallWithCapacity[T any, A InlineArray[T]](capacity int) *SmallSlabMap[T, A] {
	s := &SmallSlabMap[T, A]{}
	if capacity > len(s.inline) {
		s.heap = WithCapacity[T](capacity)
	}

	return s
}

// SmallFromPairs is the [FromPairs] counterpart for [SmallSlabMap]. A key at
// or above the inline size promotes the map.
func SmallFromPairs[T any, A InlineArray[T]](pairs iter.Seq2[int, T]) *SmallSlabMap[T, A] {
	return SmallFromPairsWithCapacity[T, A](pairs, 0)
}

// SmallFromPairsWithCapacity is like [SmallFromPairs] with a capacity hint.
func SmallFromPairsWithCapacity[T any, A InlineArray[T]](pairs iter.Seq2[int, T], capacity int) *SmallSlabMap[T, A] {
	s := SmallWithCapacity[T, A](capacity)

	for key, value := range pairs {
		s.set(key, value)
	}

	s.rebuildVacants()

	return s
}

func (s *SmallSlabMap[T, A]) cell(idx int) *Cell[T] {
	return &s.inline[idx]
}

func (s *SmallSlabMap[T, A]) set(key int, value T) {
	if key < 0 {
		panic(outOfRange(key))
	}

	if s.heap != nil || key >= len(s.inline) {
		s.promote().set(key, value)

		return
	}

	c := s.cell(key)
	if !c.ok {
		s.count++
	}

	*c = Cell[T]{value: value, ok: true}
}

func (s *SmallSlabMap[T, A]) rebuildVacants() {
	if s.heap != nil {
		s.heap.rebuildVacants(nil)

		return
	}

	s.count = 0

	for idx := range len(s.inline) {
		if s.cell(idx).ok {
			s.count++
		}
	}
}

// promote moves the inline entries into a heap map under their current keys
// and returns it. It is a no-op once promoted.
func (s *SmallSlabMap[T, A]) promote() *SlabMap[T] {
	if s.heap != nil {
		return s.heap
	}

	heap := New[T]()

	for idx := range len(s.inline) {
		if c := s.cell(idx); c.ok {
			heap.set(idx, c.value)
		}
	}

	heap.rebuildVacants(nil)

	var empty A

	s.inline = empty
	s.count = 0
	s.heap = heap

	return heap
}

// Promoted reports whether the entries have moved to the heap.
func (s *SmallSlabMap[T, A]) Promoted() bool {
	return s.heap != nil
}

// Capacity returns len(A) while inline, else the heap map's capacity.
func (s *SmallSlabMap[T, A]) Capacity() int {
	if s.heap != nil {
		return s.heap.Capacity()
	}

	return len(s.inline)
}

// Reserve makes room for additional more entries, promoting the map if the
// inline array is too small. See [SlabMap.Reserve].
func (s *SmallSlabMap[T, A]) Reserve(additional int) {
	err := s.TryReserve(additional)
	if err != nil {
		panic(err)
	}
}

// TryReserve is like [SmallSlabMap.Reserve] but returns
// [ErrCapacityOverflow] instead of panicking.
func (s *SmallSlabMap[T, A]) TryReserve(additional int) error {
	if s.fitsInline(additional) {
		return nil
	}

	return s.promote().TryReserve(additional)
}

// ReserveExact is the exact-size variant of [SmallSlabMap.Reserve].
func (s *SmallSlabMap[T, A]) ReserveExact(additional int) {
	err := s.TryReserveExact(additional)
	if err != nil {
		panic(err)
	}
}

// TryReserveExact is like [SmallSlabMap.ReserveExact] but returns
// [ErrCapacityOverflow] instead of panicking.
func (s *SmallSlabMap[T, A]) TryReserveExact(additional int) error {
	if s.fitsInline(additional) {
		return nil
	}

	return s.promote().TryReserveExact(additional)
}

func (s *SmallSlabMap[T, A]) fitsInline(additional int) bool {
	return s.heap == nil && additional <= len(s.inline)-s.count
}

// Len returns the number of entries.
func (s *SmallSlabMap[T, A]) Len() int {
	if s.heap != nil {
		return s.heap.Len()
	}

	return s.count
}

// IsEmpty reports whether the map has no entries.
func (s *SmallSlabMap[T, A]) IsEmpty() bool {
	return s.Len() == 0
}

// Get returns the value stored at key.
func (s *SmallSlabMap[T, A]) Get(key int) (T, bool) {
	if s.heap != nil {
		return s.heap.Get(key)
	}

	if key < 0 || key >= len(s.inline) || !s.cell(key).ok {
		var zero T

		return zero, false
	}

	return s.cell(key).value, true
}

// GetPtr returns a pointer to the value stored at key, or nil.
func (s *SmallSlabMap[T, A]) GetPtr(key int) *T {
	if s.heap != nil {
		return s.heap.GetPtr(key)
	}

	if key < 0 || key >= len(s.inline) || !s.cell(key).ok {
		return nil
	}

	return &s.cell(key).value
}

// At returns the value stored at key. It panics if key is not occupied.
func (s *SmallSlabMap[T, A]) At(key int) T {
	value, ok := s.Get(key)
	if !ok {
		panic(outOfRange(key))
	}

	return value
}

// AtPtr is like [SmallSlabMap.GetPtr] but panics if key is not occupied.
func (s *SmallSlabMap[T, A]) AtPtr(key int) *T {
	ptr := s.GetPtr(key)
	if ptr == nil {
		panic(outOfRange(key))
	}

	return ptr
}

// Contains reports whether key is occupied.
func (s *SmallSlabMap[T, A]) Contains(key int) bool {
	_, ok := s.Get(key)

	return ok
}

// Insert stores value and returns its key. Inline maps use the lowest free
// cell.
func (s *SmallSlabMap[T, A]) Insert(value T) int {
	if s.heap != nil || s.count == len(s.inline) {
		return s.promote().Insert(value)
	}

	key := s.freeCell()
	*s.cell(key) = Cell[T]{value: value, ok: true}
	s.count++

	return key
}

// InsertWithKey is the [SlabMap.InsertWithKey] counterpart.
func (s *SmallSlabMap[T, A]) InsertWithKey(f func(key int) T) int {
	if s.heap != nil || s.count == len(s.inline) {
		return s.promote().InsertWithKey(f)
	}

	key := s.freeCell()
	*s.cell(key) = Cell[T]{value: f(key), ok: true}
	s.count++

	return key
}

func (s *SmallSlabMap[T, A]) freeCell() int {
	for idx := range len(s.inline) {
		if !s.cell(idx).ok {
			return idx
		}
	}

	panic("slabmap: inline count out of sync with cells")
}

// Remove removes the entry at key and returns its value.
func (s *SmallSlabMap[T, A]) Remove(key int) (T, bool) {
	if s.heap != nil {
		return s.heap.Remove(key)
	}

	var zero T

	if key < 0 || key >= len(s.inline) || !s.cell(key).ok {
		return zero, false
	}

	c := s.cell(key)
	value := c.value
	*c = Cell[T]{}
	s.count--

	return value, true
}

// Clear removes all entries. A promoted map stays promoted.
func (s *SmallSlabMap[T, A]) Clear() {
	if s.heap != nil {
		s.heap.Clear()

		return
	}

	var empty A

	s.inline = empty
	s.count = 0
}

// Retain keeps only the entries for which keep returns true.
func (s *SmallSlabMap[T, A]) Retain(keep func(key int, value *T) bool) {
	if s.heap != nil {
		s.heap.Retain(keep)

		return
	}

	for idx := range len(s.inline) {
		c := s.cell(idx)
		if c.ok && !keep(idx, &c.value) {
			*c = Cell[T]{}
			s.count--
		}
	}
}

// Optimize is a no-op while inline. See [SlabMap.Optimize].
func (s *SmallSlabMap[T, A]) Optimize() {
	if s.heap != nil {
		s.heap.Optimize()
	}
}

// Clone returns a copy of s. Values are copied shallowly.
func (s *SmallSlabMap[T, A]) Clone() *SmallSlabMap[T, A] {
	c := *s
	if s.heap != nil {
		c.heap = s.heap.Clone()
	}

	return &c
}

// CloneFrom replaces the contents of s with a copy of src, reusing the
// storage s already owns.
func (s *SmallSlabMap[T, A]) CloneFrom(src *SmallSlabMap[T, A]) {
	if s == src {
		return
	}

	s.Clear()

	highest := -1
	for key := range src.Keys() {
		highest = key
	}

	s.Reserve(highest + 1)

	for key, value := range src.All() {
		s.set(key, value)
	}

	s.rebuildVacants()
}

// String formats the entries as {key: value, ...} in key order.
func (s *SmallSlabMap[T, A]) String() string {
	return formatPairs(s.All())
}
