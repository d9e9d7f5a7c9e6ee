package slabmap

import "iter"

// All returns an iterator over key/value pairs in increasing key order.
func (s *SmallSlabMap[T, A]) All() iter.Seq2[int, T] {
	if s.heap != nil {
		return s.heap.All()
	}

	return func(yield func(int, T) bool) {
		for idx := range len(s.inline) {
			if c := s.cell(idx); c.ok && !yield(idx, c.value) {
				return
			}
		}
	}
}

// AllPtr is like [SmallSlabMap.All] but yields pointers to the values.
func (s *SmallSlabMap[T, A]) AllPtr() iter.Seq2[int, *T] {
	if s.heap != nil {
		return s.heap.AllPtr()
	}

	return func(yield func(int, *T) bool) {
		for idx := range len(s.inline) {
			if c := s.cell(idx); c.ok && !yield(idx, &c.value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys in increasing order.
func (s *SmallSlabMap[T, A]) Keys() iter.Seq[int] {
	return func(yield func(int) bool) {
		for key := range s.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// Values returns an iterator over the values in key order.
func (s *SmallSlabMap[T, A]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range s.All() {
			if !yield(value) {
				return
			}
		}
	}
}

// ValuesPtr returns an iterator over pointers to the values in key order.
func (s *SmallSlabMap[T, A]) ValuesPtr() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, ptr := range s.AllPtr() {
			if !yield(ptr) {
				return
			}
		}
	}
}

// SmallIter is the [Iter] counterpart for [SmallSlabMap].
type SmallIter[T any, A InlineArray[T]] struct {
	heap      *Iter[T]
	inline    *SmallSlabMap[T, A]
	idx       int
	remaining int
}

// Iter returns a cursor positioned before the first entry.
func (s *SmallSlabMap[T, A]) Iter() *SmallIter[T, A] {
	if s.heap != nil {
		return &SmallIter[T, A]{heap: s.heap.Iter()}
	}

	return &SmallIter[T, A]{inline: s, remaining: s.count}
}

// Next advances the cursor and returns the next entry.
func (it *SmallIter[T, A]) Next() (key int, value T, ok bool) {
	if it.heap != nil {
		return it.heap.Next()
	}

	for ; it.idx < len(it.inline.inline); it.idx++ {
		if c := it.inline.cell(it.idx); c.ok {
			key = it.idx
			it.idx++
			it.remaining--

			return key, c.value, true
		}
	}

	return 0, value, false
}

// Len returns the number of entries Next has yet to return.
func (it *SmallIter[T, A]) Len() int {
	if it.heap != nil {
		return it.heap.Len()
	}

	return it.remaining
}

// SmallDrain holds the entries removed by [SmallSlabMap.Drain].
type SmallDrain[T any, A InlineArray[T]] struct {
	heap      *Drain[T]
	inline    A
	idx       int
	remaining int
}

// Drain removes every entry from s and returns them for iteration in key
// order. A promoted map stays promoted.
func (s *SmallSlabMap[T, A]) Drain() *SmallDrain[T, A] {
	if s.heap != nil {
		return &SmallDrain[T, A]{heap: s.heap.Drain()}
	}

	d := &SmallDrain[T, A]{inline: s.inline, remaining: s.count}
	s.Clear()

	return d
}

// Next returns the next drained entry.
func (d *SmallDrain[T, A]) Next() (key int, value T, ok bool) {
	if d.heap != nil {
		return d.heap.Next()
	}

	for ; d.idx < len(d.inline); d.idx++ {
		c := &d.inline[d.idx]
		if !c.ok {
			continue
		}

		key, value = d.idx, c.value
		*c = Cell[T]{}
		d.idx++
		d.remaining--

		return key, value, true
	}

	return 0, value, false
}

// Len returns the number of entries not yet returned.
func (d *SmallDrain[T, A]) Len() int {
	if d.heap != nil {
		return d.heap.Len()
	}

	return d.remaining
}

// All returns an iterator that consumes the remaining drained entries.
func (d *SmallDrain[T, A]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for {
			key, value, ok := d.Next()
			if !ok || !yield(key, value) {
				return
			}
		}
	}
}
