package slabmap

import "iter"

// All returns an iterator over key/value pairs in increasing key order.
//
// The map must not be modified during iteration.
func (m *SlabMap[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		entries := m.entries

		for idx := nextOccupied(entries, 0); idx < len(entries); idx = nextOccupied(entries, idx+1) {
			if !yield(idx, entries[idx].value) {
				return
			}
		}
	}
}

// AllPtr is like [SlabMap.All] but yields pointers to the stored values, so
// the loop body can modify them in place.
func (m *SlabMap[T]) AllPtr() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		entries := m.entries

		for idx := nextOccupied(entries, 0); idx < len(entries); idx = nextOccupied(entries, idx+1) {
			if !yield(idx, &entries[idx].value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys in increasing order.
func (m *SlabMap[T]) Keys() iter.Seq[int] {
	return func(yield func(int) bool) {
		for key := range m.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// Values returns an iterator over the values in key order.
func (m *SlabMap[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range m.All() {
			if !yield(value) {
				return
			}
		}
	}
}

// ValuesPtr returns an iterator over pointers to the values in key order.
func (m *SlabMap[T]) ValuesPtr() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, ptr := range m.AllPtr() {
			if !yield(ptr) {
				return
			}
		}
	}
}

// Iter is a cursor over the entries of a [SlabMap] that knows how many
// entries remain.
type Iter[T any] struct {
	entries   []entry[T]
	idx       int
	remaining int
}

// Iter returns a cursor positioned before the first entry.
//
// The map must not be modified while the cursor is in use.
func (m *SlabMap[T]) Iter() *Iter[T] {
	return &Iter[T]{entries: m.entries, remaining: m.len}
}

// Next advances the cursor and returns the next entry. ok is false once the
// entries are exhausted.
func (it *Iter[T]) Next() (key int, value T, ok bool) {
	idx := nextOccupied(it.entries, it.idx)
	if idx >= len(it.entries) {
		it.idx = len(it.entries)

		return 0, value, false
	}

	it.idx = idx + 1
	it.remaining--

	return idx, it.entries[idx].value, true
}

// Len returns the number of entries Next has yet to return.
func (it *Iter[T]) Len() int {
	return it.remaining
}

// Drain holds the entries removed by [SlabMap.Drain].
type Drain[T any] struct {
	entries   []entry[T]
	idx       int
	remaining int
}

// Drain removes every entry from m and returns them for iteration in key
// order. m is empty when Drain returns; its storage moves to the result, so
// the next insert allocates.
//
// This is also how a map is consumed by value.
func (m *SlabMap[T]) Drain() *Drain[T] {
	d := &Drain[T]{entries: m.entries, remaining: m.len}

	m.entries = nil
	m.Clear()

	return d
}

// Next returns the next drained entry. ok is false once all entries have been
// returned.
func (d *Drain[T]) Next() (key int, value T, ok bool) {
	idx := nextOccupied(d.entries, d.idx)
	if idx >= len(d.entries) {
		d.entries = nil
		d.idx = 0

		return 0, value, false
	}

	value = d.entries[idx].value
	d.entries[idx] = entry[T]{}
	d.idx = idx + 1
	d.remaining--

	return idx, value, true
}

// Len returns the number of entries not yet returned.
func (d *Drain[T]) Len() int {
	return d.remaining
}

// All returns an iterator that consumes the remaining drained entries.
func (d *Drain[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for {
			key, value, ok := d.Next()
			if !ok || !yield(key, value) {
				return
			}
		}
	}
}
