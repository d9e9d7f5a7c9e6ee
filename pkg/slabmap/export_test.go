package slabmap

// Export internal state for testing.
// This file is only compiled during tests.

// PoisonVacantRunsForTesting overwrites every slot strictly inside a vacant
// run with an occupied entry holding poison, and returns how many slots it
// wrote. Code that honors the run encoding never sees these slots.
func PoisonVacantRunsForTesting[T any](m *SlabMap[T], poison T) int {
	written := 0

	for idx := 0; idx < len(m.entries); {
		e := m.entries[idx]
		if e.kind != kindVacantHead {
			idx++

			continue
		}

		for body := idx + 1; body <= idx+e.link; body++ {
			m.entries[body] = occupied(poison)
			written++
		}

		idx += e.link + 2
	}

	return written
}

// FreeListForTesting returns the vacant keys in the order Insert will hand
// them out.
func FreeListForTesting[T any](m *SlabMap[T]) []int {
	var keys []int

	idx := m.nextVacant
	if len(m.entries) == 0 {
		return nil
	}

	for idx < len(m.entries) {
		e := m.entries[idx]

		switch e.kind {
		case kindVacantHead:
			for off := 0; off <= e.link; off++ {
				keys = append(keys, idx+off)
			}

			idx += e.link + 1
		case kindVacantTail:
			keys = append(keys, idx)
			idx = e.link
		default:
			panic("free list reaches an occupied slot")
		}
	}

	return keys
}

// SlotCountForTesting returns the number of slots, occupied or vacant.
func SlotCountForTesting[T any](m *SlabMap[T]) int {
	return len(m.entries)
}

// PendingRemovalsForTesting returns the removals not yet folded into runs.
func PendingRemovalsForTesting[T any](m *SlabMap[T]) int {
	return m.nonOptimized
}
