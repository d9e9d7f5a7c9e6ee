package slabmap_test

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/slabmap/pkg/slabmap"
)

type kv[T any] struct {
	Key   int
	Value T
}

func collect[T any](seq iter.Seq2[int, T]) []kv[T] {
	var out []kv[T]
	for key, value := range seq {
		out = append(out, kv[T]{Key: key, Value: value})
	}

	return out
}

func pairs[T any](items ...kv[T]) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for _, item := range items {
			if !yield(item.Key, item.Value) {
				return
			}
		}
	}
}

func seqPairs(values ...int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for key, value := range values {
			if !yield(key, value) {
				return
			}
		}
	}
}

func Test_SlabMap_Is_Empty_When_Zero_Value(t *testing.T) {
	t.Parallel()

	var m slabmap.SlabMap[int]

	assert.Equal(t, 0, m.Len())
	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.Capacity())

	_, ok := m.Get(0)
	assert.False(t, ok, "zero map should not contain key 0")

	k0 := m.Insert(1)
	k1 := m.Insert(2)

	assert.Equal(t, 0, k0)
	assert.Equal(t, 1, k1, "second insert on a zero map must not reuse key 0")
}

func Test_SlabMap_Capacity_Is_At_Least_Requested_When_WithCapacity(t *testing.T) {
	t.Parallel()

	for capacity := range 100 {
		m := slabmap.WithCapacity[uint32](capacity)
		assert.GreaterOrEqual(t, m.Capacity(), capacity)
	}
}

func Test_SlabMap_Retain_Keeps_Matching_Values_In_Order(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	m.Insert(10)
	m.Insert(15)
	m.Insert(20)
	m.Insert(25)

	m.Retain(func(_ int, v *int) bool { return *v%2 == 0 })

	assert.Equal(t, []int{10, 20}, slices.Collect(m.Values()))
	assert.Equal(t, 2, m.Len())
}

func Test_SlabMap_Retain_Passes_Key_And_Allows_Mutation(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2, 3, 4, 5))

	var seen []int

	m.Retain(func(key int, v *int) bool {
		seen = append(seen, key)
		*v *= 10

		return key%3 != 1
	})

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, seen)

	want := []kv[int]{{0, 0}, {2, 20}, {3, 30}, {5, 50}}
	if diff := cmp.Diff(want, collect(m.All())); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []int{1, 4}, slabmap.FreeListForTesting(m))
}

func Test_SlabMap_Len_Tracks_Inserts_And_Removes(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	assert.Equal(t, 0, m.Len())

	key1 := m.Insert(10)
	key2 := m.Insert(15)
	assert.Equal(t, 2, m.Len())

	m.Remove(key1)
	assert.Equal(t, 1, m.Len())

	m.Remove(key2)
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.IsEmpty())
}

func Test_SlabMap_Get_Returns_False_When_Key_Absent(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	key := m.Insert(100)

	v, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, 100, v)

	_, ok = m.Get(key + 1)
	assert.False(t, ok, "key past the end")

	_, ok = m.Get(-1)
	assert.False(t, ok, "negative key")

	assert.True(t, m.Contains(key))
	assert.False(t, m.Contains(key+1))
	assert.Nil(t, m.GetPtr(key+1))
}

func Test_SlabMap_Get_Returns_False_When_Slot_Vacant(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(1, 2, 3))
	m.Remove(1)

	_, ok := m.Get(1)
	assert.False(t, ok)
	assert.Nil(t, m.GetPtr(1))
	assert.False(t, m.Contains(1))
}

func Test_SlabMap_Insert_Returns_Distinct_Keys(t *testing.T) {
	t.Parallel()

	m := slabmap.New[string]()
	keyABC := m.Insert("abc")
	keyXYZ := m.Insert("xyz")

	assert.NotEqual(t, keyABC, keyXYZ)
	assert.Equal(t, "abc", m.At(keyABC))
	assert.Equal(t, "xyz", m.At(keyXYZ))
}

func Test_SlabMap_InsertWithKey_Passes_Assigned_Key(t *testing.T) {
	t.Parallel()

	m := slabmap.New[string]()
	m.Insert("first")
	m.Insert("second")
	m.Remove(0)

	key := m.InsertWithKey(func(key int) string { return fmt.Sprintf("my key is %d", key) })

	assert.Equal(t, 0, key, "free slot should be reused")
	assert.Equal(t, "my key is 0", m.At(key))
}

func Test_SlabMap_Remove_Returns_Value_Once(t *testing.T) {
	t.Parallel()

	m := slabmap.New[string]()
	m.Insert("x")
	key := m.Insert("a")
	m.Insert("y")

	v, ok := m.Remove(key)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = m.Remove(key)
	assert.False(t, ok, "second remove of the same key")

	_, ok = m.Remove(-5)
	assert.False(t, ok)

	_, ok = m.Remove(100)
	assert.False(t, ok)
}

func Test_SlabMap_Remove_Truncates_When_Key_Is_Last(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2))

	m.Remove(2)

	assert.Equal(t, 2, slabmap.SlotCountForTesting(m))
	assert.Empty(t, slabmap.FreeListForTesting(m), "removing the last slot must not create a free-list entry")
	assert.Equal(t, 0, slabmap.PendingRemovalsForTesting(m))
	assert.Equal(t, 2, m.Insert(9), "next insert appends at the truncated position")
}

func Test_SlabMap_Remove_Truncates_One_Slot_At_A_Time(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2, 3))
	m.Remove(2)
	m.Remove(3)

	// Slot 2 stays vacant on the free list; only the removed last slot goes.
	assert.Equal(t, 3, slabmap.SlotCountForTesting(m))
	assert.Equal(t, []int{2}, slabmap.FreeListForTesting(m))
	assert.Equal(t, 2, m.Insert(7))
}

func Test_SlabMap_Resets_When_Last_Entry_Removed(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	for i := range 10 {
		m.Insert(i)
	}

	for key := range 10 {
		m.Remove(key)
	}

	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, slabmap.SlotCountForTesting(m))
	assert.Empty(t, slabmap.FreeListForTesting(m))
	assert.Equal(t, 0, slabmap.PendingRemovalsForTesting(m))
	assert.Equal(t, 0, m.Insert(1))
}

func Test_SlabMap_Clear_Empties_Map_And_Keeps_Capacity(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	m.Insert(1)
	m.Insert(2)

	capacity := m.Capacity()

	m.Clear()

	assert.True(t, m.IsEmpty())
	assert.Equal(t, capacity, m.Capacity())
	assert.Empty(t, collect(m.All()))
}

func Test_SlabMap_Drain_Yields_Entries_And_Empties_Map(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	k0 := m.Insert(10)
	k1 := m.Insert(20)

	d := m.Drain()

	assert.True(t, m.IsEmpty(), "map must be empty as soon as Drain returns")
	assert.Equal(t, 2, d.Len())

	got := collect(d.All())

	assert.Equal(t, []kv[int]{{k0, 10}, {k1, 20}}, got)
	assert.Equal(t, 0, d.Len())
}

func Test_SlabMap_Drain_Leaves_Map_Empty_When_Stopped_Early(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(1, 2, 3))

	d := m.Drain()

	key, value, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, 0, key)
	assert.Equal(t, 1, value)
	assert.Equal(t, 2, d.Len())

	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.Insert(5))
}

func Test_SlabMap_Optimize_Scenario_Reuses_Lowest_Key(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	for _, v := range []int{10, 11, 12, 13, 14} {
		m.Insert(v)
	}

	m.Remove(1)
	m.Remove(2)
	m.Remove(3)

	m.Optimize()

	assert.Equal(t, []kv[int]{{0, 10}, {4, 14}}, collect(m.All()))
	assert.Equal(t, 1, m.Insert(99), "insert after optimize reuses key 1, not 5")
}

func Test_SlabMap_Optimize_Is_NoOp_When_Already_Optimized(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2, 3, 4))
	m.Remove(1)
	m.Remove(2)
	m.Optimize()

	poisoned := slabmap.PoisonVacantRunsForTesting(m, -1)
	require.Equal(t, 0, poisoned, "a run of two has no interior")

	before := slabmap.FreeListForTesting(m)
	m.Optimize()

	assert.Equal(t, before, slabmap.FreeListForTesting(m))
}

func Test_SlabMap_Iteration_Skips_Run_Interior_When_Optimized(t *testing.T) {
	t.Parallel()

	values := make([]int, 20)
	for i := range values {
		values[i] = i * 10
	}

	m := slabmap.FromPairs(seqPairs(values...))

	for key := 2; key < 9; key++ {
		m.Remove(key)
	}

	for key := 11; key < 15; key++ {
		m.Remove(key)
	}

	m.Optimize()

	// Interior slots carry no defined content. Poison them: any reader that
	// inspects them instead of jumping would yield -1.
	poisoned := slabmap.PoisonVacantRunsForTesting(m, -1)
	require.Equal(t, 5+2, poisoned)

	want := []kv[int]{{0, 0}, {1, 10}, {9, 90}, {10, 100}, {15, 150}, {16, 160}, {17, 170}, {18, 180}, {19, 190}}

	if diff := cmp.Diff(want, collect(m.All())); diff != "" {
		t.Fatalf("All mismatch (-want +got):\n%s", diff)
	}

	ptrs := make([]kv[int], 0, len(want))
	for key, ptr := range m.AllPtr() {
		ptrs = append(ptrs, kv[int]{key, *ptr})
	}

	assert.Equal(t, want, ptrs, "AllPtr")

	var cursor []kv[int]

	it := m.Iter()
	assert.Equal(t, len(want), it.Len())

	for key, value, ok := it.Next(); ok; key, value, ok = it.Next() {
		cursor = append(cursor, kv[int]{key, value})
		assert.Equal(t, len(want)-len(cursor), it.Len(), "cursor Len must be exact")
	}

	assert.Equal(t, want, cursor, "Iter")
	assert.Equal(t, "{0: 0, 1: 10, 9: 90, 10: 100, 15: 150, 16: 160, 17: 170, 18: 180, 19: 190}", m.String())

	clone := m.Clone()
	assert.Equal(t, want, collect(clone.All()), "Clone")

	m.Retain(func(_ int, v *int) bool {
		require.NotEqual(t, -1, *v, "Retain visited a run interior")

		return true
	})

	assert.Equal(t, want, collect(m.Drain().All()), "Drain")
}

func Test_SlabMap_Insert_Consumes_Runs_In_Ascending_Order_When_Optimized(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2, 3, 4, 5, 6, 7))
	m.Remove(1)
	m.Remove(2)
	m.Remove(3)
	m.Remove(5)
	m.Remove(6)
	m.Optimize()

	require.Equal(t, []int{1, 2, 3, 5, 6}, slabmap.FreeListForTesting(m))

	var keys []int
	for range 6 {
		keys = append(keys, m.Insert(100))
	}

	assert.Equal(t, []int{1, 2, 3, 5, 6, 8}, keys)
}

func Test_SlabMap_Optimize_Truncates_Trailing_Vacant_Run(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2, 3, 4))
	m.Remove(1)
	m.Remove(3)
	m.Remove(2)
	m.Optimize()

	// Keys 1..3 form a run; key 4 is still live so nothing trails.
	assert.Equal(t, 5, slabmap.SlotCountForTesting(m))

	m.Remove(0)
	m.Remove(4)
	assert.True(t, m.IsEmpty())

	m2 := slabmap.FromPairs(seqPairs(0, 1, 2, 3, 4))
	m2.Remove(1)
	m2.Remove(2)
	m2.Remove(3)
	m2.Remove(4) // truncates to 4 slots; 1..3 trail

	m2.Optimize()

	assert.Equal(t, 1, slabmap.SlotCountForTesting(m2))
	assert.Equal(t, 1, m2.Insert(1))
}

func Test_SlabMap_Merges_Vacant_Runs_When_Optimized_Twice(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(10, 11, 12, 13, 14, 15))
	m.Remove(1)
	m.Remove(2)
	m.Optimize()
	m.Remove(4)
	m.Optimize()

	want := []kv[int]{{0, 10}, {3, 13}, {5, 15}}
	assert.Equal(t, want, collect(m.All()))
	assert.Equal(t, []int{1, 2, 4}, slabmap.FreeListForTesting(m))
}

func Test_SlabMap_Merges_Adjacent_Runs_When_Gap_Removed(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(10, 11, 12, 13, 14, 15, 16))
	m.Remove(1)
	m.Remove(2)
	m.Remove(4)
	m.Remove(5)
	m.Optimize()
	m.Remove(3)
	m.Optimize()

	assert.Equal(t, []kv[int]{{0, 10}, {6, 16}}, collect(m.All()))
	assert.Equal(t, 3, slabmap.PoisonVacantRunsForTesting(m, -1), "one run of five slots has three interior slots")
	assert.Equal(t, []kv[int]{{0, 10}, {6, 16}}, collect(m.All()))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, slabmap.FreeListForTesting(m))
}

func Test_SlabMap_Capacity_Stable_When_Churning_Below_Peak(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()

	var keys []int

	for range 10 {
		m.Insert(11)
	}

	for range 100 {
		keys = append(keys, m.Insert(10))
	}

	capacity := m.Capacity()

	for range 1000 {
		for _, key := range keys {
			m.Remove(key)
		}

		keys = keys[:0]

		for range 100 {
			keys = append(keys, m.Insert(10))
		}
	}

	assert.Equal(t, capacity, m.Capacity())
}

func Test_SlabMap_Capacity_Stable_When_Churning_Through_Empty(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()

	var keys []int

	for range 100 {
		keys = append(keys, m.Insert(10))
	}

	capacity := m.Capacity()

	for range 1000 {
		for _, key := range keys {
			m.Remove(key)
		}

		keys = keys[:0]

		for range 100 {
			keys = append(keys, m.Insert(10))
		}
	}

	assert.Equal(t, capacity, m.Capacity())
}

func Test_SlabMap_Capacity_Stable_When_Reserving_Within_Vacant_Slots(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(0, 1, 2, 3, 4, 5, 6, 7, 8, 9))
	for key := range 9 {
		m.Remove(key)
	}

	capacity := m.Capacity()

	m.Reserve(9)
	assert.Equal(t, capacity, m.Capacity(), "nine vacant slots cover the request")

	m.ReserveExact(9)
	assert.Equal(t, capacity, m.Capacity())
}

func Test_SlabMap_FromPairs_Sorts_And_Overwrites(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(pairs(kv[int]{5, 1}, kv[int]{0, 3}, kv[int]{2, 7}, kv[int]{5, 9}))

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []kv[int]{{0, 3}, {2, 7}, {5, 9}}, collect(m.All()))
	assert.Equal(t, 9, m.At(5))
	assert.Equal(t, []int{1, 3, 4}, slabmap.FreeListForTesting(m))
	assert.Equal(t, 0, slabmap.PendingRemovalsForTesting(m))
}

func Test_SlabMap_FromPairsWithCapacity_Honors_Hint(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairsWithCapacity(seqPairs(1, 2), 64)

	assert.GreaterOrEqual(t, m.Capacity(), 64)
	assert.Equal(t, 2, m.Len())
}

func Test_SlabMap_FromPairs_Panics_When_Key_Negative(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		slabmap.FromPairs(pairs(kv[int]{-1, 1}))
	})
}

func Test_SlabMap_Reserve_Grows_Capacity(t *testing.T) {
	t.Parallel()

	m := slabmap.New[uint32]()
	m.Reserve(10)
	assert.GreaterOrEqual(t, m.Capacity(), 10)

	e := slabmap.New[uint32]()
	e.ReserveExact(10)
	assert.Equal(t, 10, e.Capacity())
}

func Test_SlabMap_TryReserve_Returns_ErrCapacityOverflow_When_Too_Large(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	m.Insert(1)

	require.ErrorIs(t, m.TryReserve(math.MaxInt), slabmap.ErrCapacityOverflow)
	require.ErrorIs(t, m.TryReserveExact(math.MaxInt), slabmap.ErrCapacityOverflow)
	assert.Equal(t, 1, m.Len(), "failed reservation must leave the map untouched")

	assert.PanicsWithError(t, slabmap.ErrCapacityOverflow.Error(), func() { m.Reserve(math.MaxInt) })
	assert.PanicsWithError(t, slabmap.ErrCapacityOverflow.Error(), func() { m.ReserveExact(math.MaxInt) })
}

func Test_SlabMap_TryReserve_Ignores_Negative_Request(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()

	require.NoError(t, m.TryReserve(-3))
	assert.Equal(t, 0, m.Capacity())
}

func Test_SlabMap_At_Panics_When_Key_Absent(t *testing.T) {
	t.Parallel()

	m := slabmap.New[int]()
	m.Insert(1)

	assert.PanicsWithError(t, "slabmap: key out of range: 3", func() { m.At(3) })
	assert.PanicsWithError(t, "slabmap: key out of range: -1", func() { m.AtPtr(-1) })
}

func Test_SlabMap_Pointers_Modify_Stored_Values(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(1, 2, 3))

	*m.AtPtr(0) = 100
	*m.GetPtr(1) += 5

	for ptr := range m.ValuesPtr() {
		*ptr *= 2
	}

	assert.Equal(t, []int{200, 14, 6}, slices.Collect(m.Values()))
	assert.Equal(t, []int{0, 1, 2}, slices.Collect(m.Keys()))
}

func Test_SlabMap_Iterators_Stop_When_Yield_Returns_False(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(1, 2, 3, 4))

	for key := range m.Keys() {
		if key == 1 {
			break
		}
	}

	for range m.Values() {
		break
	}

	for range m.ValuesPtr() {
		break
	}

	count := 0
	for range m.All() {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}

func Test_SlabMap_Clone_Is_Independent(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(seqPairs(1, 2, 3))
	m.Remove(1)

	c := m.Clone()
	c.Insert(9)
	c.Remove(0)

	assert.Equal(t, []kv[int]{{0, 1}, {2, 3}}, collect(m.All()))
	assert.Equal(t, []kv[int]{{1, 9}, {2, 3}}, collect(c.All()))
}

func Test_SlabMap_String_Formats_Entries_In_Key_Order(t *testing.T) {
	t.Parallel()

	m := slabmap.FromPairs(pairs(kv[string]{3, "c"}, kv[string]{1, "a"}))

	assert.Equal(t, "{1: a, 3: c}", m.String())
	assert.Equal(t, "{}", slabmap.New[int]().String())
}
