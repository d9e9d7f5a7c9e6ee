package testutil

import (
	"iter"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/slabmap/pkg/slabmap/model"
)

// Harness holds:
//   - a simple in-memory model, and
//   - the real container
//
// We always apply the same operation to both sides, then compare:
//  1. the direct operation result, and
//  2. the observable state (Len/Get/All/Keys/Values/cursors).
//
// IMPORTANT: This harness compares PUBLIC API behavior only.
type Harness struct {
	Kind  Kind
	Model *model.SlabMap[int]
	Real  Container
}

// NewHarness returns a harness with an empty model and container of kind k.
func NewHarness(tb testing.TB, k Kind) *Harness {
	tb.Helper()

	return &Harness{
		Kind:  k,
		Model: NewModel(k),
		Real:  NewContainer(k),
	}
}

// ApplyModel applies operationValue to the model.
func ApplyModel(testHarness *Harness, operationValue Operation) OperationResult {
	m := testHarness.Model

	switch op := operationValue.(type) {
	case OpInsert:
		return ResKey{Key: m.Insert(op.Value)}
	case OpInsertWithKey:
		key := m.NextKey()

		return ResKey{Key: m.Insert(key * op.Factor)}
	case OpRemove:
		value, ok := m.Remove(op.Key)

		return ResValue{Value: value, Exists: ok}
	case OpGet:
		value, ok := m.Get(op.Key)

		return ResValue{Value: value, Exists: ok}
	case OpSet:
		old, ok := m.Set(op.Key, op.Value)

		return ResValue{Value: old, Exists: ok}
	case OpRetain:
		m.Retain(op.Keep)

		return ResNone{}
	case OpOptimize:
		m.Optimize()

		return ResNone{}
	case OpClear:
		m.Clear()

		return ResNone{}
	case OpDrain:
		return ResEntries{Entries: m.Drain()}
	case OpReserve:
		m.Reserve(op.Additional)

		return ResNone{}
	case OpClone:
		return ResNone{}
	case OpLen:
		return ResLen{Length: m.Len()}
	default:
		panic("test harness bug: unknown operation " + operationValue.Name())
	}
}

// ApplyReal applies operationValue to the real container.
func ApplyReal(testHarness *Harness, operationValue Operation) OperationResult {
	r := testHarness.Real

	switch op := operationValue.(type) {
	case OpInsert:
		return ResKey{Key: r.Insert(op.Value)}
	case OpInsertWithKey:
		return ResKey{Key: r.InsertWithKey(func(key int) int { return key * op.Factor })}
	case OpRemove:
		value, ok := r.Remove(op.Key)

		return ResValue{Value: value, Exists: ok}
	case OpGet:
		value, ok := r.Get(op.Key)

		return ResValue{Value: value, Exists: ok}
	case OpSet:
		ptr := r.GetPtr(op.Key)
		if ptr == nil {
			return ResValue{}
		}

		old := *ptr
		*ptr = op.Value

		return ResValue{Value: old, Exists: true}
	case OpRetain:
		r.Retain(op.Keep)

		return ResNone{}
	case OpOptimize:
		r.Optimize()

		return ResNone{}
	case OpClear:
		r.Clear()

		return ResNone{}
	case OpDrain:
		return ResEntries{Entries: r.DrainAll()}
	case OpReserve:
		r.Reserve(op.Additional)

		return ResNone{}
	case OpClone:
		testHarness.Real = r.Clone()

		return ResNone{}
	case OpLen:
		return ResLen{Length: r.Len()}
	default:
		panic("test harness bug: unknown operation " + operationValue.Name())
	}
}

// AssertOpMatch fails the test if the model and real results differ.
func AssertOpMatch(tb testing.TB, operationValue Operation, modelResult OperationResult, realResult OperationResult) {
	tb.Helper()

	if diff := cmp.Diff(modelResult, realResult); diff != "" {
		tb.Fatalf("%s: result mismatch (-model +real):\n%s", operationValue.String(), diff)
	}
}

// CompareState checks every read-only view of the real container against the
// model.
func CompareState(tb testing.TB, harness *Harness) {
	tb.Helper()

	m, r := harness.Model, harness.Real
	want := m.Entries()

	if got := r.Len(); got != m.Len() {
		tb.Fatalf("Len() mismatch\nmodel=%d\nreal=%d", m.Len(), got)
	}

	if r.IsEmpty() != (m.Len() == 0) {
		tb.Fatalf("IsEmpty() mismatch\nmodel=%v\nreal=%v", m.Len() == 0, r.IsEmpty())
	}

	if r.Promoted() != m.Promoted() {
		tb.Fatalf("Promoted() mismatch\nmodel=%v\nreal=%v", m.Promoted(), r.Promoted())
	}

	if r.Capacity() < r.Len() {
		tb.Fatalf("Capacity()=%d below Len()=%d", r.Capacity(), r.Len())
	}

	if diff := cmp.Diff(want, collectAll(r.All())); diff != "" {
		tb.Fatalf("All() mismatch (-model +real):\n%s", diff)
	}

	if diff := cmp.Diff(want, collectAllPtr(r.AllPtr())); diff != "" {
		tb.Fatalf("AllPtr() mismatch (-model +real):\n%s", diff)
	}

	if diff := cmp.Diff(m.Keys(), append([]int{}, slices.Collect(r.Keys())...)); diff != "" {
		tb.Fatalf("Keys() mismatch (-model +real):\n%s", diff)
	}

	values := make([]int, 0, len(want))
	for _, e := range want {
		values = append(values, e.Value)
	}

	if diff := cmp.Diff(values, append([]int{}, slices.Collect(r.Values())...)); diff != "" {
		tb.Fatalf("Values() mismatch (-model +real):\n%s", diff)
	}

	if got := r.IterLen(); got != len(want) {
		tb.Fatalf("Iter().Len() mismatch\nmodel=%d\nreal=%d", len(want), got)
	}

	if diff := cmp.Diff(want, r.IterAll()); diff != "" {
		tb.Fatalf("Iter() mismatch (-model +real):\n%s", diff)
	}

	highest := -1
	if len(want) > 0 {
		highest = want[len(want)-1].Key
	}

	for key := -1; key <= highest+2; key++ {
		mv, mok := m.Get(key)
		rv, rok := r.Get(key)

		if mok != rok || mv != rv {
			tb.Fatalf("Get(%d) mismatch\nmodel=(%d, %v)\nreal=(%d, %v)", key, mv, mok, rv, rok)
		}

		if r.Contains(key) != mok {
			tb.Fatalf("Contains(%d) mismatch\nmodel=%v\nreal=%v", key, mok, r.Contains(key))
		}
	}

	if next := m.NextKey(); m.Promoted() && r.Contains(next) {
		tb.Fatalf("model predicts next key %d but real has it occupied", next)
	}
}

func collectAll(seq iter.Seq2[int, int]) []model.Entry[int] {
	out := []model.Entry[int]{}
	for key, value := range seq {
		out = append(out, model.Entry[int]{Key: key, Value: value})
	}

	return out
}

func collectAllPtr(seq iter.Seq2[int, *int]) []model.Entry[int] {
	out := []model.Entry[int]{}
	for key, ptr := range seq {
		out = append(out, model.Entry[int]{Key: key, Value: *ptr})
	}

	return out
}
