package testutil

import (
	"fmt"

	"github.com/calvinalkan/slabmap/pkg/slabmap/model"
)

// Operation is a single public-API call we apply to both the model and the
// real container.
//
// NOTE: These ops are behavior-level. They never look at slot layout.
type Operation interface {
	Name() string
	String() string
}

// OpInsert represents an Insert(value) call.
type OpInsert struct {
	Value int
}

// Name returns the operation name.
func (OpInsert) Name() string { return "Insert" }
func (operation OpInsert) String() string {
	return fmt.Sprintf("Insert(%d)", operation.Value)
}

// OpInsertWithKey represents InsertWithKey(f) where f stores its key times
// Factor, so the stored value proves which key f was handed.
type OpInsertWithKey struct {
	Factor int
}

// Name returns the operation name.
func (OpInsertWithKey) Name() string { return "InsertWithKey" }
func (operation OpInsertWithKey) String() string {
	return fmt.Sprintf("InsertWithKey(key*%d)", operation.Factor)
}

// OpRemove represents a Remove(key) call.
type OpRemove struct {
	Key int
}

// Name returns the operation name.
func (OpRemove) Name() string { return "Remove" }
func (operation OpRemove) String() string {
	return fmt.Sprintf("Remove(%d)", operation.Key)
}

// OpGet represents a Get(key) call.
type OpGet struct {
	Key int
}

// Name returns the operation name.
func (OpGet) Name() string { return "Get" }
func (operation OpGet) String() string {
	return fmt.Sprintf("Get(%d)", operation.Key)
}

// OpSet overwrites an existing value through GetPtr.
type OpSet struct {
	Key   int
	Value int
}

// Name returns the operation name.
func (OpSet) Name() string { return "Set" }
func (operation OpSet) String() string {
	return fmt.Sprintf("Set(%d, %d)", operation.Key, operation.Value)
}

// OpRetain represents Retain with a predicate that keeps keys whose
// remainder modulo Mod differs from Drop and adds Bump to every visited value.
type OpRetain struct {
	Mod  int
	Drop int
	Bump int
}

// Name returns the operation name.
func (OpRetain) Name() string { return "Retain" }
func (operation OpRetain) String() string {
	return fmt.Sprintf("Retain(key%%%d!=%d, +%d)", operation.Mod, operation.Drop, operation.Bump)
}

// Keep is the predicate both sides run.
func (operation OpRetain) Keep(key int, value *int) bool {
	*value += operation.Bump

	return key%operation.Mod != operation.Drop
}

// OpOptimize represents an Optimize() call.
type OpOptimize struct{}

// Name returns the operation name.
func (OpOptimize) Name() string   { return "Optimize" }
func (OpOptimize) String() string { return "Optimize()" }

// OpClear represents a Clear() call.
type OpClear struct{}

// Name returns the operation name.
func (OpClear) Name() string   { return "Clear" }
func (OpClear) String() string { return "Clear()" }

// OpDrain represents a Drain() call consumed to the end.
type OpDrain struct{}

// Name returns the operation name.
func (OpDrain) Name() string   { return "Drain" }
func (OpDrain) String() string { return "Drain()" }

// OpReserve represents a Reserve(additional) call.
type OpReserve struct {
	Additional int
}

// Name returns the operation name.
func (OpReserve) Name() string { return "Reserve" }
func (operation OpReserve) String() string {
	return fmt.Sprintf("Reserve(%d)", operation.Additional)
}

// OpClone replaces the real container with its clone. The model is
// unaffected, so any state Clone fails to copy shows up as a mismatch.
type OpClone struct{}

// Name returns the operation name.
func (OpClone) Name() string   { return "Clone" }
func (OpClone) String() string { return "Clone()" }

// OpLen represents a Len() call.
type OpLen struct{}

// Name returns the operation name.
func (OpLen) Name() string   { return "Len" }
func (OpLen) String() string { return "Len()" }

// -----------------------------------------------------------------------------
// Typed operation results.
// -----------------------------------------------------------------------------

// OperationResult is a typed result produced by applying an Operation.
type OperationResult interface {
	isResult()
}

// ResNone is the result of operations that return nothing.
type ResNone struct{}

func (ResNone) isResult() {}

// ResKey captures the key an insert returned.
type ResKey struct {
	Key int
}

func (ResKey) isResult() {}

// ResValue captures a Get or Remove result.
type ResValue struct {
	Value  int
	Exists bool
}

func (ResValue) isResult() {}

// ResLen captures a Len() result.
type ResLen struct {
	Length int
}

func (ResLen) isResult() {}

// ResEntries captures the entries a Drain yielded.
type ResEntries struct {
	Entries []model.Entry[int]
}

func (ResEntries) isResult() {}
