package testutil

import (
	"fmt"
	"iter"

	"github.com/calvinalkan/slabmap/pkg/slabmap"
	"github.com/calvinalkan/slabmap/pkg/slabmap/model"
)

// Container is the public surface shared by [slabmap.SlabMap] and every
// [slabmap.SmallSlabMap] instantiation, as seen by the harness.
type Container interface {
	Insert(value int) int
	InsertWithKey(f func(key int) int) int
	Remove(key int) (int, bool)
	Get(key int) (int, bool)
	GetPtr(key int) *int
	Contains(key int) bool
	Len() int
	IsEmpty() bool
	Capacity() int
	Reserve(additional int)
	Retain(keep func(key int, value *int) bool)
	Optimize()
	Clear()
	All() iter.Seq2[int, int]
	AllPtr() iter.Seq2[int, *int]
	Keys() iter.Seq[int]
	Values() iter.Seq[int]
	String() string

	// Promoted is always true for a plain slab map.
	Promoted() bool

	// IterLen returns the Len of a fresh cursor.
	IterLen() int

	// IterAll walks a fresh cursor to the end.
	IterAll() []model.Entry[int]

	// DrainAll drains the container and collects the entries.
	DrainAll() []model.Entry[int]

	Clone() Container
}

// Kind selects which container the harness drives.
type Kind int

// Container kinds.
const (
	KindSlab Kind = iota
	KindSmall1
	KindSmall4
	KindSmall32
)

// AllKinds lists every kind, for table-driven tests.
var AllKinds = []Kind{KindSlab, KindSmall1, KindSmall4, KindSmall32}

func (k Kind) String() string {
	switch k {
	case KindSlab:
		return "SlabMap"
	case KindSmall1:
		return "Small1"
	case KindSmall4:
		return "Small4"
	case KindSmall32:
		return "Small32"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// InlineSize returns the number of inline cells, 0 for a plain slab map.
func (k Kind) InlineSize() int {
	switch k {
	case KindSmall1:
		return 1
	case KindSmall4:
		return 4
	case KindSmall32:
		return 32
	default:
		return 0
	}
}

// NewContainer returns an empty container of kind k.
func NewContainer(k Kind) Container {
	switch k {
	case KindSmall1:
		return smallContainer[[1]slabmap.Cell[int]]{slabmap.NewSmall[int, [1]slabmap.Cell[int]]()}
	case KindSmall4:
		return smallContainer[[4]slabmap.Cell[int]]{slabmap.NewSmall[int, [4]slabmap.Cell[int]]()}
	case KindSmall32:
		return smallContainer[[32]slabmap.Cell[int]]{slabmap.NewSmall[int, [32]slabmap.Cell[int]]()}
	default:
		return slabContainer{slabmap.New[int]()}
	}
}

// NewModel returns the model matching kind k.
func NewModel(k Kind) *model.SlabMap[int] {
	if k == KindSlab {
		return model.New[int]()
	}

	return model.NewSmall[int](k.InlineSize())
}

type cursor interface {
	Next() (int, int, bool)
	Len() int
}

func drainCursor(c cursor) []model.Entry[int] {
	out := []model.Entry[int]{}

	for key, value, ok := c.Next(); ok; key, value, ok = c.Next() {
		out = append(out, model.Entry[int]{Key: key, Value: value})
	}

	return out
}

type slabContainer struct {
	*slabmap.SlabMap[int]
}

func (slabContainer) Promoted() bool { return true }

func (c slabContainer) IterLen() int { return c.Iter().Len() }

func (c slabContainer) IterAll() []model.Entry[int] { return drainCursor(c.Iter()) }

func (c slabContainer) DrainAll() []model.Entry[int] { return drainCursor(c.Drain()) }

func (c slabContainer) Clone() Container { return slabContainer{c.SlabMap.Clone()} }

type smallContainer[A slabmap.InlineArray[int]] struct {
	*slabmap.SmallSlabMap[int, A]
}

func (c smallContainer[A]) IterLen() int { return c.Iter().Len() }

func (c smallContainer[A]) IterAll() []model.Entry[int] { return drainCursor(c.Iter()) }

func (c smallContainer[A]) DrainAll() []model.Entry[int] { return drainCursor(c.Drain()) }

func (c smallContainer[A]) Clone() Container {
	return smallContainer[A]{c.SmallSlabMap.Clone()}
}
