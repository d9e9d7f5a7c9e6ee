package shell

import (
	"fmt"
	"iter"

	"github.com/calvinalkan/slabmap/pkg/slabmap"
)

type entry struct {
	Key   int
	Value string
}

// store is the container surface the shell drives. Every inline size has
// its own SmallSlabMap instantiation; store hides which one is in use.
type store interface {
	Insert(value string) int
	Remove(key int) (string, bool)
	Get(key int) (string, bool)
	Len() int
	Capacity() int
	TryReserve(additional int) error
	Retain(keep func(key int, value *string) bool)
	Optimize()
	Clear()
	All() iter.Seq2[int, string]
	Keys() iter.Seq[int]
	Promoted() bool
	drain() []entry
}

// ValidInlineSizes lists the accepted values of the inline setting. Zero
// selects a plain SlabMap.
var ValidInlineSizes = []int{0, 1, 2, 4, 8, 16, 32}

func newStore(inline int) (store, error) {
	switch inline {
	case 0:
		return slabStore{slabmap.New[string]()}, nil
	case 1:
		return smallStore[[1]slabmap.Cell[string]]{slabmap.NewSmall[string, [1]slabmap.Cell[string]]()}, nil
	case 2:
		return smallStore[[2]slabmap.Cell[string]]{slabmap.NewSmall[string, [2]slabmap.Cell[string]]()}, nil
	case 4:
		return smallStore[[4]slabmap.Cell[string]]{slabmap.NewSmall[string, [4]slabmap.Cell[string]]()}, nil
	case 8:
		return smallStore[[8]slabmap.Cell[string]]{slabmap.NewSmall[string, [8]slabmap.Cell[string]]()}, nil
	case 16:
		return smallStore[[16]slabmap.Cell[string]]{slabmap.NewSmall[string, [16]slabmap.Cell[string]]()}, nil
	case 32:
		return smallStore[[32]slabmap.Cell[string]]{slabmap.NewSmall[string, [32]slabmap.Cell[string]]()}, nil
	default:
		return nil, fmt.Errorf("%w: %d (want one of %v)", ErrInlineSize, inline, ValidInlineSizes)
	}
}

type slabStore struct {
	*slabmap.SlabMap[string]
}

func (slabStore) Promoted() bool { return true }

func (s slabStore) drain() []entry {
	d := s.Drain()
	out := make([]entry, 0, d.Len())

	for key, value := range d.All() {
		out = append(out, entry{Key: key, Value: value})
	}

	return out
}

type smallStore[A slabmap.InlineArray[string]] struct {
	*slabmap.SmallSlabMap[string, A]
}

func (s smallStore[A]) drain() []entry {
	d := s.Drain()
	out := make([]entry, 0, d.Len())

	for key, value := range d.All() {
		out = append(out, entry{Key: key, Value: value})
	}

	return out
}
