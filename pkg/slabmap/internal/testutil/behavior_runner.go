package testutil

import (
	"math/rand/v2"
	"testing"
)

// DefaultMaxFuzzOperations is the default maximum number of operations
// to run in a single fuzz iteration or deterministic behavior test.
const DefaultMaxFuzzOperations = 300

// BehaviorRunConfig configures a model-vs-real behavior test run.
type BehaviorRunConfig struct {
	// MaxOps is the maximum number of operations to execute.
	MaxOps int

	// CompareEveryN runs CompareState every N operations (0 to disable).
	// State is also compared after every Optimize, Retain, Drain, and Clone.
	CompareEveryN int
}

// OpSource produces operations for RunBehavior.
type OpSource interface {
	NextOp(h *Harness) Operation
}

// RunBehavior executes a deterministic stream of operations and compares
// the public API behavior between the model and the real container.
func RunBehavior(tb testing.TB, k Kind, src OpSource, cfg BehaviorRunConfig) *Harness {
	tb.Helper()

	if cfg.MaxOps <= 0 {
		tb.Fatalf("RunBehavior requires MaxOps > 0")
	}

	harness := NewHarness(tb, k)

	for opIndex := 1; opIndex <= cfg.MaxOps; opIndex++ {
		operationValue := src.NextOp(harness)

		modelResult := ApplyModel(harness, operationValue)
		realResult := ApplyReal(harness, operationValue)

		AssertOpMatch(tb, operationValue, modelResult, realResult)

		if shouldCompare(operationValue, opIndex, cfg) {
			CompareState(tb, harness)
		}
	}

	CompareState(tb, harness)

	return harness
}

func shouldCompare(operationValue Operation, opIndex int, cfg BehaviorRunConfig) bool {
	if cfg.CompareEveryN > 0 && opIndex%cfg.CompareEveryN == 0 {
		return true
	}

	switch operationValue.(type) {
	case OpOptimize, OpRetain, OpDrain, OpClone:
		return true
	default:
		return false
	}
}

// SeededSource adapts a seeded PCG generator into an OpSource, for
// deterministic tests that want long runs without hand-written bytes.
type SeededSource struct {
	gen *OpGenerator
	rng *rand.Rand
	buf []byte
}

// NewSeededSource returns a SeededSource for seed using cfg.
func NewSeededSource(seed uint64, cfg *OpGenConfig) *SeededSource {
	return &SeededSource{
		gen: NewOpGenerator(nil, cfg),
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		buf: make([]byte, 16),
	}
}

// NextOp implements OpSource.
func (s *SeededSource) NextOp(h *Harness) Operation {
	for i := range s.buf {
		s.buf[i] = byte(s.rng.Uint32())
	}

	s.gen.stream = NewByteStream(s.buf)

	return s.gen.NextOp(h)
}
