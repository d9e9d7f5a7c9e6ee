package testutil

// OpGenConfig tunes the probabilities of OpGenerator.
// All rate fields are percentages (0–100); whatever is left over goes to
// Insert.
//
// Determinism: All weighting decisions consume bytes from the ByteStream,
// so fuzz minimization and fixed seeds remain stable.
type OpGenConfig struct {
	// RemoveRate is the percentage of ops that should be Remove. Default: 30.
	RemoveRate int

	// GetRate is the percentage of ops that should be Get or Set. Default: 10.
	GetRate int

	// RetainRate is the percentage of ops that should be Retain. Default: 3.
	RetainRate int

	// OptimizeRate is the percentage of ops that should be Optimize.
	// Default: 5.
	OptimizeRate int

	// ReserveRate is the percentage of ops that should be Reserve. Default: 3.
	ReserveRate int

	// ResetRate is the percentage of ops that should be Clear, Drain, or
	// Clone. Keep it low so the maps get deep. Default: 2.
	ResetRate int

	// AbsentKeyRate is the percentage of Remove/Get keys that are drawn
	// from outside the live set (negative, vacant, or past the end).
	// Default: 15.
	AbsentKeyRate int
}

// DefaultOpGenConfig returns the config used by the fuzz tests.
func DefaultOpGenConfig() OpGenConfig {
	return OpGenConfig{
		RemoveRate:    30,
		GetRate:       10,
		RetainRate:    3,
		OptimizeRate:  5,
		ReserveRate:   3,
		ResetRate:     2,
		AbsentKeyRate: 15,
	}
}

// ChurnOpGenConfig removes almost as often as it inserts, so the free list
// and vacant runs carry most of the state.
func ChurnOpGenConfig() OpGenConfig {
	return OpGenConfig{
		RemoveRate:    42,
		GetRate:       5,
		RetainRate:    2,
		OptimizeRate:  8,
		ReserveRate:   1,
		ResetRate:     1,
		AbsentKeyRate: 5,
	}
}

// OpGenerator turns a byte stream into operations. It implements OpSource
// for use with RunBehavior.
type OpGenerator struct {
	stream *ByteStream
	config OpGenConfig
}

// NewOpGenerator creates an OpGenerator with the given config.
func NewOpGenerator(fuzzBytes []byte, cfg *OpGenConfig) *OpGenerator {
	return &OpGenerator{
		stream: NewByteStream(fuzzBytes),
		config: *cfg,
	}
}

// HasMore reports whether more fuzz bytes remain.
func (g *OpGenerator) HasMore() bool {
	return g.stream.HasMore()
}

// NextOp implements OpSource.
func (g *OpGenerator) NextOp(h *Harness) Operation {
	roulette := g.stream.NextIntn(100)
	cfg := g.config

	threshold := cfg.RemoveRate
	if roulette < threshold {
		return OpRemove{Key: g.genKey(h)}
	}

	threshold += cfg.GetRate
	if roulette < threshold {
		key := g.genKey(h)
		if g.stream.NextByte()%2 == 0 {
			return OpGet{Key: key}
		}

		return OpSet{Key: key, Value: int(g.stream.NextUint16())}
	}

	threshold += cfg.RetainRate
	if roulette < threshold {
		mod := 2 + g.stream.NextIntn(5)

		return OpRetain{Mod: mod, Drop: g.stream.NextIntn(mod), Bump: g.stream.NextIntn(3)}
	}

	threshold += cfg.OptimizeRate
	if roulette < threshold {
		return OpOptimize{}
	}

	threshold += cfg.ReserveRate
	if roulette < threshold {
		return OpReserve{Additional: g.stream.NextIntn(64)}
	}

	threshold += cfg.ResetRate
	if roulette < threshold {
		switch g.stream.NextIntn(3) {
		case 0:
			return OpClear{}
		case 1:
			return OpDrain{}
		default:
			return OpClone{}
		}
	}

	if g.stream.NextByte()%8 == 0 {
		return OpInsertWithKey{Factor: 1 + g.stream.NextIntn(7)}
	}

	return OpInsert{Value: int(g.stream.NextUint16())}
}

// genKey picks a live key most of the time so removals hit.
func (g *OpGenerator) genKey(h *Harness) int {
	keys := h.Model.Keys()

	if len(keys) == 0 || g.stream.NextIntn(100) < g.config.AbsentKeyRate {
		span := 2
		if len(keys) > 0 {
			span += keys[len(keys)-1]
		}

		// Lands on -1, a vacant slot, or up to two slots past the end.
		return g.stream.NextIntn(span+2) - 1
	}

	return keys[g.stream.NextIntn(len(keys))]
}
