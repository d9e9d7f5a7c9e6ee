package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrBenchOptions is returned by [Bench] for a non-positive count or worker
// number.
var ErrBenchOptions = errors.New("invalid bench options")

// ctxCheckEvery is how many operations a worker runs between context checks.
const ctxCheckEvery = 1024

// BenchOptions configures [Bench].
type BenchOptions struct {
	Count   int // entries inserted per worker
	Workers int // goroutines, each with its own container
	Inline  int // container selection, as in [Options]
}

// BenchResult reports the slowest worker's timing per phase.
type BenchResult struct {
	Count   int
	Workers int

	Insert   time.Duration
	Remove   time.Duration
	Optimize time.Duration
	Reinsert time.Duration
	Drain    time.Duration

	// MaxRSS is the process peak resident set size in bytes, 0 when the
	// platform does not report it.
	MaxRSS int64
}

type benchPhases struct {
	insert, remove, optimize, reinsert, drain time.Duration
}

// Bench fills, churns, compacts and drains one container per worker.
// Workers share no state. Cancelling ctx stops all of them.
func Bench(ctx context.Context, opts BenchOptions) (BenchResult, error) {
	if opts.Count < 1 || opts.Workers < 1 {
		return BenchResult{}, fmt.Errorf("%w: count=%d workers=%d", ErrBenchOptions, opts.Count, opts.Workers)
	}

	// Validate the inline size once instead of in every worker.
	_, err := newStore(opts.Inline)
	if err != nil {
		return BenchResult{}, err
	}

	phases := make([]benchPhases, opts.Workers)

	g, gctx := errgroup.WithContext(ctx)

	for w := range opts.Workers {
		g.Go(func() error {
			st, _ := newStore(opts.Inline)

			p, err := benchWorker(gctx, st, opts.Count)
			if err != nil {
				return err
			}

			phases[w] = p

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return BenchResult{}, fmt.Errorf("bench: %w", err)
	}

	result := BenchResult{Count: opts.Count, Workers: opts.Workers, MaxRSS: maxRSS()}

	for _, p := range phases {
		result.Insert = max(result.Insert, p.insert)
		result.Remove = max(result.Remove, p.remove)
		result.Optimize = max(result.Optimize, p.optimize)
		result.Reinsert = max(result.Reinsert, p.reinsert)
		result.Drain = max(result.Drain, p.drain)
	}

	return result, nil
}

func benchWorker(ctx context.Context, st store, count int) (benchPhases, error) {
	var p benchPhases

	keys := make([]int, 0, count)
	values := make([]string, count)

	for i := range values {
		values[i] = strconv.Itoa(i)
	}

	start := time.Now()

	for i := range count {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return p, ctx.Err()
		}

		keys = append(keys, st.Insert(values[i]))
	}

	p.insert = time.Since(start)

	// Remove every other entry, leaving a vacant slot between live ones.
	start = time.Now()

	for i := 0; i < len(keys); i += 2 {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return p, ctx.Err()
		}

		st.Remove(keys[i])
	}

	p.remove = time.Since(start)

	start = time.Now()
	st.Optimize()
	p.optimize = time.Since(start)

	start = time.Now()

	for i := 0; i < len(keys); i += 2 {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return p, ctx.Err()
		}

		st.Insert(values[i])
	}

	p.reinsert = time.Since(start)

	start = time.Now()
	drained := st.drain()
	p.drain = time.Since(start)

	if len(drained) != count {
		return p, fmt.Errorf("drained %d entries, want %d", len(drained), count)
	}

	return p, nil
}

// Print writes a human-readable report to w.
func (r BenchResult) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Results (%d entries x %d workers, slowest worker):\n", r.Count, r.Workers)

	phase := func(name string, ops int, d time.Duration) {
		rate := float64(ops) / max(d.Seconds(), 1e-9)
		_, _ = fmt.Fprintf(w, "  %-9s %8d ops in %-12v (%.0f ops/sec)\n", name+":", ops, d.Round(time.Microsecond), rate)
	}

	half := (r.Count + 1) / 2

	phase("insert", r.Count, r.Insert)
	phase("remove", half, r.Remove)
	_, _ = fmt.Fprintf(w, "  %-9s %v\n", "optimize:", r.Optimize.Round(time.Microsecond))
	phase("reinsert", half, r.Reinsert)
	phase("drain", r.Count, r.Drain)

	if r.MaxRSS > 0 {
		_, _ = fmt.Fprintf(w, "  max rss:  %.1f MiB\n", float64(r.MaxRSS)/(1<<20))
	}
}
