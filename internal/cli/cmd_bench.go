package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/slabmap/internal/shell"
)

const defaultBenchCount = 100_000

// BenchCmd returns the bench command.
func BenchCmd(cfg *Config, logger *Logger) *Command {
	flags := flag.NewFlagSet("bench", flag.ContinueOnError)
	count := flags.IntP("count", "n", defaultBenchCount, "Entries inserted per worker")
	workers := flags.IntP("workers", "w", 1, "Concurrent workers, each with its own map")

	return &Command{
		Flags: flags,
		Usage: "bench [flags]",
		Short: "Benchmark insert, remove, optimize and drain",
		Long: `Fill a fresh map per worker, remove every other entry, optimize,
refill the gaps and drain. Reports the slowest worker per phase and the
process peak RSS where the platform provides it.

The container follows the inline setting.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: %s", ErrTooManyArgs, strings.Join(args, " "))
			}

			if *workers > runtime.NumCPU() {
				o.Warn(fmt.Sprintf("%d workers on %d CPUs", *workers, runtime.NumCPU()),
					"timings include scheduling contention, lower --workers for per-map numbers")
			}

			log := logger.WithCommand("bench")
			log.DebugContext(ctx, "bench start", "count", *count, "workers", *workers, "inline", cfg.Inline)

			result, err := shell.Bench(ctx, shell.BenchOptions{
				Count:   *count,
				Workers: *workers,
				Inline:  cfg.Inline,
			})
			if err != nil {
				return err
			}

			log.DebugContext(ctx, "bench done", "max_rss", result.MaxRSS)
			result.Print(o.Out())

			return nil
		},
	}
}
