// Package shell implements the slabby command interpreter: a line-oriented
// front end to a single slab map holding string values.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
)

// Options configures a [Shell].
type Options struct {
	// Inline selects the container: 0 for a plain SlabMap, else the inline
	// size of a SmallSlabMap (see [ValidInlineSizes]).
	Inline int

	// AutoOptimizeEvery runs Optimize after that many removals. 0 disables.
	AutoOptimizeEvery int

	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger
}

// Shell holds one container and executes commands against it.
type Shell struct {
	store    store
	opts     Options
	out      io.Writer
	log      *slog.Logger
	removals int
	promoted bool
}

type command struct {
	usage string
	short string
	run   func(s *Shell, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"insert <value>...", "Insert values and print their keys", (*Shell).cmdInsert},
		{"get <key>", "Print the value at key", (*Shell).cmdGet},
		{"remove <key>...", "Remove entries by key", (*Shell).cmdRemove},
		{"ls [limit]", "List entries in key order", (*Shell).cmdList},
		{"keys", "Print all keys", (*Shell).cmdKeys},
		{"len", "Print the number of entries", (*Shell).cmdLen},
		{"cap", "Print the capacity", (*Shell).cmdCap},
		{"info", "Show container state", (*Shell).cmdInfo},
		{"retain <even|odd|lt N|gt N>", "Keep entries whose key matches", (*Shell).cmdRetain},
		{"optimize", "Merge vacant slots into runs", (*Shell).cmdOptimize},
		{"clear", "Remove all entries, keep capacity", (*Shell).cmdClear},
		{"drain", "Remove and print all entries", (*Shell).cmdDrain},
		{"reserve <n>", "Make room for n more entries", (*Shell).cmdReserve},
		{"dump <file>", "Write entries to file atomically", (*Shell).cmdDump},
		{"bench <count> [workers]", "Insert/remove benchmark on fresh containers", (*Shell).cmdBench},
		{"help", "Show this help", (*Shell).cmdHelp},
		{"exit", "Leave the shell", func(*Shell, context.Context, []string) error { return ErrQuit }},
	}
}

func (c command) name() string {
	name, _, _ := strings.Cut(c.usage, " ")

	return name
}

// CommandNames returns the command names in help order.
func CommandNames() []string {
	names := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		names = append(names, c.name())
	}

	return append(names, "quit")
}

// New returns a shell writing command output to out.
func New(out io.Writer, opts Options) (*Shell, error) {
	st, err := newStore(opts.Inline)
	if err != nil {
		return nil, err
	}

	if opts.AutoOptimizeEvery < 0 {
		return nil, fmt.Errorf("%w: auto optimize interval must not be negative, got %d", ErrUsage, opts.AutoOptimizeEvery)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Shell{
		store:    st,
		opts:     opts,
		out:      out,
		log:      logger,
		promoted: st.Promoted(),
	}, nil
}

// Exec runs one command line. Empty lines and lines starting with '#' are
// ignored. It returns [ErrQuit] for "exit" and "quit".
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	name := strings.ToLower(fields[0])
	if name == "quit" || name == "q" {
		name = "exit"
	}

	for _, c := range commands {
		if c.name() != name {
			continue
		}

		err := c.run(s, ctx, fields[1:])
		if err != nil && !errors.Is(err, ErrQuit) {
			s.log.DebugContext(ctx, "command failed", "line", line, "error", err)
		}

		return err
	}

	return fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, fields[0])
}

func (s *Shell) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func usageError(usage string) error {
	return fmt.Errorf("%w: %s", ErrUsage, usage)
}

func parseKeys(args []string, usage string) ([]int, error) {
	if len(args) == 0 {
		return nil, usageError(usage)
	}

	keys := make([]int, 0, len(args))

	for _, arg := range args {
		key, err := strconv.Atoi(arg)
		if err != nil || key < 0 {
			return nil, fmt.Errorf("%w: key must be a non-negative integer, got %q", ErrUsage, arg)
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (s *Shell) notePromotion(ctx context.Context) {
	if !s.promoted && s.store.Promoted() {
		s.promoted = true
		s.log.DebugContext(ctx, "promoted to heap", "len", s.store.Len(), "capacity", s.store.Capacity())
	}
}

func (s *Shell) cmdInsert(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("insert <value>...")
	}

	for _, value := range args {
		s.printf("%d\n", s.store.Insert(value))
		s.notePromotion(ctx)
	}

	return nil
}

func (s *Shell) cmdGet(_ context.Context, args []string) error {
	keys, err := parseKeys(args, "get <key>")
	if err != nil {
		return err
	}

	if len(keys) != 1 {
		return usageError("get <key>")
	}

	value, ok := s.store.Get(keys[0])
	if !ok {
		s.printf("(not found)\n")

		return nil
	}

	s.printf("%s\n", value)

	return nil
}

func (s *Shell) cmdRemove(ctx context.Context, args []string) error {
	keys, err := parseKeys(args, "remove <key>...")
	if err != nil {
		return err
	}

	for _, key := range keys {
		value, ok := s.store.Remove(key)
		if !ok {
			s.printf("%d: not found\n", key)

			continue
		}

		s.printf("%d: %s\n", key, value)
		s.removals++

		if s.opts.AutoOptimizeEvery > 0 && s.removals >= s.opts.AutoOptimizeEvery {
			s.store.Optimize()
			s.log.DebugContext(ctx, "auto optimize", "removals", s.removals, "len", s.store.Len())
			s.removals = 0
		}
	}

	return nil
}

func (s *Shell) cmdList(_ context.Context, args []string) error {
	limit := -1

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return usageError("ls [limit]")
		}

		limit = n
	}

	shown := 0

	for key, value := range s.store.All() {
		if shown == limit {
			break
		}

		s.printf("%d\t%s\n", key, value)
		shown++
	}

	if shown == 0 {
		s.printf("(empty)\n")
	}

	return nil
}

func (s *Shell) cmdKeys(_ context.Context, _ []string) error {
	keys := make([]string, 0, s.store.Len())
	for key := range s.store.Keys() {
		keys = append(keys, strconv.Itoa(key))
	}

	s.printf("%s\n", strings.Join(keys, " "))

	return nil
}

func (s *Shell) cmdLen(_ context.Context, _ []string) error {
	s.printf("%d\n", s.store.Len())

	return nil
}

func (s *Shell) cmdCap(_ context.Context, _ []string) error {
	s.printf("%d\n", s.store.Capacity())

	return nil
}

func (s *Shell) cmdInfo(_ context.Context, _ []string) error {
	storage := "heap"
	if !s.store.Promoted() {
		storage = "inline"
	}

	s.printf("len=%d cap=%d storage=%s inline=%d auto_optimize_every=%d\n",
		s.store.Len(), s.store.Capacity(), storage, s.opts.Inline, s.opts.AutoOptimizeEvery)

	return nil
}

func (s *Shell) cmdRetain(ctx context.Context, args []string) error {
	const usage = "retain <even|odd|lt N|gt N>"

	var keep func(key int) bool

	switch {
	case len(args) == 1 && args[0] == "even":
		keep = func(key int) bool { return key%2 == 0 }
	case len(args) == 1 && args[0] == "odd":
		keep = func(key int) bool { return key%2 == 1 }
	case len(args) == 2 && (args[0] == "lt" || args[0] == "gt"):
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError(usage)
		}

		if args[0] == "lt" {
			keep = func(key int) bool { return key < n }
		} else {
			keep = func(key int) bool { return key > n }
		}
	default:
		return usageError(usage)
	}

	before := s.store.Len()
	s.store.Retain(func(key int, _ *string) bool { return keep(key) })
	s.removals = 0

	s.log.DebugContext(ctx, "retain", "filter", strings.Join(args, " "), "removed", before-s.store.Len())
	s.printf("removed %d, kept %d\n", before-s.store.Len(), s.store.Len())

	return nil
}

func (s *Shell) cmdOptimize(ctx context.Context, _ []string) error {
	s.store.Optimize()
	s.removals = 0

	s.log.DebugContext(ctx, "optimize", "len", s.store.Len(), "capacity", s.store.Capacity())
	s.printf("ok\n")

	return nil
}

func (s *Shell) cmdClear(_ context.Context, _ []string) error {
	s.store.Clear()
	s.removals = 0
	s.printf("ok\n")

	return nil
}

func (s *Shell) cmdDrain(_ context.Context, _ []string) error {
	drained := s.store.drain()
	s.removals = 0

	for _, e := range drained {
		s.printf("%d\t%s\n", e.Key, e.Value)
	}

	s.printf("drained %d\n", len(drained))

	return nil
}

func (s *Shell) cmdReserve(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("reserve <n>")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return usageError("reserve <n>")
	}

	err = s.store.TryReserve(n)
	if err != nil {
		return fmt.Errorf("reserve %d: %w", n, err)
	}

	s.notePromotion(ctx)
	s.printf("cap=%d\n", s.store.Capacity())

	return nil
}

func (s *Shell) cmdDump(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("dump <file>")
	}

	var b strings.Builder

	for key, value := range s.store.All() {
		fmt.Fprintf(&b, "%d\t%s\n", key, value)
	}

	err := atomic.WriteFile(args[0], strings.NewReader(b.String()))
	if err != nil {
		return fmt.Errorf("dump %s: %w", args[0], err)
	}

	s.printf("wrote %d entries to %s\n", s.store.Len(), args[0])

	return nil
}

func (s *Shell) cmdBench(ctx context.Context, args []string) error {
	const usage = "bench <count> [workers]"

	if len(args) < 1 || len(args) > 2 {
		return usageError(usage)
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		return usageError(usage)
	}

	workers := 1
	if len(args) == 2 {
		workers, err = strconv.Atoi(args[1])
		if err != nil || workers < 1 {
			return usageError(usage)
		}
	}

	result, err := Bench(ctx, BenchOptions{Count: count, Workers: workers, Inline: s.opts.Inline})
	if err != nil {
		return err
	}

	result.Print(s.out)

	return nil
}

func (s *Shell) cmdHelp(_ context.Context, _ []string) error {
	s.printf("Commands:\n")

	for _, c := range commands {
		s.printf("  %-28s %s\n", c.usage, c.short)
	}

	return nil
}
