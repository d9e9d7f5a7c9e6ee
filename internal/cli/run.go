package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

type globalOptions struct {
	flags *flag.FlagSet

	help              bool
	cwd               string
	config            string
	exec              string
	inline            int
	autoOptimizeEvery int
	historyFile       string
	logLevel          string
	logFormat         string
}

func newGlobalOptions() *globalOptions {
	g := &globalOptions{flags: flag.NewFlagSet("slabby", flag.ContinueOnError)}

	fs := g.flags
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{}) // discard pflag output

	fs.BoolVarP(&g.help, "help", "h", false, "Show help")
	fs.StringVarP(&g.cwd, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&g.config, "config", "c", "", "Use specified config `file`")
	fs.StringVarP(&g.exec, "exec", "e", "", "Run ';'-separated shell `commands` and exit")
	fs.IntVar(&g.inline, "inline", 0, "Inline slots before moving to the heap, 0 for a plain slab map")
	fs.IntVar(&g.autoOptimizeEvery, "auto-optimize-every", 0, "Optimize after every `n` removals, 0 to disable")
	fs.StringVar(&g.historyFile, "history-file", "", "Shell history `file`")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level: off, debug, info, warn, error")
	fs.StringVar(&g.logFormat, "log-format", "", "Log format: text or json")

	return g
}

// overrides returns the config values of flags given on the command line.
func (g *globalOptions) overrides() ConfigOverlay {
	var o ConfigOverlay

	if g.flags.Changed("inline") {
		o.Inline = &g.inline
	}

	if g.flags.Changed("auto-optimize-every") {
		o.AutoOptimizeEvery = &g.autoOptimizeEvery
	}

	if g.flags.Changed("history-file") {
		o.HistoryFile = &g.historyFile
	}

	if g.flags.Changed("log-level") {
		o.LogLevel = &g.logLevel
	}

	if g.flags.Changed("log-format") {
		o.LogFormat = &g.logFormat
	}

	return o
}

// Run is the main entry point. Returns exit code.
//
// sigCh may be nil. A signal on it cancels the running command.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	global := newGlobalOptions()

	var cliArgs []string
	if len(args) > 1 {
		cliArgs = args[1:]
	}

	err := global.flags.Parse(cliArgs)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, global.flags)

		return 1
	}

	rest := global.flags.Args()

	if global.help || (len(rest) > 0 && (rest[0] == "help" || rest[0] == "-h" || rest[0] == "--help")) {
		printUsage(out, global.flags)

		return 0
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: global.cwd,
		ConfigPath:      global.config,
		Overrides:       global.overrides(),
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	logger, err := NewLogger(errOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)
	defer o.Finish()

	if global.exec != "" {
		if len(rest) > 0 {
			fprintln(errOut, "error:", fmt.Errorf("%w: --exec takes no command, got %q", ErrTooManyArgs, rest[0]))

			return 1
		}

		err = runCommands(ctx, o, &cfg, logger, global.exec)
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}

		return 0
	}

	commands := allCommands(&cfg, in, logger)

	name := "shell"
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}

	for _, cmd := range commands {
		if cmd.Name() == name {
			code := cmd.Run(ctx, o, rest)
			if code != 0 && errors.Is(ctx.Err(), context.Canceled) {
				logger.DebugContext(ctx, "interrupted", "command", name)
			}

			return code
		}
	}

	fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
	fprintln(errOut)
	printUsage(errOut, global.flags)

	return 1
}

func allCommands(cfg *Config, in io.Reader, logger *Logger) []*Command {
	return []*Command{
		ShellCmd(cfg, in, logger),
		ExecCmd(cfg, logger),
		BenchCmd(cfg, logger),
		PrintConfigCmd(cfg),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fprintln(w, `slabby - slab map shell

Usage: slabby [flags] [command] [args]

Global flags:`)
	_, _ = io.WriteString(w, global.FlagUsages())

	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range allCommands(&Config{}, nil, NoopLogger()) {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Run 'slabby <command> --help' for command flags.")
}
