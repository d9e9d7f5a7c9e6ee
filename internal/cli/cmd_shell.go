package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/slabmap/internal/shell"
)

// ShellCmd returns the shell command. It is also what runs when slabby is
// started without a command.
func ShellCmd(cfg *Config, in io.Reader, logger *Logger) *Command {
	flags := flag.NewFlagSet("shell", flag.ContinueOnError)
	noHistory := flags.Bool("no-history", false, "Do not read or write the history file")

	return &Command{
		Flags: flags,
		Usage: "shell [flags]",
		Short: "Start the interactive shell (default)",
		Long: `Start an interactive shell over one slab map holding string values.

On a terminal the shell offers line editing, tab completion and history.
When stdin is not a terminal, commands are read one per line and the first
failing command stops the run.

Type 'help' inside the shell for the command list.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: %s", ErrTooManyArgs, strings.Join(args, " "))
			}

			sh, err := newShell(o, cfg, logger.WithCommand("shell"))
			if err != nil {
				return err
			}

			if isTerminal(in) {
				history := cfg.HistoryFile
				if *noHistory {
					history = ""
				}

				return sh.RunInteractive(ctx, history)
			}

			if in == nil {
				return nil
			}

			return sh.RunScript(ctx, in)
		},
	}
}

// ExecCmd returns the exec command, which runs ';'-separated shell commands.
func ExecCmd(cfg *Config, logger *Logger) *Command {
	return &Command{
		Flags: flag.NewFlagSet("exec", flag.ContinueOnError),
		Usage: "exec <commands>",
		Short: "Run ';'-separated shell commands and exit",
		Long: `Run shell commands separated by ';' against a fresh map and exit.
Arguments are joined with spaces first, so quoting is optional.

Example: slabby exec "insert a b c; remove 1; ls"`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: exec <commands>", shell.ErrUsage)
			}

			return runCommands(ctx, o, cfg, logger, strings.Join(args, " "))
		},
	}
}

func runCommands(ctx context.Context, o *IO, cfg *Config, logger *Logger, commands string) error {
	sh, err := newShell(o, cfg, logger.WithCommand("exec"))
	if err != nil {
		return err
	}

	return sh.RunCommands(ctx, commands)
}

func newShell(o *IO, cfg *Config, logger *Logger) (*shell.Shell, error) {
	sh, err := shell.New(o.Out(), shell.Options{
		Inline:            cfg.Inline,
		AutoOptimizeEvery: cfg.AutoOptimizeEvery,
		Logger:            logger.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("starting shell: %w", err)
	}

	return sh, nil
}

// isTerminal reports whether in is the process's stdin attached to a
// terminal. Line editing reads the terminal directly, so any other reader
// runs in script mode.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok || f != os.Stdin {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
