package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
)

// Prompt is shown before each interactive command.
const Prompt = "slabby> "

// RunInteractive reads commands from the terminal with line editing, tab
// completion and history until exit, EOF or Ctrl-C. Command errors are
// printed and the loop continues.
//
// historyFile may be empty to disable history.
func (s *Shell) RunInteractive(ctx context.Context, historyFile string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	s.printf("slabby - slab map shell (%s). Type 'help' for commands.\n", s.describe())

	var runErr error

	for ctx.Err() == nil {
		input, err := line.Prompt(Prompt)
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				runErr = fmt.Errorf("reading input: %w", err)
			}

			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		err = s.Exec(ctx, input)
		if errors.Is(err, ErrQuit) {
			break
		}

		if err != nil {
			s.printf("error: %v\n", err)
		}
	}

	if historyFile != "" {
		err := saveHistory(line, historyFile)
		if err != nil {
			s.log.WarnContext(ctx, "saving history failed", "path", historyFile, "error", err)
		}
	}

	return runErr
}

// RunScript executes one command per line from r and stops at the first
// failing command. "exit" ends the script without error.
func (s *Shell) RunScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		err := ctx.Err()
		if err != nil {
			return err
		}

		err = s.Exec(ctx, scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	return nil
}

// RunCommands executes ';'-separated commands, as given to "slabby exec".
func (s *Shell) RunCommands(ctx context.Context, commands string) error {
	return s.RunScript(ctx, strings.NewReader(strings.ReplaceAll(commands, ";", "\n")))
}

func (s *Shell) describe() string {
	if s.opts.Inline == 0 {
		return "heap"
	}

	return fmt.Sprintf("inline=%d", s.opts.Inline)
}

func complete(line string) []string {
	var out []string

	lower := strings.ToLower(line)
	for _, name := range CommandNames() {
		if strings.HasPrefix(name, lower) {
			out = append(out, name)
		}
	}

	return out
}

func saveHistory(line *liner.State, path string) error {
	var buf bytes.Buffer

	_, err := line.WriteHistory(&buf)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return err
	}

	return atomic.WriteFile(path, &buf)
}
