package shell

import "errors"

var (
	// ErrUnknownCommand is returned by [Shell.Exec] for a command name it
	// does not know.
	//
	// Recovery: run "help" for the command list.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage is returned when a command's arguments are missing or
	// malformed. The message carries the command's usage line.
	ErrUsage = errors.New("usage")

	// ErrInlineSize is returned for an inline size the containers do not
	// provide.
	//
	// Recovery: use one of [ValidInlineSizes].
	ErrInlineSize = errors.New("invalid inline size")

	// ErrQuit is returned by [Shell.Exec] for "exit" and "quit". Loops
	// treat it as a normal stop.
	ErrQuit = errors.New("quit")
)
