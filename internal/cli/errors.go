package cli

import "errors"

// Error variables for configuration and flag handling.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrTooManyArgs        = errors.New("too many arguments")
	ErrLogLevel           = errors.New("log_level must be one of off, debug, info, warn, error")
	ErrLogFormat          = errors.New("log_format must be text or json")
)
