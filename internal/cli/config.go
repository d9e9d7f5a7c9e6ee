package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/slabmap/internal/shell"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Inline            int    `json:"inline"`
	HistoryFile       string `json:"history_file,omitempty"`
	LogLevel          string `json:"log_level,omitempty"`
	LogFormat         string `json:"log_format,omitempty"`
	AutoOptimizeEvery int    `json:"auto_optimize_every"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project or explicit config if loaded, empty otherwise
}

// ConfigOverlay is a partial config. Nil fields leave the value below them
// untouched, so a file or flag can set inline to 0.
type ConfigOverlay struct {
	Inline            *int    `json:"inline"`
	HistoryFile       *string `json:"history_file"`
	LogLevel          *string `json:"log_level"`
	LogFormat         *string `json:"log_format"`
	AutoOptimizeEvery *int    `json:"auto_optimize_every"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Inline:    0,
		LogLevel:  "off",
		LogFormat: "text",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".slabby.json"

// historyFileName is created in $HOME when no history_file is configured.
const historyFileName = ".slabby_history"

var logLevels = []string{"off", "debug", "info", "warn", "error"}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/slabby/config.json if set, otherwise
// ~/.config/slabby/config.json. Empty if neither variable is set.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "slabby", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "slabby", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       ConfigOverlay     // values of flags given on the command line
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/slabby/config.json or $XDG_CONFIG_HOME/slabby/config.json)
// 3. Project config file at default location (.slabby.json, if exists)
// 4. Explicit config file via ConfigPath (replaces 3)
// 5. CLI overrides.
//
// A relative history_file is resolved against the working directory.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
	}

	cfg := DefaultConfig()

	globalPath := getGlobalConfigPath(input.Env)
	if globalPath != "" {
		overlay, loaded, loadErr := loadConfigFile(globalPath, false)
		if loadErr != nil {
			return Config{}, loadErr
		}

		if loaded {
			cfg.Sources.Global = globalPath
			cfg = mergeConfig(cfg, overlay)
		}
	}

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	cfg = mergeConfig(cfg, input.Overrides)

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	cfg.EffectiveCwd = workDir
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	switch {
	case cfg.HistoryFile == "" && input.Env["HOME"] != "":
		cfg.HistoryFile = filepath.Join(input.Env["HOME"], historyFileName)
	case cfg.HistoryFile != "" && !filepath.IsAbs(cfg.HistoryFile):
		cfg.HistoryFile = filepath.Join(workDir, cfg.HistoryFile)
	}

	return cfg, nil
}

// loadProjectConfig loads the project config file (.slabby.json) or an
// explicit config file. Returns the overlay, the path if loaded, and any error.
func loadProjectConfig(workDir, configPath string) (ConfigOverlay, string, error) {
	if configPath == "" {
		cfgFile := filepath.Join(workDir, ConfigFileName)

		overlay, loaded, err := loadConfigFile(cfgFile, false)
		if err != nil || !loaded {
			return ConfigOverlay{}, "", err
		}

		return overlay, cfgFile, nil
	}

	cfgFile := configPath
	if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(workDir, cfgFile)
	}

	// Check existence first to provide a clear "not found" error
	_, statErr := os.Stat(cfgFile)
	if statErr != nil {
		return ConfigOverlay{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	overlay, _, err := loadConfigFile(cfgFile, true)
	if err != nil {
		return ConfigOverlay{}, "", err
	}

	return overlay, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, a missing file
// is not an error and reports loaded=false.
func loadConfigFile(path string, mustExist bool) (ConfigOverlay, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return ConfigOverlay{}, false, nil
		}

		return ConfigOverlay{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	overlay, err := parseConfig(data)
	if err != nil {
		return ConfigOverlay{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return overlay, true, nil
}

func parseConfig(data []byte) (ConfigOverlay, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return ConfigOverlay{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var overlay ConfigOverlay

	err = json.Unmarshal(standardized, &overlay)
	if err != nil {
		return ConfigOverlay{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return overlay, nil
}

func mergeConfig(base Config, overlay ConfigOverlay) Config {
	if overlay.Inline != nil {
		base.Inline = *overlay.Inline
	}

	if overlay.HistoryFile != nil {
		base.HistoryFile = *overlay.HistoryFile
	}

	if overlay.LogLevel != nil {
		base.LogLevel = *overlay.LogLevel
	}

	if overlay.LogFormat != nil {
		base.LogFormat = *overlay.LogFormat
	}

	if overlay.AutoOptimizeEvery != nil {
		base.AutoOptimizeEvery = *overlay.AutoOptimizeEvery
	}

	return base
}

func validateConfig(cfg Config) error {
	if !slices.Contains(shell.ValidInlineSizes, cfg.Inline) {
		return fmt.Errorf("%w: %d (want one of %v)", shell.ErrInlineSize, cfg.Inline, shell.ValidInlineSizes)
	}

	if cfg.AutoOptimizeEvery < 0 {
		return fmt.Errorf("auto_optimize_every must not be negative, got %d", cfg.AutoOptimizeEvery)
	}

	if cfg.LogLevel != "" && !slices.Contains(logLevels, strings.ToLower(cfg.LogLevel)) {
		return fmt.Errorf("%w, got %q", ErrLogLevel, cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w, got %q", ErrLogFormat, cfg.LogFormat)
	}

	return nil
}

// FormatConfig renders the effective configuration as key=value lines
// followed by the loaded sources.
func FormatConfig(cfg Config) string {
	var b strings.Builder

	line := func(key, value string) {
		b.WriteString(key + "=" + value + "\n")
	}

	line("effective_cwd", cfg.EffectiveCwd)
	line("inline", strconv.Itoa(cfg.Inline))
	line("auto_optimize_every", strconv.Itoa(cfg.AutoOptimizeEvery))
	line("log_level", cfg.LogLevel)
	line("log_format", cfg.LogFormat)

	if cfg.HistoryFile != "" {
		line("history_file", cfg.HistoryFile)
	}

	b.WriteString("\n# sources\n")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		b.WriteString("(defaults only)\n")
	}

	if cfg.Sources.Global != "" {
		line("global_config", cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		line("project_config", cfg.Sources.Project)
	}

	return strings.TrimSuffix(b.String(), "\n")
}
