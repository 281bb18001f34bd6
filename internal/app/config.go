package app

import "fmt"

// Config holds everything an App instance needs to run.
type Config struct {
	// RootDir is the repository root the declaration scan starts from.
	RootDir string
	// BuildIgnore holds gitignore-style patterns; declaration files under
	// matching paths are not loaded.
	BuildIgnore []string
	// UnownedFiles controls what happens when a file argument has no owning
	// target: "ignore", "warn", or "error".
	UnownedFiles string
	LogFormat    string
	LogLevel     string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("a repository root is required")
	}
	if cfg.UnownedFiles == "" {
		cfg.UnownedFiles = "error"
	}
	switch cfg.UnownedFiles {
	case "ignore", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid unowned-files value %q: must be 'ignore', 'warn', or 'error'", cfg.UnownedFiles)
	}
	return &cfg, nil
}
