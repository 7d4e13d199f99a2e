package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/turumba/docview/internal/config"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docview init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// logOutput is where session logs go: stderr with --verbose, nowhere otherwise.
func logOutput() io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}
