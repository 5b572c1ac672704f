package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/rowanlane/cleave/internal/output"
	"github.com/rowanlane/cleave/pkg/config"
)

// getPath returns the positional path argument, defaulting to ".".
func getPath(c *cli.Context) (string, error) {
	path := "."
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	return abs, nil
}

// loadConfig loads the config file named by --config, or the defaults, and
// applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	return cfg, nil
}

// newFormatter builds the output formatter from config and global flags.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	return output.NewFormatter(
		output.ParseFormat(cfg.Output.Format),
		c.String("output"),
		cfg.Output.Color,
	)
}

// progressEnabled reports whether progress bars should render: text format,
// not quiet, not writing to a file.
func progressEnabled(c *cli.Context, cfg *config.Config) bool {
	return !c.Bool("quiet") && c.String("output") == "" &&
		output.ParseFormat(cfg.Output.Format) == output.FormatText
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
