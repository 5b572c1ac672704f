package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "cleave",
		Usage:   "Automated splitting of oversized Python modules",
		Version: version,
		Description: `Cleave finds oversized Python source files, analyzes which
responsibilities they mix, and splits them into focused modules while
keeping every existing import working.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CLEAVE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress bars",
			},
		},
		Commands: []*cli.Command{
			scanCmd(),
			analyzeCmd(),
			recommendCmd(),
			splitCmd(),
			workflowCmd(),
			rollbackCmd(),
			backupsCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
