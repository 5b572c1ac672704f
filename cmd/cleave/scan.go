package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/rowanlane/cleave/internal/output"
	"github.com/rowanlane/cleave/internal/progress"
	"github.com/rowanlane/cleave/internal/scanner"
	"github.com/rowanlane/cleave/pkg/analyzer/detector"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Find oversized source files",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "Physical line threshold (overrides config)",
			},
		},
		Action: runScan,
	}
}

func runScan(c *cli.Context) error {
	root, err := getPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("threshold") {
		cfg.Detector.OversizedLines = c.Int("threshold")
	}

	files, err := scanner.New(cfg).ScanDir(root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	tracker := progress.NewTracker("Counting lines...", len(files), progressEnabled(c, cfg))
	det := detector.New(cfg.Detector)
	oversized, summary := det.Detect(files, tracker.Tick)
	tracker.Finish()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(oversized))
	for _, f := range oversized {
		rows = append(rows, []string{
			f.Path,
			fmt.Sprintf("%d", f.PhysicalLines),
			fmt.Sprintf("%d", f.TotalLines),
		})
	}

	table := &output.Table{
		Title:   "Oversized Files",
		Headers: []string{"File", "Physical Lines", "Total Lines"},
		Rows:    rows,
		Footer: []string{
			fmt.Sprintf("Scanned: %d", summary.FilesScanned),
			fmt.Sprintf("Oversized: %d (> %d lines)", summary.OversizedN, summary.Threshold),
			fmt.Sprintf("Mean: %.0f  Median: %.0f  StdDev: %.0f  Max: %d",
				summary.MeanLines, summary.MedianLines, summary.StdDevLines, summary.MaxLines),
		},
		Data: map[string]any{"oversized": oversized, "summary": summary},
	}

	if err := formatter.Output(table); err != nil {
		return err
	}
	if len(oversized) == 0 && formatter.Format() == output.FormatText {
		formatter.Success("No files exceed %d physical lines", summary.Threshold)
	}
	return nil
}
