package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/rowanlane/cleave/internal/output"
	"github.com/rowanlane/cleave/internal/progress"
	"github.com/rowanlane/cleave/pkg/analyzer/split"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/refactor/workflow"
)

func recommendCmd() *cli.Command {
	return &cli.Command{
		Name:      "recommend",
		Aliases:   []string{"rec"},
		Usage:     "Recommend how to split mixed-responsibility files",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "min-confidence",
				Usage: "Minimum recommendation confidence (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include files with no violations or recommendations",
			},
		},
		Action: runRecommend,
	}
}

func runRecommend(c *cli.Context) error {
	root, err := getPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("min-confidence") {
		cfg.Split.MinConfidence = c.Float64("min-confidence")
	}

	orch := workflow.New(cfg, root)
	files, err := orch.Scan()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	tracker := progress.NewTracker("Analyzing...", len(files), progressEnabled(c, cfg))
	project := orch.AnalyzeFiles(files, tracker.Tick)
	tracker.Finish()

	engine := split.New(cfg)
	var reports []*models.RefactoringRecommendation
	for _, fa := range project {
		report := engine.Report(fa, project)
		if !c.Bool("all") && len(report.Violations) == 0 && len(report.Splits) == 0 {
			continue
		}
		reports = append(reports, report)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(reports) == 0 {
		formatter.Success("No files need splitting")
		return nil
	}

	out := &output.Report{
		Title: "Split Recommendations",
		Data:  reports,
	}
	for _, report := range reports {
		out.Parts = append(out.Parts, recommendationParts(report)...)
	}
	return formatter.Output(out)
}

func recommendationParts(report *models.RefactoringRecommendation) []output.Renderable {
	fa := report.Analysis

	pairs := [][2]string{
		{"Physical lines", fmt.Sprintf("%d", fa.PhysicalLines)},
		{"Complexity", fmt.Sprintf("%.0f", fa.Complexity)},
		{"Maintainability", fmt.Sprintf("%.1f", fa.Maintainability)},
		{"Violations", summarizeViolations(report.Violations)},
		{"Public surface", fmt.Sprintf("%d lines", report.Surface.PublicSurfaceLines)},
		{"Private helpers", fmt.Sprintf("%d", report.Surface.PrivateHelpers)},
		{"Dependent files", fmt.Sprintf("%d", len(report.Impact.DependentFiles))},
	}

	rows := make([][]string, 0, len(report.Splits))
	for _, rec := range report.Splits {
		rows = append(rows, []string{
			rec.TargetModule,
			strings.Join(rec.Classes, ", "),
			fmt.Sprintf("%d (span %d)", rec.EstimatedLines, rec.SpanLines),
			fmt.Sprintf("%.1f", rec.Confidence),
			rec.Reason,
		})
	}

	parts := []output.Renderable{
		&output.Fields{Title: fa.Path, Pairs: pairs},
	}
	if len(rows) > 0 {
		parts = append(parts, &output.Table{
			Headers: []string{"Target Module", "Classes", "Est. Lines", "Confidence", "Reason"},
			Rows:    rows,
		})
	}
	return parts
}

func summarizeViolations(violations []string) string {
	if len(violations) == 0 {
		return "none"
	}
	return strings.Join(violations, "; ")
}
