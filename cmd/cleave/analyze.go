package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/rowanlane/cleave/internal/output"
	"github.com/rowanlane/cleave/internal/progress"
	"github.com/rowanlane/cleave/pkg/analyzer/source"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/refactor/workflow"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"an"},
		Usage:     "Analyze source structure and metrics",
		ArgsUsage: "[path|file]",
		Action:    runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	path, err := getPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot analyze %s: %w", path, err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if !info.IsDir() {
		return analyzeSingle(formatter, cfg, path)
	}
	return analyzeProject(c, formatter, cfg, path)
}

func analyzeSingle(formatter *output.Formatter, cfg *config.Config, path string) error {
	analyzer := source.New(cfg.Analyzer)
	defer analyzer.Close()

	fa, err := analyzer.AnalyzeFile(path)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	classRows := make([][]string, 0, len(fa.Classes))
	for _, class := range fa.Classes {
		classRows = append(classRows, []string{
			class.Name,
			fmt.Sprintf("%d-%d", class.StartLine, class.EndLine),
			fmt.Sprintf("%d", len(class.Methods)),
			fmt.Sprintf("%.0f", class.Complexity),
			truncate(class.Docstring, 40),
		})
	}

	report := &output.Report{
		Title: "Analysis: " + path,
		Parts: []output.Renderable{
			&output.Fields{
				Title: "Metrics",
				Pairs: [][2]string{
					{"Total lines", fmt.Sprintf("%d", fa.TotalLines)},
					{"Physical lines", fmt.Sprintf("%d", fa.PhysicalLines)},
					{"Complexity", fmt.Sprintf("%.0f", fa.Complexity)},
					{"Maintainability", fmt.Sprintf("%.1f", fa.Maintainability)},
					{"Classes", fmt.Sprintf("%d", len(fa.Classes))},
					{"Functions", fmt.Sprintf("%d", len(fa.Methods))},
					{"Imports", fmt.Sprintf("%d", len(fa.Imports))},
				},
			},
			&output.Table{
				Title:   "Classes",
				Headers: []string{"Name", "Lines", "Methods", "Complexity", "Docstring"},
				Rows:    classRows,
			},
		},
		Data: fa,
	}
	return formatter.Output(report)
}

func analyzeProject(c *cli.Context, formatter *output.Formatter, cfg *config.Config, root string) error {
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

	rows := make([][]string, 0, len(project))
	var totalLines int
	var unmaintainable []string
	for _, fa := range project {
		totalLines += fa.PhysicalLines
		mi := fmt.Sprintf("%.1f", fa.Maintainability)
		if fa.Maintainability < cfg.Risk.MaintainabilityLow {
			mi = color.YellowString("%.1f", fa.Maintainability)
			unmaintainable = append(unmaintainable, fa.Path)
		}
		rows = append(rows, []string{
			fa.Path,
			fmt.Sprintf("%d", fa.PhysicalLines),
			fmt.Sprintf("%.0f", fa.Complexity),
			mi,
			fmt.Sprintf("%d", len(fa.Classes)),
			fmt.Sprintf("%d", len(fa.Methods)),
		})
	}

	table := &output.Table{
		Title:   "Project Analysis",
		Headers: []string{"File", "Physical", "Complexity", "Maintainability", "Classes", "Functions"},
		Rows:    rows,
		Footer: []string{
			fmt.Sprintf("Files: %d", len(project)),
			fmt.Sprintf("Physical lines: %d", totalLines),
		},
		Data: project,
	}
	if err := formatter.Output(table); err != nil {
		return err
	}

	if len(unmaintainable) > 0 && formatter.Format() == output.FormatText {
		fmt.Fprintln(formatter.Writer())
		color.Yellow("Low maintainability (%d):", len(unmaintainable))
		for _, path := range unmaintainable {
			fmt.Fprintf(formatter.Writer(), "  - %s\n", path)
		}
	}
	return nil
}
