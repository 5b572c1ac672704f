package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/rowanlane/cleave/internal/output"
	"github.com/rowanlane/cleave/pkg/analyzer/split"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
	"github.com/rowanlane/cleave/pkg/refactor/extractor"
	"github.com/rowanlane/cleave/pkg/refactor/workflow"
)

func splitCmd() *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "Split one file along its qualifying recommendations",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Validate and report without writing files",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Pick the recommendation with this target module",
			},
		},
		Action: runSplit,
	}
}

func runSplit(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("split requires a file argument")
	}
	path, err := filepath.Abs(c.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	orch := workflow.New(cfg, filepath.Dir(path))
	project, err := orch.AnalyzeProject(nil)
	if err != nil {
		return err
	}

	var fa *models.FileAnalysis
	for _, candidate := range project {
		if candidate.Path == path {
			fa = candidate
			break
		}
	}
	if fa == nil {
		return fmt.Errorf("%s was not analyzable", path)
	}

	var result *models.SplitResult
	var fixups []models.ImportUpdate

	if target := c.String("target"); target != "" {
		// Explicit target: run exactly that one extraction.
		rec, err := pickRecommendation(split.New(cfg).Recommend(fa), target)
		if err != nil {
			return err
		}

		ext := extractor.New(cfg.Split)
		defer ext.Close()

		plan, err := ext.Plan(fa, *rec)
		if err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}
		result, err = ext.Execute(plan, fa.Path, c.Bool("dry-run"))
		if err != nil {
			return fmt.Errorf("split failed: %w", err)
		}
		fixups = extractor.ImportFixups(project, parser.ModuleName(fa.Path), plan)
	} else {
		result, fixups = orch.Split(fa, project, c.Bool("dry-run"))
		if result.Error != "" {
			return fmt.Errorf("split failed: %s", result.Error)
		}
		if len(result.NewFiles) == 0 {
			return fmt.Errorf("no split recommendations for this file")
		}
	}
	result.ImportUpdates = fixups

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return reportSplit(formatter, result, fixups)
}

func pickRecommendation(recs []models.SplitRecommendation, target string) (*models.SplitRecommendation, error) {
	for i := range recs {
		if recs[i].TargetModule == target {
			return &recs[i], nil
		}
	}
	return nil, fmt.Errorf("no recommendation targets module %s", target)
}

func reportSplit(formatter *output.Formatter, result *models.SplitResult, fixups []models.ImportUpdate) error {
	title := "Split Complete"
	if result.DryRun {
		title = "Split (dry run)"
	}

	parts := []output.Renderable{
		&output.Fields{
			Title: title,
			Pairs: [][2]string{
				{"New files", fmt.Sprintf("%v", result.NewFiles)},
				{"Moved classes", fmt.Sprintf("%v", result.MovedClasses)},
				{"Moved functions", fmt.Sprintf("%v", result.MovedFunctions)},
			},
		},
	}

	if len(fixups) > 0 {
		rows := make([][]string, 0, len(fixups))
		for _, fix := range fixups {
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", fix.File, fix.Line),
				fix.Old,
				fix.New,
			})
		}
		parts = append(parts, &output.Table{
			Title:   "Dependent imports to update",
			Headers: []string{"Location", "Current", "Replacement"},
			Rows:    rows,
		})
	}

	return formatter.Output(&output.Report{Parts: parts, Data: result})
}
