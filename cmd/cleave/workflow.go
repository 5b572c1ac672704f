package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/rowanlane/cleave/internal/output"
	"github.com/rowanlane/cleave/internal/progress"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/refactor/workflow"
)

func workflowCmd() *cli.Command {
	return &cli.Command{
		Name:      "workflow",
		Aliases:   []string{"wf"},
		Usage:     "Plan and execute a complete refactoring workflow",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Plan and validate without writing files",
			},
			&cli.BoolFlag{
				Name:  "vcs",
				Usage: "Enable git checks and staging (overrides config)",
			},
		},
		Action: runWorkflow,
	}
}

func runWorkflow(c *cli.Context) error {
	root, err := getPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("vcs") {
		cfg.Workflow.VCS = c.Bool("vcs")
	}
	dryRun := c.Bool("dry-run")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := workflow.New(cfg, root)
	files, err := orch.Scan()
	if err != nil {
		return err
	}

	tracker := progress.NewTracker("Analyzing...", len(files), progressEnabled(c, cfg))
	project := orch.AnalyzeFiles(files, tracker.Tick)
	tracker.Finish()

	ops := orch.Plan(project)
	result := orch.Execute(ctx, project, ops, dryRun)

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := reportWorkflow(formatter, ops, result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("workflow %s failed: %s", result.WorkflowID, result.Error)
	}
	return nil
}

func reportWorkflow(formatter *output.Formatter, ops []models.RefactoringOperation, result *models.WorkflowResult) error {
	opRows := make([][]string, 0, len(ops))
	for _, op := range ops {
		risk := string(op.Risk)
		if formatter.Format() == output.FormatText {
			risk = output.RiskColor(string(op.Risk), risk)
		}
		opRows = append(opRows, []string{
			truncate(op.ID, 8),
			op.Targets[0],
			strings.ReplaceAll(string(op.Type), "_", " "),
			risk,
			op.Estimate.Round(time.Second).String(),
			opStatus(op.ID, result),
		})
	}

	checkRows := make([][]string, 0, len(result.Validations))
	for _, check := range result.Validations {
		status := "ok"
		if !check.Success {
			status = "FAILED"
		}
		checkRows = append(checkRows, []string{string(check.Kind), status, check.Message})
	}

	parts := []output.Renderable{
		&output.Fields{
			Title: "Workflow " + result.WorkflowID,
			Pairs: [][2]string{
				{"Operations", fmt.Sprintf("%d planned, %d completed, %d failed",
					len(ops), len(result.Completed), len(result.Failed))},
				{"Files created", strings.Join(result.FilesCreated, ", ")},
				{"Files changed", strings.Join(result.FilesChanged, ", ")},
				{"Backup", result.BackupPath},
			},
		},
	}
	if len(opRows) > 0 {
		parts = append(parts, &output.Table{
			Title:   "Operations",
			Headers: []string{"ID", "Target", "Type", "Risk", "Estimate", "Status"},
			Rows:    opRows,
		})
	}
	if len(checkRows) > 0 {
		parts = append(parts, &output.Table{
			Title:   "Validations",
			Headers: []string{"Check", "Status", "Message"},
			Rows:    checkRows,
		})
	}

	if err := formatter.Output(&output.Report{Parts: parts, Data: result}); err != nil {
		return err
	}

	if formatter.Format() == output.FormatText {
		if result.Success {
			formatter.Success("Workflow succeeded")
		} else {
			formatter.Error("Workflow failed: %s", result.Error)
		}
	}
	return nil
}

func opStatus(id string, result *models.WorkflowResult) string {
	for _, done := range result.Completed {
		if done == id {
			return "completed"
		}
	}
	for _, failed := range result.Failed {
		if failed == id {
			return "failed"
		}
	}
	return "skipped"
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:      "rollback",
		Usage:     "Restore the files a workflow rewrote from its backup",
		ArgsUsage: "<workflow-id> [path]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("rollback requires a workflow id")
			}
			workflowID := c.Args().First()

			root := "."
			if c.Args().Len() > 1 {
				root = c.Args().Get(1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			info, err := workflow.New(cfg, root).Rollback(workflowID)
			if err != nil {
				return err
			}
			color.Green("Restored backup %s (taken %s)",
				info.BackupPath, info.Timestamp.Format(time.RFC3339))
			return nil
		},
	}
}

func backupsCmd() *cli.Command {
	return &cli.Command{
		Name:      "backups",
		Usage:     "List stored workflow backups",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			root, err := getPath(c)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			backups, err := workflow.New(cfg, root).ListBackups()
			if err != nil {
				return err
			}

			formatter, err := newFormatter(c, cfg)
			if err != nil {
				return err
			}
			defer formatter.Close()

			if len(backups) == 0 {
				formatter.Warning("No backups found")
				return nil
			}

			rows := make([][]string, 0, len(backups))
			for _, b := range backups {
				rows = append(rows, []string{
					b.WorkflowID,
					b.Timestamp.Format(time.RFC3339),
					b.BackupPath,
					truncate(b.Checksum, 16),
				})
			}
			return formatter.Output(&output.Table{
				Title:   "Workflow Backups",
				Headers: []string{"Workflow", "Taken", "Path", "Checksum"},
				Rows:    rows,
				Data:    backups,
			})
		},
	}
}
