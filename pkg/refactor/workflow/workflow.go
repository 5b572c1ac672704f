// Package workflow orchestrates end-to-end refactoring: project analysis,
// operation planning with risk scoring, backup, sequential execution of
// splits, import re-scoping, and validation.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowanlane/cleave/internal/fileproc"
	"github.com/rowanlane/cleave/internal/scanner"
	"github.com/rowanlane/cleave/internal/symbolindex"
	"github.com/rowanlane/cleave/internal/testrunner"
	"github.com/rowanlane/cleave/internal/vcs"
	"github.com/rowanlane/cleave/pkg/analyzer/responsibility"
	"github.com/rowanlane/cleave/pkg/analyzer/source"
	"github.com/rowanlane/cleave/pkg/analyzer/split"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
	"github.com/rowanlane/cleave/pkg/refactor/extractor"
)

// Orchestrator runs complete refactoring workflows against a project root.
type Orchestrator struct {
	cfg    *config.Config
	root   string
	engine *split.Engine
	resp   *responsibility.Analyzer
}

// New creates a workflow orchestrator for the given project root.
func New(cfg *config.Config, root string) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		root:   root,
		engine: split.New(cfg),
		resp:   responsibility.New(cfg),
	}
}

// Scan lists the project's source files.
func (o *Orchestrator) Scan() ([]string, error) {
	files, err := scanner.New(o.cfg).ScanDir(o.root)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return files, nil
}

// AnalyzeFiles analyzes the given files concurrently. Unparsable files are
// skipped, never fatal.
func (o *Orchestrator) AnalyzeFiles(files []string, onProgress fileproc.ProgressFunc) []*models.FileAnalysis {
	shared := source.New(o.cfg.Analyzer)
	defer shared.Close()

	analyses := fileproc.MapFilesN(files, 0, func(psr *parser.Parser, path string) (*models.FileAnalysis, error) {
		return shared.AnalyzeFileWith(psr, path)
	}, onProgress, nil)

	sort.Slice(analyses, func(i, j int) bool { return analyses[i].Path < analyses[j].Path })
	return analyses
}

// AnalyzeProject scans and analyzes the whole project.
func (o *Orchestrator) AnalyzeProject(onProgress fileproc.ProgressFunc) ([]*models.FileAnalysis, error) {
	files, err := o.Scan()
	if err != nil {
		return nil, err
	}
	return o.AnalyzeFiles(files, onProgress), nil
}

// Plan selects which files enter the workflow and wraps each in a scored
// operation. A file qualifies when it exceeds the size or complexity gate
// or carries too many responsibility violations. Gated files with no split
// recommendation above the confidence floor are still surfaced, as
// not-applicable operations, so the plan accounts for every flagged file.
// Returned operations are ordered lowest risk first, the order Execute
// runs them in.
func (o *Orchestrator) Plan(project []*models.FileAnalysis) []models.RefactoringOperation {
	wf := o.cfg.Workflow
	var ops []models.RefactoringOperation

	for _, fa := range project {
		violations := o.resp.Violations(fa)
		if fa.PhysicalLines <= wf.GateLines &&
			fa.Complexity <= wf.GateComplexity &&
			len(violations) <= wf.GateViolations {
			continue
		}

		recs := o.qualifying(fa)
		if len(recs) == 0 {
			ops = append(ops, models.RefactoringOperation{
				ID:      uuid.NewString(),
				Type:    models.OpNotApplicable,
				Targets: []string{fa.Path},
				Description: fmt.Sprintf("%s exceeds the workflow gate but no split clears confidence %.1f: not applicable",
					fa.Path, o.cfg.Split.MinConfidence),
				Risk: models.RiskLow,
			})
			continue
		}

		names := make([]string, 0, len(recs))
		for _, rec := range recs {
			names = append(names, rec.TargetModule)
		}
		dependents := len(o.engine.Impact(fa, project).DependentFiles)
		ops = append(ops, models.RefactoringOperation{
			ID:      uuid.NewString(),
			Type:    models.OpSplitFile,
			Targets: []string{fa.Path},
			Description: fmt.Sprintf("split %s: extract %s (%s)",
				fa.Path, strings.Join(names, ", "), recs[0].Reason),
			Risk:     assessRisk(o.cfg.Risk, fa, dependents),
			Estimate: estimateDuration(wf, fa, dependents),
		})
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Risk.Weight() != ops[j].Risk.Weight() {
			return ops[i].Risk.Weight() < ops[j].Risk.Weight()
		}
		return ops[i].Targets[0] < ops[j].Targets[0]
	})

	return ops
}

// qualifying filters a file's recommendations down to those at or above the
// confidence floor, preserving the engine's confidence-descending order.
func (o *Orchestrator) qualifying(fa *models.FileAnalysis) []models.SplitRecommendation {
	var recs []models.SplitRecommendation
	for _, rec := range o.engine.Recommend(fa) {
		if rec.Confidence >= o.cfg.Split.MinConfidence {
			recs = append(recs, rec)
		}
	}
	return recs
}

// Execute runs the planned operations sequentially, lowest risk first.
// Writes never overlap: each split finishes before the next starts, and
// cross-file import re-scoping runs only after every split completed. A
// failed high-risk operation aborts the remainder; other failures are
// recorded and execution continues. An empty plan succeeds trivially.
func (o *Orchestrator) Execute(ctx context.Context, project []*models.FileAnalysis, ops []models.RefactoringOperation, dryRun bool) *models.WorkflowResult {
	result := &models.WorkflowResult{
		WorkflowID:   uuid.NewString(),
		Completed:    []string{},
		Failed:       []string{},
		Results:      []models.SplitResult{},
		FilesCreated: []string{},
		FilesChanged: []string{},
	}

	vcsClient := o.preValidate(result, dryRun)
	if !dryRun && result.Error != "" {
		return result
	}

	if len(ops) == 0 {
		result.Success = true
		return result
	}

	byPath := make(map[string]*models.FileAnalysis, len(project))
	for _, fa := range project {
		byPath[fa.Path] = fa
	}

	o.checkSources(result, ops, byPath, dryRun)
	if !dryRun && result.Error != "" {
		return result
	}

	if !dryRun {
		if err := o.backup(result, ops, project, byPath); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	ext := extractor.New(o.cfg.Split)
	defer ext.Close()

	index := symbolindex.Build(project)
	var fixups []models.ImportUpdate

	for _, op := range ops {
		if ctx.Err() != nil {
			result.Error = ctx.Err().Error()
			break
		}

		if op.Type == models.OpNotApplicable {
			result.Results = append(result.Results, models.SplitResult{
				OperationID: op.ID,
				DryRun:      dryRun,
				Success:     true,
			})
			result.Completed = append(result.Completed, op.ID)
			continue
		}

		splitResult, opFixups := o.runOperation(ext, index, byPath, project, op, dryRun)
		result.Results = append(result.Results, *splitResult)

		if !splitResult.Success {
			result.Failed = append(result.Failed, op.ID)
			if op.Risk == models.RiskHigh {
				result.Error = fmt.Sprintf("high-risk operation %s failed, aborting", op.ID)
				break
			}
			continue
		}

		result.Completed = append(result.Completed, op.ID)
		result.FilesCreated = append(result.FilesCreated, splitResult.NewFiles...)
		result.FilesChanged = append(result.FilesChanged, op.Targets...)
		fixups = append(fixups, opFixups...)
	}

	if !dryRun {
		o.applyFixups(result, fixups, index)
		o.postValidate(ctx, result, vcsClient)
	}

	result.Success = len(result.Failed) == 0 && result.Error == "" && validationsPassed(result.Validations)
	return result
}

// runOperation executes one split operation, covering every recommendation
// for the target that clears the confidence floor.
func (o *Orchestrator) runOperation(ext *extractor.Extractor, index *symbolindex.Index, byPath map[string]*models.FileAnalysis, project []*models.FileAnalysis, op models.RefactoringOperation, dryRun bool) (*models.SplitResult, []models.ImportUpdate) {
	fa := byPath[op.Targets[0]]
	if fa == nil {
		return &models.SplitResult{
			OperationID: op.ID,
			DryRun:      dryRun,
			Error:       fmt.Sprintf("no analysis for %s", op.Targets[0]),
		}, nil
	}

	result, fixups := o.extractAll(ext, index, project, fa, dryRun)
	result.OperationID = op.ID
	return result, fixups
}

// extractAll performs every qualifying extraction for one file and merges
// the outcomes into a single result. The write path extracts one group at
// a time and re-analyzes the rewritten file between passes, since each
// rewrite shifts line numbers and the content hash. The dry-run path plans
// each extraction against the original analysis, so the report enumerates
// every file a real run would create.
func (o *Orchestrator) extractAll(ext *extractor.Extractor, index *symbolindex.Index, project []*models.FileAnalysis, fa *models.FileAnalysis, dryRun bool) (*models.SplitResult, []models.ImportUpdate) {
	result := &models.SplitResult{DryRun: dryRun}
	module := parser.ModuleName(fa.Path)
	var fixups []models.ImportUpdate

	if dryRun {
		for _, rec := range o.qualifying(fa) {
			plan, err := ext.Plan(fa, rec)
			if err != nil {
				result.Error = err.Error()
				return result, nil
			}
			sim, err := ext.Execute(plan, fa.Path, true)
			if err != nil {
				result.Error = err.Error()
				return result, nil
			}
			mergeSplit(result, sim)
			fixups = append(fixups, extractor.ImportFixups(project, module, plan)...)
		}
		result.Success = true
		return result, fixups
	}

	analyzer := source.New(o.cfg.Analyzer)
	defer analyzer.Close()

	current := fa
	for {
		recs := o.qualifying(current)
		if len(recs) == 0 {
			break
		}

		plan, err := ext.Plan(current, recs[0])
		if err != nil {
			result.Error = err.Error()
			return result, fixups
		}
		done, err := ext.Execute(plan, current.Path, false)
		if err != nil {
			result.Error = err.Error()
			return result, fixups
		}
		mergeSplit(result, done)

		for _, symbol := range append(append([]string{}, plan.Classes...), plan.Functions...) {
			index.Move(symbol, module, plan.TargetModule, plan.TargetPath)
		}
		fixups = append(fixups, extractor.ImportFixups(project, module, plan)...)

		refreshed, err := analyzer.AnalyzeFile(current.Path)
		if err != nil {
			result.Error = fmt.Sprintf("re-analysis after extraction failed: %v", err)
			return result, fixups
		}
		current = refreshed
	}

	result.Success = true
	return result, fixups
}

// Split runs every qualifying extraction for a single analyzed file,
// outside a planned workflow. The returned fix-ups are instructions only;
// dependent files are not rewritten.
func (o *Orchestrator) Split(fa *models.FileAnalysis, project []*models.FileAnalysis, dryRun bool) (*models.SplitResult, []models.ImportUpdate) {
	ext := extractor.New(o.cfg.Split)
	defer ext.Close()
	return o.extractAll(ext, symbolindex.Build(project), project, fa, dryRun)
}

func mergeSplit(dst, src *models.SplitResult) {
	dst.NewFiles = append(dst.NewFiles, src.NewFiles...)
	dst.MovedClasses = append(dst.MovedClasses, src.MovedClasses...)
	dst.MovedFunctions = append(dst.MovedFunctions, src.MovedFunctions...)
	dst.VCSCommands = append(dst.VCSCommands, src.VCSCommands...)
}

// applyFixups rewrites dependent files' import lines, one file at a time,
// after all splits are done. Each fix-up is a single textual line swap,
// applied only when the symbol index knows exactly one home for the moved
// symbol; a file whose import no longer matches is reported, not guessed at.
func (o *Orchestrator) applyFixups(result *models.WorkflowResult, fixups []models.ImportUpdate, index *symbolindex.Index) {
	if len(fixups) == 0 {
		return
	}

	byFile := make(map[string][]models.ImportUpdate)
	for _, fix := range fixups {
		if _, ok := index.HomeOf(fix.Symbol); !ok {
			continue
		}
		byFile[fix.File] = append(byFile[fix.File], fix)
	}

	applied, failed := 0, 0
	changed := make(map[string]bool)
	already := make(map[string]bool, len(result.FilesChanged))
	for _, path := range result.FilesChanged {
		already[path] = true
	}
	for path, fileFixups := range byFile {
		content, err := os.ReadFile(path)
		if err != nil {
			failed += len(fileFixups)
			continue
		}

		text := string(content)
		touched := false
		for _, fix := range fileFixups {
			if !strings.Contains(text, fix.Old) {
				failed++
				continue
			}
			text = strings.Replace(text, fix.Old, fix.New, 1)
			applied++
			touched = true
		}

		if touched {
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				failed += len(fileFixups)
				continue
			}
			changed[path] = true
		}
	}

	for path := range changed {
		if !already[path] {
			result.FilesChanged = append(result.FilesChanged, path)
		}
	}
	sort.Strings(result.FilesChanged)

	result.Validations = append(result.Validations, models.ValidationResult{
		Kind:    models.ValidateImports,
		Success: failed == 0,
		Message: fmt.Sprintf("re-scoped %d imports in %d files, %d failed", applied, len(changed), failed),
	})
}

// preValidate runs the checks that gate execution. With VCS enabled, a
// dirty worktree aborts the workflow so the backup plus git together can
// always recover the original state.
func (o *Orchestrator) preValidate(result *models.WorkflowResult, dryRun bool) *vcs.Client {
	if !o.cfg.Workflow.VCS {
		return nil
	}

	client, err := vcs.Open(o.root)
	if err != nil {
		result.Validations = append(result.Validations, models.ValidationResult{
			Kind:    models.ValidateGitStatus,
			Success: true,
			Message: "not a git repository, skipping",
		})
		return nil
	}

	clean, err := client.IsClean()
	check := models.ValidationResult{Kind: models.ValidateGitStatus, Success: clean && err == nil}
	switch {
	case err != nil:
		check.Message = fmt.Sprintf("git status failed: %v", err)
	case !clean:
		check.Message = "worktree has uncommitted changes"
	default:
		check.Message = "worktree clean"
	}
	result.Validations = append(result.Validations, check)

	if !check.Success && !dryRun {
		result.Error = "pre-validation failed: " + check.Message
	}
	return client
}

// checkSources verifies each split target is still safe to rewrite: its
// content hash matches the analysis, and nothing appears to hold it open
// for writing. Both checks run before the backup is taken, so a half-stale
// or contended plan never produces a half-useful snapshot. The extractor
// re-checks the hash per operation.
func (o *Orchestrator) checkSources(result *models.WorkflowResult, ops []models.RefactoringOperation, byPath map[string]*models.FileAnalysis, dryRun bool) {
	probed := 0
	var stale, busy []string
	for _, op := range ops {
		if op.Type != models.OpSplitFile {
			continue
		}
		for _, target := range op.Targets {
			fa := byPath[target]
			if fa == nil {
				continue
			}
			probed++
			src, err := os.ReadFile(target)
			if err != nil || source.HashContent(src) != fa.ContentHash {
				stale = append(stale, target)
				continue
			}
			if openForWriteElsewhere(target) {
				busy = append(busy, target)
			}
		}
	}
	if probed == 0 {
		return
	}

	check := models.ValidationResult{Kind: models.ValidateFileLock, Success: len(stale) == 0 && len(busy) == 0}
	switch {
	case len(stale) > 0:
		check.Message = "changed since analysis: " + strings.Join(stale, ", ")
	case len(busy) > 0:
		check.Message = "open for writing elsewhere: " + strings.Join(busy, ", ")
	default:
		check.Message = "all targets unchanged and writable"
	}
	result.Validations = append(result.Validations, check)

	if !check.Success && !dryRun {
		result.Error = "pre-validation failed: " + check.Message
	}
}

// openForWriteElsewhere is a heuristic probe, not a lock. It looks for the
// lock artifacts common editors leave beside a file they hold open, then
// confirms this process can open the file for writing at all. Emacs lock
// files are dangling symlinks, so the markers are Lstat'ed.
func openForWriteElsewhere(path string) bool {
	dir, base := filepath.Split(path)
	for _, marker := range []string{
		filepath.Join(dir, "."+base+".swp"),
		filepath.Join(dir, ".#"+base),
		filepath.Join(dir, base+".lock"),
	} {
		if _, err := os.Lstat(marker); err == nil {
			return true
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return true
	}
	f.Close()
	return false
}

// backup snapshots the split targets plus every dependent file that import
// re-scoping may rewrite. Rollback then returns all modified files, not
// just the split originals.
func (o *Orchestrator) backup(result *models.WorkflowResult, ops []models.RefactoringOperation, project []*models.FileAnalysis, byPath map[string]*models.FileAnalysis) error {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, op := range ops {
		if op.Type != models.OpSplitFile {
			continue
		}
		for _, target := range op.Targets {
			add(target)
			fa := byPath[target]
			if fa == nil {
				continue
			}
			for _, dep := range o.engine.Impact(fa, project).DependentFiles {
				add(dep)
			}
		}
	}
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)

	info, err := NewBackupManager(o.root, o.cfg.Workflow.BackupDir).Create(result.WorkflowID, files)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	result.BackupPath = info.BackupPath
	return nil
}

// postValidate syntax-checks every file the workflow touched, stages
// created files when VCS is enabled, and runs the project test command.
func (o *Orchestrator) postValidate(ctx context.Context, result *models.WorkflowResult, vcsClient *vcs.Client) {
	touched := append(append([]string{}, result.FilesCreated...), result.FilesChanged...)
	if len(touched) > 0 {
		psr := parser.New()
		defer psr.Close()

		var broken []string
		for _, path := range touched {
			parsed, err := psr.ParseFile(path)
			if err != nil || parsed.HasSyntaxError() {
				broken = append(broken, path)
			}
		}

		check := models.ValidationResult{Kind: models.ValidateSyntax, Success: len(broken) == 0}
		if len(broken) > 0 {
			check.Message = "syntax errors in: " + strings.Join(broken, ", ")
		} else {
			check.Message = fmt.Sprintf("%d files parse cleanly", len(touched))
		}
		result.Validations = append(result.Validations, check)
	}

	if vcsClient != nil && len(result.FilesCreated) > 0 {
		commands := vcsClient.Add(result.FilesCreated...)
		if len(result.Results) > 0 && len(commands) > 0 {
			result.Results[len(result.Results)-1].VCSCommands = commands
		}
	}

	runner := testrunner.New(
		o.cfg.Workflow.TestCommand,
		time.Duration(o.cfg.Workflow.TestTimeoutSeconds)*time.Second,
		o.root,
	)
	result.Validations = append(result.Validations, runner.Run(ctx))
}

// Rollback restores every file in a workflow's backup to its snapshotted
// content.
func (o *Orchestrator) Rollback(workflowID string) (*models.BackupInfo, error) {
	return NewBackupManager(o.root, o.cfg.Workflow.BackupDir).Restore(workflowID)
}

// ListBackups returns the metadata of every stored backup, newest first.
func (o *Orchestrator) ListBackups() ([]models.BackupInfo, error) {
	return NewBackupManager(o.root, o.cfg.Workflow.BackupDir).List()
}

func validationsPassed(checks []models.ValidationResult) bool {
	for _, check := range checks {
		if !check.Success {
			return false
		}
	}
	return true
}
