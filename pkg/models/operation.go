package models

import "time"

// RiskLevel classifies how likely an operation is to cause regressions.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Weight returns a numeric weight for sorting (higher = riskier).
func (r RiskLevel) Weight() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// OperationType identifies the kind of refactoring operation.
type OperationType string

// OpSplitFile extracts grouped classes into a new module. OpNotApplicable
// records a file that exceeded the workflow gate but offered no split above
// the confidence floor; it executes as a no-op, not a failure.
const (
	OpSplitFile     OperationType = "split_file"
	OpNotApplicable OperationType = "not_applicable"
)

// RefactoringOperation is one planned unit of work in a workflow.
//
// DependsOn is reserved for future operation ordering; it is always empty
// today, meaning operations are independent and safely reorderable.
type RefactoringOperation struct {
	ID          string        `json:"id"`
	Type        OperationType `json:"type"`
	Targets     []string      `json:"targets"`
	Description string        `json:"description"`
	Risk        RiskLevel     `json:"risk"`
	Estimate    time.Duration `json:"estimate"`
	DependsOn   []string      `json:"depends_on,omitempty"`
}

// ImportUpdate is an instruction to re-scope one import in a dependent
// file. The extractor returns these as data; rewriting dependent files is
// the caller's responsibility.
type ImportUpdate struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Symbol  string `json:"symbol"`
	Old     string `json:"old"`
	New     string `json:"new"`
}

// SplitResult is the outcome of executing one split operation.
type SplitResult struct {
	OperationID    string         `json:"operation_id"`
	NewFiles       []string       `json:"new_files"`
	MovedClasses   []string       `json:"moved_classes"`
	MovedFunctions []string       `json:"moved_functions"`
	ImportUpdates  []ImportUpdate `json:"import_updates"`
	VCSCommands    []string       `json:"vcs_commands,omitempty"`
	DryRun         bool           `json:"dry_run"`
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
}

// WorkflowResult is the per-workflow record produced for the CLI.
type WorkflowResult struct {
	WorkflowID   string             `json:"workflow_id"`
	Completed    []string           `json:"completed"`
	Failed       []string           `json:"failed"`
	Results      []SplitResult      `json:"results"`
	FilesCreated []string           `json:"files_created"`
	FilesChanged []string           `json:"files_changed"`
	BackupPath   string             `json:"backup_path,omitempty"`
	Validations  []ValidationResult `json:"validations,omitempty"`
	Success      bool               `json:"success"`
	Error        string             `json:"error,omitempty"`
}

// BackupInfo is the durable metadata record written next to a workflow's
// source-tree snapshot.
type BackupInfo struct {
	WorkflowID  string    `json:"workflow_id"`
	Timestamp   time.Time `json:"timestamp"`
	ProjectRoot string    `json:"project_root"`
	BackupPath  string    `json:"backup_path"`
	Checksum    string    `json:"checksum,omitempty"`
}
