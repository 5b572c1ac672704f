package models

// ValidationKind identifies which safety check produced a ValidationResult.
type ValidationKind string

const (
	ValidateSyntax    ValidationKind = "syntax"
	ValidateImports   ValidationKind = "imports"
	ValidateGitStatus ValidationKind = "git_status"
	ValidateFileLock  ValidationKind = "file_lock"
	ValidateFinal     ValidationKind = "final"
)

// ValidationResult is the structured outcome of one validation step.
type ValidationResult struct {
	Kind    ValidationKind    `json:"kind"`
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
