package models

// SplitRecommendation proposes extracting a group of symbols into a new
// module. Recommendations are ephemeral: produced by the split engine,
// consumed once by the extractor, never persisted.
type SplitRecommendation struct {
	TargetModule   string   `json:"target_module"`
	Classes        []string `json:"classes"`
	Functions      []string `json:"functions"`
	EstimatedLines int      `json:"estimated_lines"`

	// SpanLines is the exact AST span of the grouped symbols, reported
	// alongside the heuristic estimate for operator visibility.
	SpanLines    int      `json:"span_lines"`
	Dependencies []string `json:"dependencies"`
	Reason       string   `json:"reason"`
	Confidence   float64  `json:"confidence"`
}

// LineRange is an inclusive source line range, 1-based on both ends.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Lines returns the number of lines covered by the range.
func (r LineRange) Lines() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// CodeExtraction is an executable extraction plan resolved from a
// SplitRecommendation.
//
// Invariant: Ranges are non-overlapping and sorted ascending, and every
// name in Classes and Functions maps to exactly one range.
type CodeExtraction struct {
	TargetPath     string      `json:"target_path"`
	TargetModule   string      `json:"target_module"`
	Classes        []string    `json:"classes"`
	Functions      []string    `json:"functions"`
	Imports        []string    `json:"imports"`
	Ranges         []LineRange `json:"ranges"`
	EstimatedLines int         `json:"estimated_lines"`
}

// SurfaceMetrics are descriptive metrics attached to a recommendation
// report; they do not feed confidence scoring.
type SurfaceMetrics struct {
	PublicSurfaceLines int `json:"public_surface_lines"`
	PrivateHelpers     int `json:"private_helpers"`
}

// ImpactAnalysis lists files that reference the target module.
type ImpactAnalysis struct {
	Module         string   `json:"module"`
	DependentFiles []string `json:"dependent_files"`
}

// RefactoringRecommendation is the per-file record produced for the CLI:
// metrics, violations, suggested splits, and impact.
type RefactoringRecommendation struct {
	Analysis   *FileAnalysis         `json:"analysis"`
	Violations []string              `json:"violations"`
	Splits     []SplitRecommendation `json:"splits"`
	Surface    SurfaceMetrics        `json:"surface"`
	Impact     ImpactAnalysis        `json:"impact"`
}
