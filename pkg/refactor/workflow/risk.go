package workflow

import (
	"time"

	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
)

// assessRisk scores an operation by adding bucket points for complexity,
// file size, dependent count, and maintainability, then mapping the total
// to a level. The score is monotonic: worsening any input never lowers it.
func assessRisk(cfg config.RiskConfig, fa *models.FileAnalysis, dependents int) models.RiskLevel {
	score := 0

	switch {
	case fa.Complexity > float64(cfg.ComplexityHigh):
		score += 2
	case fa.Complexity > float64(cfg.ComplexityMedium):
		score++
	}

	switch {
	case fa.PhysicalLines > cfg.SizeHigh:
		score += 2
	case fa.PhysicalLines > cfg.SizeMedium:
		score++
	}

	switch {
	case dependents > cfg.DependentsHigh:
		score += 2
	case dependents > cfg.DependentsMedium:
		score++
	}

	switch {
	case fa.Maintainability < cfg.MaintainabilityCritical:
		score += 2
	case fa.Maintainability < cfg.MaintainabilityLow:
		score++
	}

	switch {
	case score >= 4:
		return models.RiskHigh
	case score >= 2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// estimateDuration predicts how long an operation takes: a fixed base plus
// terms for size, complexity, and dependent rewrites, capped at the
// configured maximum.
func estimateDuration(cfg config.WorkflowConfig, fa *models.FileAnalysis, dependents int) time.Duration {
	seconds := 60 +
		fa.PhysicalLines/100*30 +
		int(fa.Complexity)*5 +
		dependents*10

	if cfg.MaxDurationSeconds > 0 && seconds > cfg.MaxDurationSeconds {
		seconds = cfg.MaxDurationSeconds
	}
	return time.Duration(seconds) * time.Second
}
