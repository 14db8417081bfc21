package ports

import (
	"context"

	"github.com/Tomas-vilte/MateGrade/internal/models"
)

// ResultStore is append-only: Save never overwrites an earlier result.
type ResultStore interface {
	Save(ctx context.Context, result *models.GradingResult) error
	ListResults(ctx context.Context, filter models.ResultFilter) ([]models.GradingResult, error)
}

// CriteriaStore keeps at most one criteria per assignment, last write wins.
type CriteriaStore interface {
	CreateAssignment(ctx context.Context, name string) (*models.Assignment, error)
	GetAssignment(ctx context.Context, name string) (*models.Assignment, error)
	SaveCriteria(ctx context.Context, criteria models.Criteria) error
	GetCriteria(ctx context.Context, assignmentName string) (*models.Criteria, error)
}
