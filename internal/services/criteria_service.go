package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Tomas-vilte/MateGrade/internal/criteria"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/Tomas-vilte/MateGrade/internal/rules"
)

// CriteriaService manages assignments, their grading criteria and the
// stored results.
type CriteriaService struct {
	store   ports.CriteriaStore
	results ports.ResultStore
}

func NewCriteriaService(store ports.CriteriaStore, results ports.ResultStore) *CriteriaService {
	return &CriteriaService{
		store:   store,
		results: results,
	}
}

func (s *CriteriaService) CreateAssignment(ctx context.Context, name string) (*models.Assignment, error) {
	name, err := normalizeAssignmentName(name)
	if err != nil {
		return nil, err
	}

	assignment, err := s.store.CreateAssignment(ctx, name)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "assignment created", "assignment", name)
	return assignment, nil
}

// SaveCriteria parses a criteria file and stores it, replacing any previous
// criteria of the assignment. The assignment is created when missing.
func (s *CriteriaService) SaveCriteria(ctx context.Context, assignmentName, filename string, data []byte) (*models.Criteria, error) {
	assignmentName, err := normalizeAssignmentName(assignmentName)
	if err != nil {
		return nil, err
	}

	c, err := criteria.Load(assignmentName, filename, data)
	if err != nil {
		return nil, err
	}

	for _, issue := range rules.Validate(c.Rules) {
		logger.Warn(ctx, "regex rule will be skipped when grading",
			"assignment", assignmentName,
			"pattern", issue.Rule.Pattern,
			"error", issue.Reason)
	}

	if err := s.store.SaveCriteria(ctx, c); err != nil {
		return nil, err
	}

	logger.Info(ctx, "criteria saved",
		"assignment", assignmentName,
		"file", filepath.Base(filename),
		"count", len(c.Rules))
	return &c, nil
}

func (s *CriteriaService) GetCriteria(ctx context.Context, assignmentName string) (*models.Criteria, error) {
	return s.store.GetCriteria(ctx, assignmentName)
}

// ListResults returns stored results in creation order. Empty filter fields
// match everything.
func (s *CriteriaService) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.GradingResult, error) {
	if filter.AssignmentName != "" {
		if _, err := s.store.GetAssignment(ctx, filter.AssignmentName); err != nil {
			return nil, err
		}
	}
	return s.results.ListResults(ctx, filter)
}

// Assignment names double as the folder graded inside each repository.
func normalizeAssignmentName(name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return "", domainErrors.ErrMissingArgument.WithContext("argument", "assignment")
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", domainErrors.ErrConfigInvalid.
			WithError(fmt.Errorf("assignment name %q is not a relative folder", name))
	}
	return name, nil
}
