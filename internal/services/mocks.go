package services

import (
	"context"

	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/stretchr/testify/mock"
)

type (
	MockRepositorySource struct {
		mock.Mock
	}

	MockCriteriaStore struct {
		mock.Mock
	}

	MockResultStore struct {
		mock.Mock
	}
)

func (m *MockRepositorySource) Acquire(ctx context.Context, req ports.AcquireRequest) (*ports.Workspace, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Workspace), args.Error(1)
}

func (m *MockCriteriaStore) CreateAssignment(ctx context.Context, name string) (*models.Assignment, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockCriteriaStore) GetAssignment(ctx context.Context, name string) (*models.Assignment, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockCriteriaStore) SaveCriteria(ctx context.Context, c models.Criteria) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCriteriaStore) GetCriteria(ctx context.Context, assignmentName string) (*models.Criteria, error) {
	args := m.Called(ctx, assignmentName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Criteria), args.Error(1)
}

func (m *MockResultStore) Save(ctx context.Context, result *models.GradingResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultStore) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.GradingResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GradingResult), args.Error(1)
}
