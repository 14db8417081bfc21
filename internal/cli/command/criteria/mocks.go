package criteria

import (
	"context"

	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockManager struct {
	mock.Mock
}

func (m *MockManager) SaveCriteria(ctx context.Context, assignmentName, filename string, data []byte) (*models.Criteria, error) {
	args := m.Called(ctx, assignmentName, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Criteria), args.Error(1)
}

func (m *MockManager) GetCriteria(ctx context.Context, assignmentName string) (*models.Criteria, error) {
	args := m.Called(ctx, assignmentName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Criteria), args.Error(1)
}

type MockFileFetcher struct {
	mock.Mock
}

func (m *MockFileFetcher) FetchFile(ctx context.Context, path, repoURL, credential string) ([]byte, error) {
	args := m.Called(ctx, path, repoURL, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
