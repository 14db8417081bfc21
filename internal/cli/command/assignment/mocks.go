package assignment

import (
	"context"

	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) CreateAssignment(ctx context.Context, name string) (*models.Assignment, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}
