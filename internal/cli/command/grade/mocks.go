package grade

import (
	"context"

	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockGrader struct {
	mock.Mock
}

func (m *MockGrader) GradeAssignment(ctx context.Context, req models.GradeRequest) (*models.GradingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GradingResult), args.Error(1)
}
