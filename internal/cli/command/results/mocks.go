package results

import (
	"context"

	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.GradingResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GradingResult), args.Error(1)
}
