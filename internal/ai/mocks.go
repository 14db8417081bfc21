package ai

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	args := m.Called(ctx, prompt, apiKey)
	return args.String(0), args.Error(1)
}
