package testutils

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCompleter is a mock implementation of an LLM completer.
type MockCompleter struct {
	mock.Mock
}

// Complete mocks a model completion.
func (m *MockCompleter) Complete(ctx context.Context, model, system, user string) (string, error) {
	args := m.Called(ctx, model, system, user)
	return args.String(0), args.Error(1)
}
