package testutils

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of a page fetcher.
type MockFetcher struct {
	mock.Mock
}

// Get mocks fetching a page body.
func (m *MockFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if body, ok := args.Get(0).([]byte); ok {
		return body, args.Error(1)
	}
	return nil, args.Error(1)
}
