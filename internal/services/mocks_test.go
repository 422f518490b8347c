package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"etfseasonal/internal/dataset"
	"etfseasonal/internal/stats"
)

// MockResolver is a mock for CollectionResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Categories() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockResolver) HasCategory(category string) bool {
	args := m.Called(category)
	return args.Bool(0)
}

func (m *MockResolver) Tickers(ctx context.Context, category string) []string {
	args := m.Called(ctx, category)
	return args.Get(0).([]string)
}

func (m *MockResolver) Resolve(ctx context.Context, k dataset.Key) (stats.Collection, error) {
	args := m.Called(ctx, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(stats.Collection), args.Error(1)
}

func (m *MockResolver) ResolveEconomic(ctx context.Context) (stats.Collection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(stats.Collection), args.Error(1)
}

func (m *MockResolver) Cached() int {
	args := m.Called()
	return args.Int(0)
}

// MockClientCounter is a mock for ClientCounter
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}
