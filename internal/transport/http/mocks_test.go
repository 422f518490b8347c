package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"etfseasonal/internal/charts"
	"etfseasonal/internal/services"
	"etfseasonal/internal/table"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Render(ctx context.Context, sel services.Selection) (*services.TabResult, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TabResult), args.Error(1)
}

func (m *MockDashboardService) Chart(ctx context.Context, sel services.Selection, id string) (charts.Descriptor, error) {
	args := m.Called(ctx, sel, id)
	return args.Get(0).(charts.Descriptor), args.Error(1)
}

func (m *MockDashboardService) Table(ctx context.Context, sel services.Selection) (table.Presentation, error) {
	args := m.Called(ctx, sel)
	return args.Get(0).(table.Presentation), args.Error(1)
}

func (m *MockDashboardService) Options(ctx context.Context) services.Options {
	args := m.Called(ctx)
	return args.Get(0).(services.Options)
}

func (m *MockDashboardService) Tickers(ctx context.Context, category string) ([]string, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
