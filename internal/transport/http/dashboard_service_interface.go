package http

import (
	"context"

	"etfseasonal/internal/charts"
	"etfseasonal/internal/services"
	"etfseasonal/internal/table"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Render(ctx context.Context, sel services.Selection) (*services.TabResult, error)
	Chart(ctx context.Context, sel services.Selection, id string) (charts.Descriptor, error)
	Table(ctx context.Context, sel services.Selection) (table.Presentation, error)
	Options(ctx context.Context) services.Options
	Tickers(ctx context.Context, category string) ([]string, error)
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
