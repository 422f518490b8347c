// Package services implements the dashboard layer between the transports and
// the dataset. It keeps selector rules in one place so the HTTP handlers and
// the WebSocket session render tabs the same way.
//
// # Tabs
//
// DashboardService.Render draws one of six tabs for a Selection:
//
//   - price: the full frequency table and the charts of one period
//   - volume: yearly, per-period and above/below average volume charts
//   - holiday: table and charts of one holiday category
//   - tww: a turn-of-the-week period paired with the week after it
//   - special: first trading day, super days and the Santa rally
//   - economic: up to three FRED charts of one series group
//
// A collection that cannot be loaded fails the whole tab with
// stats.ErrDataUnavailable. A missing table or an empty filter only marks
// the affected Section unavailable, so the rest of the tab still renders.
//
// # Usage
//
//	svc := services.NewDashboardService(locator,
//		services.WithRender(cfg.Render),
//		services.WithDashboardLogger(logger))
//
//	res, err := svc.Render(ctx, services.Selection{
//		Tab:       services.TabPrice,
//		Category:  "ETF_sector",
//		Ticker:    "XLB",
//		Frequency: period.DailyByTrdrDay,
//		Period:    3,
//	})
//
// # Health
//
// HealthService answers liveness and readiness probes. Readiness requires
// at least one ticker in the configured categories.
package services
