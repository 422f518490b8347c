package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "ETF Seasonal Dashboard"
	AppVersion = "1.0.0"

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	DatasetReadTimeout  = 20 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Export formats
	ExportCSV      = "csv"
	ExportExcel    = "xlsx"
	ExportMarkdown = "md"
	ChartSVG       = "svg"
	ChartPNG       = "png"

	// Default storage layout under the dataset directory
	StorageDirName = "storage"

	// API Endpoints
	APIPrefix         = "/api"
	HealthEndpoint    = "/api/health"
	OptionsEndpoint   = "/api/options"
	DashboardEndpoint = "/api/dashboard"
	WebSocketEndpoint = "/api/ws"
	MetricsEndpoint   = "/metrics"
)

// Well-known collection files written by the statistics pipeline.
const (
	PriceStatsFile = "pivot_stats.json"
	VolumeFile     = "pivot_vol_stats.json"
	UniqueDaysFile = "pivot_unique_days.json"
	FREDFile       = "fred_data.json"
)

// Variant indexes inside pivot_unique_days.json.
const (
	HolidayVariant       = 0
	TWWVariant           = 1
	TWWWeeklyVariant     = 2
	SpecialPeriodVariant = 1
)
