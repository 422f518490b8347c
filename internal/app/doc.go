// Package app wires the ETF seasonal dashboard together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from .env, environment and the YAML file
//  2. Initialize logging and OpenTelemetry
//  3. Open the dataset source (local tree or S3) and the optional Redis tier
//  4. Build the dashboard, health, export and chart services
//  5. Start the live session hub
//  6. Set up middleware and routes on a chi router
//
// # Routes
//
//	GET /api/health[/ready|/live]
//	GET /api/version
//	GET /api/options[/tickers]
//	GET /api/dashboard/{tab}[/charts/{chartID}|/table]
//	GET /api/ws
//	GET /metrics
//
// Trailing slashes are stripped. The JSON API routes run under the
// request timeout with gzip compression and error-response logging.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM live sessions receive a shutting_down status, the
// server drains, the hub closes every session and telemetry is flushed.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
