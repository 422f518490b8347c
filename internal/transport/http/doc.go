// Package http implements the HTTP handlers of the dashboard API. Handlers
// parse selector values, delegate to the dashboard service and write JSON,
// chart images or table exports.
//
// # Routes
//
//	GET /api/health                                  liveness summary
//	GET /api/health/ready                            dataset and session readiness
//	GET /api/options                                 selector metadata
//	GET /api/options/tickers?category=               tickers of a category
//	GET /api/dashboard/{tab}                         full TabResult as JSON
//	GET /api/dashboard/{tab}/charts/{chartID}        chart as svg or png
//	GET /api/dashboard/{tab}/table                   table as csv, xlsx or md
//	GET /metrics                                     Prometheus scrape endpoint
//
// Selector values travel as query parameters named like the JSON fields of
// services.Selection. Economic charts are given as repeated series
// parameters, one per chart, each a comma separated list:
//
//	/api/dashboard/economic?group=employment&series=unemploy,unemployNat&series=participation
//
// # Error Handling
//
// Every failure is written as RFC 7807 problem details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/unavailable",
//	    "title": "Data Unavailable",
//	    "status": 404,
//	    "detail": "ETF_sector/XLB/pivot_stats.json: data unavailable",
//	    "instance": "/api/dashboard/price"
//	}
package http
