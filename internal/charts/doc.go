// Package charts builds renderer-neutral chart descriptors from statistics
// tables and draws them with go-chart.
//
// A price comparison always yields three bar charts: average difference with
// standard deviation error bars, up probability with reference lines, and
// up/down counts. A chart holds the primary table and at most one paired
// table, such as a TWW period and its week-after companion:
//
//	res, err := charts.NewBuilder(charts.Spec{Label: "tww_q1"}, opts).
//		Primary(first).
//		Secondary(second, "tww_q1_week_aft").
//		Build()
//
// BuildVolume and BuildEconomic produce the volume and FRED charts. A failed
// optional input never fails a build; it is reported in Result.Warnings.
//
// Descriptors encode to JSON for browser-side rendering and to SVG or PNG
// through Render.
package charts
