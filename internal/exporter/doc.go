// Package exporter writes presentation tables to CSV, XLSX and Markdown.
//
// CSVWriter: low-level CSV writing with optional UTF-8 BOM for Excel
// compatibility, appends and streaming.
//
// Exporter: encodes a table.Presentation in any Format and saves it to the
// exports directory.
//
// Example usage:
//
//	exp := exporter.NewExporter(paths, metrics, logger)
//	path, err := exp.Save(ctx, "XLB_monthly", presentation, exporter.FormatExcel)
package exporter
