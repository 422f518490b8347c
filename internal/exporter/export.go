package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"etfseasonal/internal/config"
	"etfseasonal/internal/infrastructure"
	"etfseasonal/internal/table"
)

// Format is a table export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatExcel    Format = "xlsx"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts csv, xlsx or md, case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatExcel, "excel":
		return FormatExcel, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension of the format, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Exporter writes presentation tables in any export format.
type Exporter struct {
	paths   *config.Paths
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
	// BOM prefixes CSV output with a UTF-8 byte order mark.
	BOM bool
}

// NewExporter creates an exporter. paths and metrics may be nil.
func NewExporter(paths *config.Paths, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:   paths,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "exporter"),
		BOM:     true,
	}
}

// Write encodes p to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, p table.Presentation, f Format) error {
	var err error
	switch f {
	case FormatCSV:
		err = WriteTable(w, p, e.BOM)
	case FormatExcel:
		err = WriteExcel(w, p)
	case FormatMarkdown:
		err = WriteMarkdown(w, p)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
	if err != nil {
		return fmt.Errorf("export %s table: %w", f, err)
	}
	infrastructure.RecordExport(ctx, e.metrics, string(f))
	return nil
}

// Save writes p to name in the exports directory, adding the format's
// extension when name has none, and returns the full path.
func (e *Exporter) Save(ctx context.Context, name string, p table.Presentation, f Format) (string, error) {
	if filepath.Ext(name) == "" {
		name += f.Extension()
	}
	full := name
	if !filepath.IsAbs(name) && e.paths != nil {
		full = e.paths.ExportPath(name)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := e.Write(ctx, file, p, f); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	e.logger.InfoContext(ctx, "Exported table",
		slog.String("path", full),
		slog.String("format", string(f)),
		slog.Int("rows", p.Len()))
	return full, nil
}
