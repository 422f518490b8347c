package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"etfseasonal/internal/app"
	"etfseasonal/internal/charts"
	"etfseasonal/internal/config"
	"etfseasonal/internal/exporter"
	"etfseasonal/internal/infrastructure"
	"etfseasonal/internal/period"
	"etfseasonal/internal/services"
	"etfseasonal/internal/validation"
)

// options are the command line flags besides the selection
type options struct {
	TableFormat string
	ChartFormat string
	OutDir      string
}

func main() {
	var sel services.Selection
	var opts options
	var tab, yearRange, frequency, special, series string

	flag.StringVar(&tab, "tab", string(services.TabPrice), "tab to render: price, volume, holiday, tww, special or economic")
	flag.StringVar(&sel.Category, "category", "", "dataset category, e.g. ETF_sector")
	flag.StringVar(&sel.Ticker, "ticker", "", "ticker, e.g. XLB")
	flag.StringVar(&yearRange, "year-range", "", "year range, e.g. range_10_yr (defaults to max_yr)")
	flag.StringVar(&frequency, "frequency", "", "price and volume frequency (defaults to monthly)")
	flag.IntVar(&sel.Period, "period", 0, "month or week for the daily families")
	flag.BoolVar(&sel.Overall, "overall", false, "use the overall daily statistics")
	flag.StringVar(&sel.Holiday, "holiday", "", "holiday name")
	flag.StringVar(&sel.TWW, "tww", "", "triple witching period")
	flag.BoolVar(&sel.Weekly, "weekly", false, "weekly triple witching statistics")
	flag.StringVar(&special, "special", "", "special period family")
	flag.StringVar(&sel.Group, "group", "", "economic series group")
	flag.StringVar(&series, "series", "", "economic series: charts separated by ';', series by ','")
	flag.StringVar(&sel.Start, "start", "", "economic start date (YYYY-MM-DD)")
	flag.StringVar(&sel.End, "end", "", "economic end date (YYYY-MM-DD)")
	flag.StringVar(&opts.TableFormat, "format", string(exporter.FormatCSV), "table format: csv, xlsx or md")
	flag.StringVar(&opts.ChartFormat, "charts", "", "also write every chart: svg or png")
	flag.StringVar(&opts.OutDir, "out", "", "output directory (defaults to the exports directory)")
	flag.Parse()

	sel.Tab = services.Tab(tab)
	sel.YearRange = period.YearRange(yearRange)
	sel.Frequency = period.Family(frequency)
	sel.Special = period.Family(special)
	sel.Series = parseSeries(series)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := infrastructure.NewLogger(cfg.Logging.Level, os.Stderr)

	written, err := run(context.Background(), cfg, sel, opts, logger)
	if err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}
	for _, p := range written {
		fmt.Println(p)
	}
}

// parseSeries splits "a,b;c" into [[a b] [c]]
func parseSeries(s string) [][]string {
	var out [][]string
	for _, chart := range strings.Split(s, ";") {
		var names []string
		for _, n := range strings.Split(chart, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			out = append(out, names)
		}
	}
	return out
}

// run renders one selection and writes its table and, optionally, its
// charts. It returns the written paths.
func run(ctx context.Context, cfg *config.Config, sel services.Selection, opts options, logger *slog.Logger) ([]string, error) {
	tableFormat, err := exporter.ParseFormat(opts.TableFormat)
	if err != nil {
		return nil, err
	}
	var chartFormat charts.Format
	if opts.ChartFormat != "" {
		if chartFormat, err = charts.ParseFormat(opts.ChartFormat); err != nil {
			return nil, err
		}
	}

	if opts.OutDir != "" {
		cfg.Paths.ExportsDir = opts.OutDir
	}
	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.ExportsDir); err != nil {
		return nil, err
	}

	// No exporter is running, so instruments are no-ops
	metrics, _ := infrastructure.CreateBusinessMetrics(nil)

	locator, cache, err := app.NewLocator(ctx, cfg, paths, metrics, logger)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		defer cache.Close()
	}

	svc := services.NewDashboardService(locator,
		services.WithDatasetFiles(cfg.Dataset),
		services.WithRender(cfg.Render),
		services.WithDashboardLogger(logger),
	)

	res, err := svc.Render(ctx, sel)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn("Render warning", "warning", w)
	}

	name := baseName(res.Selection)
	var written []string

	if res.Table != nil {
		path, err := exporter.NewExporter(paths, metrics, logger).Save(ctx, name, *res.Table, tableFormat)
		if err != nil {
			return written, fmt.Errorf("failed to export table: %w", err)
		}
		written = append(written, path)
	} else {
		logger.Info("Tab has no table", "tab", res.Tab)
	}

	if chartFormat == "" {
		return written, nil
	}

	renderer := charts.NewRenderer(metrics)
	for _, d := range res.Charts {
		path := paths.ExportPath(name + "_" + d.ID + "." + string(chartFormat))
		if err := writeChart(ctx, renderer, d, chartFormat, path); err != nil {
			return written, fmt.Errorf("failed to render chart %s: %w", d.ID, err)
		}
		written = append(written, path)
	}

	return written, nil
}

func writeChart(ctx context.Context, r *charts.Renderer, d charts.Descriptor, f charts.Format, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Render(ctx, d, f, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// baseName names the output files after the normalized selection
func baseName(sel services.Selection) string {
	parts := []string{}
	for _, p := range []string{
		sel.Ticker,
		string(sel.Tab),
		string(sel.Frequency),
		sel.Holiday,
		sel.TWW,
		string(sel.Special),
		string(sel.YearRange),
		sel.Group,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return filepath.Base(strings.Join(parts, "_"))
}
