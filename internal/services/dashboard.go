package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"etfseasonal/internal/charts"
	"etfseasonal/internal/config"
	"etfseasonal/internal/dataset"
	"etfseasonal/internal/infrastructure"
	"etfseasonal/internal/period"
	"etfseasonal/internal/stats"
	"etfseasonal/internal/table"
)

// Section names of a tab result.
const (
	SectionTable  = "table"
	SectionCharts = "charts"
)

// CollectionResolver loads serialized collections. *dataset.Locator
// implements it.
type CollectionResolver interface {
	Categories() []string
	HasCategory(category string) bool
	Tickers(ctx context.Context, category string) []string
	Resolve(ctx context.Context, k dataset.Key) (stats.Collection, error)
	ResolveEconomic(ctx context.Context) (stats.Collection, error)
	Cached() int
}

// Section reports whether one part of a tab could be drawn.
type Section struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// TabResult is everything one tab shows for a selection.
type TabResult struct {
	Tab       Tab                 `json:"tab"`
	Selection Selection           `json:"selection"`
	Table     *table.Presentation `json:"table,omitempty"`
	Charts    []charts.Descriptor `json:"charts"`
	Sections  []Section           `json:"sections"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Available reports whether the named section was drawn.
func (r *TabResult) Available(name string) bool {
	for _, s := range r.Sections {
		if s.Name == name {
			return s.Available
		}
	}
	return false
}

// Chart returns the chart with the given ID.
func (r *TabResult) Chart(id string) (charts.Descriptor, bool) {
	return charts.Result{Descriptors: r.Charts}.Find(id)
}

// DashboardService renders dashboard tabs from the dataset.
type DashboardService struct {
	locator       CollectionResolver
	files         config.DatasetConfig
	formatter     *table.Formatter
	chartOpts     charts.Options
	economicStart int
	now           func() time.Time
	metrics       *infrastructure.BusinessMetrics
	logger        *slog.Logger
	tracer        trace.Tracer
}

// DashboardOption configures a DashboardService.
type DashboardOption func(*DashboardService)

// WithDatasetFiles overrides the collection file names.
func WithDatasetFiles(files config.DatasetConfig) DashboardOption {
	return func(s *DashboardService) { s.files = files }
}

// WithRender sets chart sizes, table colors and the economic start year.
func WithRender(cfg config.RenderConfig) DashboardOption {
	return func(s *DashboardService) {
		s.chartOpts = charts.OptionsFromConfig(cfg)
		style := table.StyleFromConfig(cfg)
		style.Now = s.now
		s.formatter = table.NewFormatter(style)
		if cfg.EconomicStartYear > 0 {
			s.economicStart = cfg.EconomicStartYear
		}
	}
}

// WithClock sets the clock used for the current-period highlight and the
// default economic date range.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		s.now = now
		style := s.formatter.Style()
		style.Now = now
		s.formatter = table.NewFormatter(style)
	}
}

// WithDashboardMetrics records tab renders.
func WithDashboardMetrics(m *infrastructure.BusinessMetrics) DashboardOption {
	return func(s *DashboardService) { s.metrics = m }
}

// WithDashboardLogger sets the logger.
func WithDashboardLogger(logger *slog.Logger) DashboardOption {
	return func(s *DashboardService) { s.logger = logger }
}

// NewDashboardService creates a dashboard service reading from locator.
func NewDashboardService(locator CollectionResolver, opts ...DashboardOption) *DashboardService {
	defaults := config.Default()
	s := &DashboardService{
		locator:       locator,
		files:         defaults.Dataset,
		chartOpts:     charts.OptionsFromConfig(defaults.Render),
		economicStart: defaults.Render.EconomicStartYear,
		now:           time.Now,
		logger:        slog.Default(),
		tracer:        otel.Tracer("etfseasonal/services"),
	}
	s.formatter = table.NewFormatter(table.StyleFromConfig(defaults.Render))
	for _, opt := range opts {
		opt(s)
	}
	s.logger = infrastructure.WithComponent(s.logger, "dashboard_service")
	return s
}

// Render draws one tab. The selection is validated and defaulted first.
//
// A collection that cannot be loaded fails the whole tab with
// stats.ErrDataUnavailable. A missing table key or an empty filter only
// marks the affected section unavailable.
func (s *DashboardService) Render(ctx context.Context, sel Selection) (*TabResult, error) {
	sel, err := sel.Normalize()
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.render", trace.WithAttributes(
		attribute.String("tab", string(sel.Tab)),
		attribute.String("ticker", sel.Ticker),
	))
	defer span.End()

	res := &TabResult{Tab: sel.Tab, Selection: sel, Charts: []charts.Descriptor{}}
	switch sel.Tab {
	case TabPrice:
		err = s.renderPrice(ctx, sel, res)
	case TabVolume:
		err = s.renderVolume(ctx, sel, res)
	case TabHoliday:
		err = s.renderHoliday(ctx, sel, res)
	case TabTWW:
		err = s.renderTWW(ctx, sel, res)
	case TabSpecial:
		err = s.renderSpecial(ctx, sel, res)
	case TabEconomic:
		err = s.renderEconomic(ctx, sel, res)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		infrastructure.RecordTabRender(ctx, s.metrics, string(sel.Tab), false)
		s.logger.WarnContext(ctx, "Tab unavailable",
			slog.String("tab", string(sel.Tab)),
			slog.String("category", sel.Category),
			slog.String("ticker", sel.Ticker),
			slog.String("error", err.Error()))
		return nil, err
	}

	available := false
	for _, sec := range res.Sections {
		available = available || sec.Available
	}
	infrastructure.RecordTabRender(ctx, s.metrics, string(sel.Tab), available)
	s.logger.DebugContext(ctx, "Tab rendered",
		slog.String("tab", string(sel.Tab)),
		slog.String("ticker", sel.Ticker),
		slog.Int("charts", len(res.Charts)),
		slog.Bool("available", available))
	return res, nil
}

// Chart renders a tab and returns one of its charts.
func (s *DashboardService) Chart(ctx context.Context, sel Selection, id string) (charts.Descriptor, error) {
	res, err := s.Render(ctx, sel)
	if err != nil {
		return charts.Descriptor{}, err
	}
	if d, ok := res.Chart(id); ok {
		return d, nil
	}
	for _, sec := range res.Sections {
		if !sec.Available && sec.Reason != "" {
			return charts.Descriptor{}, fmt.Errorf("%w: %s: %s", ErrChartNotFound, id, sec.Reason)
		}
	}
	return charts.Descriptor{}, fmt.Errorf("%w: %s", ErrChartNotFound, id)
}

// Table renders a tab and returns its table.
func (s *DashboardService) Table(ctx context.Context, sel Selection) (table.Presentation, error) {
	res, err := s.Render(ctx, sel)
	if err != nil {
		return table.Presentation{}, err
	}
	if res.Table == nil {
		for _, sec := range res.Sections {
			if sec.Name == SectionTable && sec.Reason != "" {
				return table.Presentation{}, fmt.Errorf("%w: %s", ErrTableUnavailable, sec.Reason)
			}
		}
		return table.Presentation{}, fmt.Errorf("%w: tab %s has no table", ErrTableUnavailable, sel.Tab)
	}
	return *res.Table, nil
}

func (s *DashboardService) key(sel Selection, filename string, variant *int) dataset.Key {
	return dataset.Key{Category: sel.Category, Ticker: sel.Ticker, Filename: filename, Variant: variant}
}

// section records the outcome of one part of a tab. Missing keys and empty
// filters are expected; anything else is logged as an error.
func (s *DashboardService) section(ctx context.Context, res *TabResult, name string, err error) bool {
	if err == nil {
		res.Sections = append(res.Sections, Section{Name: name, Available: true})
		return true
	}
	if !errors.Is(err, stats.ErrKeyNotFound) && !errors.Is(err, stats.ErrFilterEmpty) {
		s.logger.ErrorContext(ctx, "Section failed",
			slog.String("tab", string(res.Tab)),
			slog.String("section", name),
			slog.String("error", err.Error()))
	}
	res.Sections = append(res.Sections, Section{Name: name, Reason: err.Error()})
	return false
}

func (s *DashboardService) addTable(ctx context.Context, res *TabResult, t *stats.Table, family period.Family, err error) {
	if err == nil {
		_, err = period.RequireRows(t, string(family))
	}
	if s.section(ctx, res, SectionTable, err) {
		p := s.formatter.Format(t, string(family))
		res.Table = &p
	}
}

func (s *DashboardService) addCharts(ctx context.Context, res *TabResult, name string, built charts.Result, err error) {
	if s.section(ctx, res, name, err) {
		res.Charts = append(res.Charts, built.Descriptors...)
	}
	res.Warnings = append(res.Warnings, built.Warnings...)
}

func tickerSpec(sel Selection, what string) charts.Spec {
	return charts.Spec{Title: sel.Ticker + " " + what, Label: sel.Ticker}
}

// periodSpec narrows period-indexed families to the selected period.
func periodSpec(f period.Family, n int) *period.Spec {
	if _, ok := period.PeriodColumn(f); ok {
		return period.ByPeriod(n)
	}
	return nil
}

// renderPrice shows the whole table of the frequency and the charts of the
// selected period.
func (s *DashboardService) renderPrice(ctx context.Context, sel Selection, res *TabResult) error {
	c, err := s.locator.Resolve(ctx, s.key(sel, s.files.PriceFile, nil))
	if err != nil {
		return err
	}

	full, err := period.Filter(c, sel.Frequency, sel.YearRange, nil)
	s.addTable(ctx, res, full, sel.Frequency, err)

	built, err := s.priceCharts(c, sel.Frequency, sel.YearRange, periodSpec(sel.Frequency, sel.Period), tickerSpec(sel, period.Title(string(sel.Frequency))))
	s.addCharts(ctx, res, SectionCharts, built, err)
	return nil
}

func (s *DashboardService) priceCharts(c stats.Collection, f period.Family, yr period.YearRange, spec *period.Spec, cs charts.Spec) (charts.Result, error) {
	t, err := period.Filter(c, f, yr, spec)
	if err != nil {
		return charts.Result{}, err
	}
	if _, err := period.RequireRows(t, string(f)); err != nil {
		return charts.Result{}, err
	}
	return charts.NewBuilder(cs, s.chartOpts).Primary(t).Build()
}

// renderVolume shows the three volume charts. There is no table and no
// year range.
func (s *DashboardService) renderVolume(ctx context.Context, sel Selection, res *TabResult) error {
	c, err := s.locator.Resolve(ctx, s.key(sel, s.files.VolumeFile, nil))
	if err != nil {
		return err
	}
	built, err := charts.BuildVolume(c, charts.VolumeRequest{
		Freq:    sel.Frequency,
		Period:  sel.Period,
		Overall: sel.Overall,
	}, tickerSpec(sel, period.Title(string(sel.Frequency))), s.chartOpts)
	s.addCharts(ctx, res, SectionCharts, built, err)
	return nil
}

func (s *DashboardService) renderHoliday(ctx context.Context, sel Selection, res *TabResult) error {
	c, err := s.locator.Resolve(ctx, s.key(sel, s.files.UniqueDaysFile, dataset.Variant(config.HolidayVariant)))
	if err != nil {
		return err
	}

	t, err := period.Filter(c, period.CompiledHoliday, sel.YearRange, period.ByName(sel.Holiday))
	s.addTable(ctx, res, t, period.CompiledHoliday, err)

	var built charts.Result
	if err == nil {
		built, err = charts.NewBuilder(tickerSpec(sel, period.Title(sel.Holiday)), s.chartOpts).Primary(t).Build()
	}
	s.addCharts(ctx, res, SectionCharts, built, err)
	return nil
}

// renderTWW pairs a turn-of-the-week period with the week after it.
func (s *DashboardService) renderTWW(ctx context.Context, sel Selection, res *TabResult) error {
	variant := config.TWWVariant
	if sel.Weekly {
		variant = config.TWWWeeklyVariant
	}
	c, err := s.locator.Resolve(ctx, s.key(sel, s.files.UniqueDaysFile, dataset.Variant(variant)))
	if err != nil {
		return err
	}

	weekAfter := period.WeekAfter(sel.TWW)
	both, err := period.Filter(c, period.CompiledTWW, sel.YearRange, period.ByName(sel.TWW))
	s.addTable(ctx, res, both, period.CompiledTWW, err)

	var built charts.Result
	if err == nil {
		col, _ := period.CategoryColumn(period.CompiledTWW)
		tww, after := period.SplitPair(both, col, sel.TWW, weekAfter)
		spec := tickerSpec(sel, period.Title(sel.TWW))
		spec.Label = sel.TWW
		built, err = charts.NewBuilder(spec, s.chartOpts).
			Primary(tww).
			Secondary(after, weekAfter).
			Build()
	}
	s.addCharts(ctx, res, SectionCharts, built, err)
	return nil
}

func (s *DashboardService) renderSpecial(ctx context.Context, sel Selection, res *TabResult) error {
	c, err := s.locator.Resolve(ctx, s.key(sel, s.files.UniqueDaysFile, dataset.Variant(config.SpecialPeriodVariant)))
	if err != nil {
		return err
	}

	spec := periodSpec(sel.Special, sel.Period)
	t, err := period.Filter(c, sel.Special, sel.YearRange, spec)
	s.addTable(ctx, res, t, sel.Special, err)

	var built charts.Result
	if err == nil {
		built, err = charts.NewBuilder(tickerSpec(sel, period.Title(string(sel.Special))), s.chartOpts).Primary(t).Build()
	}
	s.addCharts(ctx, res, SectionCharts, built, err)
	return nil
}

func (s *DashboardService) defaultRange() charts.DateRange {
	return charts.DefaultDateRange(s.now(), s.economicStart)
}

// renderEconomic draws one chart per selected series list. Each chart is its
// own section so one missing series does not hide the others.
func (s *DashboardService) renderEconomic(ctx context.Context, sel Selection, res *TabResult) error {
	r, err := sel.dateRange(s.defaultRange())
	if err != nil {
		return err
	}
	c, err := s.locator.ResolveEconomic(ctx)
	if err != nil {
		return err
	}

	for i, series := range sel.Series {
		id := fmt.Sprintf("%s_%d", charts.IDEconomic, i+1)
		built, err := charts.BuildEconomic(c, charts.EconomicRequest{
			Series:        series,
			Range:         r,
			ShowRecession: *sel.ShowRecession,
		}, charts.Spec{ID: id}, s.chartOpts)
		s.addCharts(ctx, res, id, built, err)
	}
	return nil
}
