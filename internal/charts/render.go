package charts

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"etfseasonal/internal/infrastructure"
)

// Format is a raster or vector output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png", case-insensitively. Empty means SVG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() (chart.RendererProvider, error) {
	switch f {
	case FormatSVG:
		return chart.SVG, nil
	case FormatPNG:
		return chart.PNG, nil
	}
	return nil, fmt.Errorf("unsupported chart format %q", f)
}

// Renderer draws descriptors and counts what it drew.
type Renderer struct {
	metrics *infrastructure.BusinessMetrics
}

// NewRenderer creates a renderer. metrics may be nil.
func NewRenderer(metrics *infrastructure.BusinessMetrics) *Renderer {
	return &Renderer{metrics: metrics}
}

// Render draws d to w and records the render.
func (r *Renderer) Render(ctx context.Context, d Descriptor, f Format, w io.Writer) error {
	if err := Render(d, f, w); err != nil {
		return err
	}
	infrastructure.RecordChartRender(ctx, r.metrics, string(d.Kind), string(f))
	return nil
}

// Render draws d to w with go-chart.
func Render(d Descriptor, f Format, w io.Writer) error {
	if err := d.Validate(); err != nil {
		return err
	}
	rp, err := f.provider()
	if err != nil {
		return err
	}

	var ch chart.Chart
	switch d.Kind {
	case KindBar:
		ch = barChart(d)
	case KindLine:
		if ch, err = lineChart(d); err != nil {
			return err
		}
	default:
		return fmt.Errorf("chart %s: unknown kind %q", d.ID, d.Kind)
	}

	if err := ch.Render(rp, w); err != nil {
		return fmt.Errorf("render chart %s: %w", d.ID, err)
	}
	return nil
}

var (
	// palette[group][series]
	palette = [MaxGroups][]drawing.Color{
		{drawing.ColorFromHex("4C72B0"), drawing.ColorFromHex("DD8452"), drawing.ColorFromHex("55A868")},
		{drawing.ColorFromHex("8172B3"), drawing.ColorFromHex("C44E52"), drawing.ColorFromHex("937860")},
	}
	refLineColor = drawing.ColorFromHex("000000")
	spanColor    = drawing.ColorFromHex("D3D3D3").WithAlpha(128)
)

func seriesColor(group, series int) drawing.Color {
	colors := palette[group%MaxGroups]
	return colors[series%len(colors)]
}

func seriesName(d Descriptor, g Group, s Series) string {
	if len(d.Groups) > 1 && g.Label != "" {
		return g.Label + " " + s.Name
	}
	return s.Name
}

func chartStyle() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

func barChart(d Descriptor) chart.Chart {
	n := 0
	for _, g := range d.Groups {
		n = max(n, len(g.Labels))
	}

	slots := 0
	for _, g := range d.Groups {
		if d.Stacked {
			slots++
		} else {
			slots += len(g.Series)
		}
	}

	var series []chart.Series
	slot := 0
	for gi, g := range d.Groups {
		base := make([]float64, len(g.Labels))
		for si, s := range g.Series {
			bs := &barSeries{
				name:   seriesName(d, g, s),
				values: s.Values,
				errors: s.Errors,
				n:      n,
				slot:   slot,
				slots:  slots,
				style:  chart.Style{FillColor: seriesColor(gi, si), StrokeColor: seriesColor(gi, si), StrokeWidth: 1},
			}
			if d.Stacked {
				bs.base = append([]float64(nil), base...)
				for i, v := range s.Values {
					if !v.IsNull() {
						base[i] += float64(v)
					}
				}
			} else {
				slot++
			}
			series = append(series, bs)
		}
		if d.Stacked {
			slot++
		}
	}

	lo, hi := -0.5, float64(n)-0.5
	for _, ref := range d.RefLines {
		series = append(series, chart.ContinuousSeries{
			Name:    ref.Label,
			XValues: []float64{lo, hi},
			YValues: []float64{ref.Value, ref.Value},
			Style:   chart.Style{StrokeColor: refLineColor, StrokeWidth: 1},
		})
	}

	yMin, yMax := barRange(d)
	ch := chart.Chart{
		Title:      d.Title,
		Width:      d.Width,
		Height:     d.Height,
		Background: chartStyle(),
		XAxis:      chart.XAxis{Ticks: categoryTicks(d.Groups[0].Labels, n)},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: yMin, Max: yMax}},
		Series:     series,
	}
	if d.Legend != "" || len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.LegendThin(&ch)}
	}
	return ch
}

// categoryTicks labels at most 20 categories evenly and pins the axis to
// half a slot beyond the first and last bar.
func categoryTicks(labels []string, n int) []chart.Tick {
	step := int(math.Ceil(float64(n) / 20))
	if step < 1 {
		step = 1
	}
	ticks := []chart.Tick{{Value: -0.5}}
	for i := 0; i < n; i += step {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
	}
	return append(ticks, chart.Tick{Value: float64(n) - 0.5})
}

// barRange is the descriptor's y range, or the data extent including zero,
// error bars and reference lines with some headroom.
func barRange(d Descriptor) (float64, float64) {
	if d.YRange != nil {
		return d.YRange.Min, d.YRange.Max
	}
	lo, hi := 0.0, 0.0
	for _, g := range d.Groups {
		stack := make([]float64, len(g.Labels))
		for _, s := range g.Series {
			for i, v := range s.Values {
				if v.IsNull() {
					continue
				}
				top := float64(v)
				if d.Stacked {
					stack[i] += top
					top = stack[i]
				}
				spread := 0.0
				if i < len(s.Errors) && !s.Errors[i].IsNull() {
					spread = math.Abs(float64(s.Errors[i]))
				}
				lo = math.Min(lo, top-spread)
				hi = math.Max(hi, top+spread)
			}
		}
	}
	for _, ref := range d.RefLines {
		lo = math.Min(lo, ref.Value)
		hi = math.Max(hi, ref.Value)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return lo, hi + pad
}

// barSeries draws one series of bars in its slot of each category.
type barSeries struct {
	name   string
	values []Number
	errors []Number
	base   []float64
	n      int
	slot   int
	slots  int
	style  chart.Style
}

func (b *barSeries) GetName() string           { return b.name }
func (b *barSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (b *barSeries) GetStyle() chart.Style     { return b.style }
func (b *barSeries) Validate() error {
	if b.slots == 0 || b.n == 0 {
		return fmt.Errorf("bar series %s has no categories", b.name)
	}
	return nil
}

func (b *barSeries) Render(r chart.Renderer, canvas chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	slotWidth := float64(canvas.Width()) / float64(b.n)
	barWidth := slotWidth * 0.8 / float64(b.slots)
	y := func(v float64) int { return canvas.Bottom - yrange.Translate(v) }

	for i, v := range b.values {
		if v.IsNull() {
			continue
		}
		base := 0.0
		if i < len(b.base) {
			base = b.base[i]
		}
		top := base + float64(v)

		left := canvas.Left + xrange.Translate(float64(i)) - int(slotWidth*0.4) + int(float64(b.slot)*barWidth)
		right := left + max(int(barWidth), 1)
		box := chart.Box{Top: min(y(base), y(top)), Left: left, Right: right, Bottom: max(y(base), y(top))}
		chart.Draw.Box(r, box, b.style)

		if i < len(b.errors) && !b.errors[i].IsNull() {
			e := math.Abs(float64(b.errors[i]))
			cx := (left + right) / 2
			capW := max((right-left)/4, 2)
			r.SetStrokeColor(refLineColor)
			r.SetStrokeWidth(1)
			r.MoveTo(cx, y(top+e))
			r.LineTo(cx, y(top-e))
			r.MoveTo(cx-capW, y(top+e))
			r.LineTo(cx+capW, y(top+e))
			r.MoveTo(cx-capW, y(top-e))
			r.LineTo(cx+capW, y(top-e))
			r.Stroke()
			r.ResetStyle()
		}
	}
}

func lineChart(d Descriptor) (chart.Chart, error) {
	var series []chart.Series
	first, last := time.Time{}, time.Time{}
	var extents [MaxGroups]Range
	seen := [MaxGroups]bool{}

	if len(d.Spans) > 0 {
		spans := &spanSeries{name: "recession", style: chart.Style{FillColor: spanColor, StrokeColor: spanColor}}
		for _, s := range d.Spans {
			start, err := time.Parse(dateLayout, s.Start)
			if err != nil {
				return chart.Chart{}, fmt.Errorf("chart %s: span start: %w", d.ID, err)
			}
			end, err := time.Parse(dateLayout, s.End)
			if err != nil {
				return chart.Chart{}, fmt.Errorf("chart %s: span end: %w", d.ID, err)
			}
			spans.ranges = append(spans.ranges, [2]float64{chart.TimeToFloat64(start), chart.TimeToFloat64(end)})
		}
		series = append(series, spans)
	}

	for gi, g := range d.Groups {
		for si, s := range g.Series {
			ts := chart.TimeSeries{
				Name:  seriesName(d, g, s),
				Style: chart.Style{StrokeColor: seriesColor(gi, si), StrokeWidth: 1.5},
			}
			if gi > 0 {
				ts.YAxis = chart.YAxisSecondary
			}
			for i, v := range s.Values {
				if v.IsNull() {
					continue
				}
				t, err := time.Parse(dateLayout, g.Labels[i])
				if err != nil {
					return chart.Chart{}, fmt.Errorf("chart %s: %w", d.ID, err)
				}
				if first.IsZero() || t.Before(first) {
					first = t
				}
				if t.After(last) {
					last = t
				}
				if !seen[gi] {
					extents[gi], seen[gi] = Range{Min: float64(v), Max: float64(v)}, true
				}
				extents[gi].Min = math.Min(extents[gi].Min, float64(v))
				extents[gi].Max = math.Max(extents[gi].Max, float64(v))
				ts.XValues = append(ts.XValues, t)
				ts.YValues = append(ts.YValues, float64(v))
			}
			if len(ts.XValues) == 0 {
				continue
			}
			series = append(series, ts)
		}
	}
	if first.IsZero() {
		return chart.Chart{}, fmt.Errorf("chart %s has no observations", d.ID)
	}
	if !last.After(first) {
		last = first.AddDate(0, 1, 0)
	}

	ch := chart.Chart{
		Title:      d.Title,
		Width:      d.Width,
		Height:     d.Height,
		Background: chartStyle(),
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006"),
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)},
		},
		Series: series,
	}
	// go-chart rejects a flat axis
	if seen[0] && extents[0].Min == extents[0].Max {
		ch.YAxis.Range = &chart.ContinuousRange{Min: extents[0].Min - 1, Max: extents[0].Max + 1}
	}
	if seen[1] && extents[1].Min == extents[1].Max {
		ch.YAxisSecondary.Range = &chart.ContinuousRange{Min: extents[1].Min - 1, Max: extents[1].Max + 1}
	}
	ch.Elements = []chart.Renderable{chart.LegendThin(&ch)}
	return ch, nil
}

// spanSeries shades vertical bands across the full canvas height.
type spanSeries struct {
	name   string
	ranges [][2]float64
	style  chart.Style
}

func (s *spanSeries) GetName() string           { return s.name }
func (s *spanSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s *spanSeries) GetStyle() chart.Style     { return s.style }
func (s *spanSeries) Validate() error           { return nil }

func (s *spanSeries) Render(r chart.Renderer, canvas chart.Box, xrange, _ chart.Range, _ chart.Style) {
	for _, rg := range s.ranges {
		left := canvas.Left + xrange.Translate(rg[0])
		right := canvas.Left + xrange.Translate(rg[1])
		left, right = max(left, canvas.Left), min(right, canvas.Right)
		if right <= left {
			continue
		}
		chart.Draw.Box(r, chart.Box{Top: canvas.Top, Left: left, Right: right, Bottom: canvas.Bottom}, s.style)
	}
}
