package table

import (
	"fmt"
	"math"
	"time"

	"etfseasonal/internal/config"
	"etfseasonal/internal/period"
	"etfseasonal/internal/stats"
)

// ColumnKind selects how a column's numbers are written.
type ColumnKind string

const (
	KindPlain       ColumnKind = "plain"
	KindPercent     ColumnKind = "percent"
	KindProbability ColumnKind = "probability"
)

var (
	percentColumns = map[string]bool{
		"avg_diff": true, "med_diff": true, "tot_diff": true, "max_diff": true,
		"min_diff": true, "std_diff": true, "pos_avg_diff": true, "neg_avg_diff": true,
	}
	probabilityColumns = map[string]bool{"up_prob": true, "down_prob": true}
	barColumns         = map[string]bool{
		"avg_diff": true, "med_diff": true, "tot_diff": true, "pos_avg_diff": true, "neg_avg_diff": true,
	}
	// families whose identifying column is the last one; the rest carry two
	singleIDFamilies = map[string]bool{
		string(period.Monthly): true, string(period.Weekly): true, string(period.FirstTrdrDom): true,
		string(period.SuperDay): true, string(period.SantaRally): true,
	}
)

// Style holds the presentation settings. The colors are CSS color values
// handed through to the rendering layer.
type Style struct {
	// Now is the clock used for the current-period highlight.
	Now func() time.Time `json:"-"`
	// Threshold is the probability at or above which a cell is highlighted.
	Threshold float64 `json:"threshold"`

	HighlightColor   string `json:"highlight_color"`
	NullColor        string `json:"null_color"`
	NegativeBarColor string `json:"negative_bar_color"`
	PositiveBarColor string `json:"positive_bar_color"`
	NullMarker       string `json:"null_marker"`
}

// DefaultStyle returns the dashboard style.
func DefaultStyle() Style {
	return Style{
		Now:              time.Now,
		Threshold:        0.7,
		HighlightColor:   "lightblue",
		NullColor:        "gray",
		NegativeBarColor: "#FFA07A",
		PositiveBarColor: "lightgreen",
		NullMarker:       "nan",
	}
}

// StyleFromConfig overlays the render configuration on DefaultStyle.
func StyleFromConfig(cfg config.RenderConfig) Style {
	s := DefaultStyle()
	if cfg.ProbabilityThreshold > 0 && cfg.ProbabilityThreshold <= 1 {
		s.Threshold = cfg.ProbabilityThreshold
	}
	if cfg.HighlightColor != "" {
		s.HighlightColor = cfg.HighlightColor
	}
	if cfg.NullColor != "" {
		s.NullColor = cfg.NullColor
	}
	if cfg.NegativeBarColor != "" {
		s.NegativeBarColor = cfg.NegativeBarColor
	}
	if cfg.PositiveBarColor != "" {
		s.PositiveBarColor = cfg.PositiveBarColor
	}
	return s
}

// Column describes one presentation column.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
	// Bar reports whether the column's cells carry data bars.
	Bar bool `json:"bar,omitempty"`
}

// Cell is one formatted value. Raw is the source value, nil for nulls.
type Cell struct {
	Raw       any      `json:"raw"`
	Text      string   `json:"text"`
	Highlight bool     `json:"highlight,omitempty"`
	Null      bool     `json:"null,omitempty"`
	Bar       *float64 `json:"bar,omitempty"`
}

// Row is one formatted row. Current marks the row of the present month or
// week.
type Row struct {
	Cells   []Cell `json:"cells"`
	Current bool   `json:"current,omitempty"`
}

// Presentation is a display-ready table.
type Presentation struct {
	Family  string   `json:"family"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
	Style   Style    `json:"style"`
}

// Len returns the number of rows.
func (p Presentation) Len() int { return len(p.Rows) }

// Header returns the column names.
func (p Presentation) Header() []string {
	h := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		h[i] = c.Name
	}
	return h
}

// Records returns the formatted text of every row.
func (p Presentation) Records() [][]string {
	out := make([][]string, len(p.Rows))
	for i, r := range p.Rows {
		rec := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			rec[j] = c.Text
		}
		out[i] = rec
	}
	return out
}

// Formatter turns statistics tables into presentations.
type Formatter struct {
	style Style
}

// NewFormatter creates a formatter. A nil clock defaults to time.Now.
func NewFormatter(style Style) *Formatter {
	if style.Now == nil {
		style.Now = time.Now
	}
	return &Formatter{style: style}
}

// Style returns the formatter's style.
func (f *Formatter) Style() Style { return f.style }

// Format moves the identifying columns first, formats every cell and marks
// highlights, nulls and data bars. The source table is not modified.
func (f *Formatter) Format(t *stats.Table, family string) Presentation {
	p := Presentation{Family: family, Columns: []Column{}, Rows: []Row{}, Style: f.style}
	if t == nil {
		return p
	}

	order := rotation(len(t.Columns), family)
	for _, src := range order {
		name := t.Columns[src]
		p.Columns = append(p.Columns, Column{Name: name, Kind: kindOf(name), Bar: barColumns[name]})
	}

	scale := make(map[string]float64)
	for name := range barColumns {
		if t.HasColumn(name) {
			scale[name] = maxAbs(t, name)
		}
	}

	currentCol, current, tracked := f.currentPeriod(family)

	for r := 0; r < t.Len(); r++ {
		row := Row{Cells: make([]Cell, 0, len(order))}
		for _, src := range order {
			name := t.Columns[src]
			cell := f.cell(t.Rows[r][src], name, scale)
			if tracked && name == currentCol {
				if v, ok := stats.ToInt(t.Rows[r][src]); ok && v == current {
					cell.Highlight = true
					row.Current = true
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func (f *Formatter) cell(v any, column string, scale map[string]float64) Cell {
	n, numeric := stats.ToFloat(v)
	if v == nil || (!numeric && isNaN(v)) {
		return Cell{Text: f.style.NullMarker, Null: true}
	}
	if !numeric {
		return Cell{Raw: v, Text: stats.FormatCell(v)}
	}

	c := Cell{Raw: n, Text: formatNumber(n, column)}
	switch {
	case probabilityColumns[column]:
		c.Highlight = n >= f.style.Threshold
	case column == "up_overall":
		c.Highlight = n > 0
	}
	if s, ok := scale[column]; ok {
		frac := 0.0
		if s > 0 {
			frac = n / s
		}
		c.Bar = &frac
	}
	return c
}

func (f *Formatter) currentPeriod(family string) (string, int, bool) {
	if !period.Family(family).IsFrequency() {
		return "", 0, false
	}
	now := f.style.Now()
	if family == string(period.Weekly) || family == string(period.DailyByWeekday) {
		_, week := now.ISOWeek()
		return "week", week, true
	}
	return "month", int(now.Month()), true
}

// rotation returns the source column order with the identifying columns,
// which the pipeline writes last, moved to the front.
func rotation(n int, family string) []int {
	k := 2
	if singleIDFamilies[family] {
		k = 1
	}
	order := make([]int, 0, n)
	if k >= n {
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
		return order
	}
	for i := n - k; i < n; i++ {
		order = append(order, i)
	}
	for i := 0; i < n-k; i++ {
		order = append(order, i)
	}
	return order
}

func kindOf(column string) ColumnKind {
	switch {
	case percentColumns[column]:
		return KindPercent
	case probabilityColumns[column]:
		return KindProbability
	}
	return KindPlain
}

func formatNumber(v float64, column string) string {
	switch kindOf(column) {
	case KindPercent:
		return fmt.Sprintf("%.3f%%", v*100)
	case KindProbability:
		return fmt.Sprintf("%.2f%%", v*100)
	}
	return stats.FormatCell(v)
}

func maxAbs(t *stats.Table, column string) float64 {
	var m float64
	for r := 0; r < t.Len(); r++ {
		if v, ok := t.Float(r, column); ok {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}

func isNaN(v any) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}
