package charts

import (
	"errors"
	"fmt"

	"etfseasonal/internal/config"
	"etfseasonal/internal/stats"
)

var (
	// ErrNoPrimary is returned by Build when no primary table was given.
	ErrNoPrimary = errors.New("primary table not set")

	// ErrTooManyGroups is returned when a third table is paired into a chart.
	ErrTooManyGroups = errors.New("a chart holds at most two series groups")
)

// Options sizes the charts and places the probability reference lines.
type Options struct {
	Width     int
	Height    int
	UpperProb float64
	LowerProb float64
}

// DefaultOptions returns 850x350 charts with reference lines at 0.70 and
// 0.30.
func DefaultOptions() Options {
	return Options{Width: 850, Height: 350, UpperProb: 0.7, LowerProb: 0.3}
}

// OptionsFromConfig derives options from the render configuration. The
// lower reference line mirrors the upper one.
func OptionsFromConfig(cfg config.RenderConfig) Options {
	opts := DefaultOptions()
	if cfg.ChartWidth > 0 {
		opts.Width = cfg.ChartWidth
	}
	if cfg.ChartHeight > 0 {
		opts.Height = cfg.ChartHeight
	}
	if cfg.ProbabilityThreshold > 0 && cfg.ProbabilityThreshold <= 1 {
		opts.UpperProb = cfg.ProbabilityThreshold
		opts.LowerProb = 1 - cfg.ProbabilityThreshold
	}
	return opts
}

// Spec names the charts of one build.
type Spec struct {
	// ID overrides the descriptor ID of single-chart builds.
	ID string
	// Title prefixes every chart title.
	Title string
	// Label names the primary group.
	Label string
}

func (s Spec) title(what string) string {
	if s.Title == "" {
		return what
	}
	return s.Title + ": " + what
}

// Builder assembles the three price comparison charts from a primary table
// and at most one paired table.
//
//	res, err := charts.NewBuilder(spec, opts).
//		Primary(tww).
//		Secondary(weekAfter, "tww_q1_week_aft").
//		Build()
type Builder struct {
	spec Spec
	opts Options

	primary        *stats.Table
	secondary      *stats.Table
	secondaryLabel string
	paired         bool
	err            error
}

// NewBuilder starts a build.
func NewBuilder(spec Spec, opts Options) *Builder {
	return &Builder{spec: spec, opts: opts}
}

// Primary sets the table every chart is drawn from.
func (b *Builder) Primary(t *stats.Table) *Builder {
	b.primary = t
	return b
}

// Secondary pairs a second table into every chart. A nil or empty table
// leaves the charts primary-only and adds a warning. Pairing twice is an
// error reported by Build.
func (b *Builder) Secondary(t *stats.Table, label string) *Builder {
	if b.paired {
		b.err = fmt.Errorf("pairing %q: %w", label, ErrTooManyGroups)
		return b
	}
	b.paired = true
	b.secondary = t
	b.secondaryLabel = label
	return b
}

// priceGroup holds the columns the three charts need from one table.
type priceGroup struct {
	label    string
	labels   []string
	avg      []float64
	std      []float64
	upProb   []float64
	upCounts []float64
	dnCounts []float64
}

func extractPrice(t *stats.Table, label string) (*priceGroup, error) {
	g := &priceGroup{label: label, labels: t.Labels()}
	var err error
	for _, col := range []struct {
		name string
		dst  *[]float64
	}{
		{"avg_diff", &g.avg},
		{"up_prob", &g.upProb},
		{"up_counts", &g.upCounts},
		{"down_counts", &g.dnCounts},
	} {
		if *col.dst, err = t.Column(col.name); err != nil {
			return nil, err
		}
	}
	if t.HasColumn("std_diff") {
		if g.std, err = t.Column("std_diff"); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Build returns exactly three descriptors: average difference with error
// bars, up probability with reference lines, and up/down counts. Counts are
// stacked for a single group and side by side for a pair.
func (b *Builder) Build() (Result, error) {
	if b.err != nil {
		return Result{}, b.err
	}
	if b.primary == nil {
		return Result{}, ErrNoPrimary
	}
	if b.primary.Len() == 0 {
		return Result{}, fmt.Errorf("%w: %s", stats.ErrFilterEmpty, b.spec.title("primary table"))
	}

	primary, err := extractPrice(b.primary, b.spec.Label)
	if err != nil {
		return Result{}, err
	}
	groups := []*priceGroup{primary}

	var res Result
	if b.paired {
		switch {
		case b.secondary == nil || b.secondary.Len() == 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no rows, showing %s only", b.secondaryLabel, labelOr(b.spec.Label, "primary")))
		default:
			g, err := extractPrice(b.secondary, b.secondaryLabel)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", b.secondaryLabel, err))
				break
			}
			groups = append(groups, g)
		}
	}

	avg := Descriptor{ID: IDAvgDiff, Title: b.spec.title("Average Price Difference"), Kind: KindBar}
	prob := Descriptor{
		ID:    IDUpProb,
		Title: b.spec.title("Up Probability"),
		Kind:  KindBar,
		RefLines: []RefLine{
			{Value: b.opts.UpperProb, Label: fmt.Sprintf("%.2f", b.opts.UpperProb)},
			{Value: b.opts.LowerProb, Label: fmt.Sprintf("%.2f", b.opts.LowerProb)},
		},
		YRange: &Range{Min: 0, Max: 1},
	}
	counts := Descriptor{
		ID:      IDCounts,
		Title:   b.spec.title("Up / Down Counts"),
		Kind:    KindBar,
		Stacked: len(groups) == 1,
		Legend:  "top",
	}

	for _, g := range groups {
		s := Series{Name: "avg_diff", Values: numbers(g.avg)}
		if g.std != nil {
			s.Errors = numbers(g.std)
		}
		avg.Groups = append(avg.Groups, Group{Label: g.label, Labels: g.labels, Series: []Series{s}})
		prob.Groups = append(prob.Groups, Group{Label: g.label, Labels: g.labels, Series: []Series{
			{Name: "up_prob", Values: numbers(g.upProb)},
		}})
		counts.Groups = append(counts.Groups, Group{Label: g.label, Labels: g.labels, Series: []Series{
			{Name: "up_counts", Values: numbers(g.upCounts)},
			{Name: "down_counts", Values: numbers(g.dnCounts)},
		}})
	}

	for _, d := range []Descriptor{avg, prob, counts} {
		d.Width, d.Height = b.opts.Width, b.opts.Height
		res.Descriptors = append(res.Descriptors, d)
	}
	return res, nil
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
