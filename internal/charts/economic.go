package charts

import (
	"fmt"
	"strings"
	"time"

	"etfseasonal/internal/stats"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive date window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DefaultDateRange runs from January 1 of startYear to December 1 of the
// year of now.
func DefaultDateRange(now time.Time, startYear int) DateRange {
	return DateRange{
		Start: time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), time.December, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Recession is a dated US recession.
type Recession struct {
	Name  string
	Start time.Time
	End   time.Time
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Recessions lists the known recessions, oldest first.
var Recessions = []Recession{
	{"1949", month(1948, time.November), month(1949, time.October)},
	{"1953", month(1953, time.July), month(1954, time.May)},
	{"1957", month(1957, time.August), month(1958, time.April)},
	{"1960", month(1960, time.April), month(1961, time.February)},
	{"1970", month(1969, time.December), month(1970, time.November)},
	{"1974", month(1973, time.November), month(1975, time.March)},
	{"1980", month(1980, time.January), month(1980, time.July)},
	{"1982", month(1981, time.November), month(1982, time.July)},
	{"1990", month(1990, time.July), month(1991, time.March)},
	{"dot-com", month(2001, time.March), month(2001, time.November)},
	{"debt crisis", month(2007, time.December), month(2009, time.June)},
}

// DefaultRecessions returns the recessions shaded by default: those from
// 1960 on.
func DefaultRecessions() []Recession {
	var out []Recession
	for _, r := range Recessions {
		if r.Start.Year() >= 1960 {
			out = append(out, r)
		}
	}
	return out
}

// EconomicRequest selects one economic chart.
type EconomicRequest struct {
	// Series holds one or two FRED series names. The first is required.
	Series        []string
	Range         DateRange
	ShowRecession bool
	// Recessions overrides DefaultRecessions.
	Recessions []Recession
}

// BuildEconomic returns one line chart of the selected series clipped to the
// date range. A missing or empty first series fails the build. A missing
// second series is left out with a warning.
func BuildEconomic(c stats.Collection, req EconomicRequest, spec Spec, opts Options) (Result, error) {
	if len(req.Series) == 0 {
		return Result{}, ErrNoPrimary
	}
	if len(req.Series) > MaxGroups {
		return Result{}, fmt.Errorf("%d series selected: %w", len(req.Series), ErrTooManyGroups)
	}

	primary, err := economicGroup(c, req.Series[0], req.Range)
	if err != nil {
		return Result{}, err
	}

	id := spec.ID
	if id == "" {
		id = IDEconomic
	}
	d := Descriptor{
		ID:     id,
		Title:  spec.title(strings.Join(req.Series, " / ")),
		Kind:   KindLine,
		Groups: []Group{primary},
		Width:  opts.Width,
		Height: opts.Height,
	}

	var res Result
	if len(req.Series) == 2 {
		g, err := economicGroup(c, req.Series[1], req.Range)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", req.Series[1], err))
		} else {
			d.Groups = append(d.Groups, g)
			d.Legend = "top"
		}
	}

	if req.ShowRecession {
		recessions := req.Recessions
		if recessions == nil {
			recessions = DefaultRecessions()
		}
		d.Spans = recessionSpans(recessions, req.Range)
	}

	res.Descriptors = []Descriptor{d}
	return res, nil
}

func economicGroup(c stats.Collection, name string, r DateRange) (Group, error) {
	t, err := c.Table(name)
	if err != nil {
		return Group{}, err
	}
	values, err := t.Column("value")
	if err != nil {
		return Group{}, err
	}

	g := Group{Label: name, Labels: []string{}, Series: []Series{{Name: name, Values: []Number{}}}}
	for i := 0; i < t.Len(); i++ {
		var raw any
		if i < len(t.Index) {
			raw = t.Index[i]
		}
		date, err := ParseDate(raw)
		if err != nil {
			return Group{}, fmt.Errorf("%w: series %s row %d: %v", stats.ErrSchema, name, i, err)
		}
		if !r.Contains(date) {
			continue
		}
		g.Labels = append(g.Labels, date.Format(dateLayout))
		g.Series[0].Values = append(g.Series[0].Values, Number(values[i]))
	}
	if len(g.Labels) == 0 {
		return Group{}, fmt.Errorf("%w: series %s has no observations between %s and %s",
			stats.ErrFilterEmpty, name, r.Start.Format(dateLayout), r.End.Format(dateLayout))
	}
	return g, nil
}

func recessionSpans(recessions []Recession, r DateRange) []Span {
	var spans []Span
	for _, rec := range recessions {
		if rec.End.Before(r.Start) || rec.Start.After(r.End) {
			continue
		}
		start, end := rec.Start, rec.End
		if start.Before(r.Start) {
			start = r.Start
		}
		if end.After(r.End) {
			end = r.End
		}
		spans = append(spans, Span{Label: rec.Name, Start: start.Format(dateLayout), End: end.Format(dateLayout)})
	}
	return spans
}

var dateLayouts = []string{dateLayout, "2006-01-02T15:04:05", time.RFC3339, "2006-01-02 15:04:05", "2006-01"}

// ParseDate reads a date index label: an ISO date or timestamp string, or
// epoch milliseconds as written by pandas.
func ParseDate(v any) (time.Time, error) {
	if s, ok := v.(string); ok {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	if ms, ok := stats.ToFloat(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %v", v)
}
