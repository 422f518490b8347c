package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"etfseasonal/internal/charts"
	"etfseasonal/internal/period"
)

const dateLayout = "2006-01-02"

// Selection is the full set of selector values of one tab render. Fields
// that do not apply to the tab are ignored.
type Selection struct {
	Tab      Tab    `json:"tab" validate:"required"`
	Category string `json:"category,omitempty"`
	Ticker   string `json:"ticker,omitempty" validate:"omitempty,max=16,excludesall=/"`

	YearRange period.YearRange `json:"year_range,omitempty"`
	Frequency period.Family    `json:"frequency,omitempty"`
	// Period is the month or week of the daily and by-month families.
	Period  int  `json:"period,omitempty" validate:"omitempty,min=1,max=53"`
	Overall bool `json:"overall,omitempty"`

	Holiday string        `json:"holiday,omitempty"`
	TWW     string        `json:"tww,omitempty"`
	Weekly  bool          `json:"weekly,omitempty"`
	Special period.Family `json:"special,omitempty"`

	Group         string     `json:"group,omitempty"`
	Series        [][]string `json:"series,omitempty" validate:"omitempty,dive,min=1,dive,required"`
	Start         string     `json:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	End           string     `json:"end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ShowRecession *bool      `json:"show_recession,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, fmt.Sprintf(format, args...))
}

// Normalize validates the selection and fills the defaults of the fields its
// tab uses.
func (sel Selection) Normalize() (Selection, error) {
	if err := validate.Struct(sel); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
			}
			return sel, invalid("%s", strings.Join(msgs, "; "))
		}
		return sel, invalid("%v", err)
	}
	if _, err := ParseTab(string(sel.Tab)); err != nil {
		return sel, err
	}

	if sel.Tab.needsTicker() {
		if sel.Category == "" || sel.Ticker == "" {
			return sel, invalid("category and ticker are required")
		}
	}

	switch sel.Tab {
	case TabPrice, TabHoliday, TabTWW, TabSpecial:
		if sel.YearRange == "" {
			sel.YearRange = period.MaxYears
		}
		if !sel.YearRange.Valid() {
			return sel, invalid("unknown year range %q", sel.YearRange)
		}
	}

	switch sel.Tab {
	case TabPrice, TabVolume:
		if sel.Frequency == "" {
			sel.Frequency = period.Monthly
		}
		if !sel.Frequency.IsFrequency() {
			return sel, invalid("unknown frequency %q", sel.Frequency)
		}
		if err := sel.normalizePeriod(sel.Frequency); err != nil {
			return sel, err
		}
	case TabHoliday:
		if sel.Holiday == "" {
			sel.Holiday = period.Holidays[0]
		}
		if !period.IsHoliday(sel.Holiday) {
			return sel, invalid("unknown holiday %q", sel.Holiday)
		}
	case TabTWW:
		if sel.TWW == "" {
			sel.TWW = period.TWWPeriods[0]
		}
		if !period.IsTWWPeriod(sel.TWW) {
			return sel, invalid("unknown TWW period %q", sel.TWW)
		}
	case TabSpecial:
		if sel.Special == "" {
			sel.Special = period.SpecialPeriods[0]
		}
		if !period.IsSpecialPeriod(sel.Special) {
			return sel, invalid("unknown special period %q", sel.Special)
		}
		if err := sel.normalizePeriod(sel.Special); err != nil {
			return sel, err
		}
	case TabEconomic:
		if err := sel.normalizeEconomic(); err != nil {
			return sel, err
		}
	}
	return sel, nil
}

// normalizePeriod defaults the period of a period-indexed family to 1 and
// checks it against the family's bounds. Other families ignore it.
func (sel *Selection) normalizePeriod(f period.Family) error {
	lo, hi, ok := period.Bounds(f)
	if !ok {
		sel.Period = 0
		return nil
	}
	if sel.Period == 0 {
		sel.Period = lo
	}
	if sel.Period < lo || sel.Period > hi {
		return invalid("period %d of %s is outside %d-%d", sel.Period, f, lo, hi)
	}
	return nil
}

func (sel *Selection) normalizeEconomic() error {
	if sel.Group == "" {
		sel.Group = SeriesGroups[0].Name
	}
	g, err := LookupGroup(sel.Group)
	if err != nil {
		return err
	}
	if len(sel.Series) == 0 {
		sel.Series = g.DefaultSeries()
	}
	if len(sel.Series) > MaxEconomicCharts {
		return fmt.Errorf("%w: %d charts, at most %d", ErrTooManySeries, len(sel.Series), MaxEconomicCharts)
	}
	for _, chart := range sel.Series {
		if len(chart) > charts.MaxGroups {
			return fmt.Errorf("%w: %d series in one chart, at most %d", ErrTooManySeries, len(chart), charts.MaxGroups)
		}
		for _, name := range chart {
			if !g.Has(name) {
				return invalid("series %q is not in group %s", name, g.Name)
			}
		}
	}
	if sel.ShowRecession == nil {
		show := true
		sel.ShowRecession = &show
	}
	return nil
}

// dateRange returns the selected date window, filling missing ends from def.
func (sel Selection) dateRange(def charts.DateRange) (charts.DateRange, error) {
	r := def
	if sel.Start != "" {
		t, err := time.Parse(dateLayout, sel.Start)
		if err != nil {
			return r, invalid("start: %v", err)
		}
		r.Start = t
	}
	if sel.End != "" {
		t, err := time.Parse(dateLayout, sel.End)
		if err != nil {
			return r, invalid("end: %v", err)
		}
		r.End = t
	}
	if r.End.Before(r.Start) {
		return r, invalid("end %s is before start %s", r.End.Format(dateLayout), r.Start.Format(dateLayout))
	}
	return r, nil
}
