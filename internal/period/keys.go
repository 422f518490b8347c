package period

import (
	"fmt"
	"strings"
)

// YearRange is a bounded lookback window or the unbounded "max" range.
type YearRange string

const (
	MaxYears    YearRange = "max_yr"
	Last20Years YearRange = "range_20_yr"
	Last15Years YearRange = "range_15_yr"
	Last10Years YearRange = "range_10_yr"
	Last5Years  YearRange = "range_5_yr"
)

// YearRanges lists the supported ranges in selector order.
var YearRanges = []YearRange{MaxYears, Last20Years, Last15Years, Last10Years, Last5Years}

// Valid reports whether r is one of the supported ranges.
func (r YearRange) Valid() bool {
	switch r {
	case MaxYears, Last20Years, Last15Years, Last10Years, Last5Years:
		return true
	}
	return false
}

// Family selects a table family inside a collection.
type Family string

// Frequency families.
const (
	Monthly        Family = "monthly"
	Weekly         Family = "weekly"
	DailyByTrdrDay Family = "daily_by_trdr_day"
	DailyByWeekday Family = "daily_by_weekday"
)

// Holiday and turn-of-the-week families.
const (
	CompiledHoliday Family = "compiled_holiday"
	CompiledTWW     Family = "compiled_tww"
)

// Special-period families.
const (
	FirstTrdrDom        Family = "first_trdr_dom"
	FirstTrdrDomByMonth Family = "first_trdr_dom_by_month"
	SuperDay            Family = "super_day"
	SuperDayByMonth     Family = "super_day_by_month"
	SantaRally          Family = "santa_rally"
)

// Frequencies lists the frequency families in selector order.
var Frequencies = []Family{Monthly, Weekly, DailyByTrdrDay, DailyByWeekday}

// SpecialPeriods lists the special-period families in selector order.
var SpecialPeriods = []Family{FirstTrdrDom, FirstTrdrDomByMonth, SuperDay, SuperDayByMonth, SantaRally}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	switch f {
	case Monthly, Weekly, DailyByTrdrDay, DailyByWeekday,
		CompiledHoliday, CompiledTWW,
		FirstTrdrDom, FirstTrdrDomByMonth, SuperDay, SuperDayByMonth, SantaRally:
		return true
	}
	return false
}

// IsFrequency reports whether f is one of the four frequency families.
func (f Family) IsFrequency() bool {
	switch f {
	case Monthly, Weekly, DailyByTrdrDay, DailyByWeekday:
		return true
	}
	return false
}

// ResolveKey maps a family and year range to the collection key.
// The max range uses the bare family name; every other range appends its
// suffix.
func ResolveKey(base Family, yr YearRange) (string, error) {
	if !base.Valid() {
		return "", fmt.Errorf("unknown table family %q", base)
	}
	switch yr {
	case MaxYears:
		return string(base), nil
	case Last20Years, Last15Years, Last10Years, Last5Years:
		return string(base) + "_" + string(yr), nil
	default:
		return "", fmt.Errorf("unknown year range %q", yr)
	}
}

// VolumePart names one of the three tables a volume collection holds per
// frequency.
type VolumePart int

const (
	// VolumeByYear is the yearly average volume table ({freq}_avg_vol_col).
	VolumeByYear VolumePart = iota
	// VolumeByPeriod is the per-period average volume table ({freq}_avg_vol_row).
	VolumeByPeriod
	// VolumeCounts is the above/below average counts table ({freq}).
	VolumeCounts
)

// VolumeKey maps a frequency family to one of its volume table keys.
func VolumeKey(freq Family, part VolumePart) (string, error) {
	if !freq.IsFrequency() {
		return "", fmt.Errorf("volume tables are only kept per frequency, got %q", freq)
	}
	switch part {
	case VolumeByYear:
		return string(freq) + "_avg_vol_col", nil
	case VolumeByPeriod:
		return string(freq) + "_avg_vol_row", nil
	case VolumeCounts:
		return string(freq), nil
	default:
		return "", fmt.Errorf("unknown volume part %d", part)
	}
}

// PeriodColumn returns the column a period-indexed family filters on.
func PeriodColumn(f Family) (string, bool) {
	switch f {
	case DailyByTrdrDay, FirstTrdrDomByMonth:
		return "month", true
	case DailyByWeekday:
		return "week", true
	case SuperDayByMonth:
		return "super_day_spec_month", true
	}
	return "", false
}

// SecondaryColumn returns the within-period dimension of a daily family,
// used when averaging across all periods.
func SecondaryColumn(f Family) (string, bool) {
	switch f {
	case DailyByTrdrDay:
		return "trdr_day", true
	case DailyByWeekday:
		return "weekday", true
	}
	return "", false
}

// CategoryColumn returns the column a named-category family filters on.
func CategoryColumn(f Family) (string, bool) {
	switch f {
	case CompiledHoliday:
		return "holiday_category", true
	case CompiledTWW:
		return "tww_period", true
	}
	return "", false
}

// Bounds returns the inclusive selector bounds for the period of f.
func Bounds(f Family) (lo, hi int, ok bool) {
	col, ok := PeriodColumn(f)
	if !ok {
		return 0, 0, false
	}
	if col == "week" {
		return 1, 53, true
	}
	return 1, 12, true
}

// WeekAfter returns the name of the week-after variant of a TWW period.
func WeekAfter(tww string) string {
	return tww + "_week_aft"
}

// Title formats a selector value for display: underscores become spaces
// and each word is capitalised.
func Title(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
