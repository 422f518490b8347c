package testutil

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"etfseasonal/internal/config"
	"etfseasonal/internal/stats"
)

// PriceStatColumns are the statistic columns of every price difference
// table, in pipeline order. Identifying columns follow them.
var PriceStatColumns = []string{
	"avg_diff", "med_diff", "tot_diff", "max_diff", "min_diff", "std_diff",
	"pos_avg_diff", "neg_avg_diff", "up_counts", "down_counts", "up_overall",
	"up_prob", "down_prob",
}

// Weekdays are the weekday labels of the daily_by_weekday fixtures.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Fixture tickers written by NewDatasetTree.
const (
	FixtureCategory = "ETF_sector"
	FixtureTicker   = "XLB"
)

// FixtureSeries are the FRED series written by NewDatasetTree.
var FixtureSeries = []string{"unemploy", "unemployNat", "fedFFR", "usGDP_YoY"}

var rangeSuffixes = []string{"range_20_yr", "range_15_yr", "range_10_yr", "range_5_yr"}

// Frame builds a table from columns, an optional index and rows.
func Frame(columns []string, index []any, rows ...[]any) *stats.Table {
	if rows == nil {
		rows = [][]any{}
	}
	t := stats.NewTable(columns, rows)
	t.Index = index
	return t
}

// PriceStats returns the statistic cells of one period with the given
// average difference and up probability, over 20 observations.
func PriceStats(avg, upProb float64) []any {
	up := math.Round(upProb * 20)
	down := 20 - up
	return []any{
		avg, avg * 0.8, avg * 20, avg + 0.02, avg - 0.02, 0.01,
		math.Abs(avg) + 0.005, -math.Abs(avg) - 0.004,
		up, down, up - down, upProb, 1 - upProb,
	}
}

func priceColumns(ids ...string) []string {
	return append(append([]string(nil), PriceStatColumns...), ids...)
}

func row(cells []any, ids ...any) []any {
	return append(cells, ids...)
}

// MonthlyPriceTable has one row per month. Month m has up_prob 0.4+0.03m,
// so months 10 and later reach the 0.70 threshold.
func MonthlyPriceTable() *stats.Table {
	var index []any
	var rows [][]any
	for m := 1; m <= 12; m++ {
		index = append(index, float64(m))
		rows = append(rows, row(PriceStats(0.002*float64(m-6), 0.4+0.03*float64(m)), float64(m)))
	}
	return Frame(priceColumns("month"), index, rows...)
}

// WeeklyPriceTable has one row per ISO week 1..53.
func WeeklyPriceTable() *stats.Table {
	var index []any
	var rows [][]any
	for w := 1; w <= 53; w++ {
		index = append(index, float64(w))
		rows = append(rows, row(PriceStats(0.001*float64(w%7-3), 0.45+0.005*float64(w%10)), float64(w)))
	}
	return Frame(priceColumns("week"), index, rows...)
}

// DailyByTrdrDayTable has trading days 1..3 for every month.
func DailyByTrdrDayTable() *stats.Table {
	var index []any
	var rows [][]any
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 3; d++ {
			index = append(index, float64(d))
			rows = append(rows, row(PriceStats(0.001*float64(d-2)+0.0001*float64(m), 0.5+0.05*float64(d-1)), float64(d), float64(m)))
		}
	}
	return Frame(priceColumns("trdr_day", "month"), index, rows...)
}

// DailyByWeekdayTable has the five weekdays for weeks 1..52.
func DailyByWeekdayTable() *stats.Table {
	var index []any
	var rows [][]any
	for w := 1; w <= 52; w++ {
		for i, day := range Weekdays {
			index = append(index, day)
			rows = append(rows, row(PriceStats(0.001*float64(i-2), 0.5+0.04*float64(i)), day, float64(w)))
		}
	}
	return Frame(priceColumns("weekday", "week"), index, rows...)
}

// HolidayTable has days -2..2 around each named holiday.
func HolidayTable(holidays ...string) *stats.Table {
	var index []any
	var rows [][]any
	for h, name := range holidays {
		for d := -2; d <= 2; d++ {
			index = append(index, float64(d))
			rows = append(rows, row(PriceStats(0.001*float64(d)+0.0005*float64(h), 0.55+0.03*float64(d)), float64(d), name))
		}
	}
	return Frame(priceColumns("holiday_day", "holiday_category"), index, rows...)
}

// TWWTable has days 1..5 of each TWW period and its week-after companion.
func TWWTable(periods ...string) *stats.Table {
	var index []any
	var rows [][]any
	for _, p := range periods {
		for _, name := range []string{p, p + "_week_aft"} {
			for d := 1; d <= 5; d++ {
				index = append(index, float64(d))
				rows = append(rows, row(PriceStats(0.0008*float64(d-3), 0.5+0.04*float64(d-3)), float64(d), name))
			}
		}
	}
	return Frame(priceColumns("tww_day", "tww_period"), index, rows...)
}

// SpecialPeriodTables returns one table per special-period family.
func SpecialPeriodTables() map[string]*stats.Table {
	out := make(map[string]*stats.Table)

	var idx []any
	var data [][]any
	for m := 1; m <= 12; m++ {
		idx = append(idx, float64(m))
		data = append(data, row(PriceStats(0.003, 0.6+0.01*float64(m)), float64(m)))
	}
	out["first_trdr_dom"] = Frame(priceColumns("month"), idx, data...)

	idx, data = nil, nil
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 2; d++ {
			idx = append(idx, float64(d))
			data = append(data, row(PriceStats(0.001*float64(d), 0.6), float64(d), float64(m)))
		}
	}
	out["first_trdr_dom_by_month"] = Frame(priceColumns("trdr_day", "month"), idx, data...)

	idx, data = nil, nil
	for d := 1; d <= 3; d++ {
		idx = append(idx, float64(d))
		data = append(data, row(PriceStats(0.002, 0.65), float64(d)))
	}
	out["super_day"] = Frame(priceColumns("super_day"), idx, data...)

	idx, data = nil, nil
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 3; d++ {
			idx = append(idx, float64(d))
			data = append(data, row(PriceStats(0.002, 0.65), float64(d), float64(m)))
		}
	}
	out["super_day_by_month"] = Frame(priceColumns("super_day", "super_day_spec_month"), idx, data...)

	idx, data = nil, nil
	for d := 1; d <= 7; d++ {
		idx = append(idx, float64(d))
		data = append(data, row(PriceStats(0.0015, 0.72), float64(d)))
	}
	out["santa_rally"] = Frame(priceColumns("santa_day"), idx, data...)

	return out
}

// VolumeTables returns the three volume tables of one frequency, keyed the
// way the pipeline keys them.
func VolumeTables(freq string) map[string]*stats.Table {
	var periodCols []string
	var periods [][]any
	switch freq {
	case "monthly":
		periodCols = []string{"month"}
		for m := 1; m <= 12; m++ {
			periods = append(periods, []any{float64(m)})
		}
	case "weekly":
		periodCols = []string{"week"}
		for w := 1; w <= 53; w++ {
			periods = append(periods, []any{float64(w)})
		}
	case "daily_by_trdr_day":
		periodCols = []string{"trdr_day", "month"}
		for m := 1; m <= 12; m++ {
			for d := 1; d <= 3; d++ {
				periods = append(periods, []any{float64(d), float64(m)})
			}
		}
	case "daily_by_weekday":
		periodCols = []string{"weekday", "week"}
		for w := 1; w <= 52; w++ {
			for _, day := range Weekdays {
				periods = append(periods, []any{day, float64(w)})
			}
		}
	default:
		panic(fmt.Sprintf("testutil: unknown frequency %q", freq))
	}

	var yearIdx []any
	var yearRows [][]any
	for y := 2015; y <= 2024; y++ {
		yearIdx = append(yearIdx, float64(y))
		yearRows = append(yearRows, []any{float64(1000 + 10*(y-2015)), float64(y)})
	}

	var rowIdx []any
	var volRows, countRows [][]any
	for i, ids := range periods {
		rowIdx = append(rowIdx, ids[0])
		volRows = append(volRows, append([]any{float64(100 + i%5*10)}, ids...))
		countRows = append(countRows, append([]any{float64(4 + i%3), float64(6 - i%3)}, ids...))
	}

	return map[string]*stats.Table{
		freq + "_avg_vol_col": Frame([]string{"avg_vol_col", "year"}, yearIdx, yearRows...),
		freq + "_avg_vol_row": Frame(append([]string{"avg_vol_row"}, periodCols...), rowIdx, volRows...),
		freq:                  Frame(append([]string{"abv_avg_vol_counts", "blw_avg_vol_counts"}, periodCols...), rowIdx, countRows...),
	}
}

// EconomicSeries returns a quarterly series from 1975 through 2023.
func EconomicSeries(base float64) *stats.Table {
	var index []any
	var rows [][]any
	for y := 1975; y <= 2023; y++ {
		for m := 1; m <= 12; m += 3 {
			index = append(index, fmt.Sprintf("%04d-%02d-01", y, m))
			rows = append(rows, []any{base + float64(y-1975)*0.1 + float64(m)*0.01})
		}
	}
	return Frame([]string{"value"}, index, rows...)
}

// withRanges stores t under family and every bounded year range key.
func withRanges(c stats.Collection, family string, t *stats.Table, skip ...string) {
	c[family] = t
	for _, suffix := range rangeSuffixes {
		key := family + "_" + suffix
		skipped := false
		for _, s := range skip {
			if s == key {
				skipped = true
			}
		}
		if !skipped {
			c[key] = t.Clone()
		}
	}
}

// PriceCollection is the content of pivot_stats.json.
func PriceCollection() stats.Collection {
	c := stats.Collection{}
	withRanges(c, "monthly", MonthlyPriceTable())
	withRanges(c, "weekly", WeeklyPriceTable())
	withRanges(c, "daily_by_trdr_day", DailyByTrdrDayTable())
	withRanges(c, "daily_by_weekday", DailyByWeekdayTable())
	return c
}

// VolumeCollection is the content of pivot_vol_stats.json.
func VolumeCollection() stats.Collection {
	c := stats.Collection{}
	for _, freq := range []string{"monthly", "weekly", "daily_by_trdr_day", "daily_by_weekday"} {
		for k, t := range VolumeTables(freq) {
			c[k] = t
		}
	}
	return c
}

// HolidayCollection is variant 0 of pivot_unique_days.json. It has no
// compiled_holiday_range_5_yr key.
func HolidayCollection() stats.Collection {
	c := stats.Collection{}
	withRanges(c, "compiled_holiday", HolidayTable("new_year", "thanksgiving", "christmas"), "compiled_holiday_range_5_yr")
	return c
}

// TWWCollection is variant 1 of pivot_unique_days.json: the daily TWW table
// and the special-period tables.
func TWWCollection() stats.Collection {
	c := stats.Collection{}
	withRanges(c, "compiled_tww", TWWTable("tww_q1", "tww_q2", "tww_q3", "tww_q4"))
	for family, t := range SpecialPeriodTables() {
		withRanges(c, family, t)
	}
	return c
}

// TWWWeeklyCollection is variant 2 of pivot_unique_days.json.
func TWWWeeklyCollection() stats.Collection {
	c := stats.Collection{}
	withRanges(c, "compiled_tww", TWWTable("tww_q1", "tww_q4"))
	return c
}

// EconomicCollection is the content of fred_data.json.
func EconomicCollection() stats.Collection {
	c := stats.Collection{}
	for i, name := range FixtureSeries {
		c[name] = EconomicSeries(float64(i + 1))
	}
	return c
}

// WriteJSON marshals v to root/key, creating parent directories.
func WriteJSON(t testing.TB, root, key string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture %s: %v", key, err)
	}
	return WriteRaw(t, root, key, data)
}

// WriteRaw writes data to root/key, creating parent directories.
func WriteRaw(t testing.TB, root, key string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", key, err)
	}
	return path
}

// LegacyPair is the positional ["label", collection] document.
func LegacyPair(label string, c stats.Collection) []any {
	return []any{label, c}
}

// LegacyVariants is the positional [["label", collection], ...] document.
func LegacyVariants(labels []string, cs ...stats.Collection) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = LegacyPair(labels[i], c)
	}
	return out
}

// NewDatasetTree writes a complete dataset for FixtureCategory/FixtureTicker
// plus the FRED collection under a temporary root and returns the root.
func NewDatasetTree(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	ds := config.Default().Dataset

	WriteJSON(t, root, config.StorageKey(FixtureCategory, FixtureTicker, ds.PriceFile),
		LegacyPair("price", PriceCollection()))
	WriteJSON(t, root, config.StorageKey(FixtureCategory, FixtureTicker, ds.VolumeFile),
		LegacyPair("volume", VolumeCollection()))
	WriteJSON(t, root, config.StorageKey(FixtureCategory, FixtureTicker, ds.UniqueDaysFile),
		LegacyVariants([]string{"holiday", "tww", "tww_weekly"},
			HolidayCollection(), TWWCollection(), TWWWeeklyCollection()))
	WriteJSON(t, root, config.EconomicKey(ds), EconomicCollection())
	return root
}
