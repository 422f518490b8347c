package table

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/config"
	"etfseasonal/internal/shared/testutil"
	"etfseasonal/internal/stats"
)

func fixedStyle(now time.Time) Style {
	s := DefaultStyle()
	s.Now = func() time.Time { return now }
	return s
}

func column(p Presentation, name string) int {
	for i, c := range p.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func TestFormat_ColumnRotation(t *testing.T) {
	f := NewFormatter(DefaultStyle())
	tests := []struct {
		family string
		table  *stats.Table
		first  []string
	}{
		{"monthly", testutil.MonthlyPriceTable(), []string{"month", "avg_diff"}},
		{"weekly", testutil.WeeklyPriceTable(), []string{"week", "avg_diff"}},
		{"daily_by_trdr_day", testutil.DailyByTrdrDayTable(), []string{"trdr_day", "month", "avg_diff"}},
		{"daily_by_weekday", testutil.DailyByWeekdayTable(), []string{"weekday", "week", "avg_diff"}},
		{"compiled_holiday", testutil.HolidayTable("christmas"), []string{"holiday_day", "holiday_category", "avg_diff"}},
		{"santa_rally", testutil.SpecialPeriodTables()["santa_rally"], []string{"santa_day", "avg_diff"}},
		{"super_day_by_month", testutil.SpecialPeriodTables()["super_day_by_month"], []string{"super_day", "super_day_spec_month", "avg_diff"}},
	}
	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			p := f.Format(tt.table, tt.family)
			require.Len(t, p.Columns, len(tt.table.Columns))
			assert.Equal(t, tt.first, p.Header()[:len(tt.first)])
			assert.Equal(t, tt.table.Len(), p.Len())
		})
	}
}

func TestFormat_NumberFormats(t *testing.T) {
	tbl := testutil.Frame([]string{"avg_diff", "up_prob", "up_counts", "month"}, nil,
		[]any{0.01234, 0.756, 15.0, 3.0},
	)
	p := NewFormatter(fixedStyle(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))).Format(tbl, "monthly")

	assert.Equal(t, []string{"month", "avg_diff", "up_prob", "up_counts"}, p.Header())
	assert.Equal(t, []string{"3", "1.234%", "75.60%", "15"}, p.Records()[0])
	assert.Equal(t, KindPercent, p.Columns[1].Kind)
	assert.Equal(t, KindProbability, p.Columns[2].Kind)
	assert.Equal(t, KindPlain, p.Columns[3].Kind)
}

func TestFormat_ProbabilityHighlight(t *testing.T) {
	tbl := testutil.Frame([]string{"up_prob", "down_prob", "up_overall", "month"}, nil,
		[]any{0.75, 0.25, 5.0, 1.0},
		[]any{0.65, 0.35, -3.0, 2.0},
		[]any{0.30, 0.70, 0.0, 3.0},
	)
	p := NewFormatter(fixedStyle(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC))).Format(tbl, "monthly")
	up, down, overall := column(p, "up_prob"), column(p, "down_prob"), column(p, "up_overall")

	assert.True(t, p.Rows[0].Cells[up].Highlight, "0.75 reaches the threshold")
	assert.False(t, p.Rows[1].Cells[up].Highlight, "0.65 is below the threshold")
	assert.True(t, p.Rows[2].Cells[down].Highlight, "0.70 is inclusive")
	assert.True(t, p.Rows[0].Cells[overall].Highlight)
	assert.False(t, p.Rows[1].Cells[overall].Highlight)
	assert.False(t, p.Rows[2].Cells[overall].Highlight)
}

func TestFormat_CustomThreshold(t *testing.T) {
	s := StyleFromConfig(config.RenderConfig{ProbabilityThreshold: 0.6})
	tbl := testutil.Frame([]string{"up_prob", "month"}, nil, []any{0.65, 1.0})
	p := NewFormatter(s).Format(tbl, "monthly")
	assert.True(t, p.Rows[0].Cells[column(p, "up_prob")].Highlight)
}

func TestFormat_CurrentPeriod(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	_, isoWeek := now.ISOWeek()
	f := NewFormatter(fixedStyle(now))

	t.Run("month", func(t *testing.T) {
		p := f.Format(testutil.MonthlyPriceTable(), "monthly")
		idx := column(p, "month")
		for i, row := range p.Rows {
			assert.Equal(t, i == 2, row.Current, "row %d", i)
			assert.Equal(t, i == 2, row.Cells[idx].Highlight, "row %d", i)
		}
	})
	t.Run("week", func(t *testing.T) {
		p := f.Format(testutil.DailyByWeekdayTable(), "daily_by_weekday")
		idx := column(p, "week")
		current := 0
		for _, row := range p.Rows {
			if row.Current {
				current++
				assert.Equal(t, float64(isoWeek), row.Cells[idx].Raw)
			}
		}
		assert.Equal(t, len(testutil.Weekdays), current)
	})
	t.Run("not a frequency", func(t *testing.T) {
		p := f.Format(testutil.SpecialPeriodTables()["first_trdr_dom"], "first_trdr_dom")
		for _, row := range p.Rows {
			assert.False(t, row.Current)
		}
	})
}

func TestFormat_Nulls(t *testing.T) {
	tbl := testutil.Frame([]string{"avg_diff", "up_prob", "month"}, nil,
		[]any{nil, math.NaN(), 1.0},
	)
	p := NewFormatter(DefaultStyle()).Format(tbl, "monthly")
	cells := p.Rows[0].Cells
	assert.True(t, cells[column(p, "avg_diff")].Null)
	assert.True(t, cells[column(p, "up_prob")].Null)
	assert.Equal(t, "nan", cells[column(p, "avg_diff")].Text)
	assert.Nil(t, cells[column(p, "avg_diff")].Bar)
	assert.False(t, cells[column(p, "month")].Null)

	_, err := json.Marshal(p)
	assert.NoError(t, err)
}

func TestFormat_DataBars(t *testing.T) {
	tbl := testutil.Frame([]string{"avg_diff", "max_diff", "month"}, nil,
		[]any{0.02, 0.05, 1.0},
		[]any{-0.04, 0.01, 2.0},
	)
	p := NewFormatter(DefaultStyle()).Format(tbl, "monthly")
	avg := column(p, "avg_diff")

	require.NotNil(t, p.Rows[0].Cells[avg].Bar)
	assert.InDelta(t, 0.5, *p.Rows[0].Cells[avg].Bar, 1e-9)
	assert.InDelta(t, -1.0, *p.Rows[1].Cells[avg].Bar, 1e-9)
	assert.True(t, p.Columns[avg].Bar)
	assert.Nil(t, p.Rows[0].Cells[column(p, "max_diff")].Bar)
}

func TestFormat_DoesNotMutateSource(t *testing.T) {
	tbl := testutil.DailyByTrdrDayTable()
	before := tbl.Clone()

	p := NewFormatter(DefaultStyle()).Format(tbl, "daily_by_trdr_day")
	assert.Equal(t, before.Columns, tbl.Columns)
	assert.Equal(t, before.Rows, tbl.Rows)
	assert.Equal(t, tbl.Len(), p.Len())

	// raw values survive the reorder
	avg := column(p, "avg_diff")
	for r := range p.Rows {
		want, _ := tbl.Float(r, "avg_diff")
		assert.Equal(t, want, p.Rows[r].Cells[avg].Raw)
	}
}

func TestFormat_Degenerate(t *testing.T) {
	f := NewFormatter(Style{})
	p := f.Format(nil, "monthly")
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Columns)

	one := testutil.Frame([]string{"month"}, nil, []any{1.0})
	p = f.Format(one, "daily_by_trdr_day")
	assert.Equal(t, []string{"month"}, p.Header())
}

func TestStyleFromConfig(t *testing.T) {
	s := StyleFromConfig(config.RenderConfig{HighlightColor: "yellow", ProbabilityThreshold: 2})
	assert.Equal(t, "yellow", s.HighlightColor)
	assert.Equal(t, "gray", s.NullColor)
	assert.InDelta(t, 0.7, s.Threshold, 1e-9)
	assert.NotNil(t, s.Now)
}
