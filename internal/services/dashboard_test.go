package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/charts"
	"etfseasonal/internal/dataset"
	"etfseasonal/internal/files"
	"etfseasonal/internal/period"
	"etfseasonal/internal/shared/testutil"
	"etfseasonal/internal/stats"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*DashboardService, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	loc := dataset.NewLocator(files.NewManager(testutil.NewDatasetTree(t)), dataset.WithLogger(logger))
	svc := NewDashboardService(loc,
		WithClock(func() time.Time { return testNow }),
		WithDashboardLogger(logger))
	return svc, handler
}

func tickerSelection(tab Tab) Selection {
	return Selection{Tab: tab, Category: testutil.FixtureCategory, Ticker: testutil.FixtureTicker}
}

func chartIDs(res *TabResult) []string {
	ids := make([]string, len(res.Charts))
	for i, d := range res.Charts {
		ids[i] = d.ID
	}
	return ids
}

func sectionReason(res *TabResult, name string) string {
	for _, s := range res.Sections {
		if s.Name == name {
			return s.Reason
		}
	}
	return ""
}

func TestRender_Price(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("monthly defaults", func(t *testing.T) {
		res, err := svc.Render(ctx, tickerSelection(TabPrice))
		require.NoError(t, err)

		assert.Equal(t, period.Monthly, res.Selection.Frequency)
		assert.Equal(t, period.MaxYears, res.Selection.YearRange)
		assert.True(t, res.Available(SectionTable))
		assert.True(t, res.Available(SectionCharts))
		assert.Equal(t, []string{charts.IDAvgDiff, charts.IDUpProb, charts.IDCounts}, chartIDs(res))

		require.NotNil(t, res.Table)
		assert.Equal(t, "monthly", res.Table.Family)
		assert.Equal(t, 12, res.Table.Len())
		assert.True(t, res.Table.Rows[2].Current, "March is the current month")
		assert.Equal(t, "XLB Monthly: Average Price Difference", res.Charts[0].Title)
	})

	t.Run("daily table is unfiltered, charts show one month", func(t *testing.T) {
		sel := tickerSelection(TabPrice)
		sel.Frequency = period.DailyByTrdrDay
		sel.Period = 3
		sel.YearRange = period.Last10Years

		res, err := svc.Render(ctx, sel)
		require.NoError(t, err)
		assert.Equal(t, 36, res.Table.Len())

		avg, ok := res.Chart(charts.IDAvgDiff)
		require.True(t, ok)
		require.Len(t, avg.Groups, 1)
		assert.Equal(t, []string{"1", "2", "3"}, avg.Groups[0].Labels)
	})

	t.Run("empty period keeps the table", func(t *testing.T) {
		sel := tickerSelection(TabPrice)
		sel.Frequency = period.DailyByWeekday
		sel.Period = 53

		res, err := svc.Render(ctx, sel)
		require.NoError(t, err)
		assert.True(t, res.Available(SectionTable))
		assert.False(t, res.Available(SectionCharts))
		assert.Contains(t, sectionReason(res, SectionCharts), stats.ErrFilterEmpty.Error())
		assert.Empty(t, res.Charts)
	})
}

func TestRender_Volume(t *testing.T) {
	svc, _ := newTestService(t)

	sel := tickerSelection(TabVolume)
	sel.Frequency = period.DailyByTrdrDay
	sel.Overall = true

	res, err := svc.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Nil(t, res.Table)
	assert.Equal(t, []Section{{Name: SectionCharts, Available: true}}, res.Sections)
	assert.Equal(t, []string{charts.IDYearlyVolume, charts.IDAverageVolume, charts.IDVolumeCounts}, chartIDs(res))
	assert.Equal(t, 1, res.Selection.Period)
}

func TestRender_Holiday(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		holiday   string
		yr        period.YearRange
		available bool
		reason    error
	}{
		{"christmas", "christmas", period.MaxYears, true, nil},
		{"holiday not in table", "valentine", period.MaxYears, false, stats.ErrFilterEmpty},
		{"missing range key", "christmas", period.Last5Years, false, stats.ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := tickerSelection(TabHoliday)
			sel.Holiday = tt.holiday
			sel.YearRange = tt.yr

			res, err := svc.Render(ctx, sel)
			require.NoError(t, err)
			assert.Equal(t, tt.available, res.Available(SectionTable))
			assert.Equal(t, tt.available, res.Available(SectionCharts))
			if !tt.available {
				assert.Contains(t, sectionReason(res, SectionTable), tt.reason.Error())
				assert.Nil(t, res.Table)
				return
			}
			assert.Equal(t, 5, res.Table.Len())
			counts, ok := res.Chart(charts.IDCounts)
			require.True(t, ok)
			assert.True(t, counts.Stacked)
			assert.Len(t, counts.Groups, 1)
		})
	}
}

func TestRender_TWW(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("daily pairs the week after", func(t *testing.T) {
		sel := tickerSelection(TabTWW)
		sel.TWW = "tww_q2"

		res, err := svc.Render(ctx, sel)
		require.NoError(t, err)
		assert.Equal(t, 10, res.Table.Len())

		counts, ok := res.Chart(charts.IDCounts)
		require.True(t, ok)
		require.Len(t, counts.Groups, 2)
		assert.False(t, counts.Stacked)
		assert.Equal(t, "tww_q2", counts.Groups[0].Label)
		assert.Equal(t, "tww_q2_week_aft", counts.Groups[1].Label)
	})

	t.Run("weekly variant", func(t *testing.T) {
		sel := tickerSelection(TabTWW)
		sel.Weekly = true
		sel.TWW = "tww_q4"

		res, err := svc.Render(ctx, sel)
		require.NoError(t, err)
		assert.True(t, res.Available(SectionCharts))

		sel.TWW = "tww_q2"
		res, err = svc.Render(ctx, sel)
		require.NoError(t, err)
		assert.False(t, res.Available(SectionTable))
		assert.False(t, res.Available(SectionCharts))
	})
}

func TestRender_Special(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		special period.Family
		period  int
		rows    int
	}{
		{period.FirstTrdrDom, 0, 12},
		{period.FirstTrdrDomByMonth, 0, 2},
		{period.SuperDay, 0, 3},
		{period.SuperDayByMonth, 5, 3},
		{period.SantaRally, 0, 7},
	}
	for _, tt := range tests {
		t.Run(string(tt.special), func(t *testing.T) {
			sel := tickerSelection(TabSpecial)
			sel.Special = tt.special
			sel.Period = tt.period

			res, err := svc.Render(context.Background(), sel)
			require.NoError(t, err)
			require.True(t, res.Available(SectionTable), sectionReason(res, SectionTable))
			assert.Equal(t, tt.rows, res.Table.Len())
			assert.Len(t, res.Charts, 3)
		})
	}
}

func TestRender_Economic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("group defaults", func(t *testing.T) {
		res, err := svc.Render(ctx, Selection{Tab: TabEconomic})
		require.NoError(t, err)

		assert.Equal(t, "employment", res.Selection.Group)
		assert.Equal(t, [][]string{{"unemploy"}, {"unemployNat"}, {"participation"}}, res.Selection.Series)
		require.NotNil(t, res.Selection.ShowRecession)
		assert.True(t, *res.Selection.ShowRecession)

		assert.Equal(t, []string{"economic_1", "economic_2"}, chartIDs(res))
		assert.True(t, res.Available("economic_1"))
		assert.False(t, res.Available("economic_3"), "participation is not in the fixture")
		assert.NotEmpty(t, res.Charts[0].Spans)
	})

	t.Run("paired series and date range", func(t *testing.T) {
		hide := false
		res, err := svc.Render(ctx, Selection{
			Tab:           TabEconomic,
			Group:         "employment",
			Series:        [][]string{{"unemploy", "popGrowth_YoY"}},
			Start:         "2000-01-01",
			End:           "2010-12-01",
			ShowRecession: &hide,
		})
		require.NoError(t, err)
		require.Len(t, res.Charts, 1)
		assert.Len(t, res.Charts[0].Groups, 1)
		assert.Empty(t, res.Charts[0].Spans)
		assert.Equal(t, "2000-01-01", res.Charts[0].Groups[0].Labels[0])
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "popGrowth_YoY")
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := svc.Render(ctx, Selection{Tab: TabEconomic, Start: "2010-01-01", End: "2000-01-01"})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestRender_DataUnavailable(t *testing.T) {
	svc, handler := newTestService(t)

	sel := tickerSelection(TabPrice)
	sel.Ticker = "XLK"
	_, err := svc.Render(context.Background(), sel)
	assert.ErrorIs(t, err, stats.ErrDataUnavailable)

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Tab unavailable")
	testutil.AssertLogAttr(t, handler, "component", "dashboard_service")
}

func TestRender_ResultEncodes(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Render(context.Background(), tickerSelection(TabHoliday))
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "holiday", decoded["tab"])
	assert.Contains(t, decoded, "table")
	assert.Len(t, decoded["charts"], 3)
}

func TestDashboardService_Chart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.Chart(ctx, tickerSelection(TabPrice), charts.IDUpProb)
	require.NoError(t, err)
	assert.Equal(t, charts.IDUpProb, d.ID)

	_, err = svc.Chart(ctx, tickerSelection(TabVolume), charts.IDUpProb)
	assert.ErrorIs(t, err, ErrChartNotFound)

	sel := tickerSelection(TabHoliday)
	sel.Holiday = "valentine"
	_, err = svc.Chart(ctx, sel, charts.IDCounts)
	assert.ErrorIs(t, err, ErrChartNotFound)
	assert.Contains(t, err.Error(), stats.ErrFilterEmpty.Error())
}

func TestDashboardService_Table(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Table(ctx, tickerSelection(TabSpecial))
	require.NoError(t, err)
	assert.Equal(t, "first_trdr_dom", p.Family)

	_, err = svc.Table(ctx, tickerSelection(TabVolume))
	assert.ErrorIs(t, err, ErrTableUnavailable)

	_, err = svc.Table(ctx, Selection{Tab: TabEconomic})
	assert.ErrorIs(t, err, ErrTableUnavailable)
}

func TestDashboardService_Options(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	opts := svc.Options(ctx)
	assert.Len(t, opts.Tabs, 6)
	assert.Equal(t, "Price Difference", opts.Tabs[0].Title)
	assert.Equal(t, []string{"ETF_sector", "ETF_equity/PPA"}, opts.Categories)
	assert.Len(t, opts.YearRanges, 5)
	assert.Equal(t, "1980-01-01", opts.EconomicStart)
	assert.Equal(t, "2024-12-01", opts.EconomicEnd)

	require.Len(t, opts.Frequencies, 4)
	assert.Equal(t, Choice{Value: "monthly", Label: "Monthly"}, opts.Frequencies[0])
	assert.Equal(t, Choice{Value: "daily_by_weekday", Label: "Daily By Weekday", Min: 1, Max: 53}, opts.Frequencies[3])
	assert.Equal(t, 12, opts.SpecialPeriods[1].Max)
	assert.Equal(t, "Mar Lut King Jr", opts.Holidays[1].Label)
	assert.Equal(t, "Fed Monetary", opts.SeriesGroups[5].Label)

	tickers, err := svc.Tickers(ctx, testutil.FixtureCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{testutil.FixtureTicker}, tickers)

	_, err = svc.Tickers(ctx, "ETF_bond")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestDashboardService_MockResolver(t *testing.T) {
	m := new(MockResolver)
	m.On("Resolve", mock.Anything, dataset.Key{
		Category: "ETF_sector", Ticker: "XLB", Filename: "pivot_unique_days.json", Variant: dataset.Variant(2),
	}).Return(testutil.TWWWeeklyCollection(), nil).Once()

	svc := NewDashboardService(m)
	sel := tickerSelection(TabTWW)
	sel.Weekly = true

	res, err := svc.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.True(t, res.Available(SectionCharts))
	m.AssertExpectations(t)
}
