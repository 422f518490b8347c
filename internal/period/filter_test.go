package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/stats"
)

func dailyByTrdrDay() *stats.Table {
	rows := [][]any{}
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 3; day++ {
			rows = append(rows, []any{0.01 * float64(day), float64(day), float64(month)})
		}
	}
	return stats.NewTable([]string{"avg_diff", "trdr_day", "month"}, rows)
}

func TestResolveKey(t *testing.T) {
	families := []Family{Monthly, Weekly, DailyByTrdrDay, DailyByWeekday, CompiledHoliday, CompiledTWW, SantaRally}

	for _, f := range families {
		for _, yr := range YearRanges {
			t.Run(string(f)+"/"+string(yr), func(t *testing.T) {
				key, err := ResolveKey(f, yr)
				require.NoError(t, err)
				if yr == MaxYears {
					assert.Equal(t, string(f), key)
				} else {
					assert.Equal(t, string(f)+"_"+string(yr), key)
				}
			})
		}
	}
}

func TestResolveKey_RejectsUnknownValues(t *testing.T) {
	_, err := ResolveKey("hourly", MaxYears)
	assert.Error(t, err)

	_, err = ResolveKey(Monthly, "range_3_yr")
	assert.Error(t, err)
}

func TestFilter_PeriodIndexed(t *testing.T) {
	c := stats.Collection{"daily_by_trdr_day": dailyByTrdrDay()}

	got, err := Filter(c, DailyByTrdrDay, MaxYears, ByPeriod(3))
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	for i := 0; i < got.Len(); i++ {
		m, ok := got.Float(i, "month")
		require.True(t, ok)
		assert.Equal(t, 3.0, m)
	}

	// source order is kept
	days := []float64{}
	for i := 0; i < got.Len(); i++ {
		d, _ := got.Float(i, "trdr_day")
		days = append(days, d)
	}
	assert.Equal(t, []float64{1, 2, 3}, days)
}

func TestFilter_NoMatchIsEmptyNotError(t *testing.T) {
	c := stats.Collection{"daily_by_trdr_day": dailyByTrdrDay()}

	got, err := Filter(c, DailyByTrdrDay, MaxYears, ByPeriod(13))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())

	_, err = RequireRows(got, "daily_by_trdr_day month 13")
	assert.ErrorIs(t, err, stats.ErrFilterEmpty)
}

func TestFilter_MissingKey(t *testing.T) {
	c := stats.Collection{
		"compiled_holiday": stats.NewTable([]string{"holiday_category"}, [][]any{{"christmas"}}),
	}

	_, err := Filter(c, CompiledHoliday, Last5Years, ByName("christmas"))
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrKeyNotFound)
	assert.Contains(t, err.Error(), "compiled_holiday_range_5_yr")
}

func TestFilter_Categories(t *testing.T) {
	holiday := stats.NewTable([]string{"avg_diff", "holiday_category"}, [][]any{
		{0.1, "christmas"},
		{0.2, "new_year"},
		{0.3, "christmas"},
	})
	tww := stats.NewTable([]string{"avg_diff", "tww_period"}, [][]any{
		{0.1, "tww_q1"},
		{0.2, "tww_q2"},
		{0.3, "tww_q1_week_aft"},
		{0.4, "tww_q2_week_aft"},
	})
	c := stats.Collection{
		"compiled_holiday_range_10_yr": holiday,
		"compiled_tww":                 tww,
	}

	tests := []struct {
		name     string
		family   Family
		yr       YearRange
		spec     *Spec
		wantDiff []float64
	}{
		{
			name:     "holiday by category",
			family:   CompiledHoliday,
			yr:       Last10Years,
			spec:     ByName("christmas"),
			wantDiff: []float64{0.1, 0.3},
		},
		{
			name:     "tww includes week after",
			family:   CompiledTWW,
			yr:       MaxYears,
			spec:     ByName("tww_q1"),
			wantDiff: []float64{0.1, 0.3},
		},
		{
			name:     "nil spec keeps everything",
			family:   CompiledTWW,
			yr:       MaxYears,
			spec:     nil,
			wantDiff: []float64{0.1, 0.2, 0.3, 0.4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(c, tt.family, tt.yr, tt.spec)
			require.NoError(t, err)
			values, err := got.Column("avg_diff")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiff, values)
		})
	}
}

func TestFilter_SpecialByMonthUsesItsOwnColumn(t *testing.T) {
	c := stats.Collection{
		"super_day_by_month": stats.NewTable([]string{"avg_diff", "super_day_spec_month"}, [][]any{
			{0.1, 1.0},
			{0.2, 2.0},
		}),
	}

	got, err := Selector{Family: SuperDayByMonth, YearRange: MaxYears, Spec: ByPeriod(2)}.Apply(c)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	v, _ := got.Float(0, "avg_diff")
	assert.Equal(t, 0.2, v)
}

func TestFilter_MissingPeriodColumnIsSchemaError(t *testing.T) {
	c := stats.Collection{"daily_by_weekday": stats.NewTable([]string{"avg_diff"}, [][]any{{0.1}})}

	_, err := Filter(c, DailyByWeekday, MaxYears, ByPeriod(1))
	assert.ErrorIs(t, err, stats.ErrSchema)
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	src := dailyByTrdrDay()
	c := stats.Collection{"daily_by_trdr_day": src}

	got, err := Filter(c, DailyByTrdrDay, MaxYears, ByPeriod(1))
	require.NoError(t, err)
	got.Rows[0][0] = 99.0

	assert.Equal(t, 36, src.Len())
	assert.Equal(t, 0.01, src.Rows[0][0])
}

func TestSplitPair(t *testing.T) {
	tww := stats.NewTable([]string{"avg_diff", "tww_period"}, [][]any{
		{0.1, "tww_q3"},
		{0.2, "tww_q3_week_aft"},
		{0.3, "tww_q3"},
	})

	before, after := SplitPair(tww, "tww_period", "tww_q3", WeekAfter("tww_q3"))
	assert.Equal(t, 2, before.Len())
	assert.Equal(t, 1, after.Len())
}

func TestVolumeKey(t *testing.T) {
	key, err := VolumeKey(Weekly, VolumeByYear)
	require.NoError(t, err)
	assert.Equal(t, "weekly_avg_vol_col", key)

	key, err = VolumeKey(DailyByWeekday, VolumeByPeriod)
	require.NoError(t, err)
	assert.Equal(t, "daily_by_weekday_avg_vol_row", key)

	key, err = VolumeKey(Monthly, VolumeCounts)
	require.NoError(t, err)
	assert.Equal(t, "monthly", key)

	_, err = VolumeKey(CompiledHoliday, VolumeCounts)
	assert.Error(t, err)
}

func TestBoundsAndTitle(t *testing.T) {
	lo, hi, ok := Bounds(DailyByWeekday)
	assert.True(t, ok)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 53, hi)

	_, hi, ok = Bounds(FirstTrdrDomByMonth)
	assert.True(t, ok)
	assert.Equal(t, 12, hi)

	_, _, ok = Bounds(Monthly)
	assert.False(t, ok)

	assert.Equal(t, "Mar Lut King Jr", Title("mar_lut_king_jr"))
	assert.Equal(t, "Range 20 Yr", Title(string(Last20Years)))
}
