package charts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/period"
	"etfseasonal/internal/shared/testutil"
	"etfseasonal/internal/stats"
)

func TestBuildVolume_Monthly(t *testing.T) {
	res, err := BuildVolume(testutil.VolumeCollection(), VolumeRequest{Freq: period.Monthly}, Spec{Title: "XLB"}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Descriptors, 3)
	assert.Empty(t, res.Warnings)

	yearly, ok := res.Find(IDYearlyVolume)
	require.True(t, ok)
	assert.Equal(t, "XLB: Yearly Average Volume", yearly.Title)
	assert.Len(t, yearly.Groups[0].Labels, 10)
	assert.Equal(t, "2015", yearly.Groups[0].Labels[0])

	avg, ok := res.Find(IDAverageVolume)
	require.True(t, ok)
	assert.Len(t, avg.Groups[0].Labels, 12)
	require.Len(t, avg.RefLines, 1)
	assert.InDelta(t, 117.5, avg.RefLines[0].Value, 1e-9)

	counts, ok := res.Find(IDVolumeCounts)
	require.True(t, ok)
	assert.True(t, counts.Stacked)
	require.Len(t, counts.Groups[0].Series, 2)
	assert.Equal(t, "abv_avg_vol_counts", counts.Groups[0].Series[0].Name)
}

func TestBuildVolume_DailyPeriod(t *testing.T) {
	res, err := BuildVolume(testutil.VolumeCollection(),
		VolumeRequest{Freq: period.DailyByTrdrDay, Period: 2}, Spec{}, DefaultOptions())
	require.NoError(t, err)

	avg, _ := res.Find(IDAverageVolume)
	assert.Equal(t, []string{"1", "2", "3"}, avg.Groups[0].Labels)
	counts, _ := res.Find(IDVolumeCounts)
	assert.Len(t, counts.Groups[0].Labels, 3)
}

func TestBuildVolume_DailyOverall(t *testing.T) {
	res, err := BuildVolume(testutil.VolumeCollection(),
		VolumeRequest{Freq: period.DailyByWeekday, Period: 1, Overall: true}, Spec{}, DefaultOptions())
	require.NoError(t, err)

	avg, _ := res.Find(IDAverageVolume)
	assert.Equal(t, testutil.Weekdays, avg.Groups[0].Labels)
	counts, _ := res.Find(IDVolumeCounts)
	assert.Equal(t, testutil.Weekdays, counts.Groups[0].Labels)
}

func TestBuildVolume_Errors(t *testing.T) {
	t.Run("period without rows", func(t *testing.T) {
		_, err := BuildVolume(testutil.VolumeCollection(),
			VolumeRequest{Freq: period.DailyByTrdrDay, Period: 13}, Spec{}, DefaultOptions())
		assert.ErrorIs(t, err, stats.ErrFilterEmpty)
	})
	t.Run("missing table", func(t *testing.T) {
		_, err := BuildVolume(stats.Collection{}, VolumeRequest{Freq: period.Weekly}, Spec{}, DefaultOptions())
		assert.ErrorIs(t, err, stats.ErrKeyNotFound)
	})
	t.Run("not a frequency", func(t *testing.T) {
		_, err := BuildVolume(testutil.VolumeCollection(), VolumeRequest{Freq: period.SantaRally}, Spec{}, DefaultOptions())
		assert.Error(t, err)
	})
}

func TestBuildVolume_AllNullAverageHasNoRefLine(t *testing.T) {
	c := testutil.VolumeCollection()
	c["monthly_avg_vol_row"] = testutil.Frame([]string{"avg_vol_row", "month"}, nil, []any{nil, 1.0})

	res, err := BuildVolume(c, VolumeRequest{Freq: period.Monthly}, Spec{}, DefaultOptions())
	require.NoError(t, err)
	avg, _ := res.Find(IDAverageVolume)
	assert.Empty(t, avg.RefLines)
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, math.NaN(), 3}), 1e-9)
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Mean([]float64{math.NaN()})))
}
