package charts

import (
	"fmt"
	"math"

	"etfseasonal/internal/period"
	"etfseasonal/internal/stats"
)

// VolumeRequest selects the volume charts of one frequency.
type VolumeRequest struct {
	Freq period.Family
	// Period is the month or week shown by the daily frequencies.
	Period int
	// Overall averages the daily frequencies across every period instead of
	// showing one.
	Overall bool
}

// BuildVolume returns the yearly average volume, the per-period average
// volume with its mean as a reference line, and the stacked above/below
// average counts.
//
// For daily frequencies the per-period table is narrowed to req.Period, or
// in overall mode averaged by trading day or weekday across all periods.
// The counts are always narrowed to req.Period first.
func BuildVolume(c stats.Collection, req VolumeRequest, spec Spec, opts Options) (Result, error) {
	tables := make(map[period.VolumePart]*stats.Table, 3)
	for _, part := range []period.VolumePart{period.VolumeByYear, period.VolumeByPeriod, period.VolumeCounts} {
		key, err := period.VolumeKey(req.Freq, part)
		if err != nil {
			return Result{}, err
		}
		t, err := c.Table(key)
		if err != nil {
			return Result{}, err
		}
		tables[part] = t
	}

	byYear := tables[period.VolumeByYear]
	byPeriod := tables[period.VolumeByPeriod]
	counts := tables[period.VolumeCounts]

	what := string(req.Freq)
	if secondary, daily := period.SecondaryColumn(req.Freq); daily {
		what = fmt.Sprintf("%s period %d", req.Freq, req.Period)
		var err error
		sel := period.ByPeriod(req.Period)
		if counts, err = period.Narrow(counts, req.Freq, sel); err != nil {
			return Result{}, err
		}
		if req.Overall {
			if byPeriod, err = byPeriod.GroupMean(secondary, "avg_vol_row"); err != nil {
				return Result{}, err
			}
			if counts, err = counts.GroupMean(secondary, "abv_avg_vol_counts", "blw_avg_vol_counts"); err != nil {
				return Result{}, err
			}
		} else if byPeriod, err = period.Narrow(byPeriod, req.Freq, sel); err != nil {
			return Result{}, err
		}
	}

	if _, err := period.RequireRows(byPeriod, what); err != nil {
		return Result{}, err
	}

	yearly, err := byYear.Column("avg_vol_col")
	if err != nil {
		return Result{}, err
	}
	avgRow, err := byPeriod.Column("avg_vol_row")
	if err != nil {
		return Result{}, err
	}
	abv, err := counts.Column("abv_avg_vol_counts")
	if err != nil {
		return Result{}, err
	}
	blw, err := counts.Column("blw_avg_vol_counts")
	if err != nil {
		return Result{}, err
	}

	var res Result
	if counts.Len() == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("no above/below average counts for %s", what))
	}

	var avgLine []RefLine
	if mean := Mean(avgRow); !math.IsNaN(mean) {
		avgLine = []RefLine{{Value: mean, Label: "average"}}
	}
	res.Descriptors = []Descriptor{
		{
			ID:    IDYearlyVolume,
			Title: spec.title("Yearly Average Volume"),
			Kind:  KindBar,
			Groups: []Group{{Label: spec.Label, Labels: byYear.Labels(), Series: []Series{
				{Name: "avg_vol_col", Values: numbers(yearly)},
			}}},
		},
		{
			ID:    IDAverageVolume,
			Title: spec.title("Average Volume"),
			Kind:  KindBar,
			Groups: []Group{{Label: spec.Label, Labels: byPeriod.Labels(), Series: []Series{
				{Name: "avg_vol_row", Values: numbers(avgRow)},
			}}},
			RefLines: avgLine,
		},
		{
			ID:      IDVolumeCounts,
			Title:   spec.title("Above / Below Average Volume Counts"),
			Kind:    KindBar,
			Stacked: true,
			Legend:  "top",
			Groups: []Group{{Label: spec.Label, Labels: counts.Labels(), Series: []Series{
				{Name: "abv_avg_vol_counts", Values: numbers(abv)},
				{Name: "blw_avg_vol_counts", Values: numbers(blw)},
			}}},
		},
	}
	for i := range res.Descriptors {
		res.Descriptors[i].Width, res.Descriptors[i].Height = opts.Width, opts.Height
	}
	return res, nil
}

// Mean is the arithmetic mean of the non-null values, or NaN when there are
// none.
func Mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
