package stats

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_UnmarshalSplitOrientation(t *testing.T) {
	raw := `{
		"columns": ["year", "avg_diff", "month"],
		"index": ["2019-01", "2019-02"],
		"data": [[2019, 0.012, 1], [2019, null, 2]]
	}`

	var tbl Table
	require.NoError(t, json.Unmarshal([]byte(raw), &tbl))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 1, tbl.ColumnIndex("avg_diff"))
	assert.Equal(t, "2019-02", tbl.Label(1))

	v, ok := tbl.Float(0, "avg_diff")
	assert.True(t, ok)
	assert.InDelta(t, 0.012, v, 1e-12)

	_, ok = tbl.Float(1, "avg_diff")
	assert.False(t, ok, "null cells are not numeric")
}

func TestTable_UnmarshalRejectsBadShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "ragged row",
			raw:  `{"columns": ["a", "b"], "data": [[1, 2], [3]]}`,
		},
		{
			name: "index length mismatch",
			raw:  `{"columns": ["a"], "index": [1, 2], "data": [[1]]}`,
		},
		{
			name: "duplicated column",
			raw:  `{"columns": ["a", "a"], "data": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tbl Table
			err := json.Unmarshal([]byte(tt.raw), &tbl)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchema))
		})
	}
}

func TestTable_SelectPreservesOrderAndSource(t *testing.T) {
	tbl := NewTable([]string{"month", "avg_diff"}, [][]any{
		{1.0, 0.1},
		{3.0, 0.2},
		{3.0, 0.3},
		{5.0, 0.4},
	})
	tbl.Index = []any{"a", "b", "c", "d"}

	out := tbl.Select(func(row int) bool {
		m, _ := tbl.Float(row, "month")
		return m == 3
	})

	require.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"b", "c"}, out.Labels())
	assert.Equal(t, 0.2, out.Rows[0][1])

	out.Rows[0][1] = 9.9
	assert.Equal(t, 0.2, tbl.Rows[1][1], "source must not change")
	assert.Equal(t, 4, tbl.Len())
}

func TestTable_Column(t *testing.T) {
	tbl := NewTable([]string{"avg_vol_row", "weekday"}, [][]any{
		{10.0, "Mon"},
		{nil, "Tue"},
	})

	values, err := tbl.Column("avg_vol_row")
	require.NoError(t, err)
	assert.Equal(t, 10.0, values[0])
	assert.True(t, math.IsNaN(values[1]))

	_, err = tbl.Column("weekday")
	assert.ErrorIs(t, err, ErrSchema)

	_, err = tbl.Column("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestCollection_Table(t *testing.T) {
	c := Collection{"monthly": NewTable([]string{"month"}, nil)}

	got, err := c.Table("monthly")
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = c.Table("monthly_range_5_yr")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, err.Error(), "monthly_range_5_yr")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "12", FormatCell(12.0))
	assert.Equal(t, "0.25", FormatCell(0.25))
	assert.Equal(t, "christmas", FormatCell("christmas"))
	assert.Equal(t, "true", FormatCell(true))
}

func TestTable_GroupMean(t *testing.T) {
	tbl := NewTable([]string{"avg_vol_row", "trdr_day", "month"}, [][]any{
		{100.0, 2.0, 1.0},
		{200.0, 1.0, 1.0},
		{300.0, 2.0, 2.0},
		{nil, 1.0, 2.0},
		{500.0, 3.0, 2.0},
	})

	out, err := tbl.GroupMean("trdr_day", "avg_vol_row")
	require.NoError(t, err)

	assert.Equal(t, []string{"trdr_day", "avg_vol_row"}, out.Columns)
	assert.Equal(t, []string{"2", "1", "3"}, out.Labels(), "first-seen order")

	values, err := out.Column("avg_vol_row")
	require.NoError(t, err)
	assert.Equal(t, []float64{200, 200, 500}, values)
	assert.Equal(t, 5, tbl.Len())

	_, err = tbl.GroupMean("weekday", "avg_vol_row")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
