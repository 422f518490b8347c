package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/stats"
)

const monthlyTable = `{"columns": ["avg_diff", "up_prob", "month"], "index": [1, 2], "data": [[0.01, 0.75, 1], [null, 0.4, 2]]}`

func TestDecodeCollection(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		variant *int
		wantKey string
		wantErr bool
	}{
		{
			name:    "legacy pair",
			doc:     `["price", {"monthly": ` + monthlyTable + `}]`,
			wantKey: "monthly",
		},
		{
			name:    "legacy pair ignores trailing elements",
			doc:     `["price", {"monthly": ` + monthlyTable + `}, "extra"]`,
			wantKey: "monthly",
		},
		{
			name:    "legacy variants",
			doc:     `[["holiday", {"compiled_holiday": ` + monthlyTable + `}], ["tww", {"compiled_tww": ` + monthlyTable + `}]]`,
			variant: Variant(1),
			wantKey: "compiled_tww",
		},
		{
			name:    "versioned pair",
			doc:     `{"schema_version": 1, "label": "price", "tables": {"monthly": ` + monthlyTable + `}}`,
			wantKey: "monthly",
		},
		{
			name:    "versioned variants",
			doc:     `{"schema_version": 1, "variants": [{"label": "holiday", "tables": {"compiled_holiday": ` + monthlyTable + `}}]}`,
			variant: Variant(0),
			wantKey: "compiled_holiday",
		},
		{
			name:    "legacy single element",
			doc:     `["price"]`,
			wantErr: true,
		},
		{
			name:    "legacy variant is not a pair",
			doc:     `[{"monthly": ` + monthlyTable + `}]`,
			variant: Variant(0),
			wantErr: true,
		},
		{
			name:    "versioned without tables",
			doc:     `{"schema_version": 1, "variants": []}`,
			wantErr: true,
		},
		{
			name:    "versioned variant out of range",
			doc:     `{"schema_version": 1, "variants": [{"label": "holiday", "tables": {}}]}`,
			variant: Variant(1),
			wantErr: true,
		},
		{
			name:    "unsupported schema version",
			doc:     `{"schema_version": 2, "tables": {}}`,
			wantErr: true,
		},
		{
			name:    "object without schema version",
			doc:     `{"monthly": ` + monthlyTable + `}`,
			wantErr: true,
		},
		{
			name:    "ragged table",
			doc:     `["price", {"monthly": {"columns": ["a"], "data": [[1, 2]]}}]`,
			wantErr: true,
		},
		{
			name:    "scalar document",
			doc:     `42`,
			wantErr: true,
		},
		{
			name:    "empty document",
			doc:     "  \n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := decodeCollection([]byte(tt.doc), tt.variant)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, stats.ErrSchema)
				return
			}
			require.NoError(t, err)
			tbl, err := c.Table(tt.wantKey)
			require.NoError(t, err)
			assert.Equal(t, 2, tbl.Len())
		})
	}
}

func TestDecodeCollection_DropsNullTables(t *testing.T) {
	c, err := decodeCollection([]byte(`["price", {"monthly": `+monthlyTable+`, "weekly": null}]`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"monthly"}, c.Keys())
}

func TestDecodeEconomic(t *testing.T) {
	series := `{"columns": ["value"], "index": ["1980-01-01", "1980-02-01"], "data": [[6.3], [6.3]]}`

	t.Run("plain object", func(t *testing.T) {
		c, err := decodeEconomic([]byte(`{"unemploy": ` + series + `, "fedFFR": ` + series + `}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"fedFFR", "unemploy"}, c.Keys())
	})

	t.Run("versioned", func(t *testing.T) {
		c, err := decodeEconomic([]byte(`{"schema_version": 1, "label": "fred", "tables": {"unemploy": ` + series + `}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"unemploy"}, c.Keys())
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := decodeEconomic([]byte(`["fred", {}]`))
		assert.ErrorIs(t, err, stats.ErrSchema)
	})
}

func TestDecodeTables_RaggedRow(t *testing.T) {
	_, err := decodeTables([]byte(`{"monthly": {"columns": ["avg_diff", "month"], "data": [[0.01]]}}`))
	require.ErrorIs(t, err, stats.ErrSchema)
	assert.Equal(t, 1, strings.Count(err.Error(), stats.ErrSchema.Error()), err.Error())
	assert.Contains(t, err.Error(), "row 0")
}
