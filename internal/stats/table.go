package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Table is a rectangular statistics table as produced by the upstream
// pipeline. It is encoded like a pandas DataFrame in "split" orientation:
//
//	{"columns": ["year", "avg_diff", ...], "index": [...], "data": [[...], ...]}
//
// Cells hold float64, string, bool or nil (null / NaN).
type Table struct {
	Columns []string `json:"columns"`
	Index   []any    `json:"index,omitempty"`
	Rows    [][]any  `json:"data"`

	colIdx map[string]int
}

// NewTable builds a table from columns and rows. Rows are used as given.
func NewTable(columns []string, rows [][]any) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.buildIndex()
	return t
}

// UnmarshalJSON decodes a split-oriented table and checks its shape.
func (t *Table) UnmarshalJSON(data []byte) error {
	type alias Table
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Table(raw)
	if t.Rows == nil {
		t.Rows = [][]any{}
	}
	t.buildIndex()
	return t.Validate()
}

func (t *Table) buildIndex() {
	t.colIdx = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.colIdx[c] = i
	}
}

// Validate reports ragged rows, duplicated columns or an index that does not
// line up with the rows.
func (t *Table) Validate() error {
	if len(t.colIdx) != len(t.Columns) {
		return fmt.Errorf("%w: duplicated column names", ErrSchema)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrSchema, i, len(row), len(t.Columns))
		}
	}
	if t.Index != nil && len(t.Index) != len(t.Rows) {
		return fmt.Errorf("%w: index has %d labels for %d rows", ErrSchema, len(t.Index), len(t.Rows))
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1.
func (t *Table) ColumnIndex(name string) int {
	if t.colIdx == nil {
		t.buildIndex()
	}
	if i, ok := t.colIdx[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Value returns the raw cell or nil when the column is absent.
func (t *Table) Value(row int, column string) any {
	i := t.ColumnIndex(column)
	if i < 0 {
		return nil
	}
	return t.Rows[row][i]
}

// Float returns a numeric cell. ok is false for nulls, NaN and non-numbers.
func (t *Table) Float(row int, column string) (float64, bool) {
	return ToFloat(t.Value(row, column))
}

// Label returns the display label of a row: the index label when present,
// otherwise the 1-based row position.
func (t *Table) Label(row int) string {
	if row < len(t.Index) && t.Index[row] != nil {
		return FormatCell(t.Index[row])
	}
	return strconv.Itoa(row + 1)
}

// Labels returns the labels of all rows.
func (t *Table) Labels() []string {
	labels := make([]string, t.Len())
	for i := range labels {
		labels[i] = t.Label(i)
	}
	return labels
}

// Column returns the numeric values of a column; nulls become NaN.
func (t *Table) Column(name string) ([]float64, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: column %q", ErrKeyNotFound, name)
	}
	values := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		switch v := row[i].(type) {
		case nil:
			values[r] = math.NaN()
		case string:
			return nil, fmt.Errorf("%w: column %q row %d is not numeric", ErrSchema, name, r)
		default:
			f, ok := ToFloat(v)
			if !ok {
				f = math.NaN()
			}
			values[r] = f
		}
	}
	return values, nil
}

// Select returns a new table holding the rows for which keep returns true.
// Source order is preserved and the receiver is not modified.
func (t *Table) Select(keep func(row int) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: [][]any{}}
	if t.Index != nil {
		out.Index = []any{}
	}
	for i, row := range t.Rows {
		if !keep(i) {
			continue
		}
		out.Rows = append(out.Rows, append([]any(nil), row...))
		if t.Index != nil {
			out.Index = append(out.Index, t.Index[i])
		}
	}
	out.buildIndex()
	return out
}

// GroupMean groups rows by the key column in first-seen order and averages
// each of the value columns within a group, skipping nulls. The result has
// the key column followed by the value columns and is indexed by the key.
func (t *Table) GroupMean(key string, columns ...string) (*Table, error) {
	ki := t.ColumnIndex(key)
	if ki < 0 {
		return nil, fmt.Errorf("%w: column %q", ErrKeyNotFound, key)
	}
	values := make([][]float64, len(columns))
	for i, c := range columns {
		v, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	type acc struct {
		sums   []float64
		counts []int
	}
	var order []any
	groups := make(map[string]*acc)
	for r, row := range t.Rows {
		label := FormatCell(row[ki])
		g, ok := groups[label]
		if !ok {
			g = &acc{sums: make([]float64, len(columns)), counts: make([]int, len(columns))}
			groups[label] = g
			order = append(order, row[ki])
		}
		for i := range columns {
			if v := values[i][r]; !math.IsNaN(v) {
				g.sums[i] += v
				g.counts[i]++
			}
		}
	}

	out := &Table{
		Columns: append([]string{key}, columns...),
		Index:   []any{},
		Rows:    [][]any{},
	}
	for _, k := range order {
		g := groups[FormatCell(k)]
		row := []any{k}
		for i := range columns {
			if g.counts[i] == 0 {
				row = append(row, nil)
				continue
			}
			row = append(row, g.sums[i]/float64(g.counts[i]))
		}
		out.Rows = append(out.Rows, row)
		out.Index = append(out.Index, k)
	}
	out.buildIndex()
	return out, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return t.Select(func(int) bool { return true })
}

// Collection maps a table family key (optionally suffixed by a year range)
// to its table. Collections are immutable once loaded.
type Collection map[string]*Table

// Table looks up a key, wrapping ErrKeyNotFound when it is absent.
func (c Collection) Table(key string) (*Table, error) {
	t, ok := c[key]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return t, nil
}

// Keys returns the collection keys in sorted order.
func (c Collection) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToFloat converts a decoded JSON cell into a float.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ToInt converts a cell holding a whole number.
func ToInt(v any) (int, bool) {
	f, ok := ToFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// FormatCell renders a raw cell without any column-specific formatting.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	}
	if f, ok := ToFloat(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
