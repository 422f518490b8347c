package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"etfseasonal/internal/table"
)

// SheetName is the worksheet the table is written to.
const SheetName = "Statistics"

var cssColors = map[string]string{
	"lightblue":  "ADD8E6",
	"gray":       "808080",
	"grey":       "808080",
	"lightgray":  "D3D3D3",
	"lightgreen": "90EE90",
	"yellow":     "FFFF00",
	"white":      "FFFFFF",
}

// fillColor converts a CSS color name or #RRGGBB value to the RGB hex
// excelize expects.
func fillColor(css, fallback string) string {
	css = strings.ToLower(strings.TrimSpace(css))
	if hex, ok := cssColors[css]; ok {
		return hex
	}
	if h := strings.TrimPrefix(css, "#"); len(h) == 6 && h != css {
		return strings.ToUpper(h)
	}
	return fallback
}

type styleKey struct {
	kind      table.ColumnKind
	highlight bool
	null      bool
}

// excelStyles creates cell styles lazily, one per kind and fill.
type excelStyles struct {
	file      *excelize.File
	highlight string
	null      string
	ids       map[styleKey]int
}

func (s *excelStyles) id(k styleKey) (int, error) {
	if id, ok := s.ids[k]; ok {
		return id, nil
	}

	st := &excelize.Style{}
	switch k.kind {
	case table.KindPercent:
		format := "0.000%"
		st.CustomNumFmt = &format
	case table.KindProbability:
		format := "0.00%"
		st.CustomNumFmt = &format
	}
	switch {
	case k.null:
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.null}}
	case k.highlight:
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.highlight}}
	}

	id, err := s.file.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("failed to create cell style: %w", err)
	}
	s.ids[k] = id
	return id, nil
}

// WriteExcel writes a presentation table as an XLSX workbook to w. Numbers
// are kept numeric with percentage formats; highlighted and null cells are
// filled with the table's colors.
func WriteExcel(w io.Writer, p table.Presentation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(p.Columns))
	for i, c := range p.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	boldID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if len(p.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(p.Columns), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, boldID); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	styles := &excelStyles{
		file:      f,
		highlight: fillColor(p.Style.HighlightColor, "ADD8E6"),
		null:      fillColor(p.Style.NullColor, "808080"),
		ids:       make(map[styleKey]int),
	}

	for r, row := range p.Rows {
		for c, cell := range row.Cells {
			ref, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			var v any
			switch {
			case cell.Null:
				v = cell.Text
			case cell.Raw != nil:
				v = cell.Raw
			default:
				v = cell.Text
			}
			if err := f.SetCellValue(SheetName, ref, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", ref, err)
			}

			key := styleKey{kind: p.Columns[c].Kind, highlight: cell.Highlight, null: cell.Null}
			if key == (styleKey{kind: table.KindPlain}) {
				continue
			}
			id, err := styles.id(key)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(SheetName, ref, ref, id); err != nil {
				return fmt.Errorf("failed to style cell %s: %w", ref, err)
			}
		}
	}

	return f.Write(w)
}
