package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"etfseasonal/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteTable writes a presentation table as CSV to w. Cells carry the
// formatted text, so percentages keep their display precision.
func WriteTable(w io.Writer, p table.Presentation, bom bool) error {
	return encodeCSV(w, WriteOptions{
		Headers:   p.Header(),
		Records:   p.Records(),
		BOMPrefix: bom,
	})
}

func encodeCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
