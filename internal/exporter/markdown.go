package exporter

import (
	"bufio"
	"io"
	"strings"

	"etfseasonal/internal/table"
)

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

// WriteMarkdown writes a presentation table as a GitHub-flavored Markdown
// table. Highlighted cells are set in bold.
func WriteMarkdown(w io.Writer, p table.Presentation) error {
	bw := bufio.NewWriter(w)

	line := func(cells []string) {
		bw.WriteString("|")
		for _, c := range cells {
			bw.WriteString(" ")
			bw.WriteString(c)
			bw.WriteString(" |")
		}
		bw.WriteString("\n")
	}

	header := p.Header()
	for i, h := range header {
		header[i] = markdownEscaper.Replace(h)
	}
	line(header)

	sep := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		if c.Kind == table.KindPlain {
			sep[i] = "---"
		} else {
			sep[i] = "---:"
		}
	}
	line(sep)

	for _, row := range p.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			text := markdownEscaper.Replace(c.Text)
			if c.Highlight && text != "" {
				text = "**" + text + "**"
			}
			cells[i] = text
		}
		line(cells)
	}

	return bw.Flush()
}
