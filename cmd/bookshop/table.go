package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Cells wider than width wrap onto the
// next line; zero leaves the column unbounded.
type column struct {
	title string
	align text.Align
	width int
}

func left(title string, width int) column  { return column{title: title, align: text.AlignLeft, width: width} }
func right(title string, width int) column { return column{title: title, align: text.AlignRight, width: width} }

// renderTable lays rows out under columns and counts them in the footer.
// Short rows are padded, extra cells dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            c.align,
			AlignHeader:      text.AlignLeft,
			AlignFooter:      text.AlignLeft,
			WidthMax:         c.width,
			WidthMaxEnforcer: text.WrapSoft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d %s", len(rows), noun)})

	return tw.Render()
}
