package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// execWidth caps command lines in tables.
const execWidth = 60

type column struct {
	header   string
	numeric  bool
	maxWidth int
}

var (
	appColumns = []column{
		{header: "Name"},
		{header: "Exec", maxWidth: execWidth},
		{header: "Terminal"},
		{header: "Score", numeric: true},
		{header: "ID"},
	}
	launchColumns = []column{
		{header: "When"},
		{header: "Name"},
		{header: "Exec", maxWidth: execWidth},
		{header: "PID", numeric: true},
	}
	countColumns = []column{
		{header: "Name"},
		{header: "Launches", numeric: true},
		{header: "Last"},
	}
)

// renderTable lays rows out under cols. Short rows are padded and extra
// cells are dropped. Numeric columns are right aligned and cells wider than
// a column's maxWidth are trimmed.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = text.Trim
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
