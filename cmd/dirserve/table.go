package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxValueColumnWidth keeps long entry values from blowing out list output;
// go-pretty wraps the cell instead.
const maxValueColumnWidth = 72

// renderTable renders the two-column name/value listings the CLI prints for
// entries, status details, and config settings.
func renderTable(leftHeader, rightHeader string, rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{leftHeader, rightHeader})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: maxValueColumnWidth},
	})
	return tw.Render()
}
