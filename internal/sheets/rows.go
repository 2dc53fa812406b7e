package sheets

import (
	"taxis/internal/core"
	"taxis/internal/export"
)

// RollupRows lays the rollup out as a table: the header row followed by
// one row per destination.
func RollupRows(reports []core.Report) [][]any {
	rows := make([][]any, 0, len(reports)+1)
	header := make([]any, len(export.GlobalHeader))
	for i, h := range export.GlobalHeader {
		header[i] = h
	}
	rows = append(rows, header)
	for _, r := range reports {
		rows = append(rows, export.GlobalValues(r))
	}
	return rows
}
