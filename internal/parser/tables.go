package parser

import (
	"regexp"
	"strings"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// cellSeparatorRe splits a line into cells on pipes, tabs, or runs of two or
// more spaces. Single spaces stay inside a cell so "Capital Call" survives.
var cellSeparatorRe = regexp.MustCompile(`\s*\|\s*|\t+| {2,}`)

// minTableColumns is the narrowest line still counted as a table row.
const minTableColumns = 2

// DetectTables finds table-shaped regions in plain page text. A table is a
// run of two or more consecutive lines that each split into at least two
// cells; the first line of the run is taken as the header. This is a
// best-effort collaborator: classification downstream decides whether a
// detected region means anything.
func DetectTables(text string) []models.RawTable {
	var tables []models.RawTable
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, models.RawTable{
				Header: current[0],
				Rows:   current[1:],
			})
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitCells(line)
		if len(cells) >= minTableColumns {
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := cellSeparatorRe.Split(line, -1)
	var cells []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
