// Package grid locates participants and dates inside raw sheet grids.
package grid

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/mellowboard/internal/models"
)

// Axis tells along which axis participant names are laid out.
type Axis int

const (
	// AxisRow means names run across a header row and dates down a column.
	AxisRow Axis = iota
	// AxisColumn means names run down a column and dates across a header row.
	AxisColumn
)

// Layout describes where the name and date headers of a grid live.
type Layout struct {
	NameAxis Axis
	// NameLine is the row (AxisRow) or column (AxisColumn) holding participant names.
	NameLine int
	// DateLine is the column (AxisRow) or row (AxisColumn) holding dates.
	DateLine int
}

// Cell returns the cell for the participant at nameIndex and the date at dateIndex.
func (l Layout) Cell(g models.Grid, nameIndex, dateIndex int) models.Cell {
	if l.NameAxis == AxisRow {
		return g.At(dateIndex, nameIndex)
	}
	return g.At(nameIndex, dateIndex)
}

func (l Layout) nameCells(g models.Grid) []indexedText {
	var out []indexedText
	if l.NameAxis == AxisRow {
		for col := 0; col < g.Cols(); col++ {
			if col == l.DateLine {
				continue
			}
			out = append(out, indexedText{index: col, text: g.At(l.NameLine, col).Text})
		}
		return out
	}
	for row := 0; row < g.Rows(); row++ {
		if row == l.DateLine {
			continue
		}
		out = append(out, indexedText{index: row, text: g.At(row, l.NameLine).Text})
	}
	return out
}

func (l Layout) dateCells(g models.Grid) []indexedText {
	var out []indexedText
	if l.NameAxis == AxisRow {
		for row := 0; row < g.Rows(); row++ {
			if row == l.NameLine {
				continue
			}
			out = append(out, indexedText{index: row, text: g.At(row, l.DateLine).Text})
		}
		return out
	}
	for col := 0; col < g.Cols(); col++ {
		if col == l.NameLine {
			continue
		}
		out = append(out, indexedText{index: col, text: g.At(l.DateLine, col).Text})
	}
	return out
}

type indexedText struct {
	index int
	text  string
}

// NormalizeName trims and collapses whitespace, lower-cases, then capitalises the first
// letter of each word. The result is the canonical participant key.
func NormalizeName(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	lower := strings.ToLower(strings.Join(fields, " "))
	return cases.Title(language.Und, cases.NoLower).String(lower)
}

// NameIndex maps normalized participant names to their row or column index.
type NameIndex map[string]int

// Names returns the indexed names in grid order.
func (n NameIndex) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if n[names[i]] != n[names[j]] {
			return n[names[i]] < n[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// IndexNames collects the participant names of a grid. Blank headers are skipped and
// repeated names keep the index of their first occurrence.
func IndexNames(g models.Grid, layout Layout) NameIndex {
	index := make(NameIndex)
	for _, cell := range layout.nameCells(g) {
		name := NormalizeName(cell.text)
		if name == "" {
			continue
		}
		if _, exists := index[name]; exists {
			continue
		}
		index[name] = cell.index
	}
	return index
}
