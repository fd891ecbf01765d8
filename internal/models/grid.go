package models

// RGB is a background colour with each channel in [0,1].
type RGB struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// Cell is one spreadsheet cell. Color is nil when the cell has no explicit background.
type Cell struct {
	Text  string `json:"text"`
	Color *RGB   `json:"color,omitempty"`
}

// Grid is a sheet as rows of cells. Rows may be ragged.
type Grid [][]Cell

// At returns the cell at row/col, or an empty cell when out of range.
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) {
		return Cell{}
	}
	if col < 0 || col >= len(g[row]) {
		return Cell{}
	}
	return g[row][col]
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the length of the widest row.
func (g Grid) Cols() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Sheets groups the three logical sheets consumed by an ingestion run.
type Sheets struct {
	Tasks      Grid
	Identities Grid
	Meetings   Grid
}

// Color is the semantic colour of a cell background.
type Color string

const (
	ColorGreen       Color = "green"
	ColorOrange      Color = "orange"
	ColorRed         Color = "red"
	ColorTransparent Color = "transparent"
	ColorUnknown     Color = "unknown"
)

// Blank reports whether the colour carries no status meaning.
func (c Color) Blank() bool {
	return c == ColorTransparent || c == ColorUnknown
}
