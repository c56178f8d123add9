package hexmap

// Position identifies a cell by row and column.
type Position struct {
	Row, Col int
}

// Grid is a height x width array of terrain labels, indexed [row][col].
type Grid struct {
	width, height int
	cells         [][]string
}

// NewGrid creates an empty grid. Every cell starts as the empty label.
func NewGrid(width, height int) *Grid {
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([][]string, height),
	}
	for row := 0; row < height; row++ {
		g.cells[row] = make([]string, width)
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// At returns the terrain at (row, col).
func (g *Grid) At(row, col int) string {
	return g.cells[row][col]
}

// Set assigns the terrain at (row, col).
func (g *Grid) Set(row, col int, terrain string) {
	g.cells[row][col] = terrain
}

// InBounds reports whether (row, col) lies inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

// Rows returns a copy of the grid contents.
func (g *Grid) Rows() [][]string {
	out := make([][]string, g.height)
	for row := range g.cells {
		out[row] = make([]string, g.width)
		copy(out[row], g.cells[row])
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{width: g.width, height: g.height, cells: g.Rows()}
}

// neighborOffsets lists the eight grid-adjacent cells in scan order:
// top, top-left, top-right, left, right, bottom, bottom-left, bottom-right.
// This over-approximates the six hex neighbors of the staggered layout.
var neighborOffsets = [8][2]int{
	{-1, 0},
	{-1, -1},
	{-1, 1},
	{0, -1},
	{0, 1},
	{1, 0},
	{1, -1},
	{1, 1},
}

// neighbors appends the in-bounds grid-adjacent positions of (row, col) to buf.
func (g *Grid) neighbors(row, col int, buf []Position) []Position {
	for _, off := range neighborOffsets {
		r, c := row+off[0], col+off[1]
		if g.InBounds(r, c) {
			buf = append(buf, Position{Row: r, Col: c})
		}
	}
	return buf
}

// pastNeighbors appends the terrains of the already generated cells that bias
// the sampler at (row, col): above, above-left, above-right (staggered by
// column parity), left, and above a second time to favor vertical runs.
// Only cells earlier in row-major order are consulted.
func (g *Grid) pastNeighbors(row, col int, buf []string) []string {
	if row > 0 {
		buf = append(buf, g.cells[row-1][col])
	}
	if row > 0 && col > 0 {
		buf = append(buf, g.cells[row-1][col-1])
	}
	if row > 0 && col < g.width-1 {
		offset := 0
		if col%2 == 1 {
			offset = 1
		}
		if col+offset < g.width {
			buf = append(buf, g.cells[row-1][col+offset])
		}
	}
	if col > 0 {
		buf = append(buf, g.cells[row][col-1])
	}
	if row > 0 {
		buf = append(buf, g.cells[row-1][col])
	}
	return buf
}
