package hexmap

import "github.com/lawnchairsociety/openhexmap/internal/terrain"

const (
	// MinRegionSize is the number of cells a region needs to count as sizable.
	MinRegionSize = 3
	// MinRegionCount is the number of sizable regions a map should contain.
	MinRegionCount = 3

	placementAttempts = 20
)

// Region is a maximal set of 8-connected cells sharing one terrain.
type Region struct {
	Terrain string
	Cells   []Position
}

// Size returns the number of cells in the region.
func (r Region) Size() int {
	return len(r.Cells)
}

// Components returns every connected region of the grid in row-major order of
// their first cell.
func Components(grid *Grid) []Region {
	visited := make([][]bool, grid.Height())
	for row := range visited {
		visited[row] = make([]bool, grid.Width())
	}

	var regions []Region
	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			if visited[row][col] {
				continue
			}
			t := grid.At(row, col)
			regions = append(regions, Region{
				Terrain: t,
				Cells:   floodFill(grid, row, col, t, visited),
			})
		}
	}
	return regions
}

// CountSizable returns the number of regions with at least MinRegionSize cells.
func CountSizable(regions []Region) int {
	count := 0
	for _, r := range regions {
		if r.Size() >= MinRegionSize {
			count++
		}
	}
	return count
}

// floodFill collects the region containing (row, col) with an explicit stack.
func floodFill(grid *Grid, row, col int, t string, visited [][]bool) []Position {
	var cells []Position
	var buf []Position
	stack := []Position{{Row: row, Col: col}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[cur.Row][cur.Col] || grid.At(cur.Row, cur.Col) != t {
			continue
		}
		visited[cur.Row][cur.Col] = true
		cells = append(cells, cur)

		buf = grid.neighbors(cur.Row, cur.Col, buf[:0])
		for _, n := range buf {
			if !visited[n.Row][n.Col] && grid.At(n.Row, n.Col) == t {
				stack = append(stack, n)
			}
		}
	}

	return cells
}

// ensureMinimumRegions stamps small L-shaped clusters when the map has fewer
// than MinRegionCount sizable regions. Regions are counted once; stamps are
// not re-checked.
func (g *Generator) ensureMinimumRegions(grid *Grid) {
	count := CountSizable(Components(grid))
	if count >= MinRegionCount {
		return
	}

	targets := g.stampTargets()
	if len(targets) == 0 {
		return
	}

	for i := count; i < MinRegionCount; i++ {
		t := targets[i%len(targets)]

		for attempt := 0; attempt < placementAttempts; attempt++ {
			row := g.rng.Intn(grid.Height())
			col := g.rng.Intn(grid.Width())

			footprint := make([]Position, 0, 3)
			for _, p := range []Position{
				{Row: row, Col: col},
				{Row: row, Col: max(0, col-1)},
				{Row: max(0, row-1), Col: col},
			} {
				if grid.InBounds(p.Row, p.Col) {
					footprint = append(footprint, p)
				}
			}

			if len(footprint) >= MinRegionSize {
				for _, p := range footprint {
					grid.Set(p.Row, p.Col, t)
				}
				break
			}
		}
	}
}

// stampTargets returns up to MinRegionCount terrains from the front of the set,
// skipping the forbidden terrain so a stamp never places it next to itself.
func (g *Generator) stampTargets() []string {
	targets := make([]string, 0, MinRegionCount)
	for i := 0; i < g.palette.Len() && len(targets) < MinRegionCount; i++ {
		t := g.palette.At(i)
		if t == terrain.Forbidden {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}
