package hexmap

import "github.com/lawnchairsociety/openhexmap/internal/terrain"

// deIsolate replaces every cell that shares its terrain with none of its
// neighbors by the most common neighboring terrain. Cells are rewritten in
// place during the scan, so later cells see earlier changes.
func deIsolate(grid *Grid) {
	var buf []Position
	var differing []string

	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			current := grid.At(row, col)
			buf = grid.neighbors(row, col, buf[:0])
			differing = differing[:0]

			same := 0
			for _, n := range buf {
				t := grid.At(n.Row, n.Col)
				if t == current {
					same++
				} else {
					differing = append(differing, t)
				}
			}

			if same == 0 && len(differing) > 0 {
				grid.Set(row, col, mostCommon(differing))
			}
		}
	}
}

// repairForbiddenAdjacency reassigns every forbidden cell that touches another
// forbidden cell to the most common non-forbidden neighbor. A single sweep;
// a cell whose neighbors are all forbidden when it is visited is left as is
// and returned. Such a cell can still touch forbidden cells afterwards.
func repairForbiddenAdjacency(grid *Grid) []Position {
	var buf []Position
	var others []string
	var kept []Position

	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			if grid.At(row, col) != terrain.Forbidden {
				continue
			}

			buf = grid.neighbors(row, col, buf[:0])
			others = others[:0]
			touching := false
			for _, n := range buf {
				t := grid.At(n.Row, n.Col)
				if t == terrain.Forbidden {
					touching = true
				} else {
					others = append(others, t)
				}
			}

			switch {
			case touching && len(others) > 0:
				grid.Set(row, col, mostCommon(others))
			case touching:
				kept = append(kept, Position{Row: row, Col: col})
			}
		}
	}
	return kept
}

// mostCommon returns the most frequent label. Ties go to the label seen first.
func mostCommon(labels []string) string {
	counts := make(map[string]int, len(labels))
	order := make([]string, 0, len(labels))
	for _, l := range labels {
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best, bestCount := labels[0], 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}
