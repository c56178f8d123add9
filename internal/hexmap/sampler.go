package hexmap

import (
	"fmt"
	"math"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

const (
	// clusterExponent sharpens each neighbor's compatibility beyond linear.
	clusterExponent = 1.5
	// consensusDamping under-normalizes the geometric mean across neighbors
	// so agreeing neighbors still pull strongly toward their terrain.
	consensusDamping = 0.8
)

// sample fills a new grid in row-major order. Each cell only sees cells that
// were generated before it.
func (g *Generator) sample() *Grid {
	grid := NewGrid(g.width, g.height)
	neighbors := make([]string, 0, 5)
	weights := make([]float64, g.palette.Len())

	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			neighbors = grid.pastNeighbors(row, col, neighbors[:0])

			idx, err := g.pickTerrain(neighbors, weights)
			if err != nil {
				// A bad cell falls back to a uniform pick; the map still completes.
				idx = g.rng.Intn(g.palette.Len())
			}
			grid.Set(row, col, g.palette.At(idx))
		}
	}

	return grid
}

// pickTerrain computes the weight of every terrain and draws one index.
func (g *Generator) pickTerrain(neighbors []string, weights []float64) (int, error) {
	if err := g.terrainWeights(neighbors, weights); err != nil {
		return 0, err
	}
	return g.weightedChoice(weights), nil
}

// terrainWeights writes the unnormalized weight for every terrain into out.
func (g *Generator) terrainWeights(neighbors []string, out []float64) error {
	if len(neighbors) == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return nil
	}

	idx := make([]int, len(neighbors))
	forbiddenNeighbor := false
	for i, n := range neighbors {
		j, ok := g.palette.Index(n)
		if !ok {
			return fmt.Errorf("neighbor terrain %q not in palette", n)
		}
		idx[i] = j
		if n == terrain.Forbidden {
			forbiddenNeighbor = true
		}
	}

	for t := range out {
		if forbiddenNeighbor && g.palette.At(t) == terrain.Forbidden {
			out[t] = 0
			continue
		}

		w := 1.0
		for _, n := range idx {
			w *= math.Pow(g.palette.WeightAt(n, t), clusterExponent)
		}
		if len(idx) > 1 {
			w = math.Pow(w, consensusDamping/float64(len(idx)))
		}

		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("invalid weight %v for terrain %q", w, g.palette.At(t))
		}
		out[t] = w
	}

	return nil
}

// weightedChoice draws an index from the normalized weights. A zero total
// falls back to a uniform distribution. If rounding leaves the draw above
// the final cumulative value, the last index is returned.
func (g *Generator) weightedChoice(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	uniform := 1.0 / float64(len(weights))
	draw := g.rng.Float64()
	cumulative := 0.0

	for i, w := range weights {
		if total > 0 {
			cumulative += w / total
		} else {
			cumulative += uniform
		}
		if draw < cumulative {
			return i
		}
	}

	return len(weights) - 1
}
