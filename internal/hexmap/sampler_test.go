package hexmap

import (
	"math"
	"testing"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTerrainWeightsNoNeighbors(t *testing.T) {
	gen := seededGenerator(t, terrain.DefaultPalette(), 5, 5, 1)
	out := make([]float64, gen.palette.Len())

	if err := gen.terrainWeights(nil, out); err != nil {
		t.Fatalf("terrainWeights() error: %v", err)
	}
	for i, w := range out {
		if w != 1.0 {
			t.Errorf("weight[%s] = %v, want 1.0", gen.palette.At(i), w)
		}
	}
}

func TestTerrainWeightsSingleNeighbor(t *testing.T) {
	p := terrain.DefaultPalette()
	gen := seededGenerator(t, p, 5, 5, 1)
	out := make([]float64, p.Len())

	if err := gen.terrainWeights([]string{terrain.Plains}, out); err != nil {
		t.Fatalf("terrainWeights() error: %v", err)
	}

	from, _ := p.Index(terrain.Plains)
	for i := range out {
		want := math.Pow(p.WeightAt(from, i), clusterExponent)
		if !approxEqual(out[i], want) {
			t.Errorf("weight[%s] = %v, want %v", p.At(i), out[i], want)
		}
	}
}

func TestTerrainWeightsDamping(t *testing.T) {
	p := terrain.DefaultPalette()
	gen := seededGenerator(t, p, 5, 5, 1)
	out := make([]float64, p.Len())

	neighbors := []string{terrain.Plains, terrain.Forest}
	if err := gen.terrainWeights(neighbors, out); err != nil {
		t.Fatalf("terrainWeights() error: %v", err)
	}

	a, _ := p.Index(terrain.Plains)
	b, _ := p.Index(terrain.Forest)
	for i := range out {
		raw := math.Pow(p.WeightAt(a, i), clusterExponent) * math.Pow(p.WeightAt(b, i), clusterExponent)
		want := math.Pow(raw, consensusDamping/2)
		if !approxEqual(out[i], want) {
			t.Errorf("weight[%s] = %v, want %v", p.At(i), out[i], want)
		}
	}
}

func TestTerrainWeightsForbiddenNeighbor(t *testing.T) {
	p := terrain.DefaultPalette()
	gen := seededGenerator(t, p, 5, 5, 1)
	out := make([]float64, p.Len())

	if err := gen.terrainWeights([]string{terrain.Plains, terrain.Ruins}, out); err != nil {
		t.Fatalf("terrainWeights() error: %v", err)
	}

	ruins, _ := p.Index(terrain.Ruins)
	if out[ruins] != 0 {
		t.Errorf("ruins weight next to ruins = %v, want 0", out[ruins])
	}
	plains, _ := p.Index(terrain.Plains)
	if out[plains] <= 0 {
		t.Errorf("plains weight = %v, want positive", out[plains])
	}
}

func TestTerrainWeightsUnknownNeighbor(t *testing.T) {
	gen := seededGenerator(t, terrain.DefaultPalette(), 5, 5, 1)
	out := make([]float64, gen.palette.Len())

	if err := gen.terrainWeights([]string{"volcano"}, out); err == nil {
		t.Error("terrainWeights() should fail for a label outside the palette")
	}
}

func TestWeightedChoice(t *testing.T) {
	gen := seededGenerator(t, terrain.DefaultPalette(), 5, 5, 99)

	for i := 0; i < 200; i++ {
		if got := gen.weightedChoice([]float64{0, 0, 5}); got != 2 {
			t.Fatalf("weightedChoice([0 0 5]) = %d, want 2", got)
		}
		if got := gen.weightedChoice([]float64{3}); got != 0 {
			t.Fatalf("weightedChoice([3]) = %d, want 0", got)
		}
	}

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		got := gen.weightedChoice([]float64{0, 0, 0, 0})
		if got < 0 || got > 3 {
			t.Fatalf("weightedChoice(zeros) = %d, out of range", got)
		}
		seen[got] = true
	}
	if len(seen) != 4 {
		t.Errorf("zero weights should fall back to uniform, saw only %v", seen)
	}
}

func TestSampleUsesOnlyPaletteTerrains(t *testing.T) {
	p := terrain.DefaultPalette()
	gen := seededGenerator(t, p, 12, 9, 3)

	grid := gen.sample()
	for r := 0; r < grid.Height(); r++ {
		for c := 0; c < grid.Width(); c++ {
			if !p.Has(grid.At(r, c)) {
				t.Fatalf("cell (%d,%d) = %q, not in palette", r, c, grid.At(r, c))
			}
		}
	}
}
