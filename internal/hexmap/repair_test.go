package hexmap

import (
	"reflect"
	"testing"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

func TestMostCommon(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "b"}, "b"},
		{[]string{"a", "b", "b", "a"}, "a"},
		{[]string{"c", "b", "a", "b", "c"}, "c"},
	}
	for _, tt := range tests {
		if got := mostCommon(tt.labels); got != tt.want {
			t.Errorf("mostCommon(%v) = %q, want %q", tt.labels, got, tt.want)
		}
	}
}

func TestDeIsolateReplacesSingleCell(t *testing.T) {
	g := gridFromRows([][]string{
		{"plains", "plains", "plains"},
		{"plains", "forest", "plains"},
		{"plains", "plains", "plains"},
	})

	deIsolate(g)

	if got := g.At(1, 1); got != "plains" {
		t.Errorf("isolated cell = %q, want plains", got)
	}
}

func TestDeIsolateKeepsPairs(t *testing.T) {
	rows := [][]string{
		{"plains", "plains", "plains", "plains"},
		{"plains", "forest", "forest", "plains"},
		{"plains", "plains", "plains", "plains"},
	}
	g := gridFromRows(rows)

	deIsolate(g)

	if !reflect.DeepEqual(g.Rows(), rows) {
		t.Errorf("grid changed: %v", g.Rows())
	}
}

func TestDeIsolateTieGoesToFirstNeighbor(t *testing.T) {
	g := gridFromRows([][]string{
		{"plains", "forest"},
		{"lake", "hills"},
	})

	deIsolate(g)

	// (0,0) scans right=forest, bottom=lake, bottom-right=hills: a three-way tie.
	if got := g.At(0, 0); got != "forest" {
		t.Errorf("(0,0) = %q, want forest", got)
	}
}

func TestDeIsolateSingleCellGrid(t *testing.T) {
	g := gridFromRows([][]string{{"lake"}})
	deIsolate(g)
	if g.At(0, 0) != "lake" {
		t.Errorf("1x1 grid changed to %q", g.At(0, 0))
	}
}

func TestRepairForbiddenAdjacency(t *testing.T) {
	g := gridFromRows([][]string{
		{"plains", "ruins", "plains"},
		{"plains", "ruins", "plains"},
		{"plains", "plains", "plains"},
	})

	if kept := repairForbiddenAdjacency(g); len(kept) != 0 {
		t.Errorf("kept %v, want none", kept)
	}

	if got := g.At(0, 1); got != "plains" {
		t.Errorf("(0,1) = %q, want plains", got)
	}
	if got := g.At(1, 1); got != terrain.Ruins {
		t.Errorf("(1,1) = %q, want ruins to survive once its pair is gone", got)
	}
	assertNoForbiddenAdjacency(t, g)
}

func TestRepairForbiddenAdjacencyKeepsSolitaryRuins(t *testing.T) {
	rows := [][]string{
		{"plains", "forest", "plains"},
		{"forest", "ruins", "forest"},
		{"plains", "forest", "plains"},
	}
	g := gridFromRows(rows)

	repairForbiddenAdjacency(g)

	if !reflect.DeepEqual(g.Rows(), rows) {
		t.Errorf("grid changed: %v", g.Rows())
	}
}

func TestRepairForbiddenAdjacencyAllRuins(t *testing.T) {
	g := gridFromRows([][]string{
		{"ruins", "ruins"},
		{"ruins", "ruins"},
	})

	kept := repairForbiddenAdjacency(g)
	if len(kept) != 4 {
		t.Errorf("kept %v, want all four cells", kept)
	}

	for _, row := range g.Rows() {
		for _, cell := range row {
			if cell != terrain.Ruins {
				t.Fatalf("cell changed to %q with no non-forbidden neighbor", cell)
			}
		}
	}
}

func assertNoForbiddenAdjacency(t *testing.T, g *Grid) {
	t.Helper()
	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			if g.At(r, c) != terrain.Forbidden {
				continue
			}
			for _, n := range g.neighbors(r, c, nil) {
				if g.At(n.Row, n.Col) == terrain.Forbidden {
					t.Fatalf("ruins at (%d,%d) touches ruins at (%d,%d)", r, c, n.Row, n.Col)
				}
			}
		}
	}
}

// assertForbiddenAdjacencyOnlyAtKept allows touching forbidden cells only
// where the repair sweep found no other terrain around one of them.
func assertForbiddenAdjacencyOnlyAtKept(t *testing.T, g *Grid, kept []Position) {
	t.Helper()
	stuck := make(map[Position]bool, len(kept))
	for _, p := range kept {
		stuck[p] = true
	}

	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			if g.At(r, c) != terrain.Forbidden {
				continue
			}
			for _, n := range g.neighbors(r, c, nil) {
				if g.At(n.Row, n.Col) != terrain.Forbidden {
					continue
				}
				if !stuck[Position{Row: r, Col: c}] && !stuck[n] {
					t.Fatalf("ruins at (%d,%d) touches ruins at (%d,%d)", r, c, n.Row, n.Col)
				}
			}
		}
	}
}
