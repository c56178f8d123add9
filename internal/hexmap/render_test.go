package hexmap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

func TestRenderASCII(t *testing.T) {
	g := gridFromRows([][]string{
		{"plains", "forest", "ruins"},
		{"lake", "hills", "tundra"},
	})

	got := RenderASCII(g, terrain.DefaultPalette())
	want := "Hex Map (3x2):\n" +
		"===========\n" +
		" 0| P F R \n" +
		" 1| L H ? \n" +
		"===========\n" +
		"    0 1 2 \n"

	if got != want {
		t.Errorf("RenderASCII() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderASCIIColumnDigitsWrap(t *testing.T) {
	g := NewGrid(12, 1)
	for c := 0; c < 12; c++ {
		g.Set(0, c, terrain.Plains)
	}

	lines := strings.Split(RenderASCII(g, terrain.DefaultPalette()), "\n")
	footer := lines[len(lines)-2]
	if footer != "    0 1 2 3 4 5 6 7 8 9 0 1 " {
		t.Errorf("footer = %q", footer)
	}
}

func TestRenderASCIIColumnDigitsAlign(t *testing.T) {
	g := NewGrid(13, 2)
	for r := 0; r < 2; r++ {
		for c := 0; c < 13; c++ {
			g.Set(r, c, terrain.Hills)
		}
	}

	lines := strings.Split(RenderASCII(g, terrain.DefaultPalette()), "\n")
	row, footer := lines[2], lines[len(lines)-2]
	if len(row) != len(footer) {
		t.Fatalf("row %q and footer %q differ in length", row, footer)
	}
	for c := 0; c < 13; c++ {
		i := strings.Index(row, "|") + 2 + 2*c
		if row[i] != 'H' {
			t.Fatalf("row %q: column %d not at offset %d", row, c, i)
		}
		if want := byte('0' + c%10); footer[i] != want {
			t.Errorf("footer[%d] = %q, want %q under column %d", i, footer[i], want, c)
		}
	}
}

func TestTestMap(t *testing.T) {
	p := terrain.DefaultPalette()

	a, err := TestMap(p)
	if err != nil {
		t.Fatalf("TestMap() error: %v", err)
	}
	b, _ := TestMap(p)
	if a != b {
		t.Error("TestMap() should be deterministic")
	}
	if !strings.HasPrefix(a, "Hex Map (15x10):\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(a, "\n", 2)[0])
	}
	// header, two rules, ten rows, footer digits, trailing newline
	if n := strings.Count(a, "\n"); n != 14 {
		t.Errorf("TestMap() has %d lines, want 14", n)
	}
}

func TestLegend(t *testing.T) {
	legend := Legend(terrain.DefaultPalette())
	for _, want := range []string{"P = plains", "D = dark_forest", "R = ruins"} {
		if !strings.Contains(legend, want) {
			t.Errorf("Legend() missing %q", want)
		}
	}
}

func TestResultJSONShape(t *testing.T) {
	res := Generate(terrain.DefaultPalette(), Request{Width: 5, Height: 5, Seed: int64Ptr(1)})
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"success":true`, `"width":5`, `"id":"hex_0_0"`, `"seed":1`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s", want)
		}
	}
	if strings.Contains(s, `"error"`) {
		t.Error("successful result should omit error")
	}

	failed, _ := json.Marshal(Generate(terrain.DefaultPalette(), Request{}))
	if !strings.Contains(string(failed), `"success":false`) || !strings.Contains(string(failed), `"hexes":[]`) {
		t.Errorf("failed result JSON = %s", failed)
	}
}

func TestResultGrid(t *testing.T) {
	res := Generate(terrain.DefaultPalette(), Request{Width: 6, Height: 4, Seed: int64Ptr(3)})
	g, err := res.Grid()
	if err != nil {
		t.Fatalf("Grid() error: %v", err)
	}
	for _, h := range res.Hexes {
		if g.At(h.Row, h.Col) != h.Terrain {
			t.Errorf("cell (%d,%d) = %q, want %q", h.Row, h.Col, g.At(h.Row, h.Col), h.Terrain)
		}
	}

	if _, err := FailedResult(ErrInvalidSize).Grid(); err == nil {
		t.Error("Grid() on a failed result should error")
	}
}

func TestResultGridRejectsIncompleteResults(t *testing.T) {
	base := Generate(terrain.DefaultPalette(), Request{Width: 4, Height: 3, Seed: int64Ptr(8)})

	tests := []struct {
		name   string
		mutate func(r *Result)
		want   string
	}{
		{"truncated", func(r *Result) { r.Hexes = r.Hexes[:len(r.Hexes)-1] }, "11 hexes, want 12"},
		{"extra", func(r *Result) { r.Hexes = append(r.Hexes, r.Hexes[0]) }, "13 hexes, want 12"},
		{"unknown label", func(r *Result) { r.Hexes[5].Terrain = "tundra" }, `"tundra" outside`},
		{"blank label", func(r *Result) { r.Hexes[0].Terrain = "" }, `"" outside`},
		{"no terrain set", func(r *Result) { r.Terrains = nil }, "outside the map's terrain set"},
		{"duplicate cell", func(r *Result) { r.Hexes[1] = r.Hexes[0] }, "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.Hexes = append([]Hex(nil), base.Hexes...)
			r.Terrains = append([]string(nil), base.Terrains...)
			tt.mutate(&r)

			_, err := r.Grid()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Grid() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}
