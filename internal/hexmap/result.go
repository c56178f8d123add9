package hexmap

import (
	"fmt"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

// Hex is one cell of a generated map.
type Hex struct {
	Row     int    `json:"row" yaml:"row"`
	Col     int    `json:"col" yaml:"col"`
	Terrain string `json:"terrain" yaml:"terrain"`
	ID      string `json:"id" yaml:"id"`
}

// Result is the envelope returned to every caller of the generator.
type Result struct {
	Success  bool     `json:"success" yaml:"success"`
	Width    int      `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int      `json:"height,omitempty" yaml:"height,omitempty"`
	Terrains []string `json:"terrains,omitempty" yaml:"terrains,omitempty"`
	Hexes    []Hex    `json:"hexes" yaml:"hexes"`
	Seed     *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// HexID returns the stable identifier of a cell.
func HexID(row, col int) string {
	return fmt.Sprintf("hex_%d_%d", row, col)
}

// NewResult flattens a grid into a successful result in row-major order.
func NewResult(grid *Grid, palette *terrain.Palette) Result {
	hexes := make([]Hex, 0, grid.Width()*grid.Height())
	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			hexes = append(hexes, Hex{
				Row:     row,
				Col:     col,
				Terrain: grid.At(row, col),
				ID:      HexID(row, col),
			})
		}
	}

	return Result{
		Success:  true,
		Width:    grid.Width(),
		Height:   grid.Height(),
		Terrains: palette.Terrains(),
		Hexes:    hexes,
	}
}

// FailedResult wraps a construction error.
func FailedResult(err error) Result {
	return Result{
		Success: false,
		Hexes:   []Hex{},
		Error:   err.Error(),
	}
}

// Grid rebuilds the grid from a successful result, e.g. one loaded from storage.
// Every cell must be supplied exactly once with a label from r.Terrains.
func (r Result) Grid() (*Grid, error) {
	if !r.Success {
		return nil, fmt.Errorf("result is not successful: %s", r.Error)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, r.Width, r.Height)
	}
	if want := r.Width * r.Height; len(r.Hexes) != want {
		return nil, fmt.Errorf("result has %d hexes, want %d for a %dx%d map", len(r.Hexes), want, r.Width, r.Height)
	}

	known := make(map[string]bool, len(r.Terrains))
	for _, t := range r.Terrains {
		known[t] = true
	}

	grid := NewGrid(r.Width, r.Height)
	for _, h := range r.Hexes {
		if !grid.InBounds(h.Row, h.Col) {
			return nil, fmt.Errorf("hex %s outside %dx%d map", h.ID, r.Width, r.Height)
		}
		if !known[h.Terrain] {
			return nil, fmt.Errorf("hex %s has terrain %q outside the map's terrain set", h.ID, h.Terrain)
		}
		if grid.At(h.Row, h.Col) != "" {
			return nil, fmt.Errorf("hex %s appears more than once", h.ID)
		}
		grid.Set(h.Row, h.Col, h.Terrain)
	}
	return grid, nil
}
