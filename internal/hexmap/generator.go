package hexmap

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lawnchairsociety/openhexmap/internal/logger"
	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

var (
	ErrInvalidSize = errors.New("hexmap: width and height must be positive")
	ErrNoPalette   = errors.New("hexmap: palette is required")
)

// pass is one in-place step applied to a sampled grid.
type pass func(g *Generator, grid *Grid)

// defaultPasses run in order after sampling: two isolation sweeps, one
// forbidden-adjacency sweep, then region enforcement.
var defaultPasses = []pass{
	func(_ *Generator, grid *Grid) { deIsolate(grid) },
	func(_ *Generator, grid *Grid) { deIsolate(grid) },
	func(_ *Generator, grid *Grid) { repairForbiddenAdjacency(grid) },
	(*Generator).ensureMinimumRegions,
}

// Generator produces terrain grids of one size from one palette. It holds no
// mutable state between calls and may be used from several goroutines.
type Generator struct {
	palette       *terrain.Palette
	width, height int
	passes        []pass

	// rng is only set on the per-call copy made by Generate.
	rng *rand.Rand
}

// NewGenerator validates the grid size and binds it to a palette.
func NewGenerator(palette *terrain.Palette, width, height int) (*Generator, error) {
	if palette == nil {
		return nil, ErrNoPalette
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
	}

	return &Generator{
		palette: palette,
		width:   width,
		height:  height,
		passes:  defaultPasses,
	}, nil
}

// Width returns the number of columns generated.
func (g *Generator) Width() int { return g.width }

// Height returns the number of rows generated.
func (g *Generator) Height() int { return g.height }

// Palette returns the palette the generator samples from.
func (g *Generator) Palette() *terrain.Palette { return g.palette }

// Generate builds a grid. With a seed the output is reproducible; without one
// a time-derived seed is used. The seed actually used is returned.
//
// If a pass panics, the partial grid is discarded and replaced by a uniform
// random grid so the caller still gets a complete map.
func (g *Generator) Generate(seed *int64) (*Grid, int64) {
	used := time.Now().UnixNano()
	if seed != nil {
		used = *seed
	}

	run := *g
	run.rng = rand.New(rand.NewSource(used))
	return run.build(), used
}

// GenerateResult runs Generate and converts the grid to a Result.
func (g *Generator) GenerateResult(seed *int64) Result {
	grid, used := g.Generate(seed)
	res := NewResult(grid, g.palette)
	res.Seed = &used
	return res
}

func (g *Generator) build() (grid *Grid) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warning("Map generation failed, using uniform fallback",
				"width", g.width, "height", g.height, "error", r)
			grid = g.uniformGrid()
		}
	}()

	grid = g.sample()
	for _, p := range g.passes {
		p(g, grid)
	}
	return grid
}

// uniformGrid fills a grid with independent uniform picks.
func (g *Generator) uniformGrid() *Grid {
	grid := NewGrid(g.width, g.height)
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			grid.Set(row, col, g.palette.At(g.rng.Intn(g.palette.Len())))
		}
	}
	return grid
}

// Request is a generation request as received over HTTP, WebSocket or the CLI.
type Request struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Seed   *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Generate is the one-shot entry point. Construction errors come back as a
// failed Result rather than an error value.
func Generate(palette *terrain.Palette, req Request) Result {
	gen, err := NewGenerator(palette, req.Width, req.Height)
	if err != nil {
		return FailedResult(err)
	}
	return gen.GenerateResult(req.Seed)
}
