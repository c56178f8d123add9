package hexmap

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

const (
	previewWidth  = 15
	previewHeight = 10
	previewSeed   = int64(42)
)

// RenderASCII draws the grid as rows of terrain symbols with a row index on
// the left and column digits underneath.
func RenderASCII(grid *Grid, palette *terrain.Palette) string {
	var sb strings.Builder
	rule := strings.Repeat("=", grid.Width()*2+5)

	fmt.Fprintf(&sb, "Hex Map (%dx%d):\n", grid.Width(), grid.Height())
	sb.WriteString(rule)
	sb.WriteByte('\n')

	for row := 0; row < grid.Height(); row++ {
		fmt.Fprintf(&sb, "%2d| ", row)
		for col := 0; col < grid.Width(); col++ {
			sb.WriteString(palette.Symbol(grid.At(row, col)))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(rule)
	sb.WriteByte('\n')
	// Same width as the "%2d| " row prefix, so each digit sits under its column.
	sb.WriteString("    ")
	for col := 0; col < grid.Width(); col++ {
		fmt.Fprintf(&sb, "%d ", col%10)
	}
	sb.WriteByte('\n')

	return sb.String()
}

// Legend lists "symbol = terrain" for every terrain in the palette.
func Legend(palette *terrain.Palette) string {
	var sb strings.Builder
	sb.WriteString("Legend:\n")
	for _, t := range palette.Terrains() {
		fmt.Fprintf(&sb, "  %s = %s\n", palette.Symbol(t), t)
	}
	return sb.String()
}

// TestMap renders a fixed 15x10 preview with seed 42.
func TestMap(palette *terrain.Palette) (string, error) {
	gen, err := NewGenerator(palette, previewWidth, previewHeight)
	if err != nil {
		return "", err
	}
	seed := previewSeed
	grid, _ := gen.Generate(&seed)
	return RenderASCII(grid, palette), nil
}
