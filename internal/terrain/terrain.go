// Package terrain defines terrain sets and the compatibility weights that bias
// which terrains appear next to each other on a generated map.
package terrain

// Forbidden is the terrain that must never be adjacent to itself.
const Forbidden = "ruins"

// Built-in terrain labels
const (
	Plains     = "plains"
	Forest     = "forest"
	DarkForest = "dark_forest"
	Hills      = "hills"
	Mountains  = "mountains"
	Lake       = "lake"
	Marshlands = "marshlands"
	Ruins      = Forbidden
)

// DefaultTerrains returns the built-in terrain set in canonical order.
func DefaultTerrains() []string {
	return []string{Plains, Forest, DarkForest, Hills, Mountains, Lake, Marshlands, Ruins}
}

// DefaultCompatibility returns the built-in affinity table.
// Higher values make the column terrain more likely next to the row terrain.
func DefaultCompatibility() map[string]map[string]float64 {
	return map[string]map[string]float64{
		Plains: {
			Plains: 5.0, Forest: 3.0, Hills: 2.5, Lake: 2.0,
			DarkForest: 0.5, Mountains: 1.0, Marshlands: 1.5, Ruins: 2.0,
		},
		Forest: {
			Forest: 5.0, Plains: 3.0, DarkForest: 3.5, Hills: 2.8,
			Mountains: 2.0, Lake: 2.2, Marshlands: 1.5, Ruins: 1.8,
		},
		DarkForest: {
			DarkForest: 5.0, Forest: 3.0, Marshlands: 3.5, Ruins: 3.5,
			Mountains: 2.0, Hills: 1.5, Plains: 0.5, Lake: 0.3,
		},
		Hills: {
			Hills: 5.0, Mountains: 4.0, Plains: 3.0, Forest: 2.8,
			DarkForest: 1.5, Lake: 1.2, Marshlands: 0.5, Ruins: 2.5,
		},
		Mountains: {
			Mountains: 5.0, Hills: 4.0, Forest: 2.0, DarkForest: 2.0,
			Lake: 1.5, Plains: 1.2, Marshlands: 0.2, Ruins: 2.2,
		},
		Lake: {
			Lake: 4.0, Plains: 2.0, Forest: 2.5, Marshlands: 3.5,
			Hills: 1.2, Mountains: 1.5, DarkForest: 0.3, Ruins: 1.2,
		},
		Marshlands: {
			Marshlands: 5.0, Lake: 3.5, DarkForest: 3.5, Forest: 1.2,
			Plains: 1.5, Hills: 0.5, Mountains: 0.2, Ruins: 2.0,
		},
		Ruins: {
			Ruins: 3.0, DarkForest: 3.5, Hills: 2.0, Mountains: 1.8,
			Plains: 1.8, Forest: 1.5, Marshlands: 1.5, Lake: 1.0,
		},
	}
}

// DefaultSymbols returns the single-letter map symbols for the built-in terrains.
func DefaultSymbols() map[string]string {
	return map[string]string{
		Plains:     "P",
		Forest:     "F",
		DarkForest: "D",
		Hills:      "H",
		Mountains:  "M",
		Lake:       "L",
		Marshlands: "W",
		Ruins:      "R",
	}
}

// UnknownSymbol is rendered for terrains without a symbol.
const UnknownSymbol = "?"
