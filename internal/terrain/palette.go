package terrain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrEmptySet         = errors.New("terrain: terrain set is empty")
	ErrBlankTerrain     = errors.New("terrain: terrain label is blank")
	ErrDuplicateTerrain = errors.New("terrain: duplicate terrain label")
	ErrInvalidWeight    = errors.New("terrain: compatibility weight must be positive and finite")
	ErrForbiddenOnly    = errors.New("terrain: terrain set contains only the forbidden terrain")
)

// DefaultWeight is used for every pair the caller did not specify.
const DefaultWeight = 1.0

// Palette is an ordered terrain set with a fully resolved compatibility matrix.
// A Palette is never modified after NewPalette returns, so it can be shared
// between concurrent generations.
type Palette struct {
	terrains []string
	index    map[string]int
	weights  [][]float64 // weights[from][to]
	symbols  map[string]string
}

// NewPalette validates the terrain set and resolves the compatibility matrix,
// filling every missing pair with DefaultWeight. Entries for terrains outside
// the set are ignored.
func NewPalette(terrains []string, compatibility map[string]map[string]float64) (*Palette, error) {
	if len(terrains) == 0 {
		return nil, ErrEmptySet
	}

	p := &Palette{
		terrains: make([]string, len(terrains)),
		index:    make(map[string]int, len(terrains)),
		symbols:  make(map[string]string),
	}

	onlyForbidden := true
	for i, t := range terrains {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w at position %d", ErrBlankTerrain, i)
		}
		if _, exists := p.index[t]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTerrain, t)
		}
		if t != Forbidden {
			onlyForbidden = false
		}
		p.terrains[i] = t
		p.index[t] = i
	}
	if onlyForbidden {
		return nil, ErrForbiddenOnly
	}

	n := len(p.terrains)
	p.weights = make([][]float64, n)
	for i, from := range p.terrains {
		p.weights[i] = make([]float64, n)
		row := compatibility[from]
		for j, to := range p.terrains {
			w, ok := row[to]
			if !ok {
				w = DefaultWeight
			}
			if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: %s -> %s = %v", ErrInvalidWeight, from, to, w)
			}
			p.weights[i][j] = w
		}
	}

	defaults := DefaultSymbols()
	for _, t := range p.terrains {
		if s, ok := defaults[t]; ok {
			p.symbols[t] = s
		}
	}

	return p, nil
}

// DefaultPalette returns the built-in terrain set and weights.
func DefaultPalette() *Palette {
	p, err := NewPalette(DefaultTerrains(), DefaultCompatibility())
	if err != nil {
		// The built-in table is static; failure here is a programming error.
		panic(err)
	}
	return p
}

// WithSymbols returns a copy of the palette with the given symbols merged over
// the current ones.
func (p *Palette) WithSymbols(symbols map[string]string) *Palette {
	cp := *p
	cp.symbols = make(map[string]string, len(p.symbols)+len(symbols))
	for k, v := range p.symbols {
		cp.symbols[k] = v
	}
	for k, v := range symbols {
		if _, ok := p.index[k]; ok && v != "" {
			cp.symbols[k] = v
		}
	}
	return &cp
}

// Terrains returns a copy of the ordered terrain set.
func (p *Palette) Terrains() []string {
	out := make([]string, len(p.terrains))
	copy(out, p.terrains)
	return out
}

// Len returns the number of terrains.
func (p *Palette) Len() int {
	return len(p.terrains)
}

// At returns the terrain at position i.
func (p *Palette) At(i int) string {
	return p.terrains[i]
}

// Index returns the position of a terrain in the set.
func (p *Palette) Index(label string) (int, bool) {
	i, ok := p.index[label]
	return i, ok
}

// Has reports whether label is part of the set.
func (p *Palette) Has(label string) bool {
	_, ok := p.index[label]
	return ok
}

// Weight returns the affinity of `to` appearing next to `from`.
func (p *Palette) Weight(from, to string) (float64, error) {
	i, ok := p.index[from]
	if !ok {
		return 0, fmt.Errorf("terrain: unknown terrain %q", from)
	}
	j, ok := p.index[to]
	if !ok {
		return 0, fmt.Errorf("terrain: unknown terrain %q", to)
	}
	return p.weights[i][j], nil
}

// WeightAt is Weight by index, without lookups.
func (p *Palette) WeightAt(from, to int) float64 {
	return p.weights[from][to]
}

// HasForbidden reports whether the forbidden terrain is part of the set.
func (p *Palette) HasForbidden() bool {
	return p.Has(Forbidden)
}

// Symbol returns the map symbol for a terrain, or UnknownSymbol.
func (p *Palette) Symbol(label string) string {
	if s, ok := p.symbols[label]; ok {
		return s
	}
	return UnknownSymbol
}

// Matrix returns the resolved matrix as nested maps.
func (p *Palette) Matrix() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(p.terrains))
	for i, from := range p.terrains {
		row := make(map[string]float64, len(p.terrains))
		for j, to := range p.terrains {
			row[to] = p.weights[i][j]
		}
		out[from] = row
	}
	return out
}
