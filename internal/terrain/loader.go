package terrain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition describes one terrain in a palette file or database row.
type Definition struct {
	Name          string             `yaml:"name"`
	Symbol        string             `yaml:"symbol,omitempty"`
	Description   string             `yaml:"description,omitempty"`
	Compatibility map[string]float64 `yaml:"compatibility,omitempty"`
}

// PaletteFile is the structure of a terrains.yaml file.
type PaletteFile struct {
	// Inherit starts from the built-in weights before applying the file's entries
	Inherit  bool         `yaml:"inherit_defaults"`
	Terrains []Definition `yaml:"terrains"`
}

// LoadPalette reads a palette from a YAML file.
func LoadPalette(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read terrain file: %w", err)
	}

	var file PaletteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse terrain YAML: %w", err)
	}

	return file.Palette()
}

// Palette builds a palette from the file contents.
func (f *PaletteFile) Palette() (*Palette, error) {
	var base map[string]map[string]float64
	if f.Inherit {
		base = DefaultCompatibility()
	}
	return FromDefinitions(f.Terrains, base)
}

// FromDefinitions builds a palette from terrain definitions, in order. Entries
// in base are used where a definition does not override them.
func FromDefinitions(defs []Definition, base map[string]map[string]float64) (*Palette, error) {
	names := make([]string, 0, len(defs))
	weights := make(map[string]map[string]float64, len(defs))
	symbols := make(map[string]string)

	for _, d := range defs {
		names = append(names, d.Name)

		row := make(map[string]float64)
		for to, w := range base[d.Name] {
			row[to] = w
		}
		for to, w := range d.Compatibility {
			row[to] = w
		}
		weights[d.Name] = row

		if d.Symbol != "" {
			symbols[d.Name] = d.Symbol
		}
	}

	p, err := NewPalette(names, weights)
	if err != nil {
		return nil, err
	}
	return p.WithSymbols(symbols), nil
}

// Definitions returns the palette as definitions, suitable for writing back to
// a palette file or the database.
func (p *Palette) Definitions() []Definition {
	defs := make([]Definition, 0, len(p.terrains))
	for i, name := range p.terrains {
		row := make(map[string]float64, len(p.terrains))
		for j, to := range p.terrains {
			row[to] = p.weights[i][j]
		}
		d := Definition{Name: name, Compatibility: row}
		if s, ok := p.symbols[name]; ok {
			d.Symbol = s
		}
		defs = append(defs, d)
	}
	return defs
}
