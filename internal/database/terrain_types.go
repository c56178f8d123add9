package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

// StandardCategory is the terrain category the generator reads by default.
const StandardCategory = "standard"

// ErrNoTerrainTypes is returned when a category has no terrain rows.
var ErrNoTerrainTypes = errors.New("no terrain types stored")

// UpsertTerrainType inserts or replaces a terrain definition within category.
// The same name may exist in several categories. Position orders the terrain
// within its category.
func (d *Database) UpsertTerrainType(def terrain.Definition, category string, position int) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return terrain.ErrBlankTerrain
	}
	if category == "" {
		category = StandardCategory
	}

	compat := def.Compatibility
	if compat == nil {
		compat = map[string]float64{}
	}
	data, err := json.Marshal(compat)
	if err != nil {
		return fmt.Errorf("failed to encode compatibility for %s: %w", name, err)
	}

	_, err = d.exec(
		`INSERT INTO terrain_types (name, symbol, description, category, compatibility_data, position)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (category, name) DO UPDATE SET
			symbol = excluded.symbol,
			description = excluded.description,
			compatibility_data = excluded.compatibility_data,
			position = excluded.position`,
		name, def.Symbol, def.Description, category, string(data), position,
	)
	if err != nil {
		return fmt.Errorf("failed to save terrain type %s: %w", name, err)
	}
	return nil
}

// ListTerrainTypes returns the terrain definitions of a category in order.
func (d *Database) ListTerrainTypes(category string) ([]terrain.Definition, error) {
	rows, err := d.query(
		`SELECT name, symbol, description, compatibility_data
		 FROM terrain_types WHERE category = ? ORDER BY position, name`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list terrain types: %w", err)
	}
	defer rows.Close()

	var defs []terrain.Definition
	for rows.Next() {
		var def terrain.Definition
		var data []byte
		if err := rows.Scan(&def.Name, &def.Symbol, &def.Description, &data); err != nil {
			return nil, fmt.Errorf("failed to scan terrain type: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &def.Compatibility); err != nil {
				return nil, fmt.Errorf("failed to decode compatibility for %s: %w", def.Name, err)
			}
		}
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// DeleteTerrainType removes a terrain definition from one category. Missing
// names are ignored.
func (d *Database) DeleteTerrainType(category, name string) error {
	if category == "" {
		category = StandardCategory
	}
	if _, err := d.exec("DELETE FROM terrain_types WHERE category = ? AND name = ?", category, name); err != nil {
		return fmt.Errorf("failed to delete terrain type %s: %w", name, err)
	}
	return nil
}

// LoadPalette builds a palette from a stored category.
func (d *Database) LoadPalette(category string) (*terrain.Palette, error) {
	defs, err := d.ListTerrainTypes(category)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w in category %q", ErrNoTerrainTypes, category)
	}
	return terrain.FromDefinitions(defs, nil)
}

// SavePalette stores every terrain of a palette under category, in order.
func (d *Database) SavePalette(p *terrain.Palette, category string) error {
	for i, def := range p.Definitions() {
		if err := d.UpsertTerrainType(def, category, i); err != nil {
			return err
		}
	}
	return nil
}
