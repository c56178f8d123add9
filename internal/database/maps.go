package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
)

// ErrMapNotFound is returned when a map lookup fails.
var ErrMapNotFound = errors.New("map not found")

// ErrUnsuccessfulResult is returned when saving a failed generation.
var ErrUnsuccessfulResult = errors.New("cannot save an unsuccessful generation result")

// defaultListLimit caps ListMaps when the caller passes no limit.
const defaultListLimit = 50

// MapSummary is a stored map without its hexes.
type MapSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Seed      *int64    `json:"seed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedMap is a stored map with its full contents.
type SavedMap struct {
	MapSummary
	Terrains []string     `json:"terrains"`
	Hexes    []hexmap.Hex `json:"hexes"`
}

// Result rebuilds the generation result the map was saved from.
func (m *SavedMap) Result() hexmap.Result {
	return hexmap.Result{
		Success:  true,
		Width:    m.Width,
		Height:   m.Height,
		Terrains: m.Terrains,
		Hexes:    m.Hexes,
		Seed:     m.Seed,
	}
}

// SaveMap stores a successful generation result under name.
func (d *Database) SaveMap(name string, res hexmap.Result) (*SavedMap, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("map name cannot be empty")
	}
	if !res.Success {
		return nil, ErrUnsuccessfulResult
	}

	terrains, err := json.Marshal(res.Terrains)
	if err != nil {
		return nil, fmt.Errorf("failed to encode terrains: %w", err)
	}
	hexes, err := json.Marshal(res.Hexes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hexes: %w", err)
	}

	var seed int64
	hasSeed := 0
	if res.Seed != nil {
		seed = *res.Seed
		hasSeed = 1
	}

	m := &SavedMap{
		MapSummary: MapSummary{
			ID:        uuid.NewString(),
			Name:      name,
			Width:     res.Width,
			Height:    res.Height,
			Seed:      res.Seed,
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		},
		Terrains: res.Terrains,
		Hexes:    res.Hexes,
	}

	_, err = d.exec(
		`INSERT INTO maps (id, name, width, height, seed, has_seed, terrains, hexes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Width, m.Height, seed, hasSeed, string(terrains), string(hexes), m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save map: %w", err)
	}

	return m, nil
}

// GetMap loads a stored map by ID.
func (d *Database) GetMap(id string) (*SavedMap, error) {
	var m SavedMap
	var seed int64
	var hasSeed int
	var terrains, hexes []byte

	err := d.queryRow(
		`SELECT id, name, width, height, seed, has_seed, terrains, hexes, created_at
		 FROM maps WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.Name, &m.Width, &m.Height, &seed, &hasSeed, &terrains, &hexes, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, fmt.Errorf("failed to get map: %w", err)
	}

	if hasSeed != 0 {
		m.Seed = &seed
	}
	if err := json.Unmarshal(terrains, &m.Terrains); err != nil {
		return nil, fmt.Errorf("failed to decode terrains for map %s: %w", id, err)
	}
	if err := json.Unmarshal(hexes, &m.Hexes); err != nil {
		return nil, fmt.Errorf("failed to decode hexes for map %s: %w", id, err)
	}

	return &m, nil
}

// ListMaps returns the most recent maps first. A limit of 0 or less uses
// the default.
func (d *Database) ListMaps(limit int) ([]MapSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := d.query(
		`SELECT id, name, width, height, seed, has_seed, created_at
		 FROM maps ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var maps []MapSummary
	for rows.Next() {
		var m MapSummary
		var seed int64
		var hasSeed int
		if err := rows.Scan(&m.ID, &m.Name, &m.Width, &m.Height, &seed, &hasSeed, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}
		if hasSeed != 0 {
			s := seed
			m.Seed = &s
		}
		maps = append(maps, m)
	}

	return maps, rows.Err()
}

// DeleteMap removes a stored map.
func (d *Database) DeleteMap(id string) error {
	res, err := d.exec("DELETE FROM maps WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}
	if n == 0 {
		return ErrMapNotFound
	}
	return nil
}

// CountMaps returns the number of stored maps.
func (d *Database) CountMaps() (int, error) {
	var n int
	if err := d.queryRow("SELECT COUNT(*) FROM maps").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count maps: %w", err)
	}
	return n, nil
}
