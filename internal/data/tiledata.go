package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/uogo/client/internal/world"
)

// TileFlags is the subset of tiledata flags the client cares about.
type TileFlags uint8

const (
	TileImpassable TileFlags = 1 << iota
	TileSurface
	TileRoof
	TileWet
	TileBackground
)

var tileFlagNames = map[string]TileFlags{
	"impassable": TileImpassable,
	"surface":    TileSurface,
	"roof":       TileRoof,
	"wet":        TileWet,
	"background": TileBackground,
}

// Tile is the tiledata entry for one art id. It implements world.TileInfo.
type Tile struct {
	Art    uint16
	Name   string
	Flags  TileFlags
	height int
}

func (t Tile) Roof() bool       { return t.Flags&TileRoof != 0 }
func (t Tile) Surface() bool    { return t.Flags&TileSurface != 0 }
func (t Tile) Impassable() bool { return t.Flags&TileImpassable != 0 }
func (t Tile) Height() int      { return t.height }

// TileDataTable holds land and item tiledata. It implements world.TileData.
type TileDataTable struct {
	land  map[uint16]Tile
	items map[uint16]Tile
}

type tileYAML struct {
	Art    uint16   `yaml:"art"`
	Name   string   `yaml:"name"`
	Flags  []string `yaml:"flags"`
	Height int      `yaml:"height"`
}

type tileDataFile struct {
	Land  []tileYAML `yaml:"land"`
	Items []tileYAML `yaml:"items"`
}

// LoadTileData loads tiledata from a YAML file.
func LoadTileData(path string) (*TileDataTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiledata %s: %w", path, err)
	}
	return ParseTileData(raw)
}

func ParseTileData(raw []byte) (*TileDataTable, error) {
	var file tileDataFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse tiledata: %w", err)
	}

	t := &TileDataTable{
		land:  make(map[uint16]Tile, len(file.Land)),
		items: make(map[uint16]Tile, len(file.Items)),
	}
	for _, section := range []struct {
		name    string
		entries []tileYAML
		into    map[uint16]Tile
	}{
		{"land", file.Land, t.land},
		{"items", file.Items, t.items},
	} {
		for _, e := range section.entries {
			tile, err := e.toTile()
			if err != nil {
				return nil, fmt.Errorf("%s 0x%04X: %w", section.name, e.Art, err)
			}
			if _, dup := section.into[e.Art]; dup {
				return nil, fmt.Errorf("%s 0x%04X: duplicate entry", section.name, e.Art)
			}
			section.into[e.Art] = tile
		}
	}
	return t, nil
}

func (e tileYAML) toTile() (Tile, error) {
	tile := Tile{Art: e.Art, Name: e.Name, height: e.Height}
	for _, name := range e.Flags {
		f, ok := tileFlagNames[name]
		if !ok {
			return Tile{}, fmt.Errorf("unknown flag %q", name)
		}
		tile.Flags |= f
	}
	return tile, nil
}

// Info returns the item tiledata for art, or nil.
func (t *TileDataTable) Info(art uint16) world.TileInfo {
	if tile, ok := t.items[art]; ok {
		return tile
	}
	return nil
}

// Land returns the land tiledata for art, or nil.
func (t *TileDataTable) Land(art uint16) world.TileInfo {
	if tile, ok := t.land[art]; ok {
		return tile
	}
	return nil
}

func (t *TileDataTable) Count() (land, items int) {
	return len(t.land), len(t.items)
}
