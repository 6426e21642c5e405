package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single facet, loaded from map_list.yaml.
type MapInfo struct {
	MapID   uint8  `yaml:"map_id"`
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`  // tiles
	Height  int    `yaml:"height"` // tiles
	Terrain string `yaml:"terrain"`
	Index   string `yaml:"static_index"`
	Statics string `yaml:"statics"`
}

// BlocksWide is the number of 8x8 blocks along X.
func (m MapInfo) BlocksWide() int { return m.Width / 8 }

// BlocksHigh is the number of 8x8 blocks along Y.
func (m MapInfo) BlocksHigh() int { return m.Height / 8 }

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// MapList provides facet metadata lookups.
type MapList struct {
	maps map[uint8]MapInfo
}

// LoadMapList loads facet metadata from YAML.
func LoadMapList(path string) (*MapList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", path, err)
	}
	return ParseMapList(raw)
}

func ParseMapList(raw []byte) (*MapList, error) {
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}
	l := &MapList{maps: make(map[uint8]MapInfo, len(file.Maps))}
	for _, m := range file.Maps {
		if m.Width <= 0 || m.Height <= 0 || m.Width%8 != 0 || m.Height%8 != 0 {
			return nil, fmt.Errorf("map %d: size %dx%d is not a positive multiple of 8", m.MapID, m.Width, m.Height)
		}
		if _, dup := l.maps[m.MapID]; dup {
			return nil, fmt.Errorf("map %d: duplicate entry", m.MapID)
		}
		l.maps[m.MapID] = m
	}
	return l, nil
}

func (l *MapList) Get(mapID uint8) (MapInfo, bool) {
	m, ok := l.maps[mapID]
	return m, ok
}

// IDs returns the known map ids in ascending order.
func (l *MapList) IDs() []uint8 {
	ids := make([]uint8, 0, len(l.maps))
	for id := range l.maps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
