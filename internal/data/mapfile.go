package data

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/world"
)

// Block file layout. Terrain blocks are a 4-byte header followed by 64
// cells of (art u16, z i8); the static index holds (offset i32, length i32,
// extra i32) per block and each static record is (art u16, x u8, y u8, z i8,
// hue u16). All integers are little-endian.
const (
	terrainCellSize   = 3
	terrainHeaderSize = 4
	terrainBlockSize  = terrainHeaderSize + world.SectorSize*world.SectorSize*terrainCellSize
	staticIndexSize   = 12
	staticRecordSize  = 7
)

var ErrBlockRange = errors.New("block out of range")

type blockKey struct {
	mapID  uint8
	bx, by int
}

type mapFiles struct {
	info    MapInfo
	terrain *os.File
	index   *os.File
	statics *os.File
}

// BlockLoader reads terrain and static blocks from the facet files listed in
// the map list. It implements world.MapSource. Loaded blocks are kept in an
// asset cache.
type BlockLoader struct {
	dir   string
	maps  *MapList
	cache *Cache[blockKey, world.MapBlock]
	log   *zap.Logger

	mu    sync.Mutex
	files map[uint8]*mapFiles
}

func NewBlockLoader(dir string, maps *MapList, cacheSize int, log *zap.Logger) *BlockLoader {
	l := &BlockLoader{
		dir:   dir,
		maps:  maps,
		log:   log,
		files: make(map[uint8]*mapFiles),
	}
	l.cache = NewCache(cacheSize, l.read)
	return l
}

// LoadBlock returns the block at block coordinates (bx, by).
func (l *BlockLoader) LoadBlock(mapID uint8, bx, by int) (world.MapBlock, error) {
	return l.cache.Peek(blockKey{mapID: mapID, bx: bx, by: by})
}

// Cached reports how many blocks are resident.
func (l *BlockLoader) Cached() int { return l.cache.Len() }

func (l *BlockLoader) read(k blockKey) (world.MapBlock, error) {
	var b world.MapBlock
	f, err := l.open(k.mapID)
	if err != nil {
		return b, err
	}
	if k.bx < 0 || k.by < 0 || k.bx >= f.info.BlocksWide() || k.by >= f.info.BlocksHigh() {
		return b, fmt.Errorf("map %d block %d,%d: %w", k.mapID, k.bx, k.by, ErrBlockRange)
	}
	index := int64(k.bx*f.info.BlocksHigh() + k.by)

	raw := make([]byte, terrainBlockSize)
	if _, err := f.terrain.ReadAt(raw, index*terrainBlockSize); err != nil {
		return b, fmt.Errorf("read terrain block %d: %w", index, err)
	}
	cells := raw[terrainHeaderSize:]
	for i := range b.Tiles {
		c := cells[i*terrainCellSize:]
		b.Tiles[i] = world.MapTile{Art: binary.LittleEndian.Uint16(c), Z: int8(c[2])}
	}

	if f.index == nil || f.statics == nil {
		return b, nil
	}
	b.Statics, err = readStatics(f, index)
	if err != nil {
		return b, err
	}
	return b, nil
}

func readStatics(f *mapFiles, index int64) ([]world.StaticTile, error) {
	var idx [staticIndexSize]byte
	if _, err := f.index.ReadAt(idx[:], index*staticIndexSize); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read static index %d: %w", index, err)
	}
	offset := int32(binary.LittleEndian.Uint32(idx[0:]))
	length := int32(binary.LittleEndian.Uint32(idx[4:]))
	if offset < 0 || length <= 0 {
		return nil, nil
	}

	raw := make([]byte, length)
	if _, err := f.statics.ReadAt(raw, int64(offset)); err != nil {
		return nil, fmt.Errorf("read statics at %d: %w", offset, err)
	}
	n := int(length) / staticRecordSize
	out := make([]world.StaticTile, 0, n)
	for i := 0; i < n; i++ {
		r := raw[i*staticRecordSize:]
		st := world.StaticTile{
			Art: binary.LittleEndian.Uint16(r[0:]),
			X:   r[2],
			Y:   r[3],
			Z:   int8(r[4]),
			Hue: binary.LittleEndian.Uint16(r[5:]),
		}
		if st.X >= world.SectorSize || st.Y >= world.SectorSize {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (l *BlockLoader) open(mapID uint8) (*mapFiles, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.files[mapID]; ok {
		return f, nil
	}
	info, ok := l.maps.Get(mapID)
	if !ok {
		return nil, fmt.Errorf("map %d not in map list", mapID)
	}
	f := &mapFiles{info: info}
	var err error
	f.terrain, err = os.Open(filepath.Join(l.dir, info.Terrain))
	if err != nil {
		return nil, fmt.Errorf("open terrain: %w", err)
	}
	if info.Index != "" && info.Statics != "" {
		f.index, err = os.Open(filepath.Join(l.dir, info.Index))
		if err == nil {
			f.statics, err = os.Open(filepath.Join(l.dir, info.Statics))
		}
		if err != nil {
			l.log.Warn("statics unavailable", zap.Uint8("map", mapID), zap.Error(err))
			closeFiles(f)
			f.index, f.statics = nil, nil
		}
	}
	l.files[mapID] = f
	l.log.Info("map files opened", zap.Uint8("map", mapID), zap.String("name", info.Name))
	return f, nil
}

// Close releases every open file and drops the cache.
func (l *BlockLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, f := range l.files {
		f.closeAll()
		delete(l.files, id)
	}
	l.cache.Clear()
	return nil
}

func (f *mapFiles) closeAll() {
	if f.terrain != nil {
		f.terrain.Close()
	}
	closeFiles(f)
}

func closeFiles(f *mapFiles) {
	if f.index != nil {
		f.index.Close()
	}
	if f.statics != nil {
		f.statics.Close()
	}
}
