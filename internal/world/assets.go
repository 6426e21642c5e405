package world

// Narrow interfaces to the asset layer. The world never parses asset files;
// it asks for textures and tile flags by art id.

// Texture is an opaque renderable image.
type Texture interface {
	Width() int
	Height() int
}

// TextureProvider resolves the texture for an object kind and art id.
// A nil texture means "not available yet"; the object retries next frame.
type TextureProvider interface {
	Texture(kind Kind, art uint16) Texture
}

// TileInfo is the static per-art tile metadata.
type TileInfo interface {
	Roof() bool
	Surface() bool
	Impassable() bool
	Height() int
}

// TileData looks up tile metadata. Info covers statics and items, Land
// covers terrain. Unknown art returns nil.
type TileData interface {
	Info(art uint16) TileInfo
	Land(art uint16) TileInfo
}

// MapTile is one terrain cell.
type MapTile struct {
	Art uint16
	Z   int8
}

// StaticTile is one static item inside a block; X and Y are block-local.
type StaticTile struct {
	Art uint16
	X   uint8
	Y   uint8
	Z   int8
	Hue uint16
}

// MapBlock is the 8x8 terrain cell plus its statics. Tiles are row-major.
type MapBlock struct {
	Tiles   [SectorSize * SectorSize]MapTile
	Statics []StaticTile
}

// MapSource loads terrain blocks by block coordinates.
type MapSource interface {
	LoadBlock(mapID uint8, bx, by int) (MapBlock, error)
}
