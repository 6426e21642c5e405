package data

import (
	"github.com/uogo/client/internal/world"
)

// Texture is a headless texture: only its size is known. The renderer side
// of the client is out of scope, so art ids resolve to placeholder sizes.
type Texture struct {
	Kind world.Kind
	Art  uint16
	W, H int
}

func (t *Texture) Width() int  { return t.W }
func (t *Texture) Height() int { return t.H }

type textureKey struct {
	kind world.Kind
	art  uint16
}

// Textures resolves textures through an asset cache. It implements
// world.TextureProvider.
type Textures struct {
	cache *Cache[textureKey, *Texture]
}

func NewTextures(cacheSize int) *Textures {
	return &Textures{cache: NewCache(cacheSize, loadTexture)}
}

func loadTexture(k textureKey) (*Texture, error) {
	w, h := 44, 44
	switch k.kind {
	case world.KindMobile:
		w, h = 60, 80
	case world.KindSpeech:
		w, h = 160, 20
	}
	return &Texture{Kind: k.kind, Art: k.art, W: w, H: h}, nil
}

// Texture returns the texture without holding a reference: the world's
// render cache re-resolves it whenever the object is invalidated.
func (t *Textures) Texture(kind world.Kind, art uint16) world.Texture {
	tex, err := t.cache.Peek(textureKey{kind: kind, art: art})
	if err != nil {
		return nil
	}
	return tex
}

// Fix keeps a texture resident for the life of the client.
func (t *Textures) Fix(kind world.Kind, art uint16) error {
	return t.cache.Pin(textureKey{kind: kind, art: art})
}

func (t *Textures) Release(kind world.Kind, art uint16) {
	t.cache.Unpin(textureKey{kind: kind, art: art})
}

func (t *Textures) Resident() int { return t.cache.Len() }
