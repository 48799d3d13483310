package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// MemoryBackend keeps textures as CPU pixel buffers. It backs the headless
// engine loop and the tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	ids      *core.IdentifierPool
	textures map[uint32]*metadata.Texture
	uploads  int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		ids:      core.NewIdentifierPool(),
		textures: make(map[uint32]*metadata.Texture),
	}
}

func (mb *MemoryBackend) CreateBlankTexture(width, height int) (uint32, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("create blank texture %dx%d: invalid size", width, height)
	}
	t := &metadata.Texture{
		Width:  uint32(width),
		Height: uint32(height),
		Pixels: make([]uint8, width*height*4),
	}
	t.ID = mb.ids.AquireNewID(t)
	t.Name = fmt.Sprintf("texture_%d", t.ID)

	mb.mu.Lock()
	mb.textures[t.ID] = t
	mb.mu.Unlock()

	core.LogDebug("created blank texture %d (%dx%d)", t.ID, width, height)
	return t.ID, nil
}

func (mb *MemoryBackend) UpdateTextureRegion(id uint32, x, y, width, height int, pixels []uint8) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	t, ok := mb.textures[id]
	if !ok {
		return fmt.Errorf("update texture %d: %w", id, ErrUnknownTexture)
	}
	if x < 0 || y < 0 || x+width > int(t.Width) || y+height > int(t.Height) {
		return fmt.Errorf("update texture %d at (%d,%d) %dx%d: %w", id, x, y, width, height, ErrRegionOutside)
	}
	if len(pixels) != width*height*4 {
		return fmt.Errorf("update texture %d: got %d bytes for %dx%d: %w", id, len(pixels), width, height, ErrPixelCount)
	}

	stride := int(t.Width) * 4
	for row := 0; row < height; row++ {
		dst := (y+row)*stride + x*4
		src := row * width * 4
		copy(t.Pixels[dst:dst+width*4], pixels[src:src+width*4])
	}
	t.Generation++
	mb.uploads++
	return nil
}

func (mb *MemoryBackend) ReleaseTexture(id uint32) error {
	mb.mu.Lock()
	_, ok := mb.textures[id]
	delete(mb.textures, id)
	mb.mu.Unlock()

	if !ok {
		return fmt.Errorf("release texture %d: %w", id, ErrUnknownTexture)
	}
	return mb.ids.ReleaseID(id)
}

// Texture returns the live texture for id.
func (mb *MemoryBackend) Texture(id uint32) (*metadata.Texture, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	t, ok := mb.textures[id]
	return t, ok
}

// Pixel reads one RGBA pixel, for diagnostics and tests.
func (mb *MemoryBackend) Pixel(id uint32, x, y int) ([4]uint8, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	var px [4]uint8
	t, ok := mb.textures[id]
	if !ok || x < 0 || y < 0 || x >= int(t.Width) || y >= int(t.Height) {
		return px, false
	}
	off := (y*int(t.Width) + x) * 4
	copy(px[:], t.Pixels[off:off+4])
	return px, true
}

func (mb *MemoryBackend) TextureCount() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return len(mb.textures)
}

func (mb *MemoryBackend) UploadCount() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.uploads
}
