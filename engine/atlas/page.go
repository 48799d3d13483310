package atlas

import (
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// AtlasPage is one physical atlas texture.
type AtlasPage struct {
	// TextureID changes identity whenever the page is grown or rebuilt.
	TextureID uint32
	Index     int
	Width     int
	Height    int

	packer *RectanglePacker
	// guids placed on this page, in placement order.
	guids []string
}

func newAtlasPage(index int, textureID uint32, width, height, padding int) *AtlasPage {
	return &AtlasPage{
		TextureID: textureID,
		Index:     index,
		Width:     width,
		Height:    height,
		packer:    NewRectanglePacker(width, height, padding),
	}
}

func (ap *AtlasPage) Occupancy() float64 {
	return ap.packer.Occupancy()
}

func (ap *AtlasPage) IsFull() bool {
	return ap.packer.IsFull()
}

func (ap *AtlasPage) TextureCount() int {
	return len(ap.guids)
}

// uvFor normalises region against the page's current size.
func (ap *AtlasPage) uvFor(region metadata.PackedRect) [4]float32 {
	w, h := float32(ap.Width), float32(ap.Height)
	return [4]float32{
		float32(region.X) / w,
		float32(region.Y) / h,
		float32(region.Right()) / w,
		float32(region.Bottom()) / h,
	}
}

// PageStats is a diagnostic snapshot of one page.
type PageStats struct {
	Index     int
	TextureID uint32
	Width     int
	Height    int
	Textures  int
	Occupancy float64
}

func (ap *AtlasPage) Stats() PageStats {
	return PageStats{
		Index:     ap.Index,
		TextureID: ap.TextureID,
		Width:     ap.Width,
		Height:    ap.Height,
		Textures:  len(ap.guids),
		Occupancy: ap.packer.Occupancy(),
	}
}
