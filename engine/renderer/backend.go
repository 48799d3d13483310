package renderer

import "errors"

var (
	ErrUnknownTexture = errors.New("unknown texture id")
	ErrRegionOutside  = errors.New("region lies outside the texture")
	ErrPixelCount     = errors.New("pixel buffer does not match region size")
)

// TextureBackend is the slice of the engine bridge the atlas needs. Ids are
// never 0. The atlas never reads pixels back and never destroys textures;
// reclaiming abandoned ids is up to the backend owner.
type TextureBackend interface {
	// CreateBlankTexture allocates a transparent RGBA texture.
	CreateBlankTexture(width, height int) (uint32, error)
	// UpdateTextureRegion uploads width*height*4 RGBA bytes at (x, y).
	UpdateTextureRegion(id uint32, x, y, width, height int, pixels []uint8) error
}

// TextureReleaser is implemented by backends that can free textures.
type TextureReleaser interface {
	ReleaseTexture(id uint32) error
}
