package metadata

import "fmt"

/**
 * @brief Axis aligned clip rectangle in screen space.
 */
type ClipRect struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// Key returns a value usable for batch comparison; nil clip rects map to "".
func (c *ClipRect) Key() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g,%g", c.X, c.Y, c.Width, c.Height)
}

/**
 * @brief One drawable quad. Lives from an Add* call until the next Clear.
 */
type RenderPrimitive struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	Rotation float32
	PivotX   float32
	PivotY   float32
	/** @brief Packed 0xAARRGGBB colour. */
	Color        uint32
	SortingLayer int
	OrderInLayer int
	/** @brief Monotonic submission index within the frame. */
	AddIndex uint64
	/** @brief Texture handle of an unatlased texture, 0 if none. */
	TextureID   uint32
	TextureGUID string
	TexturePath string
	/** @brief u0, v0, u1, v1 in the source texture's space. */
	UV                [4]float32
	MaterialID        uint32
	MaterialOverrides map[string]float32
	ClipRect          *ClipRect
	/** @brief Source entity, for debugging only. */
	EntityID uint64
}

// HasTexture reports whether the primitive samples a texture at all.
func (p *RenderPrimitive) HasTexture() bool {
	return p.TextureGUID != "" || p.TextureID != 0
}

// SortKey combines sorting layer and order in layer into one scalar.
func SortKey(sortingLayer, orderInLayer int) int64 {
	return int64(sortingLayer)*100000 + int64(orderInLayer)
}

const (
	TransformStride = 7
	UVStride        = 4
)

/**
 * @brief One GPU-ready batch: a structure of arrays plus sorting metadata.
 * Transforms are laid out as x, y, rotation, width, height, pivotX, pivotY.
 */
type ProviderRenderData struct {
	SortingLayer int
	OrderInLayer int
	SortKey      int64
	/** @brief AddIndex of the first primitive, used to order batches. */
	FirstAddIndex uint64
	/** @brief Texture to bind. The atlas page texture when IsAtlased. */
	TextureID   uint32
	TextureGUID string
	IsAtlased   bool
	AtlasID     uint32
	Transforms  []float32
	UVs         []float32
	Colors      []uint32
	/** @brief Per-primitive material ids, nil when every primitive uses material 0. */
	MaterialIDs       []uint32
	MaterialOverrides map[string]float32
	ClipRect          *ClipRect
	Count             int
}

type BatchBreakReason string

const (
	BatchBreakFirst    BatchBreakReason = "first"
	BatchBreakLayer    BatchBreakReason = "layer"
	BatchBreakTexture  BatchBreakReason = "texture"
	BatchBreakMaterial BatchBreakReason = "material"
	BatchBreakClip     BatchBreakReason = "clip"
)

/**
 * @brief Why a batch boundary was created, and what ended up in the batch.
 */
type BatchDebugInfo struct {
	Reason         BatchBreakReason
	PrimitiveCount int
	EntityIDs      []uint64
	TextureKey     string
}
