package ui

import (
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// AtlasLookup resolves a texture GUID to its atlas entry.
type AtlasLookup interface {
	Entry(guid string) (*metadata.AtlasEntry, bool)
}

// TexturePathRegistry resolves a texture GUID to the path or URL it loads from.
type TexturePathRegistry interface {
	TexturePath(guid string) (string, bool)
}

// AtlasRequester starts loading a texture into the atlas without waiting.
type AtlasRequester interface {
	RequestTexture(guid, path string)
}

// RectParams describes one quad. X and Y locate the pivot point; PivotX and
// PivotY are in [0,1] of the quad's size and Rotation is in radians around
// the pivot.
type RectParams struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	Rotation float32
	PivotX   float32
	PivotY   float32
	// Color is RGBA in [0,1].
	Color        math.Vec4
	SortingLayer int
	OrderInLayer int

	TextureID   uint32
	TextureGUID string
	// TexturePath overrides the registry lookup for TextureGUID.
	TexturePath string
	// UV is u0, v0, u1, v1 in the source texture. The zero value means the
	// whole texture.
	UV [4]float32

	MaterialID        uint32
	MaterialOverrides map[string]float32
	ClipRect          *metadata.ClipRect
	EntityID          uint64
}

var fullUV = [4]float32{0, 0, 1, 1}

// RenderPrimitiveCollector accumulates the quads of one frame and compiles
// them into ordered draw batches. It is not safe for concurrent use.
type RenderPrimitiveCollector struct {
	atlas     AtlasLookup
	paths     TexturePathRegistry
	requester AtlasRequester

	primitives []metadata.RenderPrimitive
	nextIndex  uint64

	// requested holds GUIDs already handed to the requester.
	requested map[string]struct{}

	dirty   bool
	batches []metadata.ProviderRenderData
	debug   []metadata.BatchDebugInfo
}

// NewRenderPrimitiveCollector creates a collector. Any of the collaborators
// may be nil: without an atlas every texture is drawn unatlased, without a
// registry or requester nothing is loaded.
func NewRenderPrimitiveCollector(atlas AtlasLookup, paths TexturePathRegistry, requester AtlasRequester) *RenderPrimitiveCollector {
	return &RenderPrimitiveCollector{
		atlas:     atlas,
		paths:     paths,
		requester: requester,
		requested: make(map[string]struct{}),
		dirty:     true,
	}
}

// Listen invalidates compiled batches whenever atlas contents change.
func (c *RenderPrimitiveCollector) Listen(bus *core.EventBus) {
	bus.Register(core.EVENT_CODE_ATLAS_PAGE_CHANGED, c, c.onAtlasChanged)
	bus.Register(core.EVENT_CODE_TEXTURE_READY, c, c.onAtlasChanged)
}

func (c *RenderPrimitiveCollector) Unlisten(bus *core.EventBus) {
	bus.Unregister(core.EVENT_CODE_ATLAS_PAGE_CHANGED, c)
	bus.Unregister(core.EVENT_CODE_TEXTURE_READY, c)
}

func (c *RenderPrimitiveCollector) onAtlasChanged(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	c.Invalidate()
	return false
}

// Invalidate forces the next RenderData call to recompile.
func (c *RenderPrimitiveCollector) Invalidate() {
	c.dirty = true
}

// AddRect records one quad for this frame.
func (c *RenderPrimitiveCollector) AddRect(p RectParams) {
	uv := p.UV
	if uv == ([4]float32{}) {
		uv = fullUV
	}
	c.primitives = append(c.primitives, metadata.RenderPrimitive{
		X:                 p.X,
		Y:                 p.Y,
		Width:             p.Width,
		Height:            p.Height,
		Rotation:          p.Rotation,
		PivotX:            p.PivotX,
		PivotY:            p.PivotY,
		Color:             math.PackARGB(p.Color.X, p.Color.Y, p.Color.Z, p.Color.W),
		SortingLayer:      p.SortingLayer,
		OrderInLayer:      p.OrderInLayer,
		AddIndex:          c.nextIndex,
		TextureID:         p.TextureID,
		TextureGUID:       p.TextureGUID,
		TexturePath:       p.TexturePath,
		UV:                uv,
		MaterialID:        p.MaterialID,
		MaterialOverrides: p.MaterialOverrides,
		ClipRect:          p.ClipRect,
		EntityID:          p.EntityID,
	})
	c.nextIndex++
	c.dirty = true

	if p.TextureGUID != "" {
		c.request(p.TextureGUID, p.TexturePath)
	}
}

// request asks for guid to be atlased, once per collector.
func (c *RenderPrimitiveCollector) request(guid, path string) {
	if c.requester == nil {
		return
	}
	if _, ok := c.requested[guid]; ok {
		return
	}
	if c.atlas != nil {
		if _, ok := c.atlas.Entry(guid); ok {
			return
		}
	}
	if path == "" && c.paths != nil {
		path, _ = c.paths.TexturePath(guid)
	}
	if path == "" {
		return
	}
	c.requested[guid] = struct{}{}
	c.requester.RequestTexture(guid, path)
}

// ForgetRequest lets guid be requested again, for instance after its file
// changed.
func (c *RenderPrimitiveCollector) ForgetRequest(guid string) {
	delete(c.requested, guid)
}

// RenderData returns this frame's batches in submission order. The result is
// cached until the next Add*, Clear or atlas change.
func (c *RenderPrimitiveCollector) RenderData() []metadata.ProviderRenderData {
	if c.dirty {
		c.batches, c.debug = c.compile()
		c.dirty = false
	}
	return c.batches
}

// DebugInfo explains every batch boundary of the last compile, parallel to
// RenderData.
func (c *RenderPrimitiveCollector) DebugInfo() []metadata.BatchDebugInfo {
	c.RenderData()
	return c.debug
}

// Clear drops every primitive. Call it once per frame before producers run.
func (c *RenderPrimitiveCollector) Clear() {
	c.primitives = c.primitives[:0]
	c.batches = nil
	c.debug = nil
	c.dirty = true
}

func (c *RenderPrimitiveCollector) PrimitiveCount() int {
	return len(c.primitives)
}

func (c *RenderPrimitiveCollector) BatchCount() int {
	return len(c.RenderData())
}
