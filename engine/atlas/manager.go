package atlas

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// AtlasPageManager owns the atlas pages and decides where every texture
// lives. It is not safe for concurrent use: the owning goroutine (the frame
// loop) is the only one allowed to call it.
type AtlasPageManager struct {
	config  DynamicAtlasConfig
	backend renderer.TextureBackend
	events  *core.EventBus

	pages   []*AtlasPage
	entries map[string]*metadata.AtlasEntry
	// stored is only populated under the dynamic strategy.
	stored map[string]*metadata.StoredTexture

	// orphaned lists texture ids the manager stopped referencing without
	// releasing them: old page textures after growth, and the new texture of
	// an aborted repack. Reclaiming them is the backend owner's call.
	orphaned []uint32
}

func NewAtlasPageManager(config DynamicAtlasConfig, backend renderer.TextureBackend) (*AtlasPageManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("atlas page manager: nil texture backend")
	}
	return &AtlasPageManager{
		config:  config,
		backend: backend,
		entries: make(map[string]*metadata.AtlasEntry),
		stored:  make(map[string]*metadata.StoredTexture),
	}, nil
}

// SetEventBus makes the manager announce page identity changes.
func (m *AtlasPageManager) SetEventBus(bus *core.EventBus) {
	m.events = bus
}

func (m *AtlasPageManager) Config() DynamicAtlasConfig {
	return m.config
}

// AddTexture places a width x height RGBA texture in an atlas page and uploads
// its pixels. It returns the existing entry for a known guid, and nil when the
// texture is too large or no page has room; callers then draw it unatlased.
// The returned entry is updated in place when its page is grown or rebuilt.
func (m *AtlasPageManager) AddTexture(guid string, pixels []uint8, width, height int) *metadata.AtlasEntry {
	if e, ok := m.entries[guid]; ok {
		return e
	}
	if width <= 0 || height <= 0 || width > m.config.MaxTextureSize || height > m.config.MaxTextureSize {
		core.LogDebug("texture '%s' (%dx%d) exceeds max atlas texture size %d", guid, width, height, m.config.MaxTextureSize)
		return nil
	}
	if len(pixels) != width*height*4 {
		core.LogError("texture '%s': got %d bytes of pixels for %dx%d RGBA", guid, len(pixels), width, height)
		return nil
	}

	if len(m.pages) == 0 {
		size := m.config.FixedPageSize
		if m.config.ExpansionStrategy == metadata.ExpansionStrategyDynamic {
			size = m.config.InitialPageSize
		}
		if _, err := m.createPage(size); err != nil {
			core.LogError(err.Error())
			return nil
		}
	}

	for _, page := range m.pages {
		if e := m.place(page, guid, pixels, width, height); e != nil {
			return e
		}
	}

	if m.config.ExpansionStrategy == metadata.ExpansionStrategyDynamic && m.growPage(m.pages[0]) {
		if e := m.place(m.pages[0], guid, pixels, width, height); e != nil {
			return e
		}
	}

	if len(m.pages) < m.config.MaxPages {
		page, err := m.createPage(m.newPageSize(width, height))
		if err != nil {
			core.LogError(err.Error())
			return nil
		}
		if e := m.place(page, guid, pixels, width, height); e != nil {
			return e
		}
	}

	core.LogDebug("no atlas capacity left for texture '%s' (%dx%d)", guid, width, height)
	return nil
}

// newPageSize picks the side of a page created for a texture that fit nowhere.
func (m *AtlasPageManager) newPageSize(width, height int) int {
	if m.config.ExpansionStrategy != metadata.ExpansionStrategyDynamic {
		return m.config.FixedPageSize
	}
	size := m.config.InitialPageSize
	for size < m.config.MaxPageSize &&
		(width+m.config.Padding > size || height+m.config.Padding > size) {
		size = min(size*2, m.config.MaxPageSize)
	}
	return size
}

func (m *AtlasPageManager) createPage(size int) (*AtlasPage, error) {
	id, err := m.backend.CreateBlankTexture(size, size)
	if err != nil {
		return nil, fmt.Errorf("create atlas page %d (%dx%d): %w", len(m.pages), size, size, err)
	}
	page := newAtlasPage(len(m.pages), id, size, size, m.config.Padding)
	m.pages = append(m.pages, page)
	core.LogInfo("created atlas page %d (%dx%d) as texture %d", page.Index, size, size, id)
	return page, nil
}

// place packs and uploads one texture into page, recording its entry.
func (m *AtlasPageManager) place(page *AtlasPage, guid string, pixels []uint8, width, height int) *metadata.AtlasEntry {
	region, ok := page.packer.Pack(width, height)
	if !ok {
		return nil
	}
	if err := m.backend.UpdateTextureRegion(page.TextureID, region.X, region.Y, width, height, pixels); err != nil {
		core.LogError("upload of texture '%s' to atlas page %d failed: %s", guid, page.Index, err)
		return nil
	}

	e := &metadata.AtlasEntry{
		AtlasID:        page.TextureID,
		PageIndex:      page.Index,
		Region:         region,
		OriginalWidth:  width,
		OriginalHeight: height,
		UV:             page.uvFor(region),
	}
	m.entries[guid] = e
	page.guids = append(page.guids, guid)

	if m.config.ExpansionStrategy == metadata.ExpansionStrategyDynamic {
		m.stored[guid] = &metadata.StoredTexture{
			GUID:   guid,
			Pixels: append([]uint8(nil), pixels...),
			Width:  width,
			Height: height,
		}
	}
	return e
}

// growPage doubles page (capped at MaxPageSize) and repacks its contents.
func (m *AtlasPageManager) growPage(page *AtlasPage) bool {
	if page.Width >= m.config.MaxPageSize && page.Height >= m.config.MaxPageSize {
		return false
	}
	w := min(page.Width*2, m.config.MaxPageSize)
	h := min(page.Height*2, m.config.MaxPageSize)
	if !m.repackPage(page, w, h) {
		return false
	}
	core.LogInfo("grew atlas page %d to %dx%d (texture %d)", page.Index, w, h, page.TextureID)
	return true
}

// repackPage moves every texture of page into a fresh width x height texture,
// largest area first, from the stored pixel cache. On failure the page is left
// untouched; uploads already issued to the new texture are not released.
func (m *AtlasPageManager) repackPage(page *AtlasPage, width, height int) bool {
	textures := make([]*metadata.StoredTexture, 0, len(page.guids))
	for _, guid := range page.guids {
		st, ok := m.stored[guid]
		if !ok {
			core.LogError("cannot repack atlas page %d: no stored pixels for '%s'", page.Index, guid)
			return false
		}
		textures = append(textures, st)
	}
	sort.SliceStable(textures, func(i, j int) bool {
		return textures[i].Area() > textures[j].Area()
	})

	newID, err := m.backend.CreateBlankTexture(width, height)
	if err != nil {
		core.LogError("repack of atlas page %d: %s", page.Index, err)
		return false
	}
	packer := NewRectanglePacker(width, height, m.config.Padding)
	regions := make(map[string]metadata.PackedRect, len(textures))
	guids := make([]string, 0, len(textures))

	for _, st := range textures {
		region, ok := packer.Pack(st.Width, st.Height)
		if !ok {
			m.abandon(newID, fmt.Sprintf("repack of atlas page %d could not place '%s'", page.Index, st.GUID))
			return false
		}
		if err := m.backend.UpdateTextureRegion(newID, region.X, region.Y, st.Width, st.Height, st.Pixels); err != nil {
			m.abandon(newID, fmt.Sprintf("repack of atlas page %d failed uploading '%s': %s", page.Index, st.GUID, err))
			return false
		}
		regions[st.GUID] = region
		guids = append(guids, st.GUID)
	}

	oldID := page.TextureID
	page.TextureID = newID
	page.Width = width
	page.Height = height
	page.packer = packer
	page.guids = guids
	for guid, region := range regions {
		e := m.entries[guid]
		e.AtlasID = newID
		e.Region = region
		e.UV = page.uvFor(region)
	}
	m.orphaned = append(m.orphaned, oldID)

	m.events.Fire(core.EVENT_CODE_ATLAS_PAGE_CHANGED, m, core.EventContext{AtlasID: newID, Data: oldID})
	return true
}

func (m *AtlasPageManager) abandon(textureID uint32, reason string) {
	m.orphaned = append(m.orphaned, textureID)
	core.LogWarn("%s; texture %d abandoned", reason, textureID)
}

// Rebuild repacks every page at its current size, largest texture first.
// Only available under the dynamic strategy, which retains pixels.
func (m *AtlasPageManager) Rebuild() bool {
	if m.config.ExpansionStrategy != metadata.ExpansionStrategyDynamic {
		core.LogWarn("atlas rebuild requested under the fixed strategy; no pixels are retained")
		return false
	}
	ok := true
	for _, page := range m.pages {
		if !m.repackPage(page, page.Width, page.Height) {
			ok = false
		}
	}
	return ok
}

// RemapUV maps a UV rectangle in the original texture's space into the
// entry's sub-rectangle of atlas space.
func (m *AtlasPageManager) RemapUV(entry *metadata.AtlasEntry, u0, v0, u1, v1 float32) [4]float32 {
	return RemapUV(entry, u0, v0, u1, v1)
}

func RemapUV(entry *metadata.AtlasEntry, u0, v0, u1, v1 float32) [4]float32 {
	uv := entry.UV
	return [4]float32{
		math.Lerp(uv[0], uv[2], u0),
		math.Lerp(uv[1], uv[3], v0),
		math.Lerp(uv[0], uv[2], u1),
		math.Lerp(uv[1], uv[3], v1),
	}
}

func (m *AtlasPageManager) Entry(guid string) (*metadata.AtlasEntry, bool) {
	e, ok := m.entries[guid]
	return e, ok
}

func (m *AtlasPageManager) HasTexture(guid string) bool {
	_, ok := m.entries[guid]
	return ok
}

func (m *AtlasPageManager) Pages() []*AtlasPage {
	return m.pages
}

// Page returns the page currently backed by textureID.
func (m *AtlasPageManager) Page(textureID uint32) (*AtlasPage, bool) {
	for _, p := range m.pages {
		if p.TextureID == textureID {
			return p, true
		}
	}
	return nil, false
}

func (m *AtlasPageManager) PageCount() int {
	return len(m.pages)
}

func (m *AtlasPageManager) TextureCount() int {
	return len(m.entries)
}

// OrphanedTextures returns texture ids the manager no longer references.
func (m *AtlasPageManager) OrphanedTextures() []uint32 {
	return append([]uint32(nil), m.orphaned...)
}

// ReleaseOrphans hands every orphaned id to release and forgets the ones it
// accepted.
func (m *AtlasPageManager) ReleaseOrphans(release func(id uint32) error) int {
	kept := m.orphaned[:0]
	released := 0
	for _, id := range m.orphaned {
		if err := release(id); err != nil {
			core.LogWarn("could not release orphaned texture %d: %s", id, err)
			kept = append(kept, id)
			continue
		}
		released++
	}
	m.orphaned = kept
	return released
}

func (m *AtlasPageManager) Stats() []PageStats {
	out := make([]PageStats, len(m.pages))
	for i, p := range m.pages {
		out[i] = p.Stats()
	}
	return out
}

// Clear forgets every page and entry. Page textures become orphans.
func (m *AtlasPageManager) Clear() {
	for _, p := range m.pages {
		m.orphaned = append(m.orphaned, p.TextureID)
	}
	m.pages = nil
	m.entries = make(map[string]*metadata.AtlasEntry)
	m.stored = make(map[string]*metadata.StoredTexture)
}
