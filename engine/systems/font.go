package systems

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spaghettifunk/anima-atlas/engine/assets"
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
)

const tabSpaces = 4

type BitmapFontInternalData struct {
	LoadedResource *metadata.Resource
	// Casted pointer to resource data for convenience.
	ResourceData *metadata.BitmapFontResourceData
}

type FontSystemConfig struct {
	BitmapFontConfigs []*metadata.BitmapFontConfig
}

// TextParams places one run of text. X and Y are the top-left of the first
// line.
type TextParams struct {
	Font         string
	Text         string
	X            float32
	Y            float32
	Color        math.Vec4
	SortingLayer int
	OrderInLayer int
	EntityID     uint64
}

// BitmapFontSystem draws text as collector quads sampling the font's page
// images. Pages are registered as textures so they are atlased like any
// other UI image.
type BitmapFontSystem struct {
	Config       *FontSystemConfig
	assetManager *assets.AssetManager
	fonts        map[string]*BitmapFontInternalData
}

func NewBitmapFontSystem(config *FontSystemConfig, am *assets.AssetManager) (*BitmapFontSystem, error) {
	if am == nil {
		return nil, fmt.Errorf("bitmap font system needs an asset manager")
	}
	if config == nil {
		config = &FontSystemConfig{}
	}
	return &BitmapFontSystem{
		Config:       config,
		assetManager: am,
		fonts:        make(map[string]*BitmapFontInternalData),
	}, nil
}

// Initialize loads every configured font. A font that fails to load is
// logged and skipped.
func (fs *BitmapFontSystem) Initialize(ctx context.Context) error {
	for _, cfg := range fs.Config.BitmapFontConfigs {
		if err := fs.LoadBitmapFont(ctx, cfg); err != nil {
			core.LogError("failed to load bitmap font '%s': %s", cfg.Name, err)
		}
	}
	return nil
}

func (fs *BitmapFontSystem) LoadBitmapFont(ctx context.Context, config *metadata.BitmapFontConfig) error {
	if _, ok := fs.fonts[config.Name]; ok {
		core.LogWarn("bitmap font '%s' already loaded", config.Name)
		return nil
	}
	loader, ok := fs.assetManager.Loader(metadata.ResourceTypeBitmapFont)
	if !ok {
		return fmt.Errorf("no bitmap font loader registered")
	}
	res, err := loader.Load(ctx, config.ResourceName, nil)
	if err != nil {
		return err
	}
	data := res.Data.(*metadata.BitmapFontResourceData)
	for _, page := range data.Pages {
		page.GUID = fs.assetManager.GUIDForPath(page.Path)
		fs.assetManager.Register(page.GUID, page.Path)
	}
	fs.AddBitmapFont(config.Name, res)
	return nil
}

// AddBitmapFont registers an already loaded font resource under name.
func (fs *BitmapFontSystem) AddBitmapFont(name string, res *metadata.Resource) {
	fs.fonts[name] = &BitmapFontInternalData{
		LoadedResource: res,
		ResourceData:   res.Data.(*metadata.BitmapFontResourceData),
	}
	core.LogInfo("bitmap font '%s' ready (%d glyphs, %d pages)", name, len(fs.fonts[name].ResourceData.Data.Glyphs), len(fs.fonts[name].ResourceData.Pages))
}

func (fs *BitmapFontSystem) Has(name string) bool {
	_, ok := fs.fonts[name]
	return ok
}

// EmitText adds one quad per visible glyph to c and returns the width of the
// widest line.
func (fs *BitmapFontSystem) EmitText(c *ui.RenderPrimitiveCollector, p TextParams) (float32, error) {
	font, ok := fs.fonts[p.Font]
	if !ok {
		return 0, fmt.Errorf("bitmap font '%s' is not loaded", p.Font)
	}
	return fs.layout(font.ResourceData, p, func(g *metadata.FontGlyph, x, y float32) {
		if g.Width == 0 || g.Height == 0 {
			return
		}
		page := pageFor(font.ResourceData, g.PageID)
		if page == nil {
			return
		}
		data := font.ResourceData.Data
		aw, ah := float32(data.AtlasSizeX), float32(data.AtlasSizeY)
		c.AddRect(ui.RectParams{
			X:            x,
			Y:            y,
			Width:        float32(g.Width),
			Height:       float32(g.Height),
			Color:        p.Color,
			SortingLayer: p.SortingLayer,
			OrderInLayer: p.OrderInLayer,
			TextureGUID:  page.GUID,
			TexturePath:  page.Path,
			UV: [4]float32{
				float32(g.X) / aw,
				float32(g.Y) / ah,
				float32(int(g.X)+int(g.Width)) / aw,
				float32(int(g.Y)+int(g.Height)) / ah,
			},
			EntityID: p.EntityID,
		})
	}), nil
}

// Measure returns the width of the widest line of text.
func (fs *BitmapFontSystem) Measure(name, text string) (float32, error) {
	font, ok := fs.fonts[name]
	if !ok {
		return 0, fmt.Errorf("bitmap font '%s' is not loaded", name)
	}
	return fs.layout(font.ResourceData, TextParams{Text: text}, func(*metadata.FontGlyph, float32, float32) {}), nil
}

// layout walks text, calling emit with the top-left of every glyph.
func (fs *BitmapFontSystem) layout(rd *metadata.BitmapFontResourceData, p TextParams, emit func(g *metadata.FontGlyph, x, y float32)) float32 {
	data := rd.Data
	x, y := p.X, p.Y
	widest := float32(0)
	var prev int32 = -1

	for i := 0; i < len(p.Text); {
		r, size := utf8.DecodeRuneInString(p.Text[i:])
		i += size
		codepoint := int32(r)

		switch r {
		case '\n':
			widest = max(widest, x-p.X)
			x = p.X
			y += float32(data.LineHeight)
			prev = -1
			continue
		case '\t':
			if space, ok := data.Glyphs[' ']; ok {
				x += float32(space.XAdvance) * tabSpaces
			}
			prev = -1
			continue
		}

		g, ok := data.Glyphs[codepoint]
		if !ok {
			// Fall back to '?' for missing glyphs.
			if g, ok = data.Glyphs['?']; !ok {
				continue
			}
			codepoint = '?'
		}
		if prev >= 0 {
			x += float32(data.Kernings[[2]int32{prev, codepoint}])
		}
		emit(g, x+float32(g.XOffset), y+float32(g.YOffset))
		x += float32(g.XAdvance)
		prev = codepoint
	}
	return max(widest, x-p.X)
}

func pageFor(rd *metadata.BitmapFontResourceData, id uint8) *metadata.BitmapFontPage {
	for _, p := range rd.Pages {
		if uint8(p.ID) == id {
			return p
		}
	}
	return nil
}

func (fs *BitmapFontSystem) Shutdown() error {
	loader, ok := fs.assetManager.Loader(metadata.ResourceTypeBitmapFont)
	for name, f := range fs.fonts {
		if ok {
			if err := loader.Unload(f.LoadedResource); err != nil {
				core.LogWarn("unloading bitmap font '%s': %s", name, err)
			}
		}
		delete(fs.fonts, name)
	}
	return nil
}
