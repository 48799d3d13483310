package testbed

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/anima-atlas/engine"
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/components"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
	"github.com/spaghettifunk/anima-atlas/engine/systems"
)

const (
	iconCount   = 48
	panelSize   = 32
	panelMargin = 8
	fontName    = "default"
)

type TestGame struct {
	*engine.Game
}

type widget struct {
	image  *components.UIImage
	layout components.Layout
	spin   float32
}

type gameState struct {
	textureDir string
	widgets    []*widget
	panel      *widget
	elapsed    float64
	frames     uint64
}

func NewTestGame(configPath string) (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:       "Anima Atlas Testbed",
				ConfigPath: configPath,
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	state := g.State.(*gameState)

	dir, err := os.MkdirTemp("", "anima-atlas-testbed")
	if err != nil {
		return err
	}
	state.textureDir = dir
	math.Seed(42)

	for i := 0; i < iconCount; i++ {
		w := int(math.RandomInRange(8, 96))
		h := int(math.RandomInRange(8, 96))
		guid := fmt.Sprintf("testbed-icon-%02d", i)
		if err := g.writeTexture(guid, w, h, randomColor()); err != nil {
			return err
		}

		img := components.NewUIImage(uint64(i + 1))
		img.SetTexture(guid)
		img.SetSortingLayer(int(math.RandomInRange(0, 2)))
		img.SetOrderInLayer(int(math.RandomInRange(0, 10)))
		img.SetAlpha(math.FRandomInRange(0.5, 1))

		state.widgets = append(state.widgets, &widget{
			image: img,
			layout: components.Layout{
				X:      float32(40 + (i%8)*110),
				Y:      float32(80 + (i/8)*110),
				Width:  float32(w),
				Height: float32(h),
				PivotX: 0.5,
				PivotY: 0.5,
			},
			spin: math.FRandomInRange(-1, 1),
		})
	}

	// Background panel drawn as a nine-patch behind every icon.
	if err := g.writeTexture("testbed-panel", panelSize, panelSize, color.NRGBA{R: 40, G: 44, B: 52, A: 255}); err != nil {
		return err
	}
	panel := components.NewUIImage(iconCount + 1)
	panel.SetTexture("testbed-panel")
	panel.SetSortingLayer(-1)
	panel.SetNinePatch([4]float32{panelMargin, panelMargin, panelMargin, panelMargin}, panelSize, panelSize)
	state.panel = &widget{
		image:  panel,
		layout: components.Layout{X: 10, Y: 30, Width: 900, Height: 700},
	}

	core.LogInfo("testbed created %d procedural textures in %s", iconCount+1, dir)
	return nil
}

// writeTexture saves a bordered w x h image and registers it under guid.
func (g *TestGame) writeTexture(guid string, w, h int, fill color.NRGBA) error {
	state := g.State.(*gameState)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	border := color.NRGBA{R: fill.R / 2, G: fill.G / 2, B: fill.B / 2, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				img.SetNRGBA(x, y, border)
			} else {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
	path := filepath.Join(state.textureDir, guid+".png")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	g.SystemManager.AssetManager.Register(guid, path)
	return nil
}

func randomColor() color.NRGBA {
	return color.NRGBA{
		R: uint8(math.RandomInRange(64, 255)),
		G: uint8(math.RandomInRange(64, 255)),
		B: uint8(math.RandomInRange(64, 255)),
		A: 255,
	}
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	state.frames++

	for i, w := range state.widgets {
		w.layout.Rotation += w.spin * float32(deltaTime)
		// Blink every seventh icon once per second.
		if i%7 == 0 {
			w.image.SetVisible(int(state.elapsed)%2 == 0)
		}
	}
	return nil
}

func (g *TestGame) Render(collector *ui.RenderPrimitiveCollector, deltaTime float64) error {
	state := g.State.(*gameState)

	state.panel.image.Submit(collector, state.panel.layout)
	for _, w := range state.widgets {
		w.image.Submit(collector, w.layout)
	}

	if g.SystemManager.FontSystem.Has(fontName) {
		text := fmt.Sprintf("frame %d\natlas pages: %d\ttextures: %d",
			state.frames, g.SystemManager.AtlasManager.PageCount(), g.SystemManager.AtlasManager.TextureCount())
		if _, err := g.SystemManager.FontSystem.EmitText(collector, systems.TextParams{
			Font:         fontName,
			Text:         text,
			X:            20,
			Y:            4,
			Color:        math.NewVec4(1, 1, 1, 1),
			SortingLayer: 5,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	if state.textureDir == "" {
		return nil
	}
	return os.RemoveAll(state.textureDir)
}
