package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/views"
)

func headlessConfig(maxFrames uint64) *Config {
	cfg := DefaultConfig()
	cfg.Assets.Dir = ""
	cfg.Assets.Watch = false
	cfg.Engine.TargetFPS = 0
	cfg.Engine.MetricsEvery = 0
	cfg.Engine.MaxFrames = maxFrames
	return cfg
}

func newTestEngine(t *testing.T, g *Game) *Engine {
	t.Helper()
	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Shutdown() })
	return e
}

func TestEngineRunsFramesHeadless(t *testing.T) {
	var updates, renders int
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Name: "test", Config: headlessConfig(3)},
		FnUpdate: func(float64) error {
			updates++
			return nil
		},
		FnRender: func(c *ui.RenderPrimitiveCollector, _ float64) error {
			renders++
			if c.PrimitiveCount() != 0 {
				t.Errorf("collector not cleared before render: %d primitives", c.PrimitiveCount())
			}
			c.AddRect(ui.RectParams{Width: 4, Height: 4, TextureID: 1, Color: math.NewVec4(1, 1, 1, 1)})
			c.AddRect(ui.RectParams{Width: 4, Height: 4, TextureID: 1, Color: math.NewVec4(1, 1, 1, 1)})
			return nil
		},
	}
	e := newTestEngine(t, g)
	if g.SystemManager == nil {
		t.Fatal("New should hand the system manager to the game")
	}

	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if updates != 3 || renders != 3 {
		t.Fatalf("updates=%d renders=%d, want 3 each", updates, renders)
	}
	sub := e.Submitter().(*views.HeadlessSubmitter)
	if sub.Frames() != 3 || sub.DrawCalls() != 1 || sub.Primitives() != 2 {
		t.Fatalf("submitter frames=%d drawCalls=%d primitives=%d", sub.Frames(), sub.DrawCalls(), sub.Primitives())
	}
	if got := e.Metrics().BatchingRatio(); got != 2 {
		t.Fatalf("batching ratio = %v, want 2", got)
	}
}

func TestEngineQuitEventStopsLoop(t *testing.T) {
	var frames int
	var e *Engine
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Config: headlessConfig(100)},
		FnUpdate: func(float64) error {
			frames++
			if frames == 2 {
				e.Quit()
			}
			return nil
		},
	}
	e = newTestEngine(t, g)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if frames != 2 {
		t.Fatalf("ran %d frames, want 2", frames)
	}
}

func TestEngineStopsOnGameError(t *testing.T) {
	boom := errors.New("boom")
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Config: headlessConfig(10)},
		FnRender: func(*ui.RenderPrimitiveCollector, float64) error {
			return boom
		},
	}
	e := newTestEngine(t, g)
	if err := e.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want %v", err, boom)
	}
}

func TestEngineShutdownIsIdempotent(t *testing.T) {
	shutdowns := 0
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Config: headlessConfig(1)},
		FnShutdown: func() error {
			shutdowns++
			return nil
		},
	}
	e := newTestEngine(t, g)
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if shutdowns != 1 || e.Stage() != EngineStageShutdown {
		t.Fatalf("shutdowns=%d stage=%d", shutdowns, e.Stage())
	}
	if err := e.Run(context.Background()); err == nil {
		t.Fatal("Run after Shutdown should fail")
	}
}
