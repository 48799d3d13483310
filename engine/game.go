package engine

import (
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
	"github.com/spaghettifunk/anima-atlas/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	// Set by the engine before FnInitialize runs.
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render adds the frame's UI primitives to collector, which is empty on entry.
type Render func(collector *ui.RenderPrimitiveCollector, deltaTime float64) error
type Shutdown func() error
