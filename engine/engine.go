package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/views"
	"github.com/spaghettifunk/anima-atlas/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every system
	EngineStageShutdown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *Config
	isRunning     atomic.Bool
	backend       *renderer.MemoryBackend
	systemManager *systems.SystemManager
	view          *views.RenderViewUI
	submitter     views.BatchSubmitter
	clock         *core.Clock
	metrics       *core.FrameMetrics
	lastTime      float64
	frameNumber   uint64
}

// New builds the engine and its systems without a GPU: textures live in a
// MemoryBackend and batches go to a HeadlessSubmitter unless replaced with
// SetSubmitter.
func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("engine needs a game with an application config")
	}
	cfg, err := g.ApplicationConfig.load()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	cfg.ApplyLogging()

	backend := renderer.NewMemoryBackend()
	sm, err := systems.NewSystemManager(cfg.SystemManagerConfig(), backend)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        cfg,
		backend:       backend,
		systemManager: sm,
		view:          views.NewRenderViewUI("ui", sm.Collector),
		submitter:     &views.HeadlessSubmitter{},
		clock:         core.NewClock(),
		metrics:       core.NewFrameMetrics(),
	}, nil
}

// SetSubmitter replaces the batch consumer. Call before Run.
func (e *Engine) SetSubmitter(s views.BatchSubmitter) {
	e.submitter = s
}

func (e *Engine) Submitter() views.BatchSubmitter {
	return e.submitter
}

func (e *Engine) Backend() *renderer.MemoryBackend {
	return e.backend
}

func (e *Engine) Metrics() *core.FrameMetrics {
	return e.metrics
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize(ctx context.Context) error {
	e.currentStage = EngineStageInitializing

	e.systemManager.Events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	if err := e.systemManager.Initialize(ctx); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", e.config.Engine.Name)
	return nil
}

// Run drives frames until ctx is done, the QUIT event fires, or
// engine.max_frames is reached.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if e.config.Engine.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(e.config.Engine.TargetFPS)
	}

	for e.isRunning.Load() {
		if ctx.Err() != nil {
			break
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if err := e.Frame(delta); err != nil {
			core.LogError("frame %d failed, shutting down: %s", e.frameNumber, err)
			e.isRunning.Store(false)
			return err
		}

		frameElapsed := time.Since(frameStart).Seconds()
		if every := e.config.Engine.MetricsEvery; every > 0 && e.frameNumber%every == 0 {
			core.LogInfo("fps %.0f | frame %.2fms | %.0f primitives in %.1f draw calls (%.1f per call) | %d atlas pages",
				e.metrics.FPS(), e.metrics.FrameTime(), e.metrics.Primitives(), e.metrics.DrawCalls(),
				e.metrics.BatchingRatio(), e.systemManager.AtlasManager.PageCount())
		}

		if limit := e.config.Engine.MaxFrames; limit > 0 && e.frameNumber >= limit {
			break
		}

		// If there is time left, give it back to the OS.
		if remaining := targetFrameSeconds - frameElapsed; remaining > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(remaining * float64(time.Second))):
			}
		}

		e.lastTime = currentTime
	}

	e.isRunning.Store(false)
	return nil
}

// Frame runs one iteration of the loop: housekeeping, game update, UI
// collection and batch submission.
func (e *Engine) Frame(delta float64) error {
	sm := e.systemManager
	frameStart := time.Now()
	e.frameNumber++

	sm.Update()
	sm.Collector.Clear()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
	}
	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(sm.Collector, delta); err != nil {
			return fmt.Errorf("game render: %w", err)
		}
	}

	packet := &metadata.RenderPacket{
		DeltaTime:   delta,
		FrameNumber: e.frameNumber,
		ViewPackets: []*metadata.RenderViewPacket{e.view.OnBuildPacketRenderView()},
	}
	for _, vp := range packet.ViewPackets {
		if err := e.view.OnRenderRenderView(vp, e.submitter, packet.FrameNumber); err != nil {
			return fmt.Errorf("render view %s: %w", vp.ViewName, err)
		}
	}

	e.metrics.Update(core.FrameSample{
		ElapsedSeconds: time.Since(frameStart).Seconds(),
		Primitives:     packet.ViewPackets[0].PrimitiveCount,
		Batches:        len(packet.ViewPackets[0].Batches),
	})

	for _, vp := range packet.ViewPackets {
		e.view.OnDestroyPacketRenderView(vp)
	}
	return nil
}

// Quit asks the loop to stop after the current frame.
func (e *Engine) Quit() {
	e.systemManager.Events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogWarn("game shutdown: %s", err)
		}
	}
	e.systemManager.Events.Unregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageShutdown
	return nil
}

func (e *Engine) onEvent(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}
