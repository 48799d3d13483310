package systems

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/spaghettifunk/anima-atlas/engine/assets"
	"github.com/spaghettifunk/anima-atlas/engine/atlas"
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
)

type SystemManagerConfig struct {
	Atlas      atlas.DynamicAtlasConfig
	Workers    int
	QueueSize  int
	AssetsDir  string
	WatchAsset bool
	Fonts      []*metadata.BitmapFontConfig
}

// SystemManager owns every engine system and wires them together. It is
// passed explicitly to whoever needs a system; there is no global instance.
type SystemManager struct {
	Events           *core.EventBus
	JobSystem        *JobSystem
	AssetManager     *assets.AssetManager
	AtlasManager     *atlas.AtlasPageManager
	AtlasLoadService *AtlasLoadService
	Collector        *ui.RenderPrimitiveCollector
	FontSystem       *BitmapFontSystem

	config  SystemManagerConfig
	backend renderer.TextureBackend
}

func NewSystemManager(config SystemManagerConfig, backend renderer.TextureBackend) (*SystemManager, error) {
	bus := core.NewEventBus()

	am, err := atlas.NewAtlasPageManager(config.Atlas, backend)
	if err != nil {
		return nil, err
	}
	am.SetEventBus(bus)

	js, err := NewJobSystem(config.Workers, config.QueueSize)
	if err != nil {
		return nil, err
	}

	assetManager := assets.NewAssetManager()
	imageLoader, _ := assetManager.Loader(metadata.ResourceTypeImage)

	ls, err := NewAtlasLoadService(am, js, imageLoader, bus)
	if err != nil {
		js.Shutdown()
		return nil, err
	}

	collector := ui.NewRenderPrimitiveCollector(am, assetManager, ls)
	collector.Listen(bus)

	fontSystem, err := NewBitmapFontSystem(&FontSystemConfig{BitmapFontConfigs: config.Fonts}, assetManager)
	if err != nil {
		js.Shutdown()
		return nil, err
	}

	return &SystemManager{
		Events:           bus,
		JobSystem:        js,
		AssetManager:     assetManager,
		AtlasManager:     am,
		AtlasLoadService: ls,
		Collector:        collector,
		FontSystem:       fontSystem,
		config:           config,
		backend:          backend,
	}, nil
}

// Initialize indexes the asset directory and loads the configured fonts.
func (sm *SystemManager) Initialize(ctx context.Context) error {
	if dir := sm.config.AssetsDir; dir != "" {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			core.LogWarn("asset directory '%s' does not exist, only explicitly registered textures will load", dir)
		} else if err := sm.AssetManager.Initialize(dir, sm.config.WatchAsset); err != nil {
			return err
		}
	}
	return sm.FontSystem.Initialize(ctx)
}

// Update runs the per-frame housekeeping on the owning goroutine: finished
// loads are applied to the atlas, asset changes are announced and textures
// abandoned by page growth are handed back to the backend.
func (sm *SystemManager) Update() {
	sm.AtlasLoadService.Update()

	for drained := false; !drained; {
		select {
		case c := <-sm.AssetManager.Changes():
			sm.onAssetChanged(c)
		default:
			drained = true
		}
	}

	if releaser, ok := sm.backend.(renderer.TextureReleaser); ok && len(sm.AtlasManager.OrphanedTextures()) > 0 {
		n := sm.AtlasManager.ReleaseOrphans(releaser.ReleaseTexture)
		core.LogDebug("released %d orphaned atlas textures", n)
	}
}

func (sm *SystemManager) onAssetChanged(c assets.AssetChange) {
	core.LogInfo("asset %s: %s", c.Kind, c.Path)
	// A changed file deserves a fresh attempt, even after a sticky failure.
	sm.AtlasLoadService.Reset(c.GUID)
	sm.Collector.ForgetRequest(c.GUID)
	sm.Events.Fire(core.EVENT_CODE_ASSET_CHANGED, sm, core.EventContext{GUID: c.GUID, Data: c.Path})
}

func (sm *SystemManager) Shutdown() error {
	sm.Collector.Unlisten(sm.Events)
	if err := sm.FontSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.AtlasLoadService.Shutdown(); err != nil {
		return err
	}
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.AssetManager.Shutdown(); err != nil {
		return err
	}
	sm.Events.Shutdown()
	return nil
}
