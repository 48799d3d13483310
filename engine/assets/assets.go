package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-atlas/engine/assets/loaders"
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// guidNamespace seeds the name-based GUIDs of discovered assets, so the same
// relative path always maps to the same GUID across runs.
var guidNamespace = uuid.MustParse("5b0e6f0c-3c59-4b8e-9d8a-2f1e7c3a9b41")

type AssetInfo struct {
	GUID       string
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type ChangeKind int

const (
	AssetCreated ChangeKind = iota
	AssetModified
	AssetRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case AssetCreated:
		return "created"
	case AssetModified:
		return "modified"
	default:
		return "removed"
	}
}

// AssetChange is reported for every watched file that is created, written or
// removed.
type AssetChange struct {
	GUID string
	Path string
	Kind ChangeKind
}

// AssetManager is the texture path registry: it maps asset GUIDs to the file
// path or URL their pixels are loaded from. It is safe for concurrent use; the
// directory watcher updates it from its own goroutine.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo // by GUID
	byPath  map[string]string    // path -> GUID
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan AssetChange
	wg       sync.WaitGroup
}

const changeBufferSize = 256

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		byPath:  make(map[string]string),
		loaders: make(map[metadata.ResourceType]Loader),
		changes: make(chan AssetChange, changeBufferSize),
		done:    make(chan struct{}),
	}
	// Register loaders
	am.RegisterLoader(metadata.ResourceTypeImage, loaders.NewImageLoader(nil))
	am.RegisterLoader(metadata.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})
	return am
}

// Initialize indexes every known asset below assetsDir and, when watch is set,
// keeps the index current as files change.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	abs, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = abs

	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = fsWatch
	}
	if err := am.watchRecursive(abs, false); err != nil {
		return err
	}
	if am.fsnotify != nil {
		am.wg.Add(1)
		go am.start()
	}

	core.LogInfo("asset manager indexed %d assets under '%s' (watch=%t)", am.Count(), abs, watch)
	return nil
}

// GUIDForPath returns the GUID a discovered asset at path is registered under.
// Paths below the asset root are keyed by their slash-separated relative path.
func (am *AssetManager) GUIDForPath(path string) string {
	key := path
	if am.root != "" {
		if rel, err := filepath.Rel(am.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			key = filepath.ToSlash(rel)
		}
	}
	return uuid.NewSHA1(guidNamespace, []byte(key)).String()
}

// Register binds guid to a path or URL explicitly. It replaces any previous
// binding of the same guid.
func (am *AssetManager) Register(guid, path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.register(guid, path)
}

func (am *AssetManager) register(guid, path string) {
	if old, ok := am.assets[guid]; ok && old.Path != path {
		delete(am.byPath, old.Path)
	}
	am.assets[guid] = AssetInfo{
		GUID: guid,
		Path: path,
		Type: determineAssetType(path),
	}
	am.byPath[path] = guid
}

// TexturePath resolves a texture GUID to the path or URL it loads from.
func (am *AssetManager) TexturePath(guid string) (string, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[guid]
	if !ok {
		return "", false
	}
	return a.Path, true
}

func (am *AssetManager) Asset(guid string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[guid]
	return a, ok
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Changes delivers watcher notifications. Notifications are dropped when
// nobody drains the channel.
func (am *AssetManager) Changes() <-chan AssetChange {
	return am.changes
}

// Register loaders for each asset type
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

func (am *AssetManager) Loader(assetType metadata.ResourceType) (Loader, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	l, ok := am.loaders[assetType]
	return l, ok
}

// LoadAsset loads the resource registered under guid with the loader for its
// type.
func (am *AssetManager) LoadAsset(ctx context.Context, guid string, params interface{}) (*metadata.Resource, error) {
	am.mutex.Lock()
	asset, exists := am.assets[guid]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[guid] = asset
	}
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.Unlock()

	if !exists {
		return nil, fmt.Errorf("asset '%s': %w", guid, core.ErrNoTexturePath)
	}
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	res, err := loader.Load(ctx, asset.Path, params)
	if err != nil {
		return nil, err
	}
	res.Name = guid
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	if res == nil {
		return nil
	}
	am.mutex.RLock()
	asset, ok := am.assets[res.Name]
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok || !loaderExists {
		return nil
	}
	return loader.Unload(res)
}

// Shutdown stops the directory watcher.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("could not watch new directory '%s': %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&fsnotify.Create != 0 {
				am.handleFileEvent(e.Name, AssetCreated)
			} else if e.Op&fsnotify.Write != 0 {
				am.handleFileEvent(e.Name, AssetModified)
			}
			// Can't stat a deleted directory, so just pretend that it's always a directory and
			// try to remove from the watch list.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive indexes every asset file under path and adds (or removes)
// each directory to the watch list.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify == nil {
				return nil
			}
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.indexFile(walkPath)
		return nil
	})
}

func (am *AssetManager) indexFile(path string) (string, bool) {
	if determineAssetType(path) == metadata.ResourceTypeNone {
		return "", false
	}
	guid := am.GUIDForPath(path)
	am.mutex.Lock()
	am.register(guid, path)
	am.mutex.Unlock()
	return guid, true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, kind ChangeKind) {
	guid, ok := am.indexFile(path)
	if !ok {
		return
	}
	am.notify(AssetChange{GUID: guid, Path: path, Kind: kind})
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	guid, ok := am.byPath[path]
	if ok {
		delete(am.byPath, path)
		delete(am.assets, guid)
	}
	am.mutex.Unlock()
	if ok {
		am.notify(AssetChange{GUID: guid, Path: path, Kind: AssetRemoved})
	}
}

func (am *AssetManager) notify(c AssetChange) {
	select {
	case am.changes <- c:
	default:
		core.LogDebug("asset change for '%s' dropped, nobody is listening", c.Path)
	}
}

func determineAssetType(path string) metadata.ResourceType {
	if isURL(path) {
		return metadata.ResourceTypeImage
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".tif", ".tiff":
		return metadata.ResourceTypeImage
	case ".fnt":
		return metadata.ResourceTypeBitmapFont
	default:
		return metadata.ResourceTypeNone
	}
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
