package systems

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-atlas/engine/assets"
	"github.com/spaghettifunk/anima-atlas/engine/atlas"
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// LoadFuture is the eventual outcome of one texture load. Every caller asking
// for the same in-flight GUID gets the same future.
type LoadFuture struct {
	GUID string

	done  chan struct{}
	once  sync.Once
	entry *metadata.AtlasEntry
	err   error
}

func newLoadFuture(guid string) *LoadFuture {
	return &LoadFuture{GUID: guid, done: make(chan struct{})}
}

func resolvedFuture(guid string, entry *metadata.AtlasEntry, err error) *LoadFuture {
	f := newLoadFuture(guid)
	f.resolve(entry, err)
	return f
}

func (f *LoadFuture) resolve(entry *metadata.AtlasEntry, err error) {
	f.once.Do(func() {
		f.entry = entry
		f.err = err
		close(f.done)
	})
}

// Done is closed once the load settles.
func (f *LoadFuture) Done() <-chan struct{} {
	return f.done
}

// Result returns the atlas entry, or nil and the reason the texture will be
// drawn unatlased. It must only be called after Done is closed.
func (f *LoadFuture) Result() (*metadata.AtlasEntry, error) {
	return f.entry, f.err
}

// Err returns nil while the load is pending or succeeded. A failure wraps one
// of core.ErrTextureLoadFailed, core.ErrTextureTooLarge, core.ErrAtlasFull or
// core.ErrShutdown.
func (f *LoadFuture) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

type loadCompletion struct {
	guid string
	res  *metadata.Resource
	err  error
}

// AtlasLoadService decodes textures on the job system and places them in the
// atlas. Decoding runs on workers; every AtlasPageManager call happens on the
// goroutine that owns the service, inside Update, Await or AddTexturesBatch.
type AtlasLoadService struct {
	atlas  *atlas.AtlasPageManager
	jobs   *JobSystem
	loader assets.Loader
	events *core.EventBus

	maxDimension int
	inFlight     map[string]*LoadFuture
	closed       bool

	mu        sync.Mutex
	states    map[string]metadata.LoadState
	failures  map[string]error
	completed []loadCompletion
	notify    chan struct{}
}

func NewAtlasLoadService(manager *atlas.AtlasPageManager, jobs *JobSystem, loader assets.Loader, events *core.EventBus) (*AtlasLoadService, error) {
	if manager == nil || jobs == nil || loader == nil {
		return nil, fmt.Errorf("atlas load service needs an atlas manager, a job system and an image loader")
	}
	return &AtlasLoadService{
		atlas:        manager,
		jobs:         jobs,
		loader:       loader,
		events:       events,
		maxDimension: manager.Config().MaxTextureSize,
		inFlight:     make(map[string]*LoadFuture),
		states:       make(map[string]metadata.LoadState),
		failures:     make(map[string]error),
		notify:       make(chan struct{}, 1),
	}, nil
}

// AddTextureFromURL starts loading guid from url, a file path or http(s) URL.
// Known textures resolve immediately; textures that failed before stay failed
// until Reset.
func (s *AtlasLoadService) AddTextureFromURL(guid, url string) *LoadFuture {
	if e, ok := s.atlas.Entry(guid); ok {
		return resolvedFuture(guid, e, nil)
	}
	if f, ok := s.inFlight[guid]; ok {
		return f
	}
	if state := s.State(guid); state == metadata.LoadStateFailed || state == metadata.LoadStateTooLarge {
		return resolvedFuture(guid, nil, s.failure(guid))
	}
	if s.closed {
		return resolvedFuture(guid, nil, core.ErrShutdown)
	}

	f := newLoadFuture(guid)
	s.inFlight[guid] = f
	s.setState(guid, metadata.LoadStatePending)

	err := s.jobs.Submit(metadata.JobTask{
		JobType:     metadata.JOB_TYPE_RESOURCE_LOAD,
		Priority:    metadata.JOB_PRIORITY_NORMAL,
		InputParams: url,
		OnStart: func(ctx context.Context, params interface{}) (interface{}, error) {
			s.setState(guid, metadata.LoadStateLoading)
			return s.loader.Load(ctx, params.(string), &metadata.ImageResourceParams{MaxDimension: s.maxDimension})
		},
		OnComplete: func(result interface{}) {
			s.complete(loadCompletion{guid: guid, res: result.(*metadata.Resource)})
		},
		OnFailure: func(params interface{}, err error) {
			s.complete(loadCompletion{guid: guid, err: err})
		},
	})
	if err != nil {
		s.settle(loadCompletion{guid: guid, err: err})
	}
	return f
}

// RequestTexture starts a load and forgets about it.
func (s *AtlasLoadService) RequestTexture(guid, path string) {
	s.AddTextureFromURL(guid, path)
}

// AddTexturesBatch loads every guid -> url pair concurrently and returns once
// all of them settled. Failed textures map to nil.
func (s *AtlasLoadService) AddTexturesBatch(ctx context.Context, urls map[string]string) (map[string]*metadata.AtlasEntry, error) {
	futures := make(map[string]*LoadFuture, len(urls))
	for guid, url := range urls {
		futures[guid] = s.AddTextureFromURL(guid, url)
	}
	out := make(map[string]*metadata.AtlasEntry, len(urls))
	for guid, f := range futures {
		e, err := s.Await(ctx, f)
		if err != nil && ctx.Err() != nil {
			return out, ctx.Err()
		}
		out[guid] = e
	}
	return out, nil
}

// Await pumps completions until f settles or ctx is done.
func (s *AtlasLoadService) Await(ctx context.Context, f *LoadFuture) (*metadata.AtlasEntry, error) {
	for {
		select {
		case <-f.Done():
			return f.Result()
		default:
		}
		select {
		case <-f.Done():
			return f.Result()
		case <-s.notify:
			s.Update()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Update applies finished decodes to the atlas. Call it once per frame from
// the owning goroutine. It returns how many loads settled.
func (s *AtlasLoadService) Update() int {
	s.mu.Lock()
	completed := s.completed
	s.completed = nil
	s.mu.Unlock()

	for _, c := range completed {
		s.settle(c)
	}
	return len(completed)
}

func (s *AtlasLoadService) complete(c loadCompletion) {
	s.mu.Lock()
	s.completed = append(s.completed, c)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *AtlasLoadService) settle(c loadCompletion) {
	f, ok := s.inFlight[c.guid]
	if !ok {
		return
	}
	delete(s.inFlight, c.guid)

	if c.err != nil {
		s.fail(f, c.err)
		return
	}

	data, ok := c.res.Data.(*metadata.ImageResourceData)
	if !ok {
		s.fail(f, fmt.Errorf("texture '%s': unexpected resource data %T: %w", c.guid, c.res.Data, core.ErrTextureLoadFailed))
		return
	}
	w, h := int(data.Width), int(data.Height)
	if w > s.maxDimension || h > s.maxDimension {
		s.fail(f, fmt.Errorf("texture '%s' is %dx%d: %w", c.guid, w, h, core.ErrTextureTooLarge))
		return
	}
	entry := s.atlas.AddTexture(c.guid, data.Pixels, w, h)
	if entry == nil {
		s.fail(f, fmt.Errorf("texture '%s' could not be placed: %w", c.guid, core.ErrAtlasFull))
		return
	}

	s.setState(c.guid, metadata.LoadStateReady)
	core.LogDebug("texture '%s' atlased on page %d", c.guid, entry.PageIndex)
	s.events.Fire(core.EVENT_CODE_TEXTURE_READY, s, core.EventContext{GUID: c.guid, AtlasID: entry.AtlasID})
	f.resolve(entry, nil)
}

func (s *AtlasLoadService) fail(f *LoadFuture, err error) {
	state := metadata.LoadStateFailed
	if errors.Is(err, core.ErrTextureTooLarge) {
		state = metadata.LoadStateTooLarge
	} else if !errors.Is(err, core.ErrAtlasFull) && !errors.Is(err, core.ErrShutdown) {
		err = fmt.Errorf("%w: %w", core.ErrTextureLoadFailed, err)
	}

	s.mu.Lock()
	s.states[f.GUID] = state
	s.failures[f.GUID] = err
	s.mu.Unlock()

	core.LogWarn("texture '%s' will be drawn unatlased: %s", f.GUID, err)
	s.events.Fire(core.EVENT_CODE_TEXTURE_FAILED, s, core.EventContext{GUID: f.GUID, Data: err})
	f.resolve(nil, err)
}

func (s *AtlasLoadService) setState(guid string, state metadata.LoadState) {
	s.mu.Lock()
	s.states[guid] = state
	s.mu.Unlock()
}

func (s *AtlasLoadService) failure(guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[guid]
}

// State reports where guid is in its load lifecycle. It is safe to call from
// any goroutine.
func (s *AtlasLoadService) State(guid string) metadata.LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[guid]
}

// Entry returns the atlas entry of a ready texture.
func (s *AtlasLoadService) Entry(guid string) (*metadata.AtlasEntry, bool) {
	return s.atlas.Entry(guid)
}

// Reset forgets a terminal failure so the next request retries the load.
func (s *AtlasLoadService) Reset(guid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.states[guid].IsTerminal() || s.states[guid] == metadata.LoadStateReady {
		return false
	}
	delete(s.states, guid)
	delete(s.failures, guid)
	return true
}

// Pending returns how many loads have not settled yet.
func (s *AtlasLoadService) Pending() int {
	return len(s.inFlight)
}

// Shutdown settles every in-flight load with core.ErrShutdown. Results that
// arrive afterwards are discarded.
func (s *AtlasLoadService) Shutdown() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for guid, f := range s.inFlight {
		delete(s.inFlight, guid)
		f.resolve(nil, core.ErrShutdown)
	}
	s.mu.Lock()
	s.completed = nil
	s.mu.Unlock()
	return nil
}
