package systems

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

type JobSystem struct {
	numWorkers int

	// One queue per priority. Workers always drain high before normal before low.
	high   chan metadata.JobTask
	normal chan metadata.JobTask
	low    chan metadata.JobTask

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrMissingJobStart = fmt.Errorf("job submitted without an OnStart function")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobSystem{
		numWorkers: numWorkers,
		high:       make(chan metadata.JobTask, channelSize),
		normal:     make(chan metadata.JobTask, channelSize),
		low:        make(chan metadata.JobTask, channelSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	js.start()

	core.LogInfo("job system started with %d workers", numWorkers)
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				job, ok := js.next()
				if !ok {
					return
				}
				js.run(job)
			}
		}()
	}
}

// next blocks until a job is available or the system shuts down.
func (js *JobSystem) next() (metadata.JobTask, bool) {
	select {
	case job := <-js.high:
		return job, true
	default:
	}
	select {
	case job := <-js.high:
		return job, true
	case job := <-js.normal:
		return job, true
	default:
	}
	select {
	case job := <-js.high:
		return job, true
	case job := <-js.normal:
		return job, true
	case job := <-js.low:
		return job, true
	case <-js.ctx.Done():
		return metadata.JobTask{}, false
	}
}

func (js *JobSystem) run(job metadata.JobTask) {
	result, err := js.execute(job)
	if err != nil {
		core.LogDebug("job failed: %s", err)
		if job.OnFailure != nil {
			job.OnFailure(job.InputParams, err)
		}
	} else if job.OnComplete != nil {
		job.OnComplete(result)
	}

	// Call the completion callback if set
	if job.OnCompletionCallback != nil {
		job.OnCompletionCallback()
	}
}

// execute runs OnStart and reports a panic inside it as an error.
func (js *JobSystem) execute(job metadata.JobTask) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.OnStart(js.ctx, job.InputParams)
}

/**
 * @brief Shuts the job system down. Queued jobs that have not started are
 * dropped; running jobs see their context cancelled.
 */
func (js *JobSystem) Shutdown() error {
	// Cancel first: a Submit blocked on a full queue holds the read lock.
	js.cancel()

	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	js.mu.Unlock()

	js.wg.Wait()

	dropped := len(js.high) + len(js.normal) + len(js.low)
	if dropped > 0 {
		core.LogWarn("job system shut down with %d queued jobs", dropped)
	}
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue for the job's priority is full.
 * @param info The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	if jt.OnStart == nil {
		return ErrMissingJobStart
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return core.ErrShutdown
	}

	var queue chan metadata.JobTask
	switch jt.Priority {
	case metadata.JOB_PRIORITY_HIGH:
		queue = js.high
	case metadata.JOB_PRIORITY_LOW:
		queue = js.low
	default:
		queue = js.normal
	}

	select {
	case queue <- jt:
		return nil
	case <-js.ctx.Done():
		return core.ErrShutdown
	}
}

func (js *JobSystem) Workers() int {
	return js.numWorkers
}
