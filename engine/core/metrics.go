package core

import "github.com/spaghettifunk/anima-atlas/engine/containers"

const AVG_COUNT int = 30

// FrameSample is what one rendered UI frame reports.
type FrameSample struct {
	ElapsedSeconds float64
	Primitives     int
	Batches        int
}

// FrameMetrics keeps rolling averages over the last AVG_COUNT frames.
type FrameMetrics struct {
	frameMS            *containers.RingQueue[float64]
	batches            *containers.RingQueue[int]
	primitives         *containers.RingQueue[int]
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		frameMS:    containers.NewRingQueue[float64](AVG_COUNT),
		batches:    containers.NewRingQueue[int](AVG_COUNT),
		primitives: containers.NewRingQueue[int](AVG_COUNT),
	}
}

func (m *FrameMetrics) Update(sample FrameSample) {
	frameMS := sample.ElapsedSeconds * 1000.0
	m.frameMS.Push(frameMS)
	m.batches.Push(sample.Batches)
	m.primitives.Push(sample.Primitives)

	// Calculate Frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	// Count all Frames.
	m.frames++
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

func (m *FrameMetrics) FrameTime() float64 {
	return average(m.frameMS)
}

// DrawCalls is the average number of batches submitted per frame.
func (m *FrameMetrics) DrawCalls() float64 {
	return average(m.batches)
}

func (m *FrameMetrics) Primitives() float64 {
	return average(m.primitives)
}

// BatchingRatio is primitives per draw call; higher means better batching.
func (m *FrameMetrics) BatchingRatio() float64 {
	dc := m.DrawCalls()
	if dc == 0 {
		return 0
	}
	return m.Primitives() / dc
}

func average[T int | float64](q *containers.RingQueue[T]) float64 {
	if q.IsEmpty() {
		return 0
	}
	var sum float64
	q.Each(func(v T) {
		sum += float64(v)
	})
	return sum / float64(q.Len())
}
