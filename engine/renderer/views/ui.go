package views

import (
	"sync"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
)

// BatchSubmitter is the GPU layer. It must draw batches in slice order.
type BatchSubmitter interface {
	SubmitBatches(packet *metadata.RenderViewPacket, frameNumber uint64) error
}

// RenderViewUI turns the collector's batches into one packet per frame.
type RenderViewUI struct {
	Name      string
	collector *ui.RenderPrimitiveCollector
}

func NewRenderViewUI(name string, collector *ui.RenderPrimitiveCollector) *RenderViewUI {
	return &RenderViewUI{Name: name, collector: collector}
}

func (vu *RenderViewUI) OnBuildPacketRenderView() *metadata.RenderViewPacket {
	return &metadata.RenderViewPacket{
		ViewName:       vu.Name,
		Batches:        vu.collector.RenderData(),
		Debug:          vu.collector.DebugInfo(),
		PrimitiveCount: vu.collector.PrimitiveCount(),
	}
}

func (vu *RenderViewUI) OnRenderRenderView(packet *metadata.RenderViewPacket, submitter BatchSubmitter, frameNumber uint64) error {
	if len(packet.Batches) == 0 {
		return nil
	}
	return submitter.SubmitBatches(packet, frameNumber)
}

// OnDestroyPacketRenderView drops the packet's references to collector memory.
func (vu *RenderViewUI) OnDestroyPacketRenderView(packet *metadata.RenderViewPacket) {
	packet.Batches = nil
	packet.Debug = nil
}

// HeadlessSubmitter accepts batches without a GPU and keeps statistics about
// them. It backs the headless frame loop and tests.
type HeadlessSubmitter struct {
	mu         sync.Mutex
	frames     uint64
	drawCalls  int
	primitives int
	lastFrame  uint64
	last       []metadata.ProviderRenderData
}

func (hs *HeadlessSubmitter) SubmitBatches(packet *metadata.RenderViewPacket, frameNumber uint64) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.frames++
	hs.drawCalls = len(packet.Batches)
	hs.primitives = packet.PrimitiveCount
	hs.lastFrame = frameNumber
	hs.last = append(hs.last[:0], packet.Batches...)
	core.LogDebug("frame %d: %d primitives in %d draw calls", frameNumber, packet.PrimitiveCount, len(packet.Batches))
	return nil
}

// LastFrame returns the batches of the last submitted frame and its number.
func (hs *HeadlessSubmitter) LastFrame() ([]metadata.ProviderRenderData, uint64) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return append([]metadata.ProviderRenderData(nil), hs.last...), hs.lastFrame
}

func (hs *HeadlessSubmitter) Frames() uint64 {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.frames
}

func (hs *HeadlessSubmitter) DrawCalls() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.drawCalls
}

func (hs *HeadlessSubmitter) Primitives() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.primitives
}
