package atlas

import (
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// fullThreshold is the smallest region IsFull still looks for.
const fullThreshold = 16

// RectanglePacker implements MaxRects packing with the Best-Short-Side-Fit
// heuristic inside one fixed-size bin.
//
// Every placed rectangle reserves Padding extra pixels on its right and bottom
// edge so that neighbours never bleed into each other when sampled.
type RectanglePacker struct {
	width   int
	height  int
	padding int

	// free holds maximal free rectangles. They may overlap each other but never
	// overlap a placed rectangle.
	free []metadata.PackedRect

	usedArea int
}

// NewRectanglePacker creates a packer for a width x height bin.
func NewRectanglePacker(width, height, padding int) *RectanglePacker {
	p := &RectanglePacker{
		width:   width,
		height:  height,
		padding: padding,
		free:    make([]metadata.PackedRect, 0, 16),
	}
	p.Reset()
	return p
}

// Reset restores the single full-bin free rectangle.
func (p *RectanglePacker) Reset() {
	p.free = append(p.free[:0], metadata.PackedRect{Width: p.width, Height: p.height})
	p.usedArea = 0
}

func (p *RectanglePacker) Width() int {
	return p.width
}

func (p *RectanglePacker) Height() int {
	return p.height
}

func (p *RectanglePacker) Padding() int {
	return p.padding
}

// Pack places a w x h rectangle and returns its position. The returned rect
// excludes padding. ok is false when no free rectangle can hold it, which is
// an expected outcome rather than an error.
func (p *RectanglePacker) Pack(w, h int) (metadata.PackedRect, bool) {
	if w <= 0 || h <= 0 {
		return metadata.PackedRect{}, false
	}
	pw, ph := w+p.padding, h+p.padding

	best := -1
	bestShort, bestLong := 0, 0
	for i, f := range p.free {
		if f.Width < pw || f.Height < ph {
			continue
		}
		leftoverW := f.Width - pw
		leftoverH := f.Height - ph
		short, long := min(leftoverW, leftoverH), max(leftoverW, leftoverH)
		if best < 0 || short < bestShort || (short == bestShort && long < bestLong) {
			best = i
			bestShort, bestLong = short, long
		}
	}
	if best < 0 {
		return metadata.PackedRect{}, false
	}

	used := metadata.PackedRect{X: p.free[best].X, Y: p.free[best].Y, Width: pw, Height: ph}
	p.place(used)
	p.usedArea += used.Area()

	return metadata.PackedRect{X: used.X, Y: used.Y, Width: w, Height: h}, true
}

// place subtracts used from every free rectangle it intersects and prunes the
// result.
func (p *RectanglePacker) place(used metadata.PackedRect) {
	n := len(p.free)
	for i := 0; i < n; {
		f := p.free[i]
		if !f.Intersects(used) {
			i++
			continue
		}
		// Drop f, keeping the unprocessed tail in place.
		p.free = append(p.free[:i], p.free[i+1:]...)
		n--
		p.free = append(p.free, splitFree(f, used)...)
	}
	p.prune()
}

// splitFree returns the up to four slivers of f not covered by used.
func splitFree(f, used metadata.PackedRect) []metadata.PackedRect {
	out := make([]metadata.PackedRect, 0, 4)
	// left
	if used.X > f.X {
		out = append(out, metadata.PackedRect{X: f.X, Y: f.Y, Width: used.X - f.X, Height: f.Height})
	}
	// right
	if used.Right() < f.Right() {
		out = append(out, metadata.PackedRect{X: used.Right(), Y: f.Y, Width: f.Right() - used.Right(), Height: f.Height})
	}
	// top
	if used.Y > f.Y {
		out = append(out, metadata.PackedRect{X: f.X, Y: f.Y, Width: f.Width, Height: used.Y - f.Y})
	}
	// bottom
	if used.Bottom() < f.Bottom() {
		out = append(out, metadata.PackedRect{X: f.X, Y: used.Bottom(), Width: f.Width, Height: f.Bottom() - used.Bottom()})
	}
	return out
}

// prune removes every free rectangle fully contained in another one.
func (p *RectanglePacker) prune() {
	for i := 0; i < len(p.free); i++ {
		for j := i + 1; j < len(p.free); j++ {
			if p.free[j].Contains(p.free[i]) {
				p.free = append(p.free[:i], p.free[i+1:]...)
				i--
				break
			}
			if p.free[i].Contains(p.free[j]) {
				p.free = append(p.free[:j], p.free[j+1:]...)
				j--
			}
		}
	}
}

// Occupancy returns the used fraction of the bin in [0, 1].
//
// Free rectangles overlap, so the free area is the bin area minus the area of
// placed (padded) rectangles rather than the sum over the free list.
func (p *RectanglePacker) Occupancy() float64 {
	area := p.width * p.height
	if area <= 0 {
		return 0
	}
	occ := float64(p.usedArea) / float64(area)
	if occ > 1 {
		return 1
	}
	return occ
}

// IsFull reports whether no free rectangle can hold a 16x16 region.
func (p *RectanglePacker) IsFull() bool {
	for _, f := range p.free {
		if f.Width >= fullThreshold && f.Height >= fullThreshold {
			return false
		}
	}
	return true
}

// FreeRects returns a copy of the current free list.
func (p *RectanglePacker) FreeRects() []metadata.PackedRect {
	out := make([]metadata.PackedRect, len(p.free))
	copy(out, p.free)
	return out
}
