package ui

import (
	"github.com/spaghettifunk/anima-atlas/engine/math"
)

// NinePatchParams describes a rectangle drawn from a texture whose corners
// keep their pixel size while edges and centre stretch.
type NinePatchParams struct {
	RectParams
	// Margins are left, top, right, bottom in source pixels.
	Margins [4]float32
	// SourceWidth and SourceHeight are the pixel size of the UV region.
	SourceWidth  float32
	SourceHeight float32
}

// AddNinePatch emits up to nine quads covering the target rectangle. Margins
// shrink proportionally when the target is smaller than their sum, and
// patches with no area are skipped.
func (c *RenderPrimitiveCollector) AddNinePatch(p NinePatchParams) int {
	quads := NinePatchQuads(p)
	for _, q := range quads {
		c.AddRect(q)
	}
	return len(quads)
}

// NinePatchQuads decomposes p into the rects AddNinePatch would emit.
func NinePatchQuads(p NinePatchParams) []RectParams {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		return nil
	}
	left, top, right, bottom := p.Margins[0], p.Margins[1], p.Margins[2], p.Margins[3]
	left, right = fitMargins(left, right, w)
	top, bottom = fitMargins(top, bottom, h)

	uv := p.UV
	if uv == ([4]float32{}) {
		uv = fullUV
	}
	// Source margins in UV space, before any shrinking.
	var uL, uR, vT, vB float32
	if p.SourceWidth > 0 {
		du := uv[2] - uv[0]
		uL = p.Margins[0] / p.SourceWidth * du
		uR = p.Margins[2] / p.SourceWidth * du
	}
	if p.SourceHeight > 0 {
		dv := uv[3] - uv[1]
		vT = p.Margins[1] / p.SourceHeight * dv
		vB = p.Margins[3] / p.SourceHeight * dv
	}

	xs := [4]float32{0, left, w - right, w}
	ys := [4]float32{0, top, h - bottom, h}
	us := [4]float32{uv[0], uv[0] + uL, uv[2] - uR, uv[2]}
	vs := [4]float32{uv[1], uv[1] + vT, uv[3] - vB, uv[3]}

	pivot := math.NewVec2(p.PivotX*w, p.PivotY*h)
	origin := math.NewVec2(p.X, p.Y)

	quads := make([]RectParams, 0, 9)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			qw := xs[col+1] - xs[col]
			qh := ys[row+1] - ys[row]
			if qw <= 0 || qh <= 0 {
				continue
			}
			// Centre of the patch relative to the nine-patch pivot, rotated
			// with the whole rectangle.
			centre := math.NewVec2(xs[col]+qw/2, ys[row]+qh/2).Sub(pivot).Rotate(p.Rotation)
			pos := origin.Add(centre)

			q := p.RectParams
			q.X, q.Y = pos.X, pos.Y
			q.Width, q.Height = qw, qh
			q.PivotX, q.PivotY = 0.5, 0.5
			q.UV = [4]float32{us[col], vs[row], us[col+1], vs[row+1]}
			quads = append(quads, q)
		}
	}
	return quads
}

// fitMargins scales a and b down so that they never exceed size together.
func fitMargins(a, b, size float32) (float32, float32) {
	a, b = max(a, 0), max(b, 0)
	if sum := a + b; sum > size && sum > 0 {
		scale := size / sum
		return a * scale, b * scale
	}
	return a, b
}
