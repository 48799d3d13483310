package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/anima-atlas/engine/atlas"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// resolved is a primitive plus the keys batching compares.
type resolved struct {
	prim        *metadata.RenderPrimitive
	sortKey     int64
	entry       *metadata.AtlasEntry
	textureKey  string
	materialKey string
	clipKey     string
}

func (c *RenderPrimitiveCollector) resolve(p *metadata.RenderPrimitive) resolved {
	r := resolved{
		prim:        p,
		sortKey:     metadata.SortKey(p.SortingLayer, p.OrderInLayer),
		materialKey: materialKey(p.MaterialID, p.MaterialOverrides),
		clipKey:     p.ClipRect.Key(),
	}
	switch {
	case p.TextureGUID != "":
		if c.atlas != nil {
			if e, ok := c.atlas.Entry(p.TextureGUID); ok {
				r.entry = e
				r.textureKey = fmt.Sprintf("atlas:%d", e.AtlasID)
				break
			}
		}
		r.textureKey = "guid:" + p.TextureGUID
	case p.TextureID != 0:
		r.textureKey = fmt.Sprintf("id:%d", p.TextureID)
	default:
		r.textureKey = metadata.SOLID_TEXTURE_KEY
	}
	return r
}

func materialKey(id uint32, overrides map[string]float32) string {
	if len(overrides) == 0 {
		return fmt.Sprint(id)
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	fmt.Fprint(&sb, id)
	for _, name := range names {
		fmt.Fprintf(&sb, ";%s=%g", name, overrides[name])
	}
	return sb.String()
}

// breakReason reports why cur cannot join prev's batch, or "" if it can.
func breakReason(prev, cur *resolved) metadata.BatchBreakReason {
	switch {
	case prev == nil:
		return metadata.BatchBreakFirst
	case prev.prim.SortingLayer != cur.prim.SortingLayer, prev.prim.OrderInLayer != cur.prim.OrderInLayer:
		return metadata.BatchBreakLayer
	case prev.textureKey != cur.textureKey:
		return metadata.BatchBreakTexture
	case prev.materialKey != cur.materialKey:
		return metadata.BatchBreakMaterial
	case prev.clipKey != cur.clipKey:
		return metadata.BatchBreakClip
	}
	return ""
}

func (c *RenderPrimitiveCollector) compile() ([]metadata.ProviderRenderData, []metadata.BatchDebugInfo) {
	if len(c.primitives) == 0 {
		return nil, nil
	}

	items := make([]resolved, len(c.primitives))
	for i := range c.primitives {
		items[i] = c.resolve(&c.primitives[i])
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].sortKey != items[j].sortKey {
			return items[i].sortKey < items[j].sortKey
		}
		return items[i].prim.AddIndex < items[j].prim.AddIndex
	})

	var (
		batches []metadata.ProviderRenderData
		debug   []metadata.BatchDebugInfo
		start   int
		reason  metadata.BatchBreakReason
	)
	for i := range items {
		var prev *resolved
		if i > 0 {
			prev = &items[i-1]
		}
		r := breakReason(prev, &items[i])
		if r == "" {
			continue
		}
		if prev != nil {
			batches, debug = appendBatch(batches, debug, items[start:i], reason)
		}
		start, reason = i, r
	}
	batches, debug = appendBatch(batches, debug, items[start:], reason)

	return sortBatches(batches, debug)
}

func appendBatch(batches []metadata.ProviderRenderData, debug []metadata.BatchDebugInfo, items []resolved, reason metadata.BatchBreakReason) ([]metadata.ProviderRenderData, []metadata.BatchDebugInfo) {
	first := items[0]
	n := len(items)
	b := metadata.ProviderRenderData{
		SortingLayer:      first.prim.SortingLayer,
		OrderInLayer:      first.prim.OrderInLayer,
		SortKey:           first.sortKey,
		FirstAddIndex:     first.prim.AddIndex,
		TextureID:         first.prim.TextureID,
		TextureGUID:       first.prim.TextureGUID,
		Transforms:        make([]float32, 0, n*metadata.TransformStride),
		UVs:               make([]float32, 0, n*metadata.UVStride),
		Colors:            make([]uint32, 0, n),
		MaterialOverrides: first.prim.MaterialOverrides,
		ClipRect:          first.prim.ClipRect,
		Count:             n,
	}
	if first.entry != nil {
		b.IsAtlased = true
		b.AtlasID = first.entry.AtlasID
		b.TextureID = first.entry.AtlasID
	}
	info := metadata.BatchDebugInfo{
		Reason:         reason,
		PrimitiveCount: n,
		EntityIDs:      make([]uint64, 0, n),
		TextureKey:     first.textureKey,
	}

	for _, it := range items {
		p := it.prim
		b.Transforms = append(b.Transforms, p.X, p.Y, p.Rotation, p.Width, p.Height, p.PivotX, p.PivotY)
		uv := p.UV
		if it.entry != nil {
			uv = atlas.RemapUV(it.entry, uv[0], uv[1], uv[2], uv[3])
		}
		b.UVs = append(b.UVs, uv[:]...)
		b.Colors = append(b.Colors, p.Color)
		if p.MaterialID != 0 && b.MaterialIDs == nil {
			b.MaterialIDs = make([]uint32, 0, n)
		}
		info.EntityIDs = append(info.EntityIDs, p.EntityID)
	}
	if b.MaterialIDs != nil {
		for _, it := range items {
			b.MaterialIDs = append(b.MaterialIDs, it.prim.MaterialID)
		}
	}
	return append(batches, b), append(debug, info)
}

// sortBatches orders batches by (SortKey, FirstAddIndex), keeping debug info
// parallel.
func sortBatches(batches []metadata.ProviderRenderData, debug []metadata.BatchDebugInfo) ([]metadata.ProviderRenderData, []metadata.BatchDebugInfo) {
	order := make([]int, len(batches))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &batches[order[i]], &batches[order[j]]
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		return a.FirstAddIndex < b.FirstAddIndex
	})
	outB := make([]metadata.ProviderRenderData, len(batches))
	outD := make([]metadata.BatchDebugInfo, len(debug))
	for i, idx := range order {
		outB[i] = batches[idx]
		outD[i] = debug[idx]
	}
	return outB, outD
}
