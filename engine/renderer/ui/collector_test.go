package ui

import (
	"fmt"
	stdmath "math"
	"testing"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"golang.org/x/exp/rand"
)

type fakeAtlas map[string]*metadata.AtlasEntry

func (f fakeAtlas) Entry(guid string) (*metadata.AtlasEntry, bool) {
	e, ok := f[guid]
	return e, ok
}

type fakePaths map[string]string

func (f fakePaths) TexturePath(guid string) (string, bool) {
	p, ok := f[guid]
	return p, ok
}

type recordingRequester struct {
	calls [][2]string
}

func (r *recordingRequester) RequestTexture(guid, path string) {
	r.calls = append(r.calls, [2]string{guid, path})
}

var white = math.NewVec4(1, 1, 1, 1)

func rect(guid string, layer, order int) RectParams {
	return RectParams{Width: 10, Height: 10, Color: white, TextureGUID: guid, SortingLayer: layer, OrderInLayer: order}
}

func TestTwoUnatlasedTexturesMakeTwoBatches(t *testing.T) {
	c := NewRenderPrimitiveCollector(nil, nil, nil)
	c.AddRect(rect("A", 0, 0))
	c.AddRect(rect("B", 0, 0))

	batches := c.RenderData()
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	debug := c.DebugInfo()
	if debug[0].Reason != metadata.BatchBreakFirst || debug[1].Reason != metadata.BatchBreakTexture {
		t.Fatalf("reasons = %s, %s", debug[0].Reason, debug[1].Reason)
	}
	if batches[0].TextureGUID != "A" || batches[1].TextureGUID != "B" || batches[0].IsAtlased {
		t.Fatalf("batches = %+v", batches)
	}
}

func TestSharedAtlasPageCollapsesBatches(t *testing.T) {
	atlas := fakeAtlas{
		"A": {AtlasID: 7, UV: [4]float32{0, 0, 0.5, 0.5}},
		"B": {AtlasID: 7, UV: [4]float32{0.5, 0.5, 1, 1}},
	}
	c := NewRenderPrimitiveCollector(atlas, nil, nil)
	c.AddRect(rect("A", 0, 0))
	half := rect("B", 0, 0)
	half.UV = [4]float32{0, 0, 0.5, 1}
	c.AddRect(half)

	batches := c.RenderData()
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	b := batches[0]
	if !b.IsAtlased || b.AtlasID != 7 || b.TextureID != 7 || b.Count != 2 {
		t.Fatalf("batch = %+v", b)
	}
	want := []float32{0, 0, 0.5, 0.5, 0.5, 0.5, 0.75, 1}
	for i, v := range want {
		if b.UVs[i] != v {
			t.Fatalf("UVs = %v, want %v", b.UVs, want)
		}
	}
}

func TestBatchBreakReasons(t *testing.T) {
	clip := &metadata.ClipRect{Width: 5, Height: 5}
	c := NewRenderPrimitiveCollector(nil, nil, nil)
	c.AddRect(RectParams{Color: white})
	c.AddRect(RectParams{Color: white, OrderInLayer: 1})
	c.AddRect(RectParams{Color: white, OrderInLayer: 1, TextureID: 3})
	c.AddRect(RectParams{Color: white, OrderInLayer: 1, TextureID: 3, MaterialID: 2})
	c.AddRect(RectParams{Color: white, OrderInLayer: 1, TextureID: 3, MaterialID: 2, ClipRect: clip})
	// Equal clip rects compare by value.
	c.AddRect(RectParams{Color: white, OrderInLayer: 1, TextureID: 3, MaterialID: 2, ClipRect: &metadata.ClipRect{Width: 5, Height: 5}})
	c.AddRect(RectParams{Color: white, SortingLayer: 1})

	want := []metadata.BatchBreakReason{
		metadata.BatchBreakFirst,
		metadata.BatchBreakLayer,
		metadata.BatchBreakTexture,
		metadata.BatchBreakMaterial,
		metadata.BatchBreakClip,
		metadata.BatchBreakLayer,
	}
	debug := c.DebugInfo()
	if len(debug) != len(want) {
		t.Fatalf("got %d batches, want %d", len(debug), len(want))
	}
	for i, r := range want {
		if debug[i].Reason != r {
			t.Fatalf("batch %d reason = %s, want %s", i, debug[i].Reason, r)
		}
	}
	batches := c.RenderData()
	if batches[4].Count != 2 {
		t.Fatal("equal clip rects must share a batch")
	}
	if batches[3].MaterialIDs == nil || batches[0].MaterialIDs != nil {
		t.Fatal("material ids are only emitted when used")
	}
}

func TestStableSubmissionOrder(t *testing.T) {
	c := NewRenderPrimitiveCollector(nil, nil, nil)
	top := RectParams{Color: math.NewVec4(1, 0, 0, 1), SortingLayer: 2}
	c.AddRect(top)
	for i := 0; i < 3; i++ {
		c.AddRect(RectParams{Color: math.NewVec4(0, 0, float32(i)/2, 1), EntityID: uint64(i)})
	}

	batches := c.RenderData()
	if len(batches) != 2 {
		t.Fatalf("batches = %d", len(batches))
	}
	if batches[0].SortingLayer != 0 || batches[1].SortingLayer != 2 {
		t.Fatal("lower layers must come first")
	}
	ids := c.DebugInfo()[0].EntityIDs
	for i, id := range ids {
		if id != uint64(i) {
			t.Fatalf("entity order = %v, want submission order", ids)
		}
	}
	if batches[1].Colors[0] != 0xFFFF0000 {
		t.Fatalf("packed colour = %#x", batches[1].Colors[0])
	}
}

func TestTransformsLayout(t *testing.T) {
	c := NewRenderPrimitiveCollector(nil, nil, nil)
	c.AddRect(RectParams{X: 1, Y: 2, Rotation: 3, Width: 4, Height: 5, PivotX: 0.25, PivotY: 0.75, Color: white})
	got := c.RenderData()[0].Transforms
	want := []float32{1, 2, 3, 4, 5, 0.25, 0.75}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transforms = %v, want %v", got, want)
		}
	}
	if uv := c.RenderData()[0].UVs; uv[2] != 1 || uv[3] != 1 {
		t.Fatalf("zero UV must default to the full texture, got %v", uv)
	}
}

func TestRenderDataIsMemoised(t *testing.T) {
	bus := core.NewEventBus()
	c := NewRenderPrimitiveCollector(nil, nil, nil)
	c.Listen(bus)
	c.AddRect(rect("A", 0, 0))

	first := c.RenderData()
	if &c.RenderData()[0] != &first[0] {
		t.Fatal("unchanged collector recompiled")
	}
	bus.Fire(core.EVENT_CODE_ATLAS_PAGE_CHANGED, nil, core.EventContext{AtlasID: 9})
	if &c.RenderData()[0] == &first[0] {
		t.Fatal("atlas change did not invalidate")
	}
	c.Unlisten(bus)

	c.Clear()
	if len(c.RenderData()) != 0 || c.PrimitiveCount() != 0 {
		t.Fatal("clear")
	}
}

func TestTextureRequestsOnce(t *testing.T) {
	req := &recordingRequester{}
	atlas := fakeAtlas{"ready": {AtlasID: 1, UV: fullUV}}
	c := NewRenderPrimitiveCollector(atlas, fakePaths{"btn": "ui/btn.png", "ready": "ui/ready.png"}, req)

	c.AddRect(rect("btn", 0, 0))
	c.AddRect(rect("btn", 0, 1))
	c.AddRect(rect("unknown", 0, 0))
	c.AddRect(rect("ready", 0, 0))
	over := rect("remote", 0, 0)
	over.TexturePath = "https://cdn.example.com/remote.png"
	c.AddRect(over)

	want := [][2]string{{"btn", "ui/btn.png"}, {"remote", "https://cdn.example.com/remote.png"}}
	if fmt.Sprint(req.calls) != fmt.Sprint(want) {
		t.Fatalf("requests = %v, want %v", req.calls, want)
	}
	c.Clear()
	c.AddRect(rect("btn", 0, 0))
	if len(req.calls) != 2 {
		t.Fatal("requests must survive Clear")
	}
	c.ForgetRequest("btn")
	c.AddRect(rect("btn", 0, 0))
	if len(req.calls) != 3 {
		t.Fatal("forgotten guid must be requested again")
	}
}

func primitiveKey(atlas fakeAtlas, p RectParams) string {
	tex := metadata.SOLID_TEXTURE_KEY
	switch {
	case p.TextureGUID != "":
		tex = "guid:" + p.TextureGUID
		if e, ok := atlas[p.TextureGUID]; ok {
			tex = fmt.Sprintf("atlas:%d", e.AtlasID)
		}
	case p.TextureID != 0:
		tex = fmt.Sprintf("id:%d", p.TextureID)
	}
	return fmt.Sprintf("%d/%d/%s/%d", p.SortingLayer, p.OrderInLayer, tex, p.MaterialID)
}

func TestBatchContiguityRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	atlas := fakeAtlas{}
	for i := 0; i < 6; i++ {
		atlas[fmt.Sprintf("t%d", i)] = &metadata.AtlasEntry{AtlasID: uint32(1 + i%2), UV: fullUV}
	}
	c := NewRenderPrimitiveCollector(atlas, nil, nil)
	const n = 500
	params := make([]RectParams, n)
	for i := 0; i < n; i++ {
		p := RectParams{
			Color:        white,
			SortingLayer: rng.Intn(3),
			OrderInLayer: rng.Intn(3) - 1,
			MaterialID:   uint32(rng.Intn(2)),
			EntityID:     uint64(i),
		}
		switch rng.Intn(3) {
		case 0:
			p.TextureGUID = fmt.Sprintf("t%d", rng.Intn(8)) // t6 and t7 are not atlased
		case 1:
			p.TextureID = uint32(100 + rng.Intn(2))
		}
		params[i] = p
		c.AddRect(p)
	}

	batches := c.RenderData()
	debug := c.DebugInfo()
	total := 0
	var prevKey string
	var prev *RectParams
	for i, b := range batches {
		total += b.Count
		if len(b.Transforms) != b.Count*metadata.TransformStride || len(b.UVs) != b.Count*metadata.UVStride || len(b.Colors) != b.Count {
			t.Fatalf("batch %d arrays do not match count %d", i, b.Count)
		}
		key := primitiveKey(atlas, params[debug[i].EntityIDs[0]])
		if i > 0 && key == prevKey {
			t.Fatalf("batches %d and %d could have been merged (%s)", i-1, i, key)
		}
		for _, id := range debug[i].EntityIDs {
			p := &params[id]
			if k := primitiveKey(atlas, *p); k != key {
				t.Fatalf("batch %d mixes %s and %s", i, key, k)
			}
			if prev != nil {
				pk := metadata.SortKey(prev.SortingLayer, prev.OrderInLayer)
				ck := metadata.SortKey(p.SortingLayer, p.OrderInLayer)
				if ck < pk || (ck == pk && p.EntityID < prev.EntityID) {
					t.Fatalf("primitive %d drawn after %d out of order", p.EntityID, prev.EntityID)
				}
			}
			prev = p
		}
		prevKey = key
	}
	if total != n {
		t.Fatalf("batched %d primitives, want %d", total, n)
	}
}

func ninePatch(w, h float32, margins [4]float32) NinePatchParams {
	return NinePatchParams{
		RectParams:   RectParams{Width: w, Height: h, Color: white, TextureGUID: "panel"},
		Margins:      margins,
		SourceWidth:  100,
		SourceHeight: 100,
	}
}

func area(quads []RectParams) float32 {
	var a float32
	for _, q := range quads {
		a += q.Width * q.Height
	}
	return a
}

func TestNinePatchAreaConservation(t *testing.T) {
	quads := NinePatchQuads(ninePatch(50, 50, [4]float32{10, 10, 10, 10}))
	if len(quads) != 9 {
		t.Fatalf("quads = %d, want 9", len(quads))
	}
	if a := area(quads); a != 2500 {
		t.Fatalf("area = %v, want 2500", a)
	}
	// Corners keep their pixel size and source UVs.
	if quads[0].Width != 10 || quads[0].UV != [4]float32{0, 0, 0.1, 0.1} {
		t.Fatalf("top-left corner = %+v", quads[0])
	}

	single := NinePatchQuads(ninePatch(50, 50, [4]float32{}))
	if len(single) != 1 || single[0].Width != 50 || single[0].Height != 50 {
		t.Fatalf("zero margins = %+v", single)
	}
}

func TestNinePatchShrinksMargins(t *testing.T) {
	quads := NinePatchQuads(ninePatch(10, 40, [4]float32{10, 10, 10, 10}))
	// Horizontal margins shrink to 5 each, leaving no centre column.
	if len(quads) != 6 {
		t.Fatalf("quads = %d, want 6", len(quads))
	}
	if a := area(quads); a != 400 {
		t.Fatalf("area = %v, want 400", a)
	}
}

func TestNinePatchRotatesAroundPivot(t *testing.T) {
	p := ninePatch(30, 30, [4]float32{10, 10, 10, 10})
	p.X, p.Y = 100, 100
	p.Rotation = math.K_HALF_PI
	quads := NinePatchQuads(p)
	centre := quads[4]
	// Local centre (15,15) around pivot (0,0) rotated a quarter turn.
	if stdmath.Abs(float64(centre.X-85)) > 1e-3 || stdmath.Abs(float64(centre.Y-115)) > 1e-3 {
		t.Fatalf("centre patch at (%v,%v), want (85,115)", centre.X, centre.Y)
	}
	if centre.Rotation != p.Rotation || centre.PivotX != 0.5 {
		t.Fatal("patches share the rotation and pivot on their centre")
	}

	c := NewRenderPrimitiveCollector(nil, nil, nil)
	if n := c.AddNinePatch(p); n != 9 || c.PrimitiveCount() != 9 {
		t.Fatalf("AddNinePatch emitted %d", n)
	}
	if len(c.RenderData()) != 1 {
		t.Fatal("patches of one nine-patch share a batch")
	}
}
