package systems

import (
	"testing"

	"github.com/spaghettifunk/anima-atlas/engine/assets"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
)

func testFont() *metadata.Resource {
	glyph := func(cp int32, x, w, adv uint16) *metadata.FontGlyph {
		return &metadata.FontGlyph{Codepoint: cp, X: x, Width: w, Height: 12, XAdvance: int16(adv)}
	}
	return &metadata.Resource{
		Name: "test.fnt",
		Data: &metadata.BitmapFontResourceData{
			Data: &metadata.FontData{
				Face:       "Test",
				Size:       12,
				LineHeight: 14,
				AtlasSizeX: 64,
				AtlasSizeY: 64,
				Glyphs: map[int32]*metadata.FontGlyph{
					'A': glyph('A', 0, 10, 11),
					'B': glyph('B', 10, 12, 12),
					'?': glyph('?', 22, 8, 9),
					' ': {Codepoint: ' ', XAdvance: 5},
				},
				Kernings: map[[2]int32]int16{{'A', 'B'}: -2},
			},
			Pages: []*metadata.BitmapFontPage{{ID: 0, File: "test_0.png", GUID: "font-page", Path: "/fonts/test_0.png"}},
		},
	}
}

func newTestFontSystem(t *testing.T) *BitmapFontSystem {
	t.Helper()
	fs, err := NewBitmapFontSystem(nil, assets.NewAssetManager())
	if err != nil {
		t.Fatal(err)
	}
	fs.AddBitmapFont("test", testFont())
	return fs
}

func TestNewBitmapFontSystemNeedsAssetManager(t *testing.T) {
	if _, err := NewBitmapFontSystem(nil, nil); err == nil {
		t.Fatal("expected an error without an asset manager")
	}
}

func TestEmitTextKerningAndUV(t *testing.T) {
	fs := newTestFontSystem(t)
	c := ui.NewRenderPrimitiveCollector(nil, nil, nil)

	width, err := fs.EmitText(c, TextParams{Font: "test", Text: "AB", X: 100, Y: 50, Color: math.NewVec4(1, 1, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if width != 21 {
		t.Fatalf("width = %v, want 21", width)
	}

	batches := c.RenderData()
	if len(batches) != 1 || batches[0].Count != 2 {
		t.Fatalf("expected one batch of 2 glyphs, got %+v", batches)
	}
	b := batches[0]
	if b.TextureGUID != "font-page" {
		t.Fatalf("batch texture = %q", b.TextureGUID)
	}
	if b.Transforms[0] != 100 || b.Transforms[1] != 50 {
		t.Fatalf("first glyph at (%v,%v)", b.Transforms[0], b.Transforms[1])
	}
	// 11 advance, -2 kerning.
	if b.Transforms[metadata.TransformStride] != 109 {
		t.Fatalf("second glyph x = %v, want 109", b.Transforms[metadata.TransformStride])
	}
	wantUV := []float32{0, 0, 10.0 / 64, 12.0 / 64}
	for i, v := range wantUV {
		if b.UVs[i] != v {
			t.Fatalf("uv[%d] = %v, want %v", i, b.UVs[i], v)
		}
	}
}

func TestMeasureLayout(t *testing.T) {
	fs := newTestFontSystem(t)

	tests := []struct {
		name string
		text string
		want float32
	}{
		{name: "empty", text: "", want: 0},
		{name: "widest line wins", text: "A\nAB", want: 21},
		{name: "missing glyph falls back", text: "Z", want: 9},
		{name: "tab is four spaces", text: "\tA", want: 31},
		{name: "space advances", text: "A A", want: 27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.Measure("test", tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("Measure(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEmitTextSkipsBlankGlyphsAndBreaksLines(t *testing.T) {
	fs := newTestFontSystem(t)
	c := ui.NewRenderPrimitiveCollector(nil, nil, nil)

	if _, err := fs.EmitText(c, TextParams{Font: "test", Text: "A A\nB"}); err != nil {
		t.Fatal(err)
	}
	if c.PrimitiveCount() != 3 {
		t.Fatalf("primitives = %d, want 3", c.PrimitiveCount())
	}
	b := c.RenderData()[0]
	// Third glyph sits on the second line.
	if y := b.Transforms[2*metadata.TransformStride+1]; y != 14 {
		t.Fatalf("second line y = %v, want 14", y)
	}
}

func TestEmitTextUnknownFont(t *testing.T) {
	fs := newTestFontSystem(t)
	c := ui.NewRenderPrimitiveCollector(nil, nil, nil)
	if _, err := fs.EmitText(c, TextParams{Font: "nope", Text: "A"}); err == nil {
		t.Fatal("expected an error for an unknown font")
	}
	if c.PrimitiveCount() != 0 {
		t.Fatal("nothing should be emitted")
	}
	if !fs.Has("test") || fs.Has("nope") {
		t.Fatal("Has reports the wrong fonts")
	}
}
