package components

import (
	"testing"

	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
)

func TestUIImageSettersReportChanges(t *testing.T) {
	img := NewUIImage(7)
	img.ClearDirty()

	if !img.SetTexture("icon") {
		t.Fatal("first SetTexture should report a change")
	}
	if !img.IsDirty() {
		t.Fatal("a change must mark the image dirty")
	}
	img.ClearDirty()
	if img.SetTexture("icon") {
		t.Fatal("setting the same texture is not a change")
	}
	if img.IsDirty() {
		t.Fatal("a no-op setter must not dirty the image")
	}
	if img.SetVisible(true) || img.SetColor(math.NewVec4(1, 1, 1, 1)) || img.SetAlpha(1) {
		t.Fatal("defaults re-applied must not report changes")
	}
}

func TestUIImageClampsToSchema(t *testing.T) {
	img := NewUIImage(1)

	img.SetAlpha(2)
	if img.Alpha() != 1 {
		t.Fatalf("alpha = %v, want 1", img.Alpha())
	}
	img.SetAlpha(-1)
	if img.Alpha() != 0 {
		t.Fatalf("alpha = %v, want 0", img.Alpha())
	}
	img.SetOrderInLayer(250000)
	if img.OrderInLayer() != maxOrderInLayer {
		t.Fatalf("order = %d, want %d", img.OrderInLayer(), maxOrderInLayer)
	}
	img.SetSortingLayer(-20000)
	if img.SortingLayer() != -10000 {
		t.Fatalf("layer = %d, want -10000", img.SortingLayer())
	}
	// Clamping to the current value is not a change.
	if img.SetOrderInLayer(maxOrderInLayer + 1) {
		t.Fatal("clamped value equal to the current one reported a change")
	}
}

func TestUIImageSubmit(t *testing.T) {
	layout := Layout{X: 10, Y: 20, Width: 100, Height: 50}

	t.Run("rect carries alpha in colour", func(t *testing.T) {
		c := ui.NewRenderPrimitiveCollector(nil, nil, nil)
		img := NewUIImage(3)
		img.SetColor(math.NewVec4(1, 0, 0, 1))
		img.SetAlpha(0.5)
		img.SetSortingLayer(2)

		if n := img.Submit(c, layout); n != 1 {
			t.Fatalf("Submit = %d, want 1", n)
		}
		if img.IsDirty() {
			t.Fatal("Submit should clear the dirty flag")
		}
		b := c.RenderData()[0]
		if b.SortingLayer != 2 {
			t.Fatalf("layer = %d", b.SortingLayer)
		}
		if want := math.PackARGB(1, 0, 0, 0.5); b.Colors[0] != want {
			t.Fatalf("colour = %#x, want %#x", b.Colors[0], want)
		}
		if dbg := c.DebugInfo(); dbg[0].EntityIDs[0] != 3 {
			t.Fatalf("entity = %d, want 3", dbg[0].EntityIDs[0])
		}
	})

	t.Run("invisible or empty emits nothing", func(t *testing.T) {
		c := ui.NewRenderPrimitiveCollector(nil, nil, nil)
		img := NewUIImage(4)
		if n := img.Submit(c, Layout{Width: 0, Height: 10}); n != 0 {
			t.Fatalf("zero width emitted %d", n)
		}
		img.SetVisible(false)
		if n := img.Submit(c, layout); n != 0 {
			t.Fatalf("invisible emitted %d", n)
		}
		if c.PrimitiveCount() != 0 {
			t.Fatal("collector should be empty")
		}
	})

	t.Run("nine-patch", func(t *testing.T) {
		c := ui.NewRenderPrimitiveCollector(nil, nil, nil)
		img := NewUIImage(5)
		img.SetTexture("panel")
		img.SetNinePatch([4]float32{4, 4, 4, 4}, 16, 16)
		if !img.IsNinePatch() {
			t.Fatal("margins should enable nine-patch")
		}
		if n := img.Submit(c, layout); n != 9 {
			t.Fatalf("Submit = %d, want 9", n)
		}
		if c.BatchCount() != 1 {
			t.Fatalf("nine patches of one texture should share a batch, got %d", c.BatchCount())
		}

		img.SetNinePatch([4]float32{}, 16, 16)
		if img.IsNinePatch() {
			t.Fatal("zero margins should disable nine-patch")
		}
	})
}

func TestUIImageReset(t *testing.T) {
	img := NewUIImage(9)
	img.SetTexture("x")
	img.SetMaterial(3)
	img.SetVisible(false)
	img.ClearDirty()

	img.Reset()
	if img.Texture() != "" || !img.Visible() || img.Color() != math.NewVec4(1, 1, 1, 1) {
		t.Fatal("Reset should restore defaults")
	}
	if !img.IsDirty() {
		t.Fatal("Reset should mark the image dirty")
	}
	if img.EntityID != 9 {
		t.Fatal("Reset must keep the entity id")
	}
}
