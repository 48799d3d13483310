package renderer

import (
	"errors"
	"testing"
)

func TestMemoryBackendUploadAndRelease(t *testing.T) {
	mb := NewMemoryBackend()
	id, err := mb.CreateBlankTexture(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	px := []uint8{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	if err := mb.UpdateTextureRegion(id, 2, 1, 2, 2, px); err != nil {
		t.Fatal(err)
	}
	got, ok := mb.Pixel(id, 3, 2)
	if !ok || got != [4]uint8{13, 14, 15, 16} {
		t.Fatalf("pixel (3,2) = %v", got)
	}
	if p, _ := mb.Pixel(id, 0, 0); p != [4]uint8{} {
		t.Fatalf("untouched pixel = %v", p)
	}

	if err := mb.UpdateTextureRegion(id, 3, 3, 2, 2, px); !errors.Is(err, ErrRegionOutside) {
		t.Fatalf("expected ErrRegionOutside, got %v", err)
	}
	if err := mb.UpdateTextureRegion(id, 0, 0, 1, 1, px); !errors.Is(err, ErrPixelCount) {
		t.Fatalf("expected ErrPixelCount, got %v", err)
	}
	if err := mb.ReleaseTexture(id); err != nil {
		t.Fatal(err)
	}
	if err := mb.UpdateTextureRegion(id, 0, 0, 1, 1, px[:4]); !errors.Is(err, ErrUnknownTexture) {
		t.Fatalf("expected ErrUnknownTexture, got %v", err)
	}
	if mb.TextureCount() != 0 {
		t.Fatal("texture not released")
	}
}
