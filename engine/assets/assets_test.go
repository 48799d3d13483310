package assets

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestRegisterAndTexturePath(t *testing.T) {
	am := NewAssetManager()
	if _, ok := am.TexturePath("btn"); ok {
		t.Fatal("unknown guid resolved")
	}
	am.Register("btn", "ui/button.png")
	if p, ok := am.TexturePath("btn"); !ok || p != "ui/button.png" {
		t.Fatalf("TexturePath = %q %v", p, ok)
	}
	am.Register("btn", "https://example.com/button.png")
	a, _ := am.Asset("btn")
	if a.Path != "https://example.com/button.png" || a.Type != metadata.ResourceTypeImage {
		t.Fatalf("rebinding = %+v", a)
	}
	if am.Count() != 1 {
		t.Fatalf("Count = %d", am.Count())
	}
}

func TestInitializeIndexesKnownAssets(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "ui", "panel.png"), 4, 4)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	am := NewAssetManager()
	if err := am.Initialize(dir, false); err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	if am.Count() != 1 {
		t.Fatalf("Count = %d, want only the png", am.Count())
	}
	guid := am.GUIDForPath(filepath.Join(dir, "ui", "panel.png"))
	if _, ok := am.TexturePath(guid); !ok {
		t.Fatal("panel.png not registered under its GUID")
	}

	// GUIDs depend on the path relative to the asset root only.
	other := NewAssetManager()
	otherDir := t.TempDir()
	other.root = otherDir
	if other.GUIDForPath(filepath.Join(otherDir, "ui", "panel.png")) != guid {
		t.Fatal("GUIDs must be stable across roots")
	}

	res, err := am.LoadAsset(context.Background(), guid, &metadata.ImageResourceParams{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Name != guid {
		t.Fatalf("resource name = %q", res.Name)
	}
	if _, err := am.LoadAsset(context.Background(), "nope", nil); !errors.Is(err, core.ErrNoTexturePath) {
		t.Fatalf("err = %v, want ErrNoTexturePath", err)
	}
}

func TestWatcherReportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	am := NewAssetManager()
	if err := am.Initialize(dir, true); err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	path := filepath.Join(dir, "late.png")
	writeTestPNG(t, path, 2, 2)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-am.Changes():
			if c.Path != path {
				continue
			}
			if c.Kind == AssetRemoved {
				t.Fatalf("unexpected change %+v", c)
			}
			if p, ok := am.TexturePath(c.GUID); !ok || p != path {
				t.Fatalf("registry not updated for %+v", c)
			}
			return
		case <-timeout:
			t.Fatal("no change reported for a new file")
		}
	}
}
