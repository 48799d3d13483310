package metadata

import "fmt"

const (
	InvalidID       uint32 = 4294967295
	InvalidIDUint16 uint16 = 65535
)

// PackedRect is an integer pixel region inside an atlas page.
type PackedRect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r PackedRect) Right() int {
	return r.X + r.Width
}

func (r PackedRect) Bottom() int {
	return r.Y + r.Height
}

func (r PackedRect) Area() int {
	return r.Width * r.Height
}

// Intersects reports whether r and o share any pixel.
func (r PackedRect) Intersects(o PackedRect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Contains reports whether o lies entirely inside r.
func (r PackedRect) Contains(o PackedRect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

/**
 * @brief The placement of one texture inside an atlas page.
 */
type AtlasEntry struct {
	/** @brief Texture id of the owning page, as issued by the texture backend. */
	AtlasID uint32
	/** @brief Index of the owning page in creation order. */
	PageIndex int
	/** @brief Pixel region occupied by the texture (padding excluded). */
	Region PackedRect
	OriginalWidth  int
	OriginalHeight int
	/** @brief u0, v0, u1, v1 normalised against the page's current size. */
	UV [4]float32
}

/**
 * @brief Raw pixels retained per GUID so a page can be repacked from scratch.
 */
type StoredTexture struct {
	GUID   string
	Pixels []uint8
	Width  int
	Height int
}

func (s *StoredTexture) Area() int {
	return s.Width * s.Height
}

// ExpansionStrategy decides what happens when a texture does not fit.
type ExpansionStrategy int

const (
	/** @brief Pages have a fixed size; new pages are created until MaxPages. */
	ExpansionStrategyFixed ExpansionStrategy = iota
	/** @brief Page 0 grows by doubling and is repacked before new pages are created. */
	ExpansionStrategyDynamic
)

func (s ExpansionStrategy) String() string {
	switch s {
	case ExpansionStrategyDynamic:
		return "dynamic"
	default:
		return "fixed"
	}
}

// LoadState is the per-texture state of the atlas load service.
type LoadState int

const (
	LoadStateNone LoadState = iota
	LoadStatePending
	LoadStateLoading
	LoadStateReady
	LoadStateFailed
	LoadStateTooLarge
)

func (s LoadState) String() string {
	switch s {
	case LoadStatePending:
		return "pending"
	case LoadStateLoading:
		return "loading"
	case LoadStateReady:
		return "ready"
	case LoadStateFailed:
		return "failed"
	case LoadStateTooLarge:
		return "too-large"
	default:
		return "none"
	}
}

// IsTerminal reports whether no further transition will happen.
func (s LoadState) IsTerminal() bool {
	return s == LoadStateReady || s == LoadStateFailed || s == LoadStateTooLarge
}

func (s ExpansionStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ExpansionStrategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "fixed", "Fixed", "":
		*s = ExpansionStrategyFixed
	case "dynamic", "Dynamic":
		*s = ExpansionStrategyDynamic
	default:
		return fmt.Errorf("unknown expansion strategy %q", string(text))
	}
	return nil
}
