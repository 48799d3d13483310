package components

import (
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/math"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/ui"
)

// maxOrderInLayer keeps SortKey(layer, order) monotonic in the layer.
const maxOrderInLayer = 99999

/** @brief Field schema of UIImage, used by serialization and editor tooling. */
var UIImageSchema = metadata.Schema{
	Component: "UIImage",
	Fields: []metadata.FieldSchema{
		{Name: "texture", Type: metadata.FieldTypeString, Default: ""},
		{Name: "color", Type: metadata.FieldTypeColor, Default: math.NewVec4(1, 1, 1, 1)},
		{Name: "alpha", Type: metadata.FieldTypeFloat, Min: metadata.Bound(0), Max: metadata.Bound(1), Default: float32(1)},
		{Name: "uv", Type: metadata.FieldTypeVec4, Default: [4]float32{0, 0, 1, 1}},
		{Name: "sortingLayer", Type: metadata.FieldTypeInt, Min: metadata.Bound(-10000), Max: metadata.Bound(10000), Default: 0},
		{Name: "orderInLayer", Type: metadata.FieldTypeInt, Min: metadata.Bound(-maxOrderInLayer), Max: metadata.Bound(maxOrderInLayer), Default: 0},
		{Name: "material", Type: metadata.FieldTypeInt, Min: metadata.Bound(0), Default: 0},
		{Name: "ninePatch", Type: metadata.FieldTypeVec4, Default: [4]float32{}},
		{Name: "visible", Type: metadata.FieldTypeBool, Default: true},
	},
}

// Layout is the world transform a layout producer computed for an element.
type Layout struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	Rotation float32
	PivotX   float32
	PivotY   float32
}

/**
 * @brief A textured (or solid) UI rectangle. Fields are only changed through
 * setters, which report whether the value actually changed so callers can
 * skip relayout and resubmission.
 */
type UIImage struct {
	EntityID uint64

	textureGUID  string
	color        math.Vec4
	alpha        float32
	uv           [4]float32
	sortingLayer int
	orderInLayer int
	material     uint32
	margins      [4]float32
	sourceW      float32
	sourceH      float32
	visible      bool

	isDirty bool
}

func NewUIImage(entityID uint64) *UIImage {
	img := &UIImage{EntityID: entityID}
	img.Reset()
	return img
}

func (img *UIImage) Reset() {
	img.textureGUID = ""
	img.color = math.NewVec4(1, 1, 1, 1)
	img.alpha = 1
	img.uv = [4]float32{0, 0, 1, 1}
	img.sortingLayer = 0
	img.orderInLayer = 0
	img.material = 0
	img.margins = [4]float32{}
	img.sourceW, img.sourceH = 0, 0
	img.visible = true
	img.isDirty = true
}

func (img *UIImage) IsDirty() bool {
	return img.isDirty
}

func (img *UIImage) ClearDirty() {
	img.isDirty = false
}

func (img *UIImage) changed() bool {
	img.isDirty = true
	return true
}

func (img *UIImage) Texture() string {
	return img.textureGUID
}

func (img *UIImage) SetTexture(guid string) bool {
	if img.textureGUID == guid {
		return false
	}
	img.textureGUID = guid
	return img.changed()
}

func (img *UIImage) Color() math.Vec4 {
	return img.color
}

func (img *UIImage) SetColor(c math.Vec4) bool {
	if img.color == c {
		return false
	}
	img.color = c
	return img.changed()
}

func (img *UIImage) Alpha() float32 {
	return img.alpha
}

func (img *UIImage) SetAlpha(a float32) bool {
	a = clampField("alpha", a)
	if img.alpha == a {
		return false
	}
	img.alpha = a
	return img.changed()
}

func (img *UIImage) SetUV(uv [4]float32) bool {
	if img.uv == uv {
		return false
	}
	img.uv = uv
	return img.changed()
}

func (img *UIImage) SortingLayer() int {
	return img.sortingLayer
}

func (img *UIImage) SetSortingLayer(layer int) bool {
	layer = int(clampField("sortingLayer", float32(layer)))
	if img.sortingLayer == layer {
		return false
	}
	img.sortingLayer = layer
	return img.changed()
}

func (img *UIImage) OrderInLayer() int {
	return img.orderInLayer
}

func (img *UIImage) SetOrderInLayer(order int) bool {
	order = int(clampField("orderInLayer", float32(order)))
	if img.orderInLayer == order {
		return false
	}
	img.orderInLayer = order
	return img.changed()
}

func (img *UIImage) SetMaterial(id uint32) bool {
	if img.material == id {
		return false
	}
	img.material = id
	return img.changed()
}

// SetNinePatch enables nine-patch drawing. Zero margins disable it.
func (img *UIImage) SetNinePatch(margins [4]float32, sourceWidth, sourceHeight float32) bool {
	if img.margins == margins && img.sourceW == sourceWidth && img.sourceH == sourceHeight {
		return false
	}
	img.margins = margins
	img.sourceW, img.sourceH = sourceWidth, sourceHeight
	return img.changed()
}

func (img *UIImage) IsNinePatch() bool {
	return img.margins != [4]float32{}
}

func (img *UIImage) Visible() bool {
	return img.visible
}

func (img *UIImage) SetVisible(v bool) bool {
	if img.visible == v {
		return false
	}
	img.visible = v
	return img.changed()
}

// Submit emits the image at layout into c and returns how many quads it
// produced. Invisible images and images without area emit nothing.
func (img *UIImage) Submit(c *ui.RenderPrimitiveCollector, layout Layout) int {
	if !img.visible || layout.Width <= 0 || layout.Height <= 0 {
		return 0
	}
	color := img.color
	color.W *= img.alpha
	rect := ui.RectParams{
		X:            layout.X,
		Y:            layout.Y,
		Width:        layout.Width,
		Height:       layout.Height,
		Rotation:     layout.Rotation,
		PivotX:       layout.PivotX,
		PivotY:       layout.PivotY,
		Color:        color,
		SortingLayer: img.sortingLayer,
		OrderInLayer: img.orderInLayer,
		TextureGUID:  img.textureGUID,
		UV:           img.uv,
		MaterialID:   img.material,
		EntityID:     img.EntityID,
	}
	img.isDirty = false
	if img.IsNinePatch() {
		return c.AddNinePatch(ui.NinePatchParams{
			RectParams:   rect,
			Margins:      img.margins,
			SourceWidth:  img.sourceW,
			SourceHeight: img.sourceH,
		})
	}
	c.AddRect(rect)
	return 1
}

// clampField clamps v into the schema bounds of the named field.
func clampField(name string, v float32) float32 {
	f, ok := UIImageSchema.Field(name)
	if !ok {
		return v
	}
	out := v
	if f.Min != nil && float64(out) < *f.Min {
		out = float32(*f.Min)
	}
	if f.Max != nil && float64(out) > *f.Max {
		out = float32(*f.Max)
	}
	if out != v {
		core.LogDebug("UIImage.%s: %v clamped to %v", name, v, out)
	}
	return out
}
