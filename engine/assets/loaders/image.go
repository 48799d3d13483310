package loaders

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// maxSourceBytes bounds how much of a file or response body is read.
const maxSourceBytes = 64 << 20

// ImageLoader decodes png, jpeg, gif, bmp, webp and tiff images from a file
// path or an http(s) URL into non-premultiplied RGBA pixels.
type ImageLoader struct {
	client *http.Client
}

// NewImageLoader returns a loader fetching URLs with client, or with
// http.DefaultClient when client is nil.
func NewImageLoader(client *http.Client) *ImageLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &ImageLoader{client: client}
}

func (il *ImageLoader) Load(ctx context.Context, path string, params interface{}) (*metadata.Resource, error) {
	typedParams, _ := params.(*metadata.ImageResourceParams)
	if typedParams == nil {
		typedParams = &metadata.ImageResourceParams{}
	}

	raw, err := il.read(ctx, path)
	if err != nil {
		return nil, err
	}

	// Header first: refuse oversized images before paying for a full decode.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image '%s': %w", path, err)
	}
	if limit := typedParams.MaxDimension; limit > 0 && (cfg.Width > limit || cfg.Height > limit) {
		return nil, fmt.Errorf("image '%s' is %dx%d, limit %d: %w", path, cfg.Width, cfg.Height, limit, core.ErrTextureTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s image '%s': %w", format, path, err)
	}

	nrgba := Rasterize(img, typedParams.FlipY)
	b := nrgba.Bounds()
	return &metadata.Resource{
		Name:     path,
		FullPath: path,
		DataSize: uint64(len(nrgba.Pix)),
		Data: &metadata.ImageResourceData{
			ChannelCount:    4,
			Width:           uint32(b.Dx()),
			Height:          uint32(b.Dy()),
			Pixels:          nrgba.Pix,
			HasTransparency: !nrgba.Opaque(),
		},
	}, nil
}

func (il *ImageLoader) Unload(res *metadata.Resource) error {
	if res != nil {
		res.Data = nil
		res.DataSize = 0
	}
	return nil
}

func (il *ImageLoader) read(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := il.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch '%s': %s", path, resp.Status)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	}

	file, err := os.Open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxSourceBytes))
}

// Rasterize converts img into a tightly packed, origin-based NRGBA image.
func Rasterize(img image.Image, flipY bool) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	if flipY {
		flipRows(dst)
	}
	return dst
}

func flipRows(img *image.NRGBA) {
	h := img.Bounds().Dy()
	row := make([]uint8, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
