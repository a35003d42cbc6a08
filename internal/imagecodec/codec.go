// Package imagecodec decodes uploads, crops them and converts them to the
// canonical storage format (PNG) or the public web format (WebP).
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

// WebQuality is the WebP quality used for public example images.
const WebQuality = 90

// CropArea is a rectangle in source pixel space.
type CropArea struct {
	X      int
	Y      int
	Width  int
	Height int
}

// decodable lists the registered image formats accepted as input. imaging
// also registers gif, bmp and tiff, which are refused.
var decodable = map[string]struct{}{
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// Codec is stateless and safe for concurrent use.
type Codec struct{}

func New() *Codec {
	return &Codec{}
}

// Decode reads any supported input, applying EXIF orientation so callers see
// the image the way it is displayed.
func (c *Codec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrUnsupportedType, err)
	}
	if _, ok := decodable[format]; !ok {
		return nil, fmt.Errorf("%w: %s images are not accepted", domain.ErrUnsupportedType, format)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrUnsupportedType, err)
	}
	return img, nil
}

// Dimensions returns width and height after orientation is applied.
func (c *Codec) Dimensions(data []byte) (int, int, error) {
	img, err := c.Decode(data)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Crop cuts area out of the image and re-encodes it losslessly.
func (c *Codec) Crop(data []byte, area CropArea) ([]byte, error) {
	img, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	cropped, err := cropImage(img, area)
	if err != nil {
		return nil, err
	}
	return encodePNG(cropped)
}

// ToCanonical converts any supported input to PNG.
func (c *Codec) ToCanonical(data []byte) ([]byte, error) {
	img, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// ToWeb converts any supported input to lossy WebP at quality (0-100).
func (c *Codec) ToWeb(data []byte, quality int) ([]byte, error) {
	img, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return encodeWebP(img, quality)
}

// CropToWeb crops and converts to WebP in one decode.
func (c *Codec) CropToWeb(data []byte, area CropArea, quality int) ([]byte, error) {
	img, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	cropped, err := cropImage(img, area)
	if err != nil {
		return nil, err
	}
	return encodeWebP(cropped, quality)
}

func cropImage(img image.Image, area CropArea) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if area.X < 0 || area.Y < 0 || area.Width <= 0 || area.Height <= 0 ||
		area.X+area.Width > w || area.Y+area.Height > h {
		return nil, fmt.Errorf("%w: %dx%d+%d+%d outside %dx%d",
			domain.ErrInvalidCropArea, area.Width, area.Height, area.X, area.Y, w, h)
	}
	rect := image.Rect(area.X, area.Y, area.X+area.Width, area.Y+area.Height).Add(b.Min)
	return imaging.Crop(img, rect), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("webp quality %d out of range", quality)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(quality)}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
