package imagecodec

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

func sampleImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sampleImage(w, h), &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func encodePNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage(w, h)))
	return buf.Bytes()
}

func TestDimensions(t *testing.T) {
	w, h, err := New().Dimensions(encodeJPEG(t, 40, 30))
	require.NoError(t, err)
	require.Equal(t, 40, w)
	require.Equal(t, 30, h)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := New().ToCanonical([]byte("definitely not an image"))
	require.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = New().ToCanonical(nil)
	require.ErrorIs(t, err, domain.ErrEmptyFile)
}

func TestToCanonicalProducesPNG(t *testing.T) {
	out, err := New().ToCanonical(encodeJPEG(t, 20, 10))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 20, cfg.Width)
	require.Equal(t, 10, cfg.Height)
}

func TestCropBounds(t *testing.T) {
	src := encodePNGBytes(t, 50, 40)
	codec := New()

	outOfBounds := []CropArea{
		{X: -1, Y: 0, Width: 10, Height: 10},
		{X: 0, Y: -1, Width: 10, Height: 10},
		{X: 41, Y: 0, Width: 10, Height: 10},
		{X: 0, Y: 31, Width: 10, Height: 10},
		{X: 0, Y: 0, Width: 51, Height: 40},
		{X: 0, Y: 0, Width: 0, Height: 10},
	}
	for _, area := range outOfBounds {
		_, err := codec.Crop(src, area)
		require.ErrorIs(t, err, domain.ErrInvalidCropArea, "%+v", area)
	}

	inBounds := []CropArea{
		{X: 0, Y: 0, Width: 50, Height: 40},
		{X: 40, Y: 30, Width: 10, Height: 10},
		{X: 5, Y: 7, Width: 1, Height: 1},
		{X: 12, Y: 3, Width: 25, Height: 19},
	}
	for _, area := range inBounds {
		out, err := codec.Crop(src, area)
		require.NoError(t, err, "%+v", area)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		require.Equal(t, "png", format)
		require.Equal(t, area.Width, cfg.Width)
		require.Equal(t, area.Height, cfg.Height)
	}
}

func TestCropKeepsPixels(t *testing.T) {
	src := encodePNGBytes(t, 50, 40)
	out, err := New().Crop(src, CropArea{X: 10, Y: 5, Width: 4, Height: 4})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, _, _ := img.At(0, 0).RGBA()
	require.Equal(t, uint32(40), r>>8)
	require.Equal(t, uint32(20), g>>8)
}

func TestToWebProducesWebP(t *testing.T) {
	codec := New()
	out, err := codec.ToWeb(encodeJPEG(t, 32, 24), WebQuality)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("RIFF")))
	require.Equal(t, []byte("WEBP"), out[8:12])

	w, h, err := codec.Dimensions(out)
	require.NoError(t, err)
	require.Equal(t, 32, w)
	require.Equal(t, 24, h)
}

func TestCropToWeb(t *testing.T) {
	out, err := New().CropToWeb(encodePNGBytes(t, 50, 40), CropArea{X: 10, Y: 10, Width: 20, Height: 16}, WebQuality)
	require.NoError(t, err)
	w, h, err := New().Dimensions(out)
	require.NoError(t, err)
	require.Equal(t, 20, w)
	require.Equal(t, 16, h)

	_, err = New().ToWeb(encodePNGBytes(t, 4, 4), 101)
	require.Error(t, err)
}

func TestDecodeRejectsFormatsOutsideInputSet(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	_, err := New().ToCanonical(buf.Bytes())
	require.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = New().ToWeb(encodePNGBytes(t, 8, 8), WebQuality)
	require.NoError(t, err)
}
