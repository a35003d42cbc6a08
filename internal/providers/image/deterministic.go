package image

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"sync"
)

// DeterministicTestStrategy returns a fixed PNG for every requested image
// without any network call.
type DeterministicTestStrategy struct {
	once   sync.Once
	canned []byte
}

func NewDeterministicTestStrategy() *DeterministicTestStrategy {
	return &DeterministicTestStrategy{}
}

func (s *DeterministicTestStrategy) Name() string {
	return "test"
}

func (s *DeterministicTestStrategy) GenerateImages(ctx context.Context, image []byte, req GenerationRequest) ([][]byte, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]byte, req.N)
	for i := range out {
		out[i] = s.Canned()
	}
	return out, nil
}

func (s *DeterministicTestStrategy) TestPrompt(ctx context.Context, image []byte, req PromptTestRequest) ([]byte, error) {
	if _, err := req.Normalize(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Canned(), nil
}

// Canned returns a copy of the fixed image.
func (s *DeterministicTestStrategy) Canned() []byte {
	s.once.Do(func() {
		img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 0x80, A: 0xff})
			}
		}
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		s.canned = buf.Bytes()
	})
	return append([]byte(nil), s.canned...)
}

var _ Strategy = (*DeterministicTestStrategy)(nil)
