package imagestore

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

type memoryRepo struct {
	mu          sync.Mutex
	uploads     []domain.UploadedImage
	generated   []domain.GeneratedImage
	failCreates error
}

func (r *memoryRepo) CreateUploaded(ctx context.Context, img *domain.UploadedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates != nil {
		return r.failCreates
	}
	img.ID = int64(len(r.uploads) + 1)
	img.CreatedAt = time.Now().UTC()
	r.uploads = append(r.uploads, *img)
	return nil
}

func (r *memoryRepo) GetUploadedByUUID(ctx context.Context, id uuid.UUID, userID int64) (*domain.UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.uploads {
		if img.UUID == id && img.UserID == userID {
			out := img
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) ListUploadedByUser(ctx context.Context, userID int64) ([]domain.UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UploadedImage
	for i := len(r.uploads) - 1; i >= 0; i-- {
		if r.uploads[i].UserID == userID {
			out = append(out, r.uploads[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateGenerated(ctx context.Context, img *domain.GeneratedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates != nil {
		return r.failCreates
	}
	img.ID = int64(len(r.generated) + 1)
	img.CreatedAt = time.Now().UTC()
	r.generated = append(r.generated, *img)
	return nil
}

func (r *memoryRepo) ListGeneratedByUpload(ctx context.Context, uploadedImageID, userID int64) ([]domain.GeneratedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.GeneratedImage
	for _, img := range r.generated {
		if img.UploadedImageID == uploadedImageID && img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *memoryRepo) CountGeneratedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, img := range r.generated {
		if img.UserID == userID && !img.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
