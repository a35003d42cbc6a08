package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

const (
	markerInsertUploaded = "e4c08551-9d93-4806-9249-ff63dbd886e7"
	markerSelectUploaded = "655da45f-139d-409b-bcef-18beda5c4c2d"
	markerListUploaded   = "1d66bce9-f37d-48d2-b0c7-33f22c9c3ecc"
	markerInsertGen      = "6496266e-bde4-4977-887f-0455cd984395"
	markerCountGen       = "6dbff4c8-8f52-48cf-bfd8-8b8d288e0e95"
	markerSelectPrompt   = "336f7661-1898-4646-8b42-5dfe0cc90de2"
	markerListSlots      = "f12f3796-b312-4a09-9fba-2b72d3086486"
	markerInsertPrompt   = "3a8fc51a-29f2-483b-a546-36767420e865"
	markerInsertSlot     = "1d2cbf6c-2f57-463f-a053-c20f439e6881"
)

func TestImageRepositoryCreateUploadedAssignsIDAndTimestamp(t *testing.T) {
	exec := newStubExecutor()
	exec.rows[markerInsertUploaded] = [][]any{{int64(11)}}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewImageRepository(exec)
	repo.now = func() time.Time { return fixed }

	img := &domain.UploadedImage{UUID: uuid.New(), UserID: 42, StoredFilename: "x_original.png"}
	require.NoError(t, repo.CreateUploaded(context.Background(), img))
	require.Equal(t, int64(11), img.ID)
	require.Equal(t, fixed, img.CreatedAt)
	require.Len(t, exec.calls, 1)
	require.Equal(t, int64(42), exec.calls[0].args[1])
}

func TestImageRepositoryGetUploadedByUUIDMapsNoRowsToNotFound(t *testing.T) {
	repo := NewImageRepository(newStubExecutor())
	_, err := repo.GetUploadedByUUID(context.Background(), uuid.New(), 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImageRepositoryGetUploadedByUUIDScansRow(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	exec := newStubExecutor()
	exec.rows[markerSelectUploaded] = [][]any{{int64(3), id, int64(7), "cat.jpg", domain.OriginalFilename(id), "image/png", int64(512), created}}

	img, err := NewImageRepository(exec).GetUploadedByUUID(context.Background(), id, 7)
	require.NoError(t, err)
	require.Equal(t, id, img.UUID)
	require.Equal(t, "cat.jpg", img.OriginalFilename)
	require.Equal(t, []any{id, int64(7)}, exec.calls[0].args)
}

func TestImageRepositoryListUploadedByUser(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now().UTC()
	exec := newStubExecutor()
	exec.rows[markerListUploaded] = [][]any{
		{int64(2), b, int64(5), "b.png", domain.OriginalFilename(b), "image/png", int64(10), now},
		{int64(1), a, int64(5), "a.png", domain.OriginalFilename(a), "image/png", int64(20), now.Add(-time.Hour)},
	}

	images, err := NewImageRepository(exec).ListUploadedByUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.Equal(t, b, images[0].UUID)
	require.Equal(t, a, images[1].UUID)
}

func TestImageRepositoryCountGeneratedSince(t *testing.T) {
	exec := newStubExecutor()
	exec.rows[markerCountGen] = [][]any{{49}}
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	count, err := NewImageRepository(exec).CountGeneratedSince(context.Background(), 42, since)
	require.NoError(t, err)
	require.Equal(t, 49, count)
	require.Equal(t, since.UTC(), exec.calls[0].args[1])
}

func TestImageRepositoryCreateGeneratedWrapsErrors(t *testing.T) {
	exec := newStubExecutor()
	exec.errs[markerInsertGen] = errors.New("unique violation")
	err := NewImageRepository(exec).CreateGenerated(context.Background(), &domain.GeneratedImage{Filename: "f"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert generated image")
}

func TestPromptRepositoryGetByIDLoadsSlots(t *testing.T) {
	now := time.Now().UTC()
	exec := newStubExecutor()
	exec.rows[markerSelectPrompt] = [][]any{{int64(7), "Watercolor", "a watercolor painting of {subject}", true, now, now}}
	exec.rows[markerListSlots] = [][]any{
		{int64(1), "landscape", "mountain landscape", 0},
		{int64(2), "light", "golden hour", 1},
	}

	prompt, err := NewPromptRepository(exec).GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, prompt.Active)
	require.Len(t, prompt.Slots, 2)
	require.Equal(t, "mountain landscape", prompt.Slots[0].Text)
}

func TestPromptRepositoryGetByIDNotFound(t *testing.T) {
	_, err := NewPromptRepository(newStubExecutor()).GetByID(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrPromptNotFound)
}

func TestPromptRepositoryCreateUsesTransaction(t *testing.T) {
	exec := newStubExecutor()
	exec.rows[markerInsertPrompt] = [][]any{{int64(7)}}
	exec.rows[markerInsertSlot] = [][]any{{int64(1)}, {int64(2)}}

	prompt := &domain.Prompt{
		Title:  "Watercolor",
		Text:   "a watercolor painting",
		Active: true,
		Slots:  []domain.PromptSlot{{Name: "a", Text: "x", Position: 0}, {Name: "b", Text: "y", Position: 1}},
	}
	require.NoError(t, NewPromptRepository(exec).Create(context.Background(), prompt))
	require.Equal(t, 1, exec.txs)
	require.Equal(t, int64(7), prompt.ID)
	require.Equal(t, int64(2), prompt.Slots[1].ID)
	require.Equal(t, []string{markerInsertPrompt, markerInsertSlot, markerInsertSlot}, exec.markers())
	require.Equal(t, int64(7), exec.calls[1].args[0])
}
