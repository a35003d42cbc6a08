package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/sqlinline"
)

type uploadedRow struct {
	ID               int64     `db:"id"`
	UUID             uuid.UUID `db:"uuid"`
	UserID           int64     `db:"user_id"`
	OriginalFilename string    `db:"original_filename"`
	StoredFilename   string    `db:"stored_filename"`
	ContentType      string    `db:"content_type"`
	FileSize         int64     `db:"file_size"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r uploadedRow) toDomain() domain.UploadedImage {
	return domain.UploadedImage{
		ID:               r.ID,
		UUID:             r.UUID,
		UserID:           r.UserID,
		OriginalFilename: r.OriginalFilename,
		StoredFilename:   r.StoredFilename,
		ContentType:      r.ContentType,
		FileSize:         r.FileSize,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

type generatedRow struct {
	ID              int64     `db:"id"`
	Filename        string    `db:"filename"`
	UploadedImageID int64     `db:"uploaded_image_id"`
	PromptID        int64     `db:"prompt_id"`
	UserID          int64     `db:"user_id"`
	GenerationIndex int       `db:"generation_index"`
	CreatedAt       time.Time `db:"created_at"`
}

// ImageRepository implements domain.ImageRepository on sqlite.
type ImageRepository struct {
	run runner
	now func() time.Time
}

func NewImageRepository(db *sqlx.DB, logger zerolog.Logger) *ImageRepository {
	return &ImageRepository{run: newRunner(db, logger), now: time.Now}
}

func (r *ImageRepository) CreateUploaded(ctx context.Context, img *domain.UploadedImage) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = r.now()
	}
	img.CreatedAt = img.CreatedAt.UTC()
	id, err := r.run.insert(ctx, sqlinline.QLiteInsertUploadedImage,
		img.UUID, img.UserID, img.OriginalFilename, img.StoredFilename, img.ContentType, img.FileSize, img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert uploaded image: %w", err)
	}
	img.ID = id
	return nil
}

func (r *ImageRepository) GetUploadedByUUID(ctx context.Context, id uuid.UUID, userID int64) (*domain.UploadedImage, error) {
	var row uploadedRow
	if err := r.run.get(ctx, &row, sqlinline.QLiteSelectUploadedImageByUUID, id, userID); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	img := row.toDomain()
	return &img, nil
}

func (r *ImageRepository) ListUploadedByUser(ctx context.Context, userID int64) ([]domain.UploadedImage, error) {
	var rows []uploadedRow
	if err := r.run.selectAll(ctx, &rows, sqlinline.QLiteListUploadedImagesByUser, userID); err != nil {
		return nil, err
	}
	images := make([]domain.UploadedImage, 0, len(rows))
	for _, row := range rows {
		images = append(images, row.toDomain())
	}
	return images, nil
}

func (r *ImageRepository) CreateGenerated(ctx context.Context, img *domain.GeneratedImage) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = r.now()
	}
	img.CreatedAt = img.CreatedAt.UTC()
	id, err := r.run.insert(ctx, sqlinline.QLiteInsertGeneratedImage,
		img.Filename, img.UploadedImageID, img.PromptID, img.UserID, img.GenerationIndex, img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert generated image: %w", err)
	}
	img.ID = id
	return nil
}

func (r *ImageRepository) ListGeneratedByUpload(ctx context.Context, uploadedImageID, userID int64) ([]domain.GeneratedImage, error) {
	var rows []generatedRow
	if err := r.run.selectAll(ctx, &rows, sqlinline.QLiteListGeneratedImagesByUpload, uploadedImageID, userID); err != nil {
		return nil, err
	}
	images := make([]domain.GeneratedImage, 0, len(rows))
	for _, row := range rows {
		images = append(images, domain.GeneratedImage{
			ID:              row.ID,
			Filename:        row.Filename,
			UploadedImageID: row.UploadedImageID,
			PromptID:        row.PromptID,
			UserID:          row.UserID,
			GenerationIndex: row.GenerationIndex,
			CreatedAt:       row.CreatedAt.UTC(),
		})
	}
	return images, nil
}

func (r *ImageRepository) CountGeneratedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	if err := r.run.get(ctx, &count, sqlinline.QLiteCountGeneratedImagesSince, userID, since.UTC()); err != nil {
		return 0, fmt.Errorf("count generated images: %w", err)
	}
	return count, nil
}

var _ domain.ImageRepository = (*ImageRepository)(nil)
