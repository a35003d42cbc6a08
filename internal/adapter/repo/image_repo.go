package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/sqlinline"
)

// ImageRepositoryPG implements domain.ImageRepository on PostgreSQL.
type ImageRepositoryPG struct {
	sql infra.SQLExecutor
	now func() time.Time
}

// NewImageRepository constructs a postgres image repository.
func NewImageRepository(sql infra.SQLExecutor) *ImageRepositoryPG {
	return &ImageRepositoryPG{sql: sql, now: time.Now}
}

// CreateUploaded inserts the record and fills in its id and creation time.
func (r *ImageRepositoryPG) CreateUploaded(ctx context.Context, img *domain.UploadedImage) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = r.now().UTC()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUploadedImage,
		img.UUID,
		img.UserID,
		img.OriginalFilename,
		img.StoredFilename,
		img.ContentType,
		img.FileSize,
		img.CreatedAt,
	)
	if err := row.Scan(&img.ID); err != nil {
		return fmt.Errorf("insert uploaded image: %w", err)
	}
	return nil
}

// GetUploadedByUUID returns domain.ErrNotFound unless the uuid exists and is owned by userID.
func (r *ImageRepositoryPG) GetUploadedByUUID(ctx context.Context, id uuid.UUID, userID int64) (*domain.UploadedImage, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUploadedImageByUUID, id, userID)
	img, err := scanUploaded(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return img, nil
}

// ListUploadedByUser returns the user's originals, newest first.
func (r *ImageRepositoryPG) ListUploadedByUser(ctx context.Context, userID int64) ([]domain.UploadedImage, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListUploadedImagesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.UploadedImage
	for rows.Next() {
		img, err := scanUploaded(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepositoryPG) CreateGenerated(ctx context.Context, img *domain.GeneratedImage) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = r.now().UTC()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertGeneratedImage,
		img.Filename,
		img.UploadedImageID,
		img.PromptID,
		img.UserID,
		img.GenerationIndex,
		img.CreatedAt,
	)
	if err := row.Scan(&img.ID); err != nil {
		return fmt.Errorf("insert generated image: %w", err)
	}
	return nil
}

func (r *ImageRepositoryPG) ListGeneratedByUpload(ctx context.Context, uploadedImageID, userID int64) ([]domain.GeneratedImage, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListGeneratedImagesByUpload, uploadedImageID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.GeneratedImage
	for rows.Next() {
		var img domain.GeneratedImage
		if err := rows.Scan(&img.ID, &img.Filename, &img.UploadedImageID, &img.PromptID, &img.UserID, &img.GenerationIndex, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// CountGeneratedSince counts the user's generated images created at or after since.
func (r *ImageRepositoryPG) CountGeneratedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountGeneratedImagesSince, userID, since.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count generated images: %w", err)
	}
	return count, nil
}

func scanUploaded(row pgx.Row) (*domain.UploadedImage, error) {
	var img domain.UploadedImage
	if err := row.Scan(
		&img.ID,
		&img.UUID,
		&img.UserID,
		&img.OriginalFilename,
		&img.StoredFilename,
		&img.ContentType,
		&img.FileSize,
		&img.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}

var _ domain.ImageRepository = (*ImageRepositoryPG)(nil)
