package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PromptLookup resolves prompts by id. Missing prompts return ErrPromptNotFound.
type PromptLookup interface {
	GetByID(ctx context.Context, id int64) (*Prompt, error)
}

// PromptRepository adds the write side used for seeding and administration.
type PromptRepository interface {
	PromptLookup
	Create(ctx context.Context, prompt *Prompt) error
}

// UploadedImageRepository persists originals. Lookups are always scoped by owner.
type UploadedImageRepository interface {
	CreateUploaded(ctx context.Context, img *UploadedImage) error
	GetUploadedByUUID(ctx context.Context, id uuid.UUID, userID int64) (*UploadedImage, error)
	ListUploadedByUser(ctx context.Context, userID int64) ([]UploadedImage, error)
}

// GeneratedImageRepository persists generated derivatives.
type GeneratedImageRepository interface {
	CreateGenerated(ctx context.Context, img *GeneratedImage) error
	ListGeneratedByUpload(ctx context.Context, uploadedImageID, userID int64) ([]GeneratedImage, error)
	CountGeneratedSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// ImageRepository is the combined persistence port used by the image store.
type ImageRepository interface {
	UploadedImageRepository
	GeneratedImageRepository
}
