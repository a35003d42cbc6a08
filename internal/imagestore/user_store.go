// Package imagestore persists originals and generated images per user and
// serves them back only to their owner.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/upload"
)

// Canonicalizer converts validated upload bytes to the canonical format.
type Canonicalizer interface {
	ToCanonical(data []byte) ([]byte, error)
}

// UserImageStore writes into {root}/private/images/{userID}. Files must be
// rooted at the same directory as Paths.
type UserImageStore struct {
	paths     *storage.Resolver
	files     *storage.FileStore
	repo      domain.ImageRepository
	validator *upload.Validator
	codec     Canonicalizer
	logger    zerolog.Logger
	newUUID   func() uuid.UUID
}

func NewUserImageStore(
	paths *storage.Resolver,
	files *storage.FileStore,
	repo domain.ImageRepository,
	validator *upload.Validator,
	codec Canonicalizer,
	logger zerolog.Logger,
) *UserImageStore {
	return &UserImageStore{
		paths:     paths,
		files:     files,
		repo:      repo,
		validator: validator,
		codec:     codec,
		logger:    logger.With().Str("component", "user_image_store").Logger(),
		newUUID:   uuid.New,
	}
}

// StoreUploaded validates and canonicalises the upload, writes it as
// {uuid}_original.png and records it. The canonical bytes are returned so the
// caller can feed them to generation without reading the file back.
func (s *UserImageStore) StoreUploaded(ctx context.Context, file upload.File, userID int64) (*domain.UploadedImage, []byte, error) {
	if err := s.validator.Validate(file); err != nil {
		return nil, nil, err
	}
	canonical, err := s.codec.ToCanonical(file.Data)
	if err != nil {
		return nil, nil, err
	}

	id := s.newUUID()
	filename := domain.OriginalFilename(id)
	key := s.paths.UserKey(userID, filename)
	if _, err := s.files.Write(ctx, key, canonical); err != nil {
		return nil, nil, domain.NewStorageError("write original", err)
	}

	img := &domain.UploadedImage{
		UUID:             id,
		UserID:           userID,
		OriginalFilename: upload.SanitizeFilename(file.Filename),
		StoredFilename:   filename,
		ContentType:      domain.CanonicalContentType,
		FileSize:         int64(len(canonical)),
	}
	if err := s.repo.CreateUploaded(ctx, img); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("orphan_key", key).Msg("original written but record not persisted")
		return nil, nil, domain.NewStorageError("persist original", err)
	}

	s.logger.Info().Int64("user_id", userID).Str("uuid", id.String()).Int64("bytes", img.FileSize).Msg("original stored")
	return img, canonical, nil
}

// StoreGenerated writes one generated image next to its original. index is
// 1-based within the generation batch.
func (s *UserImageStore) StoreGenerated(ctx context.Context, data []byte, parent *domain.UploadedImage, promptID int64, index int) (*domain.GeneratedImage, error) {
	if parent == nil || index < 1 {
		return nil, fmt.Errorf("%w: generated image needs a parent and an index >= 1", domain.ErrInvalidRequest)
	}
	filename := domain.GeneratedFilename(parent.UUID, index)
	key := s.paths.UserKey(parent.UserID, filename)
	if _, err := s.files.Write(ctx, key, data); err != nil {
		return nil, domain.NewStorageError("write generated", err)
	}

	img := &domain.GeneratedImage{
		Filename:        filename,
		UploadedImageID: parent.ID,
		PromptID:        promptID,
		UserID:          parent.UserID,
		GenerationIndex: index,
	}
	if err := s.repo.CreateGenerated(ctx, img); err != nil {
		s.logger.Error().Err(err).Int64("user_id", parent.UserID).Str("orphan_key", key).Msg("generated image written but record not persisted")
		return nil, domain.NewStorageError("persist generated", err)
	}
	return img, nil
}

// GetUserImageData reads filename from the requester's own directory. Another
// user's file therefore resolves to a path that does not exist.
func (s *UserImageStore) GetUserImageData(ctx context.Context, filename string, requesterID int64) ([]byte, string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return nil, "", domain.ErrNotFound
	}
	userDir := s.paths.UserDir(requesterID)
	resolved := filepath.Clean(filepath.Join(userDir, filename))
	if filepath.Dir(resolved) != userDir {
		return nil, "", domain.ErrNotFound
	}

	data, err := s.files.Read(ctx, s.paths.UserKey(requesterID, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", domain.NewStorageError("read image", err)
	}
	return data, contentTypeFor(filename), nil
}

func (s *UserImageStore) GetUploadedImageByUUID(ctx context.Context, id uuid.UUID, userID int64) (*domain.UploadedImage, error) {
	return s.repo.GetUploadedByUUID(ctx, id, userID)
}

// GetUserUploadedImages lists every original of the user, unpaginated.
func (s *UserImageStore) GetUserUploadedImages(ctx context.Context, userID int64) ([]domain.UploadedImage, error) {
	return s.repo.ListUploadedByUser(ctx, userID)
}

// GetGeneratedImages lists the generated images of an upload in generation order.
func (s *UserImageStore) GetGeneratedImages(ctx context.Context, parent *domain.UploadedImage) ([]domain.GeneratedImage, error) {
	return s.repo.ListGeneratedByUpload(ctx, parent.ID, parent.UserID)
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
