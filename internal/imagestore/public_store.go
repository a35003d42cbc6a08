package imagestore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagecodec"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/upload"
)

// WebConverter turns uploads into public web images.
type WebConverter interface {
	ToWeb(data []byte, quality int) ([]byte, error)
	CropToWeb(data []byte, area imagecodec.CropArea, quality int) ([]byte, error)
}

// StoredImage describes a file written into a category directory.
type StoredImage struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// PublicImageStore stores example images served without authentication, plus
// admin prompt test results.
type PublicImageStore struct {
	paths     *storage.Resolver
	files     *storage.FileStore
	validator *upload.Validator
	codec     WebConverter
	mirror    storage.Mirror
	logger    zerolog.Logger
	newUUID   func() uuid.UUID
}

// NewPublicImageStore builds the store; mirror may be nil.
func NewPublicImageStore(paths *storage.Resolver, files *storage.FileStore, validator *upload.Validator, codec WebConverter, mirror storage.Mirror, logger zerolog.Logger) *PublicImageStore {
	return &PublicImageStore{
		paths:     paths,
		files:     files,
		validator: validator,
		codec:     codec,
		mirror:    mirror,
		logger:    logger.With().Str("component", "public_image_store").Logger(),
		newUUID:   uuid.New,
	}
}

// Store validates the upload, optionally crops it, converts it to WebP and
// writes {uuid}.webp into category.
func (s *PublicImageStore) Store(ctx context.Context, file upload.File, category storage.Category, crop *imagecodec.CropArea) (*StoredImage, error) {
	if !s.paths.IsPubliclyAccessible(category) {
		return nil, fmt.Errorf("%w: category %q is not public", domain.ErrInvalidRequest, category)
	}
	if err := s.validator.Validate(file); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	if crop != nil {
		data, err = s.codec.CropToWeb(file.Data, *crop, imagecodec.WebQuality)
	} else {
		data, err = s.codec.ToWeb(file.Data, imagecodec.WebQuality)
	}
	if err != nil {
		return nil, err
	}

	filename := s.newUUID().String() + ".webp"
	stored, err := s.write(ctx, category, filename, data)
	if err != nil {
		return nil, err
	}
	if s.mirror != nil {
		key, _ := s.paths.Key(category, filename)
		if err := s.mirror.Put(ctx, key, data, "image/webp"); err != nil {
			// Local storage stays authoritative.
			s.logger.Warn().Err(err).Str("key", key).Msg("mirror upload failed")
		}
	}
	return stored, nil
}

// StorePromptTestResult keeps an admin prompt test image in the generated
// category.
func (s *PublicImageStore) StorePromptTestResult(ctx context.Context, data []byte) (*StoredImage, error) {
	filename := domain.GeneratedFilename(s.newUUID(), 1)
	return s.write(ctx, storage.CategoryGenerated, filename, data)
}

func (s *PublicImageStore) write(ctx context.Context, category storage.Category, filename string, data []byte) (*StoredImage, error) {
	key, err := s.paths.Key(category, filename)
	if err != nil {
		return nil, err
	}
	if _, err := s.files.Write(ctx, key, data); err != nil {
		return nil, domain.NewStorageError("write "+string(category), err)
	}
	url, err := s.paths.URL(category, filename)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("category", string(category)).Str("filename", filename).Int("bytes", len(data)).Msg("image stored")
	return &StoredImage{Filename: filename, URL: url}, nil
}
