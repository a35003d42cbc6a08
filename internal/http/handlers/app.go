package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/generation"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagecodec"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagestore"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/metrics"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/middleware"
	providerimage "github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/image"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/upload"
)

// multipartOverhead is allowed on top of the upload ceiling for form fields
// and part headers.
const multipartOverhead = 1 << 20

type Generator interface {
	GenerateForUser(ctx context.Context, file upload.File, req providerimage.GenerationRequest, userID int64) (*generation.Result, error)
	TestPrompt(ctx context.Context, file upload.File, req providerimage.PromptTestRequest) (*generation.PromptTestResult, error)
	StrategyName() string
}

type UserImages interface {
	GetUserImageData(ctx context.Context, filename string, requesterID int64) ([]byte, string, error)
	GetUploadedImageByUUID(ctx context.Context, id uuid.UUID, userID int64) (*domain.UploadedImage, error)
	GetUserUploadedImages(ctx context.Context, userID int64) ([]domain.UploadedImage, error)
	GetGeneratedImages(ctx context.Context, parent *domain.UploadedImage) ([]domain.GeneratedImage, error)
}

type PublicImages interface {
	Store(ctx context.Context, file upload.File, category storage.Category, crop *imagecodec.CropArea) (*imagestore.StoredImage, error)
}

// Quota reports how many generations a user has left in the rate-limit window.
type Quota interface {
	Remaining(ctx context.Context, userID int64) (int, error)
}

type App struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Generator    Generator
	UserImages   UserImages
	PublicImages PublicImages
	Paths        *storage.Resolver
	Files        *storage.FileStore
	Metrics      *metrics.Recorder
	// Quota backs the X-RateLimit-Remaining header; nil omits it.
	Quota Quota
	// Ping checks the database for the health endpoint; nil skips the check.
	Ping func(ctx context.Context) error
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Limit       int    `json:"limit,omitempty"`
	WindowHours int    `json:"window_hours,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Code: errCode, Message: message})
}

func (a *App) currentUserID(r *http.Request) int64 {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) maxUploadBytes() int64 {
	if a.Config != nil && a.Config.MaxUploadBytes > 0 {
		return a.Config.MaxUploadBytes
	}
	return infra.DefaultMaxUploadBytes
}

// readUpload parses the multipart body and returns the file in field. Bodies
// above the upload ceiling fail with domain.ErrTooLarge before being buffered.
func (a *App) readUpload(w http.ResponseWriter, r *http.Request, field string) (upload.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload.File{}, domain.ErrTooLarge
		}
		return upload.File{}, fmt.Errorf("%w: expected multipart/form-data", domain.ErrInvalidRequest)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return upload.File{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, field)
		}
		return upload.File{}, fmt.Errorf("%w: unreadable %s", domain.ErrInvalidRequest, field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload.File{}, fmt.Errorf("%w: unreadable %s", domain.ErrInvalidRequest, field)
	}
	return upload.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

// formInt parses an optional integer form value; missing values return 0.
func formInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, key)
	}
	return v, nil
}
