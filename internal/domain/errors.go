package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidUpload    = errors.New("invalid upload")
	ErrInvalidCropArea  = errors.New("invalid crop area")
	ErrPromptNotFound   = errors.New("prompt not found")
	ErrPromptInactive   = errors.New("prompt inactive")
	ErrStorageIO        = errors.New("storage io error")
	ErrGenerationFailed = errors.New("generation failed")

	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Upload rejections all match ErrInvalidUpload.
var (
	ErrEmptyFile       = fmt.Errorf("%w: empty file", ErrInvalidUpload)
	ErrTooLarge        = fmt.Errorf("%w: file too large", ErrInvalidUpload)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported content type", ErrInvalidUpload)
)

// RateLimitError carries the ceiling and window that were hit so callers can
// render a user-facing message.
type RateLimitError struct {
	Limit  int
	Window time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d generations per %s", e.Limit, e.Window)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// StorageError wraps a filesystem or persistence failure. The cause is kept
// for logging and never rendered to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageIO
}

// NewStorageError returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// GenerationError wraps a provider or transport failure.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
