// Package image holds the swappable image generation strategies. One strategy
// is chosen at startup and never changes while the process runs.
package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

const (
	DefaultBackground = "auto"
	DefaultQuality    = "auto"
	DefaultSize       = "1024x1024"
	MaxImages         = 10
)

var (
	backgrounds = []string{"auto", "transparent", "opaque"}
	qualities   = []string{"low", "medium", "high", "auto"}
	sizes       = []string{"1024x1024", "1536x1024", "1024x1536", "auto"}
)

// GenerationRequest selects a stored prompt and provider options.
type GenerationRequest struct {
	PromptID   int64
	Background string
	Quality    string
	Size       string
	N          int
}

// PromptTestRequest runs a raw prompt text once, without a stored prompt.
type PromptTestRequest struct {
	Prompt     string
	Background string
	Quality    string
	Size       string
}

// Strategy produces generated images from a canonical source image.
type Strategy interface {
	Name() string
	GenerateImages(ctx context.Context, image []byte, req GenerationRequest) ([][]byte, error)
	TestPrompt(ctx context.Context, image []byte, req PromptTestRequest) ([]byte, error)
}

// Normalize applies defaults and rejects values outside the supported enums.
func (r GenerationRequest) Normalize() (GenerationRequest, error) {
	if r.PromptID <= 0 {
		return r, fmt.Errorf("%w: promptId is required", domain.ErrInvalidRequest)
	}
	if r.N == 0 {
		r.N = 1
	}
	if r.N < 1 || r.N > MaxImages {
		return r, fmt.Errorf("%w: n must be between 1 and %d", domain.ErrInvalidRequest, MaxImages)
	}
	var err error
	if r.Background, r.Quality, r.Size, err = normalizeOptions(r.Background, r.Quality, r.Size); err != nil {
		return r, err
	}
	return r, nil
}

// Normalize applies defaults and rejects blank prompts or unknown options.
func (r PromptTestRequest) Normalize() (PromptTestRequest, error) {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return r, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	var err error
	if r.Background, r.Quality, r.Size, err = normalizeOptions(r.Background, r.Quality, r.Size); err != nil {
		return r, err
	}
	return r, nil
}

func normalizeOptions(background, quality, size string) (string, string, string, error) {
	var err error
	if background, err = pick("background", background, DefaultBackground, backgrounds); err != nil {
		return "", "", "", err
	}
	if quality, err = pick("quality", quality, DefaultQuality, qualities); err != nil {
		return "", "", "", err
	}
	if size, err = pick("size", size, DefaultSize, sizes); err != nil {
		return "", "", "", err
	}
	return background, quality, size, nil
}

func pick(field, value, fallback string, allowed []string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback, nil
	}
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s must be one of %s", domain.ErrInvalidRequest, field, strings.Join(allowed, ", "))
}
