package handlers

import (
	"errors"
	"net/http"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

// writeDomainError renders err as a stable {code, message} payload. Causes of
// server-side failures are logged and never sent to the client.
func (a *App) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var rle *domain.RateLimitError
	switch {
	case errors.Is(err, domain.ErrEmptyFile):
		a.error(w, http.StatusBadRequest, "empty_file", "the uploaded file is empty")
	case errors.Is(err, domain.ErrTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "file_too_large", "the uploaded file is too large")
	case errors.Is(err, domain.ErrUnsupportedType):
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_type", "unsupported image type")
	case errors.Is(err, domain.ErrInvalidUpload):
		a.error(w, http.StatusBadRequest, "invalid_upload", "invalid upload")
	case errors.As(err, &rle):
		a.json(w, http.StatusTooManyRequests, errorResponse{
			Code:        "rate_limit_exceeded",
			Message:     "image generation limit reached, please try again later",
			Limit:       rle.Limit,
			WindowHours: int(rle.Window.Hours()),
		})
	case errors.Is(err, domain.ErrInvalidCropArea):
		a.error(w, http.StatusBadRequest, "invalid_crop_area", "crop area is outside the image")
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrPromptNotFound):
		a.error(w, http.StatusNotFound, "prompt_not_found", "prompt not found")
	case errors.Is(err, domain.ErrPromptInactive):
		a.error(w, http.StatusUnprocessableEntity, "prompt_inactive", "prompt is not active")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrGenerationFailed):
		a.logFailure(r, err)
		a.error(w, http.StatusBadGateway, "generation_failed", "image generation failed, please retry")
	case errors.Is(err, domain.ErrStorageIO):
		a.logFailure(r, err)
		a.error(w, http.StatusInternalServerError, "storage_error", "could not store image")
	default:
		a.logFailure(r, err)
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) logFailure(r *http.Request, err error) {
	a.Logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
}
