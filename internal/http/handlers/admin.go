package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagecodec"
	providerimage "github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/image"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
)

// AdminUploadImage handles POST /api/admin/images. The crop is applied only
// when all four crop fields are present.
func (a *App) AdminUploadImage(w http.ResponseWriter, r *http.Request) {
	file, err := a.readUpload(w, r, "image")
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}
	category, err := storage.ParseCategory(strings.TrimSpace(r.FormValue("category")))
	if err != nil {
		a.writeDomainError(w, r, fmt.Errorf("%w: unknown category", domain.ErrInvalidRequest))
		return
	}
	crop, err := parseCrop(r)
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}

	stored, err := a.PublicImages.Store(r.Context(), file, category, crop)
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, stored)
}

// AdminTestPrompt handles POST /api/admin/prompts/test.
func (a *App) AdminTestPrompt(w http.ResponseWriter, r *http.Request) {
	file, err := a.readUpload(w, r, "image")
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}
	res, err := a.Generator.TestPrompt(r.Context(), file, providerimage.PromptTestRequest{
		Prompt:     r.FormValue("prompt"),
		Background: r.FormValue("background"),
		Quality:    r.FormValue("quality"),
		Size:       r.FormValue("size"),
	})
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

// AdminImage handles GET /api/admin/images/{filename} for any category.
func (a *App) AdminImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	category, ok := a.Paths.FindCategoryForFilename(filename)
	if !ok {
		a.writeDomainError(w, r, domain.ErrNotFound)
		return
	}
	key, err := a.Paths.Key(category, filename)
	if err != nil {
		a.writeDomainError(w, r, domain.ErrNotFound)
		return
	}
	data, err := a.Files.Read(r.Context(), key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.writeDomainError(w, r, domain.ErrNotFound)
			return
		}
		a.writeDomainError(w, r, domain.NewStorageError("read image", err))
		return
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseCrop(r *http.Request) (*imagecodec.CropArea, error) {
	fields := []string{"cropX", "cropY", "cropWidth", "cropHeight"}
	values := make([]int, len(fields))
	present := 0
	for i, f := range fields {
		raw := strings.TrimSpace(r.FormValue(f))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, f)
		}
		values[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(fields):
		return &imagecodec.CropArea{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
	default:
		return nil, fmt.Errorf("%w: crop needs cropX, cropY, cropWidth and cropHeight", domain.ErrInvalidRequest)
	}
}
