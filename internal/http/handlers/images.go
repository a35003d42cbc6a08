package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	providerimage "github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/image"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/pkg/zip"
)

type generatedImageResponse struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	ImageURL        string    `json:"imageUrl"`
	PromptID        int64     `json:"promptId"`
	GenerationIndex int       `json:"generationIndex"`
	CreatedAt       time.Time `json:"createdAt"`
}

type uploadedImageResponse struct {
	ID               int64                    `json:"id"`
	UUID             string                   `json:"uuid"`
	OriginalFilename string                   `json:"originalFilename"`
	ContentType      string                   `json:"contentType"`
	FileSize         int64                    `json:"fileSize"`
	ImageURL         string                   `json:"imageUrl"`
	CreatedAt        time.Time                `json:"createdAt"`
	GeneratedImages  []generatedImageResponse `json:"generatedImages,omitempty"`
}

func toUploadedResponse(img domain.UploadedImage) uploadedImageResponse {
	return uploadedImageResponse{
		ID:               img.ID,
		UUID:             img.UUID.String(),
		OriginalFilename: img.OriginalFilename,
		ContentType:      img.ContentType,
		FileSize:         img.FileSize,
		ImageURL:         domain.UserImageURL(img.StoredFilename),
		CreatedAt:        img.CreatedAt,
	}
}

// ImagesGenerate handles POST /api/user/images/generate.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == 0 {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	file, err := a.readUpload(w, r, "image")
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}

	promptID, err := strconv.ParseInt(r.FormValue("promptId"), 10, 64)
	if err != nil || promptID <= 0 {
		a.writeDomainError(w, r, fmt.Errorf("%w: promptId is required", domain.ErrInvalidRequest))
		return
	}
	n, err := formInt(r, "n")
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}

	res, err := a.Generator.GenerateForUser(r.Context(), file, providerimage.GenerationRequest{
		PromptID:   promptID,
		Background: r.FormValue("background"),
		Quality:    r.FormValue("quality"),
		Size:       r.FormValue("size"),
		N:          n,
	}, userID)
	if err != nil {
		var rle *domain.RateLimitError
		if errors.As(err, &rle) {
			w.Header().Set(remainingHeader, "0")
		}
		a.writeDomainError(w, r, err)
		return
	}
	a.setRemaining(w, r, userID)
	a.json(w, http.StatusOK, res)
}

const remainingHeader = "X-RateLimit-Remaining"

func (a *App) setRemaining(w http.ResponseWriter, r *http.Request, userID int64) {
	if a.Quota == nil {
		return
	}
	remaining, err := a.Quota.Remaining(r.Context(), userID)
	if err != nil {
		a.Logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to read remaining generations")
		return
	}
	w.Header().Set(remainingHeader, strconv.Itoa(remaining))
}

// UserImage handles GET /api/user/images/{filename}. Files of other users are
// reported as not found.
func (a *App) UserImage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == 0 {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	data, contentType, err := a.UserImages.GetUserImageData(r.Context(), chi.URLParam(r, "filename"), userID)
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListUploads handles GET /api/user/images/uploads.
func (a *App) ListUploads(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == 0 {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	images, err := a.UserImages.GetUserUploadedImages(r.Context(), userID)
	if err != nil {
		a.writeDomainError(w, r, err)
		return
	}
	items := make([]uploadedImageResponse, 0, len(images))
	for _, img := range images {
		items = append(items, toUploadedResponse(img))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// UploadDetail handles GET /api/user/images/uploads/{uuid}.
func (a *App) UploadDetail(w http.ResponseWriter, r *http.Request) {
	parent, generated, ok := a.loadUpload(w, r)
	if !ok {
		return
	}
	resp := toUploadedResponse(*parent)
	resp.GeneratedImages = make([]generatedImageResponse, 0, len(generated))
	for _, g := range generated {
		resp.GeneratedImages = append(resp.GeneratedImages, generatedImageResponse{
			ID:              g.ID,
			Filename:        g.Filename,
			ImageURL:        domain.UserImageURL(g.Filename),
			PromptID:        g.PromptID,
			GenerationIndex: g.GenerationIndex,
			CreatedAt:       g.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, resp)
}

// UploadDownload handles GET /api/user/images/uploads/{uuid}/download and
// returns every generated image of the upload as a zip archive.
func (a *App) UploadDownload(w http.ResponseWriter, r *http.Request) {
	parent, generated, ok := a.loadUpload(w, r)
	if !ok {
		return
	}
	if len(generated) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no generated images")
		return
	}
	assets := make([]zip.Asset, 0, len(generated))
	for _, g := range generated {
		data, _, err := a.UserImages.GetUserImageData(r.Context(), g.Filename, parent.UserID)
		if err != nil {
			a.writeDomainError(w, r, err)
			return
		}
		assets = append(assets, zip.Asset{Filename: g.Filename, Data: data, Modified: g.CreatedAt})
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.writeDomainError(w, r, domain.NewStorageError("build archive", err))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", parent.UUID))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) loadUpload(w http.ResponseWriter, r *http.Request) (*domain.UploadedImage, []domain.GeneratedImage, bool) {
	userID := a.currentUserID(r)
	if userID == 0 {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "not found")
		return nil, nil, false
	}
	parent, err := a.UserImages.GetUploadedImageByUUID(r.Context(), id, userID)
	if err != nil {
		a.writeDomainError(w, r, err)
		return nil, nil, false
	}
	generated, err := a.UserImages.GetGeneratedImages(r.Context(), parent)
	if err != nil {
		a.writeDomainError(w, r, err)
		return nil, nil, false
	}
	return parent, generated, true
}
