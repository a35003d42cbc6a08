package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// CanonicalExtension is the extension of every stored original and generated image.
	CanonicalExtension = "png"
	// CanonicalContentType is the content type stored originals are normalised to.
	CanonicalContentType = "image/png"
)

// UploadedImage is a user-submitted original stored once in canonical format.
type UploadedImage struct {
	ID               int64
	UUID             uuid.UUID
	UserID           int64
	OriginalFilename string
	StoredFilename   string
	ContentType      string
	FileSize         int64
	CreatedAt        time.Time
}

// GeneratedImage is one AI-produced derivative of an UploadedImage.
type GeneratedImage struct {
	ID              int64
	Filename        string
	UploadedImageID int64
	PromptID        int64
	UserID          int64
	GenerationIndex int
	CreatedAt       time.Time
}

// OriginalFilename returns the stored filename for an uploaded original.
func OriginalFilename(id uuid.UUID) string {
	return fmt.Sprintf("%s_original.%s", id.String(), CanonicalExtension)
}

// GeneratedFilename returns the stored filename for the n-th (1-based)
// generated image of an upload.
func GeneratedFilename(parent uuid.UUID, n int) string {
	return fmt.Sprintf("%s_generated_%d.%s", parent.String(), n, CanonicalExtension)
}

// UserImageURL is the URL under which an owner reads back a private image.
func UserImageURL(filename string) string {
	return "/api/user/images/" + filename
}
