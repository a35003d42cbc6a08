// Package upload validates incoming image files before they reach storage or
// generation.
package upload

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

const (
	maxFilenameBytes   = 255
	genericContentType = "application/octet-stream"
)

// File is a fully buffered upload.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Validator enforces the size ceiling and MIME allow-list. It is pure and safe
// for concurrent use.
type Validator struct {
	maxBytes int64
	allowed  map[string]struct{}
}

func NewValidator(maxBytes int64, allowedContentTypes []string) *Validator {
	allowed := make(map[string]struct{}, len(allowedContentTypes))
	for _, ct := range allowedContentTypes {
		if ct = normalizeContentType(ct); ct != "" {
			allowed[ct] = struct{}{}
		}
	}
	return &Validator{maxBytes: maxBytes, allowed: allowed}
}

// Validate checks emptiness, then size, then content type.
func (v *Validator) Validate(f File) error {
	size := f.Size
	if n := int64(len(f.Data)); n > size {
		size = n
	}
	if size == 0 || len(f.Data) == 0 {
		return domain.ErrEmptyFile
	}
	if size > v.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrTooLarge, size, v.maxBytes)
	}
	if declared := normalizeContentType(f.ContentType); declared != "" && declared != genericContentType {
		if _, ok := v.allowed[declared]; !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedType, declared)
		}
	}
	ct := ContentTypeOf(f)
	if _, ok := v.allowed[ct]; !ok {
		return fmt.Errorf("%w: content is %q", domain.ErrUnsupportedType, ct)
	}
	return nil
}

// ContentTypeOf sniffs the content type from the bytes. The client's declared
// type is never trusted.
func ContentTypeOf(f File) string {
	return normalizeContentType(http.DetectContentType(f.Data))
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(ct)
}

// SanitizeFilename reduces an untrusted client filename to an NFC-normalised
// base name without control characters. It is stored for display only.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(norm.NFC.String(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	for len(name) > maxFilenameBytes {
		runes := []rune(name)
		name = string(runes[:len(runes)-1])
	}
	return name
}
