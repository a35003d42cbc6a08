package handlers

import (
	"net/http"
	"strings"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
)

// PublicImagesHandler serves files from the public category directory tree without
// directory listings.
func (a *App) PublicImagesHandler(prefix string) http.Handler {
	dir, err := a.Paths.PhysicalPath(storage.CategoryPublic)
	if err != nil {
		return http.NotFoundHandler()
	}
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			a.error(w, http.StatusNotFound, "not_found", "not found")
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(w, r)
	})
}
