package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/http/handlers"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/middleware"
)

type Options struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	Logger             zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())
	r.Method(http.MethodGet, "/images/*", app.PublicImagesHandler("/images/"))

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/api/user/images", func(r chi.Router) {
			r.Post("/generate", app.ImagesGenerate)
			r.Get("/uploads", app.ListUploads)
			r.Get("/uploads/{uuid}", app.UploadDetail)
			r.Get("/uploads/{uuid}/download", app.UploadDownload)
			r.Get("/{filename}", app.UserImage)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleAdmin))
			r.Post("/images", app.AdminUploadImage)
			r.Get("/images/{filename}", app.AdminImage)
			r.Post("/prompts/test", app.AdminTestPrompt)
		})
	})

	return r
}
