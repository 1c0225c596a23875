package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/factshield/factshield/internal/middleware"
	"github.com/factshield/factshield/internal/middleware/metrics"
	"github.com/factshield/factshield/internal/setup"
	"github.com/factshield/factshield/internal/validation"
	"github.com/factshield/factshield/web"
)

// New builds the chi router with every route of the site.
func New(deps *setup.Dependencies) http.Handler {
	cfg := deps.Config.Public
	h := deps.Handler
	csrfConfig := mw.CSRFConfig{
		SecureCookies:  cfg.SecureCookies,
		MaxRequestSize: validation.CalculateMaxRequestSize(cfg.MaxUploadSize),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLogger)
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeaders(cfg.SecureCookies, mw.ContentPolicy{
		ImageSources: cfg.CSP.ImageSources,
		FormActions:  cfg.CSP.FormActions,
	}))
	r.Use(chimw.Compress(5, "text/html", "text/css", "text/plain"))
	r.NotFound(h.NotFoundHandler)

	// Probes and metrics stay outside sessions and CSRF.
	r.Get("/healthz", h.HealthzHandler)
	r.Get("/readyz", h.ReadyzHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	// Downloads carry no session state and may be embedded cross-origin.
	r.Group(func(r chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
				MaxAge:         300,
			}))
		}
		r.Get("/uploads/{filename}", h.UploadHandler)
		r.Get("/files/{id}/{filename}", h.FileHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.OptionalSession())
		r.Use(mw.GenerateCSRFToken(csrfConfig))
		r.Use(mw.ValidateCSRFToken(csrfConfig))

		r.Get("/", h.IndexGetHandler)
		r.Get("/post/{id}", h.PostGetHandler)

		r.Get("/login", h.LoginGetHandler)
		r.With(mw.RateLimit(deps.LoginLimiter, mw.GetIP)).Post("/login", h.LoginPostHandler)

		// Everything below needs a session, and a seeded account must pick
		// its own password first.
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireSession())
			r.Use(mw.RequirePasswordChange("/admin/password"))

			r.Get("/logout", h.LogoutHandler)
			r.Post("/logout", h.LogoutHandler)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/", h.AdminGetHandler)
				r.Post("/", h.AdminPostHandler)
				r.Get("/delete/{id}", h.DeleteConfirmHandler)
				r.Post("/delete/{id}", h.DeletePostHandler)
				r.Get("/password", h.PasswordGetHandler)
				r.Post("/password", h.PasswordPostHandler)
			})
		})
	})

	return r
}
