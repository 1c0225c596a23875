package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/factshield/factshield/internal/config"
	"github.com/factshield/factshield/internal/logger"
	"github.com/factshield/factshield/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Templates map[string]*template.Template
	Public    config.Public
	auth      service.AuthService
	content   service.ContentService
	db        Pinger
}

func New(templates map[string]*template.Template, publicCfg config.Public, auth service.AuthService, content service.ContentService, db Pinger) *Handler {
	return &Handler{
		Templates: templates,
		Public:    publicCfg,
		auth:      auth,
		content:   content,
		db:        db,
	}
}

func (h *Handler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// ReadyzHandler reports 503 while the database is unreachable.
func (h *Handler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		logger.Log.Warn("readiness check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusNotFound, "Page not found")
}
