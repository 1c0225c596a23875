package handler

import (
	"mime"
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/logger"
)

// UploadHandler serves /uploads/{filename}: the newest attachment stored
// under that display name.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	// chi hands back the escaped segment when the path contained %2F and the like
	filename, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		h.renderStatus(w, r, http.StatusNotFound, "Attachment not found")
		return
	}

	file, p, err := h.content.AttachmentPath(r.Context(), filename)
	if err != nil {
		if internal_errors.IsValidation(err) {
			logger.Log.Warn("rejected attachment name", "filename", filename, "remote_addr", r.RemoteAddr)
			err = internal_errors.NotFound("Attachment")
		}
		h.renderError(w, r, err)
		return
	}
	h.serveAttachment(w, r, file, p)
}

// FileHandler serves /files/{id}/{filename}. The trailing name is cosmetic.
func (h *Handler) FileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(chi.URLParam(r, "id"), "Attachment")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	file, p, err := h.content.FilePath(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.serveAttachment(w, r, file, p)
}

func (h *Handler) serveAttachment(w http.ResponseWriter, r *http.Request, file domain.File, p string) {
	f, err := os.Open(p)
	if err != nil {
		logger.Log.Warn("attachment vanished before serving", "file_id", file.Id, "error", err)
		h.renderStatus(w, r, http.StatusNotFound, "Attachment not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.renderError(w, r, internal_errors.Storage("Failed to read attachment", err))
		return
	}

	if file.MimeType != "" {
		w.Header().Set("Content-Type", file.MimeType)
	}
	disposition := "attachment"
	if file.IsImage() {
		disposition = "inline"
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": file.Filename}))
	w.Header().Set("Cache-Control", "private, max-age=300")

	http.ServeContent(w, r, file.Filename, info.ModTime(), f)
}
