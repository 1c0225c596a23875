package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/flash"
	"github.com/factshield/factshield/internal/validation"
)

// attachmentsField is the multipart field carrying uploaded files.
const attachmentsField = "files"

func (h *Handler) IndexGetHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "index.html", posts)
}

func (h *Handler) PostGetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(chi.URLParam(r, "id"), "Post")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	post, err := h.content.GetPost(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "post.html", post)
}

func (h *Handler) AdminGetHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "admin.html", posts)
}

// AdminPostHandler creates a case file from the dashboard form.
func (h *Handler) AdminPostHandler(w http.ResponseWriter, r *http.Request) {
	targetURL := "/admin"

	if err := validation.ParseForm(w, r, validation.CalculateMaxRequestSize(h.Public.MaxUploadSize)); err != nil {
		h.renderError(w, r, err)
		return
	}

	var attachments []*domain.PendingFile
	if r.MultipartForm != nil {
		var err error
		attachments, err = validation.PendingAttachments(r.MultipartForm.File[attachmentsField])
		if err != nil {
			h.renderError(w, r, internal_errors.Validation("Could not read uploaded files"))
			return
		}
		defer validation.CloseAll(attachments)
	}

	_, err := h.content.CreatePost(r.Context(), domain.PostCreationData{
		Title:       r.FormValue("title"),
		Content:     r.FormValue("content"),
		Author:      r.FormValue("author"),
		Attachments: attachments,
	})
	if err != nil {
		if internal_errors.StatusCode(err) < http.StatusInternalServerError {
			h.redirectWithFlash(w, r, targetURL, flash.KindError, err.Error())
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.redirectWithFlash(w, r, targetURL, flash.KindSuccess, "Case file added successfully.")
}

// DeleteConfirmHandler shows what is about to be deleted. It changes nothing.
func (h *Handler) DeleteConfirmHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(chi.URLParam(r, "id"), "Post")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	post, err := h.content.GetPost(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "delete.html", post)
}

func (h *Handler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(chi.URLParam(r, "id"), "Post")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := h.content.DeletePost(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin", flash.KindSuccess, "Case file deleted.")
}

// parseId turns a path segment into a positive id. Anything else is
// reported as a missing what.
func parseId(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal_errors.NotFound(what)
	}
	return id, nil
}
