package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/flash"
	"github.com/factshield/factshield/internal/logger"
	mw "github.com/factshield/factshield/internal/middleware"
)

// CommonTemplateData holds fields every page template can use.
type CommonTemplateData struct {
	Error         string
	Success       string
	Session       *domain.Session
	CSRFToken     string
	MaxUploadSize int64
}

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

type errorPage struct {
	Status  int
	Message string
}

func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) CommonTemplateData {
	msgs := flash.Pop(w, r, h.Public.SecureCookies)
	common := CommonTemplateData{
		Error:         msgs.Error,
		Success:       msgs.Success,
		CSRFToken:     mw.GetCSRFTokenFromContext(r),
		MaxUploadSize: h.Public.MaxUploadSize,
	}
	if sess, ok := mw.SessionFromContext(r.Context()); ok {
		common.Session = &sess
	}
	return common
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateStatus(w, r, http.StatusOK, name, data, "")
}

// renderTemplateStatus executes into a buffer first so a template failure
// never leaves a half-written page behind.
func (h *Handler) renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any, errMsg string) {
	tmpl, ok := h.Templates[name]
	if !ok {
		logger.Log.Error("template not found", "template", name)
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(w, r)
	if errMsg != "" {
		common.Error = errMsg
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: common}); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.renderTemplateStatus(w, r, status, "error.html", errorPage{Status: status, Message: message}, "")
}

// renderError maps err to its status code. Messages of server errors are
// logged, never shown.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := internal_errors.StatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "Internal server error"
	}
	h.renderStatus(w, r, status, message)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	flash.Set(w, kind, message, h.Public.SecureCookies)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
