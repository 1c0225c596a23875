package handler

import (
	"errors"
	"net/http"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/flash"
	"github.com/factshield/factshield/internal/logger"
	mw "github.com/factshield/factshield/internal/middleware"
)

const passwordChangePath = "/admin/password"

type loginPage struct {
	Username string
}

func (h *Handler) LoginGetHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := mw.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.renderTemplate(w, r, "login.html", loginPage{})
}

// LoginPostHandler redisplays the form with one generic message on bad
// credentials, whichever field was wrong.
func (h *Handler) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := mw.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	token, sess, err := h.auth.Login(r.Context(), domain.Credentials{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, internal_errors.ErrInvalidCredentials) {
			logger.Log.Info("failed login attempt", "remote_addr", r.RemoteAddr)
			h.renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", loginPage{Username: username}, "Invalid credentials.")
			return
		}
		h.renderError(w, r, err)
		return
	}

	mw.SetSessionCookie(w, token, sess.ExpiresAt, h.Public.SecureCookies)
	if sess.MustChangePassword {
		http.Redirect(w, r, passwordChangePath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if sess, ok := mw.SessionFromContext(r.Context()); ok {
		if err := h.auth.Logout(r.Context(), sess.Id); err != nil {
			logger.Log.Error("logout failed", "error", err)
		}
	}
	mw.ClearSessionCookie(w, h.Public.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type passwordPage struct {
	Forced    bool
	MinLength int
}

func (h *Handler) PasswordGetHandler(w http.ResponseWriter, r *http.Request) {
	sess, _ := mw.SessionFromContext(r.Context())
	h.renderTemplate(w, r, "password.html", passwordPage{Forced: sess.MustChangePassword, MinLength: h.Public.PasswordMinLen})
}

func (h *Handler) PasswordPostHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := mw.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if next != r.FormValue("confirm_password") {
		h.redirectWithFlash(w, r, passwordChangePath, flash.KindError, "New passwords do not match")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), sess, current, next); err != nil {
		if internal_errors.IsValidation(err) {
			h.redirectWithFlash(w, r, passwordChangePath, flash.KindError, err.Error())
			return
		}
		h.renderError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin", flash.KindSuccess, "Password changed.")
}
