// Package flash carries one-shot messages across a redirect in short-lived
// cookies. Values are base64 encoded so any text survives the cookie syntax.
package flash

import (
	"encoding/base64"
	"net/http"
)

const (
	KindError   = "error"
	KindSuccess = "success"

	cookiePrefix = "flash_"
	maxAge       = 300 // enough for one redirect
)

type Messages struct {
	Error   string
	Success string
}

func Set(w http.ResponseWriter, kind, message string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookiePrefix + kind,
		Value:    base64.StdEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop reads and clears every pending message.
func Pop(w http.ResponseWriter, r *http.Request, secure bool) Messages {
	return Messages{
		Error:   pop(w, r, KindError, secure),
		Success: pop(w, r, KindSuccess, secure),
	}
}

func pop(w http.ResponseWriter, r *http.Request, kind string, secure bool) string {
	cookie, err := r.Cookie(cookiePrefix + kind)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookiePrefix + kind,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
