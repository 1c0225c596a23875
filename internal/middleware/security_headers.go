package middleware

import (
	"net/http"
	"strings"
)

// ContentPolicy lists origins the Content-Security-Policy allows next to
// 'self'. Pages carry no inline scripts or styles, so only images and form
// targets are configurable.
type ContentPolicy struct {
	ImageSources []string
	FormActions  []string
}

func (p ContentPolicy) String() string {
	return strings.Join([]string{
		"default-src 'self'",
		"img-src " + sourceList("'self' data:", p.ImageSources),
		"object-src 'none'",
		"base-uri 'none'",
		"form-action " + sourceList("'self'", p.FormActions),
		"frame-ancestors 'none'",
	}, "; ")
}

// sourceList appends extra sources to base. Entries that could end the
// directive early are skipped.
func sourceList(base string, extra []string) string {
	out := base
	for _, src := range extra {
		if src == "" || strings.ContainsAny(src, "; \t\r\n,") {
			continue
		}
		out += " " + src
	}
	return out
}

// SecurityHeaders sets the headers every response carries. HSTS is only sent
// when the site is served over HTTPS. Requests holding a session cookie get
// an uncacheable response, so admin pages never land in shared caches.
func SecurityHeaders(isHTTPS bool, policy ContentPolicy) func(http.Handler) http.Handler {
	csp := policy.String()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()

			headers.Set("X-Frame-Options", "DENY")
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			headers.Set("Cross-Origin-Opener-Policy", "same-origin")
			headers.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")
			headers.Set("Content-Security-Policy", csp)

			if isHTTPS {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			if _, err := r.Cookie(SessionCookieName); err == nil {
				headers.Set("Cache-Control", "no-store")
			}

			next.ServeHTTP(w, r)
		})
	}
}
