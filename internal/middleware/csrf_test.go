package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factshield/factshield/internal/csrf"
)

func TestGenerateCSRFToken(t *testing.T) {
	var seen string
	h := GenerateCSRFToken(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCSRFTokenFromContext(r)
	}))

	t.Run("issues a cookie when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, csrf.CookieName, cookies[0].Name)
		assert.Equal(t, cookies[0].Value, seen)
	})

	t.Run("reuses an existing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: "existing"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, "existing", seen)
	})
}

func TestValidateCSRFToken(t *testing.T) {
	reached := false
	h := ValidateCSRFToken(CSRFConfig{MaxRequestSize: 1024})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	post := func(form url.Values, cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: cookie})
		}
		rec := httptest.NewRecorder()
		reached = false
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("matching token passes", func(t *testing.T) {
		rec := post(url.Values{csrf.FormField: {"tok"}}, "tok")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec := post(url.Values{csrf.FormField: {"tok"}}, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})

	t.Run("mismatched token", func(t *testing.T) {
		rec := post(url.Values{csrf.FormField: {"other"}}, "tok")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})

	t.Run("safe methods are not checked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, reached)
	})

	t.Run("oversized multipart body is 413", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField(csrf.FormField, "tok"))
		part, err := mw.CreateFormFile("attachments", "big.bin")
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/admin", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		reached = false
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "Request too large")
		assert.False(t, reached)
	})
}
