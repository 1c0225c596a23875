package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndPop(t *testing.T) {
	rec := httptest.NewRecorder()
	Set(rec, KindSuccess, "Case file added successfully.", false)
	Set(rec, KindError, "Invalid credentials; try again", false)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	out := httptest.NewRecorder()
	msgs := Pop(out, req, false)
	assert.Equal(t, "Case file added successfully.", msgs.Success)
	assert.Equal(t, "Invalid credentials; try again", msgs.Error)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 2)
	for _, c := range cleared {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestPopWithoutCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	msgs := Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil), false)
	assert.Equal(t, Messages{}, msgs)
	assert.Empty(t, rec.Result().Cookies())
}

func TestPopIgnoresMalformedValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "flash_error", Value: "%%%"})
	msgs := Pop(httptest.NewRecorder(), req, false)
	assert.Empty(t, msgs.Error)
}
