package validation

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	internal_errors "github.com/factshield/factshield/internal/errors"
)

type part struct {
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, parts []part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="attachments"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func encodeImage(t *testing.T, enc func(*bytes.Buffer, image.Image) error, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func TestPendingAttachments(t *testing.T) {
	pngData := encodeImage(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) }, image.NewRGBA(image.Rect(0, 0, 4, 3)))
	bmpData := encodeImage(t, func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) }, image.NewGray(image.Rect(0, 0, 7, 5)))

	req := multipartRequest(t, map[string]string{"title": "Leak Report"}, []part{
		{filename: "evidence.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")},
		{filename: "photo.png", contentType: "application/octet-stream", data: pngData},
		{filename: "scan", data: bmpData},
		{filename: "", data: []byte("ignored")},
		{filename: "notes.txt", contentType: "text/plain; charset=utf-8", data: []byte("hello")},
	})
	require.NoError(t, ParseForm(httptest.NewRecorder(), req, 1<<20))
	assert.Equal(t, "Leak Report", req.FormValue("title"))

	files, err := PendingAttachments(req.MultipartForm.File["attachments"])
	require.NoError(t, err)
	defer CloseAll(files)
	require.Len(t, files, 4)

	assert.Equal(t, "evidence.pdf", files[0].Filename)
	assert.Equal(t, "application/pdf", files[0].MimeType)
	assert.Nil(t, files[0].ImageWidth)

	assert.Equal(t, "image/png", files[1].MimeType)
	require.NotNil(t, files[1].ImageWidth)
	assert.Equal(t, 4, *files[1].ImageWidth)
	assert.Equal(t, 3, *files[1].ImageHeight)

	assert.Equal(t, "image/bmp", files[2].MimeType)
	require.NotNil(t, files[2].ImageWidth)
	assert.Equal(t, 7, *files[2].ImageWidth)

	assert.Equal(t, "text/plain", files[3].MimeType)

	t.Run("readers are rewound", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := buf.ReadFrom(files[1].Data)
		require.NoError(t, err)
		assert.Equal(t, pngData, buf.Bytes())
	})
}

func TestParseForm(t *testing.T) {
	t.Run("oversized multipart body", func(t *testing.T) {
		req := multipartRequest(t, nil, []part{{filename: "big.bin", data: bytes.Repeat([]byte("x"), 2<<20)}})
		err := ParseForm(httptest.NewRecorder(), req, 1<<20)
		require.Error(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, internal_errors.StatusCode(err))
		assert.Equal(t, "Request too large (limit 1.0 MB)", err.Error())
	})

	t.Run("oversized url-encoded body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username="+strings.Repeat("a", 4096)))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		err := ParseForm(httptest.NewRecorder(), req, 1024)
		assert.Equal(t, http.StatusRequestEntityTooLarge, internal_errors.StatusCode(err))
	})

	t.Run("malformed multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader("garbage"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
		err := ParseForm(httptest.NewRecorder(), req, 1024)
		assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=admin"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.NoError(t, ParseForm(httptest.NewRecorder(), req, 1024))
		require.NoError(t, ParseForm(httptest.NewRecorder(), req, 1))
		assert.Equal(t, "admin", req.PostFormValue("username"))
	})
}

func TestCalculateMaxRequestSize(t *testing.T) {
	assert.Equal(t, int64(17<<20), CalculateMaxRequestSize(16<<20))
	assert.InDelta(t, 16.0, FormatSizeMB(16<<20), 0.001)
}
