package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	internal_errors "github.com/factshield/factshield/internal/errors"
)

// FormOverhead is added to the attachment limit to leave room for the text
// fields and multipart boundaries.
const FormOverhead int64 = 1 << 20

// CalculateMaxRequestSize returns the maximum request size including overhead buffer.
func CalculateMaxRequestSize(maxAttachmentSize int64) int64 {
	return maxAttachmentSize + FormOverhead
}

// ParseForm caps the body at maxSize and parses it as a multipart or
// url-encoded form. An oversized body yields a 413 naming the limit. Calling it
// again on a parsed request is a no-op.
func ParseForm(w http.ResponseWriter, r *http.Request, maxSize int64) error {
	if r.MultipartForm != nil || (r.PostForm != nil && !isMultipart(r)) {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	var err error
	if isMultipart(r) {
		// Parts over maxSize in total spill to temporary files.
		err = r.ParseMultipartForm(maxSize)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("Request too large (limit %.1f MB)", FormatSizeMB(maxSize)),
			StatusCode: http.StatusRequestEntityTooLarge,
			Err:        err,
		}
	}
	return &internal_errors.ErrorWithStatusCode{Message: "Invalid form data", StatusCode: http.StatusBadRequest, Err: err}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
