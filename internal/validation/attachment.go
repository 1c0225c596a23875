// Package validation turns multipart uploads into pending attachments.
package validation

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/factshield/factshield/internal/domain"
)

const sniffLen = 512

// PendingAttachments opens every uploaded part with a filename. The caller
// must close the returned files with CloseAll.
func PendingAttachments(fileHeaders []*multipart.FileHeader) ([]*domain.PendingFile, error) {
	var pendingFiles []*domain.PendingFile
	for _, fileHeader := range fileHeaders {
		if strings.TrimSpace(fileHeader.Filename) == "" {
			continue
		}

		file, err := fileHeader.Open()
		if err != nil {
			CloseAll(pendingFiles)
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		mimeType := DetectMimeType(fileHeader, file)
		width, height := ExtractImageDimensions(file, mimeType)

		pendingFiles = append(pendingFiles, &domain.PendingFile{
			FileCommonMetadata: domain.FileCommonMetadata{
				Filename:    fileHeader.Filename,
				SizeBytes:   fileHeader.Size,
				MimeType:    mimeType,
				ImageWidth:  width,
				ImageHeight: height,
			},
			Data: file,
		})
	}
	return pendingFiles, nil
}

func CloseAll(files []*domain.PendingFile) {
	for _, pf := range files {
		if closer, ok := pf.Data.(io.Closer); ok {
			closer.Close()
		}
	}
}

// DetectMimeType prefers the declared Content-Type, then the extension and
// finally sniffs the content. file is rewound afterwards.
func DetectMimeType(fileHeader *multipart.FileHeader, file multipart.File) string {
	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType != "" && mimeType != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
			return mt
		}
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}

	buf := make([]byte, sniffLen)
	n, _ := io.ReadFull(file, buf)
	file.Seek(0, io.SeekStart)
	if n == 0 {
		return "application/octet-stream"
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(buf[:n]))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

// ExtractImageDimensions returns nil sizes for anything that is not a
// decodable image. file is rewound afterwards.
func ExtractImageDimensions(file multipart.File, mimeType string) (*int, *int) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}
	defer file.Seek(0, io.SeekStart)

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, nil
	}
	width, height := cfg.Width, cfg.Height
	return &width, &height
}
