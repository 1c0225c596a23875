package domain

import (
	"io"
	"time"
)

// Post is a case file. Files are populated by every read path.
type Post struct {
	Id        PostId
	Title     string
	Content   string
	Author    string
	CreatedAt time.Time
	Files     []File
}

// File is an attachment row. Filename is the sanitized display name;
// StorageKey names the bytes inside the file store and is unique.
type File struct {
	Id          FileId
	PostId      PostId
	Filename    string
	StorageKey  string
	MimeType    string
	SizeBytes   int64
	ImageWidth  *int
	ImageHeight *int
	CreatedAt   time.Time
}

func (f File) IsImage() bool {
	return f.ImageWidth != nil && f.ImageHeight != nil
}

// FileCommonMetadata is shared by uploaded-but-unsaved files and stored ones.
type FileCommonMetadata struct {
	Filename    string
	SizeBytes   int64
	MimeType    string
	ImageWidth  *int
	ImageHeight *int
}

// PendingFile is an attachment received from a request, not yet staged.
type PendingFile struct {
	FileCommonMetadata
	Data io.Reader
}

type PostCreationData struct {
	Title       string `validate:"required,max=200"`
	Content     string `validate:"required"`
	Author      string `validate:"required,max=100"`
	Attachments []*PendingFile
}
