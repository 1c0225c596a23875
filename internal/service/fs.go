package service

import (
	"io"
	"time"
)

type MediaStorage interface {
	// Stage copies an upload into the staging area and returns the staged
	// path and the number of bytes written. Staged files are invisible to
	// Path until promoted.
	Stage(data io.Reader) (stagedPath string, size int64, err error)

	// Promote moves a staged file into place under key.
	Promote(stagedPath, key string) error

	// Discard removes a staged file. Missing files are not an error.
	Discard(stagedPath string) error

	// Path resolves a stored key to an absolute path inside the root.
	Path(key string) (string, error)

	// DeleteFile removes stored bytes. Missing files are not an error.
	DeleteFile(key string) error
}

// MediaFile describes one entry found while walking the file store.
type MediaFile struct {
	Name    string // storage key, or the staged path when Staged is set
	Staged  bool
	Size    int64
	ModTime time.Time
}
