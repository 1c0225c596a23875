// Package fs keeps attachment bytes in a flat directory. Uploads are first
// written to a staging directory inside the root and renamed into place once
// the database rows that reference them are known, so a reader never sees a
// half-written file under its final key.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/service"
)

const stagingDir = ".staging"

type Storage struct {
	rootPath    string
	stagingPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.MediaStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	p, err := filepath.Abs(filepath.Clean(rootPath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %s: %w", rootPath, err)
	}

	staging := filepath.Join(p, stagingDir)
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p, stagingPath: staging}, nil
}

func (s *Storage) Root() string {
	return s.rootPath
}

// Stage copies data into a fresh file under the staging directory.
func (s *Storage) Stage(data io.Reader) (string, int64, error) {
	dst, err := os.CreateTemp(s.stagingPath, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staging file: %w", err)
	}

	n, err := io.Copy(dst, data)
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", 0, fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", 0, fmt.Errorf("failed to flush staging file: %w", err)
	}
	return dst.Name(), n, nil
}

// Promote renames a staged file to its final key. Both files live under the
// same root so the rename is atomic on one filesystem.
func (s *Storage) Promote(stagedPath, key string) error {
	if !s.isStaged(stagedPath) {
		return fmt.Errorf("%s is not a staged upload", stagedPath)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fullPath); err == nil {
		return fmt.Errorf("storage key %s already exists", key)
	}
	if err := os.Rename(stagedPath, fullPath); err != nil {
		return fmt.Errorf("failed to promote %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Discard(stagedPath string) error {
	if !s.isStaged(stagedPath) {
		return fmt.Errorf("%s is not a staged upload", stagedPath)
	}
	if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to discard staged file: %w", err)
	}
	return nil
}

// Path returns the absolute location of stored bytes. Keys that would escape
// the root are rejected before touching the disk.
func (s *Storage) Path(key string) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound("Attachment")
		}
		return "", fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		return "", errors.NotFound("Attachment")
	}
	return fullPath, nil
}

// DeleteFile removes a single file from storage.
func (s *Storage) DeleteFile(key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		// We don't error if the file is already gone, but we do for other errors.
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// WalkFiles lists every regular file in the root and in the staging area.
func (s *Storage) WalkFiles() ([]service.MediaFile, error) {
	var files []service.MediaFile

	collect := func(dir string, staged bool) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return fmt.Errorf("failed to stat %s: %w", e.Name(), err)
			}
			name := e.Name()
			if staged {
				name = filepath.Join(dir, name)
			}
			files = append(files, service.MediaFile{
				Name:    name,
				Staged:  staged,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
		return nil
	}

	if err := collect(s.rootPath, false); err != nil {
		return nil, err
	}
	if err := collect(s.stagingPath, true); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Storage) resolve(key string) (string, error) {
	if err := service.CheckFilename(key); err != nil {
		return "", err
	}
	fullPath := filepath.Clean(filepath.Join(s.rootPath, key))
	if filepath.Dir(fullPath) != s.rootPath {
		return "", errors.Validation("Invalid filename")
	}
	return fullPath, nil
}

func (s *Storage) isStaged(p string) bool {
	return strings.HasPrefix(filepath.Clean(p), s.stagingPath+string(filepath.Separator))
}
