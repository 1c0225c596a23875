package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// LatestFileByName resolves a display filename to the most recently
// uploaded file carrying it.
func (s *Storage) LatestFileByName(ctx context.Context, filename string) (domain.File, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE filename = $1 ORDER BY created_at DESC, id DESC LIMIT 1", filename)
	return scanFileRow(row)
}

func (s *Storage) File(ctx context.Context, id domain.FileId) (domain.File, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE id = $1", id)
	return scanFileRow(row)
}

// StorageKeys lists every key referenced by a file row. Used by the orphan
// sweep.
func (s *Storage) StorageKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT storage_key FROM files")
	if err != nil {
		return nil, fmt.Errorf("failed to query storage keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan storage key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate storage keys: %w", err)
	}
	return keys, nil
}

func (s *Storage) queryFiles(ctx context.Context, q Querier, query string, args ...any) ([]domain.File, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	return files, nil
}

func scanFileRow(row *sql.Row) (domain.File, error) {
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.File{}, internal_errors.NotFound("Attachment")
		}
		return domain.File{}, err
	}
	return f, nil
}

func scanFile(r rowScanner) (domain.File, error) {
	var (
		f             domain.File
		width, height sql.NullInt64
	)
	err := r.Scan(&f.Id, &f.PostId, &f.Filename, &f.StorageKey, &f.MimeType, &f.SizeBytes, &width, &height, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.File{}, err
		}
		return domain.File{}, fmt.Errorf("failed to scan file: %w", err)
	}
	f.CreatedAt = f.CreatedAt.UTC()
	if width.Valid && height.Valid {
		w, h := int(width.Int64), int(height.Int64)
		f.ImageWidth, f.ImageHeight = &w, &h
	}
	return f, nil
}
