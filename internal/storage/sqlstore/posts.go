package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
)

const fileColumns = "id, post_id, filename, storage_key, mime_type, size_bytes, image_width, image_height, created_at"

// CreatePost inserts the post and its file rows in one transaction.
// beforeCommit runs inside the transaction once every id is known; if it
// fails nothing is committed.
func (s *Storage) CreatePost(ctx context.Context, post domain.Post, beforeCommit func(domain.Post) error) (domain.Post, error) {
	post.CreatedAt = dbTime(post.CreatedAt)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"INSERT INTO posts(title, content, author, created_at) VALUES($1, $2, $3, $4) RETURNING id",
			post.Title, post.Content, post.Author, post.CreatedAt).Scan(&post.Id)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}

		for i := range post.Files {
			f := &post.Files[i]
			f.PostId = post.Id
			f.CreatedAt = post.CreatedAt
			err := tx.QueryRowContext(ctx, `
			INSERT INTO files(post_id, filename, storage_key, mime_type, size_bytes, image_width, image_height, created_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
				f.PostId, f.Filename, f.StorageKey, f.MimeType, f.SizeBytes, nullInt(f.ImageWidth), nullInt(f.ImageHeight), f.CreatedAt,
			).Scan(&f.Id)
			if err != nil {
				if isUniqueViolation(err) {
					return internal_errors.Conflict("Storage key already in use")
				}
				return fmt.Errorf("failed to insert file %q: %w", f.Filename, err)
			}
		}

		if beforeCommit != nil {
			return beforeCommit(post)
		}
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// Posts returns every post newest first, each with its files.
func (s *Storage) Posts(ctx context.Context) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, content, author, created_at FROM posts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	index := map[domain.PostId]int{}
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.Id, &p.Title, &p.Content, &p.Author, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		index[p.Id] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	files, err := s.queryFiles(ctx, s.db, "SELECT "+fileColumns+" FROM files ORDER BY post_id, id")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if i, ok := index[f.PostId]; ok {
			posts[i].Files = append(posts[i].Files, f)
		}
	}
	return posts, nil
}

func (s *Storage) Post(ctx context.Context, id domain.PostId) (domain.Post, error) {
	return s.post(ctx, s.db, id)
}

// DeletePost removes the post row; file rows go with it through the foreign
// key cascade. The deleted post is returned so the caller can drop its bytes.
func (s *Storage) DeletePost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	var post domain.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		post, err = s.post(ctx, tx, id)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		rowsDeleted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for post deletion: %w", err)
		}
		if rowsDeleted == 0 {
			return internal_errors.NotFound("Post")
		}
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (s *Storage) post(ctx context.Context, q Querier, id domain.PostId) (domain.Post, error) {
	var p domain.Post
	err := q.QueryRowContext(ctx,
		"SELECT id, title, content, author, created_at FROM posts WHERE id = $1", id,
	).Scan(&p.Id, &p.Title, &p.Content, &p.Author, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("Post")
		}
		return domain.Post{}, fmt.Errorf("failed to query post: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()

	p.Files, err = s.queryFiles(ctx, q, "SELECT "+fileColumns+" FROM files WHERE post_id = $1 ORDER BY id", id)
	if err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
