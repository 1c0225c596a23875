package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/factshield/factshield/internal/domain"
	"github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/logger"
)

type ContentService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error)
	DeletePost(ctx context.Context, id domain.PostId) error
	AttachmentPath(ctx context.Context, filename string) (domain.File, string, error)
	FilePath(ctx context.Context, id domain.FileId) (domain.File, string, error)
}

type Content struct {
	storage  ContentStorage
	media    MediaStorage
	validate *validator.Validate
	now      func() time.Time
	newKey   func(ext string) string
}

type ContentStorage interface {
	CreatePost(ctx context.Context, post domain.Post, beforeCommit func(domain.Post) error) (domain.Post, error)
	Posts(ctx context.Context) ([]domain.Post, error)
	Post(ctx context.Context, id domain.PostId) (domain.Post, error)
	DeletePost(ctx context.Context, id domain.PostId) (domain.Post, error)
	LatestFileByName(ctx context.Context, filename string) (domain.File, error)
	File(ctx context.Context, id domain.FileId) (domain.File, error)
}

func NewContent(storage ContentStorage, media MediaStorage) *Content {
	return &Content{
		storage:  storage,
		media:    media,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		newKey: func(ext string) string {
			return uuid.NewString() + ext
		},
	}
}

// ListPosts returns every post newest first.
func (c *Content) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return c.storage.Posts(ctx)
}

func (c *Content) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	return c.storage.Post(ctx, id)
}

type stagedFile struct {
	path     string
	key      string
	promoted bool
}

// CreatePost stores a post and its attachments. Bytes are staged first, rows
// are written in one transaction and staged bytes are promoted right before
// commit. On any failure the rows are rolled back and every staged or
// promoted file is removed.
func (c *Content) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	// Blank-only fields count as missing, but the stored text is kept as
	// submitted: leading indentation is meaningful markdown.
	trimmed := data
	trimmed.Title = strings.TrimSpace(data.Title)
	trimmed.Content = strings.TrimSpace(data.Content)
	trimmed.Author = strings.TrimSpace(data.Author)
	for _, d := range []domain.PostCreationData{trimmed, data} {
		if err := c.validate.Struct(d); err != nil {
			return domain.Post{}, validationError(err)
		}
	}

	now := c.now().UTC()
	post := domain.Post{
		Title:     data.Title,
		Content:   data.Content,
		Author:    data.Author,
		CreatedAt: now,
	}

	var staged []*stagedFile
	cleanup := func() {
		for _, sf := range staged {
			var err error
			if sf.promoted {
				err = c.media.DeleteFile(sf.key)
			} else {
				err = c.media.Discard(sf.path)
			}
			if err != nil {
				logger.Log.Warn("failed to clean up attachment", "key", sf.key, "error", err)
			}
		}
	}

	var totalBytes int64
	for _, att := range data.Attachments {
		if att == nil || strings.TrimSpace(att.Filename) == "" {
			continue
		}
		name := SanitizeFilename(att.Filename)

		path, size, err := c.media.Stage(att.Data)
		if err != nil {
			cleanup()
			logger.Log.Error("failed to stage attachment", "filename", name, "error", err)
			return domain.Post{}, errors.Storage("Failed to store attachment", err)
		}

		sf := &stagedFile{path: path, key: c.newKey(storageExtension(name))}
		staged = append(staged, sf)
		totalBytes += size

		post.Files = append(post.Files, domain.File{
			Filename:    name,
			StorageKey:  sf.key,
			MimeType:    att.MimeType,
			SizeBytes:   size,
			ImageWidth:  att.ImageWidth,
			ImageHeight: att.ImageHeight,
		})
	}

	created, err := c.storage.CreatePost(ctx, post, func(domain.Post) error {
		for _, sf := range staged {
			if err := c.media.Promote(sf.path, sf.key); err != nil {
				return errors.Storage("Failed to store attachment", err)
			}
			sf.promoted = true
		}
		return nil
	})
	if err != nil {
		cleanup()
		return domain.Post{}, err
	}

	postsCreatedTotal.Inc()
	attachmentBytesTotal.Add(float64(totalBytes))
	logger.Log.Info("post created", "post_id", created.Id, "attachments", len(created.Files))
	return created, nil
}

// DeletePost removes the post and its file rows, then drops the bytes.
// Byte removal is best effort: failures are logged and left to the orphan
// sweep.
func (c *Content) DeletePost(ctx context.Context, id domain.PostId) error {
	post, err := c.storage.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range post.Files {
		if err := c.media.DeleteFile(f.StorageKey); err != nil {
			logger.Log.Warn("failed to delete attachment bytes", "post_id", id, "key", f.StorageKey, "error", err)
		}
	}
	postsDeletedTotal.Inc()
	logger.Log.Info("post deleted", "post_id", id, "attachments", len(post.Files))
	return nil
}

// AttachmentPath resolves a display filename to the newest attachment
// carrying it. Names that could address anything outside the file store are
// rejected before any lookup.
func (c *Content) AttachmentPath(ctx context.Context, filename string) (domain.File, string, error) {
	if err := CheckFilename(filename); err != nil {
		return domain.File{}, "", err
	}
	f, err := c.storage.LatestFileByName(ctx, filename)
	if err != nil {
		return domain.File{}, "", err
	}
	return c.resolve(f)
}

func (c *Content) FilePath(ctx context.Context, id domain.FileId) (domain.File, string, error) {
	f, err := c.storage.File(ctx, id)
	if err != nil {
		return domain.File{}, "", err
	}
	return c.resolve(f)
}

func (c *Content) resolve(f domain.File) (domain.File, string, error) {
	p, err := c.media.Path(f.StorageKey)
	if err != nil {
		if errors.IsNotFound(err) {
			logger.Log.Warn("attachment row without bytes", "file_id", f.Id, "key", f.StorageKey)
		}
		return domain.File{}, "", errors.NotFound("Attachment")
	}
	return f, p, nil
}

func storageExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if !safeExtension.MatchString(ext) {
		return ""
	}
	return ext
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Validation("Invalid input")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errors.Validation(fmt.Sprintf("%s is required", fe.Field()))
	case "max":
		return errors.Validation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return errors.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
