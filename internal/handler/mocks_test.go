package handler

import (
	"context"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
)

type MockAuthService struct {
	LoginFunc          func(creds domain.Credentials) (string, domain.Session, error)
	LogoutFunc         func(sessionId string) error
	SessionFunc        func(token string) (domain.Session, error)
	ChangePasswordFunc func(sess domain.Session, current, next domain.Password) error
}

func (m *MockAuthService) Login(ctx context.Context, creds domain.Credentials) (string, domain.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(creds)
	}
	return "", domain.Session{}, internal_errors.ErrInvalidCredentials
}

func (m *MockAuthService) Logout(ctx context.Context, sessionId string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(sessionId)
	}
	return nil
}

func (m *MockAuthService) Session(ctx context.Context, token string) (domain.Session, error) {
	if m.SessionFunc != nil {
		return m.SessionFunc(token)
	}
	return domain.Session{}, internal_errors.Unauthorized("Session expired")
}

func (m *MockAuthService) ChangePassword(ctx context.Context, sess domain.Session, current, next domain.Password) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(sess, current, next)
	}
	return nil
}

func (m *MockAuthService) EnsureAdmin(ctx context.Context, username domain.Username, password domain.Password) (bool, domain.Password, error) {
	return false, "", nil
}

type MockContentService struct {
	ListPostsFunc      func() ([]domain.Post, error)
	GetPostFunc        func(id domain.PostId) (domain.Post, error)
	CreatePostFunc     func(data domain.PostCreationData) (domain.Post, error)
	DeletePostFunc     func(id domain.PostId) error
	AttachmentPathFunc func(filename string) (domain.File, string, error)
	FilePathFunc       func(id domain.FileId) (domain.File, string, error)
}

func (m *MockContentService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	if m.ListPostsFunc != nil {
		return m.ListPostsFunc()
	}
	return nil, nil
}

func (m *MockContentService) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.GetPostFunc != nil {
		return m.GetPostFunc(id)
	}
	return domain.Post{}, internal_errors.NotFound("Post")
}

func (m *MockContentService) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(data)
	}
	return domain.Post{Id: 1}, nil
}

func (m *MockContentService) DeletePost(ctx context.Context, id domain.PostId) error {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(id)
	}
	return internal_errors.NotFound("Post")
}

func (m *MockContentService) AttachmentPath(ctx context.Context, filename string) (domain.File, string, error) {
	if m.AttachmentPathFunc != nil {
		return m.AttachmentPathFunc(filename)
	}
	return domain.File{}, "", internal_errors.NotFound("Attachment")
}

func (m *MockContentService) FilePath(ctx context.Context, id domain.FileId) (domain.File, string, error) {
	if m.FilePathFunc != nil {
		return m.FilePathFunc(id)
	}
	return domain.File{}, "", internal_errors.NotFound("Attachment")
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }
