package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/session"
)

// --- Mocks ---

type MockAuthStorage struct {
	SaveUserFunc       func(user domain.User) (domain.UserId, error)
	UserByUsernameFunc func(username domain.Username) (domain.User, error)
	UserByIdFunc       func(id domain.UserId) (domain.User, error)
	CountUsersFunc     func() (int, error)
	UpdatePasswordFunc func(id domain.UserId, passHash string, mustChange bool) error
}

func (m *MockAuthStorage) SaveUser(ctx context.Context, user domain.User) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	return 1, nil
}

func (m *MockAuthStorage) UserByUsername(ctx context.Context, username domain.Username) (domain.User, error) {
	if m.UserByUsernameFunc != nil {
		return m.UserByUsernameFunc(username)
	}
	return domain.User{}, internal_errors.NotFound("User")
}

func (m *MockAuthStorage) UserById(ctx context.Context, id domain.UserId) (domain.User, error) {
	if m.UserByIdFunc != nil {
		return m.UserByIdFunc(id)
	}
	return domain.User{}, internal_errors.NotFound("User")
}

func (m *MockAuthStorage) CountUsers(ctx context.Context) (int, error) {
	if m.CountUsersFunc != nil {
		return m.CountUsersFunc()
	}
	return 0, nil
}

func (m *MockAuthStorage) UpdatePassword(ctx context.Context, id domain.UserId, passHash string, mustChange bool) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(id, passHash, mustChange)
	}
	return nil
}

type MockJwt struct {
	NewTokenFunc    func(claims session.Claims) (string, error)
	DecodeTokenFunc func(jwtStr string) (session.Claims, error)
}

func (m *MockJwt) NewToken(claims session.Claims) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(claims)
	}
	return claims.SessionId + "|" + fmt.Sprint(claims.UserId), nil
}

func (m *MockJwt) DecodeToken(jwtStr string) (session.Claims, error) {
	if m.DecodeTokenFunc != nil {
		return m.DecodeTokenFunc(jwtStr)
	}
	var c session.Claims
	for i := len(jwtStr) - 1; i >= 0; i-- {
		if jwtStr[i] == '|' {
			c.SessionId = jwtStr[:i]
			fmt.Sscan(jwtStr[i+1:], &c.UserId)
			return c, nil
		}
	}
	return c, internal_errors.Unauthorized("Invalid session token")
}

type MockContentStorage struct {
	CreatePostFunc       func(post domain.Post, beforeCommit func(domain.Post) error) (domain.Post, error)
	PostsFunc            func() ([]domain.Post, error)
	PostFunc             func(id domain.PostId) (domain.Post, error)
	DeletePostFunc       func(id domain.PostId) (domain.Post, error)
	LatestFileByNameFunc func(filename string) (domain.File, error)
	FileFunc             func(id domain.FileId) (domain.File, error)
}

func (m *MockContentStorage) CreatePost(ctx context.Context, post domain.Post, beforeCommit func(domain.Post) error) (domain.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(post, beforeCommit)
	}
	post.Id = 1
	for i := range post.Files {
		post.Files[i].Id = domain.FileId(i + 1)
		post.Files[i].PostId = post.Id
	}
	if beforeCommit != nil {
		if err := beforeCommit(post); err != nil {
			return domain.Post{}, err
		}
	}
	return post, nil
}

func (m *MockContentStorage) Posts(ctx context.Context) ([]domain.Post, error) {
	if m.PostsFunc != nil {
		return m.PostsFunc()
	}
	return nil, nil
}

func (m *MockContentStorage) Post(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.PostFunc != nil {
		return m.PostFunc(id)
	}
	return domain.Post{}, internal_errors.NotFound("Post")
}

func (m *MockContentStorage) DeletePost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(id)
	}
	return domain.Post{}, internal_errors.NotFound("Post")
}

func (m *MockContentStorage) LatestFileByName(ctx context.Context, filename string) (domain.File, error) {
	if m.LatestFileByNameFunc != nil {
		return m.LatestFileByNameFunc(filename)
	}
	return domain.File{}, internal_errors.NotFound("Attachment")
}

func (m *MockContentStorage) File(ctx context.Context, id domain.FileId) (domain.File, error) {
	if m.FileFunc != nil {
		return m.FileFunc(id)
	}
	return domain.File{}, internal_errors.NotFound("Attachment")
}

// MockMediaStorage keeps files in memory and records every call.
type MockMediaStorage struct {
	mu       sync.Mutex
	staged   map[string][]byte
	stored   map[string][]byte
	counter  int
	deleted  []string
	discards []string

	StageFunc      func(data io.Reader) (string, int64, error)
	PromoteFunc    func(stagedPath, key string) error
	DeleteFileFunc func(key string) error
	WalkFilesFunc  func() ([]MediaFile, error)
}

func NewMockMediaStorage() *MockMediaStorage {
	return &MockMediaStorage{staged: map[string][]byte{}, stored: map[string][]byte{}}
}

func (m *MockMediaStorage) Stage(data io.Reader) (string, int64, error) {
	if m.StageFunc != nil {
		return m.StageFunc(data)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, data)
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	p := fmt.Sprintf("/staging/upload-%d", m.counter)
	m.staged[p] = buf.Bytes()
	return p, n, nil
}

func (m *MockMediaStorage) Promote(stagedPath, key string) error {
	if m.PromoteFunc != nil {
		if err := m.PromoteFunc(stagedPath, key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.staged[stagedPath]
	if !ok {
		return fmt.Errorf("not staged: %s", stagedPath)
	}
	delete(m.staged, stagedPath)
	m.stored[key] = data
	return nil
}

func (m *MockMediaStorage) Discard(stagedPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discards = append(m.discards, stagedPath)
	delete(m.staged, stagedPath)
	return nil
}

func (m *MockMediaStorage) Path(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stored[key]; !ok {
		return "", internal_errors.NotFound("Attachment")
	}
	return "/root/" + key, nil
}

func (m *MockMediaStorage) DeleteFile(key string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(key)
	}
	m.mu.Lock()
	delete(m.stored, key)
	m.mu.Unlock()
	return nil
}

func (m *MockMediaStorage) WalkFiles() ([]MediaFile, error) {
	if m.WalkFilesFunc != nil {
		return m.WalkFilesFunc()
	}
	return nil, nil
}

func (m *MockMediaStorage) deletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

func (m *MockMediaStorage) counts() (staged, stored int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.staged), len(m.stored)
}

type MockGCStorage struct {
	StorageKeysFunc func() ([]string, error)
}

func (m *MockGCStorage) StorageKeys(ctx context.Context) ([]string, error) {
	if m.StorageKeysFunc != nil {
		return m.StorageKeysFunc()
	}
	return nil, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
