package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/factshield/factshield/internal/config"
	"github.com/factshield/factshield/internal/domain"
	"github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/logger"
	"github.com/factshield/factshield/internal/session"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (string, domain.Session, error)
	Logout(ctx context.Context, sessionId string) error
	Session(ctx context.Context, token string) (domain.Session, error)
	ChangePassword(ctx context.Context, sess domain.Session, current, next domain.Password) error
	EnsureAdmin(ctx context.Context, username domain.Username, password domain.Password) (bool, domain.Password, error)
}

type Auth struct {
	storage    AuthStorage
	sessions   SessionStore
	jwt        Jwt
	cfg        *config.Public
	bcryptCost int
	now        func() time.Time
}

type AuthStorage interface {
	SaveUser(ctx context.Context, user domain.User) (domain.UserId, error)
	UserByUsername(ctx context.Context, username domain.Username) (domain.User, error)
	UserById(ctx context.Context, id domain.UserId) (domain.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, id domain.UserId, passHash string, mustChange bool) error
}

type SessionStore interface {
	Create(user domain.User) (domain.Session, error)
	Get(id string) (domain.Session, bool)
	Delete(id string)
	SetMustChangePassword(userId domain.UserId, v bool)
	DeleteUserSessions(userId domain.UserId, keep string)
}

type Jwt interface {
	NewToken(claims session.Claims) (string, error)
	DecodeToken(jwtStr string) (session.Claims, error)
}

func NewAuth(storage AuthStorage, sessions SessionStore, jwt Jwt, cfg *config.Public) *Auth {
	return &Auth{
		storage:    storage,
		sessions:   sessions,
		jwt:        jwt,
		cfg:        cfg,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work as a real comparison so an
// unknown username is not distinguishable by timing.
func (a *Auth) compareDummy(password domain.Password) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("factshield-timing-equalizer"), a.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login checks credentials and opens a session. Unknown usernames and wrong
// passwords both return errors.ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, creds domain.Credentials) (string, domain.Session, error) {
	user, err := a.storage.UserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.IsNotFound(err) {
			a.compareDummy(creds.Password)
			loginAttemptsTotal.WithLabelValues("invalid").Inc()
			return "", domain.Session{}, errors.ErrInvalidCredentials
		}
		return "", domain.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		loginAttemptsTotal.WithLabelValues("invalid").Inc()
		return "", domain.Session{}, errors.ErrInvalidCredentials
	}

	sess, err := a.sessions.Create(user)
	if err != nil {
		return "", domain.Session{}, err
	}
	token, err := a.jwt.NewToken(session.Claims{SessionId: sess.Id, UserId: user.Id})
	if err != nil {
		a.sessions.Delete(sess.Id)
		return "", domain.Session{}, err
	}

	loginAttemptsTotal.WithLabelValues("success").Inc()
	logger.Log.Info("user logged in", "user_id", user.Id)
	return token, sess, nil
}

// Logout is idempotent.
func (a *Auth) Logout(ctx context.Context, sessionId string) error {
	a.sessions.Delete(sessionId)
	return nil
}

// Session resolves a cookie token to its live server-side session.
func (a *Auth) Session(ctx context.Context, token string) (domain.Session, error) {
	claims, err := a.jwt.DecodeToken(token)
	if err != nil {
		return domain.Session{}, err
	}
	sess, ok := a.sessions.Get(claims.SessionId)
	if !ok || sess.UserId != claims.UserId {
		return domain.Session{}, errors.Unauthorized("Session expired")
	}
	return sess, nil
}

// ChangePassword replaces the password of the session's user, clears the
// forced-change flag and signs out every other session of that user.
func (a *Auth) ChangePassword(ctx context.Context, sess domain.Session, current, next domain.Password) error {
	user, err := a.storage.UserById(ctx, sess.UserId)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(current)); err != nil {
		return errors.Validation("Current password is incorrect")
	}
	if err := a.checkPassword(next); err != nil {
		return err
	}
	if next == current {
		return errors.Validation("New password must differ from the current one")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(next), a.bcryptCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return err
	}
	if err := a.storage.UpdatePassword(ctx, user.Id, string(passHash), false); err != nil {
		return err
	}

	a.sessions.SetMustChangePassword(user.Id, false)
	a.sessions.DeleteUserSessions(user.Id, sess.Id)
	logger.Log.Info("password changed", "user_id", user.Id)
	return nil
}

// EnsureAdmin creates the first account when no user exists yet. An empty
// password is replaced by a generated one, which is returned so the caller
// can show it once. The account has to change its password on first login.
func (a *Auth) EnsureAdmin(ctx context.Context, username domain.Username, password domain.Password) (bool, domain.Password, error) {
	n, err := a.storage.CountUsers(ctx)
	if err != nil {
		return false, "", err
	}
	if n > 0 {
		return false, "", nil
	}
	if username == "" || len(username) > 50 {
		return false, "", errors.Validation("Admin username must be 1-50 characters")
	}

	var generated domain.Password
	if password == "" {
		generated, err = generatePassword()
		if err != nil {
			return false, "", err
		}
		password = generated
	}
	if err := a.checkPassword(password); err != nil {
		return false, "", err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return false, "", err
	}
	id, err := a.storage.SaveUser(ctx, domain.User{
		Username:           username,
		PassHash:           string(passHash),
		MustChangePassword: true,
		CreatedAt:          a.now().UTC(),
	})
	if err != nil {
		return false, "", err
	}
	logger.Log.Info("admin account created", "user_id", id, "username", username)
	return true, generated, nil
}

func (a *Auth) checkPassword(p domain.Password) error {
	if len(p) < a.cfg.PasswordMinLen {
		return errors.Validation(fmt.Sprintf("Password must be at least %d characters", a.cfg.PasswordMinLen))
	}
	// bcrypt ignores everything past 72 bytes
	if len(p) > 72 {
		return errors.Validation("Password must be at most 72 bytes")
	}
	return nil
}

func generatePassword() (domain.Password, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
