package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/factshield/factshield/internal/domain"
	internal_errors "github.com/factshield/factshield/internal/errors"
)

// SaveUser inserts a user. A taken username yields a 409.
func (s *Storage) SaveUser(ctx context.Context, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(ctx, tx, user)
		return err
	})
	return id, err
}

func (s *Storage) UserByUsername(ctx context.Context, username domain.Username) (domain.User, error) {
	return s.user(ctx, s.db, "username", username)
}

func (s *Storage) UserById(ctx context.Context, id domain.UserId) (domain.User, error) {
	return s.user(ctx, s.db, "id", id)
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// UpdatePassword stores a new hash and the must-change flag together.
func (s *Storage) UpdatePassword(ctx context.Context, id domain.UserId, passHash string, mustChange bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE users SET password_hash = $1, must_change_password = $2 WHERE id = $3",
			passHash, mustChange, id)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for password update: %w", err)
		}
		if rowsAffected == 0 {
			return internal_errors.NotFound("User")
		}
		return nil
	})
}

func (s *Storage) saveUser(ctx context.Context, q Querier, user domain.User) (domain.UserId, error) {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id domain.UserId
	err := q.QueryRowContext(ctx,
		"INSERT INTO users(username, password_hash, must_change_password, created_at) VALUES($1, $2, $3, $4) RETURNING id",
		user.Username, user.PassHash, user.MustChangePassword, dbTime(createdAt)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return -1, internal_errors.Conflict("Username already taken")
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// column is one of a fixed set of identifiers, never user input.
func (s *Storage) user(ctx context.Context, q Querier, column string, value any) (domain.User, error) {
	var user domain.User
	err := q.QueryRowContext(ctx,
		"SELECT id, username, password_hash, must_change_password, created_at FROM users WHERE "+column+" = $1",
		value).Scan(&user.Id, &user.Username, &user.PassHash, &user.MustChangePassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// dbTime normalizes timestamps to what both databases can round-trip.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
