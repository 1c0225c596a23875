package domain

import "time"

type User struct {
	Id                 UserId
	Username           Username
	PassHash           string
	MustChangePassword bool
	CreatedAt          time.Time
}

type Credentials struct {
	Username Username
	Password Password
}

// Session is the server-side state behind a signed session cookie.
type Session struct {
	Id                 string
	UserId             UserId
	Username           Username
	MustChangePassword bool
	CreatedAt          time.Time
	ExpiresAt          time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
