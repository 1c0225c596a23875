package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	internal_errors "github.com/factshield/factshield/internal/errors"
	"github.com/factshield/factshield/internal/logger"
)

// Claims carried by the session cookie. The token only names a server-side
// session; revoking that session invalidates the cookie.
type Claims struct {
	SessionId string
	UserId    int64
}

type JwtService interface {
	NewToken(claims Claims) (string, error)
	DecodeToken(jwtStr string) (Claims, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func NewJwt(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(c Claims) (string, error) {
	claims := jwt.MapClaims{}
	claims["sid"] = c.SessionId
	claims["uid"] = c.UserId
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign session token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (Claims, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		logger.Log.Debug("rejected session token", "error", err)
		return Claims{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid session token", StatusCode: http.StatusUnauthorized}
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errInvalidClaims
	}
	sid, ok := mapClaims["sid"].(string)
	if !ok || sid == "" {
		return Claims{}, errInvalidClaims
	}
	uid, ok := mapClaims["uid"].(float64)
	if !ok {
		return Claims{}, errInvalidClaims
	}
	return Claims{SessionId: sid, UserId: int64(uid)}, nil
}

var errInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid session token", StatusCode: http.StatusUnauthorized}
