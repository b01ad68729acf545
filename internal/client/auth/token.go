package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims поля access token'а, нужные клиенту
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// ActorID возвращает идентификатор пользователя: subject, либо user_id
func (c *Claims) ActorID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// ExpiresAtUnix возвращает exp в unix seconds, 0 если claim отсутствует
func (c *Claims) ExpiresAtUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// ParseToken извлекает claims из access token'а без проверки подписи.
// Подпись проверяет сервер; клиенту нужен только идентификатор пользователя.
func ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ActorID() == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return claims, nil
}

// Auth errors
var (
	// ErrInvalidToken токен не является JWT или не содержит subject
	ErrInvalidToken = errors.New("invalid access token")

	// ErrNotSignedIn нет сохраненной сессии или она истекла
	ErrNotSignedIn = errors.New("not signed in")
)
