package security

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the login handler sets and the router's
// verifier reads. The token itself is opaque to clients.
const SessionCookieName = "session"

// Sessions mints and verifies the session tokens bound to a logged-in user.
type Sessions struct {
	tokenAuth *jwtauth.JWTAuth
	expiry    time.Duration
}

func NewSessions(key []byte, expiry time.Duration) *Sessions {
	return &Sessions{
		tokenAuth: jwtauth.New("HS256", key, nil),
		expiry:    expiry,
	}
}

// TokenAuth exposes the verifier for the router middleware.
func (s *Sessions) TokenAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}

// GenerateToken issues a signed session token for a user.
func (s *Sessions) GenerateToken(userID, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(s.expiry).Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err := s.tokenAuth.Encode(claims)
	return tokenString, err
}

// Cookie wraps a token in the HttpOnly session cookie.
func (s *Sessions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.expiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}
