package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"speak_score/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

func sessionChain(t *testing.T, sessions *security.Sessions) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "no user on context", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(userID))
	})
	return jwtauth.Verify(sessions.TokenAuth(), SessionTokenFromCookie)(Authenticator(inner))
}

func TestAuthenticatorPutsUserIDOnContext(t *testing.T) {
	sessions := security.NewSessions([]byte("middleware-test-key"), time.Hour)
	token, err := sessions.GenerateToken("u1", "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessions.Cookie(token))
	rec := httptest.NewRecorder()

	sessionChain(t, sessions).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "u1" {
		t.Fatalf("user id on context %q, want %q", got, "u1")
	}
}

func TestAuthenticatorRejectsMissingCookie(t *testing.T) {
	sessions := security.NewSessions([]byte("middleware-test-key"), time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	sessionChain(t, sessions).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestAuthenticatorRejectsForgedToken(t *testing.T) {
	sessions := security.NewSessions([]byte("middleware-test-key"), time.Hour)
	other := security.NewSessions([]byte("some-other-key"), time.Hour)
	token, err := other.GenerateToken("u1", "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessions.Cookie(token))
	rec := httptest.NewRecorder()

	sessionChain(t, sessions).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}
