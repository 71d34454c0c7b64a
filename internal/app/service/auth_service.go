package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"speak_score/internal/common"
	"speak_score/internal/common/security"
	"speak_score/internal/domain/model"
	"speak_score/internal/domain/repository"

	"github.com/google/uuid"
)

// AuthService is the user directory: login is username-only and provisions
// the user on first sight.
type AuthService struct {
	userRepo repository.UserRepository
	sessions *security.Sessions
}

func NewAuthService(userRepo repository.UserRepository, sessions *security.Sessions) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions}
}

type LoginRequest struct {
	Username string `json:"username"`
}

type LoginResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// LoginOrCreate returns the user matching name (byte-exact), creating it if
// unseen, together with a freshly minted session token. Two concurrent
// first logins with the same name both land on the same row: the loser of
// the insert race re-reads the winner.
func (s *AuthService) LoginOrCreate(ctx context.Context, name string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("username must not be empty: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByUsername(ctx, name)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to find user: %w", err)
		}
		user = &model.User{
			ID:       uuid.NewString(),
			Username: name,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if !errors.Is(err, common.ErrConflict) {
				return nil, "", fmt.Errorf("failed to create user: %w", err)
			}
			// Lost the create race; the row exists now.
			user, err = s.userRepo.FindByUsername(ctx, name)
			if err != nil {
				return nil, "", fmt.Errorf("failed to find user after conflict: %w", err)
			}
		}
	}

	token, err := s.sessions.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return user, token, nil
}

// SessionCookie wraps a minted token in the session cookie; the service
// stays the sole owner of token semantics.
func (s *AuthService) SessionCookie(token string) *http.Cookie {
	return s.sessions.Cookie(token)
}
