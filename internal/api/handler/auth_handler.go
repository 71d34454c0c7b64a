package handler

import (
	"encoding/json"
	"net/http"

	"speak_score/internal/app/service"
	"speak_score/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, token, err := h.authService.LoginOrCreate(r.Context(), req.Username)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	http.SetCookie(w, h.authService.SessionCookie(token))
	common.RespondWithJSON(w, http.StatusOK, service.LoginResponse{
		UserID:   user.ID,
		Username: user.Username,
		Message:  "login successful",
	})
}
