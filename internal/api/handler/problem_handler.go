package handler

import (
	"encoding/json"
	"net/http"

	"speak_score/internal/api/middleware"
	"speak_score/internal/app/service"
	"speak_score/internal/common"
	"speak_score/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
	sessionAuth    *jwtauth.JWTAuth
}

func NewProblemHandler(ps *service.ProblemService, sessionAuth *jwtauth.JWTAuth) *ProblemHandler {
	return &ProblemHandler{problemService: ps, sessionAuth: sessionAuth}
}

// RegisterRoutes mounts the catalog reads plus the session-gated authoring
// writes onto the /problems subtree.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems) // GET /problems

	r.Group(func(authoring chi.Router) {
		authoring.Use(jwtauth.Verify(h.sessionAuth, middleware.SessionTokenFromCookie))
		authoring.Use(middleware.Authenticator)
		authoring.Post("/", h.createProblem) // POST /problems
	})
}

// RegisterGenreRoutes mounts the genre listing and authoring onto /genres.
func (h *ProblemHandler) RegisterGenreRoutes(r chi.Router) {
	r.Get("/", h.listGenres) // GET /genres

	r.Group(func(authoring chi.Router) {
		authoring.Use(jwtauth.Verify(h.sessionAuth, middleware.SessionTokenFromCookie))
		authoring.Use(middleware.Authenticator)
		authoring.Post("/", h.createGenre) // POST /genres
	})
}

type listProblemsResponse struct {
	Problems []model.Problem `json:"problems"`
}

type listGenresResponse struct {
	Genres []model.Genre `json:"genres"`
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problemService.ListRecent(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listProblemsResponse{Problems: problems})
}

func (h *ProblemHandler) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.problemService.ListGenres(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listGenresResponse{Genres: genres})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) createGenre(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateGenreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	genre, err := h.problemService.CreateGenre(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, genre)
}
