package handler

import (
	"net/http"

	"speak_score/internal/app/service"
	"speak_score/internal/common"

	"github.com/go-chi/chi/v5"
)

type ResultHandler struct {
	resultService *service.ResultService
}

func NewResultHandler(rs *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

// RegisterProblemRoutes mounts the latest-result lookup onto the /problems
// subtree.
func (h *ResultHandler) RegisterProblemRoutes(r chi.Router) {
	r.Get("/{problemID}/result", h.latestResult) // GET /problems/{problem_id}/result?user_id=
}

func (h *ResultHandler) RegisterRankingRoutes(r chi.Router) {
	r.Get("/", h.ranking) // GET /ranking
}

func (h *ResultHandler) latestResult(w http.ResponseWriter, r *http.Request) {
	problemID := chi.URLParam(r, "problemID")
	userID := r.URL.Query().Get("user_id")

	result, err := h.resultService.LatestResult(r.Context(), problemID, userID)
	if err != nil {
		// Zero attempts for the pair is an expected 404, not an anomaly.
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ResultHandler) ranking(w http.ResponseWriter, r *http.Request) {
	entries, err := h.resultService.Ranking(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, service.RankingResponse{Ranking: entries})
}
