package api

import (
	"net/http"
	"time"

	"speak_score/internal/api/handler"
	"speak_score/internal/app/service"
	"speak_score/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	authService *service.AuthService,
	problemService *service.ProblemService,
	resultService *service.ResultService,
	uploadService *service.UploadService,
	sessions *security.Sessions,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	authHandler.RegisterRoutes(r)

	problemHandler := handler.NewProblemHandler(problemService, sessions.TokenAuth())
	resultHandler := handler.NewResultHandler(resultService)
	r.Route("/problems", func(pr chi.Router) {
		problemHandler.RegisterRoutes(pr)
		resultHandler.RegisterProblemRoutes(pr)
	})
	r.Route("/genres", problemHandler.RegisterGenreRoutes)
	r.Route("/ranking", resultHandler.RegisterRankingRoutes)

	uploadHandler := handler.NewUploadHandler(uploadService)
	r.Route("/upload", uploadHandler.RegisterRoutes)

	return r
}
