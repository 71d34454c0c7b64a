package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"speak_score/internal/api"
	"speak_score/internal/app/service"
	"speak_score/internal/app/transcribe"
	"speak_score/internal/app/worker"
	"speak_score/internal/common/security"
	"speak_score/internal/domain/repository"
	"speak_score/internal/platform/config"
	"speak_score/internal/platform/database"
	"speak_score/internal/platform/objectstore"
	"speak_score/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	log.Println("Configuration loaded.")

	// 2. Initialize Sessions
	sessions := security.NewSessions(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize Database
	db, err := database.Open(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected.")

	// 4. Initialize Redis
	rdb, err := queue.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("Redis connected.")

	// 5. Initialize Object Storage
	store, err := objectstore.NewMinioStore(
		cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey,
		cfg.StorageBucket, cfg.StorageRegion, cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("Could not connect to object storage: %v", err)
	}
	log.Println("Object storage ready.")

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	resultRepo := repository.NewPgResultRepository(db)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, sessions)
	problemService := service.NewProblemService(problemRepo, store, cfg)
	resultService := service.NewResultService(resultRepo, cfg)
	uploadService := service.NewUploadService(store, rdb, cfg.ScoringQueueName)

	// 8. Initialize Scoring Worker (as a goroutine)
	transcriber, err := transcribe.NewAWSTranscriber(context.Background(), cfg.StorageRegion, cfg.TranscribeLanguageCode)
	if err != nil {
		log.Fatalf("Could not initialize transcriber: %v", err)
	}
	scoringWorker := worker.NewScoringWorker(rdb, problemRepo, resultRepo, transcriber, cfg)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go scoringWorker.Start(workerCtx)
	log.Println("Scoring worker started.")

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(authService, problemService, resultService, uploadService, sessions)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
