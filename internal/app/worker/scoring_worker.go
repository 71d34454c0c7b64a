package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"speak_score/internal/app/scoring"
	"speak_score/internal/app/transcribe"
	"speak_score/internal/domain/model"
	"speak_score/internal/domain/repository"
	"speak_score/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScoringWorker consumes uploaded attempt keys from the redis queue,
// transcribes the audio, scores the transcript against the problem text and
// appends a result row. One attempt is scored at a time across all
// instances, guarded by a redis lock.
type ScoringWorker struct {
	rdb         *redis.Client
	problemRepo repository.ProblemRepository
	resultRepo  repository.ResultRepository
	transcriber transcribe.Transcriber

	queueName string
	lockKey   string
	lockTTL   time.Duration
	bucket    string
}

func NewScoringWorker(
	rdb *redis.Client,
	problemRepo repository.ProblemRepository,
	resultRepo repository.ResultRepository,
	transcriber transcribe.Transcriber,
	cfg *config.Config,
) *ScoringWorker {
	return &ScoringWorker{
		rdb:         rdb,
		problemRepo: problemRepo,
		resultRepo:  resultRepo,
		transcriber: transcriber,
		queueName:   cfg.ScoringQueueName,
		lockKey:     cfg.ScoringLockKey,
		lockTTL:     time.Duration(cfg.ScoringLockTTLSeconds) * time.Second,
		bucket:      cfg.StorageBucket,
	}
}

func (w *ScoringWorker) Start(ctx context.Context) {
	log.Println("Scoring worker started, listening to queue:", w.queueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Scoring worker stopping...")
			return
		default:
			res, err := w.rdb.BRPop(ctx, 0*time.Second, w.queueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Printf("Worker BRPop exiting or timed out: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", w.queueName, err)
				time.Sleep(5 * time.Second)
				continue
			}

			// res is [queueName, value]
			if len(res) < 2 || res[1] == "" {
				log.Println("WARN: BRPop returned empty attempt key.")
				continue
			}
			key := res[1]
			log.Printf("Worker picked up attempt: %s", key)

			w.processWithLock(ctx, key)
		}
	}
}

func (w *ScoringWorker) processWithLock(ctx context.Context, key string) {
	lockValue := uuid.NewString()

	ok, err := w.rdb.SetNX(ctx, w.lockKey, lockValue, w.lockTTL).Result()
	if err != nil {
		log.Printf("ERROR: Failed to attempt lock acquisition for %s: %v", key, err)
		w.requeue(ctx, key)
		return
	}
	if !ok {
		log.Printf("INFO: Could not acquire scoring lock for %s, another worker is busy. Re-queueing.", key)
		w.requeue(ctx, key)
		return
	}

	defer func() {
		// Compare-and-delete so an expired lock taken by someone else is
		// never released from here.
		script := redis.NewScript(`
            if redis.call("get", KEYS[1]) == ARGV[1] then
                return redis.call("del", KEYS[1])
            else
                return 0
            end
        `)
		deleted, err := script.Run(ctx, w.rdb, []string{w.lockKey}, lockValue).Result()
		if err != nil {
			log.Printf("ERROR: Failed to release scoring lock (%s): %v", key, err)
		} else if n, _ := deleted.(int64); n != 1 {
			log.Printf("WARN: Did not release scoring lock for %s; it might have expired.", key)
		}
	}()

	if err := w.scoreAttempt(ctx, key); err != nil {
		// No retries; the failure is logged and the attempt dropped.
		log.Printf("ERROR: Failed to score attempt %s: %v", key, err)
	}
}

func (w *ScoringWorker) requeue(ctx context.Context, key string) {
	if err := w.rdb.RPush(ctx, w.queueName, key).Err(); err != nil {
		log.Printf("ERROR: Failed to re-queue attempt %s: %v", key, err)
	} else {
		log.Printf("INFO: Attempt %s re-queued.", key)
	}
}

func (w *ScoringWorker) scoreAttempt(ctx context.Context, key string) error {
	problemID, userID, err := ParseAttemptKey(key)
	if err != nil {
		return err
	}

	problem, err := w.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return fmt.Errorf("fetch problem %s: %w", problemID, err)
	}

	mediaURI := fmt.Sprintf("s3://%s/%s", w.bucket, key)
	transcript, err := w.transcriber.Transcribe(ctx, mediaURI)
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", mediaURI, err)
	}

	score := scoring.Score(problem.Text, transcript)
	log.Printf("INFO: Attempt %s scored %.2f", key, score)

	result := &model.Result{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProblemID:    problemID,
		AnsweredText: &transcript,
		Score:        &score,
		TryFilePath:  key,
	}
	if err := w.resultRepo.Create(ctx, result); err != nil {
		return fmt.Errorf("save result for %s: %w", key, err)
	}
	return nil
}

// ParseAttemptKey extracts the problem and user ids from an object key of
// the form problems/{problem_id}/users/{user_id}/{file}.
func ParseAttemptKey(key string) (problemID, userID string, err error) {
	parts := strings.Split(key, "/")
	if len(parts) != 5 || parts[0] != "problems" || parts[2] != "users" ||
		parts[1] == "" || parts[3] == "" || parts[4] == "" {
		return "", "", fmt.Errorf("invalid attempt key format: %s", key)
	}
	return parts[1], parts[3], nil
}
