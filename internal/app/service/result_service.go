package service

import (
	"context"
	"fmt"
	"time"

	"speak_score/internal/common"
	"speak_score/internal/domain/model"
	"speak_score/internal/domain/repository"
	"speak_score/internal/platform/config"
)

// ResultService reads the result ledger and computes the time-windowed
// leaderboard. The HTTP surface never writes results; the scoring worker
// owns the write path.
type ResultService struct {
	resultRepo repository.ResultRepository
	window     time.Duration
	topN       int
	now        func() time.Time
}

func NewResultService(resultRepo repository.ResultRepository, cfg *config.Config) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		window:     cfg.RankingWindow,
		topN:       cfg.RankingTopN,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// LatestResult returns the newest result for a (problem, user) pair.
// common.ErrNotFound for a pair with no attempts is an expected outcome.
func (s *ResultService) LatestResult(ctx context.Context, problemID, userID string) (*model.Result, error) {
	if problemID == "" || userID == "" {
		return nil, fmt.Errorf("problem_id and user_id are required: %w", common.ErrBadRequest)
	}
	return s.resultRepo.FindLatest(ctx, problemID, userID)
}

type RankingResponse struct {
	Ranking []model.RankingEntry `json:"ranking"`
}

// Ranking computes the top-N over the trailing window. The window boundary
// is inclusive and the instant is taken once per call, in UTC. An empty
// window yields an empty slice, never an error.
func (s *ResultService) Ranking(ctx context.Context) ([]model.RankingEntry, error) {
	since := s.now().Add(-s.window)
	entries, err := s.resultRepo.Ranking(ctx, since, s.topN)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ranking: %w", err)
	}
	return entries, nil
}
