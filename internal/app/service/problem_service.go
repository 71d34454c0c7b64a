package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"speak_score/internal/common"
	"speak_score/internal/domain/model"
	"speak_score/internal/domain/repository"
	"speak_score/internal/platform/config"
	"speak_score/internal/platform/objectstore"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// answerURLExpiry bounds how long a presigned answer playback link stays
// valid.
const answerURLExpiry = 15 * time.Minute

// ProblemService reads the problem catalog and carries the authoring
// surface used to populate it.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	store       objectstore.ObjectStore
	listLimit   int
}

func NewProblemService(problemRepo repository.ProblemRepository, store objectstore.ObjectStore, cfg *config.Config) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		store:       store,
		listLimit:   cfg.ProblemsLimit,
	}
}

// ListRecent returns at most the configured cap of problems, newest first,
// each carrying a presigned playback link for its answer recording. A
// failed presign degrades that one link, not the listing.
func (s *ProblemService) ListRecent(ctx context.Context) ([]model.Problem, error) {
	problems, err := s.problemRepo.ListRecentProblems(ctx, s.listLimit)
	if err != nil {
		return nil, err
	}
	for i := range problems {
		url, err := s.store.PresignGet(ctx, problems[i].AnswerFilePath, answerURLExpiry)
		if err != nil {
			log.Printf("WARN: Failed to presign answer asset %s: %v", problems[i].AnswerFilePath, err)
			continue
		}
		problems[i].AnswerURL = url
	}
	return problems, nil
}

func (s *ProblemService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return s.problemRepo.ListGenres(ctx)
}

type CreateProblemRequest struct {
	GenreID        string `json:"genre_id"`
	Text           string `json:"text"`
	AnswerFilePath string `json:"answer_file_path"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	if req.GenreID == "" || req.Text == "" || req.AnswerFilePath == "" {
		return nil, fmt.Errorf("genre_id, text and answer_file_path are required: %w", common.ErrValidation)
	}

	problem := &model.Problem{
		ID:             uuid.NewString(),
		GenreID:        req.GenreID,
		Text:           req.Text,
		AnswerFilePath: req.AnswerFilePath,
	}
	if err := s.problemRepo.CreateProblem(ctx, problem); err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	log.Printf("INFO: Problem %s created by user %s", problem.ID, userID)
	return problem, nil
}

type CreateGenreRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateGenre inserts a genre whose name is the slug of its display name.
func (s *ProblemService) CreateGenre(ctx context.Context, userID string, req CreateGenreRequest) (*model.Genre, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("display_name is required: %w", common.ErrValidation)
	}

	genre := &model.Genre{
		ID:          uuid.NewString(),
		Name:        slug.Make(req.DisplayName),
		DisplayName: req.DisplayName,
	}
	if err := s.problemRepo.CreateGenre(ctx, genre); err != nil {
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}
	log.Printf("INFO: Genre %s (%s) created by user %s", genre.ID, genre.Name, userID)
	return genre, nil
}
