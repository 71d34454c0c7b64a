package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"speak_score/internal/common"
	"speak_score/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	ListRecentProblems(ctx context.Context, limit int) ([]model.Problem, error)

	CreateGenre(ctx context.Context, genre *model.Genre) error
	ListGenres(ctx context.Context) ([]model.Genre, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, p *model.Problem) error {
	query := `INSERT INTO problems (id, genre_id, text, answer_file_path)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.GenreID, p.Text, p.AnswerFilePath).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // FK violation on genre_id
			return fmt.Errorf("genre %s does not exist: %w", p.GenreID, common.ErrBadRequest)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT id, genre_id, text, answer_file_path, created_at
	          FROM problems WHERE id = $1`
	problem := &model.Problem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&problem.ID, &problem.GenreID, &problem.Text, &problem.AnswerFilePath, &problem.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return problem, nil
}

// ListRecentProblems returns the newest problems, created_at descending.
func (r *pgProblemRepository) ListRecentProblems(ctx context.Context, limit int) ([]model.Problem, error) {
	query := `SELECT id, genre_id, text, answer_file_path, created_at
	          FROM problems ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListRecentProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.GenreID, &p.Text, &p.AnswerFilePath, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListRecentProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListRecentProblems rows.Err: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) CreateGenre(ctx context.Context, g *model.Genre) error {
	query := `INSERT INTO genres (id, name, display_name) VALUES ($1, $2, $3)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, g.ID, g.Name, g.DisplayName).Scan(&g.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for name
			return fmt.Errorf("genre with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateGenre: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) ListGenres(ctx context.Context) ([]model.Genre, error) {
	query := `SELECT id, name, display_name, created_at FROM genres`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListGenres query: %w", err)
	}
	defer rows.Close()

	genres := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.DisplayName, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListGenres scan: %w", err)
		}
		genres = append(genres, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListGenres rows.Err: %w", err)
	}
	return genres, nil
}
