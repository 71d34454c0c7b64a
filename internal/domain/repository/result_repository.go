package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"speak_score/internal/common"
	"speak_score/internal/domain/model"
)

type ResultRepository interface {
	Create(ctx context.Context, result *model.Result) error
	FindLatest(ctx context.Context, problemID, userID string) (*model.Result, error)
	// Ranking returns results with created_at >= since (boundary inclusive)
	// joined to their users, scored rows only, ordered by score descending
	// with created_at then id as deterministic tie-breaks.
	Ranking(ctx context.Context, since time.Time, limit int) ([]model.RankingEntry, error)
}

type pgResultRepository struct {
	db *sql.DB
}

func NewPgResultRepository(db *sql.DB) ResultRepository {
	return &pgResultRepository{db: db}
}

func (r *pgResultRepository) Create(ctx context.Context, res *model.Result) error {
	query := `INSERT INTO results (id, user_id, problem_id, answered_text, score, try_file_path)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		res.ID, res.UserID, res.ProblemID, res.AnsweredText, res.Score, res.TryFilePath,
	).Scan(&res.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgResultRepository.Create: %w", err)
	}
	return nil
}

func (r *pgResultRepository) FindLatest(ctx context.Context, problemID, userID string) (*model.Result, error) {
	query := `SELECT id, user_id, problem_id, answered_text, score, try_file_path, created_at
	          FROM results
	          WHERE problem_id = $1 AND user_id = $2
	          ORDER BY created_at DESC
	          LIMIT 1`
	result := &model.Result{}
	var answeredText sql.NullString
	var score sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, problemID, userID).Scan(
		&result.ID, &result.UserID, &result.ProblemID, &answeredText, &score,
		&result.TryFilePath, &result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgResultRepository.FindLatest: %w", err)
	}
	if answeredText.Valid {
		result.AnsweredText = &answeredText.String
	}
	if score.Valid {
		result.Score = &score.Float64
	}
	return result, nil
}

func (r *pgResultRepository) Ranking(ctx context.Context, since time.Time, limit int) ([]model.RankingEntry, error) {
	query := `SELECT u.username, r.score
	          FROM results r
	          JOIN users u ON u.id = r.user_id
	          WHERE r.created_at >= $1 AND r.score IS NOT NULL
	          ORDER BY r.score DESC, r.created_at ASC, r.id ASC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("pgResultRepository.Ranking query: %w", err)
	}
	defer rows.Close()

	entries := []model.RankingEntry{}
	for rows.Next() {
		var e model.RankingEntry
		if err := rows.Scan(&e.Name, &e.Score); err != nil {
			return nil, fmt.Errorf("pgResultRepository.Ranking scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgResultRepository.Ranking rows.Err: %w", err)
	}
	return entries, nil
}
