// Package store persists pipeline runs so callers can poll a run they
// launched and operators can review recent history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/packsight/packsight/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	CreateRun(ctx context.Context, in RunInput) (models.PipelineRun, error)
	FinishRun(ctx context.Context, id uuid.UUID, status string, results []models.CategoryResult) (models.PipelineRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (models.PipelineRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error)
	Ping(ctx context.Context) error
}

type RunInput struct {
	ID         uuid.UUID
	Pipeline   string
	Categories []string
	MaxOrders  int
}

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const runColumns = "id, pipeline, categories, max_orders, status, results, started_at, finished_at"

func scanRun(row rowScanner) (models.PipelineRun, error) {
	var (
		run        models.PipelineRun
		categories []byte
		results    []byte
		finishedAt sql.NullTime
	)
	if err := row.Scan(
		&run.ID,
		&run.Pipeline,
		&categories,
		&run.MaxOrders,
		&run.Status,
		&results,
		&run.StartedAt,
		&finishedAt,
	); err != nil {
		return models.PipelineRun{}, err
	}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &run.Categories); err != nil {
			return models.PipelineRun{}, fmt.Errorf("decode categories: %w", err)
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &run.Results); err != nil {
			return models.PipelineRun{}, fmt.Errorf("decode results: %w", err)
		}
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return run, nil
}

func (s *PGStore) CreateRun(ctx context.Context, in RunInput) (models.PipelineRun, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	categories, err := json.Marshal(in.Categories)
	if err != nil {
		return models.PipelineRun{}, fmt.Errorf("encode categories: %w", err)
	}
	query := `
		INSERT INTO pipeline_runs (id, pipeline, categories, max_orders, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING ` + runColumns
	row := s.db.QueryRowContext(ctx, query, in.ID, in.Pipeline, categories, in.MaxOrders, models.RunStatusRunning)
	run, err := scanRun(row)
	if err != nil {
		return models.PipelineRun{}, fmt.Errorf("insert pipeline run: %w", err)
	}
	return run, nil
}

func (s *PGStore) FinishRun(ctx context.Context, id uuid.UUID, status string, results []models.CategoryResult) (models.PipelineRun, error) {
	encoded, err := json.Marshal(results)
	if err != nil {
		return models.PipelineRun{}, fmt.Errorf("encode results: %w", err)
	}
	query := `
		UPDATE pipeline_runs
		SET status=$2, results=$3, finished_at=NOW()
		WHERE id=$1
		RETURNING ` + runColumns
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id, status, encoded))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PipelineRun{}, ErrNotFound
		}
		return models.PipelineRun{}, fmt.Errorf("finish pipeline run: %w", err)
	}
	return run, nil
}

func (s *PGStore) GetRun(ctx context.Context, id uuid.UUID) (models.PipelineRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM pipeline_runs WHERE id=$1
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PipelineRun{}, ErrNotFound
		}
		return models.PipelineRun{}, fmt.Errorf("get pipeline run: %w", err)
	}
	return run, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func (s *PGStore) ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []models.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipeline runs: %w", err)
	}
	return runs, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
