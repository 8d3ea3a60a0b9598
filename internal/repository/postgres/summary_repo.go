package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"medbrief/internal/domain"
	"medbrief/internal/port"
)

type summaryRepo struct {
	db *sqlx.DB
}

// NewSummaryRepo creates a new PostgreSQL-backed SummaryRepository.
func NewSummaryRepo(db *sqlx.DB) port.SummaryRepository {
	return &summaryRepo{db: db}
}

func (r *summaryRepo) Create(ctx context.Context, rec *domain.SummaryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO summaries (
			id, file_names, page_count, provider, model, attempts,
			kind, envelope, archive_keys, created_at
		) VALUES (
			:id, :file_names, :page_count, :provider, :model, :attempts,
			:kind, :envelope, :archive_keys, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		return fmt.Errorf("summaryRepo.Create: %w", err)
	}
	return nil
}

func (r *summaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryRecord, error) {
	var rec domain.SummaryRecord
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM summaries WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("summaryRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *summaryRepo) List(ctx context.Context, offset, limit int) ([]domain.SummaryRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM summaries"); err != nil {
		return nil, 0, fmt.Errorf("summaryRepo.List count: %w", err)
	}

	var records []domain.SummaryRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT * FROM summaries ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("summaryRepo.List: %w", err)
	}
	return records, total, nil
}

func (r *summaryRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
