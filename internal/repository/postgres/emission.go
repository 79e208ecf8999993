package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Migrate creates the run and spectrum tables when they do not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// PostgresEmissionRepository implements EmissionRepository for PostgreSQL
type PostgresEmissionRepository struct {
	db *sql.DB
}

// NewPostgresEmissionRepository creates a new PostgreSQL emission repository
func NewPostgresEmissionRepository(db *sql.DB) repository.EmissionRepository {
	return &PostgresEmissionRepository{db: db}
}

// CreateRun inserts a new run record
func (r *PostgresEmissionRepository) CreateRun(ctx context.Context, run *models.EmissionRun) error {
	query := `
		INSERT INTO emission_runs (id, input_mode, bands, status, source_count, failed_rows, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.InputMode,
		string(run.Bands),
		run.Status,
		run.SourceCount,
		run.FailedRows,
		run.CreatedAt,
		run.UpdatedAt)

	return err
}

// GetRun retrieves a run by ID
func (r *PostgresEmissionRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.EmissionRun, error) {
	query := `
		SELECT id, input_mode, bands, status, source_count, failed_rows, export_key, error_message, created_at, updated_at, completed_at
		FROM emission_runs
		WHERE id = $1`

	var run models.EmissionRun
	var bands string
	var exportKey, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.InputMode,
		&bands,
		&run.Status,
		&run.SourceCount,
		&run.FailedRows,
		&exportKey,
		&errorMsg,
		&run.CreatedAt,
		&run.UpdatedAt,
		&completedAt)

	if err != nil {
		return nil, err
	}

	run.Bands = models.BandKind(bands)
	if exportKey.Valid {
		run.ExportKey = &exportKey.String
	}
	if errorMsg.Valid {
		run.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// UpdateRunStatus updates the status of a run
func (r *PostgresEmissionRepository) UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE emission_runs
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

// CompleteRun records the outcome of a successful run
func (r *PostgresEmissionRepository) CompleteRun(ctx context.Context, id uuid.UUID, sourceCount, failedRows int, exportKey *string) error {
	query := `
		UPDATE emission_runs
		SET status = $1, source_count = $2, failed_rows = $3, export_key = $4,
		    updated_at = NOW(), completed_at = NOW()
		WHERE id = $5`

	_, err := r.db.ExecContext(ctx, query, models.RunCompleted, sourceCount, failedRows, exportKey, id)
	return err
}

// FailRun marks a run as failed with an error message
func (r *PostgresEmissionRepository) FailRun(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE emission_runs
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, errorMsg, id)
	return err
}

// StoreEmissions stores a batch of source spectra in one transaction
func (r *PostgresEmissionRepository) StoreEmissions(ctx context.Context, records []*models.EmissionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO source_emissions (run_id, source_id, ordinal, day, evening, night, lden)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		e := rec.Emission
		if _, err := stmt.ExecContext(ctx,
			rec.RunID,
			rec.SourceID,
			rec.Ordinal,
			pq.Array(nonNil(e.Day)),
			pq.Array(nonNil(e.Evening)),
			pq.Array(nonNil(e.Night)),
			pq.Array(nonNil(e.Lden))); err != nil {
			return fmt.Errorf("failed to store source %d: %w", rec.SourceID, err)
		}
	}

	return tx.Commit()
}

// GetEmission retrieves the stored spectra of one source
func (r *PostgresEmissionRepository) GetEmission(ctx context.Context, runID uuid.UUID, sourceID int64) (*models.EmissionRecord, error) {
	query := `
		SELECT run_id, source_id, ordinal, day, evening, night, lden
		FROM source_emissions
		WHERE run_id = $1 AND source_id = $2`

	var rec models.EmissionRecord
	var day, evening, night, lden pq.Float64Array

	err := r.db.QueryRowContext(ctx, query, runID, sourceID).Scan(
		&rec.RunID,
		&rec.SourceID,
		&rec.Ordinal,
		&day,
		&evening,
		&night,
		&lden)

	if err != nil {
		return nil, err
	}

	rec.Emission = models.SourceEmission{
		Day:     []float64(day),
		Evening: []float64(evening),
		Night:   []float64(night),
		Lden:    []float64(lden),
	}

	return &rec, nil
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
