package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/google/uuid"
)

// ErrInvalidRow is returned by SourceTable.Next for a row that cannot be
// used. The table stays readable after it.
var ErrInvalidRow = errors.New("invalid source row")

// SourceTable streams the rows of a traffic source table. Next returns
// io.EOF once every row has been read.
type SourceTable interface {
	Columns() []string
	Next(ctx context.Context) (*SourceRow, error)
}

// EmissionRepository defines the interface for run and spectrum storage
type EmissionRepository interface {
	CreateRun(ctx context.Context, run *models.EmissionRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.EmissionRun, error)
	UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error
	CompleteRun(ctx context.Context, id uuid.UUID, sourceCount, failedRows int, exportKey *string) error
	FailRun(ctx context.Context, id uuid.UUID, errorMsg string) error
	StoreEmissions(ctx context.Context, records []*models.EmissionRecord) error
	GetEmission(ctx context.Context, runID uuid.UUID, sourceID int64) (*models.EmissionRecord, error)
}
