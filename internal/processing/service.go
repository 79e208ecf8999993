package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/RMahshie/noisemap/internal/observability"
	"github.com/RMahshie/noisemap/internal/registry"
	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/internal/storage"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkers is the pool size used when none is configured
const DefaultWorkers = 4

// EmissionService runs batch emission computations over source tables
type EmissionService interface {
	// StartRun records a new pending run
	StartRun(ctx context.Context) (*models.EmissionRun, error)
	// ProcessRun computes every row of table into run. Rows that fail are
	// skipped and counted; the run is marked completed or failed.
	ProcessRun(ctx context.Context, run *models.EmissionRun, table repository.SourceTable) error
	// ProcessTable is StartRun followed by ProcessRun
	ProcessTable(ctx context.Context, table repository.SourceTable) (*models.EmissionRun, error)
}

// ServiceConfig holds batch run settings
type ServiceConfig struct {
	Workers int
	// ExportPrefix is the object key prefix of Parquet exports. Empty
	// disables the export.
	ExportPrefix string
	Active       models.ActivePeriods
	Clock        clockwork.Clock
}

type emissionService struct {
	agg        *Aggregator
	repository repository.EmissionRepository
	s3         storage.S3Service
	metrics    *observability.Metrics
	cfg        ServiceConfig
}

// NewEmissionService creates a batch service. s3Service may be nil when no
// export is wanted.
func NewEmissionService(agg *Aggregator, repo repository.EmissionRepository, s3Service storage.S3Service, metrics *observability.Metrics, cfg ServiceConfig) EmissionService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &emissionService{
		agg:        agg,
		repository: repo,
		s3:         s3Service,
		metrics:    metrics,
		cfg:        cfg,
	}
}

func (s *emissionService) StartRun(ctx context.Context) (*models.EmissionRun, error) {
	now := s.cfg.Clock.Now()
	run := &models.EmissionRun{
		ID:        uuid.New().String(),
		InputMode: s.agg.Mode().String(),
		Bands:     s.agg.Axis().Kind,
		Status:    models.RunPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repository.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	log.Info().Str("runID", run.ID).Str("mode", run.InputMode).Str("bands", string(run.Bands)).Msg("Emission run created")
	return run, nil
}

func (s *emissionService) ProcessTable(ctx context.Context, table repository.SourceTable) (*models.EmissionRun, error) {
	run, err := s.StartRun(ctx)
	if err != nil {
		return nil, err
	}
	return run, s.ProcessRun(ctx, run, table)
}

func (s *emissionService) ProcessRun(ctx context.Context, run *models.EmissionRun, table repository.SourceTable) error {
	runID, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}

	start := s.cfg.Clock.Now()
	s.metrics.RunsActive.Inc()
	defer s.metrics.RunsActive.Dec()

	if err := s.repository.UpdateRunStatus(ctx, runID, models.RunProcessing); err != nil {
		return err
	}
	run.Status = models.RunProcessing

	session := s.agg.NewSession(table.Columns())
	if _, err := session.Schema(); err != nil {
		return s.fail(ctx, run, runID, err)
	}

	reg := registry.New(session, s.cfg.Active)
	mode := s.agg.Mode().String()
	var failed atomic.Int64

	p := pool.New().WithMaxGoroutines(s.cfg.Workers)
	readErr := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := table.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, repository.ErrInvalidRow) {
				failed.Add(1)
				s.metrics.RowsFailed.WithLabelValues(mode).Inc()
				log.Warn().Err(err).Str("runID", run.ID).Msg("Skipping source row")
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read source row: %w", err)
			}
			p.Go(func() {
				if _, err := reg.AddSource(row.ID, row.Geometry, row); err != nil {
					failed.Add(1)
					s.metrics.RowsFailed.WithLabelValues(mode).Inc()
					log.Warn().Err(err).Str("runID", run.ID).Int64("sourceID", row.ID).Msg("Skipping source row")
					return
				}
				s.metrics.RowsProcessed.WithLabelValues(mode).Inc()
			})
		}
	}()
	p.Wait()
	if readErr != nil {
		return s.fail(ctx, run, runID, readErr)
	}

	records := reg.Records(run.ID)
	if err := s.repository.StoreEmissions(ctx, records); err != nil {
		return s.fail(ctx, run, runID, fmt.Errorf("failed to store emissions: %w", err))
	}

	exportKey, err := s.export(ctx, run.ID, records)
	if err != nil {
		return s.fail(ctx, run, runID, err)
	}

	sourceCount, failedRows := reg.Len(), int(failed.Load())
	if err := s.repository.CompleteRun(ctx, runID, sourceCount, failedRows, exportKey); err != nil {
		return err
	}

	completed := s.cfg.Clock.Now()
	run.Status = models.RunCompleted
	run.SourceCount = sourceCount
	run.FailedRows = failedRows
	run.ExportKey = exportKey
	run.UpdatedAt = completed
	run.CompletedAt = &completed

	s.metrics.RunsTotal.WithLabelValues(models.RunCompleted).Inc()
	s.metrics.RunDuration.Observe(s.cfg.Clock.Since(start).Seconds())
	log.Info().
		Str("runID", run.ID).
		Int("sources", sourceCount).
		Int("failedRows", failedRows).
		Dur("elapsed", s.cfg.Clock.Since(start)).
		Msg("Emission run completed")
	return nil
}

// export uploads the run as Parquet and returns its object key
func (s *emissionService) export(ctx context.Context, runID string, records []*models.EmissionRecord) (*string, error) {
	if s.s3 == nil || s.cfg.ExportPrefix == "" {
		return nil, nil
	}

	data, err := storage.EncodeParquet(records, s.agg.Axis())
	if err != nil {
		return nil, err
	}

	key := s.cfg.ExportPrefix + runID + ".parquet"
	if err := s.s3.UploadFile(ctx, key, data, storage.ContentTypeParquet); err != nil {
		return nil, fmt.Errorf("failed to export run: %w", err)
	}
	s.metrics.ExportBytes.Observe(float64(len(data)))
	log.Info().Str("runID", runID).Str("key", key).Int("bytes", len(data)).Msg("Emission export uploaded")
	return &key, nil
}

// fail marks the run failed and returns cause. The status update survives
// cancellation of ctx.
func (s *emissionService) fail(ctx context.Context, run *models.EmissionRun, runID uuid.UUID, cause error) error {
	log.Error().Err(cause).Str("runID", run.ID).Msg("Emission run failed")
	s.metrics.RunsTotal.WithLabelValues(models.RunFailed).Inc()

	msg := cause.Error()
	run.Status = models.RunFailed
	run.ErrorMsg = &msg
	if err := s.repository.FailRun(context.WithoutCancel(ctx), runID, msg); err != nil {
		log.Error().Err(err).Str("runID", run.ID).Msg("Failed to record run failure")
	}
	return cause
}
