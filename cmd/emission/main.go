// Command emission computes the emission spectra of every row of the
// configured source table once and exits.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/internal/config"
	"github.com/RMahshie/noisemap/internal/observability"
	"github.com/RMahshie/noisemap/internal/processing"
	"github.com/RMahshie/noisemap/internal/repository/postgres"
	"github.com/RMahshie/noisemap/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("Emission run failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.SetupLogger(cfg.Server.Env, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	var s3Service storage.S3Service
	if cfg.AWS.S3Bucket != "" {
		if s3Service, err = storage.NewS3Service(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		}); err != nil {
			return err
		}
	}

	provider := coefficients.NewProvider(
		coefficients.ParseSource(cfg.Emission.RoadCoefficients, coefficients.RoadDocument, s3Service),
		coefficients.ParseSource(cfg.Emission.RailCoefficients, coefficients.RailDocument, s3Service),
	)
	agg := processing.NewAggregator(cfg.Emission.Aggregator(), provider.Tables(ctx))
	service := processing.NewEmissionService(agg, postgres.NewPostgresEmissionRepository(db), s3Service,
		observability.NewMetrics(nil), processing.ServiceConfig{
			Workers:      cfg.Emission.Workers,
			ExportPrefix: cfg.Emission.ExportPrefix,
			Active:       cfg.Emission.Active,
		})

	table, err := postgres.OpenSourceTable(ctx, db, cfg.Emission.SourceQuery)
	if err != nil {
		return err
	}
	defer table.Close()

	run, err := service.ProcessTable(ctx, table)
	if err != nil {
		return err
	}

	l := log.Info().Str("runID", run.ID).Int("sources", run.SourceCount).Int("failedRows", run.FailedRows)
	if run.ExportKey != nil {
		l = l.Str("export", *run.ExportKey)
	}
	l.Msg("Emission run finished")
	return nil
}
