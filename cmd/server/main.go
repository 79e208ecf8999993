package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/noisemap/internal/api"
	"github.com/RMahshie/noisemap/internal/api/handlers"
	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/internal/config"
	"github.com/RMahshie/noisemap/internal/observability"
	"github.com/RMahshie/noisemap/internal/processing"
	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/internal/repository/postgres"
	"github.com/RMahshie/noisemap/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	observability.SetupLogger(cfg.Server.Env, cfg.Server.LogLevel)

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	var s3Service storage.S3Service
	if cfg.AWS.S3Bucket != "" {
		s3Service, err = storage.NewS3Service(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 service")
		}
	} else {
		log.Warn().Msg("S3_BUCKET not set, exports and s3:// coefficients are disabled")
	}

	provider := coefficients.NewProvider(
		coefficients.ParseSource(cfg.Emission.RoadCoefficients, coefficients.RoadDocument, s3Service),
		coefficients.ParseSource(cfg.Emission.RailCoefficients, coefficients.RailDocument, s3Service),
	)
	tables := provider.Tables(ctx)

	metrics := observability.NewMetrics(nil)
	aggCfg := cfg.Emission.Aggregator()
	agg := processing.NewAggregator(aggCfg, tables)
	repo := postgres.NewPostgresEmissionRepository(db)
	service := processing.NewEmissionService(agg, repo, s3Service, metrics, processing.ServiceConfig{
		Workers:      cfg.Emission.Workers,
		ExportPrefix: cfg.Emission.ExportPrefix,
		Active:       cfg.Emission.Active,
	})

	openTable := func(ctx context.Context) (repository.SourceTable, error) {
		return postgres.OpenSourceTable(ctx, db, cfg.Emission.SourceQuery)
	}

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Handle("/metrics", promhttp.Handler())

	// Create Huma API
	humaConfig := huma.DefaultConfig("Noisemap Emission API", api.Version)
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	api.RegisterRoutes(humaAPI,
		handlers.NewEmissionHandler(aggCfg, tables, cfg.Emission.Active, metrics),
		handlers.NewRunHandler(repo, service, openTable),
	)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", aggCfg.Mode.String()).Msg("Starting Noisemap API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Str("request_id", middleware.GetReqID(r.Context())).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
