package handlers

import (
	"context"
	"errors"

	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/internal/observability"
	"github.com/RMahshie/noisemap/internal/processing"
	"github.com/RMahshie/noisemap/internal/registry"
	"github.com/RMahshie/noisemap/internal/repository/memory"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/rs/zerolog/log"
)

// EmissionHandler computes the emission of single source rows
type EmissionHandler struct {
	cfg     processing.AggregatorConfig
	tables  coefficients.Tables
	active  models.ActivePeriods
	metrics *observability.Metrics

	defaultAgg *processing.Aggregator
}

// NewEmissionHandler creates a new emission handler
func NewEmissionHandler(cfg processing.AggregatorConfig, tables coefficients.Tables, active models.ActivePeriods, metrics *observability.Metrics) *EmissionHandler {
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &EmissionHandler{
		cfg:        cfg,
		tables:     tables,
		active:     active,
		metrics:    metrics,
		defaultAgg: processing.NewAggregator(cfg, tables),
	}
}

// ComputeEmission returns the spectra of the row in the request body
func (h *EmissionHandler) ComputeEmission(ctx context.Context, req *models.ComputeEmissionRequest) (*models.ComputeEmissionResponse, error) {
	agg := h.defaultAgg
	if req.Body.Mode != "" {
		mode, err := processing.ParseInputMode(req.Body.Mode)
		if err != nil {
			return nil, huma.Error400BadRequest("Unknown input mode", err)
		}
		if mode != agg.Mode() {
			cfg := h.cfg
			cfg.Mode = mode
			agg = processing.NewAggregator(cfg, h.tables)
		}
	}
	mode := agg.Mode().String()

	var geom orb.Geometry
	if req.Body.Geometry != "" {
		g, err := wkt.Unmarshal(req.Body.Geometry)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid WKT geometry", err)
		}
		geom = g
	}

	table := memory.SingleRow(req.Body.SourceID, req.Body.Columns, geom)
	row, err := table.Next(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to read source row", err)
	}

	e, err := agg.NewSession(table.Columns()).Compute(row)
	if err != nil {
		h.metrics.SingleRequests.WithLabelValues(mode, "error").Inc()
		log.Warn().Err(err).Int64("sourceID", req.Body.SourceID).Str("mode", mode).Msg("Emission computation failed")
		switch {
		case errors.Is(err, processing.ErrMissingColumn), errors.Is(err, processing.ErrUnknownInputMode):
			return nil, huma.Error400BadRequest("Source row does not match the input mode", err)
		case errors.Is(err, coefficients.ErrMissingCoefficient):
			return nil, huma.Error422UnprocessableEntity("Emission coefficients unavailable", err)
		}
		return nil, huma.Error500InternalServerError("Failed to compute emission", err)
	}
	h.metrics.SingleRequests.WithLabelValues(mode, "success").Inc()

	axis := agg.Axis()
	return &models.ComputeEmissionResponse{
		Body: models.ComputeEmissionResponseBody{
			Bands: axis.Frequencies,
			Power: e,
			Levels: models.SpectrumLevels{
				Day:     axis.Points(e.Day),
				Evening: axis.Points(e.Evening),
				Night:   axis.Points(e.Night),
				Lden:    axis.Points(e.Lden),
			},
			Representative: registry.Representative(h.active, e),
		},
	}, nil
}
