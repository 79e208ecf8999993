package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/RMahshie/noisemap/internal/processing"
	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TableOpener opens the source table a batch run reads from
type TableOpener func(ctx context.Context) (repository.SourceTable, error)

// RunHandler handles batch run HTTP requests
type RunHandler struct {
	repo      repository.EmissionRepository
	service   processing.EmissionService
	openTable TableOpener
}

// NewRunHandler creates a new run handler
func NewRunHandler(repo repository.EmissionRepository, service processing.EmissionService, openTable TableOpener) *RunHandler {
	return &RunHandler{
		repo:      repo,
		service:   service,
		openTable: openTable,
	}
}

// CreateRun records a run and processes the source table in the background
func (h *RunHandler) CreateRun(ctx context.Context, _ *struct{}) (*models.CreateRunResponse, error) {
	run, err := h.service.StartRun(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create run", err)
	}

	// Start processing in background (don't wait for completion)
	log.Info().Str("runID", run.ID).Msg("Starting background emission run")
	go h.process(context.WithoutCancel(ctx), run)

	resp := &models.CreateRunResponse{}
	resp.Body.ID = run.ID
	resp.Body.Message = "Run started successfully"
	return resp, nil
}

func (h *RunHandler) process(ctx context.Context, run *models.EmissionRun) {
	table, err := h.openTable(ctx)
	if err != nil {
		log.Error().Err(err).Str("runID", run.ID).Msg("Failed to open source table")
		if id, perr := uuid.Parse(run.ID); perr == nil {
			if ferr := h.repo.FailRun(ctx, id, fmt.Sprintf("failed to open source table: %v", err)); ferr != nil {
				log.Error().Err(ferr).Str("runID", run.ID).Msg("Failed to record run failure")
			}
		}
		return
	}
	if c, ok := table.(io.Closer); ok {
		defer c.Close()
	}

	// ProcessRun records its own failures on the run
	_ = h.service.ProcessRun(ctx, run, table)
}

// GetRun returns the current status of a run
func (h *RunHandler) GetRun(ctx context.Context, req *models.GetRunRequest) (*models.GetRunResponse, error) {
	runID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid run ID", err)
	}

	run, err := h.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, huma.Error404NotFound("Run not found", err)
	}

	return &models.GetRunResponse{Body: *run}, nil
}

// GetSourceEmission returns the stored spectra of one source of a completed run
func (h *RunHandler) GetSourceEmission(ctx context.Context, req *models.GetSourceEmissionRequest) (*models.GetSourceEmissionResponse, error) {
	runID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid run ID", err)
	}

	run, err := h.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, huma.Error404NotFound("Run not found", err)
	}
	if run.Status != models.RunCompleted {
		return nil, huma.Error409Conflict("Run not yet completed",
			fmt.Errorf("run status is %s", run.Status))
	}

	rec, err := h.repo.GetEmission(ctx, runID, req.SourceID)
	if err != nil {
		return nil, huma.Error404NotFound("Source not found in run", err)
	}

	resp := &models.GetSourceEmissionResponse{}
	resp.Body.RunID = rec.RunID
	resp.Body.SourceID = rec.SourceID
	resp.Body.Ordinal = rec.Ordinal
	resp.Body.Power = rec.Emission
	return resp, nil
}
