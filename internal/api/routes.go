package api

import (
	"context"
	"net/http"
	"time"

	"github.com/RMahshie/noisemap/internal/api/handlers"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/danielgtaylor/huma/v2"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, emissionHandler *handlers.EmissionHandler, runHandler *handlers.RunHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = Version
		resp.Body.Time = time.Now()
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "computeEmission",
		Method:      http.MethodPost,
		Path:        "/api/emissions",
		Summary:     "Compute the emission of one source",
		Description: "Computes the Day, Evening, Night and Lden spectra of a single source row",
		Tags:        []string{"Emission"},
	}, emissionHandler.ComputeEmission)

	huma.Register(api, huma.Operation{
		OperationID:   "createRun",
		Method:        http.MethodPost,
		Path:          "/api/runs",
		Summary:       "Start a batch run",
		Description:   "Starts computing every row of the configured source table in the background",
		Tags:          []string{"Runs"},
		DefaultStatus: http.StatusAccepted,
	}, runHandler.CreateRun)

	huma.Register(api, huma.Operation{
		OperationID: "getRun",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}",
		Summary:     "Get run status",
		Description: "Returns the status and counters of a batch run",
		Tags:        []string{"Runs"},
	}, runHandler.GetRun)

	huma.Register(api, huma.Operation{
		OperationID: "getSourceEmission",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/sources/{sourceId}",
		Summary:     "Get stored source emission",
		Description: "Returns the spectra stored for one source of a completed run",
		Tags:        []string{"Runs"},
	}, runHandler.GetSourceEmission)
}
