package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// ComputeEmissionRequest represents a request to compute the emission of a single source row
type ComputeEmissionRequest struct {
	Body struct {
		SourceID int64          `json:"source_id,omitempty" doc:"External source identifier"`
		Mode     string         `json:"mode,omitempty" enum:"reference,direct,traffic,rail" doc:"Input mode, defaults to the configured mode"`
		Columns  map[string]any `json:"columns" required:"true" doc:"Row values keyed by column name (case-insensitive)"`
		Geometry string         `json:"geometry,omitempty" doc:"Source geometry as WKT, used for slope derivation"`
	}
}

// SpectrumLevels holds the dB spectra of a source, silent bands omitted
type SpectrumLevels struct {
	Day     []FrequencyPoint `json:"day"`
	Evening []FrequencyPoint `json:"evening"`
	Night   []FrequencyPoint `json:"night"`
	Lden    []FrequencyPoint `json:"lden"`
}

// ComputeEmissionResponseBody is the body of the compute emission response
type ComputeEmissionResponseBody struct {
	Bands          []int          `json:"bands" doc:"Band centre frequencies in Hz"`
	Power          SourceEmission `json:"power" doc:"Linear power spectra"`
	Levels         SpectrumLevels `json:"levels" doc:"Spectra in dB(A)"`
	Representative []float64      `json:"representative" doc:"Spectrum handed to propagation"`
}

// ComputeEmissionResponse represents the emission computed for a single row
type ComputeEmissionResponse struct {
	Body ComputeEmissionResponseBody
}

// CreateRunResponse represents the response from starting a batch run
type CreateRunResponse struct {
	Body struct {
		ID      string `json:"id" doc:"Run unique identifier"`
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// GetRunRequest represents a request to get a run's status
type GetRunRequest struct {
	ID string `path:"id" doc:"Run ID"`
}

// GetRunResponse represents the current status of a run
type GetRunResponse struct {
	Body EmissionRun
}

// GetSourceEmissionRequest represents a request for one stored source spectrum
type GetSourceEmissionRequest struct {
	ID       string `path:"id" doc:"Run ID"`
	SourceID int64  `path:"sourceId" doc:"External source identifier"`
}

// GetSourceEmissionResponse represents a stored source spectrum
type GetSourceEmissionResponse struct {
	Body struct {
		RunID    string         `json:"run_id" doc:"Run ID"`
		SourceID int64          `json:"source_id" doc:"External source identifier"`
		Ordinal  int            `json:"ordinal" doc:"Registry ordinal of the source"`
		Power    SourceEmission `json:"power" doc:"Linear power spectra"`
	}
}
