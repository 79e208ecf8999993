package models

import (
	"time"
)

// Period is one of the three assessment periods of the day
type Period string

const (
	PeriodDay     Period = "D"
	PeriodEvening Period = "E"
	PeriodNight   Period = "N"
)

// Periods lists the assessment periods in Day, Evening, Night order
var Periods = []Period{PeriodDay, PeriodEvening, PeriodNight}

// SourceEmission holds the linear-power spectra of one source
type SourceEmission struct {
	Day     []float64 `json:"day" doc:"Day linear power per band"`
	Evening []float64 `json:"evening" doc:"Evening linear power per band"`
	Night   []float64 `json:"night" doc:"Night linear power per band"`
	Lden    []float64 `json:"lden" doc:"Lden linear power per band"`
}

// ActivePeriods configures which indicators are kept for a source
type ActivePeriods struct {
	Day     bool
	Evening bool
	Night   bool
	Lden    bool
}

// AllPeriods enables every indicator
func AllPeriods() ActivePeriods {
	return ActivePeriods{Day: true, Evening: true, Night: true, Lden: true}
}

// Run status values
const (
	RunPending    = "pending"
	RunProcessing = "processing"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// EmissionRun represents one batch computation over a source table
type EmissionRun struct {
	ID          string     `json:"id"`
	InputMode   string     `json:"input_mode"`
	Bands       BandKind   `json:"bands"`
	Status      string     `json:"status"`
	SourceCount int        `json:"source_count"`
	FailedRows  int        `json:"failed_rows"`
	ExportKey   *string    `json:"export_key,omitempty"`
	ErrorMsg    *string    `json:"error_message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// EmissionRecord is the stored form of one source's spectra
type EmissionRecord struct {
	RunID    string         `json:"run_id"`
	SourceID int64          `json:"source_id"`
	Ordinal  int            `json:"ordinal"`
	Emission SourceEmission `json:"emission"`
}
