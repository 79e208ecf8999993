package coefficients

import (
	"encoding/json"
	"fmt"
)

const (
	// RoughnessBins is the length of every wavelength-indexed spectrum
	RoughnessBins = 32
	// TransferBins is the length of every track transfer spectrum
	TransferBins = 18
)

// TrainDefinition describes a rolling stock type
type TrainDefinition struct {
	RefRoughness  int     `json:"RefRoughness"`
	RefContact    int     `json:"RefContact"`
	NbAxlesPerVeh float64 `json:"NbAxlesPerVeh"`
	Vmax          float64 `json:"Vmax"`
}

// Spectrum is a wavelength-indexed level spectrum in dB
type Spectrum struct {
	Values []float64 `json:"Values"`
}

// TransferSpectrum is a track transfer function in dB, one value per transfer band
type TransferSpectrum struct {
	Spectre []float64 `json:"Spectre"`
}

// RailTable is the rail reference document
type RailTable struct {
	Train struct {
		Definition     map[string]TrainDefinition `json:"Definition"`
		WheelRoughness map[string]Spectrum        `json:"WheelRoughness"`
		ContactFilter  map[string]Spectrum        `json:"ContactFilter"`
	} `json:"Train"`
	Rail struct {
		RailRoughness map[string]Spectrum `json:"RailRoughness"`
	} `json:"Rail"`
	TrackTransfer map[string]TransferSpectrum `json:"TrackTransfer"`

	err error
}

// ParseRail decodes a rail reference document
func ParseRail(data []byte) (*RailTable, error) {
	var t RailTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode rail coefficients: %w", err)
	}
	if _, ok := t.Train.Definition[DefaultKey]; !ok {
		return nil, fmt.Errorf("rail coefficients: train definition %q missing", DefaultKey)
	}
	checks := []struct {
		name string
		m    map[string]Spectrum
	}{
		{"wheel roughness", t.Train.WheelRoughness},
		{"contact filter", t.Train.ContactFilter},
		{"rail roughness", t.Rail.RailRoughness},
	}
	for _, c := range checks {
		for id, s := range c.m {
			if len(s.Values) != RoughnessBins {
				return nil, fmt.Errorf("rail coefficients: %s %s has %d values, want %d", c.name, id, len(s.Values), RoughnessBins)
			}
		}
	}
	for id, s := range t.TrackTransfer {
		if len(s.Spectre) != TransferBins {
			return nil, fmt.Errorf("rail coefficients: track transfer %s has %d values, want %d", id, len(s.Spectre), TransferBins)
		}
	}
	return &t, nil
}

// MissingRail returns a table whose every lookup fails with cause
func MissingRail(cause error) *RailTable {
	return &RailTable{err: fmt.Errorf("%w: rail table unavailable: %v", ErrMissingCoefficient, cause)}
}

// Err reports the load failure of a sentinel table, nil otherwise
func (t *RailTable) Err() error {
	return t.err
}

// ResolveType returns code if the document defines it, Empty otherwise
func (t *RailTable) ResolveType(code string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	if _, ok := t.Train.Definition[code]; ok {
		return code, nil
	}
	return DefaultKey, nil
}

// Definition returns the rolling stock definition of a type
func (t *RailTable) Definition(code string) (TrainDefinition, error) {
	if t.err != nil {
		return TrainDefinition{}, t.err
	}
	d, ok := lookup(t.Train.Definition, code)
	if !ok {
		return TrainDefinition{}, fmt.Errorf("%w: train type %s", ErrMissingCoefficient, code)
	}
	return d, nil
}

// WheelRoughness returns the wheel roughness spectrum of a reference id
func (t *RailTable) WheelRoughness(ref int) ([]float64, error) {
	return t.spectrum("wheel roughness", t.Train.WheelRoughness, fmt.Sprint(ref))
}

// ContactFilter returns the contact filter spectrum of a reference id
func (t *RailTable) ContactFilter(ref int) ([]float64, error) {
	return t.spectrum("contact filter", t.Train.ContactFilter, fmt.Sprint(ref))
}

// RailRoughness returns the rail roughness spectrum of an id
func (t *RailTable) RailRoughness(id string) ([]float64, error) {
	return t.spectrum("rail roughness", t.Rail.RailRoughness, id)
}

// TrackTransferAt returns one band of a track transfer spectrum
func (t *RailTable) TrackTransferAt(id string, band int) (float64, error) {
	if t.err != nil {
		return 0, t.err
	}
	s, ok := lookup(t.TrackTransfer, id)
	if !ok {
		return 0, fmt.Errorf("%w: track transfer %s", ErrMissingCoefficient, id)
	}
	if band < 0 || band >= len(s.Spectre) {
		return 0, fmt.Errorf("%w: track transfer %s band %d", ErrMissingCoefficient, id, band)
	}
	return s.Spectre[band], nil
}

func (t *RailTable) spectrum(name string, m map[string]Spectrum, id string) ([]float64, error) {
	if t.err != nil {
		return nil, t.err
	}
	s, ok := lookup(m, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrMissingCoefficient, name, id)
	}
	return s.Values, nil
}
