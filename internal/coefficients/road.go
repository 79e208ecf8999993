package coefficients

import (
	"encoding/json"
	"fmt"
)

// OctaveBands is the number of octave positions every road coefficient row carries
const OctaveBands = 8

// RoadCategory identifies a CNOSSOS vehicle category
type RoadCategory string

const (
	CategoryLight         RoadCategory = "1"
	CategoryMedium        RoadCategory = "2"
	CategoryHeavy         RoadCategory = "3"
	CategoryTwoWheelLight RoadCategory = "4a"
	CategoryTwoWheelHeavy RoadCategory = "4b"
)

// RoadCategories lists every category in evaluation order
var RoadCategories = []RoadCategory{
	CategoryLight, CategoryMedium, CategoryHeavy, CategoryTwoWheelLight, CategoryTwoWheelHeavy,
}

// CategoryCoefficients are the rolling and propulsion coefficients of one
// vehicle category, one value per octave band.
type CategoryCoefficients struct {
	AR []float64 `json:"AR"`
	BR []float64 `json:"BR"`
	AP []float64 `json:"AP"`
	BP []float64 `json:"BP"`
	// K is the rolling noise temperature coefficient in dB/°C
	K float64 `json:"K"`
	// CR and CP are keyed by junction type
	CR map[string]float64 `json:"CR"`
	CP map[string]float64 `json:"CP"`
}

// Junction returns the rolling and propulsion junction coefficients for a
// junction type. Unknown types contribute nothing.
func (c CategoryCoefficients) Junction(junctionType int) (cr, cp float64) {
	key := fmt.Sprint(junctionType)
	return c.CR[key], c.CP[key]
}

// StuddedCoefficients hold the studded tyre correction for light vehicles
type StuddedCoefficients struct {
	A []float64 `json:"A"`
	B []float64 `json:"B"`
}

// PavementCoefficients describe the spectral correction of a road surface
type PavementCoefficients struct {
	Alpha map[RoadCategory][]float64 `json:"Alpha"`
	Beta  map[RoadCategory]float64   `json:"Beta"`
}

// RoadTable is the road reference document
type RoadTable struct {
	RefSpeed   float64                               `json:"Vref"`
	Categories map[RoadCategory]CategoryCoefficients `json:"Categories"`
	Studded    StuddedCoefficients                   `json:"Studded"`
	Pavements  map[string]PavementCoefficients       `json:"Pavements"`

	err error
}

// ParseRoad decodes a road reference document
func ParseRoad(data []byte) (*RoadTable, error) {
	var t RoadTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode road coefficients: %w", err)
	}
	if t.RefSpeed <= 0 {
		t.RefSpeed = 70
	}
	for _, cat := range RoadCategories {
		c, ok := t.Categories[cat]
		if !ok {
			return nil, fmt.Errorf("road coefficients: category %s missing", cat)
		}
		for name, row := range map[string][]float64{"AR": c.AR, "BR": c.BR, "AP": c.AP, "BP": c.BP} {
			if len(row) != OctaveBands {
				return nil, fmt.Errorf("road coefficients: category %s %s has %d values, want %d", cat, name, len(row), OctaveBands)
			}
		}
	}
	if len(t.Studded.A) != OctaveBands || len(t.Studded.B) != OctaveBands {
		return nil, fmt.Errorf("road coefficients: studded tyre rows must have %d values", OctaveBands)
	}
	if _, ok := t.Pavements[DefaultKey]; !ok {
		return nil, fmt.Errorf("road coefficients: pavement %q missing", DefaultKey)
	}
	return &t, nil
}

// MissingRoad returns a table whose every lookup fails with cause
func MissingRoad(cause error) *RoadTable {
	return &RoadTable{err: fmt.Errorf("%w: road table unavailable: %v", ErrMissingCoefficient, cause)}
}

// Err reports the load failure of a sentinel table, nil otherwise
func (t *RoadTable) Err() error {
	return t.err
}

// Category returns the coefficients of a vehicle category
func (t *RoadTable) Category(cat RoadCategory) (CategoryCoefficients, error) {
	if t.err != nil {
		return CategoryCoefficients{}, t.err
	}
	c, ok := t.Categories[cat]
	if !ok {
		return CategoryCoefficients{}, fmt.Errorf("%w: road category %s", ErrMissingCoefficient, cat)
	}
	return c, nil
}

// Pavement returns the correction of a surface code. Unknown codes resolve
// to the Empty entry.
func (t *RoadTable) Pavement(code string) (PavementCoefficients, error) {
	if t.err != nil {
		return PavementCoefficients{}, t.err
	}
	p, ok := lookup(t.Pavements, code)
	if !ok {
		return PavementCoefficients{}, fmt.Errorf("%w: pavement %s", ErrMissingCoefficient, code)
	}
	return p, nil
}

// Studs returns the studded tyre coefficients
func (t *RoadTable) Studs() (StuddedCoefficients, error) {
	if t.err != nil {
		return StuddedCoefficients{}, t.err
	}
	return t.Studded, nil
}

// AlphaAt returns the pavement spectral correction for a category and octave,
// zero when the document does not list the category.
func (p PavementCoefficients) AlphaAt(cat RoadCategory, octave int) float64 {
	row := p.Alpha[cat]
	if octave < 0 || octave >= len(row) {
		return 0
	}
	return row[octave]
}
