package emission

import (
	"fmt"
	"math"

	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/pkg/models"
)

// Junction types
const (
	JunctionTrafficLights = 1
	JunctionRoundabout    = 2
)

// Road parameter defaults
const (
	DefaultTemperature      = 20.0
	DefaultPavement         = "NL08"
	DefaultJunctionDistance = 100.0
	DefaultJunctionType     = JunctionRoundabout
)

var thirdOctaveSplit = 10 * math.Log10(3)

// VehicleFlow is the mean speed in km/h and hourly count of one category
type VehicleFlow struct {
	Speed float64
	Flow  float64
}

// RoadParameters describe the traffic of a road segment for one period and band
type RoadParameters struct {
	Light         VehicleFlow
	Medium        VehicleFlow
	Heavy         VehicleFlow
	TwoWheelLight VehicleFlow
	TwoWheelHeavy VehicleFlow

	// Frequency is the band centre in Hz
	Frequency   int
	Temperature float64
	Pavement    string
	// StudMonths is the number of months per year studded tyres are used
	StudMonths float64
	// StudFraction is the share of light vehicles fitted with studded tyres
	StudFraction     float64
	JunctionDistance float64
	JunctionType     int
	// Slope in percent, positive uphill
	Slope float64
}

// NewRoadParameters returns parameters with the documented defaults and no traffic
func NewRoadParameters() RoadParameters {
	return RoadParameters{
		Temperature:      DefaultTemperature,
		Pavement:         DefaultPavement,
		JunctionDistance: DefaultJunctionDistance,
		JunctionType:     DefaultJunctionType,
	}
}

// Category returns the flow of one vehicle category
func (p RoadParameters) Category(cat coefficients.RoadCategory) VehicleFlow {
	switch cat {
	case coefficients.CategoryLight:
		return p.Light
	case coefficients.CategoryMedium:
		return p.Medium
	case coefficients.CategoryHeavy:
		return p.Heavy
	case coefficients.CategoryTwoWheelLight:
		return p.TwoWheelLight
	case coefficients.CategoryTwoWheelHeavy:
		return p.TwoWheelHeavy
	}
	return VehicleFlow{}
}

// RoadModel evaluates CNOSSOS-EU road traffic emission
type RoadModel struct {
	table *coefficients.RoadTable
	axis  models.BandAxis
}

// NewRoadModel creates a road model evaluating bands of axis
func NewRoadModel(table *coefficients.RoadTable, axis models.BandAxis) *RoadModel {
	return &RoadModel{table: table, axis: axis}
}

// Evaluate returns the emission level in dB of all categories at p.Frequency.
// A segment without traffic yields -Inf.
func (m *RoadModel) Evaluate(p RoadParameters) (float64, error) {
	var total float64
	for _, cat := range coefficients.RoadCategories {
		lw, err := m.CategoryLevel(cat, p)
		if err != nil {
			return 0, err
		}
		total += DBAToW(lw)
	}
	return WToDBA(total), nil
}

// Spectrum evaluates every band of the model axis and returns linear power
func (m *RoadModel) Spectrum(p RoadParameters) ([]float64, error) {
	out := make([]float64, m.axis.Len())
	for i, f := range m.axis.Frequencies {
		p.Frequency = f
		lw, err := m.Evaluate(p)
		if err != nil {
			return nil, err
		}
		out[i] = DBAToW(lw)
	}
	return out, nil
}

// CategoryLevel returns the emission level in dB of one vehicle category,
// -Inf when the category has no flow or no speed.
func (m *RoadModel) CategoryLevel(cat coefficients.RoadCategory, p RoadParameters) (float64, error) {
	vf := p.Category(cat)
	if vf.Flow <= 0 || vf.Speed <= 0 {
		return math.Inf(-1), nil
	}

	octave, split, err := m.octaveOf(p.Frequency)
	if err != nil {
		return 0, err
	}
	c, err := m.table.Category(cat)
	if err != nil {
		return 0, err
	}
	pav, err := m.table.Pavement(p.Pavement)
	if err != nil {
		return 0, err
	}

	vref := m.table.RefSpeed
	v := vf.Speed
	alpha := pav.AlphaAt(cat, octave)
	junction := math.Max(1-p.JunctionDistance/100, 0)
	cr, cp := c.Junction(p.JunctionType)

	propulsion := c.AP[octave] + c.BP[octave]*(v-vref)/vref + cp*junction
	twoWheeler := cat == coefficients.CategoryTwoWheelLight || cat == coefficients.CategoryTwoWheelHeavy

	var lw float64
	if twoWheeler {
		lw = propulsion + alpha
	} else {
		rolling := c.AR[octave] + c.BR[octave]*math.Log10(v/vref)
		rolling += alpha + pav.Beta[cat]*math.Log10(v/vref)
		rolling += c.K * (DefaultTemperature - p.Temperature)
		rolling += cr * junction
		if cat == coefficients.CategoryLight {
			studs, err := m.table.Studs()
			if err != nil {
				return 0, err
			}
			rolling += studCorrection(studs, octave, v, p.StudMonths, p.StudFraction, vref)
		}

		propulsion += slopeCorrection(cat, p.Slope, v) + math.Min(alpha, 0)
		lw = SumDBA(rolling, propulsion)
	}

	lw += 10 * math.Log10(vf.Flow/(1000*v))
	if split {
		lw -= thirdOctaveSplit
	}
	return lw, nil
}

// octaveOf maps a band centre to its coefficient octave. split reports that
// the band is a third of that octave.
func (m *RoadModel) octaveOf(freq int) (octave int, split bool, err error) {
	if m.axis.Kind == models.BandOctave {
		if i := models.OctaveAxis().Index(freq); i >= 0 {
			return i, false, nil
		}
	}
	if i := models.ThirdOctaveAxis().Index(freq); i >= 0 {
		return i / 3, true, nil
	}
	return 0, false, fmt.Errorf("%w: road band %d Hz", coefficients.ErrMissingCoefficient, freq)
}

func studCorrection(studs coefficients.StuddedCoefficients, octave int, speed, months, fraction, vref float64) float64 {
	ps := fraction * months / 12
	if ps <= 0 {
		return 0
	}
	ps = math.Min(ps, 1)
	v := math.Min(math.Max(speed, 50), 90)
	delta := studs.A[octave] + studs.B[octave]*math.Log10(v/vref)
	return 10 * math.Log10((1-ps)+ps*DBAToW(delta))
}

func slopeCorrection(cat coefficients.RoadCategory, slope, v float64) float64 {
	s := math.Max(math.Min(slope, 12), -12)
	switch cat {
	case coefficients.CategoryLight:
		switch {
		case s < -6:
			return (-s - 6) / 1
		case s > 2:
			return (s - 2) / 1.5 * v / 100
		}
	case coefficients.CategoryMedium:
		switch {
		case s < -4:
			return (-s - 4) / 0.7 * (v - 20) / 100
		case s > 0:
			return s / 1 * v / 100
		}
	case coefficients.CategoryHeavy:
		switch {
		case s < -4:
			return (-s - 4) / 0.5 * (v - 10) / 100
		case s > 0:
			return s / 0.8 * v / 100
		}
	}
	return 0
}
