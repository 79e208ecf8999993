package emission

import (
	"math"

	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/pkg/models"
)

// Rail source height classes
const (
	HeightRail  = 0
	HeightUpper = 1
)

// TrainParameters describe the traffic of a rail section for one period
type TrainParameters struct {
	EngineType string
	WagonType  string
	// Speed in km/h
	Speed float64
	// Flow in trains per hour
	Flow          float64
	WagonCount    float64
	RailRoughness string
	TrackTransfer string
	Height        int
}

// NewTrainParameters returns parameters with no traffic on the default track
func NewTrainParameters() TrainParameters {
	return TrainParameters{
		EngineType:    coefficients.DefaultKey,
		WagonType:     coefficients.DefaultKey,
		RailRoughness: coefficients.DefaultKey,
		TrackTransfer: coefficients.DefaultKey,
		Height:        HeightRail,
	}
}

// NoiseTerm contributes the linear power of one rail noise mechanism for a
// single vehicle at speed, on the given band centres.
type NoiseTerm interface {
	Spectrum(def coefficients.TrainDefinition, speed float64, height int, freqs []int) []float64
}

// NoiseTermFunc adapts a function to NoiseTerm
type NoiseTermFunc func(def coefficients.TrainDefinition, speed float64, height int, freqs []int) []float64

func (f NoiseTermFunc) Spectrum(def coefficients.TrainDefinition, speed float64, height int, freqs []int) []float64 {
	return f(def, speed, height, freqs)
}

// NoTerm contributes no power
var NoTerm NoiseTerm = NoiseTermFunc(func(_ coefficients.TrainDefinition, _ float64, _ int, freqs []int) []float64 {
	return make([]float64, len(freqs))
})

// RailModel evaluates rail traffic emission. Rolling noise is computed from
// the roughness tables; traction and aerodynamic noise come from pluggable
// terms.
type RailModel struct {
	table *coefficients.RailTable
	axis  models.BandAxis

	Mapper      WavelengthMapper
	Traction    NoiseTerm
	Aerodynamic NoiseTerm
}

// NewRailModel creates a rail model producing spectra on axis
func NewRailModel(table *coefficients.RailTable, axis models.BandAxis) *RailModel {
	return &RailModel{
		table:       table,
		axis:        axis,
		Mapper:      NearestWavelength{},
		Traction:    NoTerm,
		Aerodynamic: NoTerm,
	}
}

// ResolveType returns code when the rolling stock table defines it, Empty otherwise
func (m *RailModel) ResolveType(code string) (string, error) {
	return m.table.ResolveType(code)
}

// Roughness returns the combined wheel and rail roughness of a vehicle type,
// filtered by its contact patch, on the wavelength ladder.
func (m *RailModel) Roughness(vehicleType, railRoughness string) ([RoughnessBins]float64, error) {
	var out [RoughnessBins]float64

	def, err := m.table.Definition(vehicleType)
	if err != nil {
		return out, err
	}
	wheel, err := m.table.WheelRoughness(def.RefRoughness)
	if err != nil {
		return out, err
	}
	contact, err := m.table.ContactFilter(def.RefContact)
	if err != nil {
		return out, err
	}
	rail, err := m.table.RailRoughness(railRoughness)
	if err != nil {
		return out, err
	}

	for i := range out {
		out[i] = SumDBA(wheel[i], rail[i]) + contact[i]
	}
	return out, nil
}

// VehicleSpectrum returns the third-octave linear power of n vehicles of one
// type at the traffic of p. No flow, no speed or no vehicles yields silence.
func (m *RailModel) VehicleSpectrum(vehicleType string, n float64, p TrainParameters) ([]float64, error) {
	freqs := models.ThirdOctaveFrequencies
	out := make([]float64, len(freqs))

	code, err := m.ResolveType(vehicleType)
	if err != nil {
		return nil, err
	}
	def, err := m.table.Definition(code)
	if err != nil {
		return nil, err
	}

	v := p.Speed
	if def.Vmax > 0 {
		v = math.Min(v, def.Vmax)
	}
	if p.Flow <= 0 || v <= 0 || n <= 0 {
		return out, nil
	}

	if p.Height == HeightRail {
		rough, err := m.Roughness(code, p.RailRoughness)
		if err != nil {
			return nil, err
		}
		lr := m.Mapper.Map(rough, v, freqs)
		axles := 10 * math.Log10(math.Max(def.NbAxlesPerVeh, 1))
		for b, f := range freqs {
			lh, err := m.table.TrackTransferAt(p.TrackTransfer, BandOf(f))
			if err != nil {
				return nil, err
			}
			out[b] = DBAToW(lr[b] + lh + axles)
		}
	}

	traction := m.Traction.Spectrum(def, v, p.Height, freqs)
	aero := m.Aerodynamic.Spectrum(def, v, p.Height, freqs)
	density := n * p.Flow / (1000 * v)
	for b := range out {
		out[b] = (out[b] + traction[b] + aero[b]) * density
	}
	return out, nil
}

// TrainSpeed returns the speed the whole train runs at: the line speed
// clamped to the lowest Vmax of the engine and, when wagons are present,
// the wagon type.
func (m *RailModel) TrainSpeed(p TrainParameters) (float64, error) {
	types := []string{p.EngineType}
	if p.WagonCount > 0 {
		types = append(types, p.WagonType)
	}
	v := p.Speed
	for _, t := range types {
		code, err := m.ResolveType(t)
		if err != nil {
			return 0, err
		}
		def, err := m.table.Definition(code)
		if err != nil {
			return 0, err
		}
		if def.Vmax > 0 {
			v = math.Min(v, def.Vmax)
		}
	}
	return v, nil
}

// Spectrum returns the linear power of a train, engine plus wagons, on the
// model axis. Engine and wagons share the train speed.
func (m *RailModel) Spectrum(p TrainParameters) ([]float64, error) {
	speed, err := m.TrainSpeed(p)
	if err != nil {
		return nil, err
	}
	p.Speed = speed

	total, err := m.VehicleSpectrum(p.EngineType, 1, p)
	if err != nil {
		return nil, err
	}
	if p.WagonCount > 0 {
		wagons, err := m.VehicleSpectrum(p.WagonType, p.WagonCount, p)
		if err != nil {
			return nil, err
		}
		for i := range total {
			total[i] += wagons[i]
		}
	}
	if m.axis.Kind == models.BandOctave {
		return models.FoldToOctaves(total), nil
	}
	return total, nil
}
