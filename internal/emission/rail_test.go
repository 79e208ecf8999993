package emission

import (
	"errors"
	"math"
	"testing"

	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func train(engine string, flow, speed float64) TrainParameters {
	p := NewTrainParameters()
	p.EngineType = engine
	p.Flow = flow
	p.Speed = speed
	return p
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		freq int
		want int
	}{
		{50, 0}, {63, 1}, {80, 2},
		{100, 0}, {125, 1}, {160, 2}, {200, 3},
		{1000, 10}, {4000, 16},
		{5000, 17}, {8000, 17}, {10000, 17},
		{6300, 0}, {440, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BandOf(tt.freq), "frequency %d", tt.freq)
	}
}

func TestExcitationFrequency(t *testing.T) {
	assert.InDelta(t, 27.7778, ExcitationFrequency(100, 0), 1e-4)
	// 36 km/h over a 10 mm wavelength excites 1 kHz
	assert.InDelta(t, 1000, ExcitationFrequency(36, 20), 1e-9)
}

func TestNearestWavelength(t *testing.T) {
	var rough [RoughnessBins]float64
	for i := range rough {
		rough[i] = float64(i)
	}

	lr := NearestWavelength{}.Map(rough, 36, []int{1000, 100})
	assert.Equal(t, []float64{20, 10}, lr)

	silent := NearestWavelength{}.Map(rough, 0, []int{1000})
	assert.True(t, math.IsInf(silent[0], -1))

	// Past the ladder's ends the edge bins hold
	assert.Equal(t, []float64{31, 31}, NearestWavelength{}.Map(rough, 20, []int{8000, 10000}))
	assert.Equal(t, []float64{0, 0}, NearestWavelength{}.Map(rough, 360, []int{50, 63}))
}

func TestRailEmptyTypeSpectrum(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())

	spectrum, err := m.Spectrum(train(coefficients.DefaultKey, 10, 100))
	require.NoError(t, err)
	require.Len(t, spectrum, 24)

	// 3 dB of combined zero roughness plus four axles, times 10 / (1000 * 100)
	for _, p := range spectrum {
		assert.InDelta(t, 8e-4, p, 1e-12)
	}
}

func TestRailUnknownTypeResolvesToEmpty(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())

	code, err := m.ResolveType("NOPE")
	require.NoError(t, err)
	assert.Equal(t, coefficients.DefaultKey, code)

	unknown, err := m.Spectrum(train("NOPE", 4, 80))
	require.NoError(t, err)
	empty, err := m.Spectrum(train(coefficients.DefaultKey, 4, 80))
	require.NoError(t, err)
	assert.Equal(t, empty, unknown)
}

func TestRailSilentWithoutTraffic(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())

	for _, p := range []TrainParameters{
		train("SNCF-BB66400", 0, 100),
		train("SNCF-BB66400", 5, 0),
	} {
		spectrum, err := m.Spectrum(p)
		require.NoError(t, err)
		assert.Equal(t, 0.0, floats.Sum(spectrum))
	}
}

func TestRailFlowScalesPower(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())
	p := train("SNCF-BB22200", 2, 140)
	p.RailRoughness = "2"
	p.TrackTransfer = "1"

	once, err := m.Spectrum(p)
	require.NoError(t, err)
	p.Flow = 4
	twice, err := m.Spectrum(p)
	require.NoError(t, err)

	for i := range once {
		require.Greater(t, once[i], 0.0)
		assert.InDelta(t, WToDBA(once[i])+3.0103, WToDBA(twice[i]), 1e-3)
	}
}

func TestRailSpeedClampedToVmax(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())

	atLimit, err := m.Spectrum(train("SNCF-BB66400", 1, 120))
	require.NoError(t, err)
	over, err := m.Spectrum(train("SNCF-BB66400", 1, 200))
	require.NoError(t, err)

	assert.InDeltaSlice(t, atLimit, over, 1e-15)
}

func TestRailTrainRunsAtSlowestVmax(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())
	mixed := func(speed float64) TrainParameters {
		p := train("SNCF-BB66400", 1, speed)
		p.WagonType = "Corail-FF"
		p.WagonCount = 4
		return p
	}

	speed, err := m.TrainSpeed(mixed(150))
	require.NoError(t, err)
	assert.Equal(t, 120.0, speed)

	// Wagons alone may go faster than the engine
	wagonsOnly, err := m.TrainSpeed(TrainParameters{EngineType: "Corail-FF", Speed: 150})
	require.NoError(t, err)
	assert.Equal(t, 150.0, wagonsOnly)

	over, err := m.Spectrum(mixed(150))
	require.NoError(t, err)
	atLimit, err := m.Spectrum(mixed(120))
	require.NoError(t, err)
	assert.InDeltaSlice(t, atLimit, over, 1e-15)

	engine, err := m.VehicleSpectrum("SNCF-BB66400", 1, mixed(120))
	require.NoError(t, err)
	wagons, err := m.VehicleSpectrum("Corail-FF", 4, mixed(120))
	require.NoError(t, err)
	for i := range over {
		assert.InDelta(t, engine[i]+wagons[i], over[i], 1e-9*over[i])
	}
}

func TestRailWagonsAddEnergetically(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())
	p := train("SNCF-BB22200", 1, 100)
	p.TrackTransfer = "2"

	engine, err := m.Spectrum(p)
	require.NoError(t, err)
	wagon, err := m.VehicleSpectrum("Corail-FF", 1, p)
	require.NoError(t, err)

	p.WagonType = "Corail-FF"
	p.WagonCount = 8
	full, err := m.Spectrum(p)
	require.NoError(t, err)

	for i := range full {
		assert.InDelta(t, engine[i]+8*wagon[i], full[i], 1e-9*full[i])
	}
}

func TestRailUpperHeightHasNoRolling(t *testing.T) {
	m := NewRailModel(coefficients.Default().Rail, models.ThirdOctaveAxis())
	p := train("SNCF-TGV-M", 3, 300)
	p.Height = HeightUpper

	spectrum, err := m.Spectrum(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, floats.Sum(spectrum))

	m.Aerodynamic = NoiseTermFunc(func(_ coefficients.TrainDefinition, _ float64, height int, freqs []int) []float64 {
		out := make([]float64, len(freqs))
		if height == HeightUpper {
			for i := range out {
				out[i] = 1
			}
		}
		return out
	})
	spectrum, err = m.Spectrum(p)
	require.NoError(t, err)
	assert.InDelta(t, 3.0/(1000*300), spectrum[0], 1e-15)
}

func TestRailFoldsToOctaves(t *testing.T) {
	table := coefficients.Default().Rail
	p := train("SNCF-BB66400", 2, 90)
	p.RailRoughness = "1"
	p.TrackTransfer = "1"

	third, err := NewRailModel(table, models.ThirdOctaveAxis()).Spectrum(p)
	require.NoError(t, err)
	octave, err := NewRailModel(table, models.OctaveAxis()).Spectrum(p)
	require.NoError(t, err)

	require.Len(t, octave, 8)
	assert.InDelta(t, floats.Sum(third), floats.Sum(octave), 1e-9*floats.Sum(third))
	assert.InDelta(t, third[0]+third[1]+third[2], octave[0], 1e-12*octave[0])
}

func TestRailMissingTable(t *testing.T) {
	m := NewRailModel(coefficients.MissingRail(errors.New("bucket gone")), models.ThirdOctaveAxis())

	_, err := m.Spectrum(train("SNCF-BB66400", 1, 100))
	assert.ErrorIs(t, err, coefficients.ErrMissingCoefficient)
}
