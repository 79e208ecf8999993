package models

import "math"

// FrequencyPoint represents a single frequency measurement
type FrequencyPoint struct {
	Frequency float64 `json:"frequency" doc:"Frequency in Hz"`
	Magnitude float64 `json:"magnitude" doc:"Magnitude in dB"`
}

// BandKind identifies one of the supported band axes
type BandKind string

const (
	BandOctave      BandKind = "octave"
	BandThirdOctave BandKind = "third-octave"
)

// OctaveFrequencies are the nominal octave band centres in Hz
var OctaveFrequencies = []int{63, 125, 250, 500, 1000, 2000, 4000, 8000}

// ThirdOctaveFrequencies are the nominal third-octave band centres in Hz
var ThirdOctaveFrequencies = []int{
	50, 63, 80, 100, 125, 160, 200, 250, 315, 400, 500, 630,
	800, 1000, 1250, 1600, 2000, 2500, 3150, 4000, 5000, 6300, 8000, 10000,
}

// BandAxis is an ordered set of band centre frequencies. Spectra are indexed
// by position on the axis, never by raw frequency.
type BandAxis struct {
	Kind        BandKind
	Frequencies []int
}

// OctaveAxis returns the 8-band octave axis
func OctaveAxis() BandAxis {
	return BandAxis{Kind: BandOctave, Frequencies: OctaveFrequencies}
}

// ThirdOctaveAxis returns the 24-band third-octave axis
func ThirdOctaveAxis() BandAxis {
	return BandAxis{Kind: BandThirdOctave, Frequencies: ThirdOctaveFrequencies}
}

// AxisFor returns the axis for a kind, defaulting to third-octave
func AxisFor(kind BandKind) BandAxis {
	if kind == BandOctave {
		return OctaveAxis()
	}
	return ThirdOctaveAxis()
}

// Len returns the band count
func (a BandAxis) Len() int {
	return len(a.Frequencies)
}

// Index returns the position of freq on the axis, or -1
func (a BandAxis) Index(freq int) int {
	for i, f := range a.Frequencies {
		if f == freq {
			return i
		}
	}
	return -1
}

// FoldToOctaves sums a third-octave power spectrum into octave bands. Each
// octave receives the power of its three sub-bands.
func FoldToOctaves(thirdOctave []float64) []float64 {
	out := make([]float64, len(OctaveFrequencies))
	for i, p := range thirdOctave {
		if i >= len(ThirdOctaveFrequencies) {
			break
		}
		out[i/3] += p
	}
	return out
}

// Points pairs a power spectrum with its axis frequencies, expressed in dB.
// Silent bands (zero power) are skipped since they have no finite level.
func (a BandAxis) Points(power []float64) []FrequencyPoint {
	points := make([]FrequencyPoint, 0, len(power))
	for i, p := range power {
		if i >= len(a.Frequencies) || p <= 0 {
			continue
		}
		points = append(points, FrequencyPoint{
			Frequency: float64(a.Frequencies[i]),
			Magnitude: 10 * math.Log10(p),
		})
	}
	return points
}
