package emission

import (
	"math"

	"github.com/RMahshie/noisemap/internal/coefficients"
)

// BandOf returns the position of a third-octave frequency in the 18-band
// track transfer spectrum (100 Hz to 5 kHz). The reference tables alias the
// bands below 100 Hz onto the first three positions and everything from
// 5 kHz upward onto the last one. Unknown frequencies fall back to 0.
func BandOf(freq int) int {
	switch freq {
	case 50, 100:
		return 0
	case 63, 125:
		return 1
	case 80, 160:
		return 2
	case 200:
		return 3
	case 250:
		return 4
	case 315:
		return 5
	case 400:
		return 6
	case 500:
		return 7
	case 630:
		return 8
	case 800:
		return 9
	case 1000:
		return 10
	case 1250:
		return 11
	case 1600:
		return 12
	case 2000:
		return 13
	case 2500:
		return 14
	case 3150:
		return 15
	case 4000:
		return 16
	case 5000, 8000, 10000:
		return 17
	default:
		return 0
	}
}

// Wavelengths is the roughness wavelength ladder in millimetres
var Wavelengths = [RoughnessBins]float64{
	1000, 800, 630, 500, 400, 315, 250, 200, 160, 120, 100, 80, 63, 50, 40, 31.5,
	25, 20, 16, 12, 10, 8, 6.3, 5, 4, 3.2, 2.5, 2, 1.6, 1.2, 1, 0.8,
}

// RoughnessBins is the number of wavelength bins of a roughness spectrum
const RoughnessBins = coefficients.RoughnessBins

// ExcitationFrequency returns the frequency in Hz excited by wavelength bin i
// at speed km/h.
func ExcitationFrequency(speed float64, i int) float64 {
	return speed / Wavelengths[i] * 1000 / 3.6
}

// WavelengthMapper projects a wavelength-indexed roughness spectrum onto a
// set of band centre frequencies.
type WavelengthMapper interface {
	Map(roughness [RoughnessBins]float64, speed float64, freqs []int) []float64
}

// NearestWavelength assigns each band the roughness of the wavelength bin
// whose excitation frequency is closest to the band centre on a log scale.
// Bands outside the excitation range of the ladder take the nearest edge
// bin, so roughness is held flat past either end.
type NearestWavelength struct{}

func (NearestWavelength) Map(roughness [RoughnessBins]float64, speed float64, freqs []int) []float64 {
	out := Silent(len(freqs))
	if speed <= 0 {
		return out
	}
	for b, f := range freqs {
		target := math.Log10(float64(f))
		best, bestDist := 0, math.Inf(1)
		for i := range Wavelengths {
			d := math.Abs(math.Log10(ExcitationFrequency(speed, i)) - target)
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		out[b] = roughness[best]
	}
	return out
}
