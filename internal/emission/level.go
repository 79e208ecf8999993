package emission

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DBAToW converts a level in dB to linear power
func DBAToW(db float64) float64 {
	return math.Pow(10, db/10)
}

// WToDBA converts linear power to a level in dB. Zero power maps to -Inf.
func WToDBA(w float64) float64 {
	if w <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(w)
}

// DBAToWArray converts a dB spectrum to linear power
func DBAToWArray(db []float64) []float64 {
	out := make([]float64, len(db))
	for i, v := range db {
		out[i] = DBAToW(v)
	}
	return out
}

// WToDBAArray converts a linear power spectrum to dB
func WToDBAArray(w []float64) []float64 {
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = WToDBA(v)
	}
	return out
}

// SumDBA combines levels energetically
func SumDBA(levels ...float64) float64 {
	var w float64
	for _, l := range levels {
		w += DBAToW(l)
	}
	return WToDBA(w)
}

// Silent returns a spectrum of n bands with no power, in dB
func Silent(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Inf(-1)
	}
	return out
}

// Lden combines Day, Evening and Night power spectra into the
// day-evening-night indicator. Evening and night levels receive +5 dB and
// +10 dB before the 12/4/8 hour weighting.
func Lden(ld, le, ln []float64) []float64 {
	evening := make([]float64, len(le))
	night := make([]float64, len(ln))
	for i := range le {
		evening[i] = DBAToW(WToDBA(le[i]) + 5)
	}
	for i := range ln {
		night[i] = DBAToW(WToDBA(ln[i]) + 10)
	}

	out := make([]float64, len(ld))
	floats.AddScaled(out, 12, ld)
	floats.AddScaled(out, 4, evening)
	floats.AddScaled(out, 8, night)
	floats.Scale(1.0/24, out)
	return out
}
