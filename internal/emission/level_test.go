package emission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelRoundTrip(t *testing.T) {
	for db := -50.0; db <= 200; db += 0.5 {
		assert.InDelta(t, db, WToDBA(DBAToW(db)), 1e-9)
	}
}

func TestZeroPowerIsNegativeInfinity(t *testing.T) {
	assert.True(t, math.IsInf(WToDBA(0), -1))
	assert.Equal(t, 0.0, DBAToW(math.Inf(-1)))

	for _, v := range Silent(4) {
		assert.True(t, math.IsInf(v, -1))
	}
}

func TestSumDBA(t *testing.T) {
	assert.InDelta(t, 63.0103, SumDBA(60, 60), 1e-4)
	assert.InDelta(t, 60, SumDBA(60, math.Inf(-1)), 1e-12)
	assert.True(t, math.IsInf(SumDBA(), -1))
}

func TestLdenUniformLevel(t *testing.T) {
	n := 8
	w := make([]float64, n)
	for i := range w {
		w[i] = DBAToW(60)
	}

	lden := Lden(w, w, w)

	want := 60 + 10*math.Log10((12+4*math.Pow(10, 0.5)+8*10)/24)
	assert.InDelta(t, 66.3952, want, 1e-4)
	for _, p := range lden {
		assert.InDelta(t, want, WToDBA(p), 1e-9)
	}
}

func TestLdenSilentPeriods(t *testing.T) {
	day := []float64{DBAToW(70), 0}
	none := []float64{0, 0}

	lden := Lden(day, none, none)

	assert.InDelta(t, 70+10*math.Log10(12.0/24), WToDBA(lden[0]), 1e-9)
	assert.Equal(t, 0.0, lden[1])
}
