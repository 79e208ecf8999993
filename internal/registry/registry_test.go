package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockComputer struct {
	mock.Mock
}

func (m *MockComputer) Compute(row *repository.SourceRow) (models.SourceEmission, error) {
	args := m.Called(row)
	return args.Get(0).(models.SourceEmission), args.Error(1)
}

var sample = models.SourceEmission{
	Day:     []float64{1, 1},
	Evening: []float64{2, 2},
	Night:   []float64{3, 3},
	Lden:    []float64{4, 4},
}

func TestAddSourceAssignsOrdinals(t *testing.T) {
	computer := new(MockComputer)
	computer.On("Compute", mock.Anything).Return(sample, nil)
	reg := New(computer, models.AllPeriods())

	for i, id := range []int64{42, 7, 1000} {
		ordinal, err := reg.AddSource(id, orb.Point{float64(i), 0}, &repository.SourceRow{ID: id})
		require.NoError(t, err)
		assert.Equal(t, i, ordinal)
	}

	assert.Equal(t, 3, reg.Len())
	o, ok := reg.Ordinal(7)
	assert.True(t, ok)
	assert.Equal(t, 1, o)
	assert.Equal(t, orb.Point{2, 0}, reg.Geometry(2))
	computer.AssertNumberOfCalls(t, "Compute", 3)
}

func TestAddSourceRejectsDuplicates(t *testing.T) {
	computer := new(MockComputer)
	computer.On("Compute", mock.Anything).Return(sample, nil)
	reg := New(computer, models.AllPeriods())

	_, err := reg.AddSource(5, nil, &repository.SourceRow{ID: 5})
	require.NoError(t, err)
	_, err = reg.AddSource(5, nil, &repository.SourceRow{ID: 5})
	assert.ErrorIs(t, err, ErrDuplicateSource)
	assert.Equal(t, 1, reg.Len())
	computer.AssertNumberOfCalls(t, "Compute", 1)
}

func TestAddSourceComputeFailure(t *testing.T) {
	computer := new(MockComputer)
	computer.On("Compute", mock.Anything).Return(models.SourceEmission{}, errors.New("bad row"))
	reg := New(computer, models.AllPeriods())

	_, err := reg.AddSource(1, nil, &repository.SourceRow{ID: 1})
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.Ordinal(1)
	assert.False(t, ok)
}

func TestMaximalSourcePowerPriority(t *testing.T) {
	tests := []struct {
		name   string
		active models.ActivePeriods
		want   []float64
	}{
		{"lden first", models.AllPeriods(), sample.Lden},
		{"day without lden", models.ActivePeriods{Day: true, Evening: true, Night: true}, sample.Day},
		{"evening then night", models.ActivePeriods{Evening: true, Night: true}, sample.Evening},
		{"night only", models.ActivePeriods{Night: true}, sample.Night},
		{"nothing active", models.ActivePeriods{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New(nil, tt.active)
			_, err := reg.Add(1, nil, sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.MaximalSourcePower(0))
		})
	}
}

func TestMaximalSourcePowerOutOfRange(t *testing.T) {
	reg := New(nil, models.AllPeriods())
	_, err := reg.Add(1, nil, sample)
	require.NoError(t, err)

	assert.Equal(t, []float64{}, reg.MaximalSourcePower(1))
	assert.Equal(t, []float64{}, reg.MaximalSourcePower(-1))
}

func TestMaximalSourcePowerReturnsCopy(t *testing.T) {
	reg := New(nil, models.AllPeriods())
	e := models.SourceEmission{Lden: []float64{9, 9}}
	_, err := reg.Add(1, nil, e)
	require.NoError(t, err)

	got := reg.MaximalSourcePower(0)
	got[0] = 0
	assert.Equal(t, []float64{9, 9}, reg.MaximalSourcePower(0))
}

func TestConcurrentAddSource(t *testing.T) {
	computer := new(MockComputer)
	computer.On("Compute", mock.Anything).Return(models.SourceEmission{Lden: make([]float64, 8)}, nil)
	reg := New(computer, models.AllPeriods())

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := reg.AddSource(id, nil, &repository.SourceRow{ID: id})
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	require.Equal(t, 64, reg.Len())
	seen := make(map[int]bool)
	for i := int64(0); i < 64; i++ {
		o, ok := reg.Ordinal(i)
		require.True(t, ok)
		seen[o] = true
		assert.Len(t, reg.MaximalSourcePower(o), 8)
	}
	assert.Len(t, seen, 64)

	records := reg.Records("run-1")
	require.Len(t, records, 64)
	assert.Equal(t, 10, records[10].Ordinal)
	assert.Equal(t, "run-1", records[10].RunID)
}
