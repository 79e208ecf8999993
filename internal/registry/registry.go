package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/paulmach/orb"
)

// ErrDuplicateSource is returned when a source id is registered twice
var ErrDuplicateSource = errors.New("duplicate source")

// Computer turns a source row into spectra
type Computer interface {
	Compute(row *repository.SourceRow) (models.SourceEmission, error)
}

type entry struct {
	id       int64
	geometry orb.Geometry
	emission models.SourceEmission
}

// Registry assigns consecutive ordinals to sources and keeps their spectra.
// Sources are only ever appended.
type Registry struct {
	active   models.ActivePeriods
	computer Computer

	mu       sync.RWMutex
	ordinals map[int64]int
	entries  []entry
}

// New creates an empty registry
func New(computer Computer, active models.ActivePeriods) *Registry {
	return &Registry{
		active:   active,
		computer: computer,
		ordinals: make(map[int64]int),
	}
}

// AddSource computes the spectra of row and registers them under id,
// returning the assigned ordinal.
func (r *Registry) AddSource(id int64, geometry orb.Geometry, row *repository.SourceRow) (int, error) {
	r.mu.RLock()
	_, dup := r.ordinals[id]
	r.mu.RUnlock()
	if dup {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateSource, id)
	}

	e, err := r.computer.Compute(row)
	if err != nil {
		return 0, err
	}
	return r.Add(id, geometry, e)
}

// Add registers precomputed spectra under id
func (r *Registry) Add(id int64, geometry orb.Geometry, e models.SourceEmission) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ordinals[id]; dup {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateSource, id)
	}
	ordinal := len(r.entries)
	r.ordinals[id] = ordinal
	r.entries = append(r.entries, entry{id: id, geometry: geometry, emission: e})
	return ordinal, nil
}

// Ordinal returns the ordinal of a source id
func (r *Registry) Ordinal(id int64) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.ordinals[id]
	return o, ok
}

// Len returns the number of registered sources
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Emission returns the spectra stored at ordinal
func (r *Registry) Emission(ordinal int) (models.SourceEmission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ordinal < 0 || ordinal >= len(r.entries) {
		return models.SourceEmission{}, false
	}
	return r.entries[ordinal].emission, true
}

// Geometry returns the geometry stored at ordinal
func (r *Registry) Geometry(ordinal int) orb.Geometry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ordinal < 0 || ordinal >= len(r.entries) {
		return nil
	}
	return r.entries[ordinal].geometry
}

// MaximalSourcePower returns the spectrum propagation should use for the
// source at ordinal. An unknown ordinal or no active period yields an empty
// slice.
func (r *Registry) MaximalSourcePower(ordinal int) []float64 {
	e, ok := r.Emission(ordinal)
	if !ok {
		return []float64{}
	}
	return Representative(r.active, e)
}

// Records returns the stored spectra in ordinal order, tagged with runID
func (r *Registry) Records(runID string) []*models.EmissionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.EmissionRecord, len(r.entries))
	for i, e := range r.entries {
		out[i] = &models.EmissionRecord{RunID: runID, SourceID: e.id, Ordinal: i, Emission: e.emission}
	}
	return out
}

// Representative picks Lden, Day, Evening then Night, the first that is
// active and present. The result is a copy.
func Representative(active models.ActivePeriods, e models.SourceEmission) []float64 {
	candidates := []struct {
		on   bool
		data []float64
	}{
		{active.Lden, e.Lden},
		{active.Day, e.Day},
		{active.Evening, e.Evening},
		{active.Night, e.Night},
	}
	for _, c := range candidates {
		if c.on && c.data != nil {
			return append([]float64(nil), c.data...)
		}
	}
	return []float64{}
}
