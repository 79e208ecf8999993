package processing

import (
	"fmt"
	"sync"

	"github.com/RMahshie/noisemap/internal/coefficients"
	"github.com/RMahshie/noisemap/internal/emission"
	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/internal/terrain"
	"github.com/RMahshie/noisemap/pkg/models"
)

// AggregatorConfig holds the settings shared by every source of a run
type AggregatorConfig struct {
	Mode        InputMode
	Bands       models.BandKind
	RailFormat  RailFormat
	TrainHeight int
	// Elevation supplies ground heights for road slope, nil for flat ground
	Elevation terrain.ElevationProvider
}

// Aggregator computes the Day, Evening, Night and Lden spectra of source rows
type Aggregator struct {
	cfg  AggregatorConfig
	axis models.BandAxis
	road *emission.RoadModel
	rail *emission.RailModel
}

// NewAggregator creates an aggregator over the given coefficient tables
func NewAggregator(cfg AggregatorConfig, tables coefficients.Tables) *Aggregator {
	axis := models.AxisFor(cfg.Bands)
	return &Aggregator{
		cfg:  cfg,
		axis: axis,
		road: emission.NewRoadModel(tables.Road, axis),
		rail: emission.NewRailModel(tables.Rail, axis),
	}
}

// Axis returns the configured band axis
func (a *Aggregator) Axis() models.BandAxis {
	return a.axis
}

// Mode returns the configured input mode
func (a *Aggregator) Mode() InputMode {
	return a.cfg.Mode
}

// RailModel exposes the rail model so its extension points can be replaced
func (a *Aggregator) RailModel() *emission.RailModel {
	return a.rail
}

// Session binds the aggregator to one source table. The table schema is
// discovered on first use and reused for every row.
type Session struct {
	agg     *Aggregator
	columns []string

	once   sync.Once
	schema *Schema
	err    error
}

// NewSession creates a session for a table with the given columns
func (a *Aggregator) NewSession(columns []string) *Session {
	return &Session{agg: a, columns: columns}
}

// Schema returns the discovered schema of the session's table
func (s *Session) Schema() (*Schema, error) {
	s.once.Do(func() {
		s.schema, s.err = DiscoverSchema(s.columns, s.agg.cfg.Mode, s.agg.axis, s.agg.cfg.RailFormat)
	})
	return s.schema, s.err
}

// Compute returns the linear-power spectra of one row
func (s *Session) Compute(row *repository.SourceRow) (models.SourceEmission, error) {
	schema, err := s.Schema()
	if err != nil {
		return models.SourceEmission{}, err
	}

	a := s.agg
	var periods [3][]float64
	switch a.cfg.Mode {
	case ModeReference:
		for i := range periods {
			periods[i] = reference(a.axis.Len())
		}
	case ModeDirect:
		for i := range periods {
			periods[i] = direct(schema.direct[i], row)
		}
	case ModeTraffic:
		slope := terrain.Slope(row.Geometry, a.cfg.Elevation)
		for i := range periods {
			p := schema.roadParameters(row, i, slope)
			if periods[i], err = a.road.Spectrum(p); err != nil {
				return models.SourceEmission{}, fmt.Errorf("road emission of source %d: %w", row.ID, err)
			}
		}
	case ModeRail:
		for i := range periods {
			p := schema.trainParameters(row, i, a.cfg.TrainHeight)
			if periods[i], err = a.rail.Spectrum(p); err != nil {
				return models.SourceEmission{}, fmt.Errorf("rail emission of source %d: %w", row.ID, err)
			}
		}
	default:
		return models.SourceEmission{}, fmt.Errorf("%w: %d", ErrUnknownInputMode, int(a.cfg.Mode))
	}

	return models.SourceEmission{
		Day:     periods[0],
		Evening: periods[1],
		Night:   periods[2],
		Lden:    emission.Lden(periods[0], periods[1], periods[2]),
	}, nil
}

func reference(n int) []float64 {
	out := make([]float64, n)
	w := emission.DBAToW(ReferenceLevel)
	for i := range out {
		out[i] = w
	}
	return out
}

// direct converts per-band levels to power. Null cells are silent.
func direct(columns []column, row *repository.SourceRow) []float64 {
	out := make([]float64, len(columns))
	for b, c := range columns {
		if db, ok := row.Float(string(c)); ok {
			out[b] = emission.DBAToW(db)
		}
	}
	return out
}

func (s *Schema) roadParameters(row *repository.SourceRow, period int, slope float64) emission.RoadParameters {
	c := s.traffic[period]
	p := emission.NewRoadParameters()

	p.Light = emission.VehicleFlow{Speed: c.lvSpd.float(row, 0), Flow: c.lv.float(row, 0)}
	p.Medium = emission.VehicleFlow{Speed: c.mvSpd.float(row, 0), Flow: c.mv.float(row, 0)}
	p.Heavy = emission.VehicleFlow{Speed: c.hgvSpd.float(row, 0), Flow: c.hgv.float(row, 0)}
	p.TwoWheelLight = emission.VehicleFlow{Speed: c.wavSpd.float(row, 0), Flow: c.wav.float(row, 0)}
	p.TwoWheelHeavy = emission.VehicleFlow{Speed: c.wbvSpd.float(row, 0), Flow: c.wbv.float(row, 0)}

	p.Temperature = c.temp.float(row, emission.DefaultTemperature)
	p.Pavement = s.pavement.text(row, emission.DefaultPavement)
	p.StudMonths = s.tsStud.float(row, 0)
	p.StudFraction = s.pmStud.float(row, 0)
	p.JunctionDistance = s.juncDist.float(row, emission.DefaultJunctionDistance)
	p.JunctionType = s.juncType.int(row, emission.DefaultJunctionType)
	p.Slope = slope

	// Older tables carry a total and a heavy count instead of per-category flows
	tv := c.tv.float(row, 0)
	hv := c.hv.float(row, 0)
	if c.hvSpd != "" {
		p.Heavy.Speed = c.hvSpd.float(row, 0)
	}
	if tv > 0 {
		p.Light.Flow = tv - (hv + p.Medium.Flow + p.Heavy.Flow + p.TwoWheelLight.Flow + p.TwoWheelHeavy.Flow)
	}
	if hv > 0 {
		p.Heavy.Flow = hv
	}
	return p
}

func (s *Schema) trainParameters(row *repository.SourceRow, period, height int) emission.TrainParameters {
	c := s.rail
	p := emission.NewTrainParameters()
	p.Height = height
	p.Flow = c.flow[period].float(row, 0)
	p.RailRoughness = c.roughness.text(row, coefficients.DefaultKey)
	p.TrackTransfer = c.transfer.text(row, coefficients.DefaultKey)

	switch s.railFormat {
	case RailFormatShort:
		p.EngineType = c.name.text(row, coefficients.DefaultKey)
		p.Flow = c.q.float(row, p.Flow)
		p.Speed = c.speed.float(row, 0)
	default:
		p.EngineType = c.engine.text(row, coefficients.DefaultKey)
		p.WagonType = c.wagonType.text(row, coefficients.DefaultKey)
		p.WagonCount = c.wagonCount.float(row, 0)
		p.Speed = c.vmaxInfra.float(row, 0)
	}
	return p
}
