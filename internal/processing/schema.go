package processing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/pkg/models"
)

// ErrMissingColumn is returned when a source table lacks a required column
var ErrMissingColumn = errors.New("missing column")

// column is the table's own spelling of a recognised field, empty when absent
type column string

func (c column) float(row *repository.SourceRow, def float64) float64 {
	if c == "" {
		return def
	}
	if v, ok := row.Float(string(c)); ok {
		return v
	}
	return def
}

func (c column) int(row *repository.SourceRow, def int) int {
	if c == "" {
		return def
	}
	if v, ok := row.Int(string(c)); ok {
		return v
	}
	return def
}

func (c column) text(row *repository.SourceRow, def string) string {
	if c == "" {
		return def
	}
	if v, ok := row.String(string(c)); ok && v != "" {
		return v
	}
	return def
}

type trafficColumns struct {
	lvSpd, mvSpd, hgvSpd, wavSpd, wbvSpd column
	lv, mv, hgv, wav, wbv                column
	temp                                 column
	tv, hv, hvSpd                        column
}

type railColumns struct {
	flow       [3]column
	engine     column
	wagonType  column
	wagonCount column
	vmaxInfra  column
	name       column
	q          column
	speed      column
	roughness  column
	transfer   column
}

// Schema maps the recognised fields of a source table to its columns. It is
// built once per table and shared by every row.
type Schema struct {
	direct  [3][]column
	traffic [3]trafficColumns
	rail    railColumns

	pavement column
	tsStud   column
	pmStud   column
	juncDist column
	juncType column

	railFormat RailFormat
}

// DiscoverSchema resolves field names case-insensitively against columns.
// Direct mode requires one column per band and period.
func DiscoverSchema(columns []string, mode InputMode, axis models.BandAxis, railFormat RailFormat) (*Schema, error) {
	byName := make(map[string]column, len(columns))
	for _, c := range columns {
		byName[strings.ToUpper(c)] = column(c)
	}

	s := &Schema{
		pavement: byName["PVMT"],
		tsStud:   byName["TS_STUD"],
		pmStud:   byName["PM_STUD"],
		juncDist: byName["JUNC_DIST"],
		juncType: byName["JUNC_TYPE"],
	}

	for i, p := range models.Periods {
		sfx := "_" + string(p)
		s.traffic[i] = trafficColumns{
			lvSpd:  byName["LV_SPD"+sfx],
			mvSpd:  byName["MV_SPD"+sfx],
			hgvSpd: byName["HGV_SPD"+sfx],
			wavSpd: byName["WAV_SPD"+sfx],
			wbvSpd: byName["WBV_SPD"+sfx],
			lv:     byName["LV"+sfx],
			mv:     byName["MV"+sfx],
			hgv:    byName["HGV"+sfx],
			wav:    byName["WAV"+sfx],
			wbv:    byName["WBV"+sfx],
			temp:   byName["TEMP"+sfx],
			tv:     byName["TV"+sfx],
			hv:     byName["HV"+sfx],
			hvSpd:  byName["HV_SPD"+sfx],
		}
	}

	s.rail = railColumns{
		flow:       [3]column{byName["TDIURNE"], byName["TSOIR"], byName["TNUIT"]},
		engine:     byName["ENGMOTEUR"],
		wagonType:  byName["TYPVOITWAG"],
		wagonCount: byName["NBVOITWAG"],
		vmaxInfra:  byName["VMAXINFRA"],
		name:       byName["NAME"],
		q:          byName["Q"],
		speed:      byName["SPEED"],
		roughness:  byName["RAIL_ROUGHNESS"],
		transfer:   byName["TRACK_TRANSFER"],
	}
	s.railFormat = railFormat
	if railFormat == RailFormatAuto || railFormat == "" {
		s.railFormat = RailFormatFull
		if s.rail.engine == "" && (s.rail.name != "" || s.rail.q != "" || s.rail.speed != "") {
			s.railFormat = RailFormatShort
		}
	}

	if mode == ModeDirect {
		var missing []string
		for i, p := range models.Periods {
			s.direct[i] = make([]column, axis.Len())
			for b, f := range axis.Frequencies {
				name := fmt.Sprintf("LW%s%d", p, f)
				c, ok := byName[name]
				if !ok {
					missing = append(missing, name)
				}
				s.direct[i][b] = c
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
		}
	}

	return s, nil
}

// RailFormat reports the resolved rail column layout
func (s *Schema) RailFormat() RailFormat {
	return s.railFormat
}
