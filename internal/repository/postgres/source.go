package postgres

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/rs/zerolog/log"
)

// Column names recognised as the row identifier and the geometry, in order
var (
	idColumns       = []string{"pk", "id", "gid"}
	geometryColumns = []string{"the_geom", "geom", "geometry"}
)

// SourceTable streams the result of a source query. Geometry columns may
// hold WKB, hex-encoded EWKB as returned by PostGIS, or WKT.
type SourceTable struct {
	rows    *sql.Rows
	columns []string
	idCol   int
	geomCol int
	seq     int64
}

// OpenSourceTable runs query and prepares to stream its rows
func OpenSourceTable(ctx context.Context, db *sql.DB, query string) (*SourceTable, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query source table: %w", err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read source columns: %w", err)
	}

	t := &SourceTable{
		rows:    rows,
		columns: columns,
		idCol:   findColumn(columns, idColumns),
		geomCol: findColumn(columns, geometryColumns),
	}
	log.Info().Strs("columns", columns).Int("idColumn", t.idCol).Int("geometryColumn", t.geomCol).Msg("Source table opened")
	return t, nil
}

func (t *SourceTable) Columns() []string {
	return t.columns
}

// Next returns the next row, or io.EOF after the last one
func (t *SourceTable) Next(ctx context.Context) (*repository.SourceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.rows.Next() {
		if err := t.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	raw := make([]any, len(t.columns))
	dest := make([]any, len(t.columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := t.rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan source row: %w", err)
	}

	t.seq++
	return t.decodeRow(raw)
}

// decodeRow builds a source row from scanned values. The row count is the
// id only when the table has no id column; a NULL id is a row error.
func (t *SourceTable) decodeRow(raw []any) (*repository.SourceRow, error) {
	row := &repository.SourceRow{ID: t.seq, Values: make(map[string]any, len(t.columns))}
	for i, c := range t.columns {
		if i == t.geomCol {
			geom, err := DecodeGeometry(raw[i])
			if err != nil {
				log.Warn().Err(err).Int64("row", t.seq).Msg("Undecodable source geometry")
			}
			row.Geometry = geom
			continue
		}
		row.Values[c] = raw[i]
	}
	if t.idCol >= 0 {
		id, ok := row.Int(t.columns[t.idCol])
		if !ok {
			return nil, fmt.Errorf("%w: row %d has no usable %s", repository.ErrInvalidRow, t.seq, t.columns[t.idCol])
		}
		row.ID = int64(id)
	}
	return row, nil
}

// Close releases the underlying result set
func (t *SourceTable) Close() error {
	return t.rows.Close()
}

// DecodeGeometry decodes a geometry column value. A nil value yields a nil
// geometry.
func DecodeGeometry(v any) (orb.Geometry, error) {
	switch g := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		if geom, err := wkb.Unmarshal(g); err == nil {
			return geom, nil
		}
		return decodeText(string(g))
	case string:
		return decodeText(g)
	}
	return nil, fmt.Errorf("unsupported geometry value %T", v)
}

func decodeText(s string) (orb.Geometry, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(s); err == nil {
		geom, _, err := ewkb.Unmarshal(b)
		return geom, err
	}
	return wkt.Unmarshal(s)
}

func findColumn(columns, names []string) int {
	for _, n := range names {
		for i, c := range columns {
			if strings.EqualFold(c, n) {
				return i
			}
		}
	}
	return -1
}
