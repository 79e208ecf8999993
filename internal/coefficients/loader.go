package coefficients

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

//go:embed data/*.json
var defaults embed.FS

// Embedded document names
const (
	RoadDocument = "data/road_default.json"
	RailDocument = "data/rail_default.json"
)

// Source yields the raw bytes of a coefficient document
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// ObjectStore fetches objects by key
type ObjectStore interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

// EmbeddedSource reads a document compiled into the binary
type EmbeddedSource struct {
	Name string
}

func (s EmbeddedSource) Load(context.Context) ([]byte, error) {
	return defaults.ReadFile(s.Name)
}

func (s EmbeddedSource) String() string { return "embedded:" + s.Name }

// FileSource reads a document from the local filesystem
type FileSource struct {
	Path string
}

func (s FileSource) Load(context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

func (s FileSource) String() string { return "file:" + s.Path }

// ObjectSource reads a document from object storage
type ObjectSource struct {
	Store ObjectStore
	Key   string
}

func (s ObjectSource) Load(ctx context.Context) ([]byte, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("no object store configured for %s", s.Key)
	}
	return s.Store.DownloadFile(ctx, s.Key)
}

func (s ObjectSource) String() string { return "s3://" + s.Key }

// ParseSource interprets a configured location: empty or "embedded" selects
// the compiled-in document, "s3://<key>" an object, "file:<path>" or any
// other value a local file.
func ParseSource(location, embedded string, store ObjectStore) Source {
	switch {
	case location == "" || location == "embedded":
		return EmbeddedSource{Name: embedded}
	case strings.HasPrefix(location, "s3://"):
		return ObjectSource{Store: store, Key: strings.TrimPrefix(location, "s3://")}
	default:
		return FileSource{Path: strings.TrimPrefix(location, "file:")}
	}
}

// Tables groups the road and rail reference documents
type Tables struct {
	Road *RoadTable
	Rail *RailTable
}

// Provider loads each coefficient family once. A family that fails to load
// is replaced by a sentinel table so the failure surfaces on first lookup.
type Provider struct {
	road Source
	rail Source

	roadOnce sync.Once
	railOnce sync.Once
	roadTbl  *RoadTable
	railTbl  *RailTable
}

// NewProvider creates a provider over the given sources
func NewProvider(road, rail Source) *Provider {
	return &Provider{road: road, rail: rail}
}

// Road returns the road table, loading it on first use
func (p *Provider) Road(ctx context.Context) *RoadTable {
	p.roadOnce.Do(func() {
		p.roadTbl = LoadRoad(ctx, p.road)
	})
	return p.roadTbl
}

// Rail returns the rail table, loading it on first use
func (p *Provider) Rail(ctx context.Context) *RailTable {
	p.railOnce.Do(func() {
		p.railTbl = LoadRail(ctx, p.rail)
	})
	return p.railTbl
}

// Tables returns both families
func (p *Provider) Tables(ctx context.Context) Tables {
	return Tables{Road: p.Road(ctx), Rail: p.Rail(ctx)}
}

// LoadRoad reads and parses a road document, returning a sentinel on failure
func LoadRoad(ctx context.Context, src Source) *RoadTable {
	data, err := src.Load(ctx)
	if err == nil {
		var t *RoadTable
		if t, err = ParseRoad(data); err == nil {
			log.Info().Str("source", src.String()).Int("pavements", len(t.Pavements)).Msg("Road coefficients loaded")
			return t
		}
	}
	log.Error().Err(err).Str("source", src.String()).Msg("Failed to load road coefficients")
	return MissingRoad(err)
}

// LoadRail reads and parses a rail document, returning a sentinel on failure
func LoadRail(ctx context.Context, src Source) *RailTable {
	data, err := src.Load(ctx)
	if err == nil {
		var t *RailTable
		if t, err = ParseRail(data); err == nil {
			log.Info().Str("source", src.String()).Int("train_types", len(t.Train.Definition)).Msg("Rail coefficients loaded")
			return t
		}
	}
	log.Error().Err(err).Str("source", src.String()).Msg("Failed to load rail coefficients")
	return MissingRail(err)
}

var shared = NewProvider(EmbeddedSource{Name: RoadDocument}, EmbeddedSource{Name: RailDocument})

// Default returns the process-wide tables built from the embedded documents
func Default() Tables {
	return shared.Tables(context.Background())
}
