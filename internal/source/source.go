// Package source loads datasets from files and databases into feature collections.
package source

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/symbology/internal/feature"
)

// Supported drivers.
const (
	DriverGeoJSON    = "geojson"
	DriverShapefile  = "shapefile"
	DriverGeoPackage = "gpkg"
	DriverPostGIS    = "postgis"
)

// Sentinel errors.
var (
	ErrUnsupportedDriver = eris.New("source: unsupported driver")
	ErrNoPool            = eris.New("source: postgis driver requires a database pool")
)

// Spec locates one dataset.
type Spec struct {
	ID         string
	Title      string
	Driver     string
	Path       string
	Table      string
	Layer      string
	GeomColumn string
}

// Pool is the subset of a pgx pool used by the postgis driver.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Options tune loading.
type Options struct {
	Pool        Pool
	MaxFeatures int
	// Retry applies to database drivers. The zero value makes one attempt.
	Retry RetryConfig
}

// Load reads the dataset described by spec.
func Load(ctx context.Context, spec Spec, opts Options) (*feature.Collection, error) {
	log := zap.L().With(
		zap.String("component", "source"),
		zap.String("dataset", spec.ID),
		zap.String("driver", spec.Driver),
	)

	var (
		features []*feature.Feature
		err      error
	)
	switch spec.Driver {
	case DriverGeoJSON:
		features, err = readGeoJSON(spec.Path)
	case DriverShapefile:
		features, err = readShapefile(spec.Path)
	case DriverGeoPackage:
		features, err = readGeoPackage(ctx, spec.Path, spec.Layer)
	case DriverPostGIS:
		if opts.Pool == nil {
			return nil, ErrNoPool
		}
		features, err = readPostGIS(ctx, opts.Pool, spec.Table, spec.GeomColumn, opts.MaxFeatures, opts.Retry)
	default:
		return nil, eris.Wrapf(ErrUnsupportedDriver, "%q", spec.Driver)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: load %s", spec.ID)
	}

	if opts.MaxFeatures > 0 && len(features) > opts.MaxFeatures {
		log.Warn("truncating dataset",
			zap.Int("features", len(features)),
			zap.Int("max_features", opts.MaxFeatures),
		)
		features = features[:opts.MaxFeatures]
	}

	c := feature.NewCollection(features)
	log.Info("dataset loaded",
		zap.Int("features", c.Len()),
		zap.String("geometry_type", string(c.GeometryType)),
	)
	return c, nil
}

func indexID(i int) string {
	return strconv.Itoa(i + 1)
}
