package main

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/config"
	"github.com/sells-group/symbology/internal/palette"
	"github.com/sells-group/symbology/internal/render"
	"github.com/sells-group/symbology/internal/source"
	"github.com/sells-group/symbology/internal/style"
	"github.com/sells-group/symbology/internal/workspace"
)

// styleDefaults converts the style section of the config into styler defaults.
func styleDefaults(c *config.Config) (workspace.Defaults, error) {
	method, err := classify.ParseMethod(c.Style.Method)
	if err != nil {
		return workspace.Defaults{}, eris.Wrap(err, "style.method")
	}
	tag, err := language.Parse(c.Style.LegendLocale)
	if err != nil {
		return workspace.Defaults{}, eris.Wrap(err, "style.legend_locale")
	}
	return workspace.Defaults{
		ClassCount:  c.Style.ClassCount,
		MaxClasses:  c.Style.MaxClasses,
		Method:      method,
		Family:      c.Style.Family,
		SchemeIndex: c.Style.SchemeIndex,
		Options: style.Options{
			PointSize: c.Style.PointSize,
			LineWidth: c.Style.LineWidth,
			Opacity:   c.Style.Opacity,
		},
		Locale: tag,
	}, nil
}

// newStyler wires the palette registry, caches and defaults around ws.
func newStyler(c *config.Config, ws *workspace.Workspace) (*workspace.Styler, error) {
	defaults, err := styleDefaults(c)
	if err != nil {
		return nil, err
	}

	palettes := palette.Default()
	if c.Palettes.File != "" {
		if err := palettes.LoadFile(c.Palettes.File); err != nil {
			return nil, err
		}
	}

	renders := render.NewCache(c.RenderCache.MaxEntries, time.Duration(c.RenderCache.TTLSecs)*time.Second)
	return workspace.NewStyler(ws, palettes, style.NewCache(), renders, defaults), nil
}

// postgisPool connects to the configured PostGIS database. It returns nil
// when no database is configured.
func postgisPool(ctx context.Context, c *config.Config) (*pgxpool.Pool, error) {
	dsn := c.PostGIS.DatabaseURL
	if dsn == "" {
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgis: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgis: ping database")
	}

	zap.L().Info("connected to postgis", zap.String("component", "cmd"))
	return pool, nil
}

// sourceOptions builds loader options, attaching pool when it is non-nil.
func sourceOptions(c *config.Config, pool *pgxpool.Pool) source.Options {
	opts := source.Options{
		MaxFeatures: c.PostGIS.MaxFeatures,
		Retry: source.RetryConfig{
			MaxAttempts:    c.PostGIS.RetryAttempts,
			InitialBackoff: time.Duration(c.PostGIS.RetryBackoffMs) * time.Millisecond,
		},
	}
	if pool != nil {
		opts.Pool = pool
	}
	return opts
}

// detectDriver guesses the dataset driver from a file extension.
func detectDriver(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return source.DriverGeoJSON, nil
	case ".shp":
		return source.DriverShapefile, nil
	case ".gpkg":
		return source.DriverGeoPackage, nil
	default:
		return "", eris.Wrapf(source.ErrUnsupportedDriver, "cannot detect driver for %q, set --driver", path)
	}
}

// sourceFlags locate a single dataset from the command line.
type sourceFlags struct {
	driver     string
	table      string
	layer      string
	geomColumn string
	id         string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", "", "dataset driver: geojson, shapefile, gpkg or postgis (default from extension)")
	cmd.Flags().StringVar(&f.table, "table", "", "postgis table, optionally schema-qualified")
	cmd.Flags().StringVar(&f.layer, "layer", "", "geopackage layer (default first feature layer)")
	cmd.Flags().StringVar(&f.geomColumn, "geom-column", "", "postgis geometry column (default geom)")
	cmd.Flags().StringVar(&f.id, "id", "", "dataset id (default file base name or table)")
}

// spec resolves the flags and the optional path argument into a source spec.
func (f *sourceFlags) spec(args []string) (source.Spec, error) {
	s := source.Spec{
		ID:         f.id,
		Driver:     f.driver,
		Table:      f.table,
		Layer:      f.layer,
		GeomColumn: f.geomColumn,
	}
	if len(args) > 0 {
		s.Path = args[0]
	}

	if s.Driver == "" {
		if s.Path == "" {
			if s.Table == "" {
				return source.Spec{}, eris.New("a dataset path or --table is required")
			}
			s.Driver = source.DriverPostGIS
		} else {
			d, err := detectDriver(s.Path)
			if err != nil {
				return source.Spec{}, err
			}
			s.Driver = d
		}
	}

	if s.ID == "" {
		switch {
		case s.Path != "":
			s.ID = strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
		default:
			s.ID = s.Table
		}
	}
	s.Title = s.ID
	return s, nil
}

// loadStyler loads the dataset named by sf and args into a one-layer styler.
func loadStyler(ctx context.Context, sf *sourceFlags, args []string) (*workspace.Styler, string, error) {
	spec, err := sf.spec(args)
	if err != nil {
		return nil, "", err
	}

	var pool *pgxpool.Pool
	if spec.Driver == source.DriverPostGIS {
		pool, err = postgisPool(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		if pool == nil {
			return nil, "", eris.Wrap(source.ErrNoPool, "set postgis.database_url")
		}
		defer pool.Close()
	}

	c, err := source.Load(ctx, spec, sourceOptions(cfg, pool))
	if err != nil {
		return nil, "", err
	}

	ws := workspace.New()
	ws.Add(spec.ID, spec.Title, c)
	s, err := newStyler(cfg, ws)
	if err != nil {
		return nil, "", err
	}
	return s, spec.ID, nil
}

// styleFlags describe the classification requested on the command line.
type styleFlags struct {
	field   string
	method  string
	classes int
	family  string
	scheme  int
	colors  []string
}

func (f *styleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.field, "field", "", "numeric attribute to classify")
	cmd.Flags().StringVar(&f.method, "method", "", "classification method (default from config)")
	cmd.Flags().IntVar(&f.classes, "classes", 0, "number of classes (default from config)")
	cmd.Flags().StringVar(&f.family, "family", "", "palette family (default from config)")
	cmd.Flags().IntVar(&f.scheme, "scheme", 0, "palette scheme index within the family")
	cmd.Flags().StringSliceVar(&f.colors, "colors", nil, "explicit class colors, one per class")
	_ = cmd.MarkFlagRequired("field")
}

func (f *styleFlags) request(datasetID string) (workspace.ApplyRequest, error) {
	req := workspace.ApplyRequest{
		DatasetID:   datasetID,
		Field:       f.field,
		ClassCount:  f.classes,
		Family:      f.family,
		SchemeIndex: f.scheme,
		Colors:      f.colors,
	}
	if f.method != "" {
		m, err := classify.ParseMethod(f.method)
		if err != nil {
			return workspace.ApplyRequest{}, err
		}
		req.Method = m
	}
	return req, nil
}
