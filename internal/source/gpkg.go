package source

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"

	"github.com/sells-group/symbology/internal/feature"
)

// ErrGeoPackageGeometry reports a geometry blob without a valid GeoPackage header.
var ErrGeoPackageGeometry = eris.New("source: malformed geopackage geometry")

const layerQuery = `SELECT c.table_name, g.column_name
FROM gpkg_contents c
JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
WHERE c.data_type = 'features' AND (? = '' OR c.table_name = ?)
ORDER BY c.table_name
LIMIT 1`

func readGeoPackage(ctx context.Context, path, layer string) ([]*feature.Feature, error) {
	// sqlite creates missing files on open.
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "source: stat %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open geopackage %s", path)
	}
	defer db.Close() //nolint:errcheck

	var table, geomCol string
	if err := db.QueryRowContext(ctx, layerQuery, layer, layer).Scan(&table, &geomCol); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("source: no feature layer %q in %s", layer, path)
		}
		return nil, eris.Wrap(err, "source: resolve geopackage layer")
	}

	pk, err := primaryKey(ctx, db, table)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, eris.Wrapf(err, "source: query layer %s", table)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "source: layer columns")
	}

	var features []*feature.Feature
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "source: scan feature row")
		}

		var (
			g  geom.T
			id string
		)
		props := make(map[string]any, len(cols))
		for i, col := range cols {
			switch col {
			case geomCol:
				blob, _ := values[i].([]byte)
				if g, err = decodeGeoPackageGeometry(blob); err != nil {
					return nil, err
				}
			case pk:
				id = cast.ToString(values[i])
			default:
				if values[i] != nil {
					props[col] = values[i]
				}
			}
		}
		if id == "" {
			id = indexID(len(features))
		}
		features = append(features, feature.New(id, g, props))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate features")
	}
	return features, nil
}

func primaryKey(ctx context.Context, db *sql.DB, table string) (string, error) {
	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM pragma_table_info(?) WHERE pk = 1", table).Scan(&name)
	if eris.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "source: primary key of %s", table)
	}
	return name, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// envelopeSizes maps the header envelope indicator to its byte length.
var envelopeSizes = [...]int{0, 32, 48, 48, 64}

// decodeGeoPackageGeometry strips the "GP" header of a GeoPackage geometry
// blob and decodes the WKB body. Empty geometries decode to nil.
func decodeGeoPackageGeometry(b []byte) (geom.T, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return nil, ErrGeoPackageGeometry
	}
	flags := b[3]
	if flags&0x10 != 0 {
		return nil, nil
	}
	indicator := int(flags>>1) & 0x07
	if indicator >= len(envelopeSizes) {
		return nil, eris.Wrapf(ErrGeoPackageGeometry, "envelope indicator %d", indicator)
	}
	offset := 8 + envelopeSizes[indicator]
	if len(b) <= offset {
		return nil, eris.Wrap(ErrGeoPackageGeometry, "truncated blob")
	}

	g, err := wkb.Unmarshal(b[offset:])
	if err != nil {
		return nil, eris.Wrap(err, "source: decode wkb")
	}
	return g, nil
}
