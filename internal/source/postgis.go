package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/symbology/internal/feature"
)

const defaultGeomColumn = "geom"

// postgisQuery builds the feature query for a schema-qualified table. The
// properties are every column except the geometry, serialized as jsonb.
func postgisQuery(table, geomCol string, limit int) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	col := pgx.Identifier{geomCol}.Sanitize()
	q := fmt.Sprintf(
		"SELECT ST_AsEWKB(t.%s), to_jsonb(t) - $1::text FROM %s AS t",
		col, ident,
	)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

func readPostGIS(ctx context.Context, pool Pool, table, geomCol string, limit int, retry RetryConfig) ([]*feature.Feature, error) {
	if table == "" {
		return nil, eris.New("source: postgis dataset requires a table")
	}
	if geomCol == "" {
		geomCol = defaultGeomColumn
	}

	return withRetry(ctx, retry, "postgis "+table, func(ctx context.Context) ([]*feature.Feature, error) {
		return queryPostGIS(ctx, pool, table, geomCol, limit)
	})
}

func queryPostGIS(ctx context.Context, pool Pool, table, geomCol string, limit int) ([]*feature.Feature, error) {
	rows, err := pool.Query(ctx, postgisQuery(table, geomCol, limit), geomCol)
	if err != nil {
		return nil, eris.Wrapf(err, "source: query %s", table)
	}
	defer rows.Close()

	var features []*feature.Feature
	for rows.Next() {
		var (
			geomWKB []byte
			raw     []byte
		)
		if err := rows.Scan(&geomWKB, &raw); err != nil {
			return nil, eris.Wrapf(err, "source: scan %s", table)
		}

		var f *feature.Feature
		props, err := decodeProps(raw)
		if err != nil {
			return nil, err
		}
		id := indexID(len(features))
		if len(geomWKB) == 0 {
			f = feature.New(id, nil, props)
		} else {
			g, err := ewkb.Unmarshal(geomWKB)
			if err != nil {
				return nil, eris.Wrapf(err, "source: decode geometry of row %s", id)
			}
			f = feature.New(id, g, props)
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: iterate %s", table)
	}
	return features, nil
}

// decodeProps keeps numbers as json.Number so integer columns survive intact.
func decodeProps(raw []byte) (map[string]any, error) {
	props := make(map[string]any)
	if len(raw) == 0 {
		return props, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&props); err != nil {
		return nil, eris.Wrap(err, "source: decode properties")
	}
	return props, nil
}
