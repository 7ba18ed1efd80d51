package source

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/sells-group/symbology/internal/feature"
)

func TestPostgisQuery(t *testing.T) {
	q := postgisQuery("gis.wells", "the_geom", 500)
	assert.Equal(t, `SELECT ST_AsEWKB(t."the_geom"), to_jsonb(t) - $1::text FROM "gis"."wells" AS t LIMIT 500`, q)

	q = postgisQuery(`odd"name`, "geom", 0)
	assert.Contains(t, q, `FROM "odd""name" AS t`)
	assert.NotContains(t, q, "LIMIT")
}

func TestLoad_PostGIS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pt, err := wkb.Marshal(geom.NewPointFlat(geom.XY, []float64{-97.7, 30.2}), wkb.NDR)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"st_asewkb", "props"}).
		AddRow(pt, []byte(`{"depth": 120, "name": "north"}`)).
		AddRow(pt, []byte(`{"depth": 45.5, "name": "south"}`)).
		AddRow([]byte(nil), []byte(`{"depth": null}`))
	mock.ExpectQuery(regexp.QuoteMeta(postgisQuery("public.wells", "geom", 100))).
		WithArgs("geom").
		WillReturnRows(rows)

	spec := Spec{ID: "wells", Driver: DriverPostGIS, Table: "public.wells"}
	c, err := Load(context.Background(), spec, Options{Pool: mock, MaxFeatures: 100})
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, feature.Point, c.GeometryType)

	assert.Equal(t, json.Number("120"), c.Features[0].Properties["depth"])
	assert.Equal(t, []float64{120, 45.5}, feature.Values(c.Features, "depth"))
	assert.Nil(t, c.Features[2].Geometry)
	assert.Equal(t, []string{"1", "2", "3"}, []string{c.Features[0].ID, c.Features[1].ID, c.Features[2].ID})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_PostGISQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("relation does not exist")
	mock.ExpectQuery("SELECT ST_AsEWKB").WillReturnError(boom)

	_, err = Load(context.Background(), Spec{ID: "x", Driver: DriverPostGIS, Table: "missing"}, Options{Pool: mock})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_PostGISRequiresTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = Load(context.Background(), Spec{ID: "x", Driver: DriverPostGIS}, Options{Pool: mock})
	assert.Error(t, err)
}

func TestDecodeProps(t *testing.T) {
	props, err := decodeProps([]byte(`{"a": 9007199254740993, "b": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), props["a"])
	assert.Equal(t, "x", props["b"])

	props, err = decodeProps(nil)
	require.NoError(t, err)
	assert.Empty(t, props)

	_, err = decodeProps([]byte(`{`))
	assert.Error(t, err)
}
