package source

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/symbology/internal/feature"
)

func readShapefile(path string) ([]*feature.Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var (
		features []*feature.Feature
		skipped  int
	)
	for reader.Next() {
		n, shape := reader.Shape()

		props := make(map[string]any, len(fields))
		for i, f := range fields {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			props[names[i]] = attributeValue(f.Fieldtype, val)
		}

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
		}
		features = append(features, feature.New(indexID(n), g, props))
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("source: shapefile records without usable geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return features, nil
}

// attributeValue decodes numeric dBase columns; everything else stays text.
func attributeValue(fieldType byte, val string) any {
	switch fieldType {
	case 'N', 'F':
		if x, err := cast.ToFloat64E(val); err == nil {
			return x
		}
	}
	return val
}

// shapeToGeom converts a go-shp shape to a go-geom geometry. Returns nil for
// null or unsupported shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewMultiPointFlat(geom.XY, pointsFlat(s.Points))
	case *shp.PolyLine:
		return partsToMultiLineString(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return partsToMultiLineString(s.Parts, s.Points)
	case *shp.Polygon:
		return partsToMultiPolygon(s.Parts, s.Points)
	case *shp.PolygonZ:
		return partsToMultiPolygon(s.Parts, s.Points)
	default:
		return nil
	}
}

// partRanges splits points into the [start, end) ranges given by parts.
func partRanges(parts []int32, n int) [][2]int {
	ranges := make([][2]int, 0, len(parts))
	for i, start := range parts {
		end := n
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) < 0 || int(start) >= end || end > n {
			continue
		}
		ranges = append(ranges, [2]int{int(start), end})
	}
	return ranges
}

func partsToMultiLineString(parts []int32, points []shp.Point) geom.T {
	mls := geom.NewMultiLineString(geom.XY)
	for i, r := range partRanges(parts, len(points)) {
		ls := geom.NewLineStringFlat(geom.XY, pointsFlat(points[r[0]:r[1]]))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("source: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// partsToMultiPolygon treats each ring as its own polygon.
func partsToMultiPolygon(parts []int32, points []shp.Point) geom.T {
	mp := geom.NewMultiPolygon(geom.XY)
	for i, r := range partRanges(parts, len(points)) {
		flat := pointsFlat(points[r[0]:r[1]])
		poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("source: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func pointsFlat(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
