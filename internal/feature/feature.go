// Package feature models the attributed geometries a dataset is made of.
package feature

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/twpayne/go-geom"
)

// GeometryType is the geometry family of a feature or a whole dataset.
type GeometryType string

// Geometry families. Multi-geometries collapse into their single counterpart.
const (
	Point      GeometryType = "Point"
	LineString GeometryType = "LineString"
	Polygon    GeometryType = "Polygon"
	Mixed      GeometryType = "Mixed"
)

// TypeOf returns the geometry family of g. Geometry collections and nil
// geometries report Mixed.
func TypeOf(g geom.T) GeometryType {
	switch g.(type) {
	case *geom.Point, *geom.MultiPoint:
		return Point
	case *geom.LineString, *geom.MultiLineString, *geom.LinearRing:
		return LineString
	case *geom.Polygon, *geom.MultiPolygon:
		return Polygon
	default:
		return Mixed
	}
}

// Feature is one geometry with its attribute properties. The geometry family
// is tagged once at construction.
type Feature struct {
	ID         string
	Geometry   geom.T
	Properties map[string]any
	kind       GeometryType
}

// New builds a Feature and tags its geometry family.
func New(id string, g geom.T, props map[string]any) *Feature {
	if props == nil {
		props = make(map[string]any)
	}
	return &Feature{
		ID:         id,
		Geometry:   g,
		Properties: props,
		kind:       TypeOf(g),
	}
}

// Get returns the raw property value for field.
func (f *Feature) Get(field string) (any, bool) {
	v, ok := f.Properties[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// GeometryType returns the geometry family tagged at construction.
func (f *Feature) GeometryType() GeometryType {
	if f.kind == "" {
		return TypeOf(f.Geometry)
	}
	return f.kind
}

// Collection is the feature set of one dataset.
type Collection struct {
	Features     []*Feature
	GeometryType GeometryType
}

// NewCollection wraps features and resolves the dataset geometry family once.
func NewCollection(features []*Feature) *Collection {
	return &Collection{
		Features:     features,
		GeometryType: DetectGeometryType(features),
	}
}

// Len returns the number of features.
func (c *Collection) Len() int {
	return len(c.Features)
}

// DetectGeometryType returns the shared geometry family of features, or Mixed
// when they disagree. Features without geometry are ignored; an empty set is Mixed.
func DetectGeometryType(features []*Feature) GeometryType {
	var found GeometryType
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		t := f.GeometryType()
		if found == "" {
			found = t
			continue
		}
		if t != found {
			return Mixed
		}
	}
	if found == "" {
		return Mixed
	}
	return found
}

// Number converts a property value to float64. Only finite numeric values
// qualify; strings, booleans, NaN and infinities do not.
func Number(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// Values extracts the numeric sample for field, skipping features whose value
// is missing, null or non-numeric.
func Values(features []*Feature, field string) []float64 {
	values := make([]float64, 0, len(features))
	for _, f := range features {
		v, ok := f.Get(field)
		if !ok {
			continue
		}
		if x, ok := Number(v); ok {
			values = append(values, x)
		}
	}
	return values
}

// NumericFields lists the property keys of the first feature that hold numbers,
// sorted by name.
func NumericFields(features []*Feature) []string {
	if len(features) == 0 {
		return nil
	}
	var fields []string
	for k, v := range features[0].Properties {
		if _, ok := Number(v); ok {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

// Summary describes a numeric sample.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes descriptive statistics for values. An empty sample returns
// a zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	lo, hi := stats.Bounds(values)
	s := Summary{
		Count: len(values),
		Min:   lo,
		Max:   hi,
		Mean:  stats.Mean(values),
	}
	if len(values) > 1 {
		s.StdDev = stats.StdDev(values)
	}
	return s
}
