package style

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/feature"
)

var (
	testBreaks = classify.Breaks{0, 10, 20, 30}
	testColors = []string{"#fee0d2", "#fc9272", "#de2d26"}
)

func point(props map[string]any) *feature.Feature {
	return feature.New("p", geom.NewPointFlat(geom.XY, []float64{1, 2}), props)
}

func line(props map[string]any) *feature.Feature {
	return feature.New("l", geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}), props)
}

func polygon(props map[string]any) *feature.Feature {
	flat := []float64{0, 0, 1, 0, 1, 1, 0, 0}
	return feature.New("a", geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}), props)
}

func mustBundle(t *testing.T, gt feature.GeometryType) Bundle {
	t.Helper()
	b, err := NewBundle("pop", testBreaks, testColors, gt, DefaultOptions())
	require.NoError(t, err)
	return b
}

func TestResolve_Point(t *testing.T) {
	b := mustBundle(t, feature.Point)

	p := Resolve(b, point(map[string]any{"pop": 15.0}))
	assert.Equal(t, Paint{
		Shape:  ShapeCircle,
		Class:  1,
		Color:  "#fc9272",
		Fill:   "#fc927280",
		Radius: 8,
	}, p)
}

func TestResolve_Line(t *testing.T) {
	b := mustBundle(t, feature.LineString)

	p := Resolve(b, line(map[string]any{"pop": 25}))
	assert.Equal(t, Paint{
		Shape:       ShapeLine,
		Class:       2,
		Color:       "#de2d26",
		Stroke:      "#de2d26",
		StrokeWidth: 2,
	}, p)
	assert.Empty(t, p.Fill, "lines carry no fill")
}

func TestResolve_Polygon(t *testing.T) {
	b := mustBundle(t, feature.Polygon)

	p := Resolve(b, polygon(map[string]any{"pop": 3}))
	assert.Equal(t, Paint{
		Shape:       ShapeFill,
		Class:       0,
		Color:       "#fee0d2",
		Fill:        "#fee0d280",
		Stroke:      "#fee0d2",
		StrokeWidth: 1,
	}, p)
}

func TestResolve_MixedUsesFeatureGeometry(t *testing.T) {
	b := mustBundle(t, feature.Mixed)
	props := map[string]any{"pop": 12}

	assert.Equal(t, ShapeCircle, Resolve(b, point(props)).Shape)
	assert.Equal(t, ShapeLine, Resolve(b, line(props)).Shape)
	assert.Equal(t, ShapeFill, Resolve(b, polygon(props)).Shape)
}

func TestResolve_MissingOrNonNumericValue(t *testing.T) {
	b := mustBundle(t, feature.Polygon)

	tests := []struct {
		name  string
		props map[string]any
	}{
		{"missing field", map[string]any{"other": 25}},
		{"nil value", map[string]any{"pop": nil}},
		{"string value", map[string]any{"pop": "n/a"}},
		{"no properties", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(b, polygon(tt.props))
			assert.Equal(t, 0, p.Class)
			assert.Equal(t, testColors[0], p.Color)
		})
	}
}

func TestResolve_OpacityAlpha(t *testing.T) {
	opts := DefaultOptions()
	opts.Opacity = 1
	b, err := NewBundle("pop", testBreaks, testColors, feature.Point, opts)
	require.NoError(t, err)

	assert.Equal(t, "#de2d26ff", Resolve(b, point(map[string]any{"pop": 30})).Fill)
}

func TestBuildStyleFunction(t *testing.T) {
	b := mustBundle(t, feature.Point)
	fn := BuildStyleFunction(b)

	f := point(map[string]any{"pop": 10})
	assert.Equal(t, Resolve(b, f), fn(f))
	assert.Equal(t, fn(f), fn(f))
}

func TestNewBundle_Validation(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name    string
		field   string
		breaks  classify.Breaks
		colors  []string
		opts    Options
		wantErr error
	}{
		{"missing field", "", testBreaks, testColors, opts, ErrMissingSelection},
		{"color mismatch", "pop", testBreaks, testColors[:2], opts, ErrColorMismatch},
		{"bad options", "pop", testBreaks, testColors, Options{PointSize: 1, LineWidth: 2, Opacity: 0.5}, ErrInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBundle(tt.field, tt.breaks, tt.colors, feature.Point, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := NewBundle("pop", classify.Breaks{1}, nil, feature.Point, opts)
	assert.Error(t, err)

	_, err = NewBundle("pop", testBreaks, []string{"#fff", "red", "#000"}, feature.Point, opts)
	assert.Error(t, err)
}

func TestBundle_Immutable(t *testing.T) {
	breaks := classify.Breaks{0, 1, 2}
	colors := []string{"#000000", "#ffffff"}
	b, err := NewBundle("v", breaks, colors, feature.Polygon, DefaultOptions())
	require.NoError(t, err)

	breaks[0] = 99
	colors[0] = "#123456"
	assert.Equal(t, classify.Breaks{0, 1, 2}, b.Breaks())
	assert.Equal(t, []string{"#000000", "#ffffff"}, b.Colors())

	got := b.Colors()
	got[1] = "#abcdef"
	assert.Equal(t, "#ffffff", b.Colors()[1])
	assert.Equal(t, "v", b.Field())
	assert.Equal(t, feature.Polygon, b.GeometryType())
	assert.Equal(t, DefaultOptions(), b.Options())
}
