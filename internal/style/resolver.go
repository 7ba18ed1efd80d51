package style

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/feature"
	"github.com/sells-group/symbology/internal/palette"
)

// Feature is what the resolver needs from a feature.
type Feature interface {
	Get(field string) (any, bool)
	GeometryType() feature.GeometryType
}

// Shape is the drawing primitive of a Paint.
type Shape string

// Paint shapes.
const (
	ShapeCircle Shape = "circle"
	ShapeLine   Shape = "line"
	ShapeFill   Shape = "fill"
)

// outlineWidth is the stroke width drawn around polygons.
const outlineWidth = 1

// Paint is the concrete rendering description of one feature. Fill carries
// the opacity as an alpha byte ("#rrggbbaa"); Stroke is always opaque.
type Paint struct {
	Shape       Shape   `json:"shape"`
	Class       int     `json:"class"`
	Color       string  `json:"color"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
}

// Bundle is an immutable snapshot of everything needed to paint a dataset.
type Bundle struct {
	field        string
	breaks       classify.Breaks
	colors       []string
	geometryType feature.GeometryType
	options      Options
}

// NewBundle validates and copies the inputs of a style.
func NewBundle(field string, breaks classify.Breaks, colors []string, gt feature.GeometryType, opts Options) (Bundle, error) {
	if field == "" {
		return Bundle{}, ErrMissingSelection
	}
	if breaks.Classes() == 0 {
		return Bundle{}, eris.New("style: at least two breaks are required")
	}
	if len(colors) != breaks.Classes() {
		return Bundle{}, eris.Wrapf(ErrColorMismatch, "%d colors for %d classes", len(colors), breaks.Classes())
	}
	for _, c := range colors {
		if _, err := palette.ParseHex(c); err != nil {
			return Bundle{}, err
		}
	}
	if err := opts.Validate(); err != nil {
		return Bundle{}, err
	}
	return Bundle{
		field:        field,
		breaks:       append(classify.Breaks(nil), breaks...),
		colors:       append([]string(nil), colors...),
		geometryType: gt,
		options:      opts,
	}, nil
}

// Field returns the classified attribute.
func (b Bundle) Field() string { return b.field }

// Breaks returns a copy of the class breaks.
func (b Bundle) Breaks() classify.Breaks { return append(classify.Breaks(nil), b.breaks...) }

// Colors returns a copy of the class colors.
func (b Bundle) Colors() []string { return append([]string(nil), b.colors...) }

// GeometryType returns the dataset geometry family the bundle was built for.
func (b Bundle) GeometryType() feature.GeometryType { return b.geometryType }

// Options returns the rendering options.
func (b Bundle) Options() Options { return b.options }

// Func paints a single feature.
type Func func(f Feature) Paint

// BuildStyleFunction returns a pure paint function closed over b.
func BuildStyleFunction(b Bundle) Func {
	return func(f Feature) Paint {
		return Resolve(b, f)
	}
}

// Resolve computes the paint of f. Features with a missing or non-numeric
// value are painted with class 0.
func Resolve(b Bundle, f Feature) Paint {
	class := 0
	if v, ok := f.Get(b.field); ok {
		if x, ok := feature.Number(v); ok {
			class = classify.BucketOf(x, b.breaks)
		}
	}
	color := b.colors[class]

	gt := b.geometryType
	if gt == feature.Mixed {
		gt = f.GeometryType()
	}
	return paintFor(gt, class, color, b.options)
}

func paintFor(gt feature.GeometryType, class int, color string, opts Options) Paint {
	switch gt {
	case feature.Point:
		return Paint{
			Shape:  ShapeCircle,
			Class:  class,
			Color:  color,
			Fill:   palette.WithAlpha(color, opts.Opacity),
			Radius: opts.PointSize,
		}
	case feature.LineString:
		return Paint{
			Shape:       ShapeLine,
			Class:       class,
			Color:       color,
			Stroke:      color,
			StrokeWidth: opts.LineWidth,
		}
	default:
		return Paint{
			Shape:       ShapeFill,
			Class:       class,
			Color:       color,
			Fill:        palette.WithAlpha(color, opts.Opacity),
			Stroke:      color,
			StrokeWidth: outlineWidth,
		}
	}
}
