package style

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/symbology/internal/feature"
	"github.com/sells-group/symbology/internal/palette"
)

// legendSwatchSize is the edge of the square drawn for polygon classes.
const legendSwatchSize = 20

// Swatch is the legend symbol of one class.
type Swatch struct {
	Shape       Shape   `json:"shape"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	Size        float64 `json:"size"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// LegendEntry describes one class.
type LegendEntry struct {
	Class  int     `json:"class"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Color  string  `json:"color"`
	Label  string  `json:"label"`
	Swatch Swatch  `json:"swatch"`
}

// Legend lists the classes of a styled dataset.
type Legend struct {
	Field        string               `json:"field"`
	GeometryType feature.GeometryType `json:"geometry_type"`
	Entries      []LegendEntry        `json:"entries"`
}

// BuildLegend describes every class of b with a "lower - upper" label
// formatted to two decimals. language.Und gives plain digits ("1500.00");
// any other tag adds that locale's grouping and decimal marks.
func BuildLegend(b Bundle, tag language.Tag) Legend {
	sprintf := fmt.Sprintf
	if tag != language.Und {
		p := message.NewPrinter(tag)
		sprintf = func(format string, a ...any) string { return p.Sprintf(format, a...) }
	}
	opts := b.options

	entries := make([]LegendEntry, 0, len(b.colors))
	for i, color := range b.colors {
		entries = append(entries, LegendEntry{
			Class:  i,
			Lower:  b.breaks[i],
			Upper:  b.breaks[i+1],
			Color:  color,
			Label:  sprintf("%.2f - %.2f", b.breaks[i], b.breaks[i+1]),
			Swatch: swatchFor(b.geometryType, color, opts),
		})
	}
	return Legend{
		Field:        b.field,
		GeometryType: b.geometryType,
		Entries:      entries,
	}
}

// swatchFor draws circles only for point datasets and bars only for line
// datasets; polygon and mixed datasets use a filled square.
func swatchFor(gt feature.GeometryType, color string, opts Options) Swatch {
	switch gt {
	case feature.Point:
		return Swatch{
			Shape:       ShapeCircle,
			Fill:        palette.WithAlpha(color, opts.Opacity),
			Stroke:      color,
			Size:        opts.PointSize,
			StrokeWidth: outlineWidth,
		}
	case feature.LineString:
		return Swatch{
			Shape: ShapeLine,
			Fill:  color,
			Size:  opts.LineWidth,
		}
	default:
		return Swatch{
			Shape:       ShapeFill,
			Fill:        palette.WithAlpha(color, opts.Opacity),
			Stroke:      color,
			Size:        legendSwatchSize,
			StrokeWidth: outlineWidth,
		}
	}
}
