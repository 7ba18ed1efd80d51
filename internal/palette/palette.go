// Package palette interpolates color ramps from anchor colors.
package palette

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// Sentinel errors returned by Interpolate.
var (
	ErrInvalidPalette = eris.New("palette: invalid palette")
	ErrInvalidCount   = eris.New("palette: color count must be at least 1")
)

// Interpolate spreads count colors evenly across the anchors, blending
// neighbouring anchors channel by channel in RGB space. Positions that land on
// an anchor return the anchor string unchanged.
func Interpolate(anchors []string, count int) ([]string, error) {
	if len(anchors) == 0 {
		return nil, eris.Wrap(ErrInvalidPalette, "no anchor colors")
	}
	if count < 1 {
		return nil, eris.Wrapf(ErrInvalidCount, "count %d", count)
	}

	parsed := make([]colorful.Color, len(anchors))
	for i, a := range anchors {
		c, err := ParseHex(a)
		if err != nil {
			return nil, err
		}
		parsed[i] = c
	}

	colors := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var idx float64
		if count > 1 {
			idx = float64(i) / float64(count-1) * float64(len(anchors)-1)
		}
		lower := int(math.Floor(idx))
		upper := int(math.Ceil(idx))

		if lower == upper {
			colors = append(colors, anchors[lower])
			continue
		}

		colors = append(colors, blend(parsed[lower], parsed[upper], idx-float64(lower)))
	}
	return colors, nil
}

// blend mixes two colors on 8-bit channels, rounding each channel to the
// nearest integer.
func blend(lo, hi colorful.Color, fraction float64) string {
	lr, lg, lb := lo.RGB255()
	hr, hg, hb := hi.RGB255()
	mix := func(a, b uint8) float64 {
		v := math.Round(float64(a) + (float64(b)-float64(a))*fraction)
		return v / 255.0
	}
	return colorful.Color{R: mix(lr, hr), G: mix(lg, hg), B: mix(lb, hb)}.Hex()
}

// ParseHex decodes a "#rrggbb" or "#rgb" color.
func ParseHex(s string) (colorful.Color, error) {
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 4) {
		return colorful.Color{}, eris.Wrapf(ErrInvalidPalette, "malformed color %q", s)
	}
	for _, r := range s[1:] {
		if !isHexDigit(r) {
			return colorful.Color{}, eris.Wrapf(ErrInvalidPalette, "malformed color %q", s)
		}
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, eris.Wrapf(ErrInvalidPalette, "parse color %q: %v", s, err)
	}
	return c, nil
}

// WithAlpha appends an opacity byte to a "#rrggbb" color, giving "#rrggbbaa".
// Short "#rgb" colors are expanded first.
func WithAlpha(color string, opacity float64) string {
	if len(color) == 4 && color[0] == '#' {
		color = string([]byte{'#', color[1], color[1], color[2], color[2], color[3], color[3]})
	}
	return color + AlphaHex(opacity)
}

// AlphaHex encodes opacity in [0,1] as two lowercase hex digits.
func AlphaHex(opacity float64) string {
	a := int(math.Round(opacity * 255))
	if a < 0 {
		a = 0
	}
	if a > 255 {
		a = 255
	}
	return fmt.Sprintf("%02x", a)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
