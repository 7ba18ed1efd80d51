// Package style turns class breaks and colors into per-feature paint and
// keeps the last applied style of every dataset.
package style

import (
	"github.com/rotisserie/eris"
)

// Sentinel errors for style application.
var (
	ErrMissingSelection = eris.New("style: select both a dataset and a field")
	ErrInvalidOptions   = eris.New("style: invalid style options")
	ErrColorMismatch    = eris.New("style: color count does not match class count")
)

// Option bounds, matching the widget's input ranges.
const (
	MinPointSize = 2
	MaxPointSize = 20
	MinLineWidth = 1
	MaxLineWidth = 10
)

// Options are the operator-adjustable rendering parameters.
type Options struct {
	PointSize float64 `json:"point_size" yaml:"point_size" mapstructure:"point_size"`
	LineWidth float64 `json:"line_width" yaml:"line_width" mapstructure:"line_width"`
	Opacity   float64 `json:"opacity" yaml:"opacity" mapstructure:"opacity"`
}

// DefaultOptions returns the options used for a dataset that has never been styled.
func DefaultOptions() Options {
	return Options{PointSize: 8, LineWidth: 2, Opacity: 0.5}
}

// Validate checks every option against its allowed range.
func (o Options) Validate() error {
	if o.PointSize < MinPointSize || o.PointSize > MaxPointSize {
		return eris.Wrapf(ErrInvalidOptions, "point size %v outside [%d, %d]", o.PointSize, MinPointSize, MaxPointSize)
	}
	if o.LineWidth < MinLineWidth || o.LineWidth > MaxLineWidth {
		return eris.Wrapf(ErrInvalidOptions, "line width %v outside [%d, %d]", o.LineWidth, MinLineWidth, MaxLineWidth)
	}
	if !(o.Opacity > 0 && o.Opacity <= 1) {
		return eris.Wrapf(ErrInvalidOptions, "opacity %v outside (0, 1]", o.Opacity)
	}
	return nil
}
