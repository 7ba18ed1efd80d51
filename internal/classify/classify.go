// Package classify computes class breaks for a numeric sample and assigns
// values to classes.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/rotisserie/eris"
)

// Sentinel errors returned by Classify.
var (
	ErrEmptySample       = eris.New("classify: sample has no numeric values")
	ErrInvalidClassCount = eris.New("classify: class count must be at least 2")
	ErrUnknownMethod     = eris.New("classify: unknown classification method")
)

// Method selects how breaks are placed.
type Method string

// Classification methods.
const (
	EqualInterval Method = "equal_interval"
	Quantile      Method = "quantile"
	NaturalBreaks Method = "natural_breaks"
)

// Methods lists the supported methods in display order.
var Methods = []Method{EqualInterval, Quantile, NaturalBreaks}

var descriptions = map[Method]string{
	EqualInterval: "Divides the range of values into equal sized intervals. Best for evenly distributed data.",
	Quantile:      "Creates classes with equal number of features in each. Good for unevenly distributed data.",
	NaturalBreaks: "Groups similar values and maximizes differences between classes. Best for clustered data.",
}

// Description returns the operator-facing explanation of m.
func (m Method) Description() string {
	return descriptions[m]
}

// Label returns a title-cased display name, e.g. "Equal Interval".
func (m Method) Label() string {
	words := strings.Split(string(m), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ParseMethod accepts snake_case, camelCase or spaced names.
func ParseMethod(s string) (Method, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	switch norm {
	case "equalinterval":
		return EqualInterval, nil
	case "quantile":
		return Quantile, nil
	case "naturalbreaks":
		return NaturalBreaks, nil
	}
	return "", eris.Wrapf(ErrUnknownMethod, "%q", s)
}

// Breaks holds count+1 ascending class boundaries.
type Breaks []float64

// Classes returns the number of classes described by the breaks.
func (b Breaks) Classes() int {
	if len(b) < 2 {
		return 0
	}
	return len(b) - 1
}

// Classify computes count+1 breaks for sample. The first break is the sample
// minimum and the last is the sample maximum. NaN and infinite values are
// ignored.
//
// NaturalBreaks is a fixed linear approximation that places interior breaks at
// odd multiples of (max-min)/(2*count); it does not minimise in-class variance.
func Classify(sample []float64, count int, method Method) (Breaks, error) {
	sample = finite(sample)
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}
	if count < 2 {
		return nil, eris.Wrapf(ErrInvalidClassCount, "got %d", count)
	}

	lo, hi := stats.Bounds(sample)

	switch method {
	case EqualInterval:
		return equalInterval(lo, hi, count), nil
	case Quantile:
		return quantile(sample, lo, hi, count), nil
	case NaturalBreaks:
		return naturalBreaks(lo, hi, count), nil
	default:
		return nil, eris.Wrapf(ErrUnknownMethod, "%q", method)
	}
}

func finite(sample []float64) []float64 {
	for i, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out := append([]float64(nil), sample[:i]...)
			for _, v := range sample[i+1:] {
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					out = append(out, v)
				}
			}
			return out
		}
	}
	return sample
}

func equalInterval(lo, hi float64, count int) Breaks {
	interval := (hi - lo) / float64(count)
	breaks := make(Breaks, count+1)
	for i := 0; i < count; i++ {
		breaks[i] = lo + interval*float64(i)
	}
	// Pinned so the last break never drifts from max through rounding.
	breaks[count] = hi
	return breaks
}

func quantile(sample []float64, lo, hi float64, count int) Breaks {
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	n := len(sorted)

	breaks := make(Breaks, 0, count+1)
	breaks = append(breaks, lo)
	for i := 1; i < count; i++ {
		idx := int(math.Round(float64(i) / float64(count) * float64(n-1)))
		breaks = append(breaks, sorted[idx])
	}
	return append(breaks, hi)
}

func naturalBreaks(lo, hi float64, count int) Breaks {
	step := (hi - lo) / float64(count*2)
	breaks := make(Breaks, 0, count+1)
	breaks = append(breaks, lo)
	for i := 1; i < count; i++ {
		breaks = append(breaks, lo+step*float64(i*2+1))
	}
	return append(breaks, hi)
}
