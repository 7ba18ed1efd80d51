package classify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketOf(t *testing.T) {
	breaks := Breaks{0, 10, 20, 30}

	tests := []struct {
		name     string
		value    float64
		expected int
	}{
		{name: "minimum", value: 0, expected: 0},
		{name: "inside first", value: 5, expected: 0},
		{name: "interior boundary goes to lower class", value: 10, expected: 0},
		{name: "just above boundary", value: 10.0001, expected: 1},
		{name: "second boundary", value: 20, expected: 1},
		{name: "inside last", value: 25, expected: 2},
		{name: "maximum", value: 30, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BucketOf(tt.value, breaks))
		})
	}
}

func TestBucketOf_LowerBucketWins(t *testing.T) {
	assert.Equal(t, 0, BucketOf(10, Breaks{0, 10, 20}))
}

// Out-of-range values land in class 0 rather than the nearest class. This
// mirrors the widget's historical behaviour: a value above the maximum is
// drawn with the lowest class color.
func TestBucketOf_OutOfRangeFallsBackToZero(t *testing.T) {
	breaks := Breaks{0, 10, 20}

	assert.Equal(t, 0, BucketOf(-5, breaks))
	assert.Equal(t, 0, BucketOf(25, breaks), "above max is not clamped to the top class")
	assert.Equal(t, 0, BucketOf(math.NaN(), breaks))
	assert.Equal(t, 0, BucketOf(math.Inf(1), breaks))
}

func TestBucketOf_DuplicateBreaks(t *testing.T) {
	breaks := Breaks{5, 5, 5, 9}
	assert.Equal(t, 0, BucketOf(5, breaks))
	assert.Equal(t, 2, BucketOf(7, breaks))
}

func TestBucketOf_DegenerateBreaks(t *testing.T) {
	assert.Equal(t, 0, BucketOf(1, nil))
	assert.Equal(t, 0, BucketOf(1, Breaks{1}))
}

// The index always addresses a valid class for any finite value.
func TestBucketOf_InRange(t *testing.T) {
	breaks, err := Classify([]float64{3, 8, 13, 21, 34, 55}, 5, Quantile)
	if err != nil {
		t.Fatal(err)
	}
	for v := -100.0; v <= 100; v += 0.5 {
		idx := BucketOf(v, breaks)
		assert.GreaterOrEqual(t, idx, 0)
		assert.LessOrEqual(t, idx, len(breaks)-2)
	}
}
