package classify

// BucketOf returns the index of the first interval [breaks[i], breaks[i+1]]
// containing value. A value on an interior boundary belongs to the lower class.
// Values outside every interval, including NaN, fall back to class 0.
func BucketOf(value float64, breaks Breaks) int {
	for i := 0; i < len(breaks)-1; i++ {
		if value >= breaks[i] && value <= breaks[i+1] {
			return i
		}
	}
	return 0
}
