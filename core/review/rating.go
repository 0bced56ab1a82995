package review

// Average is the unweighted mean of the four criterion scores.
func (r Review) Average() float64 {
	return float64(r.Kenyamanan+r.Pembelajaran+r.Fasilitas+r.Kepemimpinan) / 4
}

// AggregateAverage is the mean of the per-review averages, unrounded.
// A school without reviews has an aggregate of 0: absence of reviews is an
// expected state, not an error. Each review contributes equal weight, so the
// result does not depend on input order.
func AggregateAverage(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, rev := range reviews {
		sum += rev.Average()
	}
	return sum / float64(len(reviews))
}
