package review

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		rev  Review
		want float64
	}{
		{name: "all max", rev: Review{Kenyamanan: 5, Pembelajaran: 5, Fasilitas: 5, Kepemimpinan: 5}, want: 5},
		{name: "all min", rev: Review{Kenyamanan: 1, Pembelajaran: 1, Fasilitas: 1, Kepemimpinan: 1}, want: 1},
		{name: "mixed", rev: Review{Kenyamanan: 4, Pembelajaran: 3, Fasilitas: 5, Kepemimpinan: 2}, want: 3.5},
		{name: "quarter", rev: Review{Kenyamanan: 4, Pembelajaran: 4, Fasilitas: 4, Kepemimpinan: 5}, want: 4.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rev.Average())
		})
	}
}

func TestAggregateAverage(t *testing.T) {
	t.Run("no reviews", func(t *testing.T) {
		assert.Equal(t, float64(0), AggregateAverage(nil))
		assert.Equal(t, float64(0), AggregateAverage([]Review{}))
	})

	t.Run("opposite extremes cancel out", func(t *testing.T) {
		revs := []Review{
			{Kenyamanan: 5, Pembelajaran: 5, Fasilitas: 5, Kepemimpinan: 5},
			{Kenyamanan: 1, Pembelajaran: 1, Fasilitas: 1, Kepemimpinan: 1},
		}
		assert.Equal(t, 3.0, AggregateAverage(revs))
	})

	t.Run("single review", func(t *testing.T) {
		revs := []Review{{Kenyamanan: 4, Pembelajaran: 3, Fasilitas: 5, Kepemimpinan: 2}}
		assert.Equal(t, 3.5, AggregateAverage(revs))
	})

	t.Run("order invariant", func(t *testing.T) {
		revs := []Review{
			{Kenyamanan: 5, Pembelajaran: 4, Fasilitas: 3, Kepemimpinan: 2},
			{Kenyamanan: 1, Pembelajaran: 2, Fasilitas: 3, Kepemimpinan: 4},
			{Kenyamanan: 3, Pembelajaran: 3, Fasilitas: 3, Kepemimpinan: 3},
			{Kenyamanan: 5, Pembelajaran: 5, Fasilitas: 1, Kepemimpinan: 1},
		}
		want := AggregateAverage(revs)

		rnd := rand.New(rand.NewSource(42))
		for i := 0; i < 10; i++ {
			rnd.Shuffle(len(revs), func(a, b int) { revs[a], revs[b] = revs[b], revs[a] })
			assert.Equal(t, want, AggregateAverage(revs))
		}
	})
}
