package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"yqhp/rpc-checker/pkg/types"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		ms   float64
		want types.Rating
	}{
		{0, types.RatingExcellent},
		{80, types.RatingExcellent},
		{100, types.RatingExcellent},
		{101, types.RatingGood},
		{150, types.RatingGood},
		{300, types.RatingGood},
		{301, types.RatingAverage},
		{600, types.RatingAverage},
		{601, types.RatingSlow},
		{1000, types.RatingSlow},
		{1001, types.RatingVerySlow},
		{1833.3, types.RatingVerySlow},
		{math.Inf(1), types.RatingVerySlow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.ms), "latency %v", tt.ms)
	}
}

func TestClassifyOptional(t *testing.T) {
	assert.Equal(t, types.RatingUnrated, ClassifyOptional(nil))
	assert.Equal(t, "N/A", ClassifyOptional(nil).String())

	v := 250.0
	assert.Equal(t, types.RatingGood, ClassifyOptional(&v))
}

// TestProperty_ClassifyTotalAndMonotonic 验证分类是全函数且随延迟单调不减。
func TestProperty_ClassifyTotalAndMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0, 1e7).Draw(t, "a")
		b := rapid.Float64Range(0, 1e7).Draw(t, "b")
		if a > b {
			a, b = b, a
		}

		ra, rb := Classify(a), Classify(b)
		if !ra.IsRated() || !rb.IsRated() {
			t.Fatalf("classify must return one of the five tiers: %v -> %v, %v -> %v", a, ra, b, rb)
		}
		if ra > rb {
			t.Fatalf("classify must be monotonic: %v -> %v but %v -> %v", a, ra, b, rb)
		}
	})
}
