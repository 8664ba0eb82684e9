package types

// Rating is a qualitative latency tier.
//
// The five tiers are totally ordered from RatingExcellent to RatingVerySlow.
// RatingUnrated is reserved for aggregates without any successful attempt
// and is never produced from a latency value.
type Rating int

const (
	RatingUnrated Rating = iota
	RatingExcellent
	RatingGood
	RatingAverage
	RatingSlow
	RatingVerySlow
)

var ratingNames = map[Rating]string{
	RatingUnrated:   "N/A",
	RatingExcellent: "Excellent",
	RatingGood:      "Good",
	RatingAverage:   "Average",
	RatingSlow:      "Slow",
	RatingVerySlow:  "Very Slow",
}

// String 返回评级名称。
func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return ratingNames[RatingUnrated]
}

// IsRated 判断是否为五个有效等级之一。
func (r Rating) IsRated() bool {
	return r >= RatingExcellent && r <= RatingVerySlow
}

// MarshalText 以名称形式序列化评级。
func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
