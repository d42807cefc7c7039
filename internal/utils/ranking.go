package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity        float64 // time gravity
	WeightComment  float64
	WeightUpvote   float64
	WeightDownvote float64
	ScaleFactor    float64
}

var DefaultConfig = RankConfig{
	Gravity:        1.5,
	WeightComment:  2.0,
	WeightUpvote:   1.0,
	WeightDownvote: 1.5,
	ScaleFactor:    100.0, // keeps scores roughly in the 0-100 band
}

// TrendingScore ranks a post by log-smoothed weighted engagement decayed
// by age. Used for the "trending" sort of post listings.
func TrendingScore(t time.Time, up, down, comments int) float64 {
	hours := time.Since(t).Hours()

	weightedSum := (float64(up) * DefaultConfig.WeightUpvote) +
		(float64(comments) * DefaultConfig.WeightComment) -
		(float64(down) * DefaultConfig.WeightDownvote)

	if weightedSum < 0 {
		weightedSum = 0 // log below needs a non-negative input
	}

	// log10(sum + 1) keeps a zero-engagement post at exactly 0
	logScore := math.Log10(weightedSum + 1)

	numerator := logScore * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return numerator / decay
}
