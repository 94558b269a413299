package engagement

import (
	"brandpulse/internal/domain/post"
)

// Driver identifies the interaction category contributing the most weighted
// engagement to a post.
type Driver string

const (
	DriverLikes    Driver = "likes"
	DriverComments Driver = "comments"
	DriverSaves    Driver = "saves"
	DriverShares   Driver = "shares"
	DriverViews    Driver = "views"
)

// Fixed importance weights. Saves and shares signal higher intent than
// passive likes; views are cheap and down-weighted.
const (
	WeightLikes    = 1.0
	WeightComments = 2.0
	WeightSaves    = 4.0
	WeightShares   = 3.0
	WeightViews    = 0.5
)

// WeightedScore computes the single weighted engagement score for a set of
// raw counts. Absent counts are zero, so it never fails on partial data.
func WeightedScore(c post.Counts) float64 {
	return float64(c.Likes)*WeightLikes +
		float64(c.Comments)*WeightComments +
		float64(c.Saves)*WeightSaves +
		float64(c.Shares)*WeightShares +
		float64(c.Views)*WeightViews
}

// PrimaryDriver returns the category with the largest weighted contribution.
// Ties break in the fixed order likes, comments, saves, shares, views.
func PrimaryDriver(c post.Counts) Driver {
	contributions := []struct {
		driver Driver
		value  float64
	}{
		{DriverLikes, float64(c.Likes) * WeightLikes},
		{DriverComments, float64(c.Comments) * WeightComments},
		{DriverSaves, float64(c.Saves) * WeightSaves},
		{DriverShares, float64(c.Shares) * WeightShares},
		{DriverViews, float64(c.Views) * WeightViews},
	}

	best := contributions[0]
	for _, c := range contributions[1:] {
		if c.value > best.value {
			best = c
		}
	}
	return best.driver
}
