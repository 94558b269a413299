package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brandpulse/internal/domain/post"
)

func TestWeightedScore(t *testing.T) {
	testCases := []struct {
		name     string
		counts   post.Counts
		expected float64
	}{
		{
			name:     "zero counts",
			counts:   post.Counts{},
			expected: 0,
		},
		{
			name:     "likes only",
			counts:   post.Counts{Likes: 100},
			expected: 100,
		},
		{
			name:     "saves weighted highest",
			counts:   post.Counts{Saves: 10},
			expected: 40,
		},
		{
			name:     "views weighted lowest",
			counts:   post.Counts{Views: 1000},
			expected: 500,
		},
		{
			name:     "all categories combined",
			counts:   post.Counts{Likes: 10, Comments: 5, Saves: 2, Shares: 1, Views: 100},
			expected: 10 + 10 + 8 + 3 + 50,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, WeightedScore(tc.counts))
		})
	}
}

func TestPrimaryDriver(t *testing.T) {
	testCases := []struct {
		name     string
		counts   post.Counts
		expected Driver
	}{
		{
			name:     "saves dominate despite lower raw count",
			counts:   post.Counts{Likes: 30, Saves: 10},
			expected: DriverSaves,
		},
		{
			name:     "views need volume to win",
			counts:   post.Counts{Likes: 10, Views: 100},
			expected: DriverViews,
		},
		{
			name:     "tie between likes and comments goes to likes",
			counts:   post.Counts{Likes: 10, Comments: 5},
			expected: DriverLikes,
		},
		{
			name:     "all zero defaults to likes",
			counts:   post.Counts{},
			expected: DriverLikes,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, PrimaryDriver(tc.counts))
		})
	}
}
