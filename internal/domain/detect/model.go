package detect

import (
	"time"

	"brandpulse/internal/domain/engagement"
	"brandpulse/internal/domain/post"
)

// Baseline holds the per-account summary statistics of weighted engagement
// over the lookback window. It is recomputed from scratch on every detection
// run and never persisted.
type Baseline struct {
	AccountHandle string
	PostCount     int
	Mean          float64
	Median        float64
	StdDev        float64
	MeanLikes     float64
	MeanComments  float64
}

// OutlierResult describes one flagged post relative to its account baseline.
type OutlierResult struct {
	Post               post.Post
	WeightedEngagement float64
	Multiplier         float64
	Sigma              float64
	Score              float64
	PrimaryDriver      engagement.Driver
	ContentTags        []string
}

// RunResult is the output of one full detection run over an account set.
// Baselines maps account handle to the baseline used; accounts with fewer
// than the minimum posts in the window are absent.
type RunResult struct {
	RunID        string
	AccountSetID string
	RanAt        time.Time
	Outliers     []OutlierResult
	Baselines    map[string]Baseline
}
