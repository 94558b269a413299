package trend

import (
	"context"
	"time"
)

// Analyzer defines the daily trend analysis interface.
type Analyzer interface {
	// CaptureSnapshot tallies today's flagged competitor outliers into a
	// daily snapshot, overwriting any snapshot already captured today.
	CaptureSnapshot(ctx context.Context, accountSetID string) (*Snapshot, error)

	// Trends loads the snapshots of the last lookbackWeeks weeks and
	// classifies each categorical value as rising, declining or stable.
	Trends(ctx context.Context, accountSetID string, lookbackWeeks int) (*Report, error)
}

// Radar defines the finer-grained hourly item tracking interface.
type Radar interface {
	// CaptureSnapshot records one hourly snapshot per tracked item and
	// returns the number of items tracked this hour.
	CaptureSnapshot(ctx context.Context, accountSetID string) (int, error)

	// TopTrends scores every item observed within the lookback window and
	// returns the top entries ranked by composite score.
	TopTrends(ctx context.Context, accountSetID string, limit int, lookback time.Duration) ([]RadarScore, error)
}

// GapAnalyzer compares own content against the competitor outlier set.
type GapAnalyzer interface {
	// Analyze returns the cached result when it is fresh; force bypasses
	// the cache.
	Analyze(ctx context.Context, accountSetID string, force bool) (*GapResult, error)
}
