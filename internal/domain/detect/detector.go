package detect

import (
	"context"

	"brandpulse/internal/domain/post"
)

// RunOptions overrides the configured thresholds for a single run. Nil
// fields fall back to the service configuration, so callers can tune
// thresholds per account set without separate config plumbing.
type RunOptions struct {
	MultiplierThreshold *float64
	SigmaThreshold      *float64
	LookbackDays        *int
}

// Engine defines the outlier detection interface consumed by the HTTP layer
// and the scheduler.
type Engine interface {
	// Run performs one full, idempotent detection pass over the account set:
	// it recomputes every account baseline, resets all outlier flags and
	// re-applies them to the newly detected set.
	Run(ctx context.Context, accountSetID string, opts RunOptions) (*RunResult, error)

	// Outliers returns the currently flagged posts for the account set,
	// sorted by outlier score descending.
	Outliers(ctx context.Context, accountSetID string) ([]post.Post, error)
}
