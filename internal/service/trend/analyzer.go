package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"brandpulse/internal/domain/post"
	"brandpulse/internal/domain/trend"
)

// Categorical dimension names shared by the analyzer and the gap analyzer.
const (
	DimensionHookType         = "hook_type"
	DimensionContentPattern   = "content_pattern"
	DimensionFormat           = "format"
	DimensionEmotionalTrigger = "emotional_trigger"
)

// AnalyzerConfig contains configuration for the daily trend analyzer.
type AnalyzerConfig struct {
	LookbackWeeks     int
	VelocityThreshold float64
	TopN              int
	EventsTopic       string
}

// PostReader defines the post queries the trend services need.
type PostReader interface {
	// FlaggedOutliers returns currently flagged posts for the account set,
	// sorted by outlier score descending.
	FlaggedOutliers(ctx context.Context, accountSetID string) ([]post.Post, error)

	// OwnPosts returns the non-archived own-channel posts of the account set.
	OwnPosts(ctx context.Context, accountSetID string) ([]post.Post, error)

	// ActivePosts returns every non-archived post of the account set.
	ActivePosts(ctx context.Context, accountSetID string) ([]post.Post, error)
}

// SnapshotStore defines storage for daily trend snapshots.
type SnapshotStore interface {
	// UpsertSnapshot writes a snapshot keyed by (account set, day),
	// overwriting any snapshot already stored for that day.
	UpsertSnapshot(ctx context.Context, snap trend.Snapshot) error

	// SnapshotsSince returns snapshots for the account set from since
	// onward, ordered by day ascending.
	SnapshotsSince(ctx context.Context, accountSetID string, since time.Time) ([]trend.Snapshot, error)
}

// Analyzer implements the trend.Analyzer interface over daily snapshots.
type Analyzer struct {
	posts     PostReader
	snapshots SnapshotStore
	eventBus  *nats.Conn
	config    AnalyzerConfig
	log       *logrus.Logger
	now       func() time.Time
}

// NewAnalyzer creates a new daily trend analyzer.
func NewAnalyzer(posts PostReader, snapshots SnapshotStore, eventBus *nats.Conn, config AnalyzerConfig, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		posts:     posts,
		snapshots: snapshots,
		eventBus:  eventBus,
		config:    config,
		log:       log,
		now:       time.Now,
	}
}

// CaptureSnapshot tallies the currently flagged competitor outliers that
// carry categorical annotations into today's snapshot. Upserted by day, so a
// second capture the same day overwrites rather than appends.
func (a *Analyzer) CaptureSnapshot(ctx context.Context, accountSetID string) (*trend.Snapshot, error) {
	outliers, err := a.posts.FlaggedOutliers(ctx, accountSetID)
	if err != nil {
		return nil, fmt.Errorf("error loading flagged outliers: %w", err)
	}

	snap := trend.Snapshot{
		AccountSetID: accountSetID,
		Day:          a.now().UTC().Truncate(24 * time.Hour),
		HookTypes:    make(map[string]int),
		Patterns:     make(map[string]int),
		Formats:      make(map[string]int),
		Triggers:     make(map[string]int),
	}

	var scoreSum float64
	for _, p := range outliers {
		if p.IsOwn || !p.Annotated() {
			continue
		}

		// Blank dimensions are simply absent from the classifier output and
		// contribute nothing.
		if v := p.Annotations.HookType; v != "" {
			snap.HookTypes[v]++
		}
		if v := p.Annotations.ContentPattern; v != "" {
			snap.Patterns[v]++
		}
		if v := p.MediaType; v != "" {
			snap.Formats[v]++
		}
		if v := p.Annotations.EmotionalTrigger; v != "" {
			snap.Triggers[v]++
		}

		snap.OutlierCount++
		scoreSum += p.OutlierScore
	}

	if snap.OutlierCount > 0 {
		snap.AvgOutlierScore = scoreSum / float64(snap.OutlierCount)
	}

	if err := a.snapshots.UpsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("error saving trend snapshot: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"account_set": accountSetID,
		"day":         snap.Day.Format("2006-01-02"),
		"outliers":    snap.OutlierCount,
	}).Info("trend snapshot captured")

	if err := a.publishSnapshotEvent(snap); err != nil {
		a.log.WithError(err).Warn("failed to publish trend snapshot event")
	}

	return &snap, nil
}

// publishSnapshotEvent publishes a summary of the capture to the event bus.
func (a *Analyzer) publishSnapshotEvent(snap trend.Snapshot) error {
	if a.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":        "trend_snapshot",
		"account_set": snap.AccountSetID,
		"day":         snap.Day,
		"outliers":    snap.OutlierCount,
		"avg_score":   snap.AvgOutlierScore,
	})
	if err != nil {
		return fmt.Errorf("error marshaling snapshot event: %w", err)
	}

	topic := fmt.Sprintf("%s.%s.trend_snapshot", a.config.EventsTopic, snap.AccountSetID)
	return a.eventBus.Publish(topic, data)
}

// Trends computes velocity per categorical value over the snapshots of the
// last lookbackWeeks weeks. Fewer than two snapshots yield a HasData=false
// report, never an error.
func (a *Analyzer) Trends(ctx context.Context, accountSetID string, lookbackWeeks int) (*trend.Report, error) {
	if lookbackWeeks <= 0 {
		lookbackWeeks = a.config.LookbackWeeks
	}

	since := a.now().AddDate(0, 0, -7*lookbackWeeks)
	snaps, err := a.snapshots.SnapshotsSince(ctx, accountSetID, since)
	if err != nil {
		return nil, fmt.Errorf("error loading trend snapshots: %w", err)
	}

	report := &trend.Report{
		AccountSetID:  accountSetID,
		SnapshotCount: len(snaps),
	}
	if len(snaps) < 2 {
		return report, nil
	}
	report.HasData = true

	var movements []trend.Movement
	movements = append(movements, a.dimensionMovements(DimensionHookType, snaps, func(s trend.Snapshot) map[string]int { return s.HookTypes })...)
	movements = append(movements, a.dimensionMovements(DimensionContentPattern, snaps, func(s trend.Snapshot) map[string]int { return s.Patterns })...)
	movements = append(movements, a.dimensionMovements(DimensionFormat, snaps, func(s trend.Snapshot) map[string]int { return s.Formats })...)
	movements = append(movements, a.dimensionMovements(DimensionEmotionalTrigger, snaps, func(s trend.Snapshot) map[string]int { return s.Triggers })...)

	var rising, declining, stable []trend.Movement
	for _, m := range movements {
		switch m.Direction {
		case trend.DirectionRising:
			rising = append(rising, m)
		case trend.DirectionDeclining:
			declining = append(declining, m)
		default:
			stable = append(stable, m)
		}
	}

	sort.SliceStable(rising, func(i, j int) bool { return rising[i].Velocity > rising[j].Velocity })
	sort.SliceStable(declining, func(i, j int) bool { return declining[i].Velocity < declining[j].Velocity })
	sort.SliceStable(stable, func(i, j int) bool {
		if stable[i].MeanCount != stable[j].MeanCount {
			return stable[i].MeanCount > stable[j].MeanCount
		}
		return stable[i].Value < stable[j].Value
	})

	report.Rising = capMovements(rising, a.config.TopN)
	report.Declining = capMovements(declining, a.config.TopN)
	report.Stable = capMovements(stable, a.config.TopN)
	report.Narrative = buildNarrative(report.Rising, report.Declining)

	return report, nil
}

// dimensionMovements builds the per-value count series across all snapshots
// (missing entries count as 0) and classifies each value's velocity.
func (a *Analyzer) dimensionMovements(dimension string, snaps []trend.Snapshot, table func(trend.Snapshot) map[string]int) []trend.Movement {
	values := make(map[string]struct{})
	for _, s := range snaps {
		for v := range table(s) {
			values[v] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(values))
	for v := range values {
		ordered = append(ordered, v)
	}
	sort.Strings(ordered)

	xs := make([]float64, len(snaps))
	for i := range snaps {
		xs[i] = float64(i)
	}

	var movements []trend.Movement
	for _, value := range ordered {
		ys := make([]float64, len(snaps))
		for i, s := range snaps {
			ys[i] = float64(table(s)[value])
		}

		velocity := normalizedVelocity(xs, ys)

		direction := trend.DirectionStable
		switch {
		case velocity > a.config.VelocityThreshold:
			direction = trend.DirectionRising
		case velocity < -a.config.VelocityThreshold:
			direction = trend.DirectionDeclining
		}

		movements = append(movements, trend.Movement{
			Dimension:   dimension,
			Value:       value,
			Velocity:    velocity,
			Direction:   direction,
			LatestCount: int(ys[len(ys)-1]),
			MeanCount:   mean(ys),
		})
	}
	return movements
}

func capMovements(movements []trend.Movement, n int) []trend.Movement {
	if n > 0 && len(movements) > n {
		return movements[:n]
	}
	return movements
}

// buildNarrative summarizes the strongest risers and decliners in plain
// language for the reporting layer.
func buildNarrative(rising, declining []trend.Movement) string {
	var parts []string

	if len(rising) > 0 {
		top := rising
		if len(top) > 3 {
			top = top[:3]
		}
		descriptions := make([]string, 0, len(top))
		for _, m := range top {
			descriptions = append(descriptions, fmt.Sprintf("%s %q (%+.0f%% per snapshot)", strings.ReplaceAll(m.Dimension, "_", " "), m.Value, m.Velocity*100))
		}
		parts = append(parts, "Gaining momentum: "+strings.Join(descriptions, ", ")+".")
	}

	if len(declining) > 0 {
		top := declining
		if len(top) > 2 {
			top = top[:2]
		}
		descriptions := make([]string, 0, len(top))
		for _, m := range top {
			descriptions = append(descriptions, fmt.Sprintf("%s %q (%+.0f%% per snapshot)", strings.ReplaceAll(m.Dimension, "_", " "), m.Value, m.Velocity*100))
		}
		parts = append(parts, "Losing steam: "+strings.Join(descriptions, ", ")+".")
	}

	if len(parts) == 0 {
		return "No clear movement across tracked content dimensions in this window."
	}
	return strings.Join(parts, " ")
}
