package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"brandpulse/internal/domain/engagement"
	"brandpulse/internal/domain/trend"
)

// RadarConfig contains configuration for the hourly trend radar.
type RadarConfig struct {
	LookbackHours int
	DefaultLimit  int
	MinUsageCount int
	EventsTopic   string
}

// Composite score weights. They sum to 1 so the composite stays in [0, 100].
const (
	radarWeightVelocity     = 0.40
	radarWeightOutlierCorr  = 0.20
	radarWeightEngagement   = 0.15
	radarWeightRecency      = 0.15
	radarWeightAcceleration = 0.10

	// Recency half-life works out to about 33 hours.
	radarRecencyDecayHours = 48.0
)

// RadarStore defines storage for hourly radar snapshots.
type RadarStore interface {
	// UpsertRadarSnapshot writes a snapshot keyed by (account set, item
	// type, item id, hour bucket).
	UpsertRadarSnapshot(ctx context.Context, snap trend.RadarSnapshot) error

	// RadarSnapshotsSince returns the account set's snapshots from since
	// onward, ordered by hour bucket ascending.
	RadarSnapshotsSince(ctx context.Context, accountSetID string, since time.Time) ([]trend.RadarSnapshot, error)
}

// Radar implements the trend.Radar interface: hourly usage tracking of audio
// tracks and hashtags with a forward-looking composite score.
type Radar struct {
	posts     PostReader
	snapshots RadarStore
	eventBus  *nats.Conn
	config    RadarConfig
	log       *logrus.Logger
	now       func() time.Time
}

// NewRadar creates a new trend radar.
func NewRadar(posts PostReader, snapshots RadarStore, eventBus *nats.Conn, config RadarConfig, log *logrus.Logger) *Radar {
	return &Radar{
		posts:     posts,
		snapshots: snapshots,
		eventBus:  eventBus,
		config:    config,
		log:       log,
		now:       time.Now,
	}
}

// itemKey identifies one tracked item.
type itemKey struct {
	itemType trend.ItemType
	itemID   string
}

// itemTally accumulates one hour's observations for a tracked item.
type itemTally struct {
	usage           int
	outliers        int
	totalEngagement float64
	topPostID       string
	topEngagement   float64
}

// CaptureSnapshot counts usage of every audio track and hashtag among the
// account set's non-archived posts and upserts one snapshot per item for the
// current hour. Items below the minimum usage count are not tracked.
func (r *Radar) CaptureSnapshot(ctx context.Context, accountSetID string) (int, error) {
	posts, err := r.posts.ActivePosts(ctx, accountSetID)
	if err != nil {
		return 0, fmt.Errorf("error loading posts: %w", err)
	}

	tallies := make(map[itemKey]*itemTally)
	record := func(key itemKey, w float64, postID string, isOutlier bool) {
		t := tallies[key]
		if t == nil {
			t = &itemTally{}
			tallies[key] = t
		}
		t.usage++
		if isOutlier {
			t.outliers++
		}
		t.totalEngagement += w
		if postID != "" && (t.topPostID == "" || w > t.topEngagement) {
			t.topPostID = postID
			t.topEngagement = w
		}
	}

	for _, p := range posts {
		w := engagement.WeightedScore(p.Counts())
		if p.AudioID != "" {
			record(itemKey{trend.ItemAudio, p.AudioID}, w, p.ID, p.IsOutlier)
		}
		seen := make(map[string]struct{})
		for _, tag := range p.Hashtags {
			tag = strings.ToLower(strings.TrimPrefix(tag, "#"))
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			record(itemKey{trend.ItemHashtag, tag}, w, p.ID, p.IsOutlier)
		}
	}

	hour := r.now().UTC().Truncate(time.Hour)
	tracked := 0
	for key, t := range tallies {
		if t.usage < r.config.MinUsageCount {
			continue
		}
		snap := trend.RadarSnapshot{
			AccountSetID:    accountSetID,
			ItemType:        key.itemType,
			ItemID:          key.itemID,
			HourBucket:      hour,
			UsageCount:      t.usage,
			OutlierCount:    t.outliers,
			TotalEngagement: t.totalEngagement,
			AvgEngagement:   t.totalEngagement / float64(t.usage),
			TopPostID:       t.topPostID,
		}
		if err := r.snapshots.UpsertRadarSnapshot(ctx, snap); err != nil {
			return tracked, fmt.Errorf("error saving radar snapshot for %s %q: %w", key.itemType, key.itemID, err)
		}
		tracked++
	}

	r.log.WithFields(logrus.Fields{
		"account_set": accountSetID,
		"hour":        hour.Format(time.RFC3339),
		"items":       tracked,
	}).Info("radar snapshot captured")

	if err := r.publishSnapshotEvent(accountSetID, hour, tracked); err != nil {
		r.log.WithError(err).Warn("failed to publish radar snapshot event")
	}

	return tracked, nil
}

// publishSnapshotEvent publishes a summary of the capture to the event bus.
func (r *Radar) publishSnapshotEvent(accountSetID string, hour time.Time, tracked int) error {
	if r.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":          "radar_snapshot",
		"account_set":   accountSetID,
		"hour":          hour,
		"tracked_items": tracked,
	})
	if err != nil {
		return fmt.Errorf("error marshaling snapshot event: %w", err)
	}

	topic := fmt.Sprintf("%s.%s.radar_snapshot", r.config.EventsTopic, accountSetID)
	return r.eventBus.Publish(topic, data)
}

// TopTrends scores every item with snapshots inside the lookback window and
// returns the highest-composite items ranked 1..limit.
func (r *Radar) TopTrends(ctx context.Context, accountSetID string, limit int, lookback time.Duration) ([]trend.RadarScore, error) {
	if limit <= 0 {
		limit = r.config.DefaultLimit
	}
	if lookback <= 0 {
		lookback = time.Duration(r.config.LookbackHours) * time.Hour
	}

	now := r.now()
	snaps, err := r.snapshots.RadarSnapshotsSince(ctx, accountSetID, now.Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("error loading radar snapshots: %w", err)
	}

	series := make(map[itemKey][]trend.RadarSnapshot)
	for _, s := range snaps {
		key := itemKey{s.ItemType, s.ItemID}
		series[key] = append(series[key], s)
	}

	type scored struct {
		key   itemKey
		score trend.RadarScore
	}

	// Engagement percentile needs every tracked item's latest average, so
	// collect those first.
	engagements := make([]float64, 0, len(series))
	for _, snapsForItem := range series {
		engagements = append(engagements, snapsForItem[len(snapsForItem)-1].AvgEngagement)
	}

	results := make([]scored, 0, len(series))
	for key, snapsForItem := range series {
		latest := snapsForItem[len(snapsForItem)-1]
		first := snapsForItem[0]

		velocity := usageVelocity(snapsForItem)
		acceleration := usageAcceleration(snapsForItem)

		usage := latest.UsageCount
		if usage < 1 {
			usage = 1
		}
		outlierCorrelation := float64(latest.OutlierCount) / float64(usage)

		composite := r.compositeScore(velocity, acceleration, outlierCorrelation, latest.AvgEngagement, engagements, now.Sub(first.HourBucket))

		results = append(results, scored{key, trend.RadarScore{
			ItemType:           key.itemType,
			ItemID:             key.itemID,
			Velocity:           velocity,
			Acceleration:       acceleration,
			OutlierCorrelation: outlierCorrelation,
			AvgEngagement:      latest.AvgEngagement,
			Composite:          composite,
			Phase:              classifyPhase(len(snapsForItem), velocity, acceleration),
			Signal:             classifySignal(composite, len(snapsForItem)),
			SnapshotCount:      len(snapsForItem),
			FirstSeen:          first.HourBucket,
			LastSeen:           latest.HourBucket,
			TopPostID:          latest.TopPostID,
		}})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score.Composite != results[j].score.Composite {
			return results[i].score.Composite > results[j].score.Composite
		}
		return results[i].key.itemID < results[j].key.itemID
	})

	if len(results) > limit {
		results = results[:limit]
	}

	ranked := make([]trend.RadarScore, len(results))
	for i, item := range results {
		item.score.Rank = i + 1
		ranked[i] = item.score
	}
	return ranked, nil
}

// usageVelocity computes the regression slope of usage count over real
// elapsed hours, normalized by mean usage. Fewer than 2 points or zero
// elapsed time yield 0.
func usageVelocity(snaps []trend.RadarSnapshot) float64 {
	if len(snaps) < 2 {
		return 0
	}

	start := snaps[0].HourBucket
	elapsed := snaps[len(snaps)-1].HourBucket.Sub(start)
	if elapsed == 0 {
		return 0
	}

	xs := make([]float64, len(snaps))
	ys := make([]float64, len(snaps))
	for i, s := range snaps {
		xs[i] = s.HourBucket.Sub(start).Hours()
		ys[i] = float64(s.UsageCount)
	}
	return normalizedVelocity(xs, ys)
}

// usageAcceleration splits the series into first/second halves by snapshot
// count and returns the difference of the half velocities. Positive means
// the growth rate itself is increasing. Requires at least 4 points.
func usageAcceleration(snaps []trend.RadarSnapshot) float64 {
	if len(snaps) < 4 {
		return 0
	}
	half := len(snaps) / 2
	return usageVelocity(snaps[half:]) - usageVelocity(snaps[:half])
}

// compositeScore blends five normalized sub-scores into a 0-100 ranking
// number.
func (r *Radar) compositeScore(velocity, acceleration, outlierCorrelation, avgEngagement float64, allEngagements []float64, sinceFirstSeen time.Duration) float64 {
	velocityScore := sigmoid(velocity*2) * 100
	outlierScore := math.Min(outlierCorrelation*100, 100)
	engagementScore := percentileRank(allEngagements, avgEngagement)
	recencyScore := math.Exp(-sinceFirstSeen.Hours()/radarRecencyDecayHours) * 100
	accelerationScore := sigmoid(acceleration*5) * 100

	composite := velocityScore*radarWeightVelocity +
		outlierScore*radarWeightOutlierCorr +
		engagementScore*radarWeightEngagement +
		recencyScore*radarWeightRecency +
		accelerationScore*radarWeightAcceleration

	return math.Max(0, math.Min(100, composite))
}

func classifyPhase(snapshotCount int, velocity, acceleration float64) trend.Phase {
	switch {
	case snapshotCount < 2:
		return trend.PhaseEmerging
	case velocity <= 0:
		return trend.PhaseDeclining
	case velocity > 0.1 && acceleration < -0.05:
		return trend.PhasePeaking
	default:
		return trend.PhaseRising
	}
}

func classifySignal(composite float64, snapshotCount int) trend.Signal {
	switch {
	case composite >= 70 && snapshotCount >= 3:
		return trend.SignalStrong
	case composite >= 40:
		return trend.SignalModerate
	default:
		return trend.SignalEmerging
	}
}
