package trend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandpulse/internal/domain/post"
	"brandpulse/internal/domain/trend"
)

// fakeRadarStore stores hourly radar snapshots in memory.
type fakeRadarStore struct {
	snaps []trend.RadarSnapshot
}

func (f *fakeRadarStore) UpsertRadarSnapshot(_ context.Context, snap trend.RadarSnapshot) error {
	for i, existing := range f.snaps {
		if existing.AccountSetID == snap.AccountSetID &&
			existing.ItemType == snap.ItemType &&
			existing.ItemID == snap.ItemID &&
			existing.HourBucket.Equal(snap.HourBucket) {
			f.snaps[i] = snap
			return nil
		}
	}
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeRadarStore) RadarSnapshotsSince(_ context.Context, accountSetID string, since time.Time) ([]trend.RadarSnapshot, error) {
	var out []trend.RadarSnapshot
	for _, s := range f.snaps {
		if s.AccountSetID == accountSetID && !s.HourBucket.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func testRadarConfig() RadarConfig {
	return RadarConfig{
		LookbackHours: 72,
		DefaultLimit:  10,
		MinUsageCount: 2,
	}
}

func hashtagPost(id string, likes int64, tags ...string) post.Post {
	return post.Post{
		ID:           id,
		AccountSetID: "fitness",
		Likes:        &likes,
		Hashtags:     tags,
	}
}

func TestCaptureRadarSnapshotTracksFrequentItems(t *testing.T) {
	outlier := hashtagPost("p2", 20, "GlowUp")
	outlier.IsOutlier = true

	posts := &fakePostReader{active: []post.Post{
		hashtagPost("p1", 10, "#GlowUp", "glowup", "fit"),
		outlier,
	}}
	store := &fakeRadarStore{}
	radar := NewRadar(posts, store, nil, testRadarConfig(), testLogger())

	tracked, err := radar.CaptureSnapshot(context.Background(), "fitness")
	require.NoError(t, err)

	// "glowup" appears in 2 posts (deduplicated within p1); "fit" and any
	// audio fall below the minimum usage count.
	assert.Equal(t, 1, tracked)
	require.Len(t, store.snaps, 1)

	snap := store.snaps[0]
	assert.Equal(t, trend.ItemHashtag, snap.ItemType)
	assert.Equal(t, "glowup", snap.ItemID)
	assert.Equal(t, 2, snap.UsageCount)
	assert.Equal(t, 1, snap.OutlierCount)
	assert.Equal(t, 30.0, snap.TotalEngagement)
	assert.Equal(t, 15.0, snap.AvgEngagement)
	assert.Equal(t, "p2", snap.TopPostID)
}

func TestCaptureRadarSnapshotTracksAudio(t *testing.T) {
	p1 := hashtagPost("p1", 10)
	p1.AudioID = "track-9"
	p2 := hashtagPost("p2", 5)
	p2.AudioID = "track-9"

	posts := &fakePostReader{active: []post.Post{p1, p2}}
	store := &fakeRadarStore{}
	radar := NewRadar(posts, store, nil, testRadarConfig(), testLogger())

	tracked, err := radar.CaptureSnapshot(context.Background(), "fitness")
	require.NoError(t, err)

	assert.Equal(t, 1, tracked)
	require.Len(t, store.snaps, 1)
	assert.Equal(t, trend.ItemAudio, store.snaps[0].ItemType)
	assert.Equal(t, "track-9", store.snaps[0].ItemID)
}

func radarSeries(itemID string, start time.Time, usages ...int) []trend.RadarSnapshot {
	snaps := make([]trend.RadarSnapshot, 0, len(usages))
	for i, usage := range usages {
		snaps = append(snaps, trend.RadarSnapshot{
			AccountSetID:  "fitness",
			ItemType:      trend.ItemHashtag,
			ItemID:        itemID,
			HourBucket:    start.Add(time.Duration(i) * time.Hour),
			UsageCount:    usage,
			AvgEngagement: 10,
		})
	}
	return snaps
}

func TestTopTrendsConstantSeries(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store := &fakeRadarStore{snaps: radarSeries("glowup", start, 2, 2, 2, 2)}

	radar := NewRadar(&fakePostReader{}, store, nil, testRadarConfig(), testLogger())
	radar.now = func() time.Time { return start.Add(4 * time.Hour) }

	scores, err := radar.TopTrends(context.Background(), "fitness", 0, 0)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	item := scores[0]
	assert.Equal(t, 1, item.Rank)
	assert.Equal(t, 0.0, item.Velocity)
	assert.Equal(t, 0.0, item.Acceleration)
	assert.Equal(t, trend.PhaseDeclining, item.Phase)
	assert.NotEqual(t, trend.SignalStrong, item.Signal)
	assert.GreaterOrEqual(t, item.Composite, 0.0)
	assert.LessOrEqual(t, item.Composite, 100.0)
	assert.Equal(t, 4, item.SnapshotCount)
	assert.Equal(t, start, item.FirstSeen)
	assert.Equal(t, start.Add(3*time.Hour), item.LastSeen)
}

func TestTopTrendsRanksGrowingItemFirst(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store := &fakeRadarStore{}
	store.snaps = append(store.snaps, radarSeries("surging", start, 1, 2, 3, 4)...)
	store.snaps = append(store.snaps, radarSeries("flat", start, 3, 3, 3, 3)...)

	radar := NewRadar(&fakePostReader{}, store, nil, testRadarConfig(), testLogger())
	radar.now = func() time.Time { return start.Add(4 * time.Hour) }

	scores, err := radar.TopTrends(context.Background(), "fitness", 0, 0)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, "surging", scores[0].ItemID)
	assert.Equal(t, "flat", scores[1].ItemID)
	assert.Greater(t, scores[0].Composite, scores[1].Composite)
	assert.InDelta(t, 0.4, scores[0].Velocity, 0.0001)
	assert.Equal(t, trend.PhaseDeclining, scores[1].Phase)
	assert.Equal(t, 1, scores[0].Rank)
	assert.Equal(t, 2, scores[1].Rank)
}

func TestTopTrendsLimit(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store := &fakeRadarStore{}
	store.snaps = append(store.snaps, radarSeries("a", start, 1, 2, 3, 4)...)
	store.snaps = append(store.snaps, radarSeries("b", start, 3, 3, 3, 3)...)
	store.snaps = append(store.snaps, radarSeries("c", start, 2, 2, 2, 2)...)

	radar := NewRadar(&fakePostReader{}, store, nil, testRadarConfig(), testLogger())
	radar.now = func() time.Time { return start.Add(4 * time.Hour) }

	scores, err := radar.TopTrends(context.Background(), "fitness", 1, 0)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "a", scores[0].ItemID)
}

func TestTopTrendsSingleSnapshotIsEmerging(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store := &fakeRadarStore{snaps: radarSeries("fresh", start, 5)}

	radar := NewRadar(&fakePostReader{}, store, nil, testRadarConfig(), testLogger())
	radar.now = func() time.Time { return start.Add(time.Hour) }

	scores, err := radar.TopTrends(context.Background(), "fitness", 0, 0)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	assert.Equal(t, trend.PhaseEmerging, scores[0].Phase)
	assert.Equal(t, 0.0, scores[0].Velocity)
	assert.Equal(t, 1, scores[0].SnapshotCount)
}

func TestCompositeScoreBounded(t *testing.T) {
	radar := NewRadar(&fakePostReader{}, &fakeRadarStore{}, nil, testRadarConfig(), testLogger())
	engagements := []float64{10, 20, 30}

	extremes := []struct {
		velocity, acceleration, correlation, engagement float64
		age                                             time.Duration
	}{
		{1e6, 1e6, 5, 30, 0},
		{-1e6, -1e6, 0, 10, 1000 * time.Hour},
		{0, 0, 0.5, 20, 24 * time.Hour},
	}

	for _, e := range extremes {
		composite := radar.compositeScore(e.velocity, e.acceleration, e.correlation, e.engagement, engagements, e.age)
		assert.GreaterOrEqual(t, composite, 0.0)
		assert.LessOrEqual(t, composite, 100.0)
	}
}
