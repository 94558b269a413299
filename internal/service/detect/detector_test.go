package detect

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandpulse/internal/domain/detect"
	"brandpulse/internal/domain/engagement"
	"brandpulse/internal/domain/post"
)

// fakePostStore is an in-memory PostStore for exercising the detector
// without a database.
type fakePostStore struct {
	posts  []post.Post
	flags  map[string]OutlierFlag
	resets int
}

func newFakePostStore(posts ...post.Post) *fakePostStore {
	return &fakePostStore{
		posts: posts,
		flags: make(map[string]OutlierFlag),
	}
}

func (s *fakePostStore) CompetitorPosts(_ context.Context, accountSetID string, since time.Time) ([]post.Post, error) {
	var out []post.Post
	for _, p := range s.posts {
		if p.AccountSetID == accountSetID && !p.IsOwn && !p.Archived && !p.CollectedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePostStore) FlaggedOutliers(_ context.Context, accountSetID string) ([]post.Post, error) {
	var out []post.Post
	for _, p := range s.posts {
		flag, ok := s.flags[p.ID]
		if !ok || p.AccountSetID != accountSetID {
			continue
		}
		p.IsOutlier = true
		p.OutlierScore = flag.Score
		p.ContentTags = flag.Tags
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OutlierScore > out[j].OutlierScore })
	return out, nil
}

func (s *fakePostStore) ResetOutlierFlags(_ context.Context, _ string) error {
	s.flags = make(map[string]OutlierFlag)
	s.resets++
	return nil
}

func (s *fakePostStore) ApplyOutlierFlags(_ context.Context, flags []OutlierFlag) error {
	for _, f := range flags {
		s.flags[f.PostID] = f
	}
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() Config {
	return Config{
		MultiplierThreshold: 2.0,
		SigmaThreshold:      1.5,
		LookbackDays:        30,
		MinBaselinePosts:    3,
	}
}

func competitorPost(id, handle string, likes int64) post.Post {
	return post.Post{
		ID:            id,
		AccountSetID:  "fitness",
		AccountHandle: handle,
		Likes:         &likes,
		CollectedAt:   time.Now().Add(-time.Hour),
	}
}

func TestRunFlagsHighEngagementPost(t *testing.T) {
	store := newFakePostStore(
		competitorPost("nike-1", "nike", 100),
		competitorPost("nike-2", "nike", 110),
		competitorPost("nike-3", "nike", 95),
		competitorPost("nike-4", "nike", 105),
		competitorPost("nike-5", "nike", 90),
		competitorPost("nike-6", "nike", 250),
		competitorPost("adidas-1", "adidas", 500),
		competitorPost("adidas-2", "adidas", 600),
	)
	service := NewService(store, nil, testConfig(), testLogger())

	result, err := service.Run(context.Background(), "fitness", detect.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "fitness", result.AccountSetID)
	assert.NotEmpty(t, result.RunID)

	// adidas has only 2 posts, so it contributes no baseline and no outliers.
	require.Len(t, result.Baselines, 1)
	baseline, ok := result.Baselines["nike"]
	require.True(t, ok)
	assert.Equal(t, 6, baseline.PostCount)
	assert.Equal(t, 125.0, baseline.Mean)

	require.Len(t, result.Outliers, 1)
	outlier := result.Outliers[0]
	assert.Equal(t, "nike-6", outlier.Post.ID)
	assert.Equal(t, 250.0, outlier.WeightedEngagement)
	assert.InDelta(t, 2.0, outlier.Multiplier, 0.0001)
	assert.InDelta(t, 2.0278, outlier.Sigma, 0.0001)
	assert.InDelta(t, 2.0111, outlier.Score, 0.0001)
	assert.Equal(t, engagement.DriverLikes, outlier.PrimaryDriver)

	// The flag was persisted.
	flagged, err := service.Outliers(context.Background(), "fitness")
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "nike-6", flagged[0].ID)
	assert.True(t, flagged[0].IsOutlier)
	assert.InDelta(t, outlier.Score, flagged[0].OutlierScore, 0.0001)
}

func TestRunIsIdempotent(t *testing.T) {
	store := newFakePostStore(
		competitorPost("nike-1", "nike", 100),
		competitorPost("nike-2", "nike", 110),
		competitorPost("nike-3", "nike", 95),
		competitorPost("nike-4", "nike", 105),
		competitorPost("nike-5", "nike", 90),
		competitorPost("nike-6", "nike", 250),
	)
	service := NewService(store, nil, testConfig(), testLogger())

	first, err := service.Run(context.Background(), "fitness", detect.RunOptions{})
	require.NoError(t, err)
	second, err := service.Run(context.Background(), "fitness", detect.RunOptions{})
	require.NoError(t, err)

	// Flags were reset before each apply, so the stored set is identical.
	assert.Equal(t, 2, store.resets)
	assert.Len(t, store.flags, 1)
	require.Len(t, second.Outliers, len(first.Outliers))
	assert.Equal(t, first.Outliers[0].Score, second.Outliers[0].Score)
}

func TestRunThresholdOverrides(t *testing.T) {
	store := newFakePostStore(
		competitorPost("nike-1", "nike", 100),
		competitorPost("nike-2", "nike", 110),
		competitorPost("nike-3", "nike", 95),
		competitorPost("nike-4", "nike", 105),
		competitorPost("nike-5", "nike", 90),
		competitorPost("nike-6", "nike", 250),
	)
	service := NewService(store, nil, testConfig(), testLogger())

	multiplier := 3.0
	sigma := 5.0
	result, err := service.Run(context.Background(), "fitness", detect.RunOptions{
		MultiplierThreshold: &multiplier,
		SigmaThreshold:      &sigma,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Outliers)
	assert.Empty(t, store.flags)
}

func TestRunZeroMeanBaselineNeverFlags(t *testing.T) {
	store := newFakePostStore(
		competitorPost("ghost-1", "ghost", 0),
		competitorPost("ghost-2", "ghost", 0),
		competitorPost("ghost-3", "ghost", 0),
	)
	service := NewService(store, nil, testConfig(), testLogger())

	result, err := service.Run(context.Background(), "fitness", detect.RunOptions{})
	require.NoError(t, err)

	// The baseline exists but its zero mean makes the multiplier undefined.
	assert.Len(t, result.Baselines, 1)
	assert.Empty(t, result.Outliers)
}

func TestRunSortsOutliersByScore(t *testing.T) {
	store := newFakePostStore(
		competitorPost("nike-1", "nike", 100),
		competitorPost("nike-2", "nike", 100),
		competitorPost("nike-3", "nike", 100),
		competitorPost("nike-4", "nike", 100),
		competitorPost("nike-5", "nike", 900),
		competitorPost("puma-1", "puma", 100),
		competitorPost("puma-2", "puma", 100),
		competitorPost("puma-3", "puma", 100),
		competitorPost("puma-4", "puma", 100),
		competitorPost("puma-5", "puma", 400),
	)
	service := NewService(store, nil, testConfig(), testLogger())

	result, err := service.Run(context.Background(), "fitness", detect.RunOptions{})
	require.NoError(t, err)

	require.Len(t, result.Outliers, 2)
	assert.Equal(t, "nike-5", result.Outliers[0].Post.ID)
	assert.Equal(t, "puma-5", result.Outliers[1].Post.ID)
	assert.Greater(t, result.Outliers[0].Score, result.Outliers[1].Score)
}

func TestEvaluatePostMonotonicity(t *testing.T) {
	baseline := detect.Baseline{Mean: 100, StdDev: 10}
	cfg := testConfig()

	lower, ok := evaluatePost(competitorPost("a", "nike", 300), baseline, cfg)
	require.True(t, ok)
	higher, ok := evaluatePost(competitorPost("b", "nike", 400), baseline, cfg)
	require.True(t, ok)

	assert.Greater(t, higher.Multiplier, lower.Multiplier)
	assert.Greater(t, higher.Sigma, lower.Sigma)
	assert.Greater(t, higher.Score, lower.Score)
}

func TestEvaluatePostSigmaOnlyTrigger(t *testing.T) {
	// Multiplier below threshold but sigma above it still flags the post.
	baseline := detect.Baseline{Mean: 1000, StdDev: 100}
	result, ok := evaluatePost(competitorPost("a", "nike", 1200), baseline, testConfig())
	require.True(t, ok)
	assert.InDelta(t, 1.2, result.Multiplier, 0.0001)
	assert.InDelta(t, 2.0, result.Sigma, 0.0001)
}

func TestEvaluatePostZeroStdDevSigmaIsZero(t *testing.T) {
	// A zero-variance baseline cannot express sigma; the score falls back to
	// the multiplier term alone.
	baseline := detect.Baseline{Mean: 10, StdDev: 0}
	result, ok := evaluatePost(competitorPost("a", "nike", 25), baseline, testConfig())
	require.True(t, ok)
	assert.InDelta(t, 2.5, result.Multiplier, 0.0001)
	assert.Equal(t, 0.0, result.Sigma)
	assert.InDelta(t, 0.6*2.5, result.Score, 0.0001)
}
