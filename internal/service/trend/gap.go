package trend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"brandpulse/internal/domain/post"
	"brandpulse/internal/domain/trend"
)

// GapConfig contains configuration for the gap analyzer.
type GapConfig struct {
	CacheTTL     time.Duration
	MaxPerMetric int
	MinOwnUsage  int
}

// GapService implements the trend.GapAnalyzer interface: it diffs the own
// account's categorical distribution against the competitor outlier set.
type GapService struct {
	posts  PostReader
	config GapConfig
	cache  *gapCache
	log    *logrus.Logger
	now    func() time.Time
}

// NewGapService creates a new gap analyzer.
func NewGapService(posts PostReader, config GapConfig, log *logrus.Logger) *GapService {
	now := time.Now
	return &GapService{
		posts:  posts,
		config: config,
		cache:  newGapCache(config.CacheTTL, now),
		log:    log,
		now:    now,
	}
}

// Analyze returns the gap analysis for the account set, served from cache
// while fresh. force bypasses the cache. Missing data on either side yields
// a HasData=false sentinel, never an error.
func (g *GapService) Analyze(ctx context.Context, accountSetID string, force bool) (*trend.GapResult, error) {
	if !force {
		if cached, ok := g.cache.get(accountSetID); ok {
			return &cached, nil
		}
	}

	own, err := g.posts.OwnPosts(ctx, accountSetID)
	if err != nil {
		return nil, fmt.Errorf("error loading own posts: %w", err)
	}

	outliers, err := g.posts.FlaggedOutliers(ctx, accountSetID)
	if err != nil {
		return nil, fmt.Errorf("error loading flagged outliers: %w", err)
	}
	competitors := outliers[:0:0]
	for _, p := range outliers {
		if !p.IsOwn {
			competitors = append(competitors, p)
		}
	}

	result := trend.GapResult{
		AccountSetID: accountSetID,
		ComputedAt:   g.now(),
	}

	if len(own) == 0 || len(competitors) == 0 {
		// Sparse results are not cached so data arriving later shows up on
		// the next call instead of after the TTL.
		g.log.WithFields(logrus.Fields{
			"account_set":         accountSetID,
			"own_posts":           len(own),
			"competitor_outliers": len(competitors),
		}).Info("gap analysis skipped, not enough data")
		return &result, nil
	}
	result.HasData = true

	ownDist := distributions(own)
	compDist := distributions(competitors)

	result.MissingHooks = missingValues(compDist[DimensionHookType], ownDist[DimensionHookType], g.config.MaxPerMetric)
	result.MissingFormats = missingValues(compDist[DimensionFormat], ownDist[DimensionFormat], g.config.MaxPerMetric)
	result.MissingPatterns = missingValues(compDist[DimensionContentPattern], ownDist[DimensionContentPattern], g.config.MaxPerMetric)
	result.MissingTriggers = missingValues(compDist[DimensionEmotionalTrigger], ownDist[DimensionEmotionalTrigger], g.config.MaxPerMetric)
	result.OwnStrengths = ownStrengths(ownDist, compDist, g.config.MinOwnUsage)

	g.cache.put(accountSetID, result)
	return &result, nil
}

// distributions tallies each categorical dimension over the posts. Blank
// values are skipped per dimension.
func distributions(posts []post.Post) map[string]map[string]int {
	dist := map[string]map[string]int{
		DimensionHookType:         {},
		DimensionFormat:           {},
		DimensionContentPattern:   {},
		DimensionEmotionalTrigger: {},
	}
	for _, p := range posts {
		if v := p.Annotations.HookType; v != "" {
			dist[DimensionHookType][v]++
		}
		if v := p.MediaType; v != "" {
			dist[DimensionFormat][v]++
		}
		if v := p.Annotations.ContentPattern; v != "" {
			dist[DimensionContentPattern][v]++
		}
		if v := p.Annotations.EmotionalTrigger; v != "" {
			dist[DimensionEmotionalTrigger][v]++
		}
	}
	return dist
}

// missingValues lists values present in the competitor distribution with
// zero own occurrences, sorted by competitor frequency descending, capped.
func missingValues(competitor, own map[string]int, limit int) []trend.GapEntry {
	var missing []trend.GapEntry
	for value, count := range competitor {
		if own[value] > 0 {
			continue
		}
		missing = append(missing, trend.GapEntry{
			Value:           value,
			CompetitorCount: count,
		})
	}

	sort.SliceStable(missing, func(i, j int) bool {
		if missing[i].CompetitorCount != missing[j].CompetitorCount {
			return missing[i].CompetitorCount > missing[j].CompetitorCount
		}
		return missing[i].Value < missing[j].Value
	})

	if limit > 0 && len(missing) > limit {
		missing = missing[:limit]
	}
	return missing
}

// ownStrengths lists values the own account uses repeatedly that never
// appear among competitor outliers.
func ownStrengths(ownDist, compDist map[string]map[string]int, minUsage int) []trend.Strength {
	var strengths []trend.Strength
	for _, dimension := range []string{DimensionHookType, DimensionFormat, DimensionContentPattern, DimensionEmotionalTrigger} {
		for value, count := range ownDist[dimension] {
			if count < minUsage || compDist[dimension][value] > 0 {
				continue
			}
			strengths = append(strengths, trend.Strength{
				Dimension: dimension,
				Value:     value,
				OwnCount:  count,
			})
		}
	}

	sort.SliceStable(strengths, func(i, j int) bool {
		if strengths[i].OwnCount != strengths[j].OwnCount {
			return strengths[i].OwnCount > strengths[j].OwnCount
		}
		if strengths[i].Dimension != strengths[j].Dimension {
			return strengths[i].Dimension < strengths[j].Dimension
		}
		return strengths[i].Value < strengths[j].Value
	})
	return strengths
}
