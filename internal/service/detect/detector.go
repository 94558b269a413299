package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"brandpulse/internal/domain/detect"
	"brandpulse/internal/domain/engagement"
	"brandpulse/internal/domain/post"
)

// Config contains configuration for the outlier detector.
type Config struct {
	MultiplierThreshold float64
	SigmaThreshold      float64
	LookbackDays        int
	MinBaselinePosts    int
	EventsTopic         string
}

// OutlierFlag is the per-post write applied after a detection run.
type OutlierFlag struct {
	PostID string
	Score  float64
	Tags   []string
}

// PostStore defines the post storage the detector needs.
type PostStore interface {
	// CompetitorPosts returns non-own, non-archived posts for the account
	// set collected at or after since.
	CompetitorPosts(ctx context.Context, accountSetID string, since time.Time) ([]post.Post, error)

	// FlaggedOutliers returns the currently flagged posts sorted by outlier
	// score descending.
	FlaggedOutliers(ctx context.Context, accountSetID string) ([]post.Post, error)

	// ResetOutlierFlags clears every outlier flag, score and tag set for the
	// account set.
	ResetOutlierFlags(ctx context.Context, accountSetID string) error

	// ApplyOutlierFlags marks the given posts as outliers.
	ApplyOutlierFlags(ctx context.Context, flags []OutlierFlag) error
}

// Service implements the detect.Engine interface.
type Service struct {
	store    PostStore
	eventBus *nats.Conn
	config   Config
	log      *logrus.Logger
	now      func() time.Time
}

// NewService creates a new outlier detection service.
func NewService(store PostStore, eventBus *nats.Conn, config Config, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		eventBus: eventBus,
		config:   config,
		log:      log,
		now:      time.Now,
	}
}

// Run performs one full detection pass over the account set. The pass is a
// complete recompute: all outlier flags for the account set are reset before
// the newly detected set is applied, so re-running on unchanged data is
// idempotent.
func (s *Service) Run(ctx context.Context, accountSetID string, opts detect.RunOptions) (*detect.RunResult, error) {
	cfg := s.config
	if opts.MultiplierThreshold != nil {
		cfg.MultiplierThreshold = *opts.MultiplierThreshold
	}
	if opts.SigmaThreshold != nil {
		cfg.SigmaThreshold = *opts.SigmaThreshold
	}
	if opts.LookbackDays != nil {
		cfg.LookbackDays = *opts.LookbackDays
	}

	ranAt := s.now()
	since := ranAt.AddDate(0, 0, -cfg.LookbackDays)

	posts, err := s.store.CompetitorPosts(ctx, accountSetID, since)
	if err != nil {
		return nil, fmt.Errorf("error loading competitor posts: %w", err)
	}

	byAccount := make(map[string][]post.Post)
	for _, p := range posts {
		byAccount[p.AccountHandle] = append(byAccount[p.AccountHandle], p)
	}

	baselines := make(map[string]detect.Baseline)
	var outliers []detect.OutlierResult

	for handle, accountPosts := range byAccount {
		baseline, ok := computeBaseline(handle, accountPosts, cfg.MinBaselinePosts)
		if !ok {
			s.log.WithFields(logrus.Fields{
				"account_set": accountSetID,
				"account":     handle,
				"posts":       len(accountPosts),
			}).Info("skipping account with insufficient baseline data")
			continue
		}
		baselines[handle] = baseline

		for _, p := range accountPosts {
			result, ok := evaluatePost(p, baseline, cfg)
			if !ok {
				continue
			}
			outliers = append(outliers, result)
		}
	}

	sort.SliceStable(outliers, func(i, j int) bool {
		return outliers[i].Score > outliers[j].Score
	})

	if err := s.store.ResetOutlierFlags(ctx, accountSetID); err != nil {
		return nil, fmt.Errorf("error resetting outlier flags: %w", err)
	}

	flags := make([]OutlierFlag, 0, len(outliers))
	for _, o := range outliers {
		flags = append(flags, OutlierFlag{
			PostID: o.Post.ID,
			Score:  o.Score,
			Tags:   o.ContentTags,
		})
	}
	if len(flags) > 0 {
		if err := s.store.ApplyOutlierFlags(ctx, flags); err != nil {
			return nil, fmt.Errorf("error applying outlier flags: %w", err)
		}
	}

	result := &detect.RunResult{
		RunID:        uuid.New().String(),
		AccountSetID: accountSetID,
		RanAt:        ranAt,
		Outliers:     outliers,
		Baselines:    baselines,
	}

	s.log.WithFields(logrus.Fields{
		"account_set": accountSetID,
		"run_id":      result.RunID,
		"accounts":    len(baselines),
		"outliers":    len(outliers),
	}).Info("detection run complete")

	if err := s.publishRunEvent(result); err != nil {
		s.log.WithError(err).Warn("failed to publish detection event")
	}

	return result, nil
}

// Outliers returns the currently flagged posts for the account set.
func (s *Service) Outliers(ctx context.Context, accountSetID string) ([]post.Post, error) {
	return s.store.FlaggedOutliers(ctx, accountSetID)
}

// evaluatePost scores a post against its account baseline. Returns false
// when the post is not an outlier, including the degenerate case of a zero
// baseline mean.
func evaluatePost(p post.Post, baseline detect.Baseline, cfg Config) (detect.OutlierResult, bool) {
	counts := p.Counts()
	w := engagement.WeightedScore(counts)

	// A zero-mean baseline makes the multiplier undefined; such posts are
	// never outliers.
	if baseline.Mean == 0 {
		return detect.OutlierResult{}, false
	}

	multiplier := w / baseline.Mean

	sigma := 0.0
	if baseline.StdDev > 0 {
		sigma = (w - baseline.Mean) / baseline.StdDev
	}

	if multiplier < cfg.MultiplierThreshold && sigma < cfg.SigmaThreshold {
		return detect.OutlierResult{}, false
	}

	// Multiplier dominates the composite because it is the more intuitive
	// number to report; sigma is floored at 0 so a below-baseline sigma
	// never drags the score under the multiplier term.
	score := 0.6*multiplier + 0.4*maxFloat(sigma, 0)

	return detect.OutlierResult{
		Post:               p,
		WeightedEngagement: w,
		Multiplier:         multiplier,
		Sigma:              sigma,
		Score:              score,
		PrimaryDriver:      engagement.PrimaryDriver(counts),
		ContentTags:        contentTags(p),
	}, true
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// publishRunEvent publishes a summary of the detection run to the event bus.
func (s *Service) publishRunEvent(result *detect.RunResult) error {
	if s.eventBus == nil {
		return nil
	}

	var topScore float64
	if len(result.Outliers) > 0 {
		topScore = result.Outliers[0].Score
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":        "detection_run",
		"run_id":      result.RunID,
		"account_set": result.AccountSetID,
		"ran_at":      result.RanAt,
		"outliers":    len(result.Outliers),
		"accounts":    len(result.Baselines),
		"top_score":   topScore,
	})
	if err != nil {
		return fmt.Errorf("error marshaling run event: %w", err)
	}

	topic := fmt.Sprintf("%s.%s.detected", s.config.EventsTopic, result.AccountSetID)
	return s.eventBus.Publish(topic, data)
}
