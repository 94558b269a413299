package detect

import (
	"brandpulse/internal/domain/detect"
	"brandpulse/internal/domain/engagement"
	"brandpulse/internal/domain/post"
)

// computeBaseline derives the per-account baseline from the account's posts
// within the lookback window. Returns false when fewer than minPosts posts
// qualify; the account is then skipped for the whole run.
func computeBaseline(handle string, posts []post.Post, minPosts int) (detect.Baseline, bool) {
	if len(posts) < minPosts {
		return detect.Baseline{}, false
	}

	scores := make([]float64, 0, len(posts))
	var likesSum, commentsSum int64
	for _, p := range posts {
		c := p.Counts()
		scores = append(scores, engagement.WeightedScore(c))
		likesSum += c.Likes
		commentsSum += c.Comments
	}

	avg := mean(scores)
	return detect.Baseline{
		AccountHandle: handle,
		PostCount:     len(posts),
		Mean:          avg,
		Median:        median(scores),
		StdDev:        sampleStdDev(scores, avg),
		MeanLikes:     float64(likesSum) / float64(len(posts)),
		MeanComments:  float64(commentsSum) / float64(len(posts)),
	}, true
}
