package post

import (
	"time"
)

// Annotations holds the categorical labels an external classifier may attach
// to a post. An empty string means the dimension has not been annotated;
// unannotated dimensions are skipped by trend and gap tallies.
type Annotations struct {
	HookType         string
	ContentPattern   string
	EmotionalTrigger string
}

// Counts holds the raw interaction counts of a post with absent values
// resolved to zero.
type Counts struct {
	Likes    int64
	Comments int64
	Saves    int64
	Shares   int64
	Views    int64
}

// Post is one observed social post. Interaction counts are nullable because
// platforms expose different subsets of them; nil means the platform did not
// report the count, not that it was zero.
type Post struct {
	ID            string
	AccountSetID  string
	Platform      string
	AccountHandle string
	IsOwn         bool
	Caption       string
	MediaType     string

	Likes    *int64
	Comments *int64
	Saves    *int64
	Shares   *int64
	Views    *int64

	FollowerCount int64
	CollectedAt   time.Time

	Annotations Annotations
	Hashtags    []string
	AudioID     string

	IsOutlier    bool
	OutlierScore float64
	ContentTags  []string

	Archived bool
}

// Counts resolves the nullable interaction counts, defaulting nil to 0.
func (p Post) Counts() Counts {
	return Counts{
		Likes:    deref(p.Likes),
		Comments: deref(p.Comments),
		Saves:    deref(p.Saves),
		Shares:   deref(p.Shares),
		Views:    deref(p.Views),
	}
}

// Annotated reports whether at least one categorical dimension is populated.
func (p Post) Annotated() bool {
	a := p.Annotations
	return a.HookType != "" || a.ContentPattern != "" || a.EmotionalTrigger != ""
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
