package trend

import (
	"time"
)

// Direction classifies the movement of a categorical value over time.
type Direction string

const (
	DirectionRising    Direction = "rising"
	DirectionDeclining Direction = "declining"
	DirectionStable    Direction = "stable"
)

// Snapshot is one day's frequency tables over the flagged competitor outlier
// set of an account set. Upserted by (account set, day); a second capture the
// same day overwrites.
type Snapshot struct {
	AccountSetID    string
	Day             time.Time
	HookTypes       map[string]int
	Patterns        map[string]int
	Formats         map[string]int
	Triggers        map[string]int
	OutlierCount    int
	AvgOutlierScore float64
}

// Movement is the velocity of one categorical value across the loaded
// snapshot sequence.
type Movement struct {
	Dimension   string
	Value       string
	Velocity    float64
	Direction   Direction
	LatestCount int
	MeanCount   float64
}

// Report is the output of a trend query. HasData is false when fewer than
// two snapshots exist in the lookback window; all other fields are then
// empty.
type Report struct {
	AccountSetID  string
	HasData       bool
	SnapshotCount int
	Rising        []Movement
	Declining     []Movement
	Stable        []Movement
	Narrative     string
}

// ItemType distinguishes the tracked item kinds on the radar.
type ItemType string

const (
	ItemAudio   ItemType = "audio"
	ItemHashtag ItemType = "hashtag"
)

// RadarSnapshot is one hourly observation of a tracked item. Upserted by
// (account set, item type, item id, hour bucket); a time series accumulates
// per item.
type RadarSnapshot struct {
	AccountSetID    string
	ItemType        ItemType
	ItemID          string
	HourBucket      time.Time
	UsageCount      int
	OutlierCount    int
	TotalEngagement float64
	AvgEngagement   float64
	TopPostID       string
}

// Phase labels where a tracked item sits in its lifecycle.
type Phase string

const (
	PhaseEmerging  Phase = "emerging"
	PhaseRising    Phase = "rising"
	PhasePeaking   Phase = "peaking"
	PhaseDeclining Phase = "declining"
)

// Signal labels how much confidence the composite score carries.
type Signal string

const (
	SignalStrong   Signal = "strong"
	SignalModerate Signal = "moderate"
	SignalEmerging Signal = "emerging"
)

// RadarScore is the forward-looking composite ranking of one tracked item.
type RadarScore struct {
	Rank               int
	ItemType           ItemType
	ItemID             string
	Velocity           float64
	Acceleration       float64
	OutlierCorrelation float64
	AvgEngagement      float64
	Composite          float64
	Phase              Phase
	Signal             Signal
	SnapshotCount      int
	FirstSeen          time.Time
	LastSeen           time.Time
	TopPostID          string
}

// GapEntry is a categorical value competitors use in their outliers that the
// own account has not used at all.
type GapEntry struct {
	Value           string
	CompetitorCount int
	OwnCount        int
}

// Strength is a categorical value the own account uses repeatedly that never
// appears among competitor outliers.
type Strength struct {
	Dimension string
	Value     string
	OwnCount  int
}

// GapResult compares own posts against the competitor outlier set. HasData
// is false when either side is empty.
type GapResult struct {
	AccountSetID    string
	HasData         bool
	MissingHooks    []GapEntry
	MissingFormats  []GapEntry
	MissingPatterns []GapEntry
	MissingTriggers []GapEntry
	OwnStrengths    []Strength
	ComputedAt      time.Time
}
