package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"brandpulse/internal/domain/trend"
)

// RadarStore implements storage for hourly trend radar snapshots.
type RadarStore struct {
	db *pgxpool.Pool
}

// NewRadarStore creates a new radar snapshot store.
func NewRadarStore(db *pgxpool.Pool) *RadarStore {
	return &RadarStore{db: db}
}

// UpsertRadarSnapshot writes a snapshot keyed by (account set, item type,
// item id, hour bucket), so re-captures within the same hour overwrite.
func (s *RadarStore) UpsertRadarSnapshot(ctx context.Context, snap trend.RadarSnapshot) error {
	query := `
		INSERT INTO radar_snapshots (
			account_set_id, item_type, item_id, hour_bucket,
			usage_count, outlier_count, total_engagement, avg_engagement, top_post_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_set_id, item_type, item_id, hour_bucket) DO UPDATE
		SET
			usage_count = $5,
			outlier_count = $6,
			total_engagement = $7,
			avg_engagement = $8,
			top_post_id = $9
	`

	_, err := s.db.Exec(
		ctx,
		query,
		snap.AccountSetID,
		string(snap.ItemType),
		snap.ItemID,
		snap.HourBucket,
		snap.UsageCount,
		snap.OutlierCount,
		snap.TotalEngagement,
		snap.AvgEngagement,
		snap.TopPostID,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// RadarSnapshotsSince returns the account set's snapshots from since onward,
// ordered by hour bucket ascending.
func (s *RadarStore) RadarSnapshotsSince(ctx context.Context, accountSetID string, since time.Time) ([]trend.RadarSnapshot, error) {
	query := `
		SELECT account_set_id, item_type, item_id, hour_bucket,
			usage_count, outlier_count, total_engagement, avg_engagement, top_post_id
		FROM radar_snapshots
		WHERE account_set_id = $1
		AND hour_bucket >= $2
		ORDER BY hour_bucket, item_type, item_id
	`

	rows, err := s.db.Query(ctx, query, accountSetID, since)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var snaps []trend.RadarSnapshot
	for rows.Next() {
		var snap trend.RadarSnapshot
		var itemType string

		err := rows.Scan(
			&snap.AccountSetID,
			&itemType,
			&snap.ItemID,
			&snap.HourBucket,
			&snap.UsageCount,
			&snap.OutlierCount,
			&snap.TotalEngagement,
			&snap.AvgEngagement,
			&snap.TopPostID,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning radar snapshot: %w", err)
		}
		snap.ItemType = trend.ItemType(itemType)

		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating radar snapshots: %w", err)
	}
	return snaps, nil
}
