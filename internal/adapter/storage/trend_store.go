package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"brandpulse/internal/domain/trend"
)

// TrendStore implements storage for daily trend snapshots.
type TrendStore struct {
	db *pgxpool.Pool
}

// NewTrendStore creates a new trend snapshot store.
func NewTrendStore(db *pgxpool.Pool) *TrendStore {
	return &TrendStore{db: db}
}

// UpsertSnapshot writes a snapshot keyed by (account set, day). A second
// capture the same day overwrites the earlier one.
func (s *TrendStore) UpsertSnapshot(ctx context.Context, snap trend.Snapshot) error {
	query := `
		INSERT INTO trend_snapshots (
			account_set_id, day, hook_types, patterns, formats, triggers,
			outlier_count, avg_outlier_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_set_id, day) DO UPDATE
		SET
			hook_types = $3,
			patterns = $4,
			formats = $5,
			triggers = $6,
			outlier_count = $7,
			avg_outlier_score = $8
	`

	hookTypesJSON, err := json.Marshal(snap.HookTypes)
	if err != nil {
		return fmt.Errorf("error marshaling hook types: %w", err)
	}
	patternsJSON, err := json.Marshal(snap.Patterns)
	if err != nil {
		return fmt.Errorf("error marshaling patterns: %w", err)
	}
	formatsJSON, err := json.Marshal(snap.Formats)
	if err != nil {
		return fmt.Errorf("error marshaling formats: %w", err)
	}
	triggersJSON, err := json.Marshal(snap.Triggers)
	if err != nil {
		return fmt.Errorf("error marshaling triggers: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		query,
		snap.AccountSetID,
		snap.Day,
		hookTypesJSON,
		patternsJSON,
		formatsJSON,
		triggersJSON,
		snap.OutlierCount,
		snap.AvgOutlierScore,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// SnapshotsSince returns the account set's snapshots from since onward,
// ordered by day ascending.
func (s *TrendStore) SnapshotsSince(ctx context.Context, accountSetID string, since time.Time) ([]trend.Snapshot, error) {
	query := `
		SELECT account_set_id, day, hook_types, patterns, formats, triggers,
			outlier_count, avg_outlier_score
		FROM trend_snapshots
		WHERE account_set_id = $1
		AND day >= $2
		ORDER BY day
	`

	rows, err := s.db.Query(ctx, query, accountSetID, since)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var snaps []trend.Snapshot
	for rows.Next() {
		var snap trend.Snapshot
		var hookTypesJSON, patternsJSON, formatsJSON, triggersJSON []byte

		err := rows.Scan(
			&snap.AccountSetID,
			&snap.Day,
			&hookTypesJSON,
			&patternsJSON,
			&formatsJSON,
			&triggersJSON,
			&snap.OutlierCount,
			&snap.AvgOutlierScore,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning snapshot: %w", err)
		}

		if err := json.Unmarshal(hookTypesJSON, &snap.HookTypes); err != nil {
			return nil, fmt.Errorf("error unmarshaling hook types: %w", err)
		}
		if err := json.Unmarshal(patternsJSON, &snap.Patterns); err != nil {
			return nil, fmt.Errorf("error unmarshaling patterns: %w", err)
		}
		if err := json.Unmarshal(formatsJSON, &snap.Formats); err != nil {
			return nil, fmt.Errorf("error unmarshaling formats: %w", err)
		}
		if err := json.Unmarshal(triggersJSON, &snap.Triggers); err != nil {
			return nil, fmt.Errorf("error unmarshaling triggers: %w", err)
		}

		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snaps, nil
}
