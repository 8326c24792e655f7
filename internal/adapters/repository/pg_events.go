package repository

import (
	"context"
	"time"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) HuntEventsInWindow(ctx context.Context, clusterKey string, from, to time.Time) ([]model.HuntEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cluster_key, kind, count, occurred_at
		FROM hunt_events
		WHERE cluster_key = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at`, clusterKey, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HuntEvent
	for rows.Next() {
		var e model.HuntEvent
		if err := rows.Scan(&e.ClusterKey, &e.Kind, &e.Count, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PgStore) PvPEventsInWindow(ctx context.Context, clusterKey string, from, to time.Time) ([]model.PvPEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cluster_key, outcome, occurred_at
		FROM pvp_events
		WHERE cluster_key = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at`, clusterKey, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PvPEvent
	for rows.Next() {
		var e model.PvPEvent
		if err := rows.Scan(&e.ClusterKey, &e.Outcome, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
