package repository

import (
	"context"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) UpsertWindowed(ctx context.Context, w model.WindowedProgress) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO windowed_progress
			(cluster_key, challenge_key, window_key, value, tier_code, computed_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (cluster_key, challenge_key, window_key) DO UPDATE SET
			value = EXCLUDED.value,
			tier_code = EXCLUDED.tier_code,
			computed_at = EXCLUDED.computed_at`,
		w.ClusterKey, w.ChallengeKey, w.WindowKey, w.Value, w.TierCode, w.ComputedAt)
	return err
}

func (s *PgStore) GetWindowed(ctx context.Context, clusterKey, challengeKey, windowKey string) (model.WindowedProgress, error) {
	var w model.WindowedProgress
	err := s.pool.QueryRow(ctx, `
		SELECT cluster_key, challenge_key, window_key, value, COALESCE(tier_code, ''), computed_at
		FROM windowed_progress
		WHERE cluster_key = $1 AND challenge_key = $2 AND window_key = $3`,
		clusterKey, challengeKey, windowKey).
		Scan(&w.ClusterKey, &w.ChallengeKey, &w.WindowKey, &w.Value, &w.TierCode, &w.ComputedAt)
	if err != nil {
		return model.WindowedProgress{}, mapNotFound(err)
	}
	return w, nil
}
