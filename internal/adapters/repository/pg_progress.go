package repository

import (
	"context"
	"time"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) GetProgress(ctx context.Context, playerID, challengeKey string) (model.ChallengeProgress, error) {
	var p model.ChallengeProgress
	err := s.pool.QueryRow(ctx, `
		SELECT player_id, COALESCE(cluster_key, ''), challenge_key, current_value,
		       COALESCE(highest_tier_achieved, ''), COALESCE(achieved_at, 'epoch'::timestamptz),
		       founders_mark_achieved, COALESCE(founders_mark_at, 'epoch'::timestamptz), updated_at
		FROM challenge_progress
		WHERE player_id = $1 AND challenge_key = $2`, playerID, challengeKey).
		Scan(&p.PlayerID, &p.ClusterKey, &p.ChallengeKey, &p.CurrentValue,
			&p.HighestTierAchieved, &p.AchievedAt,
			&p.FoundersMarkAchieved, &p.FoundersMarkAt, &p.UpdatedAt)
	if err != nil {
		return model.ChallengeProgress{}, mapNotFound(err)
	}
	return p, nil
}

func (s *PgStore) UpsertProgress(ctx context.Context, p model.ChallengeProgress) error {
	// founders_mark columns only ever move false -> true.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO challenge_progress
			(player_id, cluster_key, challenge_key, current_value, highest_tier_achieved,
			 achieved_at, founders_mark_achieved, founders_mark_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		ON CONFLICT (player_id, challenge_key) DO UPDATE SET
			cluster_key = COALESCE(EXCLUDED.cluster_key, challenge_progress.cluster_key),
			current_value = EXCLUDED.current_value,
			highest_tier_achieved = EXCLUDED.highest_tier_achieved,
			achieved_at = EXCLUDED.achieved_at,
			founders_mark_achieved = challenge_progress.founders_mark_achieved OR EXCLUDED.founders_mark_achieved,
			founders_mark_at = COALESCE(challenge_progress.founders_mark_at, EXCLUDED.founders_mark_at),
			updated_at = EXCLUDED.updated_at`,
		p.PlayerID, p.ClusterKey, p.ChallengeKey, p.CurrentValue, p.HighestTierAchieved,
		p.AchievedAt, p.FoundersMarkAchieved, nullTime(p.FoundersMarkAt), p.UpdatedAt)
	return err
}

func (s *PgStore) ListProgressByCluster(ctx context.Context, clusterKey string) ([]model.ChallengeProgress, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, COALESCE(cluster_key, ''), challenge_key, current_value,
		       COALESCE(highest_tier_achieved, ''), COALESCE(achieved_at, 'epoch'::timestamptz),
		       founders_mark_achieved, COALESCE(founders_mark_at, 'epoch'::timestamptz), updated_at
		FROM challenge_progress
		WHERE cluster_key = $1
		ORDER BY challenge_key`, clusterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChallengeProgress
	for rows.Next() {
		var p model.ChallengeProgress
		if err := rows.Scan(&p.PlayerID, &p.ClusterKey, &p.ChallengeKey, &p.CurrentValue,
			&p.HighestTierAchieved, &p.AchievedAt,
			&p.FoundersMarkAchieved, &p.FoundersMarkAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PgStore) SetFoundersMark(ctx context.Context, playerID, challengeKey string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE challenge_progress
		SET founders_mark_achieved = TRUE,
		    founders_mark_at = COALESCE(founders_mark_at, $3)
		WHERE player_id = $1 AND challenge_key = $2`, playerID, challengeKey, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) FoundersMarkKeys(ctx context.Context, clusterKey string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT challenge_key
		FROM challenge_progress
		WHERE cluster_key = $1 AND founders_mark_achieved
		ORDER BY challenge_key`, clusterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PgStore) SumByMetricPerCluster(ctx context.Context, q ProgressSumQuery) (map[string]float64, error) {
	sums, err := s.sumByMetric(ctx, q.MetricSource, q.MetricKey, q.From, q.To)
	if err != nil {
		return nil, err
	}
	if len(sums) == 0 && q.FallbackMetricKey != "" {
		return s.sumByMetric(ctx, q.MetricSource, q.FallbackMetricKey, q.From, q.To)
	}
	return sums, nil
}

func (s *PgStore) sumByMetric(ctx context.Context, source, key string, from, to time.Time) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.cluster_key, SUM(p.current_value)
		FROM challenge_progress p
		JOIN challenge_definitions d ON d.key = p.challenge_key
		WHERE p.cluster_key IS NOT NULL
		  AND d.metric_source = $1 AND d.metric_key = $2
		  AND p.updated_at >= $3 AND p.updated_at <= $4
		GROUP BY p.cluster_key`, source, key, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]float64)
	for rows.Next() {
		var cluster string
		var sum float64
		if err := rows.Scan(&cluster, &sum); err != nil {
			return nil, err
		}
		sums[cluster] = sum
	}
	return sums, rows.Err()
}

// nullTime maps the zero time to NULL so one-way timestamp columns stay
// unset until first earned.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
