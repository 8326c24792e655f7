package repository

import (
	"context"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) ListActiveChallenges(ctx context.Context) ([]model.ChallengeDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, metric_source, metric_key, category_key, is_active
		FROM challenge_definitions
		WHERE is_active
		ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []model.ChallengeDefinition
	for rows.Next() {
		var d model.ChallengeDefinition
		if err := rows.Scan(&d.Key, &d.MetricSource, &d.MetricKey, &d.CategoryKey, &d.IsActive); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range defs {
		tiers, err := s.tiersForChallenge(ctx, defs[i].Key)
		if err != nil {
			return nil, err
		}
		defs[i].Tiers = tiers
	}
	return defs, nil
}

func (s *PgStore) tiersForChallenge(ctx context.Context, challengeKey string) ([]model.ChallengeTier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tier_code, threshold_value, is_prestige, sort_order
		FROM challenge_tiers
		WHERE challenge_key = $1
		ORDER BY sort_order`, challengeKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []model.ChallengeTier
	for rows.Next() {
		var t model.ChallengeTier
		if err := rows.Scan(&t.TierCode, &t.ThresholdValue, &t.IsPrestige, &t.SortOrder); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}
