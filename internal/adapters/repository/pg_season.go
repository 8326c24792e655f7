package repository

import (
	"context"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) ActiveSeason(ctx context.Context) (model.Season, error) {
	var season model.Season
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, starts_at, ends_at, is_active
		FROM seasons
		WHERE is_active
		ORDER BY starts_at DESC
		LIMIT 1`).
		Scan(&season.ID, &season.Name, &season.StartsAt, &season.EndsAt, &season.IsActive)
	if err != nil {
		return model.Season{}, mapNotFound(err)
	}
	return season, nil
}

func (s *PgStore) SeasonWeights(ctx context.Context, seasonID int64) ([]model.SeasonWeight, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT season_id, challenge_code, weight
		FROM season_weights
		WHERE season_id = $1
		ORDER BY challenge_code`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weights []model.SeasonWeight
	for rows.Next() {
		var w model.SeasonWeight
		if err := rows.Scan(&w.SeasonID, &w.ChallengeCode, &w.Weight); err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}

func (s *PgStore) UpsertSeasonProgress(ctx context.Context, p model.SeasonProgress) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO season_progress (season_id, cluster_key, points, level, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (season_id, cluster_key) DO UPDATE SET
			points = EXCLUDED.points,
			level = EXCLUDED.level,
			updated_at = EXCLUDED.updated_at`,
		p.SeasonID, p.ClusterKey, p.Points, p.Level, p.UpdatedAt)
	return err
}

func (s *PgStore) GetSeasonProgress(ctx context.Context, seasonID int64, clusterKey string) (model.SeasonProgress, error) {
	var p model.SeasonProgress
	err := s.pool.QueryRow(ctx, `
		SELECT season_id, cluster_key, points, level, updated_at
		FROM season_progress
		WHERE season_id = $1 AND cluster_key = $2`, seasonID, clusterKey).
		Scan(&p.SeasonID, &p.ClusterKey, &p.Points, &p.Level, &p.UpdatedAt)
	if err != nil {
		return model.SeasonProgress{}, mapNotFound(err)
	}
	return p, nil
}
