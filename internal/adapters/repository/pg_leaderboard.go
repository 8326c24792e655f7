package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) Definition(ctx context.Context, key string) (model.LeaderboardDefinition, error) {
	var d model.LeaderboardDefinition
	err := s.pool.QueryRow(ctx, `
		SELECT key, name, COALESCE(description, ''), metric_source, metric_key,
		       COALESCE(fallback_metric_key, ''), time_window, category_key, is_active
		FROM leaderboard_definitions
		WHERE key = $1`, key).
		Scan(&d.Key, &d.Name, &d.Description, &d.MetricSource, &d.MetricKey,
			&d.FallbackMetricKey, &d.TimeWindow, &d.CategoryKey, &d.IsActive)
	if err != nil {
		return model.LeaderboardDefinition{}, mapNotFound(err)
	}
	return d, nil
}

func (s *PgStore) ListActiveDefinitions(ctx context.Context) ([]model.LeaderboardDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, name, COALESCE(description, ''), metric_source, metric_key,
		       COALESCE(fallback_metric_key, ''), time_window, category_key, is_active
		FROM leaderboard_definitions
		WHERE is_active
		ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []model.LeaderboardDefinition
	for rows.Next() {
		var d model.LeaderboardDefinition
		if err := rows.Scan(&d.Key, &d.Name, &d.Description, &d.MetricSource, &d.MetricKey,
			&d.FallbackMetricKey, &d.TimeWindow, &d.CategoryKey, &d.IsActive); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *PgStore) InsertRun(ctx context.Context, run model.LeaderboardRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leaderboard_runs
			(id, leaderboard_key, period_start, period_end, status, row_count, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.LeaderboardKey, run.PeriodStart, run.PeriodEnd, run.Status, run.RowCount, run.GeneratedAt)
	return mapDuplicate(err)
}

func (s *PgStore) FinalizeRun(ctx context.Context, runID string, status model.RunStatus, rowCount int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leaderboard_runs
		SET status = $2, row_count = $3
		WHERE id = $1 AND status = 'PROCESSING'`, runID, status, rowCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) InsertEntries(ctx context.Context, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.RunID, e.ClusterKey, e.Rank, e.Score, e.Tiebreaker})
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"leaderboard_entries"},
		[]string{"run_id", "cluster_key", "rank", "score", "tiebreaker"},
		pgx.CopyFromRows(rows))
	return err
}

func (s *PgStore) LatestCompleteRun(ctx context.Context, key string) (model.LeaderboardRun, error) {
	var run model.LeaderboardRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, leaderboard_key, period_start, period_end, status, row_count, generated_at
		FROM leaderboard_runs
		WHERE leaderboard_key = $1 AND status = 'COMPLETE'
		ORDER BY generated_at DESC
		LIMIT 1`, key).
		Scan(&run.ID, &run.LeaderboardKey, &run.PeriodStart, &run.PeriodEnd,
			&run.Status, &run.RowCount, &run.GeneratedAt)
	if err != nil {
		return model.LeaderboardRun{}, mapNotFound(err)
	}
	return run, nil
}

func (s *PgStore) EntriesForRun(ctx context.Context, runID string, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, cluster_key, rank, score, COALESCE(tiebreaker, '')
		FROM leaderboard_entries
		WHERE run_id = $1
		ORDER BY rank
		LIMIT $2`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.RunID, &e.ClusterKey, &e.Rank, &e.Score, &e.Tiebreaker); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PgStore) EntryForCluster(ctx context.Context, runID, clusterKey string) (model.LeaderboardEntry, error) {
	var e model.LeaderboardEntry
	err := s.pool.QueryRow(ctx, `
		SELECT run_id, cluster_key, rank, score, COALESCE(tiebreaker, '')
		FROM leaderboard_entries
		WHERE run_id = $1 AND cluster_key = $2`, runID, clusterKey).
		Scan(&e.RunID, &e.ClusterKey, &e.Rank, &e.Score, &e.Tiebreaker)
	if err != nil {
		return model.LeaderboardEntry{}, mapNotFound(err)
	}
	return e, nil
}
