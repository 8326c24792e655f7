package repository

import (
	"context"
	"time"

	"github.com/okian/questforge/internal/domain/model"
)

func (s *PgStore) InsertPowerSnapshot(ctx context.Context, ps model.PowerSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO power_snapshots
			(cluster_key, day, hero_count, common_heroes, uncommon_heroes, rare_heroes,
			 legendary_heroes, mythic_heroes, total_levels, pet_count, garden_lp_usd,
			 balance_usd, power_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		ps.ClusterKey, ps.Day.UTC().Truncate(24*time.Hour), ps.HeroCount,
		ps.CommonHeroes, ps.UncommonHeroes, ps.RareHeroes, ps.LegendaryHeroes, ps.MythicHeroes,
		ps.TotalLevels, ps.PetCount, ps.GardenLPUSD, ps.BalanceUSD, ps.PowerValue, ps.CreatedAt)
	return mapDuplicate(err)
}

func (s *PgStore) InsertBalanceSnapshot(ctx context.Context, bs model.BalanceSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balance_snapshots
			(wallet_address, day, net_worth_usd, gold_usd, power_token_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bs.WalletAddress, bs.Day.UTC().Truncate(24*time.Hour),
		bs.NetWorthUSD, bs.GoldUSD, bs.PowerTokenUSD, bs.CreatedAt)
	return mapDuplicate(err)
}

func (s *PgStore) RecordWalletActivity(ctx context.Context, a model.WalletActivity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_activity (wallet_address, day, quests_done, summons_done, seen_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet_address, day) DO UPDATE SET
			quests_done = EXCLUDED.quests_done,
			summons_done = EXCLUDED.summons_done,
			seen_at = EXCLUDED.seen_at`,
		a.WalletAddress, a.Day.UTC().Truncate(24*time.Hour), a.QuestsDone, a.SummonsDone, a.SeenAt)
	return err
}

func (s *PgStore) InsertTransferAggregate(ctx context.Context, t model.TransferAggregate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transfer_aggregates (cluster_key, day, in_usd, out_usd, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ClusterKey, t.Day.UTC().Truncate(24*time.Hour), t.InUSD, t.OutUSD, t.CreatedAt)
	return mapDuplicate(err)
}

func (s *PgStore) UpsertBehaviorRecord(ctx context.Context, b model.BehaviorRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO behavior_records
			(cluster_key, reinvest_ratio, net_hero_delta_30d, heavy_seller, stamina_utilization, account_age_days, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cluster_key) DO UPDATE SET
			reinvest_ratio = EXCLUDED.reinvest_ratio,
			net_hero_delta_30d = EXCLUDED.net_hero_delta_30d,
			heavy_seller = EXCLUDED.heavy_seller,
			stamina_utilization = EXCLUDED.stamina_utilization,
			account_age_days = EXCLUDED.account_age_days,
			recorded_at = EXCLUDED.recorded_at`,
		b.ClusterKey, b.ReinvestRatio, b.NetHeroDelta30d, b.HeavySeller, b.StaminaUtilization, b.AccountAgeDays, b.RecordedAt)
	return err
}

func (s *PgStore) LatestPowerSnapshot(ctx context.Context, clusterKey string) (model.PowerSnapshot, error) {
	var ps model.PowerSnapshot
	err := s.pool.QueryRow(ctx, `
		SELECT cluster_key, day, hero_count, common_heroes, uncommon_heroes, rare_heroes,
		       legendary_heroes, mythic_heroes, total_levels, pet_count, garden_lp_usd,
		       balance_usd, power_value, created_at
		FROM power_snapshots
		WHERE cluster_key = $1
		ORDER BY day DESC
		LIMIT 1`, clusterKey).
		Scan(&ps.ClusterKey, &ps.Day, &ps.HeroCount,
			&ps.CommonHeroes, &ps.UncommonHeroes, &ps.RareHeroes, &ps.LegendaryHeroes, &ps.MythicHeroes,
			&ps.TotalLevels, &ps.PetCount, &ps.GardenLPUSD, &ps.BalanceUSD, &ps.PowerValue, &ps.CreatedAt)
	if err != nil {
		return model.PowerSnapshot{}, mapNotFound(err)
	}
	return ps, nil
}

func (s *PgStore) LatestBehaviorRecord(ctx context.Context, clusterKey string) (model.BehaviorRecord, error) {
	var b model.BehaviorRecord
	err := s.pool.QueryRow(ctx, `
		SELECT cluster_key, reinvest_ratio, net_hero_delta_30d, heavy_seller, stamina_utilization, account_age_days, recorded_at
		FROM behavior_records
		WHERE cluster_key = $1`, clusterKey).
		Scan(&b.ClusterKey, &b.ReinvestRatio, &b.NetHeroDelta30d, &b.HeavySeller, &b.StaminaUtilization, &b.AccountAgeDays, &b.RecordedAt)
	if err != nil {
		return model.BehaviorRecord{}, mapNotFound(err)
	}
	return b, nil
}

func (s *PgStore) ClusterBalanceUSD(ctx context.Context, clusterKey string) (float64, error) {
	// Latest balance snapshot per member wallet, summed over the cluster.
	var total float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(b.net_worth_usd), 0)
		FROM (
			SELECT DISTINCT ON (wallet_address) wallet_address, net_worth_usd
			FROM balance_snapshots
			ORDER BY wallet_address, day DESC
		) b
		WHERE b.wallet_address IN (
			SELECT wallet_address FROM wallet_linkages WHERE cluster_key = $1
			UNION
			SELECT wallet_address FROM legacy_signups WHERE cluster_key = $1
		)`, clusterKey).Scan(&total)
	return total, err
}

func (s *PgStore) ClusterActivity(ctx context.Context, clusterKey string, from, to time.Time) (model.ClusterActivity, error) {
	out := model.ClusterActivity{ClusterKey: clusterKey}
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(a.quests_done), 0), COALESCE(SUM(a.summons_done), 0), COUNT(DISTINCT a.day)
		FROM wallet_activity a
		WHERE a.day >= $2 AND a.day <= $3
		  AND a.wallet_address IN (
			SELECT wallet_address FROM wallet_linkages WHERE cluster_key = $1
			UNION
			SELECT wallet_address FROM legacy_signups WHERE cluster_key = $1
		)`, clusterKey, from, to).
		Scan(&out.Quests, &out.Summons, &out.DaysActive)
	return out, err
}
