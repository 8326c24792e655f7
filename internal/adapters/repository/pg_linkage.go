package repository

import (
	"context"
	"errors"
)

func (s *PgStore) ClusterForWallet(ctx context.Context, wallet string) (Linkage, bool, error) {
	var l Linkage
	err := s.pool.QueryRow(ctx, `
		SELECT wallet_address, COALESCE(user_id, ''), COALESCE(cluster_key, ''), COALESCE(player_id, '')
		FROM wallet_linkages
		WHERE wallet_address = $1`, wallet).
		Scan(&l.WalletAddress, &l.UserID, &l.ClusterKey, &l.PlayerID)
	if err != nil {
		if errors.Is(mapNotFound(err), ErrNotFound) {
			return Linkage{}, false, nil
		}
		return Linkage{}, false, err
	}
	return l, true, nil
}

func (s *PgStore) LegacySignup(ctx context.Context, wallet string) (Linkage, bool, error) {
	var l Linkage
	err := s.pool.QueryRow(ctx, `
		SELECT wallet_address, COALESCE(user_id, ''), COALESCE(cluster_key, ''), COALESCE(player_id, '')
		FROM legacy_signups
		WHERE wallet_address = $1`, wallet).
		Scan(&l.WalletAddress, &l.UserID, &l.ClusterKey, &l.PlayerID)
	if err != nil {
		if errors.Is(mapNotFound(err), ErrNotFound) {
			return Linkage{}, false, nil
		}
		return Linkage{}, false, err
	}
	return l, true, nil
}

func (s *PgStore) WalletsForCluster(ctx context.Context, clusterKey string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wallet_address FROM wallet_linkages WHERE cluster_key = $1
		UNION
		SELECT wallet_address FROM legacy_signups WHERE cluster_key = $1
		ORDER BY wallet_address`, clusterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (s *PgStore) ListTrackedWallets(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wallet_address FROM wallet_linkages
		UNION
		SELECT wallet_address FROM legacy_signups
		ORDER BY wallet_address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
