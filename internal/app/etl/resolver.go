package etl

import (
	"context"
	"fmt"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
)

// Strategy is one linkage lookup in the ordered fallback chain. Lookup
// returns found=false when the table has no row, which moves resolution to
// the next strategy.
type Strategy struct {
	Name   string
	Lookup func(ctx context.Context, wallet string) (repository.Linkage, bool, error)
}

// Resolver maps a wallet address to its identity triple by trying each
// strategy in order; the first hit wins.
type Resolver struct {
	strategies []Strategy
	logger     logger.Logger
}

// NewResolver builds the default chain: direct wallet linkage first, then
// the legacy signup table.
func NewResolver(links repository.LinkageStore, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Get()
	}
	return &Resolver{
		strategies: []Strategy{
			{Name: "wallet_linkage", Lookup: links.ClusterForWallet},
			{Name: "legacy_signup", Lookup: links.LegacySignup},
		},
		logger: log.Named("resolver"),
	}
}

// Resolve produces the wallet context for one run. An unresolved cluster
// is not an error: the context is returned with ClusterKey empty and
// dependent loaders no-op on it.
func (r *Resolver) Resolve(ctx context.Context, wallet string) (model.WalletContext, error) {
	for _, st := range r.strategies {
		link, found, err := st.Lookup(ctx, wallet)
		if err != nil {
			return model.WalletContext{}, fmt.Errorf("strategy %s: %w", st.Name, err)
		}
		if !found {
			continue
		}
		return model.WalletContext{
			WalletAddress: wallet,
			UserID:        link.UserID,
			ClusterKey:    link.ClusterKey,
			PlayerID:      link.PlayerID,
		}, nil
	}
	r.logger.Warn(ctx, "wallet resolved no identity",
		logger.String("wallet", wallet),
	)
	return model.WalletContext{WalletAddress: wallet}, nil
}
