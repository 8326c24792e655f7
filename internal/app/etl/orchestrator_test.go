package etl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/app/progress"
	"github.com/okian/questforge/internal/domain/metric"
	"github.com/okian/questforge/internal/domain/model"
)

type fakeSource struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (f *fakeSource) Fetch(ctx context.Context, wallet string) (*model.Snapshot, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, wallet)
	f.mu.Unlock()
	if err, ok := f.fail[wallet]; ok {
		return nil, err
	}
	return &model.Snapshot{
		WalletAddress: wallet,
		Heroes:        []model.Hero{{ID: "h1", Rarity: model.RarityMythic, Level: 20}},
		Balances:      model.TokenBalances{NetWorthUSD: 500, GoldUSD: 100},
		Quests:        model.QuestSummary{ProfQuests30d: 40},
		Summons:       model.SummonSummary{Last30d: 2},
	}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	clusters []string
}

func (n *recordingNotifier) NotifyTierRecompute(_ context.Context, clusterKey string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clusters = append(n.clusters, clusterKey)
}

func newTestOrchestrator(store *repository.MemoryStore, source SnapshotSource, opts ...Option) *Orchestrator {
	registry := metric.NewRegistry()
	now := func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	lifetime := progress.NewLifetimeLoader(store, store, registry, progress.WithLifetimeClock(now))
	windowed := progress.NewWindowedLoader(store, store, store, store, registry, progress.WithWindowedClock(now))
	snapshots := progress.NewSnapshotLoader(store, progress.WithSnapshotClock(now))
	return New(NewResolver(store, nil), source, lifetime, windowed, snapshots, store, opts...)
}

func seedTrackedCluster(store *repository.MemoryStore) {
	store.SeedChallenges([]model.ChallengeDefinition{
		{
			Key:          "mythic_collector",
			MetricSource: model.SourceHeroes,
			MetricKey:    "mythic_count",
			IsActive:     true,
			Tiers:        []model.ChallengeTier{{TierCode: "BRONZE", ThresholdValue: 1, SortOrder: 1}},
		},
	})
	store.SeedLinkage(repository.Linkage{
		WalletAddress: "0xaaa", UserID: "u1", ClusterKey: "c1", PlayerID: "p1",
	})
	store.SeedLinkage(repository.Linkage{
		WalletAddress: "0xbbb", UserID: "u2", ClusterKey: "c1", PlayerID: "p2",
	})
}

func TestRunForWallet(t *testing.T) {
	convey.Convey("Given an orchestrator over a seeded store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedTrackedCluster(store)
		source := &fakeSource{}
		notifier := &recordingNotifier{}
		orch := newTestOrchestrator(store, source, WithTierNotifier(notifier))

		convey.Convey("When running a linked wallet", func() {
			res := orch.RunForWallet(ctx, "0xaaa", RunOptions{})

			convey.Convey("Then lifetime and windowed progress should be written", func() {
				convey.So(res.Failed(), convey.ShouldBeFalse)
				convey.So(res.Lifetime.Processed, convey.ShouldEqual, 1)

				p, err := store.GetProgress(ctx, "p1", "mythic_collector")
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.CurrentValue, convey.ShouldEqual, 1)
			})

			convey.Convey("Then the tier notifier should fire for the cluster", func() {
				convey.So(notifier.clusters, convey.ShouldResemble, []string{"c1"})
			})

			convey.Convey("Then no point-in-time records should be written", func() {
				_, err := store.LatestPowerSnapshot(ctx, "c1")
				convey.So(err, convey.ShouldEqual, repository.ErrNotFound)
			})
		})

		convey.Convey("When running with snapshots and transfers enabled", func() {
			res := orch.RunForWallet(ctx, "0xaaa", RunOptions{IncludeSnapshots: true, IncludeTransfers: true})

			convey.Convey("Then the daily records should be written", func() {
				convey.So(res.Failed(), convey.ShouldBeFalse)
				power, err := store.LatestPowerSnapshot(ctx, "c1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(power.MythicHeroes, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the snapshot fetch fails", func() {
			source.fail = map[string]error{"0xaaa": errors.New("upstream 502")}
			res := orch.RunForWallet(ctx, "0xaaa", RunOptions{})

			convey.Convey("Then the wallet fails without touching the store", func() {
				convey.So(res.Failed(), convey.ShouldBeTrue)
				convey.So(res.Errors[0], convey.ShouldContainSubstring, "snapshot fetch")
				_, err := store.GetProgress(ctx, "p1", "mythic_collector")
				convey.So(err, convey.ShouldEqual, repository.ErrNotFound)
			})
		})

		convey.Convey("When the wallet resolves no identity", func() {
			res := orch.RunForWallet(ctx, "0xunlinked", RunOptions{})

			convey.Convey("Then the run succeeds with loaders skipped", func() {
				convey.So(res.Failed(), convey.ShouldBeFalse)
				convey.So(res.Lifetime.Processed, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestBatchRuns(t *testing.T) {
	convey.Convey("Given an orchestrator over tracked wallets", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedTrackedCluster(store)
		source := &fakeSource{}
		orch := newTestOrchestrator(store, source)

		convey.Convey("When running an incremental batch", func() {
			res, err := orch.RunIncremental(ctx)

			convey.Convey("Then every tracked wallet should be processed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Skipped, convey.ShouldBeFalse)
				convey.So(res.Processed, convey.ShouldEqual, 2)
				convey.So(res.Failed, convey.ShouldEqual, 0)
				convey.So(source.fetched, convey.ShouldResemble, []string{"0xaaa", "0xbbb"})
			})

			convey.Convey("Then the gate should be free afterwards", func() {
				convey.So(orch.State().Running(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When one wallet fails mid-batch", func() {
			source.fail = map[string]error{"0xaaa": errors.New("boom")}
			res, err := orch.RunIncremental(ctx)

			convey.Convey("Then the failure should be recorded, not propagated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Processed, convey.ShouldEqual, 1)
				convey.So(res.Failed, convey.ShouldEqual, 1)
				convey.So(len(res.Errors), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a run already holds the gate", func() {
			convey.So(orch.State().TryAcquire(), convey.ShouldBeTrue)
			res, err := orch.RunIncremental(ctx)
			orch.State().Release()

			convey.Convey("Then the second run should be skipped, not queued", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Skipped, convey.ShouldBeTrue)
				convey.So(res.Processed, convey.ShouldEqual, 0)
				convey.So(source.fetched, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the daily run completes", func() {
			res, err := orch.RunDailySnapshot(ctx)

			convey.Convey("Then snapshot records should exist for the cluster", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Processed, convey.ShouldEqual, 2)
				_, err := store.LatestPowerSnapshot(ctx, "c1")
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled mid-batch", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			res, err := orch.RunIncremental(cancelled)

			convey.Convey("Then the batch should abort without processing", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Processed, convey.ShouldEqual, 0)
				convey.So(len(res.Errors), convey.ShouldEqual, 1)
				convey.So(res.Errors[0], convey.ShouldContainSubstring, "batch aborted")
			})
		})
	})
}

func TestRunForCluster(t *testing.T) {
	convey.Convey("Given a cluster with member wallets", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedTrackedCluster(store)
		source := &fakeSource{}
		orch := newTestOrchestrator(store, source)

		convey.Convey("When running the cluster", func() {
			res, err := orch.RunForCluster(ctx, "c1", RunOptions{})

			convey.Convey("Then every member wallet should be processed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Processed, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the cluster has no members", func() {
			res, err := orch.RunForCluster(ctx, "ghost", RunOptions{})

			convey.Convey("Then the batch should be empty", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Processed, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestRunStateGate(t *testing.T) {
	convey.Convey("Given a fresh run state", t, func() {
		var state RunState

		convey.Convey("When acquired concurrently", func() {
			const attempts = 16
			wins := make(chan bool, attempts)
			var wg sync.WaitGroup
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					wins <- state.TryAcquire()
				}()
			}
			wg.Wait()
			close(wins)

			won := 0
			for w := range wins {
				if w {
					won++
				}
			}

			convey.Convey("Then exactly one acquisition should win", func() {
				convey.So(won, convey.ShouldEqual, 1)
				convey.So(state.Running(), convey.ShouldBeTrue)
			})

			convey.Convey("And releasing should free the gate", func() {
				state.Release()
				convey.So(state.Running(), convey.ShouldBeFalse)
				convey.So(state.TryAcquire(), convey.ShouldBeTrue)
			})
		})
	})
}
