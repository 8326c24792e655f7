// Package etl ties the pipeline together: per-wallet runs, cluster runs,
// and the single-flight incremental and daily batch entry points.
package etl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/app/progress"
	"github.com/okian/questforge/internal/domain/behavior"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// SnapshotSource produces the point-in-time activity snapshot for a
// wallet. The production implementation talks to the external game-API
// reader.
type SnapshotSource interface {
	Fetch(ctx context.Context, wallet string) (*model.Snapshot, error)
}

// TierNotifier is the best-effort tier recompute hook fired after a
// cluster's pipeline run.
type TierNotifier interface {
	NotifyTierRecompute(ctx context.Context, clusterKey string)
}

// RunOptions gates the optional loaders of one wallet run.
type RunOptions struct {
	IncludeSnapshots bool
	IncludeTransfers bool
}

// WalletResult reports one wallet's pipeline run.
type WalletResult struct {
	Wallet   string
	Lifetime progress.Result
	Windowed progress.Result
	Errors   []string
}

// Failed reports whether the run recorded any error.
func (r WalletResult) Failed() bool { return len(r.Errors) > 0 }

// BatchResult summarizes a batch over many wallets.
type BatchResult struct {
	Processed int
	Failed    int
	Skipped   bool // true when the single-flight gate rejected the run
	Errors    []string
	Duration  time.Duration
}

// Orchestrator drives the per-wallet pipeline and batch runs.
type Orchestrator struct {
	resolver  *Resolver
	source    SnapshotSource
	lifetime  *progress.LifetimeLoader
	windowed  *progress.WindowedLoader
	snapshots *progress.SnapshotLoader
	notifier  TierNotifier
	links     repository.LinkageStore
	state     *RunState
	logger    logger.Logger
	now       func() time.Time
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTierNotifier sets the tier recompute hook.
func WithTierNotifier(n TierNotifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithClock sets the time source.
func WithClock(c func() time.Time) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.now = c
		}
	}
}

// New creates an orchestrator.
func New(
	resolver *Resolver,
	source SnapshotSource,
	lifetime *progress.LifetimeLoader,
	windowed *progress.WindowedLoader,
	snapshots *progress.SnapshotLoader,
	links repository.LinkageStore,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		resolver:  resolver,
		source:    source,
		lifetime:  lifetime,
		windowed:  windowed,
		snapshots: snapshots,
		links:     links,
		state:     &RunState{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("etl")
	} else {
		o.logger = o.logger.Named("etl")
	}
	return o
}

// State exposes the single-flight gate, shared with the scheduler's manual
// trigger paths.
func (o *Orchestrator) State() *RunState { return o.state }

// RunForWallet executes the full pipeline for one wallet. Failures are
// captured in the result, never raised past the batch loop.
func (o *Orchestrator) RunForWallet(ctx context.Context, wallet string, opts RunOptions) WalletResult {
	started := o.now()
	res := WalletResult{Wallet: wallet}

	wc, err := o.resolver.Resolve(ctx, wallet)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("resolve: %v", err))
		metrics.RecordWalletFailed()
		return res
	}

	snap, err := o.source.Fetch(ctx, wallet)
	if err != nil {
		// Fatal to this wallet only.
		res.Errors = append(res.Errors, fmt.Sprintf("snapshot fetch: %v", err))
		metrics.RecordWalletFailed()
		o.logger.Error(ctx, "snapshot fetch failed",
			logger.String("wallet", wallet),
			logger.Error(err),
		)
		return res
	}

	bm := behavior.Derive(snap)

	// Lifetime progress and activity recording are independent; run them
	// concurrently and join before anything that reads their output.
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		fail = func(stage string, err error) {
			mu.Lock()
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", stage, err))
			mu.Unlock()
			metrics.RecordLoaderError(stage)
		}
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if !wc.HasIdentity() {
			o.logger.Warn(ctx, "no identity resolved, skipping lifetime progress",
				logger.String("wallet", wallet),
			)
			return
		}
		lifetime, err := o.lifetime.Load(ctx, wc, snap, bm)
		if err != nil {
			fail("lifetime", err)
			return
		}
		mu.Lock()
		res.Lifetime = lifetime
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := o.snapshots.RecordActivity(ctx, wc, snap); err != nil {
			fail("activity", err)
		}
	}()

	wg.Wait()

	if wc.HasCluster() {
		windowed, err := o.windowed.Load(ctx, wc, snap, bm)
		if err != nil {
			fail("windowed", err)
		} else {
			res.Windowed = windowed
		}
	} else {
		o.logger.Warn(ctx, "no cluster resolved, skipping windowed progress",
			logger.String("wallet", wallet),
		)
	}

	if opts.IncludeSnapshots {
		if err := o.snapshots.Load(ctx, wc, snap, bm); err != nil {
			fail("snapshots", err)
		}
	}
	if opts.IncludeTransfers {
		if err := o.snapshots.RecordTransfers(ctx, wc, snap); err != nil {
			fail("transfers", err)
		}
	}

	if wc.HasCluster() && o.notifier != nil {
		o.notifier.NotifyTierRecompute(ctx, wc.ClusterKey)
	}

	if res.Failed() {
		metrics.RecordWalletFailed()
	} else {
		metrics.RecordWalletProcessed()
	}
	metrics.ObserveWalletRunDuration(float64(o.now().Sub(started).Milliseconds()))
	return res
}

// RunForCluster runs the pipeline for every member wallet of a cluster,
// sequentially.
func (o *Orchestrator) RunForCluster(ctx context.Context, clusterKey string, opts RunOptions) (BatchResult, error) {
	wallets, err := o.links.WalletsForCluster(ctx, clusterKey)
	if err != nil {
		return BatchResult{}, fmt.Errorf("cluster wallets: %w", err)
	}
	return o.runBatch(ctx, "cluster", wallets, opts), nil
}

// RunIncremental processes every tracked wallet without snapshot or
// transfer recording. A concurrent invocation is logged and skipped.
func (o *Orchestrator) RunIncremental(ctx context.Context) (BatchResult, error) {
	return o.runGated(ctx, "incremental", RunOptions{})
}

// RunDailySnapshot processes every tracked wallet with snapshot and
// transfer recording enabled. Shares the single-flight gate with
// RunIncremental.
func (o *Orchestrator) RunDailySnapshot(ctx context.Context) (BatchResult, error) {
	return o.runGated(ctx, "daily", RunOptions{IncludeSnapshots: true, IncludeTransfers: true})
}

func (o *Orchestrator) runGated(ctx context.Context, mode string, opts RunOptions) (BatchResult, error) {
	if !o.state.TryAcquire() {
		o.logger.Info(ctx, "batch run already in flight, skipping",
			logger.String("mode", mode),
		)
		metrics.RecordSchedulerSkip(mode)
		return BatchResult{Skipped: true}, nil
	}
	defer o.state.Release()

	wallets, err := o.links.ListTrackedWallets(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list wallets: %w", err)
	}
	res := o.runBatch(ctx, mode, wallets, opts)
	metrics.RecordBatchRun(mode)
	metrics.ObserveBatchRunDuration(mode, float64(res.Duration.Milliseconds()))
	return res, nil
}

// runBatch processes wallets sequentially: a deliberate trade of
// throughput for not bursting the external data source.
func (o *Orchestrator) runBatch(ctx context.Context, mode string, wallets []string, opts RunOptions) BatchResult {
	started := o.now()
	var res BatchResult
	for _, w := range wallets {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("batch aborted: %v", ctx.Err()))
			break
		}
		wr := o.RunForWallet(ctx, w, opts)
		if wr.Failed() {
			res.Failed++
			res.Errors = append(res.Errors, wr.Errors...)
		} else {
			res.Processed++
		}
	}
	res.Duration = o.now().Sub(started)
	o.logger.Info(ctx, "batch run finished",
		logger.String("mode", mode),
		logger.Int("processed", res.Processed),
		logger.Int("failed", res.Failed),
	)
	return res
}
