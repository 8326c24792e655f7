package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/behavior"
	"github.com/okian/questforge/internal/domain/metric"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// DefaultWindow is the trailing period windowed progress is computed over.
const DefaultWindow = 180 * 24 * time.Hour

// WindowedLoader recomputes rolling-window progress per cluster. Values are
// non-monotonic by design: a quiet window legitimately lowers them.
type WindowedLoader struct {
	catalog  repository.ChallengeCatalog
	windows  repository.WindowStore
	progress repository.ProgressStore
	events   repository.EventStore
	registry *metric.Registry
	logger   logger.Logger
	window   time.Duration
	now      clock
}

// WindowedOption applies a configuration option to the WindowedLoader.
type WindowedOption func(*WindowedLoader)

// WithWindowedLogger sets a custom logger.
func WithWindowedLogger(l logger.Logger) WindowedOption {
	return func(ld *WindowedLoader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithWindowLength overrides the trailing window length.
func WithWindowLength(d time.Duration) WindowedOption {
	return func(ld *WindowedLoader) {
		if d > 0 {
			ld.window = d
		}
	}
}

// WithWindowedClock sets the time source.
func WithWindowedClock(c func() time.Time) WindowedOption {
	return func(ld *WindowedLoader) {
		if c != nil {
			ld.now = c
		}
	}
}

// NewWindowedLoader creates a windowed progress loader.
func NewWindowedLoader(
	catalog repository.ChallengeCatalog,
	windows repository.WindowStore,
	progress repository.ProgressStore,
	events repository.EventStore,
	registry *metric.Registry,
	opts ...WindowedOption,
) *WindowedLoader {
	ld := &WindowedLoader{
		catalog:  catalog,
		windows:  windows,
		progress: progress,
		events:   events,
		registry: registry,
		window:   DefaultWindow,
		now:      defaultClock,
	}
	for _, opt := range opts {
		opt(ld)
	}
	ld.logger = namedLogger(ld.logger, "windowed")
	return ld
}

// Load recomputes windowed progress for every active non-prestige
// challenge. Requires a resolved cluster; the caller guards that.
func (ld *WindowedLoader) Load(ctx context.Context, wc model.WalletContext, snap *model.Snapshot, bm behavior.Metrics) (Result, error) {
	defs, err := ld.catalog.ListActiveChallenges(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list challenges: %w", err)
	}

	var res Result
	now := ld.now()
	from := now.Add(-ld.window)
	for i := range defs {
		def := &defs[i]
		if def.IsPrestige() {
			continue
		}

		value, ok, err := ld.windowValue(ctx, wc.ClusterKey, def, snap, bm, from, now)
		if err != nil {
			return res, fmt.Errorf("challenge %s: %w", def.Key, err)
		}
		if !ok {
			metrics.RecordChallengeSkipped()
			res.Skipped++
			continue
		}

		candidate := def.TierForValue(value)
		row := model.WindowedProgress{
			ClusterKey:   wc.ClusterKey,
			ChallengeKey: def.Key,
			WindowKey:    model.WindowKey180d,
			Value:        value,
			ComputedAt:   now,
		}
		if candidate != nil {
			row.TierCode = candidate.TierCode
		}
		if err := ld.windows.UpsertWindowed(ctx, row); err != nil {
			return res, fmt.Errorf("challenge %s: %w", def.Key, err)
		}

		if top := def.TopTier(); top != nil && candidate != nil && candidate.TierCode == top.TierCode {
			if err := ld.markFounders(ctx, wc, def.Key, now); err != nil {
				return res, fmt.Errorf("challenge %s: %w", def.Key, err)
			}
		}
		res.Processed++
	}
	return res, nil
}

// windowValue computes the challenge value for the window. Event-backed
// sources are recomputed strictly from events inside [from, to]; all other
// sources take the current lifetime value, a deliberate approximation kept
// from the original design.
func (ld *WindowedLoader) windowValue(ctx context.Context, clusterKey string, def *model.ChallengeDefinition, snap *model.Snapshot, bm behavior.Metrics, from, to time.Time) (float64, bool, error) {
	if !def.EventBacked() {
		extractor, err := ld.registry.Resolve(def.MetricSource, def.MetricKey)
		if err != nil {
			ld.logger.Warn(ctx, "metric not registered, skipping challenge",
				logger.String("challenge", def.Key),
				logger.String("source", def.MetricSource),
				logger.String("key", def.MetricKey),
			)
			return 0, false, nil
		}
		return extractor(snap, bm), true, nil
	}

	switch def.MetricSource {
	case model.SourceHuntEvents:
		events, err := ld.events.HuntEventsInWindow(ctx, clusterKey, from, to)
		if err != nil {
			return 0, false, err
		}
		return huntValue(def.MetricKey, events)
	case model.SourcePvPEvents:
		events, err := ld.events.PvPEventsInWindow(ctx, clusterKey, from, to)
		if err != nil {
			return 0, false, err
		}
		return pvpValue(def.MetricKey, events)
	}
	return 0, false, nil
}

func huntValue(key string, events []model.HuntEvent) (float64, bool, error) {
	switch key {
	case "kills":
		total := 0
		for _, e := range events {
			if e.Kind == model.HuntKindKill {
				total += e.Count
			}
		}
		return float64(total), true, nil
	case "boss_kills":
		total := 0
		for _, e := range events {
			if e.Kind == model.HuntKindBoss {
				total += e.Count
			}
		}
		return float64(total), true, nil
	case "boss_slain":
		for _, e := range events {
			if e.Kind == model.HuntKindBoss && e.Count > 0 {
				return 1, true, nil
			}
		}
		return 0, true, nil
	}
	return 0, false, nil
}

func pvpValue(key string, events []model.PvPEvent) (float64, bool, error) {
	switch key {
	case "wins":
		wins := 0
		for _, e := range events {
			if e.Outcome == model.PvPWin {
				wins++
			}
		}
		return float64(wins), true, nil
	case "win_streak":
		best, run := 0, 0
		for _, e := range events {
			if e.Outcome == model.PvPWin {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		return float64(best), true, nil
	}
	return 0, false, nil
}

// markFounders sets the one-way Founder's Mark on the lifetime row,
// creating the row when the identity has no lifetime progress yet.
func (ld *WindowedLoader) markFounders(ctx context.Context, wc model.WalletContext, challengeKey string, now time.Time) error {
	if wc.PlayerID == "" {
		return nil
	}
	prev, err := ld.progress.GetProgress(ctx, wc.PlayerID, challengeKey)
	if err == nil && prev.FoundersMarkAchieved {
		return nil
	}

	err = ld.progress.SetFoundersMark(ctx, wc.PlayerID, challengeKey, now)
	if errors.Is(err, repository.ErrNotFound) {
		err = ld.progress.UpsertProgress(ctx, model.ChallengeProgress{
			PlayerID:             wc.PlayerID,
			ClusterKey:           wc.ClusterKey,
			ChallengeKey:         challengeKey,
			FoundersMarkAchieved: true,
			FoundersMarkAt:       now,
			UpdatedAt:            now,
		})
	}
	if err != nil {
		return err
	}
	metrics.RecordFoundersMark()
	ld.logger.Info(ctx, "founder's mark earned",
		logger.String("player", wc.PlayerID),
		logger.String("challenge", challengeKey),
	)
	return nil
}
