package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
)

// defaultFlagPriority is the fixed priority list of challenge keys whose
// Founder's Mark surfaces as an entry flag.
var defaultFlagPriority = []string{
	"mythic_collector",
	"boss_slayer",
	"arena_champion",
	"garden_whale",
}

// maxFlagsPerEntry bounds how many flags one entry carries.
const maxFlagsPerEntry = 3

// Entry is one ranked row in the read shape.
type Entry struct {
	Rank       int      `json:"rank"`
	ClusterKey string   `json:"cluster_id"`
	Score      float64  `json:"score"`
	Flags      []string `json:"flags"`
}

// View is the read shape for one leaderboard key.
type View struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TimeWindow  string    `json:"time_window"`
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Entries     []Entry   `json:"entries"`
}

// Reader serves the latest COMPLETE run per key.
type Reader struct {
	store        repository.LeaderboardStore
	progress     repository.ProgressStore
	flagPriority []string
	maxEntries   int
}

// ReaderOption applies a configuration option to the Reader.
type ReaderOption func(*Reader)

// WithFlagPriority overrides the flag priority list.
func WithFlagPriority(keys []string) ReaderOption {
	return func(r *Reader) {
		if len(keys) > 0 {
			r.flagPriority = keys
		}
	}
}

// WithReaderMaxEntries caps the entries a view returns.
func WithReaderMaxEntries(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// NewReader creates a leaderboard reader.
func NewReader(store repository.LeaderboardStore, progress repository.ProgressStore, opts ...ReaderOption) *Reader {
	r := &Reader{
		store:        store,
		progress:     progress,
		flagPriority: defaultFlagPriority,
		maxEntries:   DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// View returns the latest COMPLETE run for key. A definition with no
// completed run yields an empty-entries view, not an error.
func (r *Reader) View(ctx context.Context, key string) (View, error) {
	def, err := r.store.Definition(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return View{}, fmt.Errorf("%w: %s", ErrUnknownLeaderboard, key)
		}
		return View{}, err
	}

	view := View{
		Key:         def.Key,
		Name:        def.Name,
		Description: def.Description,
		TimeWindow:  string(def.TimeWindow),
		Entries:     []Entry{},
	}

	run, err := r.store.LatestCompleteRun(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return view, nil
		}
		return View{}, err
	}
	view.RunID = run.ID
	view.GeneratedAt = run.GeneratedAt

	rows, err := r.store.EntriesForRun(ctx, run.ID, r.maxEntries)
	if err != nil {
		return View{}, err
	}
	for _, row := range rows {
		flags, err := r.flagsFor(ctx, row.ClusterKey)
		if err != nil {
			return View{}, err
		}
		view.Entries = append(view.Entries, Entry{
			Rank:       row.Rank,
			ClusterKey: row.ClusterKey,
			Score:      row.Score,
			Flags:      flags,
		})
	}
	return view, nil
}

// MyRank returns one cluster's entry in the latest COMPLETE run for key.
func (r *Reader) MyRank(ctx context.Context, key, clusterKey string) (Entry, error) {
	if _, err := r.store.Definition(ctx, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Entry{}, fmt.Errorf("%w: %s", ErrUnknownLeaderboard, key)
		}
		return Entry{}, err
	}
	run, err := r.store.LatestCompleteRun(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Entry{}, ErrNoCompleteRun
		}
		return Entry{}, err
	}
	row, err := r.store.EntryForCluster(ctx, run.ID, clusterKey)
	if err != nil {
		return Entry{}, err
	}
	flags, err := r.flagsFor(ctx, clusterKey)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Rank: row.Rank, ClusterKey: row.ClusterKey, Score: row.Score, Flags: flags}, nil
}

// flagsFor intersects the cluster's Founder's Mark keys with the priority
// list, in priority order.
func (r *Reader) flagsFor(ctx context.Context, clusterKey string) ([]string, error) {
	earned, err := r.progress.FoundersMarkKeys(ctx, clusterKey)
	if err != nil {
		return nil, err
	}
	if len(earned) == 0 {
		return []string{}, nil
	}
	set := make(map[string]struct{}, len(earned))
	for _, k := range earned {
		set[k] = struct{}{}
	}
	flags := []string{}
	for _, k := range r.flagPriority {
		if _, ok := set[k]; ok {
			flags = append(flags, k)
			if len(flags) == maxFlagsPerEntry {
				break
			}
		}
	}
	return flags, nil
}
