package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/questforge/internal/domain/model"
)

// MemoryStore implements Store with in-process maps. It is the test double
// and the default backend when no database DSN is configured.
type MemoryStore struct {
	mu sync.RWMutex

	challenges []model.ChallengeDefinition

	progress map[string]model.ChallengeProgress // playerID|challengeKey
	windowed map[string]model.WindowedProgress  // clusterKey|challengeKey|windowKey

	huntEvents []model.HuntEvent
	pvpEvents  []model.PvPEvent

	power     map[string]model.PowerSnapshot    // clusterKey|day
	balances  map[string]model.BalanceSnapshot  // wallet|day
	activity  map[string]model.WalletActivity   // wallet|day
	transfers map[string]model.TransferAggregate
	behavior  map[string]model.BehaviorRecord // clusterKey

	linkages map[string]Linkage // wallet -> direct linkage
	legacy   map[string]Linkage // wallet -> legacy signup

	seasons        []model.Season
	weights        map[int64][]model.SeasonWeight
	seasonProgress map[string]model.SeasonProgress // seasonID|clusterKey

	lbDefs  map[string]model.LeaderboardDefinition
	runs    map[string]model.LeaderboardRun
	entries map[string][]model.LeaderboardEntry // runID -> ranked entries
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		progress:       make(map[string]model.ChallengeProgress),
		windowed:       make(map[string]model.WindowedProgress),
		power:          make(map[string]model.PowerSnapshot),
		balances:       make(map[string]model.BalanceSnapshot),
		activity:       make(map[string]model.WalletActivity),
		transfers:      make(map[string]model.TransferAggregate),
		behavior:       make(map[string]model.BehaviorRecord),
		linkages:       make(map[string]Linkage),
		legacy:         make(map[string]Linkage),
		weights:        make(map[int64][]model.SeasonWeight),
		seasonProgress: make(map[string]model.SeasonProgress),
		lbDefs:         make(map[string]model.LeaderboardDefinition),
		runs:           make(map[string]model.LeaderboardRun),
		entries:        make(map[string][]model.LeaderboardEntry),
	}
}

func pairKey(parts ...string) string { return strings.Join(parts, "|") }

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// --- seeding helpers (configuration normally authored elsewhere) ---

// SeedChallenges replaces the challenge catalog.
func (m *MemoryStore) SeedChallenges(defs []model.ChallengeDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges = append([]model.ChallengeDefinition(nil), defs...)
}

// SeedLinkage adds a direct wallet->cluster linkage row.
func (m *MemoryStore) SeedLinkage(l Linkage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkages[l.WalletAddress] = l
}

// SeedLegacySignup adds a legacy signup row.
func (m *MemoryStore) SeedLegacySignup(l Linkage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy[l.WalletAddress] = l
}

// SeedHuntEvents appends hunt events to the event log.
func (m *MemoryStore) SeedHuntEvents(events ...model.HuntEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.huntEvents = append(m.huntEvents, events...)
}

// SeedPvPEvents appends PvP events to the event log.
func (m *MemoryStore) SeedPvPEvents(events ...model.PvPEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pvpEvents = append(m.pvpEvents, events...)
}

// SeedSeason adds a season with its weights.
func (m *MemoryStore) SeedSeason(s model.Season, weights []model.SeasonWeight) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasons = append(m.seasons, s)
	m.weights[s.ID] = append([]model.SeasonWeight(nil), weights...)
}

// SeedLeaderboardDefinition adds a leaderboard definition.
func (m *MemoryStore) SeedLeaderboardDefinition(d model.LeaderboardDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lbDefs[d.Key] = d
}

// --- ChallengeCatalog ---

func (m *MemoryStore) ListActiveChallenges(ctx context.Context) ([]model.ChallengeDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ChallengeDefinition, 0, len(m.challenges))
	for _, d := range m.challenges {
		if d.IsActive {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// --- ProgressStore ---

func (m *MemoryStore) GetProgress(ctx context.Context, playerID, challengeKey string) (model.ChallengeProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[pairKey(playerID, challengeKey)]
	if !ok {
		return model.ChallengeProgress{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) UpsertProgress(ctx context.Context, p model.ChallengeProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(p.PlayerID, p.ChallengeKey)
	if prev, ok := m.progress[key]; ok && prev.FoundersMarkAchieved {
		// Founder's Mark is one-way regardless of what the caller wrote.
		p.FoundersMarkAchieved = true
		p.FoundersMarkAt = prev.FoundersMarkAt
	}
	m.progress[key] = p
	return nil
}

func (m *MemoryStore) ListProgressByCluster(ctx context.Context, clusterKey string) ([]model.ChallengeProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ChallengeProgress
	for _, p := range m.progress {
		if p.ClusterKey == clusterKey {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeKey < out[j].ChallengeKey })
	return out, nil
}

func (m *MemoryStore) SetFoundersMark(ctx context.Context, playerID, challengeKey string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(playerID, challengeKey)
	p, ok := m.progress[key]
	if !ok {
		return ErrNotFound
	}
	if p.FoundersMarkAchieved {
		return nil
	}
	p.FoundersMarkAchieved = true
	p.FoundersMarkAt = at
	m.progress[key] = p
	return nil
}

func (m *MemoryStore) FoundersMarkKeys(ctx context.Context, clusterKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, p := range m.progress {
		if p.ClusterKey == clusterKey && p.FoundersMarkAchieved {
			out = append(out, p.ChallengeKey)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) SumByMetricPerCluster(ctx context.Context, q ProgressSumQuery) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := func(metricKey string) map[string]float64 {
		sums := make(map[string]float64)
		for _, p := range m.progress {
			if p.ClusterKey == "" {
				continue
			}
			def := m.challengeByKey(p.ChallengeKey)
			if def == nil || def.MetricSource != q.MetricSource || def.MetricKey != metricKey {
				continue
			}
			if p.UpdatedAt.Before(q.From) || p.UpdatedAt.After(q.To) {
				continue
			}
			sums[p.ClusterKey] += p.CurrentValue
		}
		return sums
	}

	sums := matches(q.MetricKey)
	if len(sums) == 0 && q.FallbackMetricKey != "" {
		sums = matches(q.FallbackMetricKey)
	}
	return sums, nil
}

// challengeByKey must be called with the lock held.
func (m *MemoryStore) challengeByKey(key string) *model.ChallengeDefinition {
	for i := range m.challenges {
		if m.challenges[i].Key == key {
			return &m.challenges[i]
		}
	}
	return nil
}

// --- WindowStore ---

func (m *MemoryStore) UpsertWindowed(ctx context.Context, w model.WindowedProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windowed[pairKey(w.ClusterKey, w.ChallengeKey, w.WindowKey)] = w
	return nil
}

func (m *MemoryStore) GetWindowed(ctx context.Context, clusterKey, challengeKey, windowKey string) (model.WindowedProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.windowed[pairKey(clusterKey, challengeKey, windowKey)]
	if !ok {
		return model.WindowedProgress{}, ErrNotFound
	}
	return w, nil
}

// --- EventStore ---

func (m *MemoryStore) HuntEventsInWindow(ctx context.Context, clusterKey string, from, to time.Time) ([]model.HuntEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.HuntEvent
	for _, e := range m.huntEvents {
		if e.ClusterKey == clusterKey && !e.OccurredAt.Before(from) && !e.OccurredAt.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) PvPEventsInWindow(ctx context.Context, clusterKey string, from, to time.Time) ([]model.PvPEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PvPEvent
	for _, e := range m.pvpEvents {
		if e.ClusterKey == clusterKey && !e.OccurredAt.Before(from) && !e.OccurredAt.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

// --- SnapshotStore ---

func (m *MemoryStore) InsertPowerSnapshot(ctx context.Context, s model.PowerSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(s.ClusterKey, dayKey(s.Day))
	if _, ok := m.power[key]; ok {
		return ErrDuplicate
	}
	m.power[key] = s
	return nil
}

func (m *MemoryStore) InsertBalanceSnapshot(ctx context.Context, s model.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(s.WalletAddress, dayKey(s.Day))
	if _, ok := m.balances[key]; ok {
		return ErrDuplicate
	}
	m.balances[key] = s
	return nil
}

func (m *MemoryStore) RecordWalletActivity(ctx context.Context, a model.WalletActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[pairKey(a.WalletAddress, dayKey(a.Day))] = a
	return nil
}

func (m *MemoryStore) InsertTransferAggregate(ctx context.Context, t model.TransferAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(t.ClusterKey, dayKey(t.Day))
	if _, ok := m.transfers[key]; ok {
		return ErrDuplicate
	}
	m.transfers[key] = t
	return nil
}

func (m *MemoryStore) UpsertBehaviorRecord(ctx context.Context, b model.BehaviorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.behavior[b.ClusterKey] = b
	return nil
}

func (m *MemoryStore) LatestPowerSnapshot(ctx context.Context, clusterKey string) (model.PowerSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best model.PowerSnapshot
	found := false
	for _, s := range m.power {
		if s.ClusterKey == clusterKey && (!found || s.Day.After(best.Day)) {
			best = s
			found = true
		}
	}
	if !found {
		return model.PowerSnapshot{}, ErrNotFound
	}
	return best, nil
}

func (m *MemoryStore) LatestBehaviorRecord(ctx context.Context, clusterKey string) (model.BehaviorRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.behavior[clusterKey]
	if !ok {
		return model.BehaviorRecord{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) ClusterBalanceUSD(ctx context.Context, clusterKey string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Latest balance per member wallet, summed.
	latest := make(map[string]model.BalanceSnapshot)
	for _, s := range m.balances {
		if !m.walletInCluster(s.WalletAddress, clusterKey) {
			continue
		}
		if cur, ok := latest[s.WalletAddress]; !ok || s.Day.After(cur.Day) {
			latest[s.WalletAddress] = s
		}
	}
	total := 0.0
	for _, s := range latest {
		total += s.NetWorthUSD
	}
	return total, nil
}

func (m *MemoryStore) ClusterActivity(ctx context.Context, clusterKey string, from, to time.Time) (model.ClusterActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := model.ClusterActivity{ClusterKey: clusterKey}
	days := make(map[string]struct{})
	for _, a := range m.activity {
		if !m.walletInCluster(a.WalletAddress, clusterKey) {
			continue
		}
		if a.Day.Before(from) || a.Day.After(to) {
			continue
		}
		out.Quests += a.QuestsDone
		out.Summons += a.SummonsDone
		days[dayKey(a.Day)] = struct{}{}
	}
	out.DaysActive = len(days)
	return out, nil
}

// walletInCluster must be called with the lock held.
func (m *MemoryStore) walletInCluster(wallet, clusterKey string) bool {
	if l, ok := m.linkages[wallet]; ok && l.ClusterKey == clusterKey {
		return true
	}
	if l, ok := m.legacy[wallet]; ok && l.ClusterKey == clusterKey {
		return true
	}
	return false
}

// --- LinkageStore ---

func (m *MemoryStore) ClusterForWallet(ctx context.Context, wallet string) (Linkage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.linkages[wallet]
	return l, ok, nil
}

func (m *MemoryStore) LegacySignup(ctx context.Context, wallet string) (Linkage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.legacy[wallet]
	return l, ok, nil
}

func (m *MemoryStore) WalletsForCluster(ctx context.Context, clusterKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for w, l := range m.linkages {
		if l.ClusterKey == clusterKey {
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	for w, l := range m.legacy {
		if l.ClusterKey == clusterKey {
			if _, dup := seen[w]; !dup {
				out = append(out, w)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) ListTrackedWallets(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for w := range m.linkages {
		seen[w] = struct{}{}
		out = append(out, w)
	}
	for w := range m.legacy {
		if _, dup := seen[w]; !dup {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- SeasonStore ---

func (m *MemoryStore) ActiveSeason(ctx context.Context) (model.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.seasons {
		if s.IsActive {
			return s, nil
		}
	}
	return model.Season{}, ErrNotFound
}

func (m *MemoryStore) SeasonWeights(ctx context.Context, seasonID int64) ([]model.SeasonWeight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.SeasonWeight(nil), m.weights[seasonID]...), nil
}

func (m *MemoryStore) UpsertSeasonProgress(ctx context.Context, p model.SeasonProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasonProgress[pairKey(formatInt64(p.SeasonID), p.ClusterKey)] = p
	return nil
}

func (m *MemoryStore) GetSeasonProgress(ctx context.Context, seasonID int64, clusterKey string) (model.SeasonProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.seasonProgress[pairKey(formatInt64(seasonID), clusterKey)]
	if !ok {
		return model.SeasonProgress{}, ErrNotFound
	}
	return p, nil
}

// --- LeaderboardStore ---

func (m *MemoryStore) Definition(ctx context.Context, key string) (model.LeaderboardDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.lbDefs[key]
	if !ok {
		return model.LeaderboardDefinition{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryStore) ListActiveDefinitions(ctx context.Context) ([]model.LeaderboardDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defs := make([]model.LeaderboardDefinition, 0, len(m.lbDefs))
	for _, d := range m.lbDefs {
		if d.IsActive {
			defs = append(defs, d)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs, nil
}

func (m *MemoryStore) InsertRun(ctx context.Context, run model.LeaderboardRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; ok {
		return ErrDuplicate
	}
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryStore) FinalizeRun(ctx context.Context, runID string, status model.RunStatus, rowCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.RowCount = rowCount
	m.runs[runID] = run
	return nil
}

func (m *MemoryStore) InsertEntries(ctx context.Context, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	runID := entries[0].RunID
	m.entries[runID] = append(m.entries[runID], entries...)
	return nil
}

func (m *MemoryStore) LatestCompleteRun(ctx context.Context, key string) (model.LeaderboardRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best model.LeaderboardRun
	found := false
	for _, r := range m.runs {
		if r.LeaderboardKey == key && r.Status == model.RunComplete && (!found || r.GeneratedAt.After(best.GeneratedAt)) {
			best = r
			found = true
		}
	}
	if !found {
		return model.LeaderboardRun{}, ErrNotFound
	}
	return best, nil
}

func (m *MemoryStore) EntriesForRun(ctx context.Context, runID string, limit int) ([]model.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := append([]model.LeaderboardEntry(nil), m.entries[runID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryStore) EntryForCluster(ctx context.Context, runID, clusterKey string) (model.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries[runID] {
		if e.ClusterKey == clusterKey {
			return e, nil
		}
	}
	return model.LeaderboardEntry{}, ErrNotFound
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
