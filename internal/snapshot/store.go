package snapshot

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/pkg/logger"
	"github.com/wonny/fcnquote/pkg/redis"
)

// Store serves snapshots from an in-process cache backed by the
// repository, with an optional Redis second tier
// ⭐ SSOT: 스냅샷 조회 경로는 Store 하나로 통일
type Store struct {
	repo   *Repository
	cache  *redis.Cache
	logger *logger.Logger

	mu    sync.RWMutex
	snaps map[string]*snapEntry
	dates []string
}

// snapEntry holds one fully loaded snapshot with a symbol index.
// Entries are immutable after construction and replaced whole
type snapEntry struct {
	snap  *contracts.Snapshot
	index map[string]*contracts.Observation
}

// NewStore creates a new snapshot store
func NewStore(repo *Repository, cache *redis.Cache, log *logger.Logger) *Store {
	return &Store{
		repo:   repo,
		cache:  cache,
		logger: log,
		snaps:  make(map[string]*snapEntry),
	}
}

// GetObservation returns one symbol's row for a pricing date.
// Returns contracts.ErrNotFound when the symbol is absent
func (s *Store) GetObservation(ctx context.Context, date, symbol string) (*contracts.Observation, error) {
	entry, err := s.entry(ctx, date)
	if err != nil {
		return nil, err
	}
	o, ok := entry.index[symbol]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return o, nil
}

// GetSnapshot returns the full snapshot for a pricing date
func (s *Store) GetSnapshot(ctx context.Context, date string) (*contracts.Snapshot, error) {
	entry, err := s.entry(ctx, date)
	if err != nil {
		return nil, err
	}
	return entry.snap, nil
}

// ListDates returns available pricing dates, most recent first
func (s *Store) ListDates(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	cached := s.dates
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var dates []string
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, redis.DatesKey(), &dates); err == nil && hit && len(dates) > 0 {
			s.setDates(dates)
			return dates, nil
		}
	}

	dates, err := s.repo.ListDates(ctx)
	if err != nil {
		return nil, err
	}
	s.setDates(dates)

	if s.cache != nil && len(dates) > 0 {
		if err := s.cache.Set(ctx, redis.DatesKey(), dates, redis.TTLMedium); err != nil {
			s.logger.WithError(err).Warn("Failed to cache snapshot dates")
		}
	}
	return dates, nil
}

// ListSymbols returns tradable symbols for a date with their headline
// metrics. Index rows and rows without a price are excluded
func (s *Store) ListSymbols(ctx context.Context, date string) ([]contracts.SymbolSummary, error) {
	entry, err := s.entry(ctx, date)
	if err != nil {
		return nil, err
	}

	summaries := make([]contracts.SymbolSummary, 0, len(entry.snap.Rows))
	for _, o := range entry.snap.Rows {
		if isIndexSymbol(o.Symbol) || math.IsNaN(o.Px) {
			continue
		}
		summaries = append(summaries, contracts.SymbolSummary{
			Code:   o.Symbol,
			Price:  contracts.NilIfNaN(o.Px),
			IV:     contracts.NilIfNaN(o.PutIV3M),
			Vol90D: contracts.NilIfNaN(o.Vol90D),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Code < summaries[j].Code })
	return summaries, nil
}

// MarketIndices extracts SOFR and VIX levels from the snapshot,
// falling back to defaults when either row is missing
func (s *Store) MarketIndices(ctx context.Context, date string) (contracts.MarketIndices, error) {
	entry, err := s.entry(ctx, date)
	if err != nil {
		return contracts.MarketIndices{}, err
	}

	indices := contracts.DefaultMarketIndices()
	for _, o := range entry.snap.Rows {
		upper := strings.ToUpper(o.Symbol)
		switch {
		case strings.Contains(upper, "SOFR"):
			if !math.IsNaN(o.Px) {
				indices.SOFRRate = o.Px
			}
		case strings.Contains(upper, "VIX"):
			if !math.IsNaN(o.Px) {
				indices.VIXIndex = o.Px
			}
		}
	}
	return indices, nil
}

// Put stores an uploaded snapshot and refreshes the caches
func (s *Store) Put(ctx context.Context, date string, observations []*contracts.Observation) error {
	canon := CanonicalDate(date)
	if err := s.repo.SaveSnapshot(ctx, canon, observations); err != nil {
		return err
	}
	s.Invalidate(ctx, canon)
	return nil
}

// Delete removes a snapshot and invalidates the caches
func (s *Store) Delete(ctx context.Context, date string) error {
	canon := CanonicalDate(date)
	if err := s.repo.DeleteSnapshot(ctx, canon); err != nil {
		return err
	}
	s.Invalidate(ctx, canon)
	return nil
}

// Invalidate drops a date from both cache tiers
func (s *Store) Invalidate(ctx context.Context, date string) {
	canon := CanonicalDate(date)

	s.mu.Lock()
	delete(s.snaps, canon)
	s.dates = nil
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, redis.SnapshotKey(canon)); err != nil {
			s.logger.WithError(err).WithField("date", canon).Warn("Failed to invalidate snapshot cache")
		}
		if err := s.cache.Delete(ctx, redis.DatesKey()); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate dates cache")
		}
	}
}

// Warm preloads a snapshot into the in-process cache
func (s *Store) Warm(ctx context.Context, date string) error {
	_, err := s.entry(ctx, date)
	return err
}

// entry resolves the cached snapshot for a date, loading it on miss
func (s *Store) entry(ctx context.Context, date string) (*snapEntry, error) {
	canon := CanonicalDate(date)

	s.mu.RLock()
	entry, ok := s.snaps[canon]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	snap, err := s.load(ctx, canon)
	if err != nil {
		return nil, err
	}
	if len(snap.Rows) == 0 {
		return nil, contracts.ErrNoSnapshot
	}

	entry = newEntry(snap)
	s.mu.Lock()
	s.snaps[canon] = entry
	s.mu.Unlock()
	return entry, nil
}

// load fetches from Redis first, the repository second
func (s *Store) load(ctx context.Context, canon string) (*contracts.Snapshot, error) {
	if s.cache != nil {
		var snap contracts.Snapshot
		if hit, err := s.cache.Get(ctx, redis.SnapshotKey(canon), &snap); err == nil && hit && len(snap.Rows) > 0 {
			return &snap, nil
		}
	}

	snap, err := s.repo.GetSnapshot(ctx, canon)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(snap.Rows) > 0 {
		if err := s.cache.Set(ctx, redis.SnapshotKey(canon), snap, redis.TTLDaily); err != nil {
			s.logger.WithError(err).WithField("date", canon).Warn("Failed to cache snapshot")
		}
	}
	return snap, nil
}

func (s *Store) setDates(dates []string) {
	s.mu.Lock()
	s.dates = dates
	s.mu.Unlock()
}

func newEntry(snap *contracts.Snapshot) *snapEntry {
	index := make(map[string]*contracts.Observation, len(snap.Rows))
	for _, o := range snap.Rows {
		index[o.Symbol] = o
	}
	return &snapEntry{snap: snap, index: index}
}

// isIndexSymbol reports whether a row describes a market index
// rather than a tradable underlying
func isIndexSymbol(symbol string) bool {
	upper := strings.ToUpper(symbol)
	return strings.HasSuffix(upper, " INDEX") ||
		strings.Contains(upper, "SOFR") ||
		strings.Contains(upper, "VIX")
}
