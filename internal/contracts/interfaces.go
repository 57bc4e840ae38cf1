package contracts

import "context"

// ⭐ SSOT: 핵심 협력자 인터페이스 정의는 여기서만

// SnapshotStore provides keyed lookup of per-symbol market observations
// for a pricing date. Implementations must replace or remove a cached
// snapshot atomically, never partially.
type SnapshotStore interface {
	// GetObservation returns the observation for a symbol on a date.
	// Returns ErrNotFound when the symbol has no row for that date.
	GetObservation(ctx context.Context, date, symbol string) (*Observation, error)

	// GetSnapshot returns the full snapshot for a date
	GetSnapshot(ctx context.Context, date string) (*Snapshot, error)

	// ListDates returns available pricing dates, most recent first
	ListDates(ctx context.Context) ([]string, error)

	// ListSymbols returns the tradable symbols for a date with summaries
	ListSymbols(ctx context.Context, date string) ([]SymbolSummary, error)

	// MarketIndices returns snapshot-level market parameters for a date
	MarketIndices(ctx context.Context, date string) (MarketIndices, error)
}

// YieldModel is the opaque trained regressor. One call scores a whole
// matrix whose columns match the persisted feature schema.
// 훈련 과정은 이 시스템 범위 밖
type YieldModel interface {
	Predict(ctx context.Context, columns []string, rows [][]float64) ([]float64, error)
}
