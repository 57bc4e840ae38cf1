package snapshot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fcnquote/internal/contracts"
)

// Repository persists market snapshots in PostgreSQL
// ⭐ SSOT: 시장 스냅샷 영속화는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new snapshot repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Init creates the observations table if it does not exist
func (r *Repository) Init(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS market_observations (
			snapshot_date   DATE NOT NULL,
			symbol          TEXT NOT NULL,
			px_last         DOUBLE PRECISION,
			put_iv_3m       DOUBLE PRECISION,
			call_iv_2m_25d  DOUBLE PRECISION,
			put_iv_2m_25d   DOUBLE PRECISION,
			hist_put_iv     DOUBLE PRECISION,
			vol_stddev      DOUBLE PRECISION,
			vol_90d         DOUBLE PRECISION,
			vol_percentile  DOUBLE PRECISION,
			chg_pct_1yr     DOUBLE PRECISION,
			corr_coef       DOUBLE PRECISION,
			dividend_yield  DOUBLE PRECISION,
			PRIMARY KEY (snapshot_date, symbol)
		)
	`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create observations table: %w", err)
	}
	return nil
}

// GetSnapshot loads every observation row for a pricing date
func (r *Repository) GetSnapshot(ctx context.Context, date string) (*contracts.Snapshot, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT symbol, px_last, put_iv_3m, call_iv_2m_25d, put_iv_2m_25d,
		       hist_put_iv, vol_stddev, vol_90d, vol_percentile,
		       chg_pct_1yr, corr_coef, dividend_yield
		FROM market_observations
		WHERE snapshot_date = $1
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &contracts.Snapshot{Date: CanonicalDate(date)}
	for rows.Next() {
		var (
			o contracts.Observation
			m [11]*float64
		)
		if err := rows.Scan(&o.Symbol, &m[0], &m[1], &m[2], &m[3], &m[4], &m[5], &m[6], &m[7], &m[8], &m[9], &m[10]); err != nil {
			return nil, err
		}
		o.Px = contracts.NaNIfNil(m[0])
		o.PutIV3M = contracts.NaNIfNil(m[1])
		o.CallIV2M25D = contracts.NaNIfNil(m[2])
		o.PutIV2M25D = contracts.NaNIfNil(m[3])
		o.HistPutIV = contracts.NaNIfNil(m[4])
		o.VolStdDev = contracts.NaNIfNil(m[5])
		o.Vol90D = contracts.NaNIfNil(m[6])
		o.VolPercentile = contracts.NaNIfNil(m[7])
		o.ChgPct1Yr = contracts.NaNIfNil(m[8])
		o.CorrCoef = contracts.NaNIfNil(m[9])
		o.DividendYield = contracts.NaNIfNil(m[10])
		snap.Rows = append(snap.Rows, &o)
	}
	return snap, rows.Err()
}

// ListDates returns available pricing dates (YYYYMMDD), most recent first
func (r *Repository) ListDates(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT snapshot_date
		FROM market_observations
		ORDER BY snapshot_date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, day.Format("20060102"))
	}
	return dates, rows.Err()
}

// SaveSnapshot atomically replaces all rows for a date. 부분 갱신 금지:
// 같은 날짜의 기존 행을 지우고 새 행을 넣는 단일 트랜잭션
func (r *Repository) SaveSnapshot(ctx context.Context, date string, observations []*contracts.Observation) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM market_observations WHERE snapshot_date = $1`, day); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	insert := `
		INSERT INTO market_observations (
			snapshot_date, symbol, px_last, put_iv_3m, call_iv_2m_25d,
			put_iv_2m_25d, hist_put_iv, vol_stddev, vol_90d,
			vol_percentile, chg_pct_1yr, corr_coef, dividend_yield
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	for _, o := range observations {
		if o == nil || strings.TrimSpace(o.Symbol) == "" {
			continue
		}
		batch.Queue(insert, day, o.Symbol,
			nullable(o.Px), nullable(o.PutIV3M), nullable(o.CallIV2M25D),
			nullable(o.PutIV2M25D), nullable(o.HistPutIV), nullable(o.VolStdDev),
			nullable(o.Vol90D), nullable(o.VolPercentile), nullable(o.ChgPct1Yr),
			nullable(o.CorrCoef), nullable(o.DividendYield),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert snapshot rows: %w", err)
	}

	return tx.Commit(ctx)
}

// DeleteSnapshot removes all rows for a date
func (r *Repository) DeleteSnapshot(ctx context.Context, date string) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM market_observations WHERE snapshot_date = $1`, day)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNoSnapshot
	}
	return nil
}

// nullable maps NaN to SQL NULL
func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// CanonicalDate normalizes YYYY-MM-DD to YYYYMMDD
func CanonicalDate(date string) string {
	return strings.ReplaceAll(strings.TrimSpace(date), "-", "")
}

// parseDate parses a canonical or dashed date string
func parseDate(date string) (time.Time, error) {
	day, err := time.Parse("20060102", CanonicalDate(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pricing date %q: %w", date, err)
	}
	return day, nil
}
