package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/features"
	"github.com/wonny/fcnquote/internal/quote"
	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/logger"
)

// fakeStore serves a fixed set of observations for any date
type fakeStore struct {
	rows  map[string]*contracts.Observation
	dates []string
}

func (s *fakeStore) GetObservation(ctx context.Context, date, symbol string) (*contracts.Observation, error) {
	o, ok := s.rows[symbol]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return o, nil
}

func (s *fakeStore) GetSnapshot(ctx context.Context, date string) (*contracts.Snapshot, error) {
	snap := &contracts.Snapshot{Date: date}
	for _, o := range s.rows {
		snap.Rows = append(snap.Rows, o)
	}
	return snap, nil
}

func (s *fakeStore) ListDates(ctx context.Context) ([]string, error) {
	return s.dates, nil
}

func (s *fakeStore) ListSymbols(ctx context.Context, date string) ([]contracts.SymbolSummary, error) {
	return nil, nil
}

func (s *fakeStore) MarketIndices(ctx context.Context, date string) (contracts.MarketIndices, error) {
	return contracts.DefaultMarketIndices(), nil
}

// fakeModel returns a constant coupon per row
type fakeModel struct{}

func (m *fakeModel) Predict(ctx context.Context, columns []string, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = 10.5
	}
	return out, nil
}

func newTestQuoteHandler(t *testing.T) *QuoteHandler {
	t.Helper()

	iv := func(symbol string, v float64) *contracts.Observation {
		o := contracts.EmptyObservation(symbol)
		o.Px = 100
		o.PutIV3M = v
		return o
	}

	store := &fakeStore{
		dates: []string{"20260827"},
		rows: map[string]*contracts.Observation{
			"NVDA": iv("NVDA", 55),
			"TSLA": iv("TSLA", 48),
		},
	}

	cfg := &config.Config{LogLevel: "error", LogFormat: "json"}
	log := logger.New(cfg)
	schema := features.NewSchema([]string{"Strike (%)", "Basket_Avg_IV"})
	limits := config.QuoteConfig{MaxPoolSize: 20, MaxCombinations: 1000, Concurrency: 2}

	engine := quote.NewEngine(store, &fakeModel{}, features.NewBuilder(features.DefaultCalibration()), schema, limits, log)
	return NewQuoteHandler(engine, log)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestQuoteHandler_Calculate(t *testing.T) {
	h := newTestQuoteHandler(t)

	rec := postJSON(t, h.Calculate, CalculateRequest{
		Stocks:        []string{"NVDA", "TSLA"},
		Period:        6,
		StrikePrice:   95,
		KnockOutPrice: 140,
		KnockInPrice:  65,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result contracts.SingleQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 10.5, result.Coupon)
	assert.Equal(t, "20260827", result.PricingDate)
	assert.Equal(t, []string{"NVDA", "TSLA"}, result.RankedSymbols)
}

func TestQuoteHandler_Calculate_ValidationErrorIs400(t *testing.T) {
	h := newTestQuoteHandler(t)

	// KI above strike
	rec := postJSON(t, h.Calculate, CalculateRequest{
		Stocks:        []string{"NVDA"},
		Period:        6,
		StrikePrice:   80,
		KnockOutPrice: 140,
		KnockInPrice:  90,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteHandler_Calculate_UnknownSymbolIs404(t *testing.T) {
	h := newTestQuoteHandler(t)

	rec := postJSON(t, h.Calculate, CalculateRequest{
		Stocks:        []string{"GHOST"},
		Period:        6,
		StrikePrice:   95,
		KnockOutPrice: 140,
		KnockInPrice:  65,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuoteHandler_Calculate_BadBodyIs400(t *testing.T) {
	h := newTestQuoteHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Calculate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteHandler_BatchCalculate(t *testing.T) {
	h := newTestQuoteHandler(t)

	rec := postJSON(t, h.BatchCalculate, BatchCalculateRequest{
		StockPool:     []string{"NVDA", "TSLA"},
		BasketSizes:   []int{1, 2},
		Period:        6,
		StrikePrice:   95,
		KnockOutPrice: 140,
		KnockInPrice:  65,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result contracts.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	// 2 singles + 1 pair
	assert.Equal(t, 3, result.TotalCount)
}

func TestDealFromRequest_Defaults(t *testing.T) {
	deal := dealFromRequest(6, 95, 140, 65, "", nil, nil)

	assert.Equal(t, contracts.BarrierEuropeanKI, deal.BarrierType)
	assert.Equal(t, 99.0, deal.Cost)
	assert.Equal(t, 1, deal.NonCall)
}

func TestDealFromRequest_ClampsNonCallToPeriod(t *testing.T) {
	nonCall := 9
	deal := dealFromRequest(6, 95, 140, 65, "AKI", nil, &nonCall)

	assert.Equal(t, contracts.BarrierAccruedKI, deal.BarrierType)
	assert.Equal(t, 6, deal.NonCall, "non-call longer than tenor is clamped")
	assert.True(t, deal.NoKO())
}
