package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/features"
	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/logger"
)

// Engine orchestrates single-deal and combinatorial batch prediction.
// ⭐ SSOT: 시세 조회 → 정규화 → feature → 예측 흐름은 여기서만
type Engine struct {
	store   contracts.SnapshotStore
	model   contracts.YieldModel
	builder *features.Builder
	schema  *features.Schema
	limits  config.QuoteConfig
	logger  *logger.Logger
}

// NewEngine creates a quote engine
func NewEngine(
	store contracts.SnapshotStore,
	model contracts.YieldModel,
	builder *features.Builder,
	schema *features.Schema,
	limits config.QuoteConfig,
	log *logger.Logger,
) *Engine {
	return &Engine{
		store:   store,
		model:   model,
		builder: builder,
		schema:  schema,
		limits:  limits,
		logger:  log,
	}
}

// Quote predicts the annualized coupon for a single deal. A requested
// symbol without an observation for the resolved pricing date is a hard
// failure (ErrNotFound).
func (e *Engine) Quote(ctx context.Context, deal contracts.DealTerms, symbols []string, date string) (*contracts.SingleQuote, error) {
	if err := deal.Validate(); err != nil {
		return nil, err
	}
	if len(symbols) < 1 || len(symbols) > features.BasketCapacity {
		return nil, contracts.NewValidationError("stocks", fmt.Sprintf("basket must have 1 to %d symbols", features.BasketCapacity))
	}

	pricingDate, err := e.resolveDate(ctx, date)
	if err != nil {
		return nil, err
	}

	observations := make([]*contracts.Observation, 0, len(symbols))
	stockInfo := make(map[string]contracts.StockInfo, len(symbols))
	for _, symbol := range symbols {
		o, err := e.store.GetObservation(ctx, pricingDate, symbol)
		if err != nil {
			return nil, fmt.Errorf("symbol %s on %s: %w", symbol, pricingDate, err)
		}
		observations = append(observations, o)
		stockInfo[symbol] = contracts.NewStockInfo(o)
	}

	basket := features.Normalize(observations)

	vec, err := e.builder.Build(deal, basket)
	if err != nil {
		return nil, err
	}

	predictions, err := e.model.Predict(ctx, e.schema.Columns(), [][]float64{e.schema.Project(vec)})
	if err != nil {
		return nil, fmt.Errorf("model predict failed: %w", err)
	}
	if len(predictions) != 1 {
		return nil, fmt.Errorf("model returned %d predictions for 1 row", len(predictions))
	}

	market, err := e.store.MarketIndices(ctx, pricingDate)
	if err != nil {
		market = contracts.DefaultMarketIndices()
	}

	e.logger.WithFields(map[string]interface{}{
		"pricing_date": pricingDate,
		"symbols":      symbols,
		"basket_size":  basket.Size(),
		"coupon":       predictions[0],
	}).Info("Single quote computed")

	return &contracts.SingleQuote{
		Coupon:        predictions[0],
		PricingDate:   pricingDate,
		Deal:          deal,
		RankedSymbols: basket.Symbols(),
		RankedIVs:     basket.IVs(),
		StockInfo:     stockInfo,
		Market:        market,
	}, nil
}

// resolveDate returns the requested date or the most recent available one
func (e *Engine) resolveDate(ctx context.Context, date string) (string, error) {
	if date != "" {
		return date, nil
	}

	dates, err := e.store.ListDates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list pricing dates: %w", err)
	}
	if len(dates) == 0 {
		return "", contracts.ErrNoSnapshot
	}
	return dates[0], nil
}

// classifyRisk maps deal terms onto the coarse risk ladder used by the
// batch screen. 고정 기준: KI와 Strike만 본다
func classifyRisk(deal contracts.DealTerms) contracts.RiskLevel {
	switch {
	case deal.KIBarrier < 60 && deal.Strike > 85:
		return contracts.RiskLow
	case deal.KIBarrier > 70 || deal.Strike < 70:
		return contracts.RiskHigh
	default:
		return contracts.RiskMedium
	}
}

// isNotFound reports whether err means a missing symbol observation
func isNotFound(err error) bool {
	return errors.Is(err, contracts.ErrNotFound)
}
