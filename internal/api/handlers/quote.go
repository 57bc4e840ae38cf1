package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/quote"
	"github.com/wonny/fcnquote/pkg/logger"
)

// QuoteHandler handles FCN quote API endpoints
// ⭐ SSOT: 쿠폰 계산 API 핸들러는 이 구조체에서만
type QuoteHandler struct {
	engine *quote.Engine
	logger *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(engine *quote.Engine, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		engine: engine,
		logger: log,
	}
}

// CalculateRequest represents a single FCN quote request
type CalculateRequest struct {
	Stocks         []string `json:"stocks"`
	Period         int      `json:"period"`
	StrikePrice    float64  `json:"strikePrice"`
	KnockOutPrice  float64  `json:"knockOutPrice"`
	KnockInPrice   float64  `json:"knockInPrice"`
	KIType         string   `json:"kiType"`
	CustomFeeRate  *float64 `json:"customFeeRate"`
	PricingDate    string   `json:"pricingDate"`
	NonCallPeriods *int     `json:"nonCallPeriods"`
}

// BatchCalculateRequest represents a combinatorial batch quote request
type BatchCalculateRequest struct {
	StockPool      []string `json:"stockPool"`
	BasketSizes    []int    `json:"basketSizes"`
	Period         int      `json:"period"`
	StrikePrice    float64  `json:"strikePrice"`
	KnockOutPrice  float64  `json:"knockOutPrice"`
	KnockInPrice   float64  `json:"knockInPrice"`
	KIType         string   `json:"kiType"`
	CustomFeeRate  *float64 `json:"customFeeRate"`
	NonCallPeriods *int     `json:"nonCallPeriods"`
	PricingDate    string   `json:"pricingDate"`
}

// Calculate prices a single FCN deal
// POST /api/fcn/calculate
func (h *QuoteHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deal := dealFromRequest(req.Period, req.StrikePrice, req.KnockOutPrice, req.KnockInPrice,
		req.KIType, req.CustomFeeRate, req.NonCallPeriods)

	result, err := h.engine.Quote(ctx, deal, req.Stocks, req.PricingDate)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to calculate quote")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// BatchCalculate prices every basket combination from a stock pool
// POST /api/fcn/batch-calculate
func (h *QuoteHandler) BatchCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BatchCalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deal := dealFromRequest(req.Period, req.StrikePrice, req.KnockOutPrice, req.KnockInPrice,
		req.KIType, req.CustomFeeRate, req.NonCallPeriods)

	result, err := h.engine.BatchQuote(ctx, deal, req.StockPool, req.BasketSizes, req.PricingDate)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to calculate batch quotes")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// dealFromRequest applies request defaults. 비호출 기간은 테너를
// 넘을 수 없으므로 min(nonCall, period)로 잘라냄
func dealFromRequest(period int, strike, ko, ki float64, kiType string, feeRate *float64, nonCall *int) contracts.DealTerms {
	cost := 99.0
	if feeRate != nil {
		cost = *feeRate
	}

	nc := 1
	if nonCall != nil {
		nc = *nonCall
	}
	if nc > period {
		nc = period
	}

	barrier := contracts.BarrierEuropeanKI
	if kiType == string(contracts.BarrierAccruedKI) {
		barrier = contracts.BarrierAccruedKI
	}

	return contracts.DealTerms{
		Strike:      strike,
		KOBarrier:   ko,
		KIBarrier:   ki,
		Tenor:       period,
		NonCall:     nc,
		Cost:        cost,
		BarrierType: barrier,
	}
}

// respondQuoteError maps engine errors onto HTTP status codes
func (h *QuoteHandler) respondQuoteError(w http.ResponseWriter, err error, fallback string) {
	var verr *contracts.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, contracts.ErrNoSnapshot):
		respondError(w, http.StatusNotFound, "No market snapshot available for the requested date")
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "Requested symbol not found in snapshot")
	default:
		h.logger.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
