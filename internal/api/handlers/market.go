package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/features"
	"github.com/wonny/fcnquote/internal/model"
	"github.com/wonny/fcnquote/pkg/logger"
)

// MarketHandler handles market data API endpoints
type MarketHandler struct {
	store  contracts.SnapshotStore
	model  *model.Client
	schema *features.Schema
	logger *logger.Logger
}

// NewMarketHandler creates a new market data handler
func NewMarketHandler(store contracts.SnapshotStore, mdl *model.Client, schema *features.Schema, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		store:  store,
		model:  mdl,
		schema: schema,
		logger: log,
	}
}

// GetDates returns available pricing dates, most recent first
// GET /api/dates/available
func (h *MarketHandler) GetDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dates, err := h.store.ListDates(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshot dates")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve available dates")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
		"count": len(dates),
	})
}

// GetStocks returns tradable symbols for a pricing date
// GET /api/stocks/available?date=YYYYMMDD
func (h *MarketHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := h.resolveDate(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "No market snapshot available")
		return
	}

	symbols, err := h.store.ListSymbols(ctx, date)
	if err != nil {
		h.logger.WithError(err).WithField("date", date).Error("Failed to list symbols")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve available stocks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pricingDate": date,
		"stocks":      symbols,
		"count":       len(symbols),
	})
}

// StockDetailsRequest selects symbols for detail lookup
type StockDetailsRequest struct {
	Stocks      []string `json:"stocks"`
	PricingDate string   `json:"pricingDate"`
}

// GetStockDetails returns headline metrics for selected symbols.
// Symbols absent from the snapshot are reported, not failed
// POST /api/stocks/details
func (h *MarketHandler) GetStockDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StockDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Stocks) == 0 {
		respondError(w, http.StatusBadRequest, "At least one stock is required")
		return
	}

	date := req.PricingDate
	if date == "" {
		dates, err := h.store.ListDates(ctx)
		if err != nil || len(dates) == 0 {
			respondError(w, http.StatusNotFound, "No market snapshot available")
			return
		}
		date = dates[0]
	}

	details := make(map[string]*contracts.StockInfo, len(req.Stocks))
	var missing []string
	for _, symbol := range req.Stocks {
		o, err := h.store.GetObservation(ctx, date, symbol)
		if err != nil {
			if errors.Is(err, contracts.ErrNotFound) {
				missing = append(missing, symbol)
				continue
			}
			h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load observation")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve stock details")
			return
		}
		si := contracts.NewStockInfo(o)
		details[symbol] = &si
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pricingDate": date,
		"details":     details,
		"missing":     missing,
	})
}

// GetMarketParams returns SOFR and VIX levels for a pricing date
// GET /api/market/params?date=YYYYMMDD
func (h *MarketHandler) GetMarketParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := h.resolveDate(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "No market snapshot available")
		return
	}

	indices, err := h.store.MarketIndices(ctx, date)
	if err != nil {
		h.logger.WithError(err).WithField("date", date).Warn("Failed to load market indices, using defaults")
		indices = contracts.DefaultMarketIndices()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pricingDate": date,
		"sofrRate":    indices.SOFRRate,
		"vixIndex":    indices.VIXIndex,
	})
}

// Health reports service, snapshot, and model status
// GET /health
func (h *MarketHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":         "ok",
		"service":        "fcnquote-api",
		"featureColumns": h.schema.Len(),
	}

	if dates, err := h.store.ListDates(ctx); err == nil && len(dates) > 0 {
		status["latestSnapshot"] = dates[0]
		status["snapshotCount"] = len(dates)
	} else {
		status["latestSnapshot"] = nil
	}

	if err := h.model.Health(ctx); err != nil {
		status["model"] = "unreachable"
	} else {
		status["model"] = "ok"
	}

	respondJSON(w, http.StatusOK, status)
}

// resolveDate picks the date query parameter or the latest snapshot
func (h *MarketHandler) resolveDate(r *http.Request) (string, error) {
	if date := r.URL.Query().Get("date"); date != "" {
		return date, nil
	}

	dates, err := h.store.ListDates(r.Context())
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", contracts.ErrNoSnapshot
	}
	return dates[0], nil
}
