package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/httputil"
	"github.com/wonny/fcnquote/pkg/logger"
)

// Client calls the external coupon-yield model service
// ⭐ SSOT: 수익률 모델 호출은 이 클라이언트를 통해서만
type Client struct {
	http    *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// predictRequest is the wire format for a batched prediction.
// NaN is not representable in JSON so missing values go out as null
type predictRequest struct {
	Columns []string     `json:"columns"`
	Rows    [][]*float64 `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// NewClient creates a new yield model client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Model.Timeout).
		WithRetry(cfg.Model.MaxRetries, cfg.Model.RetryDelay).
		WithRateLimit(cfg.Model.RatePerSec, cfg.Model.RateBurst)

	return &Client{
		http:    httpClient,
		baseURL: cfg.Model.BaseURL,
		logger:  log,
	}
}

// Predict submits a feature matrix and returns one annualized coupon
// per row, in input order
func (c *Client) Predict(ctx context.Context, columns []string, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	req := predictRequest{
		Columns: columns,
		Rows:    make([][]*float64, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		encoded := make([]*float64, len(row))
		for j, v := range row {
			encoded[j] = contracts.NilIfNaN(v)
		}
		req.Rows[i] = encoded
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/predict", req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	if len(decoded.Predictions) != len(rows) {
		return nil, fmt.Errorf("model returned %d predictions for %d rows", len(decoded.Predictions), len(rows))
	}
	for i, p := range decoded.Predictions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("model returned non-finite prediction at row %d", i)
		}
	}

	return decoded.Predictions, nil
}

// Health checks whether the model service is reachable
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.Get(ctx, c.baseURL+"/health")
	if err != nil {
		return fmt.Errorf("model health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model health returned status %d", resp.StatusCode)
	}
	return nil
}
