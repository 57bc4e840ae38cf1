package model

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/logger"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Model: config.ModelConfig{
			BaseURL:    baseURL,
			Timeout:    5 * time.Second,
			RatePerSec: 100,
			RateBurst:  10,
			MaxRetries: 0,
			RetryDelay: 10 * time.Millisecond,
		},
	}
}

func TestClient_Predict(t *testing.T) {
	var received predictRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []float64{11.25, 9.5},
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := NewClient(cfg, logger.New(cfg))

	columns := []string{"A", "B"}
	rows := [][]float64{
		{1.5, math.NaN()},
		{2.0, 3.0},
	}

	got, err := client.Predict(context.Background(), columns, rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{11.25, 9.5}, got)

	// NaN goes over the wire as null
	require.Len(t, received.Rows, 2)
	require.NotNil(t, received.Rows[0][0])
	assert.Equal(t, 1.5, *received.Rows[0][0])
	assert.Nil(t, received.Rows[0][1])
	assert.Equal(t, columns, received.Columns)
}

func TestClient_Predict_EmptyMatrix(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	client := NewClient(cfg, logger.New(cfg))

	got, err := client.Predict(context.Background(), []string{"A"}, nil)
	require.NoError(t, err, "empty matrix short-circuits without a network call")
	assert.Nil(t, got)
}

func TestClient_Predict_RaggedRowFails(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	client := NewClient(cfg, logger.New(cfg))

	_, err := client.Predict(context.Background(), []string{"A", "B"}, [][]float64{{1.0}})
	assert.Error(t, err)
}

func TestClient_Predict_LengthMismatchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []float64{1.0},
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := NewClient(cfg, logger.New(cfg))

	_, err := client.Predict(context.Background(), []string{"A"}, [][]float64{{1}, {2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predictions")
}

func TestClient_Predict_ServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := NewClient(cfg, logger.New(cfg))

	_, err := client.Predict(context.Background(), []string{"A"}, [][]float64{{1}})
	assert.Error(t, err)
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := NewClient(cfg, logger.New(cfg))

	assert.NoError(t, client.Health(context.Background()))
}
