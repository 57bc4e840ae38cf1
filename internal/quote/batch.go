package quote

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/features"
)

// BatchQuote scores every k-combination of the stock pool for each
// requested basket size. Pool members without an observation for the
// pricing date are excluded from combination generation; feature vectors
// are built concurrently and scored with one batched model call.
func (e *Engine) BatchQuote(ctx context.Context, deal contracts.DealTerms, stockPool []string, basketSizes []int, date string) (*contracts.BatchResult, error) {
	if err := deal.Validate(); err != nil {
		return nil, err
	}

	sizes, err := validateSizes(basketSizes)
	if err != nil {
		return nil, err
	}

	if len(stockPool) == 0 {
		return nil, contracts.NewValidationError("stockPool", "stock pool must not be empty")
	}
	if len(stockPool) > e.limits.MaxPoolSize {
		return nil, contracts.NewValidationError("stockPool", fmt.Sprintf("stock pool exceeds %d symbols", e.limits.MaxPoolSize))
	}

	pricingDate, err := e.resolveDate(ctx, date)
	if err != nil {
		return nil, err
	}

	// 풀에서 관측치 있는 종목만 남김 (없는 종목은 조용히 제외)
	validSymbols := make([]string, 0, len(stockPool))
	observations := make(map[string]*contracts.Observation, len(stockPool))
	stockInfo := make(map[string]contracts.StockInfo, len(stockPool))
	for _, symbol := range stockPool {
		if _, dup := observations[symbol]; dup {
			continue
		}
		o, err := e.store.GetObservation(ctx, pricingDate, symbol)
		if err != nil {
			if isNotFound(err) {
				e.logger.WithFields(map[string]interface{}{
					"symbol": symbol,
					"date":   pricingDate,
				}).Warn("Pool symbol has no observation, excluded")
				continue
			}
			return nil, fmt.Errorf("symbol %s on %s: %w", symbol, pricingDate, err)
		}
		validSymbols = append(validSymbols, symbol)
		observations[symbol] = o
		stockInfo[symbol] = contracts.NewStockInfo(o)
	}

	if len(validSymbols) == 0 {
		return nil, fmt.Errorf("stock pool on %s: %w", pricingDate, contracts.ErrNotFound)
	}

	// 작업 시작 전에 조합 수 상한 검사
	total := 0
	for _, k := range sizes {
		total += CountCombinations(len(validSymbols), k)
	}
	if total > e.limits.MaxCombinations {
		return nil, contracts.NewValidationError("basketSizes", fmt.Sprintf("request would generate %d combinations (limit %d)", total, e.limits.MaxCombinations))
	}

	// 조합 열거
	type job struct {
		symbols []string
		size    int
	}
	jobs := make([]job, 0, total)
	for _, k := range sizes {
		if k > len(validSymbols) {
			continue
		}
		for _, combo := range Combinations(len(validSymbols), k) {
			symbols := make([]string, k)
			for i, idx := range combo {
				symbols[i] = validSymbols[idx]
			}
			jobs = append(jobs, job{symbols: symbols, size: k})
		}
	}

	if len(jobs) == 0 {
		return &contracts.BatchResult{
			Quotes:      []contracts.BatchQuote{},
			PricingDate: pricingDate,
			Deal:        deal,
			Market:      contracts.DefaultMarketIndices(),
		}, nil
	}

	// Feature build는 워커 풀로 병렬 수행, 결과는 인덱스로 고정
	rows := make([][]float64, len(jobs))
	buildErrs := make([]error, len(jobs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.limits.Concurrency)
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			obs := make([]*contracts.Observation, len(jobs[i].symbols))
			for j, s := range jobs[i].symbols {
				obs[j] = observations[s]
			}
			basket := features.Normalize(obs)
			vec, err := e.builder.Build(deal, basket)
			if err != nil {
				buildErrs[i] = err
				return
			}
			rows[i] = e.schema.Project(vec)
		}(i)
	}
	wg.Wait()

	for _, err := range buildErrs {
		if err != nil {
			return nil, err
		}
	}

	// 전체 행렬을 한 번의 predict 호출로 채점
	predictions, err := e.model.Predict(ctx, e.schema.Columns(), rows)
	if err != nil {
		return nil, fmt.Errorf("model predict failed: %w", err)
	}
	if len(predictions) != len(rows) {
		return nil, fmt.Errorf("model returned %d predictions for %d rows", len(predictions), len(rows))
	}

	riskLevel := classifyRisk(deal)
	distanceToKI := deal.Strike - deal.KIBarrier

	quotes := make([]contracts.BatchQuote, len(jobs))
	for i, j := range jobs {
		maxIV := math.NaN()
		for _, s := range j.symbols {
			iv := observations[s].PutIV3M
			if !math.IsNaN(iv) && (math.IsNaN(maxIV) || iv > maxIV) {
				maxIV = iv
			}
		}

		info := make(map[string]contracts.StockInfo, len(j.symbols))
		for _, s := range j.symbols {
			info[s] = stockInfo[s]
		}

		quotes[i] = contracts.BatchQuote{
			ID:           fmt.Sprintf("quote-%d", i),
			Stocks:       j.symbols,
			BasketSize:   j.size,
			Coupon:       round2(predictions[i]),
			DistanceToKI: round1(distanceToKI),
			MaxIV:        contracts.NilIfNaN(round1(maxIV)),
			RiskLevel:    riskLevel,
			StockInfo:    info,
		}
	}

	// 쿠폰 내림차순, 동률이면 ID 순으로 결정적 정렬
	sort.SliceStable(quotes, func(a, b int) bool {
		return quotes[a].Coupon > quotes[b].Coupon
	})

	annotateYieldBoost(quotes, sizes)

	market, err := e.store.MarketIndices(ctx, pricingDate)
	if err != nil {
		market = contracts.DefaultMarketIndices()
	}

	e.logger.WithFields(map[string]interface{}{
		"pricing_date": pricingDate,
		"pool_size":    len(validSymbols),
		"basket_sizes": sizes,
		"quote_count":  len(quotes),
	}).Info("Batch quote computed")

	return &contracts.BatchResult{
		Quotes:      quotes,
		TotalCount:  len(quotes),
		PricingDate: pricingDate,
		Deal:        deal,
		Market:      market,
	}, nil
}

// validateSizes rejects sizes outside 1..BasketCapacity and dedupes
func validateSizes(basketSizes []int) ([]int, error) {
	if len(basketSizes) == 0 {
		return nil, contracts.NewValidationError("basketSizes", "at least one basket size is required")
	}

	seen := make(map[int]bool, len(basketSizes))
	sizes := make([]int, 0, len(basketSizes))
	for _, k := range basketSizes {
		if k < 1 || k > features.BasketCapacity {
			return nil, contracts.NewValidationError("basketSizes", fmt.Sprintf("basket size must be between 1 and %d", features.BasketCapacity))
		}
		if !seen[k] {
			seen[k] = true
			sizes = append(sizes, k)
		}
	}
	sort.Ints(sizes)
	return sizes, nil
}

// annotateYieldBoost computes per-size average coupons and annotates each
// quote above the minimum requested size with its size average minus the
// minimum size's average. Quotes at the minimum size carry no boost.
func annotateYieldBoost(quotes []contracts.BatchQuote, sizes []int) {
	if len(quotes) == 0 || len(sizes) == 0 {
		return
	}

	sum := make(map[int]float64)
	count := make(map[int]int)
	for _, q := range quotes {
		sum[q.BasketSize] += q.Coupon
		count[q.BasketSize]++
	}

	avg := make(map[int]float64, len(count))
	for size, n := range count {
		avg[size] = sum[size] / float64(n)
	}

	minSize := sizes[0]
	minAvg, hasMin := avg[minSize]
	if !hasMin {
		return
	}

	for i := range quotes {
		if quotes[i].BasketSize <= minSize {
			continue
		}
		if sizeAvg, ok := avg[quotes[i].BasketSize]; ok {
			boost := round2(sizeAvg - minAvg)
			quotes[i].YieldBoost = &boost
		}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
