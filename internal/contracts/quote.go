package contracts

// RiskLevel is the coarse deal-term risk classification used in batch quoting
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// StockInfo is the per-symbol market context echoed back with a quote
type StockInfo struct {
	Price   *float64 `json:"price"`
	PutIV3M *float64 `json:"put_iv_3m"`
	Vol90D  *float64 `json:"vol_90d"`
}

// NewStockInfo builds the echoed context from an observation
func NewStockInfo(o *Observation) StockInfo {
	return StockInfo{
		Price:   NilIfNaN(o.Px),
		PutIV3M: NilIfNaN(o.PutIV3M),
		Vol90D:  NilIfNaN(o.Vol90D),
	}
}

// SingleQuote is the result of a single-deal prediction
type SingleQuote struct {
	Coupon        float64              `json:"annualizedYield"` // 예측 연환산 쿠폰 (%)
	PricingDate   string               `json:"pricingDate"`
	Deal          DealTerms            `json:"deal"`
	RankedSymbols []string             `json:"rankedSymbols"` // IV 내림차순
	RankedIVs     []*float64           `json:"rankedIVs"`
	StockInfo     map[string]StockInfo `json:"stockInfo"`
	Market        MarketIndices        `json:"marketParams"`
}

// BatchQuote is one scored basket combination
type BatchQuote struct {
	ID           string               `json:"id"`
	Stocks       []string             `json:"stocks"`
	BasketSize   int                  `json:"basketSize"`
	Coupon       float64              `json:"couponRate"`
	DistanceToKI float64              `json:"distanceToKI"`
	MaxIV        *float64             `json:"maxIV"`
	RiskLevel    RiskLevel            `json:"riskLevel"`
	YieldBoost   *float64             `json:"yieldBoost"` // 최소 basket 크기 평균 대비 증분
	StockInfo    map[string]StockInfo `json:"stockInfo"`
}

// BatchResult aggregates a combinatorial batch run
type BatchResult struct {
	Quotes      []BatchQuote  `json:"quotes"`
	TotalCount  int           `json:"totalCount"`
	PricingDate string        `json:"pricingDate"`
	Deal        DealTerms     `json:"deal"`
	Market      MarketIndices `json:"marketParams"`
}
