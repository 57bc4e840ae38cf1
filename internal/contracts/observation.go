package contracts

import (
	"encoding/json"
	"math"
)

// Observation is one row of market data for one symbol on one pricing date.
// Missing metrics are NaN; a wholly-missing symbol is a nil *Observation,
// never a zeroed struct.
type Observation struct {
	Symbol        string  // BBG 코드, " Equity" 접미사 제거된 형태
	Px            float64 // PX_LAST
	PutIV3M       float64 // PUT_IMP_VOL_3M
	CallIV2M25D   float64 // CALL_IMP_VOL_2M_25D
	PutIV2M25D    float64 // PUT_IMP_VOL_2M_25D
	HistPutIV     float64 // HIST_PUT_IMP_VOL
	VolStdDev     float64 // VOL_STDDEV
	Vol90D        float64 // VOLATILITY_90D
	VolPercentile float64 // VOL_PERCENTILE
	ChgPct1Yr     float64 // CHG_PCT_1YR
	CorrCoef      float64 // CORR_COEF (단일 종목이면 NaN)
	DividendYield float64 // DIVIDEND_YIELD
}

// EmptyObservation returns an observation with every metric missing
func EmptyObservation(symbol string) *Observation {
	nan := math.NaN()
	return &Observation{
		Symbol:        symbol,
		Px:            nan,
		PutIV3M:       nan,
		CallIV2M25D:   nan,
		PutIV2M25D:    nan,
		HistPutIV:     nan,
		VolStdDev:     nan,
		Vol90D:        nan,
		VolPercentile: nan,
		ChgPct1Yr:     nan,
		CorrCoef:      nan,
		DividendYield: nan,
	}
}

// observationJSON mirrors Observation with nullable metrics.
// encoding/json은 NaN을 지원하지 않으므로 null로 직렬화
type observationJSON struct {
	Symbol        string   `json:"symbol"`
	Px            *float64 `json:"px_last"`
	PutIV3M       *float64 `json:"put_imp_vol_3m"`
	CallIV2M25D   *float64 `json:"call_imp_vol_2m_25d"`
	PutIV2M25D    *float64 `json:"put_imp_vol_2m_25d"`
	HistPutIV     *float64 `json:"hist_put_imp_vol"`
	VolStdDev     *float64 `json:"vol_stddev"`
	Vol90D        *float64 `json:"volatility_90d"`
	VolPercentile *float64 `json:"vol_percentile"`
	ChgPct1Yr     *float64 `json:"chg_pct_1yr"`
	CorrCoef      *float64 `json:"corr_coef"`
	DividendYield *float64 `json:"dividend_yield"`
}

// MarshalJSON serializes missing metrics as null
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{
		Symbol:        o.Symbol,
		Px:            NilIfNaN(o.Px),
		PutIV3M:       NilIfNaN(o.PutIV3M),
		CallIV2M25D:   NilIfNaN(o.CallIV2M25D),
		PutIV2M25D:    NilIfNaN(o.PutIV2M25D),
		HistPutIV:     NilIfNaN(o.HistPutIV),
		VolStdDev:     NilIfNaN(o.VolStdDev),
		Vol90D:        NilIfNaN(o.Vol90D),
		VolPercentile: NilIfNaN(o.VolPercentile),
		ChgPct1Yr:     NilIfNaN(o.ChgPct1Yr),
		CorrCoef:      NilIfNaN(o.CorrCoef),
		DividendYield: NilIfNaN(o.DividendYield),
	})
}

// UnmarshalJSON deserializes null metrics as NaN
func (o *Observation) UnmarshalJSON(data []byte) error {
	var aux observationJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.Symbol = aux.Symbol
	o.Px = NaNIfNil(aux.Px)
	o.PutIV3M = NaNIfNil(aux.PutIV3M)
	o.CallIV2M25D = NaNIfNil(aux.CallIV2M25D)
	o.PutIV2M25D = NaNIfNil(aux.PutIV2M25D)
	o.HistPutIV = NaNIfNil(aux.HistPutIV)
	o.VolStdDev = NaNIfNil(aux.VolStdDev)
	o.Vol90D = NaNIfNil(aux.Vol90D)
	o.VolPercentile = NaNIfNil(aux.VolPercentile)
	o.ChgPct1Yr = NaNIfNil(aux.ChgPct1Yr)
	o.CorrCoef = NaNIfNil(aux.CorrCoef)
	o.DividendYield = NaNIfNil(aux.DividendYield)
	return nil
}

// NilIfNaN converts NaN (and Inf) to nil for JSON output
func NilIfNaN(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NaNIfNil converts a missing JSON value to NaN
func NaNIfNil(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Snapshot is the full set of observations published for one pricing date.
// 발행 후 불변; 교체는 항상 스냅샷 단위로
type Snapshot struct {
	Date string         `json:"date"` // canonical YYYYMMDD
	Rows []*Observation `json:"rows"`
}

// Lookup returns the observation for symbol, or nil if absent
func (s *Snapshot) Lookup(symbol string) *Observation {
	for _, row := range s.Rows {
		if row != nil && row.Symbol == symbol {
			return row
		}
	}
	return nil
}

// SymbolSummary is the tradable-symbol listing entry for a pricing date
type SymbolSummary struct {
	Code   string   `json:"code"`
	Price  *float64 `json:"price"`
	IV     *float64 `json:"iv"`
	Vol90D *float64 `json:"vol90d"`
}

// MarketIndices holds snapshot-level market parameters.
// 스냅샷 행에서 추출, 없으면 기본값 유지
type MarketIndices struct {
	SOFRRate float64 `json:"SOFR_RATE"`
	VIXIndex float64 `json:"VIX_INDEX"`
}

// DefaultMarketIndices returns the fallback market parameters
func DefaultMarketIndices() MarketIndices {
	return MarketIndices{SOFRRate: 5.0, VIXIndex: 15.0}
}
