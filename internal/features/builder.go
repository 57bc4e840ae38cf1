package features

import (
	"fmt"
	"math"

	"github.com/wonny/fcnquote/internal/contracts"
)

// Feature column names for the fixed (non-rank) groups. The strings must
// match the persisted schema byte-for-byte; they originate from the deal
// spreadsheet headers and are kept as-is.
const (
	colStrike         = "Strike (%)"
	colKOBarrier      = "KO Barrier (%)"
	colKIBarrier      = "KI Barrier (%)"
	colTenor          = "Tenor (m)"
	colNonCall        = "Non-call Periods (m)"
	colCost           = "Cost (%)"
	colBarrierTypeAKI = "Barrier_Type_AKI"

	colNoKOFlag        = "No_KO_Flag"
	colNoKOTenor       = "No_KO_Tenor_Interaction"
	colNoKOKI          = "No_KO_KI_Interaction"
	colNoKOStrike      = "No_KO_Strike_Interaction"
	colNoKOBasket      = "No_KO_Basket_Interaction"

	colFee           = "Fee"
	colAnnualizedFee = "Annualized_Fee"

	colTenorSqrt     = "Tenor_Sqrt"
	colTenorSquared  = "Tenor_Squared"
	colCallablePer   = "Callable_Period"
	colCallableRatio = "Callable_Ratio"
	colNonCallRatio  = "NonCall_Ratio"

	colKOStrikeDist  = "KO_Strike_Distance"
	colStrikeKIDist  = "Strike_KI_Distance"
	colKOKIRange     = "KO_KI_Range"
	colKIStrikeRatio = "KI_Strike_Ratio"
	colKOStrikeRatio = "KO_Strike_Ratio"
	colKIDistPct     = "KI_Distance_Pct"
	colKODistPct     = "KO_Distance_Pct"

	colBasketSize       = "Basket_Size"
	colNumUnderlyings   = "Num_Underlyings"
	colBasketComplexity = "Basket_Complexity_Factor"

	colBasketWorstIV = "Basket_Worst_IV"
	colBasketBestIV  = "Basket_Best_IV"
	colBasketIVRange = "Basket_IV_Range"
	colBasketAvgIV   = "Basket_Avg_IV"
	colBasketWorstHV = "Basket_Worst_HV"
	colBasketBestHV  = "Basket_Best_HV"
	colBasketAvgHV   = "Basket_Avg_HV"
	colBasketAvgCorr = "Basket_Avg_Corr"
	colBasketMinCorr = "Basket_Min_Corr"
	colMaxCorr       = "Max_Correlation"
	colMinCorr       = "Min_Correlation"
	colBasketAvgSkew = "Basket_Avg_Skew"
	colBasketMaxSkew = "Basket_Max_Skew"
	colBasketAvgPrem = "Basket_Avg_IV_Premium"
	colBasketMaxPrem = "Basket_Max_IV_Premium"
	colIVHVRatio     = "IV_HV_Ratio"

	colAnnVolFactor    = "Annualized_Vol_Factor"
	colKIDistStd       = "KI_Distance_Std"
	colKODistStd       = "KO_Distance_Std"
	colKIDistStdSorted = "KI_Distance_Std_Sorted"
	colAnnVol          = "Annualized_Vol"
	colCorrAdjIV       = "Corr_Adjusted_IV"
	colKIRiskScore     = "KI_Risk_Score"
	colBasketRiskScore = "Basket_Risk_Score"
	colRiskScoreSorted = "Risk_Score_Sorted"

	colReturnPotential = "Return_Potential"
)

// rankMetric binds a snapshot metric to its schema column prefix
type rankMetric struct {
	name string
	get  func(*contracts.Observation) float64
}

// rankMetrics lists every per-underlying metric emitted per rank slot.
// 스키마 열 이름은 "{name}_Rank_{rank}"
var rankMetrics = []rankMetric{
	{"PX_LAST", func(o *contracts.Observation) float64 { return o.Px }},
	{"PUT_IMP_VOL_3M", func(o *contracts.Observation) float64 { return o.PutIV3M }},
	{"CALL_IMP_VOL_2M_25D", func(o *contracts.Observation) float64 { return o.CallIV2M25D }},
	{"PUT_IMP_VOL_2M_25D", func(o *contracts.Observation) float64 { return o.PutIV2M25D }},
	{"HIST_PUT_IMP_VOL", func(o *contracts.Observation) float64 { return o.HistPutIV }},
	{"VOL_STDDEV", func(o *contracts.Observation) float64 { return o.VolStdDev }},
	{"VOLATILITY_90D", func(o *contracts.Observation) float64 { return o.Vol90D }},
	{"VOL_PERCENTILE", func(o *contracts.Observation) float64 { return o.VolPercentile }},
	{"CHG_PCT_1YR", func(o *contracts.Observation) float64 { return o.ChgPct1Yr }},
	{"CORR_COEF", func(o *contracts.Observation) float64 { return o.CorrCoef }},
	{"DIVIDEND_YIELD", func(o *contracts.Observation) float64 { return o.DividendYield }},
}

// Builder computes the fixed-schema feature vector from deal terms and a
// ranked basket. The same code path feeds both training-set generation and
// serving, so the computation must be pure and bit-identical for identical
// input.
// ⭐ SSOT: feature 공식은 이 파일에서만 정의
type Builder struct {
	cal Calibration
}

// NewBuilder creates a feature builder with training-time calibration
func NewBuilder(cal Calibration) *Builder {
	return &Builder{cal: cal}
}

// Build computes the full feature vector. Missing market data propagates as
// NaN; the only error is a deal-term invariant violation, raised before any
// feature is computed.
func (b *Builder) Build(deal contracts.DealTerms, basket RankedBasket) (Vector, error) {
	if err := deal.Validate(); err != nil {
		return nil, err
	}

	f := make(Vector, 160)
	tenor := float64(deal.Tenor)
	nonCall := float64(deal.NonCall)
	size := basket.Size()

	// 기본 딜 조건
	f[colStrike] = deal.Strike
	f[colKOBarrier] = deal.KOBarrier
	f[colKIBarrier] = deal.KIBarrier
	f[colTenor] = tenor
	f[colNonCall] = nonCall
	f[colCost] = deal.Cost
	f[colBarrierTypeAKI] = boolToFloat(deal.BarrierType == contracts.BarrierAccruedKI)

	// No-KO: non-call == tenor이면 만기 전 조기상환이 구조적으로 불가능
	noKO := boolToFloat(deal.NoKO())
	f[colNoKOFlag] = noKO
	f[colNoKOTenor] = noKO * tenor
	f[colNoKOKI] = noKO * deal.KIBarrier
	f[colNoKOStrike] = noKO * deal.Strike

	// 비용
	fee := 100 - deal.Cost
	f[colFee] = fee
	f[colAnnualizedFee] = fee / tenor * 12

	// 시간
	f[colTenorSqrt] = math.Sqrt(tenor)
	f[colTenorSquared] = tenor * tenor
	callable := tenor - nonCall
	f[colCallablePer] = callable
	f[colCallableRatio] = callable / tenor
	f[colNonCallRatio] = nonCall / tenor

	// 배리어 기하
	koDist := deal.KOBarrier - deal.Strike
	kiDist := deal.Strike - deal.KIBarrier
	f[colKOStrikeDist] = koDist
	f[colStrikeKIDist] = kiDist
	f[colKOKIRange] = deal.KOBarrier - deal.KIBarrier
	f[colKIStrikeRatio] = deal.KIBarrier / deal.Strike
	f[colKOStrikeRatio] = deal.KOBarrier / deal.Strike
	f[colKIDistPct] = kiDist
	f[colKODistPct] = koDist

	// Basket 크기
	f[colBasketSize] = float64(size)
	f[colNumUnderlyings] = float64(size)
	f[colBasketComplexity] = float64(size) / 3.0

	// 랭크별 원시 지표: {metric}_Rank_1..4, 빈 슬롯은 NaN
	for _, m := range rankMetrics {
		for rank := 1; rank <= BasketCapacity; rank++ {
			name := fmt.Sprintf("%s_Rank_%d", m.name, rank)
			if o := basket.At(rank); o != nil {
				f[name] = m.get(o)
			} else {
				f[name] = math.NaN()
			}
		}
	}

	// 랭크별 skew / premium
	skews := make([]float64, 0, size)
	premiums := make([]float64, 0, size)
	for rank := 1; rank <= BasketCapacity; rank++ {
		skewName := fmt.Sprintf("IV_Skew_Rank_%d", rank)
		premName := fmt.Sprintf("IV_Premium_Rank_%d", rank)

		o := basket.At(rank)
		if o == nil {
			f[skewName] = math.NaN()
			f[premName] = math.NaN()
			continue
		}

		skew := o.PutIV2M25D - o.CallIV2M25D
		f[skewName] = skew
		if !math.IsNaN(skew) {
			skews = append(skews, skew)
		}

		premium := math.NaN()
		if !math.IsNaN(o.PutIV3M) && !math.IsNaN(o.Vol90D) && o.Vol90D != 0 {
			premium = (o.PutIV3M - o.Vol90D) / o.Vol90D
		}
		f[premName] = premium
		if !math.IsNaN(premium) {
			premiums = append(premiums, premium)
		}
	}

	// Basket 집계: 존재하는 값만 사용
	ivs := collect(basket, func(o *contracts.Observation) float64 { return o.PutIV3M })
	hvs := collect(basket, func(o *contracts.Observation) float64 { return o.Vol90D })
	corrs := collect(basket, func(o *contracts.Observation) float64 { return o.CorrCoef })

	worstIV := maxOf(ivs)
	f[colBasketWorstIV] = worstIV
	f[colBasketBestIV] = minOf(ivs)
	if len(ivs) >= 2 {
		f[colBasketIVRange] = maxOf(ivs) - minOf(ivs)
	} else {
		f[colBasketIVRange] = 0
	}
	avgIV := meanOf(ivs)
	f[colBasketAvgIV] = avgIV

	f[colBasketWorstHV] = maxOf(hvs)
	f[colBasketBestHV] = minOf(hvs)
	avgHV := meanOf(hvs)
	f[colBasketAvgHV] = avgHV

	avgCorr := meanOf(corrs)
	f[colBasketAvgCorr] = avgCorr
	f[colBasketMinCorr] = minOf(corrs)
	f[colMaxCorr] = maxOf(corrs)
	f[colMinCorr] = minOf(corrs)

	f[colBasketAvgSkew] = meanOf(skews)
	f[colBasketMaxSkew] = maxOf(skews)
	f[colBasketAvgPrem] = meanOf(premiums)
	f[colBasketMaxPrem] = maxOf(premiums)

	if len(ivs) > 0 && len(hvs) > 0 {
		f[colIVHVRatio] = avgIV / avgHV
	} else {
		f[colIVHVRatio] = math.NaN()
	}

	// 리스크 스코어: worst IV 없으면 그룹 전체 NaN
	b.riskScores(f, deal, basket, worstIV, avgIV, avgCorr, size)

	// 수익 잠재력
	f[colReturnPotential] = (deal.KOBarrier / 100) * (tenor / 12)

	// No-KO × basket 크기
	f[colNoKOBasket] = noKO * float64(size)

	return f, nil
}

// riskScores fills the vol-standardized risk group. The reference means are
// the training-time calibration constants, never recomputed here.
func (b *Builder) riskScores(f Vector, deal contracts.DealTerms, basket RankedBasket, worstIV, avgIV, avgCorr float64, size int) {
	if math.IsNaN(worstIV) {
		nan := math.NaN()
		f[colAnnVolFactor] = nan
		f[colKIDistStd] = nan
		f[colKODistStd] = nan
		f[colKIDistStdSorted] = nan
		f[colAnnVol] = nan
		f[colCorrAdjIV] = nan
		f[colKIRiskScore] = nan
		f[colBasketRiskScore] = nan
		f[colRiskScoreSorted] = nan
		return
	}

	tenor := float64(deal.Tenor)
	sqrtT := math.Sqrt(tenor / 12)

	volFactor := worstIV / 100 * sqrtT
	f[colAnnVolFactor] = volFactor

	if volFactor > 0 {
		f[colKIDistStd] = f[colKIDistPct] / 100 / volFactor
		f[colKODistStd] = f[colKODistPct] / 100 / volFactor
		f[colKIDistStdSorted] = f[colKIDistStd]
	} else {
		f[colKIDistStd] = math.NaN()
		f[colKODistStd] = math.NaN()
		f[colKIDistStdSorted] = math.NaN()
	}

	if !math.IsNaN(avgIV) {
		f[colAnnVol] = avgIV * sqrtT
	} else {
		f[colAnnVol] = math.NaN()
	}

	// 상관관계 조정 IV: 다종목 & 상관 있음일 때만 가산
	if !math.IsNaN(avgCorr) && size > 1 {
		f[colCorrAdjIV] = worstIV * (1 + 0.1*float64(size-1)*(1-avgCorr))
	} else {
		f[colCorrAdjIV] = worstIV
	}

	kiRisk := (worstIV / b.cal.MeanWorstIV) * (deal.KIBarrier / 100)
	f[colKIRiskScore] = kiRisk

	basketRisk := kiRisk * (1 + 0.2*float64(size-1))
	if !math.IsNaN(avgCorr) && size > 1 {
		basketRisk *= 1 + 0.1*(1-avgCorr)
	}
	f[colBasketRiskScore] = basketRisk

	rank1IV := math.NaN()
	if o := basket.At(1); o != nil {
		rank1IV = o.PutIV3M
	}
	if !math.IsNaN(rank1IV) {
		f[colRiskScoreSorted] = (rank1IV / b.cal.MeanRank1IV) * (deal.KIBarrier / 100) * (1 + 0.2*float64(size-1))
	} else {
		f[colRiskScoreSorted] = kiRisk * (1 + 0.2*float64(size-1))
	}
}

// collect gathers non-NaN metric values from present slots in rank order
func collect(basket RankedBasket, get func(*contracts.Observation) float64) []float64 {
	values := make([]float64, 0, basket.Size())
	for rank := 1; rank <= basket.Size(); rank++ {
		v := get(basket.At(rank))
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return values
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
