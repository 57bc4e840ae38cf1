package contracts

// BarrierType classifies how the knock-in barrier is observed
type BarrierType string

const (
	// BarrierAccruedKI 누적형 KI (기간 내 어느 시점이든 관찰)
	BarrierAccruedKI BarrierType = "AKI"
	// BarrierEuropeanKI 만기형 KI (만기 시점만 관찰)
	BarrierEuropeanKI BarrierType = "EKI"
)

// Valid reports whether bt is a known barrier type
func (bt BarrierType) Valid() bool {
	return bt == BarrierAccruedKI || bt == BarrierEuropeanKI
}

// DealTerms holds the contractual parameters of a single FCN deal.
// 모든 가격 필드는 기준가 대비 퍼센트, 통화 무관
// ⭐ SSOT: 딜 조건 검증은 Validate()에서만
type DealTerms struct {
	Strike      float64     `json:"strike"`     // 전환가 (%)
	KOBarrier   float64     `json:"koBarrier"`  // 상방 조기상환 배리어 (%)
	KIBarrier   float64     `json:"kiBarrier"`  // 하방 원금보호 배리어 (%)
	Tenor       int         `json:"tenor"`      // 만기 (개월)
	NonCall     int         `json:"nonCall"`    // 조기상환 불가 기간 (개월)
	Cost        float64     `json:"cost"`       // 고객 매입 가격 (%)
	BarrierType BarrierType `json:"barrierType"`
}

// Caller-facing input ranges. API 경계에서 강제되는 범위와 동일해야 함.
const (
	MinTenor  = 2
	MaxTenor  = 12
	MinStrike = 50.0
	MaxStrike = 100.0
	MinKO     = 90.0
	MaxKO     = 150.0
	MinKI     = 50.0
	MaxKI     = 95.0
	MinCost   = 95.0
	MaxCost   = 100.0
)

// Validate checks ordering invariants and input ranges.
// Returns a *ValidationError describing the first violation found.
func (d DealTerms) Validate() error {
	if d.Tenor < MinTenor || d.Tenor > MaxTenor {
		return NewValidationError("tenor", "tenor must be between 2 and 12 months")
	}
	if d.Strike < MinStrike || d.Strike > MaxStrike {
		return NewValidationError("strike", "strike must be between 50 and 100")
	}
	if d.KOBarrier < MinKO || d.KOBarrier > MaxKO {
		return NewValidationError("koBarrier", "KO barrier must be between 90 and 150")
	}
	if d.KIBarrier < MinKI || d.KIBarrier > MaxKI {
		return NewValidationError("kiBarrier", "KI barrier must be between 50 and 95")
	}
	if d.Cost < MinCost || d.Cost > MaxCost {
		return NewValidationError("cost", "cost must be between 95 and 100")
	}
	if d.NonCall < 1 || d.NonCall > d.Tenor {
		return NewValidationError("nonCall", "non-call period must be between 1 and tenor")
	}
	if !d.BarrierType.Valid() {
		return NewValidationError("barrierType", "barrier type must be AKI or EKI")
	}

	// Ordering invariant: KI < Strike < KO (strictly)
	if d.KIBarrier >= d.Strike {
		return NewValidationError("kiBarrier", "KI barrier must be strictly below strike")
	}
	if d.KOBarrier <= d.Strike {
		return NewValidationError("koBarrier", "KO barrier must be strictly above strike")
	}

	return nil
}

// NoKO reports whether the note is structurally uncallable before maturity
func (d DealTerms) NoKO() bool {
	return d.NonCall == d.Tenor
}
