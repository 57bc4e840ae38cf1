package features

import (
	"math"
	"sort"

	"github.com/wonny/fcnquote/internal/contracts"
)

// BasketCapacity is the fixed number of rank slots in every basket.
// 모델 입력 폭은 이 값으로 고정됨
const BasketCapacity = 4

// RankedBasket holds observations in descending 3M put implied vol order,
// padded with explicit absent slots up to BasketCapacity.
// Rank 1 = 최고 IV = worst-of 페이오프를 지배하는 종목
type RankedBasket struct {
	slots [BasketCapacity]*contracts.Observation
	size  int
}

// Normalize sorts observations into a fixed ranking and pads absent slots.
// Input order never affects the output: any permutation of the same set
// yields an identical basket. Entries without an implied vol sort last
// among present entries (sentinel -Inf); nil entries become absent slots.
// Ties keep input order (stable sort).
func Normalize(observations []*contracts.Observation) RankedBasket {
	var basket RankedBasket

	present := make([]*contracts.Observation, 0, len(observations))
	for _, o := range observations {
		if o != nil {
			present = append(present, o)
		}
	}

	sort.SliceStable(present, func(i, j int) bool {
		return rankKey(present[i]) > rankKey(present[j])
	})

	n := len(present)
	if n > BasketCapacity {
		n = BasketCapacity
	}
	copy(basket.slots[:], present[:n])
	basket.size = n

	return basket
}

// rankKey returns the descending sort key for an observation
func rankKey(o *contracts.Observation) float64 {
	if math.IsNaN(o.PutIV3M) {
		return math.Inf(-1)
	}
	return o.PutIV3M
}

// Size returns the count of present observations (1..BasketCapacity)
func (b RankedBasket) Size() int {
	return b.size
}

// At returns the observation at rank (1-based), or nil for an absent slot
func (b RankedBasket) At(rank int) *contracts.Observation {
	if rank < 1 || rank > BasketCapacity {
		return nil
	}
	return b.slots[rank-1]
}

// Symbols returns the present symbols in rank order
func (b RankedBasket) Symbols() []string {
	symbols := make([]string, 0, b.size)
	for i := 0; i < b.size; i++ {
		symbols = append(symbols, b.slots[i].Symbol)
	}
	return symbols
}

// IVs returns the 3M put implied vol per present rank slot (NaN as nil)
func (b RankedBasket) IVs() []*float64 {
	ivs := make([]*float64, 0, b.size)
	for i := 0; i < b.size; i++ {
		ivs = append(ivs, contracts.NilIfNaN(b.slots[i].PutIV3M))
	}
	return ivs
}
