package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTerms() DealTerms {
	return DealTerms{
		Strike:      95,
		KOBarrier:   140,
		KIBarrier:   65,
		Tenor:       6,
		NonCall:     1,
		Cost:        99,
		BarrierType: BarrierEuropeanKI,
	}
}

func TestDealTerms_Validate(t *testing.T) {
	assert.NoError(t, validTerms().Validate())
}

func TestDealTerms_Validate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DealTerms)
		field  string
	}{
		{"tenor too short", func(d *DealTerms) { d.Tenor = 1 }, "tenor"},
		{"tenor too long", func(d *DealTerms) { d.Tenor = 13 }, "tenor"},
		{"strike too low", func(d *DealTerms) { d.Strike = 49 }, "strike"},
		{"strike too high", func(d *DealTerms) { d.Strike = 101 }, "strike"},
		{"ko below range", func(d *DealTerms) { d.KOBarrier = 89 }, "koBarrier"},
		{"ko above range", func(d *DealTerms) { d.KOBarrier = 151 }, "koBarrier"},
		{"ki below range", func(d *DealTerms) { d.KIBarrier = 49 }, "kiBarrier"},
		{"ki above range", func(d *DealTerms) { d.KIBarrier = 96 }, "kiBarrier"},
		{"cost too low", func(d *DealTerms) { d.Cost = 94 }, "cost"},
		{"cost too high", func(d *DealTerms) { d.Cost = 101 }, "cost"},
		{"non-call zero", func(d *DealTerms) { d.NonCall = 0 }, "nonCall"},
		{"non-call beyond tenor", func(d *DealTerms) { d.NonCall = 7 }, "nonCall"},
		{"unknown barrier type", func(d *DealTerms) { d.BarrierType = "XKI" }, "barrierType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := validTerms()
			tt.mutate(&deal)

			err := deal.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDealTerms_Validate_Ordering(t *testing.T) {
	// KI touching strike
	deal := validTerms()
	deal.KIBarrier = 95
	require.Error(t, deal.Validate())

	// KO touching strike
	deal = validTerms()
	deal.Strike = 90
	deal.KOBarrier = 90
	require.Error(t, deal.Validate())

	// KI above strike
	deal = validTerms()
	deal.Strike = 80
	deal.KIBarrier = 85
	err := deal.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDealTerms_NoKO(t *testing.T) {
	deal := validTerms()
	assert.False(t, deal.NoKO())

	deal.NonCall = deal.Tenor
	assert.True(t, deal.NoKO())
}

func TestBarrierType_Valid(t *testing.T) {
	assert.True(t, BarrierAccruedKI.Valid())
	assert.True(t, BarrierEuropeanKI.Valid())
	assert.False(t, BarrierType("").Valid())
	assert.False(t, BarrierType("aki").Valid())
}
