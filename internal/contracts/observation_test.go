package contracts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservation_JSONRoundTripWithMissingMetrics(t *testing.T) {
	o := EmptyObservation("NVDA")
	o.Px = 905.5
	o.PutIV3M = 55.2

	data, err := json.Marshal(o)
	require.NoError(t, err, "NaN metrics must serialize as null, not fail")

	var decoded Observation
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "NVDA", decoded.Symbol)
	assert.Equal(t, 905.5, decoded.Px)
	assert.Equal(t, 55.2, decoded.PutIV3M)
	assert.True(t, math.IsNaN(decoded.Vol90D), "null must come back as NaN")
	assert.True(t, math.IsNaN(decoded.CorrCoef))
}

func TestObservation_UnmarshalNulls(t *testing.T) {
	raw := `{"symbol":"TSLA","px_last":240.1,"put_imp_vol_3m":null,"volatility_90d":48.0}`

	var o Observation
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.Equal(t, "TSLA", o.Symbol)
	assert.Equal(t, 240.1, o.Px)
	assert.True(t, math.IsNaN(o.PutIV3M))
	assert.Equal(t, 48.0, o.Vol90D)
	assert.True(t, math.IsNaN(o.DividendYield), "absent keys are missing metrics")
}

func TestSnapshot_Lookup(t *testing.T) {
	snap := &Snapshot{
		Date: "20260827",
		Rows: []*Observation{EmptyObservation("NVDA"), EmptyObservation("TSLA")},
	}

	require.NotNil(t, snap.Lookup("TSLA"))
	assert.Nil(t, snap.Lookup("AMD"), "absent symbol is nil, not a zeroed struct")
}

func TestNilIfNaN(t *testing.T) {
	assert.Nil(t, NilIfNaN(math.NaN()))
	assert.Nil(t, NilIfNaN(math.Inf(1)))

	v := NilIfNaN(1.5)
	require.NotNil(t, v)
	assert.Equal(t, 1.5, *v)
}

func TestNaNIfNil(t *testing.T) {
	assert.True(t, math.IsNaN(NaNIfNil(nil)))

	x := 2.5
	assert.Equal(t, 2.5, NaNIfNil(&x))
}

func TestNewStockInfo(t *testing.T) {
	o := EmptyObservation("AMD")
	o.Px = 150.0

	info := NewStockInfo(o)
	require.NotNil(t, info.Price)
	assert.Equal(t, 150.0, *info.Price)
	assert.Nil(t, info.PutIV3M)
	assert.Nil(t, info.Vol90D)
}
