package snapshot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fcnquote/internal/contracts"
)

func TestCanonicalDate(t *testing.T) {
	assert.Equal(t, "20260827", CanonicalDate("2026-08-27"))
	assert.Equal(t, "20260827", CanonicalDate("20260827"))
	assert.Equal(t, "20260827", CanonicalDate("  2026-08-27 "))
}

func TestParseDate(t *testing.T) {
	day, err := parseDate("20260827")
	require.NoError(t, err)
	assert.Equal(t, "20260827", day.Format("20060102"))

	day, err = parseDate("2026-08-27")
	require.NoError(t, err)
	assert.Equal(t, "20260827", day.Format("20060102"))

	_, err = parseDate("not-a-date")
	assert.Error(t, err)
}

func TestIsIndexSymbol(t *testing.T) {
	assert.True(t, isIndexSymbol("VIX Index"))
	assert.True(t, isIndexSymbol("USOSFR1 Curncy"))
	assert.True(t, isIndexSymbol("SPX Index"))
	assert.False(t, isIndexSymbol("NVDA"))
	assert.False(t, isIndexSymbol("AAPL UW"))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(math.NaN()))

	v := nullable(1.25)
	require.NotNil(t, v)
	assert.Equal(t, 1.25, *v)
}

func TestNewEntry_IndexesRows(t *testing.T) {
	snap := &contracts.Snapshot{
		Date: "20260827",
		Rows: []*contracts.Observation{
			contracts.EmptyObservation("NVDA"),
			contracts.EmptyObservation("TSLA"),
		},
	}

	entry := newEntry(snap)
	require.Len(t, entry.index, 2)
	assert.Same(t, snap.Rows[0], entry.index["NVDA"])
	assert.Same(t, snap.Rows[1], entry.index["TSLA"])
	assert.Nil(t, entry.index["AMD"])
}
