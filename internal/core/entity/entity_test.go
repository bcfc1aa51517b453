package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp_FixedWidthLocal(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.Local)

	got := Stamp(ts)

	assert.Equal(t, "2024-03-05 07:08:09", got)
	assert.Len(t, got, 19)

	back, err := ParseStamp(got)
	require.NoError(t, err)
	assert.True(t, back.Equal(ts))
}

func TestTransitions_Allows(t *testing.T) {
	tr := Transitions{
		StatusPending: {StatusSent, StatusResolved},
		StatusSent:    {StatusReceived},
	}

	assert.True(t, tr.Allows(StatusPending, StatusSent))
	assert.True(t, tr.Allows(StatusSent, StatusSent))
	assert.False(t, tr.Allows(StatusSent, StatusPending))
	assert.False(t, tr.Allows(StatusReceived, StatusResolved))
	assert.True(t, tr.Reachable(StatusReceived))
	assert.False(t, tr.Reachable(StatusActive))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("recibida")
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, s)

	_, err = ParseStatus("archivado")
	assert.Error(t, err)
}

func TestDecodeFields_KeepsPrecision(t *testing.T) {
	f, err := DecodeFields([]byte(`{"latitud": -0.180653210987654321, "cliente_id": 9007199254740993}`))
	require.NoError(t, err)

	id, ok := f.GetInt("cliente_id")
	require.True(t, ok)
	assert.Equal(t, int64(9007199254740993), id)

	lat, ok := f.GetDecimal("latitud")
	require.True(t, ok)
	assert.True(t, lat.Equal(decimal.RequireFromString("-0.180653210987654321")))
}

func TestCoerceInt_RejectsFractions(t *testing.T) {
	_, ok := CoerceInt(1.5)
	assert.False(t, ok)

	_, ok = CoerceInt(json.Number("2.5"))
	assert.False(t, ok)

	v, ok := CoerceInt("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}
