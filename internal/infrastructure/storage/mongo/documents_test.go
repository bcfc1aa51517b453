package mongo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

func TestToBSON_DecimalsAndReplayedNumbers(t *testing.T) {
	lat := decimal.RequireFromString("-0.1806532")
	out := toBSON(domain.Document{
		"latitud": lat,
		"datos": map[string]any{
			"nivel":  json.Number("3"),
			"factor": json.Number("1.5"),
		},
		"etiquetas": []any{"a", json.Number("2")},
	})

	d, ok := out["latitud"].(bson.Decimal128)
	require.True(t, ok, "decimal stored as Decimal128")
	assert.Equal(t, "-0.1806532", d.String())

	datos, ok := out["datos"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, int64(3), datos["nivel"])
	assert.Equal(t, 1.5, datos["factor"])
	assert.Equal(t, bson.A{"a", int64(2)}, out["etiquetas"])
}

func TestFromBSON_PlainValues(t *testing.T) {
	lat, err := bson.ParseDecimal128("-78.4678")
	require.NoError(t, err)
	oid := bson.NewObjectID()
	when := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	doc := fromBSON(bson.M{
		"_id":       oid,
		"longitud":  lat,
		"total":     int32(7),
		"enviado":   bson.NewDateTimeFromTime(when),
		"horario":   bson.D{{Key: "lunes", Value: "08:00"}},
		"contactos": bson.A{bson.M{"n": int32(1)}},
	})

	assert.Equal(t, oid.Hex(), doc["_id"])
	d, ok := doc["longitud"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("-78.4678")))
	assert.Equal(t, int64(7), doc["total"])
	assert.Equal(t, "2024-03-09 14:05:07", doc["enviado"])
	assert.Equal(t, map[string]any{"lunes": "08:00"}, doc["horario"])
	assert.Equal(t, []any{map[string]any{"n": int64(1)}}, doc["contactos"])
}

func TestNewID_IsObjectIDHex(t *testing.T) {
	s := &DocumentStore{}
	id := s.NewID()
	_, err := bson.ObjectIDFromHex(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, s.NewID())
}
