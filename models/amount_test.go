package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestAmountKeepsCentsThroughStorage(t *testing.T) {
	// 0.1 + 0.2 is not 0.3 in binary floating point
	sum := decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2"))
	o := Order{TotalAmount: AmountOf(sum)}

	raw, err := bson.Marshal(o)
	require.NoError(t, err)
	stored, err := bson.Raw(raw).LookupErr("totalAmount")
	require.NoError(t, err)
	assert.Equal(t, bson.TypeDecimal128, stored.Type)

	var back Order
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, "0.30", back.TotalAmount.String())
	assert.True(t, back.TotalAmount.Decimal().Equal(decimal.RequireFromString("0.3")))
}

func TestAmountJSONIsANumber(t *testing.T) {
	a, err := ParseAmount("1234.5")
	require.NoError(t, err)

	body, err := json.Marshal(map[string]Amount{"total": a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":1234.50}`, string(body))

	var back struct{ Total Amount }
	require.NoError(t, json.Unmarshal([]byte(`{"Total":99.99}`), &back))
	assert.Equal(t, "99.99", back.Total.String())
}

func TestAmountRoundsToCents(t *testing.T) {
	assert.Equal(t, "10.13", AmountOf(decimal.RequireFromString("10.125")).String())
	assert.Equal(t, "0.00", Amount{}.String())

	_, err := ParseAmount("ten")
	assert.Error(t, err)
}
