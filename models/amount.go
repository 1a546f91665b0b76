package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is a money value with two decimal places. It is stored as a BSON
// Decimal128 and written to JSON as a plain number, so totals never pass
// through a binary float.
type Amount struct {
	d primitive.Decimal128
}

// AmountOf rounds d to cents.
func AmountOf(d decimal.Decimal) Amount {
	v, err := primitive.ParseDecimal128(d.StringFixed(2))
	if err != nil {
		// StringFixed always yields a plain decimal literal
		panic(fmt.Sprintf("models: amount %s: %v", d, err))
	}
	return Amount{d: v}
}

// ParseAmount reads a decimal literal such as "17.85".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("models: amount %q: %w", s, err)
	}
	return AmountOf(d), nil
}

func (a Amount) String() string {
	if a.d.IsZero() {
		return "0.00"
	}
	return a.d.String()
}

// Decimal returns the exact value for arithmetic.
func (a Amount) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(a.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Float64 is for metrics and logs only.
func (a Amount) Float64() float64 {
	return a.Decimal().InexactFloat64()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(a.d)
}

// UnmarshalBSONValue also accepts numbers written as doubles or integers by
// older documents.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		a.d = rv.Decimal128()
		return nil
	case bson.TypeDouble:
		*a = AmountOf(decimal.NewFromFloat(rv.Double()))
		return nil
	case bson.TypeInt32:
		*a = AmountOf(decimal.NewFromInt32(rv.Int32()))
		return nil
	case bson.TypeInt64:
		*a = AmountOf(decimal.NewFromInt(rv.Int64()))
		return nil
	case bson.TypeNull:
		*a = Amount{}
		return nil
	}
	return fmt.Errorf("models: cannot decode %s into an amount", t)
}
