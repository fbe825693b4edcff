package models

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is an immutable baht amount with exact decimal semantics. All
// monetary fields and arithmetic in the booking core go through this type;
// binary floats never enter a price computation. Amounts are kept at two
// decimal places (satang) and rounded half-up.
//
// The zero value is ฿0.00 and ready to use.
type Money struct {
	d decimal.Decimal
}

// NewMoney parses a decimal string such as "3200" or "7200.50".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid money amount %q", ErrInvalidArgument, s)
	}
	return Money{d: d.Round(2)}, nil
}

// MustMoney is NewMoney for literals known to be valid; it panics otherwise.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromSatang builds an amount from integer minor units (100 satang = ฿1).
func MoneyFromSatang(satang int64) Money {
	return Money{d: decimal.New(satang, -2)}
}

// MoneyFromBaht builds a whole-baht amount.
func MoneyFromBaht(baht int64) Money {
	return Money{d: decimal.New(baht, 0)}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// MulInt returns m * n.
func (m Money) MulInt(n int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))}
}

// MulRate multiplies by a decimal rate (e.g. "0.30") and rounds half-up to
// two decimal places.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{d: m.d.Mul(rate).Round(2)}
}

// Cmp compares exact decimal values: -1 if m < other, 0 if equal, +1 if greater.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports exact decimal equality.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// String renders the amount with two decimal places, e.g. "24000.00".
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string so clients never see a
// binary-float approximation.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalBSONValue stores the amount as a Decimal128 so aggregation over
// prices stays exact in the database.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money to decimal128: %v", err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue reads Decimal128 plus the numeric shapes legacy
// documents may still carry (double, int32/int64, string).
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		d128, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("money: malformed decimal128 value")
		}
		parsed, err := NewMoney(d128.String())
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case bson.TypeDouble:
		f, ok := raw.DoubleOK()
		if !ok {
			return fmt.Errorf("money: malformed double value")
		}
		// Display-precision fallback for documents written before the
		// Decimal128 migration; rounded to satang on the way in.
		m.d = decimal.NewFromFloat(f).Round(2)
		return nil
	case bson.TypeInt32:
		i, _ := raw.Int32OK()
		*m = MoneyFromBaht(int64(i))
		return nil
	case bson.TypeInt64:
		i, _ := raw.Int64OK()
		*m = MoneyFromBaht(i)
		return nil
	case bson.TypeString:
		s, _ := raw.StringValueOK()
		parsed, err := NewMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case bson.TypeNull:
		*m = Money{}
		return nil
	default:
		return fmt.Errorf("money: cannot decode bson type %s", t)
	}
}
