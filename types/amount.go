package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is a signed arbitrary-precision integer in the smallest currency unit.
// All arithmetic is integer-only and every operation returns a new value, so an
// Amount can be shared freely. The zero value is 0.
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for decoding.
type Amount struct {
	v *big.Int
}

var hundred = big.NewInt(100)

// NewAmount creates an Amount from an int64.
func NewAmount(n int64) Amount {
	return Amount{v: big.NewInt(n)}
}

// AmountFromBig creates an Amount from a big.Int. The argument is copied.
func AmountFromBig(b *big.Int) Amount {
	if b == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(b)}
}

// ParseAmount parses a base-10 integer string such as "1000" or "-25".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("amount: parse %q: empty string", s)
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: parse %q: not a base-10 integer", s)
	}
	return Amount{v: b}, nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for constants.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) bigInt() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.bigInt())
}

// Add returns a + other.
func (a Amount) Add(other Amount) Amount {
	return Amount{v: new(big.Int).Add(a.bigInt(), other.bigInt())}
}

// Sub returns a - other.
func (a Amount) Sub(other Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.bigInt(), other.bigInt())}
}

// Percent returns floor(a * percent / 100).
// For the non-negative balances the ledger works with this never rounds up.
func (a Amount) Percent(percent int) Amount {
	out := new(big.Int).Mul(a.bigInt(), big.NewInt(int64(percent)))
	return Amount{v: out.Div(out, hundred)}
}

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int { return a.bigInt().Sign() }

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.Sign() == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.Sign() > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a.Sign() < 0 }

// Cmp compares a and other and returns -1, 0 or +1.
func (a Amount) Cmp(other Amount) int { return a.bigInt().Cmp(other.bigInt()) }

// Equal reports whether both amounts hold the same integer.
func (a Amount) Equal(other Amount) bool { return a.Cmp(other) == 0 }

// Int64 returns the amount as an int64 and whether it fit without overflow.
func (a Amount) Int64() (int64, bool) {
	b := a.bigInt()
	return b.Int64(), b.IsInt64()
}

// String returns the base-10 representation.
func (a Amount) String() string { return a.bigInt().String() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string so that values beyond the
// float64 range survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	}
	return a.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. Amounts are stored as decimal text so that
// every backend keeps full precision.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		*a = NewAmount(v)
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T into Amount", src)
	}
}

// Sum returns the total of the given amounts.
func Sum(values ...Amount) Amount {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v.bigInt())
	}
	return Amount{v: total}
}
