// internal/models/wei.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
)

// Wei is an exact, non-negative integer amount in the asset's minor unit.
// It is stored as numeric(78,0) in PostgreSQL and serialized as a decimal
// string in JSON, the same representation the marketplace contract uses.
// Floating point is never involved.
type Wei struct {
	value big.Int
}

const maticDecimals = 18

// NewWei parses a decimal string into a Wei amount. The string must be a
// plain base-10 non-negative integer.
func NewWei(s string) (Wei, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Wei{}, fmt.Errorf("invalid wei amount %q", s)
	}
	if v.Sign() < 0 {
		return Wei{}, fmt.Errorf("wei amount must not be negative, got %q", s)
	}
	var w Wei
	w.value.Set(v)
	return w, nil
}

// WeiFromBig copies v into a Wei amount. Negative values are clamped to zero;
// callers validate sign before constructing.
func WeiFromBig(v *big.Int) Wei {
	var w Wei
	if v != nil && v.Sign() > 0 {
		w.value.Set(v)
	}
	return w
}

// MustWei is a test and seed helper; it panics on malformed input.
func MustWei(s string) Wei {
	w, err := NewWei(s)
	if err != nil {
		panic(err)
	}
	return w
}

// BigInt returns a copy, so callers cannot mutate the stored amount.
func (w Wei) BigInt() *big.Int {
	return new(big.Int).Set(&w.value)
}

func (w Wei) String() string {
	return w.value.String()
}

func (w Wei) IsZero() bool {
	return w.value.Sign() == 0
}

// Cmp returns -1, 0 or 1 like big.Int.Cmp.
func (w Wei) Cmp(other Wei) int {
	return w.value.Cmp(&other.value)
}

// Add returns w + other without mutating either operand.
func (w Wei) Add(other Wei) Wei {
	var out Wei
	out.value.Add(&w.value, &other.value)
	return out
}

// Matic returns the whole-MATIC display value (integer division by 10^18).
// This conversion exists only for the presentation boundary; all arithmetic
// stays in wei.
func (w Wei) Matic() string {
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(maticDecimals), nil)
	return new(big.Int).Quo(&w.value, base).String()
}

func (w Wei) Value() (driver.Value, error) {
	return w.value.String(), nil
}

func (w *Wei) Scan(value interface{}) error {
	if value == nil {
		w.value.SetInt64(0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return w.set(string(v))
	case string:
		return w.set(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("cannot scan negative value %d into Wei", v)
		}
		w.value.SetInt64(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Wei", value)
	}
}

func (w *Wei) set(s string) error {
	parsed, err := NewWei(s)
	if err != nil {
		return err
	}
	w.value.Set(&parsed.value)
	return nil
}

// GormDataType keeps enough precision for any uint256 amount.
func (Wei) GormDataType() string {
	return "numeric(78,0)"
}

func (w Wei) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.value.String())
}

func (w *Wei) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("wei amounts must be JSON strings: %w", err)
	}
	return w.set(s)
}
