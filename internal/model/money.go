package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-point amount in cents.  On the wire it is a decimal
// string with two places ("89.99"); input accepts either a string or a
// JSON number with at most two fractional digits.
type Money int64

// ErrInvalidMoney is returned when an amount cannot be parsed or does not
// fit in the cent range.
var ErrInvalidMoney = errors.New("invalid money amount")

const (
	MaxMoney Money = math.MaxInt64
	MinMoney Money = math.MinInt64

	maxUnits = (math.MaxInt64 - 99) / 100
)

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 { return int64(m) }

// Float64 returns the amount in currency units.  Only use it for display
// or for values that are rounded again afterwards.
func (m Money) Float64() float64 { return float64(m) / 100 }

// Add returns m+o clamped to [MinMoney, MaxMoney].
func (m Money) Add(o Money) Money {
	s := m + o
	switch {
	case o > 0 && s < m:
		return MaxMoney
	case o < 0 && s > m:
		return MinMoney
	}
	return s
}

// Mul returns m×n clamped to [MinMoney, MaxMoney].
func (m Money) Mul(n int64) Money {
	if m == 0 || n == 0 {
		return 0
	}
	p := int64(m) * n
	if (n == -1 && m == MinMoney) || p/n != int64(m) {
		if (m < 0) != (n < 0) {
			return MinMoney
		}
		return MaxMoney
	}
	return Money(p)
}

func (m Money) String() string {
	neg := m < 0
	v := uint64(m)
	if neg {
		v = uint64(-(m + 1)) + 1
	}
	s := fmt.Sprintf("%d.%02d", v/100, v%100)
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts "12.5", "12.50", 12.5 or 12.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidMoney
		}
		raw = s
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMoney parses a decimal string with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMoney
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidMoney
	}
	if len(frac) > 2 {
		return 0, ErrInvalidMoney
	}
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, ErrInvalidMoney
		}
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxUnits {
		return 0, ErrInvalidMoney
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidMoney
	}
	v := units*100 + cents
	if neg {
		v = -v
	}
	return Money(v), nil
}
