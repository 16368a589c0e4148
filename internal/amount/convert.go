package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToSmallestUnit converts a human-readable decimal string into an integer
// amount in the token's smallest unit. Rejects values with more fractional
// digits than the token's precision, negative values, and values that do not
// fit in int64.
func (r Registry) ToSmallestUnit(human string, symbol string) (int64, error) {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", human, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", human)
	}

	shifted := d.Shift(int32(r.Precision(symbol)))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q exceeds %s precision of %d decimals", human, symbol, r.Precision(symbol))
	}
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("amount %q overflows smallest-unit range", human)
	}
	return bi.Int64(), nil
}

// ToHumanAmount converts a smallest-unit integer into its canonical decimal
// string for the token, with trailing fractional zeros trimmed. Every
// smallest-unit value has exactly one canonical string, and
// ToSmallestUnit(ToHumanAmount(v)) == v; inputs that only differ in trailing
// zeros ("1.5", "1.50") map to the same value and the same canonical string.
func (r Registry) ToHumanAmount(v int64, symbol string) string {
	return decimal.New(v, -int32(r.Precision(symbol))).String()
}

// PriceOf computes the normalized price of a trade:
// floor(quoteAmount * 10^baseDecimals / baseAmount), expressed in quote
// smallest units per one base token unit. Returns 0 when either input is 0.
// Both BUY and SELL price reporting use this single formula so resting and
// aggressing orders never disagree on the traded price.
func (r Registry) PriceOf(quoteAmount, baseAmount int64, baseSymbol string) (int64, error) {
	if quoteAmount == 0 || baseAmount == 0 {
		return 0, nil
	}
	p := new(big.Int).Mul(big.NewInt(quoteAmount), Pow10(r.Precision(baseSymbol)))
	p.Quo(p, big.NewInt(baseAmount))
	if !p.IsInt64() {
		return 0, fmt.Errorf("price of %d/%d overflows", quoteAmount, baseAmount)
	}
	return p.Int64(), nil
}

// Pow10 returns 10^n as a big integer.
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// MulDiv computes floor(a * b / den) exactly. den must be positive; a and b
// must be non-negative. Returns an error if the result overflows int64.
func MulDiv(a, b, den int64) (int64, error) {
	if den <= 0 {
		return 0, fmt.Errorf("muldiv: non-positive denominator %d", den)
	}
	if a < 0 || b < 0 {
		return 0, fmt.Errorf("muldiv: negative operand (%d, %d)", a, b)
	}
	v := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	v.Quo(v, big.NewInt(den))
	if !v.IsInt64() {
		return 0, fmt.Errorf("muldiv: %d*%d/%d overflows", a, b, den)
	}
	return v.Int64(), nil
}

// Sqrt returns floor(sqrt(a * b)). Used for first-deposit LP minting.
func Sqrt(a, b int64) int64 {
	v := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return v.Sqrt(v).Int64()
}
