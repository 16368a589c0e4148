// Package amount provides exact, integer-only conversions between
// human-readable decimal amounts and smallest-unit representations, and the
// normalized price formula shared by every trade path. No floating point is
// used anywhere; all division truncates toward zero so value is never
// manufactured by rounding.
package amount

import (
	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

// Registry maps token symbols to decimal precision. It is constructed once
// at startup and immutable afterward; unknown symbols fall back to
// domain.DefaultPrecision.
type Registry struct {
	precisions map[string]uint8
}

// NewRegistry builds a registry from registered tokens.
func NewRegistry(tokens []domain.Token) Registry {
	m := make(map[string]uint8, len(tokens))
	for _, t := range tokens {
		m[t.Symbol] = t.Precision
	}
	return Registry{precisions: m}
}

// Precision returns the decimal count for a symbol, defaulting if unknown.
func (r Registry) Precision(symbol string) uint8 {
	if p, ok := r.precisions[symbol]; ok {
		return p
	}
	return domain.DefaultPrecision
}
