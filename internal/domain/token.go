package domain

// Token describes a registered token and its decimal precision.
// Corresponds to the tokens collection.
type Token struct {
	Symbol    string // ticker, e.g. "MRY"
	Issuer    string // account that created the token
	Precision uint8  // number of decimal places of the smallest unit
	CreatedAt int64  // record creation timestamp (ms)
}

// DefaultPrecision applies when a symbol is missing from the registry.
const DefaultPrecision uint8 = 8
