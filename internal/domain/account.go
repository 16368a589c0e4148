package domain

// Account is a balance ledger entry. Balances map token symbol to amount in
// smallest units and are never negative.
type Account struct {
	Name      string           // account id
	Balances  map[string]int64 // token symbol -> smallest units
	CreatedAt int64            // record creation timestamp (ms)
}

// Balance returns the account's balance for a token symbol (0 if absent).
func (a *Account) Balance(symbol string) int64 {
	return a.Balances[symbol]
}

// Copy returns a detached copy of the account.
func (a *Account) Copy() *Account {
	c := *a
	c.Balances = make(map[string]int64, len(a.Balances))
	for sym, amt := range a.Balances {
		c.Balances[sym] = amt
	}
	return &c
}
