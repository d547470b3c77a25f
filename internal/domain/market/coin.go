package market

// Coin identifies a tradable asset. It is used as the lookup key for balances.
type Coin struct {
	ID          uint
	Symbol      string
	Implemented bool
}

// Bitcoin returns the BTC catalog entry.
func Bitcoin(id uint, implemented bool) Coin {
	return Coin{ID: id, Symbol: "BTC", Implemented: implemented}
}

// Ethereum returns the ETH catalog entry.
func Ethereum(id uint, implemented bool) Coin {
	return Coin{ID: id, Symbol: "ETH", Implemented: implemented}
}

// DefaultCoins is the catalog the bot reports balances for.
func DefaultCoins() []Coin {
	return []Coin{
		Bitcoin(0, true),
		Ethereum(1, true),
	}
}
