package walletd

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// damping keeps a single price tick from dominating the displayed
	// 24h change.
	damping = decimal.NewFromFloat(0.1)
)

// Assets returns a snapshot of the registry in seed order. The copies are
// safe for the caller to hold.
func (e *Engine) Assets() []*Asset {
	e.mu.Lock()
	defer e.mu.Unlock()

	assets := make([]*Asset, 0, len(e.order))
	for _, symbol := range e.order {
		a := *e.assets[symbol]
		assets = append(assets, &a)
	}

	return assets
}

// Asset returns a copy of one asset, or false for an unknown symbol.
func (e *Engine) Asset(symbol string) (*Asset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, ok := e.assets[symbol]
	if !ok {
		return nil, false
	}

	a := *asset
	return &a, true
}

// applyPriceDrift moves the price by the fractional delta and recomputes
// the valuation. Caller must hold e.mu.
func (e *Engine) applyPriceDrift(symbol string, delta decimal.Decimal) {
	asset, ok := e.assets[symbol]
	if !ok {
		return
	}

	asset.Price = asset.Price.Mul(decimal.NewFromInt(1).Add(delta))
	asset.Value = asset.Balance.Mul(asset.Price)
	asset.Change24h = asset.Change24h.Add(delta.Mul(hundred).Mul(damping))
}

// adjustBalance credits or debits an asset, refusing any change that would
// drive the balance negative. Caller must hold e.mu.
func (e *Engine) adjustBalance(symbol string, delta decimal.Decimal) error {
	asset, ok := e.assets[symbol]
	if !ok {
		return ErrAssetNotFound
	}

	next := asset.Balance.Add(delta)
	if next.IsNegative() {
		return ErrInsufficientBalance
	}

	asset.Balance = next
	asset.Value = next.Mul(asset.Price)
	return nil
}
