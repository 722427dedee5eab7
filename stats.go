package walletd

// Stats recomputes portfolio metrics from the registry and the ledger.
// Percentage fields are zero, never NaN, when their denominator is zero.
func (e *Engine) Stats() WalletStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var stats WalletStats

	for _, symbol := range e.order {
		asset := e.assets[symbol]
		stats.TotalValue = stats.TotalValue.Add(asset.Value)
		stats.Change24h = stats.Change24h.Add(asset.Value.Mul(asset.Change24h).Div(hundred))
	}

	if stats.TotalValue.IsPositive() {
		stats.ChangePercent24h = stats.Change24h.Div(stats.TotalValue).Mul(hundred)
	}

	for _, tx := range e.ledger {
		if tx.Status != TransactionCompleted {
			continue
		}

		switch tx.Type {
		case TransactionDeposit:
			stats.TotalDeposits = stats.TotalDeposits.Add(tx.Value)
		case TransactionWithdrawal:
			stats.TotalWithdrawals = stats.TotalWithdrawals.Add(tx.Value)
		}
	}

	stats.ProfitLoss = stats.TotalValue.Sub(stats.TotalDeposits).Add(stats.TotalWithdrawals)
	if !stats.TotalDeposits.IsZero() {
		stats.ProfitLossPercent = stats.ProfitLoss.Div(stats.TotalDeposits).Mul(hundred)
	}

	return stats
}
