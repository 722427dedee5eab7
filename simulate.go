package walletd

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Per-tick advancement odds for the confirmation loop.
const (
	depositConfirmOdds    = 0.6
	withdrawalProcessOdds = 0.5
	withdrawalFailOdds    = 0.05
	withdrawalSettleOdds  = 0.55
)

// LoopPrices drifts every asset price on a fixed interval until ctx is
// cancelled.
func (e *Engine) LoopPrices(ctx context.Context) error {
	for {
		e.runTick("prices", e.tickPrices)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.PriceInterval):
		}
	}
}

// LoopConfirmations advances pending deposits and withdrawals on a fixed
// interval until ctx is cancelled.
func (e *Engine) LoopConfirmations(ctx context.Context) error {
	for {
		e.runTick("confirmations", e.tickConfirmations)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.ConfirmInterval):
		}
	}
}

// runTick isolates one tick so a panic cannot stop the loop.
func (e *Engine) runTick(name string, tick func() bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick panicked", "tick", name, "err", r)
		}
	}()

	if tick() {
		e.notify()
	}
}

// tickPrices draws one bounded fractional delta per asset and applies it.
// Observers get a single broadcast for the whole batch.
func (e *Engine) tickPrices() bool {
	e.mu.Lock()

	changed := false

	for _, symbol := range e.order {
		vol := e.seeds[symbol].Volatility
		if vol <= 0 {
			continue
		}

		delta := (e.rng.Float64()*2 - 1) * vol
		e.applyPriceDrift(symbol, decimal.NewFromFloat(delta))
		changed = true
	}

	e.mu.Unlock()
	return changed
}

// tickConfirmations probabilistically advances every pending deposit and
// moves withdrawals through processing to completion. A small draw fails a
// processing withdrawal instead, which refunds its reservation.
func (e *Engine) tickConfirmations() bool {
	e.mu.Lock()

	changed := false

	for _, dep := range e.deposits {
		if dep.Status != DepositPending {
			continue
		}

		if e.rng.Float64() < depositConfirmOdds {
			e.advanceConfirmations(dep.ID)
			changed = true
		}
	}

	for _, w := range e.withdrawals {
		switch w.Status {
		case WithdrawalPending:
			if e.rng.Float64() < withdrawalProcessOdds {
				e.beginProcessing(w.ID)
				changed = true
			}
		case WithdrawalProcessing:
			draw := e.rng.Float64()
			switch {
			case draw < withdrawalFailOdds:
				e.failWithdrawal(w.ID, "rejected by network")
				changed = true
			case draw < withdrawalSettleOdds:
				e.advanceWithdrawal(w.ID)
				changed = true
			}
		}
	}

	e.mu.Unlock()
	return changed
}
