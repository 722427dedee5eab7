package walletd

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func seedLedger(e *Engine, clock *fakeClock) {
	e.mu.Lock()
	e.record(&Transaction{
		Type:        TransactionDeposit,
		Status:      TransactionCompleted,
		Asset:       "USDT",
		Amount:      decimal.NewFromInt(100),
		Value:       decimal.NewFromInt(100),
		TxHash:      "a1b2c3",
		Description: "Deposit 100 USDT via TRC20",
	})
	e.mu.Unlock()

	clock.advance(time.Hour)

	e.mu.Lock()
	e.record(&Transaction{
		Type:        TransactionTrade,
		Status:      TransactionCompleted,
		Asset:       "BTC",
		Amount:      decimal.NewFromFloat(0.002),
		Value:       decimal.NewFromInt(86),
		Description: "Buy BTC at market",
	})
	e.mu.Unlock()
}

func TestTransactionsNewestFirst(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	seedLedger(e, clock)

	txs := e.Transactions(0)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}

	if txs[0].Type != TransactionTrade || txs[1].Type != TransactionDeposit {
		t.Fatalf("unexpected order: %s, %s", txs[0].Type, txs[1].Type)
	}

	if limited := e.Transactions(1); len(limited) != 1 || limited[0].Type != TransactionTrade {
		t.Fatalf("limit=1 returned %d entries", len(limited))
	}
}

func TestSearchByTypeFilter(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	seedLedger(e, clock)

	txs := e.SearchTransactions("", TransactionFilter{Type: TransactionTrade})
	if len(txs) != 1 {
		t.Fatalf("expected exactly the trade, got %d entries", len(txs))
	}

	if txs[0].Asset != "BTC" {
		t.Fatalf("filtered asset = %s, want BTC", txs[0].Asset)
	}
}

func TestSearchQueryIsCaseInsensitiveAcrossFields(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	seedLedger(e, clock)

	for _, query := range []string{"usdt", "A1B2C3", "trc20"} {
		txs := e.SearchTransactions(query, TransactionFilter{})
		if len(txs) != 1 || txs[0].Type != TransactionDeposit {
			t.Fatalf("query %q: got %d entries", query, len(txs))
		}
	}

	// "btc" matches the trade's symbol and description only
	if txs := e.SearchTransactions("btc", TransactionFilter{}); len(txs) != 1 || txs[0].Type != TransactionTrade {
		t.Fatalf("query btc: got %d entries", len(txs))
	}

	if txs := e.SearchTransactions("nothing-matches", TransactionFilter{}); len(txs) != 0 {
		t.Fatalf("bogus query matched %d entries", len(txs))
	}
}

func TestSearchEmptyQueryNoFilterReturnsAll(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	seedLedger(e, clock)

	if txs := e.SearchTransactions("", TransactionFilter{}); len(txs) != 2 {
		t.Fatalf("expected full ledger, got %d entries", len(txs))
	}
}

func TestSearchDateRange(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	start := clock.Now()
	seedLedger(e, clock)

	// only the first entry falls inside [start, start+30m]
	txs := e.SearchTransactions("", TransactionFilter{
		From: start,
		To:   start.Add(30 * time.Minute),
	})

	if len(txs) != 1 || txs[0].Type != TransactionDeposit {
		t.Fatalf("date range: got %d entries", len(txs))
	}
}

func TestSearchFiltersAreANDed(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	seedLedger(e, clock)

	txs := e.SearchTransactions("", TransactionFilter{
		Type:  TransactionTrade,
		Asset: "USDT",
	})

	if len(txs) != 0 {
		t.Fatalf("conflicting filters matched %d entries", len(txs))
	}
}

func TestSetTransactionStatusIsForwardOnly(t *testing.T) {
	e, clock, _ := newTestEngine(t)

	e.mu.Lock()
	tx := &Transaction{
		Type:   TransactionWithdrawal,
		Status: TransactionPending,
		Asset:  "USDT",
		Amount: decimal.NewFromInt(5),
		Value:  decimal.NewFromInt(5),
	}
	e.record(tx)
	e.setTransactionStatus(tx.ID, TransactionCompleted, "deadbeef", 0)
	e.setTransactionStatus(tx.ID, TransactionCancelled, "", 0)
	e.mu.Unlock()

	clock.advance(time.Second)

	got := e.Transactions(1)[0]
	if got.Status != TransactionCompleted || got.TxHash != "deadbeef" {
		t.Fatalf("terminal status moved: status=%s hash=%q", got.Status, got.TxHash)
	}
}
