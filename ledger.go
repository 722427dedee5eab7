package walletd

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionFilter narrows a ledger search. Zero fields are ignored and
// the set fields are ANDed together.
type TransactionFilter struct {
	Type   TransactionType
	Status TransactionStatus
	Asset  string
	From   time.Time
	To     time.Time
}

// record inserts a transaction at the head of the ledger, assigning an id
// and timestamp when absent. The ledger is stored newest first; insertion
// order is preserved underneath the reversal. Caller must hold e.mu.
func (e *Engine) record(tx *Transaction) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	if tx.Timestamp.IsZero() {
		tx.Timestamp = e.clock.Now()
	}

	e.ledger = append([]*Transaction{tx}, e.ledger...)
	e.journalTransaction(tx)
}

// setTransactionStatus advances a pending ledger entry to a terminal
// status. Only the status, hash and confirmations move; every other field
// is frozen at insertion. Caller must hold e.mu.
func (e *Engine) setTransactionStatus(id uuid.UUID, status TransactionStatus, txHash string, confirmations int) {
	for _, tx := range e.ledger {
		if tx.ID != id {
			continue
		}

		if tx.Status != TransactionPending {
			return
		}

		tx.Status = status
		if txHash != "" {
			tx.TxHash = txHash
		}

		if confirmations > 0 {
			tx.Confirmations = confirmations
		}

		e.journalTransaction(tx)
		return
	}
}

// Transactions returns up to limit of the most recent entries, or the
// whole ledger for limit <= 0.
func (e *Engine) Transactions(limit int) []*Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.ledger)
	if limit > 0 && limit < n {
		n = limit
	}

	txs := make([]*Transaction, 0, n)
	for _, tx := range e.ledger[:n] {
		t := *tx
		txs = append(txs, &t)
	}

	return txs
}

// SearchTransactions matches query case-insensitively against the asset
// symbol, description, hash and both addresses, then applies the filter.
// An empty query with no filter returns the full ledger.
func (e *Engine) SearchTransactions(query string, filter TransactionFilter) []*Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))

	var txs []*Transaction
	for _, tx := range e.ledger {
		if !matchQuery(tx, query) || !matchFilter(tx, filter) {
			continue
		}

		t := *tx
		txs = append(txs, &t)
	}

	return txs
}

func matchQuery(tx *Transaction, query string) bool {
	if query == "" {
		return true
	}

	for _, field := range []string{tx.Asset, tx.Description, tx.TxHash, tx.FromAddress, tx.ToAddress} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}

	return false
}

func matchFilter(tx *Transaction, f TransactionFilter) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}

	if f.Status != "" && tx.Status != f.Status {
		return false
	}

	if f.Asset != "" && tx.Asset != f.Asset {
		return false
	}

	if !f.From.IsZero() && tx.Timestamp.Before(f.From) {
		return false
	}

	if !f.To.IsZero() && tx.Timestamp.After(f.To) {
		return false
	}

	return true
}
