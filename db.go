package walletd

import (
	"encoding/json"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	g "github.com/pandodao/generic"
)

// Journal layout: transactions under t: keyed by timestamp+id so a reverse
// scan yields newest first, requests under d:/w: keyed by id. The journal
// is best effort; the in-memory engine state stays authoritative.
var (
	txPrefix         = []byte("t:")
	depositPrefix    = []byte("d:")
	withdrawalPrefix = []byte("w:")
)

func saveTransaction(txn *badger.Txn, tx *Transaction) error {
	pk := buildIndexKey(txPrefix, tx.Timestamp.UnixNano(), tx.ID)
	e := badger.NewEntry(pk, g.Must(json.Marshal(tx)))
	return txn.SetEntry(e)
}

func listTransactions(txn *badger.Txn) ([]*Transaction, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	it := txn.NewIterator(opts)
	defer it.Close()

	// seek past the last possible t: key, then walk backwards
	seek := append([]byte{}, txPrefix...)
	seek = append(seek, 0xff)

	var txs []*Transaction
	for it.Seek(seek); it.ValidForPrefix(txPrefix); it.Next() {
		item := it.Item()

		var (
			nanos int64
			id    uuid.UUID
		)
		if err := decodeIndexKey(item.Key(), txPrefix, &nanos, &id); err != nil {
			slog.Warn("skip malformed journal key", "err", err)
			continue
		}

		var tx Transaction
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tx)
		}); err != nil {
			return nil, err
		}

		txs = append(txs, &tx)
	}

	return txs, nil
}

func saveDeposit(txn *badger.Txn, dep *DepositRequest) error {
	pk := buildIndexKey(depositPrefix, dep.ID)
	e := badger.NewEntry(pk, g.Must(json.Marshal(dep)))
	return txn.SetEntry(e)
}

func listDeposits(txn *badger.Txn) ([]*DepositRequest, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 10
	it := txn.NewIterator(opts)
	defer it.Close()

	var deps []*DepositRequest
	for it.Seek(depositPrefix); it.ValidForPrefix(depositPrefix); it.Next() {
		var dep DepositRequest
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &dep)
		}); err != nil {
			return nil, err
		}

		deps = append(deps, &dep)
	}

	return deps, nil
}

func saveWithdrawal(txn *badger.Txn, w *WithdrawalRequest) error {
	pk := buildIndexKey(withdrawalPrefix, w.ID)
	e := badger.NewEntry(pk, g.Must(json.Marshal(w)))
	return txn.SetEntry(e)
}

func listWithdrawals(txn *badger.Txn) ([]*WithdrawalRequest, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 10
	it := txn.NewIterator(opts)
	defer it.Close()

	var ws []*WithdrawalRequest
	for it.Seek(withdrawalPrefix); it.ValidForPrefix(withdrawalPrefix); it.Next() {
		var w WithdrawalRequest
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		}); err != nil {
			return nil, err
		}

		ws = append(ws, &w)
	}

	return ws, nil
}

func (e *Engine) journalTransaction(tx *Transaction) {
	if e.db == nil {
		return
	}

	if err := e.db.Update(func(txn *badger.Txn) error {
		return saveTransaction(txn, tx)
	}); err != nil {
		slog.Error("journal transaction failed", "id", tx.ID, "err", err)
	}
}

func (e *Engine) journalDeposit(dep *DepositRequest) {
	if e.db == nil {
		return
	}

	if err := e.db.Update(func(txn *badger.Txn) error {
		return saveDeposit(txn, dep)
	}); err != nil {
		slog.Error("journal deposit failed", "id", dep.ID, "err", err)
	}
}

func (e *Engine) journalWithdrawal(w *WithdrawalRequest) {
	if e.db == nil {
		return
	}

	if err := e.db.Update(func(txn *badger.Txn) error {
		return saveWithdrawal(txn, w)
	}); err != nil {
		slog.Error("journal withdrawal failed", "id", w.ID, "err", err)
	}
}

// loadJournal restores the ledger and both trackers from a previous run.
func (e *Engine) loadJournal() {
	err := e.db.View(func(txn *badger.Txn) error {
		txs, err := listTransactions(txn)
		if err != nil {
			return err
		}
		e.ledger = txs

		deps, err := listDeposits(txn)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			e.deposits[dep.ID] = dep
		}

		ws, err := listWithdrawals(txn)
		if err != nil {
			return err
		}
		for _, w := range ws {
			e.withdrawals[w.ID] = w
		}

		return nil
	})

	if err != nil {
		slog.Error("load journal failed", "err", err)
		return
	}

	e.replayBalances()

	slog.Info("journal loaded",
		"transactions", len(e.ledger),
		"deposits", len(e.deposits),
		"withdrawals", len(e.withdrawals),
	)
}

// replayBalances reapplies the balance effects of restored requests. Seeds
// only give opening balances, so every confirmed deposit credit and every
// withdrawal reservation that was never refunded must land on the registry
// again, or a restored pending withdrawal would refund money this run
// never reserved.
func (e *Engine) replayBalances() {
	for _, dep := range e.deposits {
		if dep.Status != DepositConfirmed {
			continue
		}

		if err := e.adjustBalance(dep.Asset, dep.Amount); err != nil {
			slog.Error("replay deposit credit failed", "id", dep.ID, "err", err)
		}
	}

	for _, w := range e.withdrawals {
		switch w.Status {
		case WithdrawalPending, WithdrawalProcessing, WithdrawalCompleted:
		default:
			// cancelled and failed requests already got their refund
			continue
		}

		if err := e.adjustBalance(w.Asset, w.Amount.Add(w.Fee).Neg()); err != nil {
			slog.Error("replay withdrawal reservation failed", "id", w.ID, "err", err)
		}
	}
}
