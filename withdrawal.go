package walletd

import (
	"context"
	"fmt"
	"sort"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalInput struct {
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	ToAddress string          `json:"to_address"`
	Network   string          `json:"network"`
}

// RequestWithdrawal validates the input and reserves amount+fee from the
// asset balance before the simulated latency, so two rapid requests can
// never both pass the balance check against a stale balance. The request
// starts pending; cancellation or failure refunds the reservation exactly
// once.
func (e *Engine) RequestWithdrawal(ctx context.Context, input WithdrawalInput) (*WithdrawalRequest, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if input.Fee.IsNegative() {
		return nil, ErrInvalidAmount
	}

	if !govalidator.IsPrintableASCII(input.ToAddress) || len(input.ToAddress) < 20 || len(input.ToAddress) > 128 {
		return nil, ErrInvalidAddress
	}

	e.mu.Lock()

	asset, ok := e.assets[input.Asset]
	if !ok {
		e.mu.Unlock()
		return nil, ErrAssetNotFound
	}

	if input.Network == "" {
		input.Network = asset.Network
	} else if input.Network != asset.Network {
		e.mu.Unlock()
		return nil, ErrInvalidNetwork
	}

	fee := input.Fee
	if seed := e.seeds[input.Asset]; fee.LessThan(seed.MinWithdrawalFee) {
		fee = seed.MinWithdrawalFee
	}

	if err := e.adjustBalance(input.Asset, input.Amount.Add(fee).Neg()); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	w := &WithdrawalRequest{
		ID:        uuid.New(),
		Asset:     input.Asset,
		Amount:    input.Amount,
		Fee:       fee,
		ToAddress: input.ToAddress,
		Network:   input.Network,
		Status:    WithdrawalPending,
		CreatedAt: e.clock.Now(),
	}

	tx := &Transaction{
		Type:        TransactionWithdrawal,
		Status:      TransactionPending,
		Asset:       w.Asset,
		Amount:      w.Amount,
		Value:       w.Amount.Mul(asset.Price),
		Fee:         w.Fee,
		FromAddress: asset.Address,
		ToAddress:   w.ToAddress,
		Description: fmt.Sprintf("Withdraw %s %s to %s", w.Amount, w.Asset, w.ToAddress),
	}
	e.record(tx)
	w.LedgerID = tx.ID

	e.withdrawals[w.ID] = w
	e.journalWithdrawal(w)

	out := *w
	e.mu.Unlock()

	e.notify()

	if err := e.wait(ctx); err != nil {
		return nil, err
	}

	return &out, nil
}

// CancelWithdrawal cancels a pending withdrawal and refunds its
// reservation. Any other precondition resolves false with no side
// effects: an already processed withdrawal is an expected outcome, not an
// error.
func (e *Engine) CancelWithdrawal(ctx context.Context, id uuid.UUID) bool {
	e.mu.Lock()

	w, ok := e.withdrawals[id]
	if !ok || w.Status != WithdrawalPending {
		e.mu.Unlock()
		return false
	}

	if err := e.adjustBalance(w.Asset, w.Amount.Add(w.Fee)); err != nil {
		e.mu.Unlock()
		return false
	}

	w.Status = WithdrawalCancelled
	w.Reason = "cancelled by user"
	e.setTransactionStatus(w.LedgerID, TransactionCancelled, "", 0)
	e.journalWithdrawal(w)
	e.mu.Unlock()

	e.notify()

	_ = e.wait(ctx)
	return true
}

// Withdrawal returns a copy of one withdrawal request, or false if
// unknown.
func (e *Engine) Withdrawal(id uuid.UUID) (*WithdrawalRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.withdrawals[id]
	if !ok {
		return nil, false
	}

	out := *w
	return &out, true
}

// Withdrawals returns copies of all tracked withdrawal requests, newest
// first.
func (e *Engine) Withdrawals() []*WithdrawalRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := make([]*WithdrawalRequest, 0, len(e.withdrawals))
	for _, w := range e.withdrawals {
		out := *w
		ws = append(ws, &out)
	}

	sort.Slice(ws, func(i, j int) bool {
		return ws[i].CreatedAt.After(ws[j].CreatedAt)
	})

	return ws
}

// beginProcessing moves a pending withdrawal into processing. Caller must
// hold e.mu.
func (e *Engine) beginProcessing(id uuid.UUID) {
	w, ok := e.withdrawals[id]
	if !ok || w.Status != WithdrawalPending {
		return
	}

	w.Status = WithdrawalProcessing
	e.journalWithdrawal(w)
}

// advanceWithdrawal completes a processing withdrawal. The reservation was
// taken at request time, so completion never touches the balance.
// Caller must hold e.mu.
func (e *Engine) advanceWithdrawal(id uuid.UUID) {
	w, ok := e.withdrawals[id]
	if !ok || w.Status != WithdrawalProcessing {
		return
	}

	w.Status = WithdrawalCompleted
	w.ProcessedAt = e.clock.Now()
	w.TxHash = txHashFor(w.ID)
	e.setTransactionStatus(w.LedgerID, TransactionCompleted, w.TxHash, 0)
	e.journalWithdrawal(w)
}

// failWithdrawal fails a pending or processing withdrawal and refunds the
// reservation exactly once. Caller must hold e.mu.
func (e *Engine) failWithdrawal(id uuid.UUID, reason string) {
	w, ok := e.withdrawals[id]
	if !ok || (w.Status != WithdrawalPending && w.Status != WithdrawalProcessing) {
		return
	}

	if err := e.adjustBalance(w.Asset, w.Amount.Add(w.Fee)); err != nil {
		return
	}

	w.Status = WithdrawalFailed
	w.Reason = reason
	e.setTransactionStatus(w.LedgerID, TransactionFailed, "", 0)
	e.journalWithdrawal(w)
}
