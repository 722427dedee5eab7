package walletd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoNetworks route incoming transfers by memo, so generated deposit
// addresses on these networks carry one.
var memoNetworks = map[string]bool{
	"TON": true,
	"XRP": true,
	"EOS": true,
	"XLM": true,
}

// GenerateDepositAddress resolves the deposit address for an asset on a
// network. Addresses are deterministic per (asset, network) and cached, so
// repeated requests return the same address. The success path is delayed
// to simulate the backend round trip.
func (e *Engine) GenerateDepositAddress(ctx context.Context, symbol, network string) (*DepositAddress, error) {
	asset, ok := e.Asset(symbol)
	if !ok {
		return nil, ErrAssetNotFound
	}

	if network == "" {
		network = asset.Network
	}

	key := symbol + ":" + network
	v, err, _ := e.sf.Do(key, func() (interface{}, error) {
		if addr, ok := e.addrs.Get(key); ok {
			return addr, nil
		}

		addr := &DepositAddress{
			Address: addressFor(symbol, network),
		}

		if memoNetworks[network] {
			addr.Memo = memoFor(symbol, network)
		}

		addr.QRPayload = qrPayload(network, addr.Address)

		e.addrs.Set(key, addr)
		return addr, nil
	})

	if err != nil {
		return nil, err
	}

	if err := e.wait(ctx); err != nil {
		return nil, err
	}

	return v.(*DepositAddress), nil
}

// CreateDeposit registers a pending inbound transfer awaiting its
// confirmation threshold. No balance moves until the deposit settles.
func (e *Engine) CreateDeposit(ctx context.Context, symbol string, amount decimal.Decimal, network string) (*DepositRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	e.mu.Lock()

	asset, ok := e.assets[symbol]
	if !ok {
		e.mu.Unlock()
		return nil, ErrAssetNotFound
	}

	if network == "" {
		network = asset.Network
	}

	seed := e.seeds[symbol]
	required := seed.RequiredConfirmations
	if required <= 0 {
		required = 6
	}

	now := e.clock.Now()
	dep := &DepositRequest{
		ID:                    uuid.New(),
		Asset:                 symbol,
		Amount:                amount,
		Address:               addressFor(symbol, network),
		Network:               network,
		Status:                DepositPending,
		Confirmations:         0,
		RequiredConfirmations: required,
		TxHash:                txHashFor(uuid.New()),
		CreatedAt:             now,
		EstimatedCompletion:   now.Add(time.Duration(required) * e.cfg.ConfirmInterval),
	}

	e.deposits[dep.ID] = dep
	e.journalDeposit(dep)

	out := *dep
	e.mu.Unlock()

	e.notify()
	return &out, nil
}

// Deposit returns a copy of one deposit request, or false if unknown.
func (e *Engine) Deposit(id uuid.UUID) (*DepositRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dep, ok := e.deposits[id]
	if !ok {
		return nil, false
	}

	d := *dep
	return &d, true
}

// Deposits returns copies of all tracked deposit requests, newest first.
func (e *Engine) Deposits() []*DepositRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	deps := make([]*DepositRequest, 0, len(e.deposits))
	for _, dep := range e.deposits {
		d := *dep
		deps = append(deps, &d)
	}

	sort.Slice(deps, func(i, j int) bool {
		return deps[i].CreatedAt.After(deps[j].CreatedAt)
	})

	return deps
}

// FailDeposit marks a pending deposit as failed. Nothing was ever
// credited, so there is nothing to refund. Returns false if the deposit is
// unknown or already terminal.
func (e *Engine) FailDeposit(id uuid.UUID) bool {
	e.mu.Lock()

	dep, ok := e.deposits[id]
	if !ok || dep.Status != DepositPending {
		e.mu.Unlock()
		return false
	}

	dep.Status = DepositFailed
	e.journalDeposit(dep)
	e.mu.Unlock()

	e.notify()
	return true
}

// advanceConfirmations bumps a pending deposit by one confirmation, capped
// at the threshold. Crossing the threshold settles the deposit. Caller
// must hold e.mu.
func (e *Engine) advanceConfirmations(id uuid.UUID) {
	dep, ok := e.deposits[id]
	if !ok || dep.Status != DepositPending {
		return
	}

	if dep.Confirmations < dep.RequiredConfirmations {
		dep.Confirmations++
	}

	if dep.Confirmations >= dep.RequiredConfirmations {
		e.settle(id)
		return
	}

	e.journalDeposit(dep)
}

// settle credits a confirmed deposit exactly once: the guard on status
// makes repeated calls no-ops. Caller must hold e.mu.
func (e *Engine) settle(id uuid.UUID) {
	dep, ok := e.deposits[id]
	if !ok || dep.Status != DepositPending {
		return
	}

	if err := e.adjustBalance(dep.Asset, dep.Amount); err != nil {
		dep.Status = DepositFailed
		e.journalDeposit(dep)
		return
	}

	dep.Status = DepositConfirmed
	e.journalDeposit(dep)

	asset := e.assets[dep.Asset]
	e.record(&Transaction{
		Type:          TransactionDeposit,
		Status:        TransactionCompleted,
		Asset:         dep.Asset,
		Amount:        dep.Amount,
		Value:         dep.Amount.Mul(asset.Price),
		ToAddress:     dep.Address,
		TxHash:        dep.TxHash,
		Confirmations: dep.Confirmations,
		Description:   fmt.Sprintf("Deposit %s %s via %s", dep.Amount, dep.Asset, dep.Network),
	})
}

func addressFor(symbol, network string) string {
	sum := sha256.Sum256([]byte("walletd:addr:" + symbol + ":" + network))
	h := hex.EncodeToString(sum[:])

	switch network {
	case "Bitcoin":
		return "bc1q" + h[:38]
	case "ERC20", "BSC":
		return "0x" + h[:40]
	case "TRC20":
		return "T" + h[:33]
	case "Solana":
		return h[:44]
	default:
		return "0x" + h[:40]
	}
}

func memoFor(symbol, network string) string {
	sum := sha256.Sum256([]byte("walletd:memo:" + symbol + ":" + network))
	return fmt.Sprintf("%d", uint32(sum[0])<<16|uint32(sum[1])<<8|uint32(sum[2]))
}

func qrPayload(network, address string) string {
	switch network {
	case "Bitcoin":
		return "bitcoin:" + address
	case "ERC20":
		return "ethereum:" + address
	default:
		return address
	}
}

func txHashFor(id uuid.UUID) string {
	sum := sha256.Sum256(id[:])
	return hex.EncodeToString(sum[:])
}
