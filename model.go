package walletd

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTrade      TransactionType = "trade"
	TransactionTransfer   TransactionType = "transfer"
	TransactionFee        TransactionType = "fee"
	TransactionReward     TransactionType = "reward"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositConfirmed DepositStatus = "confirmed"
	DepositFailed    DepositStatus = "failed"
)

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalFailed     WithdrawalStatus = "failed"
	WithdrawalCancelled  WithdrawalStatus = "cancelled"
)

// Asset is one tracked balance/price pair. Value is kept equal to
// Balance * Price after every mutation.
type Asset struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"`
	Change24h decimal.Decimal `json:"change_24h"`
	Network   string          `json:"network"`
	Address   string          `json:"address"`
}

type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Asset         string            `json:"asset"`
	Amount        decimal.Decimal   `json:"amount"`
	Value         decimal.Decimal   `json:"value"`
	Fee           decimal.Decimal   `json:"fee"`
	FromAddress   string            `json:"from_address,omitempty"`
	ToAddress     string            `json:"to_address,omitempty"`
	TxHash        string            `json:"tx_hash,omitempty"`
	Confirmations int               `json:"confirmations,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Description   string            `json:"description"`
}

type DepositRequest struct {
	ID                    uuid.UUID       `json:"id"`
	Asset                 string          `json:"asset"`
	Amount                decimal.Decimal `json:"amount"`
	Address               string          `json:"address"`
	Network               string          `json:"network"`
	Status                DepositStatus   `json:"status"`
	Confirmations         int             `json:"confirmations"`
	RequiredConfirmations int             `json:"required_confirmations"`
	TxHash                string          `json:"tx_hash"`
	CreatedAt             time.Time       `json:"created_at"`
	EstimatedCompletion   time.Time       `json:"estimated_completion"`
}

type WithdrawalRequest struct {
	ID          uuid.UUID        `json:"id"`
	Asset       string           `json:"asset"`
	Amount      decimal.Decimal  `json:"amount"`
	Fee         decimal.Decimal  `json:"fee"`
	ToAddress   string           `json:"to_address"`
	Network     string           `json:"network"`
	Status      WithdrawalStatus `json:"status"`
	TxHash      string           `json:"tx_hash,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ProcessedAt time.Time        `json:"processed_at,omitempty"`

	// LedgerID points at the pending ledger entry created at request time.
	LedgerID uuid.UUID `json:"ledger_id"`
}

// DepositAddress is the result of generating a deposit address. Memo is
// only set for networks that route by memo instead of by address.
type DepositAddress struct {
	Address   string `json:"address"`
	Memo      string `json:"memo,omitempty"`
	QRPayload string `json:"qr_payload"`
}

// WalletStats is derived from the registry and the ledger on every read;
// it has no lifecycle of its own.
type WalletStats struct {
	TotalValue        decimal.Decimal `json:"total_value"`
	Change24h         decimal.Decimal `json:"change_24h"`
	ChangePercent24h  decimal.Decimal `json:"change_percent_24h"`
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals  decimal.Decimal `json:"total_withdrawals"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}
