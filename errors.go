package walletd

import "errors"

var (
	// ErrInsufficientBalance rejects a withdrawal whose amount plus fee
	// exceeds the reservable balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAssetNotFound rejects an operation on an unknown asset symbol.
	ErrAssetNotFound = errors.New("asset not found")

	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidNetwork = errors.New("invalid network")
)
