package ledger

import "errors"

var (
	// ErrInsufficientAmount rejects zero or negative transfer amounts.
	ErrInsufficientAmount = errors.New("ledger: amount must be positive")
	// ErrInsufficientBalance marks debits exceeding the spendable balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrOverflow marks credits that would push a balance past the
	// representable range.
	ErrOverflow = errors.New("ledger: balance overflow")
)
