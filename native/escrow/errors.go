package escrow

import "errors"

var (
	// ErrFundsAlreadyHeld rejects a second hold for an order that already
	// retains funds.
	ErrFundsAlreadyHeld = errors.New("escrow: funds already held for order")
	// ErrFundsNotHeld marks a release or refund against an order without a
	// hold record. This indicates inconsistent state and is a hard failure.
	ErrFundsNotHeld = errors.New("escrow: no funds held for order")
)
