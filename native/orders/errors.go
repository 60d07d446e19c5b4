package orders

import "errors"

var (
	ErrOrderNotFound       = errors.New("orders: order not found")
	ErrUserNotFound        = errors.New("orders: user not registered")
	ErrWrongRole           = errors.New("orders: caller lacks required role")
	ErrPublicationNotFound = errors.New("orders: publication not found")
	ErrInvalidQuantity     = errors.New("orders: quantity must be positive")
	ErrInsufficientAmount  = errors.New("orders: declared amount below order total")
	ErrOverflow            = errors.New("orders: amount overflow")
	ErrNotSeller           = errors.New("orders: caller is not the seller")
	ErrNotBuyer            = errors.New("orders: caller is not the buyer")
	ErrNotAuthorized       = errors.New("orders: caller is not a party to the order")
	ErrOrderCancelled      = errors.New("orders: order has been cancelled")
	ErrWrongState          = errors.New("orders: operation invalid for current order state")
	ErrCancellationPending = errors.New("orders: cancellation request already pending")
	ErrAlreadyRated        = errors.New("orders: counterparty already rated")
	ErrRatingOutOfRange    = errors.New("orders: rating must be between 1 and 5")
	ErrInvalidPayment      = errors.New("orders: invalid payment method")
	ErrInvalidReason       = errors.New("orders: invalid dispute reason")
	ErrInvalidResolution   = errors.New("orders: invalid dispute resolution")
	ErrInvalidDecision     = errors.New("orders: invalid dispute decision")
	ErrNotInDispute        = errors.New("orders: order is not in dispute")
	ErrNotPendingArbiter   = errors.New("orders: order is not awaiting an arbiter")
	ErrNotArbiter          = errors.New("orders: caller is not an arbiter")
	ErrDisputeNotResolved  = errors.New("orders: dispute not resolved")
)
