package escrow

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"mercato/core/types"
)

const (
	EventTypeEscrowLocked   = "escrow.locked"
	EventTypeEscrowReleased = "escrow.released"
	EventTypeEscrowRefunded = "escrow.refunded"
)

type holdEvent struct {
	evt *types.Event
}

func (e *holdEvent) EventType() string {
	if e == nil || e.evt == nil {
		return ""
	}
	return e.evt.Type
}

// Event exposes the canonical payload for downstream subscribers.
func (e *holdEvent) Event() *types.Event { return e.evt }

func newHoldEvent(eventType string, orderID uint64, amount *big.Int, account [20]byte) *holdEvent {
	attrs := map[string]string{
		"orderId": strconv.FormatUint(orderID, 10),
		"account": hex.EncodeToString(account[:]),
	}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	return &holdEvent{evt: &types.Event{Type: eventType, Attributes: attrs}}
}
