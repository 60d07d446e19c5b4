package orders

import (
	"encoding/hex"
	"strconv"

	"mercato/core/types"
)

const (
	EventTypeOrderPlaced          = "order.placed"
	EventTypeOrderShipped         = "order.shipped"
	EventTypeOrderReceived        = "order.received"
	EventTypeOrderCancelRequested = "order.cancellation_requested"
	EventTypeOrderCancelled       = "order.cancelled"
	EventTypeOrderRated           = "order.rated"
	EventTypeDisputeOpened        = "dispute.opened"
	EventTypeDisputeResolved      = "dispute.resolved"
	EventTypeDisputeEscalated     = "dispute.escalated"
	EventTypeDisputeRuled         = "dispute.ruled"
)

type orderEvent struct {
	evt *types.Event
}

func (e *orderEvent) EventType() string {
	if e == nil || e.evt == nil {
		return ""
	}
	return e.evt.Type
}

// Event exposes the canonical payload for downstream subscribers.
func (e *orderEvent) Event() *types.Event { return e.evt }

func baseAttributes(o *Order) map[string]string {
	return map[string]string{
		"orderId": strconv.FormatUint(o.ID, 10),
		"buyer":   hex.EncodeToString(o.Buyer[:]),
		"seller":  hex.EncodeToString(o.Seller[:]),
		"status":  o.Status.String(),
	}
}

func newOrderEvent(eventType string, o *Order) *orderEvent {
	attrs := baseAttributes(o)
	if eventType == EventTypeOrderPlaced {
		attrs["publicationId"] = strconv.FormatUint(o.PublicationID, 10)
		attrs["quantity"] = strconv.FormatUint(o.Quantity, 10)
		attrs["payment"] = o.Payment.String()
		if o.Total != nil {
			attrs["total"] = o.Total.String()
		}
	}
	return &orderEvent{evt: &types.Event{Type: eventType, Attributes: attrs}}
}

func newRatingEvent(o *Order, rater Party, score uint8) *orderEvent {
	attrs := baseAttributes(o)
	attrs["rater"] = rater.String()
	attrs["score"] = strconv.FormatUint(uint64(score), 10)
	return &orderEvent{evt: &types.Event{Type: EventTypeOrderRated, Attributes: attrs}}
}

func newDisputeEvent(eventType string, o *Order) *orderEvent {
	attrs := baseAttributes(o)
	if o.DisputeReason.Kind != ReasonNone {
		attrs["reason"] = o.DisputeReason.Kind.String()
	}
	if o.Resolution != ResolutionNone {
		attrs["resolution"] = o.Resolution.String()
	}
	return &orderEvent{evt: &types.Event{Type: eventType, Attributes: attrs}}
}
