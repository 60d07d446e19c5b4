package orders

import "strings"

// DisputeEngine layers the dispute lifecycle over the order engine: the buyer
// opens a dispute, the seller answers it, and an arbiter settles whatever the
// seller contested. It shares the engine's state and collaborators rather than
// holding its own.
type DisputeEngine struct {
	engine *Engine
}

// NewDisputeEngine wraps an order engine with dispute handling.
func NewDisputeEngine(engine *Engine) *DisputeEngine {
	return &DisputeEngine{engine: engine}
}

func (d *DisputeEngine) ready() error {
	if d == nil || d.engine == nil {
		return errNilState
	}
	return d.engine.ready()
}

// Open starts a dispute on behalf of the buyer, or restates an existing one:
// re-opening replaces the recorded reason and pulls an escalated dispute back
// in front of the seller. Only receipt, cancellation and a settled resolution
// put the order out of reach. ReasonOther requires a free-text detail; the
// fixed categories carry none.
func (d *DisputeEngine) Open(caller [20]byte, id uint64, reason Reason) (*Order, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	if _, err := d.engine.account(caller); err != nil {
		return nil, err
	}
	order, err := d.engine.load(id)
	if err != nil {
		return nil, err
	}
	if order.Buyer != caller {
		return nil, ErrNotBuyer
	}
	if !reason.Kind.Valid() {
		return nil, ErrInvalidReason
	}
	if reason.Kind == ReasonOther {
		if strings.TrimSpace(reason.Detail) == "" {
			return nil, ErrInvalidReason
		}
	} else {
		reason.Detail = ""
	}
	switch order.Status {
	case StatusPending, StatusShipped, StatusDisputed, StatusPendingArbiter:
	case StatusCancelled:
		return nil, ErrOrderCancelled
	default:
		return nil, ErrWrongState
	}
	order.Status = StatusDisputed
	order.DisputeReason = reason
	if err := d.engine.put(order); err != nil {
		return nil, err
	}
	d.engine.emit(newDisputeEvent(EventTypeDisputeOpened, order))
	return order.Clone(), nil
}

// Resolve records the seller's answer to an open dispute. A valid decision
// applies the proposed resolution immediately; declaring the dispute invalid
// escalates it to arbitration.
func (d *DisputeEngine) Resolve(caller [20]byte, id uint64, resolution Resolution, decision Decision) (*Order, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	if _, err := d.engine.account(caller); err != nil {
		return nil, err
	}
	order, err := d.engine.load(id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusDisputed {
		return nil, ErrNotInDispute
	}
	if order.Seller != caller {
		return nil, ErrNotSeller
	}
	if !decision.Valid() {
		return nil, ErrInvalidDecision
	}
	if !resolution.Valid() {
		return nil, ErrInvalidResolution
	}
	if decision == DecisionInvalid {
		order.Status = StatusPendingArbiter
		if err := d.engine.put(order); err != nil {
			return nil, err
		}
		d.engine.emit(newDisputeEvent(EventTypeDisputeEscalated, order))
		return order.Clone(), nil
	}
	if err := d.applyResolution(order, resolution); err != nil {
		return nil, err
	}
	if err := d.engine.put(order); err != nil {
		return nil, err
	}
	d.engine.emit(newDisputeEvent(EventTypeDisputeResolved, order))
	return order.Clone(), nil
}

// ResolveArbiter settles an escalated dispute. The caller must hold the
// arbiter flag on their account. A valid decision applies the arbiter's
// resolution; ruling the dispute invalid forces a refund so the buyer is
// never stranded with a contested order.
func (d *DisputeEngine) ResolveArbiter(caller [20]byte, id uint64, resolution Resolution, decision Decision) (*Order, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	account, err := d.engine.account(caller)
	if err != nil {
		return nil, err
	}
	if !account.Arbiter {
		return nil, ErrNotArbiter
	}
	order, err := d.engine.load(id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPendingArbiter {
		return nil, ErrNotPendingArbiter
	}
	if !decision.Valid() {
		return nil, ErrInvalidDecision
	}
	if decision == DecisionInvalid {
		resolution = ResolutionRefund
	} else if !resolution.Valid() {
		return nil, ErrInvalidResolution
	}
	if err := d.applyResolution(order, resolution); err != nil {
		return nil, err
	}
	order.Arbiter = caller
	if err := d.engine.put(order); err != nil {
		return nil, err
	}
	d.engine.emit(newDisputeEvent(EventTypeDisputeRuled, order))
	return order.Clone(), nil
}

// applyResolution mutates the order according to the accepted resolution.
// Resend and exchange consume replacement units from the seller's deposit and
// put the order back in transit. A refund re-enters the cancellation protocol
// as a buyer request, so the escrow hold follows the ordinary refund path
// when the seller confirms. Other closes the order with no fund movement.
func (d *DisputeEngine) applyResolution(order *Order, resolution Resolution) error {
	switch resolution {
	case ResolutionResend, ResolutionExchange:
		if _, err := d.engine.market.DebitDeposit(order.Seller, order.ProductID, order.Quantity); err != nil {
			return err
		}
		order.Status = StatusShipped
	case ResolutionRefund:
		registerCancellationRequest(order, PartyBuyer)
	case ResolutionOther:
		order.Status = StatusResolved
	default:
		return ErrInvalidResolution
	}
	order.Resolution = resolution
	return nil
}

// Outcome reports the reason and resolution of a settled dispute. Both fields
// must be populated; anything less is a dispute that has not been resolved.
func (d *DisputeEngine) Outcome(id uint64) (Reason, Resolution, error) {
	if err := d.ready(); err != nil {
		return Reason{}, ResolutionNone, err
	}
	order, err := d.engine.load(id)
	if err != nil {
		return Reason{}, ResolutionNone, err
	}
	if order.DisputeReason.Kind == ReasonNone || order.Resolution == ResolutionNone {
		return Reason{}, ResolutionNone, ErrDisputeNotResolved
	}
	return order.DisputeReason, order.Resolution, nil
}
