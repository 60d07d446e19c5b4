package orders

import "math/big"

// Status represents the lifecycle states of a purchase order.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusShipped
	StatusReceived
	StatusCancelled
	StatusDisputed
	StatusPendingArbiter
	StatusResolved
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusResolved
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusShipped:
		return "shipped"
	case StatusReceived:
		return "received"
	case StatusCancelled:
		return "cancelled"
	case StatusDisputed:
		return "disputed"
	case StatusPendingArbiter:
		return "pending_arbiter"
	case StatusResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Terminal reports whether the order can never leave this state again.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusResolved
}

// Party identifies one side of an order.
type Party uint8

const (
	PartyNone Party = iota
	PartyBuyer
	PartySeller
)

func (p Party) String() string {
	switch p {
	case PartyBuyer:
		return "buyer"
	case PartySeller:
		return "seller"
	default:
		return "none"
	}
}

// Counterpart returns the opposite side of the order.
func (p Party) Counterpart() Party {
	switch p {
	case PartyBuyer:
		return PartySeller
	case PartySeller:
		return PartyBuyer
	default:
		return PartyNone
	}
}

// PaymentKind selects how an order is settled.
type PaymentKind uint8

const (
	// PaymentCash is an unverified declaration of sufficient off-system
	// funds. No ledger entry is created.
	PaymentCash PaymentKind = iota + 1
	// PaymentBalance debits the buyer's spendable balance at placement and
	// retains the total in escrow until receipt or cancellation.
	PaymentBalance
)

func (k PaymentKind) Valid() bool {
	return k == PaymentCash || k == PaymentBalance
}

func (k PaymentKind) String() string {
	switch k {
	case PaymentCash:
		return "cash"
	case PaymentBalance:
		return "balance"
	default:
		return "unknown"
	}
}

// Payment carries the payment selection for order placement. Declared is only
// meaningful for PaymentCash.
type Payment struct {
	Kind     PaymentKind
	Declared *big.Int
}

// ReasonKind enumerates the fixed dispute categories. ReasonOther carries a
// free-text detail.
type ReasonKind uint8

const (
	ReasonNone ReasonKind = iota
	ReasonNotDelivered
	ReasonDefective
	ReasonWrongProduct
	ReasonOther
)

func (k ReasonKind) Valid() bool {
	return k >= ReasonNotDelivered && k <= ReasonOther
}

func (k ReasonKind) String() string {
	switch k {
	case ReasonNotDelivered:
		return "not_delivered"
	case ReasonDefective:
		return "defective"
	case ReasonWrongProduct:
		return "wrong_product"
	case ReasonOther:
		return "other"
	default:
		return "none"
	}
}

// Reason is the buyer's stated grounds for a dispute.
type Reason struct {
	Kind   ReasonKind
	Detail string
}

// Resolution enumerates the outcomes a seller or arbiter can apply to a
// dispute.
type Resolution uint8

const (
	ResolutionNone Resolution = iota
	ResolutionResend
	ResolutionExchange
	ResolutionRefund
	ResolutionOther
)

func (r Resolution) Valid() bool {
	return r >= ResolutionResend && r <= ResolutionOther
}

func (r Resolution) String() string {
	switch r {
	case ResolutionResend:
		return "resend"
	case ResolutionExchange:
		return "exchange"
	case ResolutionRefund:
		return "refund"
	case ResolutionOther:
		return "other"
	default:
		return "none"
	}
}

// Decision is the verdict attached to a proposed resolution.
type Decision uint8

const (
	DecisionValid Decision = iota + 1
	DecisionInvalid
)

func (d Decision) Valid() bool {
	return d == DecisionValid || d == DecisionInvalid
}

// Order is the central marketplace entity: one purchase transaction linking a
// buyer, a seller, a product quantity and a monetary total. Buyer, seller,
// product, quantity and total are fixed at creation and never change.
type Order struct {
	ID            uint64
	Buyer         [20]byte
	Seller        [20]byte
	ProductID     uint64
	PublicationID uint64
	Quantity      uint64
	Total         *big.Int
	Payment       PaymentKind
	Status        Status
	CreatedAt     int64

	CancellationPending     bool
	CancellationRequestedBy Party

	RatedByBuyer  bool
	RatedBySeller bool
	SellerRating  uint8
	BuyerRating   uint8

	DisputeReason Reason
	Resolution    Resolution
	Arbiter       [20]byte
}

// Clone returns a deep copy of the order so callers can safely mutate the
// copy without affecting the stored instance.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Total != nil {
		clone.Total = new(big.Int).Set(o.Total)
	} else {
		clone.Total = big.NewInt(0)
	}
	return &clone
}
