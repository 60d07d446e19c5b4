package orders

import (
	"errors"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"mercato/core/events"
	"mercato/native/catalog"
	"mercato/native/escrow"
	"mercato/native/reputation"
)

var (
	errNilState   = errors.New("orders: state not configured")
	errNilMarket  = errors.New("orders: catalog not configured")
	errNilVault   = errors.New("orders: escrow vault not configured")
	errNilRatings = errors.New("orders: reputation ledger not configured")
)

// Engine owns the order lifecycle: placement, shipping, receipt, the
// mutual-consent cancellation protocol and rating eligibility. Disputes are
// layered on top by the DisputeEngine in this package.
type Engine struct {
	state   engineState
	market  *catalog.Engine
	vault   *escrow.Vault
	ratings *reputation.Ledger
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an order engine with a no-op emitter. Callers wire the
// state backend and collaborator engines via the Set methods.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCatalog configures the catalog collaborator (users, publications,
// deposits).
func (e *Engine) SetCatalog(market *catalog.Engine) { e.market = market }

// SetVault configures the escrow vault used for balance-paid orders.
func (e *Engine) SetVault(vault *escrow.Vault) { e.vault = vault }

// SetRatings configures the reputation ledger updated by Rate.
func (e *Engine) SetRatings(ratings *reputation.Ledger) { e.ratings = ratings }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.market == nil {
		return errNilMarket
	}
	if e.vault == nil {
		return errNilVault
	}
	if e.ratings == nil {
		return errNilRatings
	}
	return nil
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) load(id uint64) (*Order, error) {
	var stored storedOrder
	ok, err := e.state.KVGet(orderKey(id), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotFound
	}
	return fromStored(&stored), nil
}

func (e *Engine) put(o *Order) error {
	return e.state.KVPut(orderKey(o.ID), toStored(o))
}

func (e *Engine) account(addr [20]byte) (*catalog.Account, error) {
	account, ok, err := e.market.Account(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return account, nil
}

// checkedTotal computes price × quantity in the checked-arithmetic domain.
func checkedTotal(price *big.Int, quantity uint64) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, ErrOverflow
	}
	p, overflow := uint256.FromBig(price)
	if overflow {
		return nil, ErrOverflow
	}
	total, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(quantity))
	if overflow {
		return nil, ErrOverflow
	}
	return total.ToBig(), nil
}

// Place creates a new order against a publication. For balance payments the
// buyer is debited and the total retained in escrow atomically with creation;
// a declared-cash payment only has to cover the total.
func (e *Engine) Place(buyer [20]byte, publicationID, quantity uint64, payment Payment) (*Order, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	account, err := e.account(buyer)
	if err != nil {
		return nil, err
	}
	if !account.Caps.CanBuy {
		return nil, ErrWrongRole
	}
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if !payment.Kind.Valid() {
		return nil, ErrInvalidPayment
	}
	pub, ok, err := e.market.Publication(publicationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPublicationNotFound
	}
	if pub.Stock < quantity {
		return nil, catalog.ErrInsufficientStock
	}
	total, err := checkedTotal(pub.Price, quantity)
	if err != nil {
		return nil, err
	}
	if payment.Kind == PaymentCash {
		if payment.Declared == nil || payment.Declared.Cmp(total) < 0 {
			return nil, ErrInsufficientAmount
		}
	}

	id, err := e.state.CounterNext(orderCounter)
	if err != nil {
		return nil, err
	}
	if payment.Kind == PaymentBalance {
		// Debits the buyer and retains the total against the new order
		// id. A rejected lock (insufficient balance, duplicate hold)
		// aborts placement before any other mutation.
		if err := e.vault.Lock(id, buyer, total); err != nil {
			return nil, err
		}
	}
	if err := e.market.DebitStock(publicationID, quantity); err != nil {
		return nil, err
	}
	order := &Order{
		ID:            id,
		Buyer:         buyer,
		Seller:        pub.Seller,
		ProductID:     pub.ProductID,
		PublicationID: publicationID,
		Quantity:      quantity,
		Total:         total,
		Payment:       payment.Kind,
		Status:        StatusPending,
		CreatedAt:     e.now(),
	}
	if err := e.put(order); err != nil {
		return nil, err
	}
	e.emit(newOrderEvent(EventTypeOrderPlaced, order))
	return order.Clone(), nil
}

// Get returns a snapshot of the order.
func (e *Engine) Get(id uint64) (*Order, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return order.Clone(), nil
}

// MarkShipped transitions a pending order to shipped. Only the seller may
// ship.
func (e *Engine) MarkShipped(caller [20]byte, id uint64) (*Order, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Seller != caller {
		return nil, ErrNotSeller
	}
	if order.Status == StatusCancelled {
		return nil, ErrOrderCancelled
	}
	if order.Status != StatusPending {
		return nil, ErrWrongState
	}
	order.Status = StatusShipped
	if err := e.put(order); err != nil {
		return nil, err
	}
	e.emit(newOrderEvent(EventTypeOrderShipped, order))
	return order.Clone(), nil
}

// MarkReceived transitions a shipped order to received and releases any
// escrow hold to the seller. A balance-paid order without a hold indicates
// inconsistent state and fails hard.
func (e *Engine) MarkReceived(caller [20]byte, id uint64) (*Order, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Buyer != caller {
		return nil, ErrNotBuyer
	}
	if order.Status != StatusShipped {
		return nil, ErrWrongState
	}
	if order.Payment == PaymentBalance {
		if _, err := e.vault.Release(order.ID, order.Seller); err != nil {
			return nil, err
		}
	}
	order.Status = StatusReceived
	if err := e.put(order); err != nil {
		return nil, err
	}
	e.emit(newOrderEvent(EventTypeOrderReceived, order))
	return order.Clone(), nil
}

// ManageCancellation advances the two-phase mutual-consent cancellation
// protocol. The first call must come from the buyer and registers the
// request; the first call from the counterparty finalizes the cancellation
// and refunds any escrow hold to the buyer. A repeat call from the
// requesting side fails with ErrCancellationPending, a call from an
// unrelated account with ErrNotAuthorized.
func (e *Engine) ManageCancellation(caller [20]byte, id uint64) (*Order, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPending {
		return nil, ErrWrongState
	}
	if !order.CancellationPending {
		if order.Buyer != caller {
			return nil, ErrNotBuyer
		}
		registerCancellationRequest(order, PartyBuyer)
		if err := e.put(order); err != nil {
			return nil, err
		}
		e.emit(newOrderEvent(EventTypeOrderCancelRequested, order))
		return order.Clone(), nil
	}
	requester := order.partyOf(order.CancellationRequestedBy)
	if caller == requester {
		return nil, ErrCancellationPending
	}
	counterpart := order.partyOf(order.CancellationRequestedBy.Counterpart())
	if caller != counterpart {
		return nil, ErrNotAuthorized
	}
	if order.Payment == PaymentBalance {
		if _, err := e.vault.Refund(order.ID, order.Buyer); err != nil {
			return nil, err
		}
	}
	order.Status = StatusCancelled
	order.CancellationPending = false
	if err := e.put(order); err != nil {
		return nil, err
	}
	e.emit(newOrderEvent(EventTypeOrderCancelled, order))
	return order.Clone(), nil
}

// partyOf resolves a Party tag to the matching account address.
func (o *Order) partyOf(p Party) [20]byte {
	switch p {
	case PartyBuyer:
		return o.Buyer
	case PartySeller:
		return o.Seller
	default:
		return [20]byte{}
	}
}

func registerCancellationRequest(o *Order, requester Party) {
	o.Status = StatusPending
	o.CancellationPending = true
	o.CancellationRequestedBy = requester
}

// Rate records the caller's rating of the counterparty on a received order
// and folds it into the counterparty's reputation for the matching role.
// Each side rates exactly once.
func (e *Engine) Rate(caller [20]byte, id uint64, score uint8) (*Order, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.account(caller); err != nil {
		return nil, err
	}
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusReceived {
		return nil, ErrWrongState
	}
	var side Party
	switch caller {
	case order.Buyer:
		side = PartyBuyer
	case order.Seller:
		side = PartySeller
	default:
		return nil, ErrNotAuthorized
	}
	if score < 1 || score > 5 {
		return nil, ErrRatingOutOfRange
	}
	switch side {
	case PartyBuyer:
		if order.RatedByBuyer {
			return nil, ErrAlreadyRated
		}
		if _, err := e.ratings.Add(order.Seller, reputation.RoleSeller, score); err != nil {
			return nil, err
		}
		order.RatedByBuyer = true
		order.SellerRating = score
	case PartySeller:
		if order.RatedBySeller {
			return nil, ErrAlreadyRated
		}
		if _, err := e.ratings.Add(order.Buyer, reputation.RoleBuyer, score); err != nil {
			return nil, err
		}
		order.RatedBySeller = true
		order.BuyerRating = score
	}
	if err := e.put(order); err != nil {
		return nil, err
	}
	e.emit(newRatingEvent(order, side, score))
	return order.Clone(), nil
}
