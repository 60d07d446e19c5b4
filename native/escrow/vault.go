package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"mercato/core/events"
)

// storage abstracts the subset of state manager functionality required by the
// hold table.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// balanceLedger is the slice of the account ledger the vault moves value
// through.
type balanceLedger interface {
	Credit(addr [20]byte, amount *big.Int) (*big.Int, error)
	Debit(addr [20]byte, amount *big.Int) (*big.Int, error)
}

var holdPrefix = []byte("escrow/hold/")

func holdKey(orderID uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", holdPrefix, orderID))
}

type storedHold struct {
	Amount   *big.Int
	LockedAt uint64
}

// Vault retains buyer funds against a specific order until they are released
// to the seller or refunded to the buyer. A hold is created at most once per
// order and consumed exactly once.
type Vault struct {
	store   storage
	ledger  balanceLedger
	emitter events.Emitter
	nowFn   func() int64
}

// NewVault constructs a vault bound to the provided storage backend and
// account ledger.
func NewVault(store storage, ledger balanceLedger) *Vault {
	return &Vault{
		store:   store,
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter used by the vault. Passing nil
// resets the emitter to a no-op implementation.
func (v *Vault) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		v.emitter = events.NoopEmitter{}
		return
	}
	v.emitter = emitter
}

// SetNowFunc overrides the time source used for hold timestamps. Primarily
// intended for tests.
func (v *Vault) SetNowFunc(now func() int64) {
	if now == nil {
		v.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	v.nowFn = now
}

func (v *Vault) emit(evt *holdEvent) {
	if v == nil || v.emitter == nil || evt == nil {
		return
	}
	v.emitter.Emit(evt)
}

func (v *Vault) ready() error {
	if v == nil || v.store == nil {
		return errors.New("escrow: storage unavailable")
	}
	if v.ledger == nil {
		return errors.New("escrow: ledger not configured")
	}
	return nil
}

// Held reports the retained amount for the order, ok=false when no hold
// exists.
func (v *Vault) Held(orderID uint64) (*big.Int, bool, error) {
	if err := v.ready(); err != nil {
		return nil, false, err
	}
	var stored storedHold
	ok, err := v.store.KVGet(holdKey(orderID), &stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	amount := stored.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	return new(big.Int).Set(amount), true, nil
}

// Lock debits the buyer and retains the amount against the order. The debit
// happens only after the duplicate-hold check so a rejected lock leaves both
// the ledger and the hold table untouched.
func (v *Vault) Lock(orderID uint64, buyer [20]byte, amount *big.Int) error {
	if err := v.ready(); err != nil {
		return err
	}
	var existing storedHold
	ok, err := v.store.KVGet(holdKey(orderID), &existing)
	if err != nil {
		return err
	}
	if ok {
		return ErrFundsAlreadyHeld
	}
	if _, err := v.ledger.Debit(buyer, amount); err != nil {
		return err
	}
	stored := storedHold{
		Amount:   new(big.Int).Set(amount),
		LockedAt: uint64(v.nowFn()),
	}
	if err := v.store.KVPut(holdKey(orderID), &stored); err != nil {
		return err
	}
	v.emit(newHoldEvent(EventTypeEscrowLocked, orderID, stored.Amount, buyer))
	return nil
}

// Release credits the held amount to the recipient and removes the hold.
func (v *Vault) Release(orderID uint64, to [20]byte) (*big.Int, error) {
	return v.consume(orderID, to, EventTypeEscrowReleased)
}

// Refund credits the held amount back to the buyer and removes the hold.
func (v *Vault) Refund(orderID uint64, buyer [20]byte) (*big.Int, error) {
	return v.consume(orderID, buyer, EventTypeEscrowRefunded)
}

func (v *Vault) consume(orderID uint64, recipient [20]byte, eventType string) (*big.Int, error) {
	if err := v.ready(); err != nil {
		return nil, err
	}
	var stored storedHold
	ok, err := v.store.KVGet(holdKey(orderID), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFundsNotHeld
	}
	amount := stored.Amount
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("escrow: corrupt hold for order %d", orderID)
	}
	if _, err := v.ledger.Credit(recipient, amount); err != nil {
		return nil, err
	}
	if err := v.store.KVDelete(holdKey(orderID)); err != nil {
		return nil, err
	}
	v.emit(newHoldEvent(eventType, orderID, amount, recipient))
	return new(big.Int).Set(amount), nil
}
