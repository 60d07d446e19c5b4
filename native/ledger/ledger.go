package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// storage abstracts the subset of state manager functionality required by the
// balance ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var balancePrefix = []byte("ledger/balance/")

func balanceKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", balancePrefix, addr))
}

// Ledger tracks the spendable balance of every marketplace account. Balances
// never go negative and every increment is overflow checked before it is
// applied.
type Ledger struct {
	store storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store}
}

// checkedAmount validates a caller-supplied amount and converts it into the
// checked-arithmetic domain.
func checkedAmount(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInsufficientAmount
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func (l *Ledger) load(addr [20]byte) (*uint256.Int, error) {
	if l == nil || l.store == nil {
		return nil, errors.New("ledger: storage unavailable")
	}
	stored := new(big.Int)
	ok, err := l.store.KVGet(balanceKey(addr), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return uint256.NewInt(0), nil
	}
	balance, overflow := uint256.FromBig(stored)
	if overflow {
		return nil, fmt.Errorf("ledger: stored balance out of range for %x", addr)
	}
	return balance, nil
}

func (l *Ledger) put(addr [20]byte, balance *uint256.Int) error {
	return l.store.KVPut(balanceKey(addr), balance.ToBig())
}

// BalanceOf returns the spendable balance of the account, zero when the
// account has never been credited.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	balance, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	return balance.ToBig(), nil
}

// Credit adds amount to the account balance and returns the new balance. The
// addition is overflow checked; on ErrOverflow the stored balance is left
// untouched.
func (l *Ledger) Credit(addr [20]byte, amount *big.Int) (*big.Int, error) {
	amt, err := checkedAmount(amount)
	if err != nil {
		return nil, err
	}
	balance, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	sum, carry := new(uint256.Int).AddOverflow(balance, amt)
	if carry {
		return nil, ErrOverflow
	}
	if err := l.put(addr, sum); err != nil {
		return nil, err
	}
	return sum.ToBig(), nil
}

// Debit removes amount from the account balance and returns the new balance.
// The balance is compared against the amount before any mutation so a failed
// debit leaves state untouched.
func (l *Ledger) Debit(addr [20]byte, amount *big.Int) (*big.Int, error) {
	amt, err := checkedAmount(amount)
	if err != nil {
		return nil, err
	}
	balance, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	if balance.Lt(amt) {
		return nil, ErrInsufficientBalance
	}
	remainder, borrow := new(uint256.Int).SubOverflow(balance, amt)
	if borrow {
		return nil, ErrInsufficientBalance
	}
	if err := l.put(addr, remainder); err != nil {
		return nil, err
	}
	return remainder.ToBig(), nil
}
