package reputation

import (
	"errors"
	"fmt"
	"math"
)

// storage abstracts the subset of state manager functionality required by the
// reputation ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var recordPrefix = []byte("reputation/record/")

func recordKey(addr [20]byte, role Role) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", recordPrefix, addr, role))
}

var errInvalidRole = errors.New("reputation: invalid role")

// Ledger persists per-account, per-role rating aggregates.
type Ledger struct {
	store storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store}
}

// Record returns the stored aggregate for the account and role. A missing
// record is returned as the zero aggregate.
func (l *Ledger) Record(addr [20]byte, role Role) (*Record, error) {
	if l == nil || l.store == nil {
		return nil, errors.New("reputation: storage unavailable")
	}
	if !role.Valid() {
		return nil, errInvalidRole
	}
	record := &Record{}
	if _, err := l.store.KVGet(recordKey(addr, role), record); err != nil {
		return nil, err
	}
	return record, nil
}

// Add folds a rating into the aggregate. Ratings are bounded to [1,5] by the
// order engine, so the sums cannot overflow in practice; the arithmetic still
// saturates rather than wrapping.
func (l *Ledger) Add(addr [20]byte, role Role, score uint8) (*Record, error) {
	record, err := l.Record(addr, role)
	if err != nil {
		return nil, err
	}
	record.Sum = saturatingAdd(record.Sum, uint64(score))
	record.Count = saturatingAdd(record.Count, 1)
	if err := l.store.KVPut(recordKey(addr, role), record); err != nil {
		return nil, err
	}
	return record, nil
}

// Average returns the integer floor of the account's rating average for the
// role, zero when no ratings exist.
func (l *Ledger) Average(addr [20]byte, role Role) (uint64, error) {
	record, err := l.Record(addr, role)
	if err != nil {
		return 0, err
	}
	return record.Average(), nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
