package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"mercato/storage"
)

// Manager provides keyed access to the marketplace state. Logical keys are
// hashed before hitting the backing store so arbitrary-length keys stay within
// the backend's comfort zone, and values are RLP encoded.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var counterPrefix = []byte("counter/")

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func counterKey(name string) []byte {
	buf := make([]byte, len(counterPrefix)+len(name))
	copy(buf, counterPrefix)
	copy(buf[len(counterPrefix):], name)
	return buf
}

// KVPut encodes value with RLP and stores it under the hashed key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode value: %w", err)
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet loads the value stored under key into out. The boolean reports whether
// a record existed; decoding problems surface as errors.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errors.New("state: manager not initialised")
	}
	data, err := m.db.Get(kvKey(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode value: %w", err)
	}
	return true, nil
}

// KVDelete removes the record stored under key. Deleting an absent record is
// not an error.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	return m.db.Delete(kvKey(key))
}

// CounterNext increments the named monotonic counter and returns the new
// value. Counters start at 1 and never repeat.
func (m *Manager) CounterNext(name string) (uint64, error) {
	key := counterKey(name)
	var current uint64
	if _, err := m.KVGet(key, &current); err != nil {
		return 0, err
	}
	next := current + 1
	if next == 0 {
		return 0, fmt.Errorf("state: counter %q exhausted", name)
	}
	if err := m.KVPut(key, next); err != nil {
		return 0, err
	}
	return next, nil
}
