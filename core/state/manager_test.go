package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"mercato/storage"
)

func TestKVRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	type record struct {
		Name  string
		Value uint64
	}
	ok, err := m.KVGet([]byte("test/record"), &record{})
	require.NoError(t, err)
	require.False(t, ok)

	stored := record{Name: "alpha", Value: 7}
	require.NoError(t, m.KVPut([]byte("test/record"), &stored))

	var loaded record
	ok, err = m.KVGet([]byte("test/record"), &loaded)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stored, loaded)

	require.NoError(t, m.KVDelete([]byte("test/record")))
	ok, err = m.KVGet([]byte("test/record"), &loaded)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVBigInt(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	amount := new(big.Int).Lsh(big.NewInt(1), 130)
	require.NoError(t, m.KVPut([]byte("test/amount"), amount))

	loaded := new(big.Int)
	ok, err := m.KVGet([]byte("test/amount"), loaded)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, amount.Cmp(loaded))
}

func TestCounterNext(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	first, err := m.CounterNext("orders")
	require.NoError(t, err)
	require.Equal(t, uint64(1), first)

	second, err := m.CounterNext("orders")
	require.NoError(t, err)
	require.Equal(t, uint64(2), second)

	other, err := m.CounterNext("publications")
	require.NoError(t, err)
	require.Equal(t, uint64(1), other)
}
