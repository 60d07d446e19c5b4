package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"mercato/core/state"
	"mercato/native/ledger"
	storagepkg "mercato/storage"
)

func newTestVault(t *testing.T) (*Vault, *ledger.Ledger) {
	t.Helper()
	manager := state.NewManager(storagepkg.NewMemDB())
	l := ledger.NewLedger(manager)
	return NewVault(manager, l), l
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestLockDebitsBuyer(t *testing.T) {
	v, l := newTestVault(t)
	buyer := newTestAddress(0x01)

	_, err := l.Credit(buyer, big.NewInt(1000))
	require.NoError(t, err)

	require.NoError(t, v.Lock(7, buyer, big.NewInt(400)))

	balance, err := l.BalanceOf(buyer)
	require.NoError(t, err)
	require.Equal(t, int64(600), balance.Int64())

	held, ok, err := v.Held(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(400), held.Int64())
}

func TestLockDuplicateRejected(t *testing.T) {
	v, l := newTestVault(t)
	buyer := newTestAddress(0x02)

	_, err := l.Credit(buyer, big.NewInt(1000))
	require.NoError(t, err)

	require.NoError(t, v.Lock(1, buyer, big.NewInt(100)))
	err = v.Lock(1, buyer, big.NewInt(100))
	require.ErrorIs(t, err, ErrFundsAlreadyHeld)

	// The duplicate attempt must not touch the buyer balance.
	balance, err := l.BalanceOf(buyer)
	require.NoError(t, err)
	require.Equal(t, int64(900), balance.Int64())
}

func TestLockInsufficientBalance(t *testing.T) {
	v, l := newTestVault(t)
	buyer := newTestAddress(0x03)

	_, err := l.Credit(buyer, big.NewInt(50))
	require.NoError(t, err)

	err = v.Lock(2, buyer, big.NewInt(100))
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	_, ok, err := v.Held(2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReleaseConsumesHoldExactlyOnce(t *testing.T) {
	v, l := newTestVault(t)
	buyer := newTestAddress(0x04)
	seller := newTestAddress(0x05)

	_, err := l.Credit(buyer, big.NewInt(500))
	require.NoError(t, err)
	require.NoError(t, v.Lock(3, buyer, big.NewInt(500)))

	released, err := v.Release(3, seller)
	require.NoError(t, err)
	require.Equal(t, int64(500), released.Int64())

	balance, err := l.BalanceOf(seller)
	require.NoError(t, err)
	require.Equal(t, int64(500), balance.Int64())

	_, err = v.Release(3, seller)
	require.ErrorIs(t, err, ErrFundsNotHeld)
	_, err = v.Refund(3, buyer)
	require.ErrorIs(t, err, ErrFundsNotHeld)
}

func TestRefundReturnsFundsToBuyer(t *testing.T) {
	v, l := newTestVault(t)
	buyer := newTestAddress(0x06)

	_, err := l.Credit(buyer, big.NewInt(300))
	require.NoError(t, err)
	require.NoError(t, v.Lock(4, buyer, big.NewInt(300)))

	refunded, err := v.Refund(4, buyer)
	require.NoError(t, err)
	require.Equal(t, int64(300), refunded.Int64())

	balance, err := l.BalanceOf(buyer)
	require.NoError(t, err)
	require.Equal(t, int64(300), balance.Int64())

	_, ok, err := v.Held(4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReleaseWithoutHold(t *testing.T) {
	v, _ := newTestVault(t)

	_, err := v.Release(99, newTestAddress(0x07))
	require.ErrorIs(t, err, ErrFundsNotHeld)
}
